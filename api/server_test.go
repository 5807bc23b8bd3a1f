package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unworried/flip/vm"
)

func testProgram(t *testing.T) string {
	t.Helper()
	lit12 := func(v uint16) vm.Literal12Bit {
		l, err := vm.NewLiteral12Bit(v)
		require.NoError(t, err)
		return l
	}
	n, err := vm.NewNibble(0)
	require.NoError(t, err)

	instructions := []vm.Instruction{
		vm.Imm(vm.A, lit12(11)),
		vm.Imm(vm.B, lit12(15)),
		vm.Add(vm.A, vm.B, vm.C),
		vm.Imm(vm.M, lit12(0xf0)),
		vm.System(vm.M, vm.Zero, n),
	}
	out := make([]byte, 0, len(instructions)*2)
	for _, ins := range instructions {
		w := ins.Encode()
		out = append(out, byte(w), byte(w>>8))
	}
	return hex.EncodeToString(out)
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSessionLifecycle(t *testing.T) {
	srv := httptest.NewServer(NewServer(0, 10000).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/api/sessions", CreateSessionRequest{Program: testProgram(t)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[CreateSessionResponse](t, resp)
	require.NotEmpty(t, created.ID)

	// initial state
	getResp, err := http.Get(srv.URL + "/api/sessions/" + created.ID + "/state")
	require.NoError(t, err)
	state := decode[StateResponse](t, getResp)
	assert.Equal(t, uint16(0), state.Registers["PC"])
	assert.False(t, state.Halted)

	// step twice: A and B loaded
	resp = postJSON(t, srv, "/api/sessions/"+created.ID+"/step", StepRequest{Count: 2})
	state = decode[StateResponse](t, resp)
	assert.Equal(t, uint16(11), state.Registers["A"])
	assert.Equal(t, uint16(15), state.Registers["B"])

	// run to halt
	resp = postJSON(t, srv, "/api/sessions/"+created.ID+"/run", nil)
	state = decode[StateResponse](t, resp)
	assert.True(t, state.Halted)
	assert.Equal(t, uint16(26), state.Registers["C"])
}

func TestUnknownSession(t *testing.T) {
	srv := httptest.NewServer(NewServer(0, 100).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/sessions/session-99/state")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCreateRejectsBadProgram(t *testing.T) {
	srv := httptest.NewServer(NewServer(0, 100).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/api/sessions", CreateSessionRequest{Program: "zz"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, srv, "/api/sessions", CreateSessionRequest{Program: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestBreakpointPausesRun(t *testing.T) {
	srv := httptest.NewServer(NewServer(0, 10000).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/api/sessions", CreateSessionRequest{Program: testProgram(t)})
	created := decode[CreateSessionResponse](t, resp)

	resp = postJSON(t, srv, "/api/sessions/"+created.ID+"/breakpoint", BreakpointRequest{Address: 4})
	_ = resp.Body.Close()

	resp = postJSON(t, srv, "/api/sessions/"+created.ID+"/run", nil)
	state := decode[StateResponse](t, resp)
	assert.False(t, state.Halted)
	assert.Equal(t, uint16(4), state.Registers["PC"])
	assert.Equal(t, "breakpoint", state.State)
}

func TestDeleteSession(t *testing.T) {
	srv := httptest.NewServer(NewServer(0, 100).Handler())
	defer srv.Close()

	resp := postJSON(t, srv, "/api/sessions", CreateSessionRequest{Program: testProgram(t)})
	created := decode[CreateSessionResponse](t, resp)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+created.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	_ = delResp.Body.Close()

	getResp, err := http.Get(srv.URL + "/api/sessions/" + created.ID + "/state")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	_ = getResp.Body.Close()
}
