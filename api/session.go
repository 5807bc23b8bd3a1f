package api

import (
	"fmt"
	"sync"

	"github.com/unworried/flip/debugger"
	"github.com/unworried/flip/loader"
	"github.com/unworried/flip/vm"
)

// session is one loaded machine guarded by a mutex; HTTP handlers and
// websocket readers share it.
type session struct {
	id  string
	mu  sync.Mutex
	dbg *debugger.Debugger
}

func newSession(id string, program []byte, maxSteps int) (*session, error) {
	machine, err := loader.Load(program)
	if err != nil {
		return nil, err
	}
	return &session{
		id:  id,
		dbg: debugger.New(machine, program, maxSteps),
	}, nil
}

func (s *session) step(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count < 1 {
		count = 1
	}
	for i := 0; i < count && !s.dbg.Machine.Halt; i++ {
		if err := s.dbg.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) run() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dbg.Continue()
}

func (s *session) toggleBreakpoint(addr uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dbg.Breakpoints().Toggle(addr)
}

func (s *session) state() StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.dbg.Machine
	resp := StateResponse{
		ID: s.id,
		Registers: map[string]uint16{
			"A": m.GetRegister(vm.A), "B": m.GetRegister(vm.B),
			"C": m.GetRegister(vm.C), "M": m.GetRegister(vm.M),
			"SP": m.GetRegister(vm.SP), "PC": m.GetRegister(vm.PC),
			"BP": m.GetRegister(vm.BP),
		},
		Halted: m.Halt,
		State:  s.dbg.State.String(),
	}
	if s.dbg.LastErr != nil {
		resp.Error = s.dbg.LastErr.Error()
	}
	return resp
}

// sessionManager issues ids and owns the session table.
type sessionManager struct {
	mu       sync.Mutex
	next     int
	sessions map[string]*session
}

func newSessionManager() *sessionManager {
	return &sessionManager{sessions: make(map[string]*session)}
}

func (sm *sessionManager) create(program []byte, maxSteps int) (*session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.next++
	id := fmt.Sprintf("session-%d", sm.next)
	s, err := newSession(id, program, maxSteps)
	if err != nil {
		return nil, err
	}
	sm.sessions[id] = s
	return s, nil
}

func (sm *sessionManager) get(id string) (*session, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	s, ok := sm.sessions[id]
	return s, ok
}

func (sm *sessionManager) remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}
