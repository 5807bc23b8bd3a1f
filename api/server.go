// Package api exposes machine sessions over HTTP for debugger
// frontends: create a session from a program image, drive it with
// step/run and breakpoints, and stream state snapshots over a websocket.
// Sessions cannot be reset; a fresh run needs a new session.
package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Server hosts the debug API.
type Server struct {
	port     int
	maxSteps int
	sessions *sessionManager
	httpSrv  *http.Server
	upgrader websocket.Upgrader
}

// NewServer creates a server on the given port. maxSteps bounds each
// session's execution.
func NewServer(port, maxSteps int) *Server {
	s := &Server{
		port:     port,
		maxSteps: maxSteps,
		sessions: newSessionManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/sessions/{id}/state", s.handleState)
	mux.HandleFunc("POST /api/sessions/{id}/step", s.handleStep)
	mux.HandleFunc("POST /api/sessions/{id}/run", s.handleRun)
	mux.HandleFunc("POST /api/sessions/{id}/breakpoint", s.handleBreakpoint)
	mux.HandleFunc("GET /api/sessions/{id}/ws", s.handleWebsocket)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener closes.
func (s *Server) Start() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) findSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := r.PathValue("id")
	sess, ok := s.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown session: %s", id))
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	program, err := hex.DecodeString(req.Program)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid program hex: %w", err))
		return
	}

	sess, err := s.sessions.create(program, s.maxSteps)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateSessionResponse{ID: sess.id})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.sessions.remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.findSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.state())
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.findSession(w, r)
	if !ok {
		return
	}

	var req StepRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := sess.step(req.Count); err != nil {
		// the fault is part of the session state; report it with 200
		writeJSON(w, http.StatusOK, sess.state())
		return
	}
	writeJSON(w, http.StatusOK, sess.state())
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.findSession(w, r)
	if !ok {
		return
	}
	_ = sess.run()
	writeJSON(w, http.StatusOK, sess.state())
}

func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.findSession(w, r)
	if !ok {
		return
	}

	var req BreakpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess.toggleBreakpoint(req.Address)
	writeJSON(w, http.StatusOK, sess.state())
}

// handleWebsocket streams a state snapshot after every command sent by
// the client. Commands are "step", "run" and "state".
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.findSession(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	for {
		var cmd struct {
			Command string `json:"command"`
			Count   int    `json:"count"`
		}
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}

		switch cmd.Command {
		case "step":
			_ = sess.step(cmd.Count)
		case "run":
			_ = sess.run()
		case "state":
			// snapshot only
		default:
			_ = conn.WriteJSON(ErrorResponse{Error: "unknown command: " + cmd.Command})
			continue
		}

		if err := conn.WriteJSON(sess.state()); err != nil {
			return
		}
	}
}
