// Package server exposes the sampling engine over HTTP: session
// control, stored-session retrieval, and a WebSocket feed of live
// lifecycle events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resmon/internal/logging"
	"resmon/internal/session"
	"resmon/internal/stats"
	"resmon/internal/store"
)

// Server wires the engine and the session store into an HTTP mux
type Server struct {
	engine *session.Engine
	store  *store.FileStore
	logger *logging.Logger
	mux    *http.ServeMux
	http   *http.Server
}

// New builds a server listening on addr
func New(addr string, engine *session.Engine, st *store.FileStore, logger *logging.Logger) *Server {
	s := &Server{
		engine: engine,
		store:  st,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/session/start", s.handleStart)
	s.mux.HandleFunc("/api/session/stop", s.handleStop)
	s.mux.HandleFunc("/api/session", s.handleCurrent)
	s.mux.HandleFunc("/api/session/stats", s.handleStats)
	s.mux.HandleFunc("/api/sessions", s.handleList)
	s.mux.HandleFunc("/api/sessions/", s.handleGet)
	s.mux.HandleFunc("/ws", s.handleWS)
}

// ListenAndServe blocks until the server fails or Shutdown is called
func (s *Server) ListenAndServe() error {
	s.logger.Info("server.start", "HTTP server listening", map[string]interface{}{
		"addr": s.http.Addr,
	})
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains connections and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.stop", "HTTP server shutting down", nil)
	return s.http.Shutdown(ctx)
}

// Handler returns the request mux, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

type startRequest struct {
	DurationSeconds float64 `json:"duration_seconds"`
	IntervalSeconds float64 `json:"interval_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  string(s.engine.State()),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.engine.Start(session.Config{
		Duration: time.Duration(req.DurationSeconds * float64(time.Second)),
		Interval: time.Duration(req.IntervalSeconds * float64(time.Second)),
	})
	if err != nil {
		var cfgErr *session.ConfigError
		switch {
		case errors.Is(err, session.ErrSessionRunning):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &cfgErr):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if err := s.engine.Stop(); err != nil {
		// Session completed; only the snapshot write failed.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess := s.engine.Current()
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]string{"state": string(session.StateIdle)})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	sess := s.engine.Current()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no session has run yet")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary := stats.Compute(s.engine.Measurements())
	if summary == nil {
		writeError(w, http.StatusNotFound, "no measurements collected yet")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	metas, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if metas == nil {
		metas = []store.Meta{}
	}
	writeJSON(w, http.StatusOK, metas)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/sessions/"):]
	if id == "" {
		writeError(w, http.StatusBadRequest, "session ID required")
		return
	}

	sess, err := s.store.Load(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	if r.URL.Query().Get("stats") == "true" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session": sess,
			"stats":   stats.Compute(sess.Measurements),
		})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":"encoding failed"}`)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
