// Package server exposes the orchestration layer over HTTP: agent
// registration and listing, plan runs, and event inspection. Serialization
// and routing live here; all orchestration semantics stay in the façade.
// JSON plan definitions carry agent references and unconditional edges only;
// decision functions are in-process values and cannot cross the wire.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/agentbridge"
	"github.com/hupe1980/agentbridge/core"
	"github.com/hupe1980/agentbridge/logging"
)

// EventLister exposes recorded events for inspection. The in-memory sink
// satisfies it; persistent sinks may be adapted or omitted.
type EventLister interface {
	Events() []core.Event
}

// Options holds dependency overrides passed to New.
type Options struct {
	// Events backs GET /api/events. Nil disables the endpoint.
	Events EventLister
	// Logger receives diagnostic output. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server is the HTTP surface over an Orchestrator.
type Server struct {
	orchestrator *agentbridge.Orchestrator
	events       EventLister
	logger       logging.Logger
	router       chi.Router
}

// New constructs the server and mounts its routes.
func New(orchestrator *agentbridge.Orchestrator, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		orchestrator: orchestrator,
		events:       opts.Events,
		logger:       opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Post("/agents", s.handleRegisterAgent)
		r.Get("/agents", s.handleListAgents)
		r.Post("/runs", s.handleRun)
		r.Get("/events", s.handleListEvents)
	})
	s.router = r

	return s
}

// Handler returns the mounted HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

type registerAgentRequest struct {
	DisplayName  string           `json:"display_name"`
	Capabilities []string         `json:"capabilities"`
	BackendKind  core.BackendKind `json:"backend_kind"`
}

func (s *Server) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req registerAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DisplayName == "" {
		s.writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	identity, err := s.orchestrator.RegisterAgent(req.DisplayName, req.Capabilities, req.BackendKind)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, identity)
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orchestrator.Registry().List())
}

type runRequest struct {
	BackendKind core.BackendKind `json:"backend_kind"`
	Plan        core.PlanDef     `json:"plan"`
	Initial     core.State       `json:"initial"`
}

type runResponse struct {
	Result core.ExecutionResult `json:"result"`
	Error  string               `json:"error,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.orchestrator.RunSync(r.Context(), req.BackendKind, req.Plan, req.Initial)
	if err != nil {
		var compErr *core.CompositionError
		switch {
		case errors.Is(err, core.ErrUnknownBackend):
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.As(err, &compErr):
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		// Execution failures still carry the uniform FAILED result; the
		// diagnostic travels alongside it.
		s.writeJSON(w, http.StatusOK, runResponse{Result: result, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, runResponse{Result: result})
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	if s.events == nil {
		s.writeError(w, http.StatusNotFound, "event inspection is not configured")
		return
	}
	s.writeJSON(w, http.StatusOK, s.events.Events())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
