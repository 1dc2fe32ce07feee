// Package daemon serves the mastery service as a local JSON HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/crucible/internal/config"
	"github.com/felixgeelhaar/crucible/internal/domain"
	"github.com/felixgeelhaar/crucible/internal/mastery"
)

// maxBodyBytes bounds submitted responses
const maxBodyBytes = 1 << 20

// Server represents the crucible daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	service *mastery.Service
	version string

	server  *http.Server
	router  *http.ServeMux
	limiter ratelimit.RateLimiter
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config  *config.LocalConfig
	Service *mastery.Service
	Version string
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil || cfg.Service == nil {
		return nil, errors.New("daemon: config and service are required")
	}
	s := &Server{
		cfg:     cfg.Config,
		service: cfg.Service,
		version: cfg.Version,
		router:  http.NewServeMux(),
	}
	if s.version == "" {
		s.version = "dev"
	}

	s.setupRoutes()

	var handler http.Handler = s.router
	if rl := cfg.Config.Daemon.RateLimit; rl.Enabled {
		interval, err := rl.IntervalDuration()
		if err != nil {
			return nil, err
		}
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rl.Rate,
			Burst:    rl.Burst,
			Interval: interval,
		})
		handler = rateLimitMiddleware(s.limiter)(handler)
	}
	handler = recoveryMiddleware(loggingMiddleware(correlationIDMiddleware(handler)))

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Handler returns the full middleware chain
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Curriculum
	s.router.HandleFunc("GET /v1/topics", s.handleListTopics)
	s.router.HandleFunc("GET /v1/topics/{id}", s.handleGetTopic)
	s.router.HandleFunc("POST /v1/topics/{id}/start", s.handleStartTopic)
	s.router.HandleFunc("POST /v1/topics/{id}/drills/{drillID}/attempts", s.handleDrillAttempt)
	s.router.HandleFunc("POST /v1/topics/{id}/challenge/attempts", s.handleChallengeAttempt)

	// Mastery
	s.router.HandleFunc("GET /v1/mastery", s.handleGetMastery)
	s.router.HandleFunc("GET /v1/mastery/domains", s.handleDomainMastery)
	s.router.HandleFunc("DELETE /v1/mastery", s.handleReset)

	// Export
	s.router.HandleFunc("GET /v1/export/json", s.handleExportJSON)
	s.router.HandleFunc("GET /v1/export/markdown", s.handleExportMarkdown)

	// Stateless scoring
	s.router.HandleFunc("POST /v1/evaluate/drill", s.handleEvaluateDrill)
	s.router.HandleFunc("POST /v1/evaluate/challenge", s.handleEvaluateChallenge)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting crucible daemon",
		"addr", s.server.Addr,
		"storage", s.cfg.Storage.Backend,
		"version", s.version,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			slog.Warn("failed to close rate limiter", "error", err)
		}
	}
	return s.server.Shutdown(ctx)
}

// Helper methods

type errorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message, Status: status}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// serviceError maps domain errors onto HTTP statuses
func (s *Server) serviceError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrTopicNotFound), errors.Is(err, domain.ErrDrillNotFound), errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTopicLocked):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	s.jsonError(w, status, message, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
