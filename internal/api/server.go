// Package api serves wizard sessions over JSON.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"equimarket/internal/cms"
	"equimarket/internal/common/auth"
	apperrors "equimarket/internal/common/errors"
	"equimarket/internal/common/logger"
	"equimarket/internal/i18n"
	"equimarket/internal/submission"
	"equimarket/internal/wizard"
)

const (
	defaultMaxUploadBytes = 20 << 20
	multipartMemory       = 8 << 20
	healthCheckTimeout    = 2 * time.Second
)

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Orchestrator *submission.Orchestrator
	CMS          cms.Client
	StepStore    wizard.StepStore
	// Verifier authorizes editing an existing document.
	Verifier auth.Verifier
	// Tokens backs GET /api/auth/verify. The route is not mounted when nil.
	Tokens  *auth.TokenService
	Catalog *i18n.Catalog
	Health  map[string]HealthCheck
}

type Options struct {
	CookieName     string
	MaxUploadBytes int64
	SessionTTL     time.Duration
}

type Server struct {
	deps     Dependencies
	opts     Options
	sessions *Sessions
	errors   *apperrors.ErrorHandler
	newID    func() string
	mux      *http.ServeMux
	logger   logger.Logger
}

func NewServer(deps Dependencies, opts Options, log logger.Logger) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "auth_token"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if deps.StepStore == nil {
		deps.StepStore = wizard.NewMemoryStepStore()
	}

	log = log.WithFields(map[string]interface{}{"component": "api"})
	s := &Server{
		deps:     deps,
		opts:     opts,
		sessions: NewSessions(opts.SessionTTL),
		errors:   apperrors.NewErrorHandler(log),
		newID:    uuid.NewString,
		mux:      http.NewServeMux(),
		logger:   log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/wizards/{entity}", s.handleCreate)
	s.mux.HandleFunc("GET /api/wizards/{id}", s.handleGet)
	s.mux.HandleFunc("DELETE /api/wizards/{id}", s.handleAbandon)
	s.mux.HandleFunc("PATCH /api/wizards/{id}/fields", s.handleFields)
	s.mux.HandleFunc("POST /api/wizards/{id}/files/{field}", s.handleUpload)
	s.mux.HandleFunc("POST /api/wizards/{id}/next", s.handleNext)
	s.mux.HandleFunc("POST /api/wizards/{id}/prev", s.handlePrev)
	s.mux.HandleFunc("GET /api/wizards/{id}/score", s.handleScore)
	s.mux.HandleFunc("POST /api/wizards/{id}/submit", s.handleSubmit)

	if s.deps.Tokens != nil {
		s.mux.Handle("GET /api/auth/verify", auth.VerifyHandler(s.deps.Tokens, s.opts.CookieName))
	}
	s.mux.HandleFunc("GET /assets/{id}", s.handleAsset)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the mux wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	return s.recoverer(s.requestLogger(s.mux))
}

// Sessions exposes the session registry, mainly for its janitor.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}
