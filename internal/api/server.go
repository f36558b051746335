// Package api exposes the HTTP interface for the report gateway and the
// labeling service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/metrics"
	"github.com/Lllllllleong/reportlabeler/internal/models"
	"github.com/Lllllllleong/reportlabeler/internal/services"
)

// Route paths.
const (
	WebhookPath = "/tableau-webhook"
	ProcessPath = "/process"
)

// ReportLabeler runs the fetch-and-label pipeline for one request.
type ReportLabeler interface {
	Process(ctx context.Context, params models.RequestParameters) (*services.LabeledReport, error)
}

// UploadLabeler labels a PDF a caller uploaded.
type UploadLabeler interface {
	Process(ctx context.Context, upload services.Upload, labelText string) (*services.LabeledUpload, error)
}

// ReadyFunc reports whether the server's dependencies can take traffic.
type ReadyFunc func(ctx context.Context) error

// Server wires HTTP handlers to the labeling services.
type Server struct {
	router   chi.Router
	reports  ReportLabeler
	uploads  UploadLabeler
	ready    ReadyFunc
	maxBytes int64
	logger   *zap.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithReadiness makes /readyz run check.
func WithReadiness(check ReadyFunc) Option {
	return func(s *Server) { s.ready = check }
}

// WithMaxUploadBytes caps the request body accepted by the labeling endpoint.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewGatewayServer serves the report webhook.
func NewGatewayServer(reports ReportLabeler, logger *zap.Logger, opts ...Option) *Server {
	s := newServer(logger, opts)
	s.reports = reports
	s.router.Get(WebhookPath, s.labelReport)
	return s
}

// NewLabelingServer serves the multipart labeling endpoint.
func NewLabelingServer(uploads UploadLabeler, logger *zap.Logger, opts ...Option) *Server {
	s := newServer(logger, opts)
	s.uploads = uploads
	s.router.Post(ProcessPath, s.processUpload)
	return s
}

func newServer(logger *zap.Logger, opts []Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{logger: logger, maxBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(s)
	}

	metrics.Init()
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// WebhookHandler serves the report webhook regardless of request path, for
// hosts that route by function name.
func (s *Server) WebhookHandler() http.Handler {
	return s.standalone(s.labelReport)
}

// ProcessHandler serves the labeling endpoint regardless of request path.
func (s *Server) ProcessHandler() http.Handler {
	return s.standalone(s.processUpload)
}

func (s *Server) standalone(h http.HandlerFunc) http.Handler {
	return requestIDMiddleware(loggingMiddleware(s.logger)(recoverMiddleware(s.logger)(h)))
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("Readiness check failed.", zap.Error(err))
			s.writeError(w, http.StatusServiceUnavailable, "not ready: "+err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write JSON response.", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, models.NewErrorResponse(msg))
}
