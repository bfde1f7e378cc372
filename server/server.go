// Package server exposes the question endpoint over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DachengChen/sqlagent/assistant"
	"github.com/DachengChen/sqlagent/config"
)

// AskPath is the route of the question endpoint.
const AskPath = "/api/sqlagent/assistant"

const maxBodyBytes = 64 << 10

// Server routes HTTP requests to an Answerer.
type Server struct {
	answerer assistant.Answerer
	cfg      config.Server

	state    func() assistant.State
	gatherer prometheus.Gatherer
	metrics  *httpMetrics

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithState reports engine readiness on /health.
func WithState(state func() assistant.State) Option {
	return func(s *Server) {
		s.state = state
	}
}

// WithMetrics records HTTP metrics on reg and serves g on /metrics.
func WithMetrics(reg prometheus.Registerer, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = newHTTPMetrics(reg)
		s.gatherer = g
	}
}

// New builds the router.
func New(cfg config.Server, answerer assistant.Answerer, opts ...Option) *Server {
	if cfg.MaxQuestionLength <= 0 {
		cfg.MaxQuestionLength = 1000
	}
	s := &Server{answerer: answerer, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the handler in an http.Server listening on cfg.Addr.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	// Order: request id -> real ip -> logging -> recover -> metrics -> cors
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
	}
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Post(AskPath, s.handleAsk)

	return r
}
