// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/okian/vrai/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze runs one analysis. It never fails.
	Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResponse

	// Analysis returns a stored record by id.
	Analysis(ctx context.Context, id string) (model.AnalysisRecord, error)

	// Health reports liveness and persistence state.
	Health(ctx context.Context) model.Health
}

// DefaultServiceName is reported by GET / unless overridden.
const DefaultServiceName = "VRAI Simulation Data Analyzer API"

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler     *RootHandler
	analyzeHandler  *AnalyzeHandler
	analysesHandler *AnalysesHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler

	serviceName        string
	rateLimitPerMinute int
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithServiceName sets the name reported by GET /.
func WithServiceName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// WithRateLimit caps POST /analyze per client IP. Zero disables the limit.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute >= 0 {
			s.rateLimitPerMinute = perMinute
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{serviceName: DefaultServiceName}
	for _, opt := range opts {
		opt(s)
	}
	s.rootHandler = NewRootHandler(s.serviceName)
	s.analyzeHandler = NewAnalyzeHandler(deps)
	s.analysesHandler = NewAnalysesHandler(deps)
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(statsProvider)
	return s
}

// Register attaches all business routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", MetricsMiddleware(s.rootHandler.HandleRoot, "root"))
	r.With(s.rateLimit()).Post("/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	r.Get("/analyses/{id}", MetricsMiddleware(s.analysesHandler.HandleGetAnalysis, "analyses"))
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Handle("/metrics", MetricsHandler())
}

// NewRouter returns a chi router carrying the global middleware stack and the
// business routes. Callers may mount further routes on it.
func NewRouter(s *Server) chi.Router {
	r := chi.NewRouter()
	for _, mw := range GlobalMiddleware() {
		r.Use(mw)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	s.Register(r)
	return r
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.rateLimitPerMinute == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.rateLimitPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", nil)
		}),
	)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
