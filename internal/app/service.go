// Package service wires the analysis engine to its document store and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vrai/internal/adapters/repository"
	"github.com/okian/vrai/internal/config"
	"github.com/okian/vrai/internal/domain/analysis"
	"github.com/okian/vrai/internal/domain/model"
	"github.com/okian/vrai/pkg/logger"
	"github.com/okian/vrai/pkg/metrics"
)

// Persistence states reported by Health.
const (
	PersistenceDisabled    = "disabled"
	PersistenceUnavailable = "unavailable"
	PersistenceAvailable   = "available"
)

// Service implements the API dependencies for the analyzer.
type Service struct {
	mu sync.RWMutex

	cfg       *config.Config
	store     repository.Store
	ownsStore bool
	engine    *analysis.Engine
	now       func() time.Time

	started        bool
	persistEnabled bool

	served   atomic.Int64
	degraded atomic.Int64
	saved    atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConfig sets the configuration. Defaults to config.New().
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore injects a document store instead of opening one from the configuration.
// The caller keeps ownership and closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithClock overrides the analysis timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. Until Start is called analyses are served without persistence.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the document store when persistence is configured and builds the engine.
// A store that fails to open is logged; analyses continue without persistence.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting analyzer service...")

	s.persistEnabled = s.cfg.PersistenceAvailable()
	if s.persistEnabled && s.store == nil {
		store, err := repository.Open(
			repository.WithPath(s.cfg.StorePath()),
			repository.WithInMemory(s.cfg.StoreInMemory),
			repository.WithContainer(s.cfg.ContainerName),
			repository.WithWriteTimeout(s.cfg.StoreTimeout()),
			repository.WithRetry(s.cfg.StoreMaxRetryAttempts, s.cfg.StoreRetryInterval()),
			repository.WithBreaker(s.cfg.BreakerFailureThreshold, s.cfg.BreakerTimeout()),
			repository.WithLogger(s.logger.Named("repository")),
		)
		if err != nil {
			s.logger.Error(ctx, "failed to open analysis store, continuing without persistence",
				logger.String("path", s.cfg.StorePath()),
				logger.Error(err),
			)
		} else {
			s.store = store
			s.ownsStore = true
		}
	}
	if !s.persistEnabled {
		s.logger.Warn(ctx, "persistence not configured, results will not be saved")
	}

	s.engine = s.buildEngine()
	s.started = true
	s.logger.Info(ctx, "analyzer service started",
		logger.Bool("persistence", s.persistEnabled),
		logger.Bool("store_open", s.store != nil),
	)
	return nil
}

// Stop closes the store when the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping analyzer service...")

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close analysis store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}
	s.engine = nil
	s.started = false
	s.logger.Info(context.Background(), "analyzer service stopped")
}

func (s *Service) buildEngine() *analysis.Engine {
	opts := []analysis.Option{
		analysis.WithPersistence(s.persistEnabled),
		analysis.WithClock(s.now),
	}
	if s.logger != nil {
		opts = append(opts, analysis.WithLogger(s.logger.Named("analysis")))
	}
	// A nil Store must reach the engine as a nil Sink, not a typed nil.
	if s.store != nil {
		opts = append(opts, analysis.WithSink(s.store))
	}
	return analysis.New(opts...)
}

// currentEngine returns the started engine, or a persistence-less one before Start.
func (s *Service) currentEngine() *analysis.Engine {
	s.mu.RLock()
	e := s.engine
	s.mu.RUnlock()
	if e != nil {
		return e
	}
	return analysis.New(analysis.WithClock(s.now))
}

// Analyze runs one analysis and returns the response envelope. It never fails.
func (s *Service) Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResponse {
	rec := s.currentEngine().AnalyzeRecord(ctx, req)

	s.served.Add(1)
	if rec.AnalysisSummary.Degraded() {
		s.degraded.Add(1)
	}
	if st := rec.AnalysisSummary.SaveStatus; st != nil && st.Saved {
		s.saved.Add(1)
	}
	return model.NewAnalysisResponse(rec)
}

// Analysis returns a stored record by id.
func (s *Service) Analysis(ctx context.Context, id string) (model.AnalysisRecord, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return model.AnalysisRecord{}, ErrPersistenceUnavailable
	}
	rec, err := store.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.AnalysisRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case errors.Is(err, repository.ErrClosed):
		return model.AnalysisRecord{}, ErrPersistenceUnavailable
	case err != nil:
		return model.AnalysisRecord{}, err
	}
	return rec, nil
}

// Health reports liveness and the persistence state. The service itself is
// always ok because analyses never depend on the store.
func (s *Service) Health(_ context.Context) model.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := model.Health{Status: "ok", Persistence: PersistenceAvailable}
	switch {
	case !s.cfg.PersistenceAvailable():
		h.Persistence = PersistenceDisabled
	case s.store == nil:
		h.Persistence = PersistenceUnavailable
	}
	return h
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"persistence":      s.persistEnabled,
		"analysesServed":   s.served.Load(),
		"analysesDegraded": s.degraded.Load(),
		"analysesSaved":    s.saved.Load(),
	}

	if s.store != nil {
		n := s.store.Count(context.Background())
		stats["storedDocuments"] = n
		metrics.UpdateStoredDocuments(n)
	}
	return stats
}
