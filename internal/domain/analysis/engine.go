package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/vrai/internal/domain/model"
	"github.com/okian/vrai/pkg/logger"
	"github.com/okian/vrai/pkg/metrics"
)

// DegradedMessage is set on summaries whose values are substituted defaults.
const DegradedMessage = "Analysis failed, returning default values"

// save_status reasons when no write was attempted.
const (
	ReasonNotConfigured = "persistence not configured"
	ReasonUnavailable   = "container not available"
)

// Sink stores analysis records. Save returns the id the record was stored under.
type Sink interface {
	Save(ctx context.Context, rec model.AnalysisRecord) (string, error)
}

// Engine aggregates telemetry logs into summaries and offers them to a Sink.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	sink           Sink
	persistEnabled bool
	logger         logger.Logger
	newID          func() string
	now            func() time.Time
	aggregate      func([]model.TelemetrySample) (Aggregates, error)
}

// outcome is the typed internal result of one analysis.
type outcome struct {
	summary model.AnalysisSummary
	err     error
}

// New creates an Engine. Without WithSink and WithPersistence(true) every
// summary is annotated as not saved.
func New(opts ...Option) *Engine {
	e := &Engine{
		newID:     uuid.NewString,
		now:       time.Now,
		aggregate: Aggregate,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("analysis")
	}
	return e
}

// Analyze returns the summary for req. It never fails: faults produce a
// degraded summary and persistence problems are reported in SaveStatus.
func (e *Engine) Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisSummary {
	return e.AnalyzeRecord(ctx, req).AnalysisSummary
}

// AnalyzeRecord is Analyze returning the full record that was offered to the sink,
// with SaveStatus filled in on its summary.
func (e *Engine) AnalyzeRecord(ctx context.Context, req model.AnalysisRequest) model.AnalysisRecord {
	start := time.Now()
	out := e.compute(req)

	summary := out.summary
	if out.err != nil {
		summary = degradedSummary()
		metrics.RecordDegradation(reason(out.err))
		e.logger.Warn(ctx, "analysis degraded to default values",
			logger.String("trainee_id", req.TraineeID),
			logger.Int("samples", len(req.SimulationLog)),
			logger.Int("malformed", len(req.Malformed)),
			logger.Error(out.err),
		)
	}
	metrics.RecordAnalysis(out.err != nil, len(req.SimulationLog), time.Since(start))

	rec := model.AnalysisRecord{
		ID:                     e.newID(),
		TraineeID:              req.TraineeID,
		SimulationTimestampUTC: e.now().UTC(),
		SimulationLog:          append([]model.TelemetrySample(nil), req.SimulationLog...),
		AnalysisSummary:        summary,
	}

	status := e.persist(ctx, rec)
	rec.AnalysisSummary.SaveStatus = &status

	e.logger.Debug(ctx, "analysis completed",
		logger.String("trainee_id", rec.TraineeID),
		logger.String("id", rec.ID),
		logger.Bool("degraded", summary.Degraded()),
		logger.Bool("saved", status.Saved),
	)
	return rec
}

// compute runs the aggregation, converting panics into ErrInternal.
func (e *Engine) compute(req model.AnalysisRequest) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("%w: %v", ErrInternal, r)}
		}
	}()

	if len(req.Malformed) > 0 {
		return outcome{err: fmt.Errorf("%w: %w", ErrMalformedSample, errors.Join(req.Malformed...))}
	}

	agg, err := e.aggregate(req.SimulationLog)
	if err != nil {
		return outcome{err: err}
	}

	return outcome{summary: model.AnalysisSummary{
		PerformanceScore:     PerformanceScorePlaceholder,
		TotalDurationSeconds: agg.TotalDurationSeconds,
		AverageSpeed:         agg.AverageSpeed,
		CriticalEvents: model.CriticalEvents{
			OverspeedIncidents:     agg.OverspeedIncidents,
			UnstableApproachEvents: agg.UnstableApproachEvents,
		},
	}}
}

// persist offers rec to the sink and reports the outcome. It never fails.
func (e *Engine) persist(ctx context.Context, rec model.AnalysisRecord) (status model.SaveStatus) {
	if !e.persistEnabled {
		metrics.RecordPersistence(metrics.PersistUnavailable)
		return model.SaveStatus{Saved: false, Reason: ReasonNotConfigured}
	}
	if e.sink == nil {
		metrics.RecordPersistence(metrics.PersistUnavailable)
		e.logger.Warn(ctx, "container not available, skipping save", logger.String("id", rec.ID))
		return model.SaveStatus{Saved: false, Reason: ReasonUnavailable}
	}

	start := time.Now()
	defer func() {
		metrics.RecordPersistenceLatency(time.Since(start))
		if r := recover(); r != nil {
			metrics.RecordPersistence(metrics.PersistFailed)
			e.logger.Error(ctx, "persistence sink panicked", logger.String("id", rec.ID), logger.Any("panic", r))
			status = model.SaveStatus{Saved: false, Reason: fmt.Sprintf("persistence failed: %v", r)}
		}
	}()

	id, err := e.sink.Save(ctx, rec)
	if err != nil {
		metrics.RecordPersistence(metrics.PersistFailed)
		e.logger.Error(ctx, "failed to save analysis result", logger.String("id", rec.ID), logger.Error(err))
		return model.SaveStatus{Saved: false, Reason: err.Error()}
	}
	if id == "" {
		id = rec.ID
	}
	metrics.RecordPersistence(metrics.PersistSaved)
	e.logger.Info(ctx, "analysis result saved", logger.String("id", id))
	return model.SaveStatus{Saved: true, ID: id}
}

func degradedSummary() model.AnalysisSummary {
	return model.AnalysisSummary{
		PerformanceScore:     0,
		TotalDurationSeconds: 0,
		AverageSpeed:         0,
		CriticalEvents:       model.CriticalEvents{},
		Error:                DegradedMessage,
	}
}
