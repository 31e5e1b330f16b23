// Package analysis turns a simulation telemetry log into an analysis summary.
//
// Aggregate is pure and may fail; Engine wraps it with a total interface that
// always yields a well-formed summary and optionally hands it to a persistence
// sink.
package analysis

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/okian/vrai/internal/domain/model"
)

// PerformanceScorePlaceholder is reported for every successful analysis until
// a real scoring model replaces it.
const PerformanceScorePlaceholder = 80.0

// Incident thresholds. Values equal to a threshold are not incidents.
const (
	OverspeedThreshold       = 300  // speed units; speed > threshold is an overspeed
	UnstableApproachAltitude = 1000 // altitude units; altitude < threshold is unstable
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Aggregates are the scalar statistics derived from a telemetry log.
type Aggregates struct {
	TotalDurationSeconds   float64
	AverageSpeed           float64
	OverspeedIncidents     int
	UnstableApproachEvents int
}

// Aggregate computes duration, mean speed and incident counts over log.
// The log is not modified and order is not assumed. An empty log or a sample
// with an invalid timestamp yields an error instead of partial values.
func Aggregate(log []model.TelemetrySample) (Aggregates, error) {
	if len(log) == 0 {
		return Aggregates{}, ErrEmptyLog
	}

	var (
		agg      Aggregates
		maxTS    = math.Inf(-1)
		speedSum float64
	)
	for i := range log {
		s := &log[i]
		if err := validateSample(s); err != nil {
			return Aggregates{}, fmt.Errorf("%w: sample %d: %v", ErrMalformedSample, i, err)
		}
		if s.Timestamp > maxTS {
			maxTS = s.Timestamp
		}
		speedSum += float64(s.Speed)
		if s.Speed > OverspeedThreshold {
			agg.OverspeedIncidents++
		}
		if s.Altitude < UnstableApproachAltitude {
			agg.UnstableApproachEvents++
		}
	}

	agg.TotalDurationSeconds = maxTS
	agg.AverageSpeed = speedSum / float64(len(log))
	return agg, nil
}

func validateSample(s *model.TelemetrySample) error {
	if math.IsNaN(s.Timestamp) || math.IsInf(s.Timestamp, 0) {
		return fmt.Errorf("timestamp %v is not finite", s.Timestamp)
	}
	return validate.Struct(s)
}
