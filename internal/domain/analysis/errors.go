package analysis

import "errors"

// Degradation kinds. Engine converts them into a degraded summary.
var (
	ErrEmptyLog        = errors.New("simulation log is empty")
	ErrMalformedSample = errors.New("malformed telemetry sample")
	ErrInternal        = errors.New("internal analysis fault")
)

// reason maps a degradation error to a short metrics label.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyLog):
		return "empty_log"
	case errors.Is(err, ErrMalformedSample):
		return "malformed_sample"
	default:
		return "internal"
	}
}
