// Package model contains domain models passed between layers.
package model

// TelemetrySample is one recorded instant of simulation state.
type TelemetrySample struct {
	Timestamp float64 `json:"timestamp" validate:"gte=0"` // seconds since simulation start
	Altitude  int     `json:"altitude"`                   // feet
	Speed     int     `json:"speed"`                      // knots
	Event     string  `json:"event"`                      // free-text label, not interpreted
}

// AnalysisRequest is the engine input for one trainee session.
type AnalysisRequest struct {
	TraineeID     string            `json:"trainee_id"`
	SimulationLog []TelemetrySample `json:"simulation_log"`

	// Malformed holds decode failures of individual log entries. Entries that
	// failed to decode are absent from SimulationLog.
	Malformed []error `json:"-"`
}
