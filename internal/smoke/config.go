// Package smoke exercises a deployed analyzer over HTTP: status, docs and one analysis.
package smoke

import "time"

// Defaults.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second
	statusTimeout  = 10 * time.Second
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Timeout   time.Duration // Timeout of the analysis request
	TraineeID string        // Trainee id to submit; generated when empty
	LogFile   string        // Optional file receiving a copy of the output
	Verbose   bool          // Log response bodies
}

// Sample is one telemetry entry submitted by the smoke run.
type Sample struct {
	Timestamp float64 `json:"timestamp"`
	Altitude  int     `json:"altitude"`
	Speed     int     `json:"speed"`
	Event     string  `json:"event"`
}

// AnalyzeRequest is the POST /analyze body.
type AnalyzeRequest struct {
	TraineeID     string   `json:"trainee_id"`
	SimulationLog []Sample `json:"simulation_log"`
}

// AnalyzeResponse is the subset of the analysis envelope the smoke run reports on.
type AnalyzeResponse struct {
	ID              string `json:"id"`
	TraineeID       string `json:"trainee_id"`
	AnalysisSummary struct {
		PerformanceScore     float64 `json:"performance_score"`
		TotalDurationSeconds float64 `json:"total_duration_seconds"`
		AverageSpeed         float64 `json:"average_speed"`
		CriticalEvents       struct {
			OverspeedIncidents     int `json:"overspeed_incidents"`
			UnstableApproachEvents int `json:"unstable_approach_events"`
		} `json:"critical_events"`
		SaveStatus *struct {
			Saved  bool   `json:"saved"`
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"save_status"`
		Error string `json:"error"`
	} `json:"analysis_summary"`
}

// Report summarises a smoke run.
type Report struct {
	StatusOK   bool
	DocsOK     bool
	AnalyzeOK  bool
	Saved      bool
	SavedID    string
	SaveReason string
	Degraded   bool
	Response   *AnalyzeResponse
	StartTime  time.Time
	Duration   time.Duration
}

// Passed reports whether every required check succeeded. Docs and
// persistence only produce warnings.
func (r *Report) Passed() bool {
	return r.StatusOK && r.AnalyzeOK
}

// FlightLog returns the five-sample log submitted by the smoke run.
func FlightLog() []Sample {
	return []Sample{
		{Timestamp: 0.0, Altitude: 5000, Speed: 250, Event: "start"},
		{Timestamp: 2.5, Altitude: 4500, Speed: 280, Event: "turbulence"},
		{Timestamp: 5.0, Altitude: 4000, Speed: 310, Event: "overspeed"},
		{Timestamp: 7.5, Altitude: 3500, Speed: 295, Event: "correction"},
		{Timestamp: 10.0, Altitude: 3000, Speed: 270, Event: "approach"},
	}
}
