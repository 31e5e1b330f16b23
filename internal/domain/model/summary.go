package model

// CriticalEvents counts threshold breaches across a log.
type CriticalEvents struct {
	OverspeedIncidents     int `json:"overspeed_incidents"`
	UnstableApproachEvents int `json:"unstable_approach_events"`
}

// SaveStatus describes the outcome of a persistence attempt.
type SaveStatus struct {
	Saved  bool   `json:"saved"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// AnalysisSummary is the engine output. Error is set only when the values
// are defaults substituted for a failed analysis.
type AnalysisSummary struct {
	PerformanceScore     float64        `json:"performance_score"`
	TotalDurationSeconds float64        `json:"total_duration_seconds"`
	AverageSpeed         float64        `json:"average_speed"`
	CriticalEvents       CriticalEvents `json:"critical_events"`
	SaveStatus           *SaveStatus    `json:"save_status,omitempty"`
	Error                string         `json:"error,omitempty"`
}

// Degraded reports whether the summary carries default values.
func (s AnalysisSummary) Degraded() bool {
	return s.Error != ""
}
