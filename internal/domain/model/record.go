package model

import "time"

// AnalysisRecord is the document persisted for one analysis. ID is required.
type AnalysisRecord struct {
	ID                     string            `json:"id"`
	TraineeID              string            `json:"trainee_id"`
	SimulationTimestampUTC time.Time         `json:"simulation_timestamp_utc"`
	SimulationLog          []TelemetrySample `json:"simulation_log"`
	AnalysisSummary        AnalysisSummary   `json:"analysis_summary"`
}
