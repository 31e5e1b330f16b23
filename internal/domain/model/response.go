package model

import "time"

// InputData echoes the submitted samples.
type InputData struct {
	SimulationLog []TelemetrySample `json:"simulation_log"`
}

// AnalysisResponse is the envelope returned for an analysis request.
type AnalysisResponse struct {
	ID                     string          `json:"id"`
	TraineeID              string          `json:"trainee_id"`
	SimulationTimestampUTC time.Time       `json:"simulation_timestamp_utc"`
	InputData              InputData       `json:"input_data"`
	AnalysisSummary        AnalysisSummary `json:"analysis_summary"`
}

// NewAnalysisResponse builds the envelope for rec. The echoed log is never null.
func NewAnalysisResponse(rec AnalysisRecord) AnalysisResponse {
	log := rec.SimulationLog
	if log == nil {
		log = []TelemetrySample{}
	}
	return AnalysisResponse{
		ID:                     rec.ID,
		TraineeID:              rec.TraineeID,
		SimulationTimestampUTC: rec.SimulationTimestampUTC,
		InputData:              InputData{SimulationLog: log},
		AnalysisSummary:        rec.AnalysisSummary,
	}
}
