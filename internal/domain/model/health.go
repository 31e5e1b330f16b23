package model

// Health is the service health report. Persistence is one of
// "available", "unavailable" or "disabled".
type Health struct {
	Status      string `json:"status"`
	Persistence string `json:"persistence"`
}
