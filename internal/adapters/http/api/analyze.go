package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/okian/vrai/internal/domain/model"
	"github.com/okian/vrai/pkg/logger"
)

// maxBodyBytes bounds a POST /analyze body.
const maxBodyBytes = 10 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// analyzeRequest mirrors the OpenAPI schema for POST /analyze. Samples are
// decoded one by one so a bad entry degrades the analysis instead of
// rejecting the request.
type analyzeRequest struct {
	TraineeID     *string           `json:"trainee_id"`
	SimulationLog []json.RawMessage `json:"simulation_log"`
}

// wireSample distinguishes absent fields from zero values. Altitude and speed
// are read as numbers so whole-valued floats such as 5000.0 are accepted.
type wireSample struct {
	Timestamp *float64 `json:"timestamp" validate:"required"`
	Altitude  *float64 `json:"altitude" validate:"required"`
	Speed     *float64 `json:"speed" validate:"required"`
	Event     string   `json:"event"`
}

// AnalyzeDependencies defines the interface for analysis requests.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResponse
}

// AnalyzeHandler handles analysis requests.
type AnalyzeHandler struct {
	deps AnalyzeDependencies
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps}
}

// HandleAnalyze handles POST /analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"

	var body analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if body.TraineeID == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing trainee_id")))
		return
	}

	req := decodeSamples(body)
	if len(req.Malformed) > 0 {
		logger.Get().Warn(r.Context(), "malformed telemetry samples",
			logger.String("trainee_id", req.TraineeID),
			logger.Int("malformed", len(req.Malformed)),
			logger.Error(errors.Join(req.Malformed...)),
		)
	}

	writeJSON(w, http.StatusOK, h.deps.Analyze(r.Context(), req))
}

func decodeSamples(body analyzeRequest) model.AnalysisRequest {
	req := model.AnalysisRequest{
		TraineeID:     *body.TraineeID,
		SimulationLog: make([]model.TelemetrySample, 0, len(body.SimulationLog)),
	}
	for i, raw := range body.SimulationLog {
		var ws wireSample
		if err := json.Unmarshal(raw, &ws); err != nil {
			req.Malformed = append(req.Malformed, fmt.Errorf("sample %d: %w", i, err))
			continue
		}
		if err := validate.Struct(ws); err != nil {
			req.Malformed = append(req.Malformed, fmt.Errorf("sample %d: %w", i, err))
			continue
		}
		altitude, err := wholeNumber("altitude", *ws.Altitude)
		if err != nil {
			req.Malformed = append(req.Malformed, fmt.Errorf("sample %d: %w", i, err))
			continue
		}
		speed, err := wholeNumber("speed", *ws.Speed)
		if err != nil {
			req.Malformed = append(req.Malformed, fmt.Errorf("sample %d: %w", i, err))
			continue
		}
		req.SimulationLog = append(req.SimulationLog, model.TelemetrySample{
			Timestamp: *ws.Timestamp,
			Altitude:  altitude,
			Speed:     speed,
			Event:     ws.Event,
		})
	}
	return req
}

// wholeNumber converts v to int when it has no fractional part and fits.
func wholeNumber(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
		return 0, fmt.Errorf("%s %v is not a whole number", field, v)
	}
	// float64(math.MaxInt) rounds up to 2^63, which is already out of range.
	if v < float64(math.MinInt) || v >= float64(math.MaxInt) {
		return 0, fmt.Errorf("%s %v is out of range", field, v)
	}
	return int(v), nil
}
