package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/vrai/pkg/logger"
)

// Errors returned by Run.
var (
	ErrStatusCheck  = errors.New("status check failed")
	ErrAnalyzeCheck = errors.New("analysis check failed")
)

// Run executes the smoke checks against cfg.BaseURL. The returned report is
// populated even when an error is returned.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Get().Named("smoke")
	base := strings.TrimRight(cfg.BaseURL, "/")
	client := newHTTPClient()
	report := &Report{StartTime: time.Now()}
	defer func() { report.Duration = time.Since(report.StartTime) }()

	log.Info(ctx, "testing API", logger.String("url", base))

	// 1. Status
	code, body, err := client.Get(ctx, base+"/", statusTimeout)
	if err != nil || code != http.StatusOK {
		log.Error(ctx, "status check failed", logger.Int("status", code), logger.Error(err))
		return report, fmt.Errorf("%w: status %d: %v", ErrStatusCheck, code, err)
	}
	report.StatusOK = true
	log.Info(ctx, "status check passed", logger.String("response", strings.TrimSpace(string(body))))

	// 2. Docs (warning only)
	code, _, err = client.Get(ctx, base+"/docs", statusTimeout)
	if err != nil || code != http.StatusOK {
		log.Warn(ctx, "API docs not accessible", logger.Int("status", code), logger.Error(err))
	} else {
		report.DocsOK = true
		log.Info(ctx, "API docs accessible", logger.String("docs_url", base+"/docs"))
	}

	// 3. Analysis
	traineeID := cfg.TraineeID
	if traineeID == "" {
		traineeID = "test-pilot-" + time.Now().Format("20060102-150405")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	code, body, err = client.PostJSON(ctx, base+"/analyze", AnalyzeRequest{
		TraineeID:     traineeID,
		SimulationLog: FlightLog(),
	}, timeout)
	if err != nil || code != http.StatusOK {
		log.Error(ctx, "analysis endpoint failed",
			logger.Int("status", code),
			logger.String("response", string(body)),
			logger.Error(err),
		)
		return report, fmt.Errorf("%w: status %d: %v", ErrAnalyzeCheck, code, err)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Error(ctx, "analysis response is not valid JSON", logger.Error(err))
		return report, fmt.Errorf("%w: decode: %v", ErrAnalyzeCheck, err)
	}
	report.AnalyzeOK = true
	report.Response = &resp
	if cfg.Verbose {
		log.Info(ctx, "analysis response", logger.String("body", string(body)))
	}

	summary := resp.AnalysisSummary
	report.Degraded = summary.Error != ""
	log.Info(ctx, "analysis results",
		logger.String("trainee_id", resp.TraineeID),
		logger.Float64("performance_score", summary.PerformanceScore),
		logger.Float64("total_duration_seconds", summary.TotalDurationSeconds),
		logger.Float64("average_speed", summary.AverageSpeed),
		logger.Int("overspeed_incidents", summary.CriticalEvents.OverspeedIncidents),
		logger.Int("unstable_approach_events", summary.CriticalEvents.UnstableApproachEvents),
	)
	if report.Degraded {
		log.Warn(ctx, "analysis returned default values", logger.String("error", summary.Error))
	}

	if st := summary.SaveStatus; st != nil {
		report.Saved = st.Saved
		report.SavedID = st.ID
		report.SaveReason = st.Reason
		if st.Saved {
			log.Info(ctx, "result saved", logger.String("id", st.ID))
		} else {
			log.Warn(ctx, "result not saved", logger.String("reason", st.Reason))
		}
	}

	log.Info(ctx, "all checks completed", logger.String("url", base), logger.String("docs_url", base+"/docs"))
	return report, nil
}
