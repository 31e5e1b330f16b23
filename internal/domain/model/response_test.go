package model

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewAnalysisResponse(t *testing.T) {
	Convey("Given a record without samples", t, func() {
		rec := AnalysisRecord{
			ID:                     "abc",
			TraineeID:              "pilot",
			SimulationTimestampUTC: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			AnalysisSummary: AnalysisSummary{
				Error:      "Analysis failed, returning default values",
				SaveStatus: &SaveStatus{Saved: false, Reason: "persistence not configured"},
			},
		}

		Convey("When encoding the envelope", func() {
			data, err := json.Marshal(NewAnalysisResponse(rec))
			So(err, ShouldBeNil)

			var got map[string]any
			So(json.Unmarshal(data, &got), ShouldBeNil)

			Convey("Then the echoed log is an empty list", func() {
				input := got["input_data"].(map[string]any)
				So(input["simulation_log"], ShouldResemble, []any{})
			})

			Convey("And the envelope keys are present", func() {
				So(got["id"], ShouldEqual, "abc")
				So(got["trainee_id"], ShouldEqual, "pilot")
				So(got["simulation_timestamp_utc"], ShouldEqual, "2026-01-02T03:04:05Z")
				summary := got["analysis_summary"].(map[string]any)
				So(summary["error"], ShouldEqual, "Analysis failed, returning default values")
				So(summary["save_status"], ShouldResemble, map[string]any{"saved": false, "reason": "persistence not configured"})
			})
		})
	})
}
