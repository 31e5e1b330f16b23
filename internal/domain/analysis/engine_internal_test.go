package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/vrai/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_InternalFault(t *testing.T) {
	Convey("Given an engine whose aggregation panics", t, func() {
		e := New()
		e.aggregate = func([]model.TelemetrySample) (Aggregates, error) {
			var m map[string]int
			m["boom"]++ // nil map write
			return Aggregates{}, nil
		}

		Convey("When computing", func() {
			out := e.compute(model.AnalysisRequest{SimulationLog: []model.TelemetrySample{{Timestamp: 1}}})

			Convey("Then the fault is returned as ErrInternal", func() {
				So(errors.Is(out.err, ErrInternal), ShouldBeTrue)
				So(reason(out.err), ShouldEqual, "internal")
			})
		})

		Convey("When analysing through the public entry point", func() {
			var s model.AnalysisSummary
			So(func() { s = e.Analyze(context.Background(), model.AnalysisRequest{}) }, ShouldNotPanic)

			Convey("Then the degraded summary is returned", func() {
				So(s.Error, ShouldEqual, DegradedMessage)
			})
		})
	})

	Convey("Given degradation errors", t, func() {
		So(reason(ErrEmptyLog), ShouldEqual, "empty_log")
		So(reason(ErrMalformedSample), ShouldEqual, "malformed_sample")
		So(reason(errors.New("other")), ShouldEqual, "internal")
	})
}
