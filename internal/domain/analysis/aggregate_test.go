package analysis_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/okian/vrai/internal/domain/analysis"
	"github.com/okian/vrai/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func referenceLog() []model.TelemetrySample {
	return []model.TelemetrySample{
		{Timestamp: 0.0, Altitude: 5000, Speed: 250, Event: "start"},
		{Timestamp: 2.5, Altitude: 4500, Speed: 280, Event: "turbulence"},
		{Timestamp: 5.0, Altitude: 4000, Speed: 310, Event: "overspeed"},
	}
}

func TestAggregate(t *testing.T) {
	Convey("Given the reference three-sample log", t, func() {
		log := referenceLog()

		Convey("When aggregating", func() {
			agg, err := analysis.Aggregate(log)

			Convey("Then duration, mean speed and counts match", func() {
				So(err, ShouldBeNil)
				So(agg.TotalDurationSeconds, ShouldEqual, 5.0)
				So(agg.AverageSpeed, ShouldEqual, 280.0)
				So(agg.OverspeedIncidents, ShouldEqual, 1)
				So(agg.UnstableApproachEvents, ShouldEqual, 0)
			})

			Convey("And the input is left untouched", func() {
				So(log, ShouldResemble, referenceLog())
			})
		})

		Convey("When aggregating repeatedly", func() {
			first, err1 := analysis.Aggregate(log)
			second, err2 := analysis.Aggregate(log)

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given samples out of timestamp order", t, func() {
		log := []model.TelemetrySample{
			{Timestamp: 9.5, Altitude: 3000, Speed: 200},
			{Timestamp: 1.0, Altitude: 3000, Speed: 100},
			{Timestamp: 4.0, Altitude: 3000, Speed: 300},
		}

		Convey("Then the duration is the largest timestamp", func() {
			agg, err := analysis.Aggregate(log)
			So(err, ShouldBeNil)
			So(agg.TotalDurationSeconds, ShouldEqual, 9.5)
			So(agg.AverageSpeed, ShouldEqual, 200.0)
		})
	})

	Convey("Given samples sitting exactly on the thresholds", t, func() {
		Convey("When speed is 300 and altitude is 1000", func() {
			agg, err := analysis.Aggregate([]model.TelemetrySample{{Timestamp: 1, Altitude: 1000, Speed: 300}})

			Convey("Then neither is counted", func() {
				So(err, ShouldBeNil)
				So(agg.OverspeedIncidents, ShouldEqual, 0)
				So(agg.UnstableApproachEvents, ShouldEqual, 0)
			})
		})

		Convey("When speed is 301 and altitude is 999", func() {
			agg, err := analysis.Aggregate([]model.TelemetrySample{{Timestamp: 1, Altitude: 999, Speed: 301}})

			Convey("Then both are counted", func() {
				So(err, ShouldBeNil)
				So(agg.OverspeedIncidents, ShouldEqual, 1)
				So(agg.UnstableApproachEvents, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a non-integral mean", t, func() {
		agg, err := analysis.Aggregate([]model.TelemetrySample{
			{Timestamp: 0, Altitude: 2000, Speed: 100},
			{Timestamp: 1, Altitude: 2000, Speed: 101},
		})

		Convey("Then floating-point division is used", func() {
			So(err, ShouldBeNil)
			So(agg.AverageSpeed, ShouldEqual, 100.5)
		})
	})

	Convey("Given a sample with a long free-text event", t, func() {
		log := []model.TelemetrySample{{Timestamp: 3, Altitude: 5000, Speed: 250, Event: strings.Repeat("x", 4096)}}

		Convey("Then the label does not affect the aggregates", func() {
			agg, err := analysis.Aggregate(log)
			So(err, ShouldBeNil)
			So(agg.TotalDurationSeconds, ShouldEqual, 3.0)
			So(agg.AverageSpeed, ShouldEqual, 250.0)
		})
	})

	Convey("Given an empty log", t, func() {
		_, err := analysis.Aggregate(nil)

		Convey("Then it reports ErrEmptyLog", func() {
			So(errors.Is(err, analysis.ErrEmptyLog), ShouldBeTrue)
		})
	})

	Convey("Given malformed timestamps", t, func() {
		for _, ts := range []float64{-0.5, math.NaN(), math.Inf(1)} {
			_, err := analysis.Aggregate([]model.TelemetrySample{
				{Timestamp: 0, Altitude: 5000, Speed: 250},
				{Timestamp: ts, Altitude: 5000, Speed: 250},
			})
			So(errors.Is(err, analysis.ErrMalformedSample), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "sample 1")
		}
	})
}
