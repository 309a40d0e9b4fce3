package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.invalidRosters.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_invalid_rosters_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording engine metrics", func() {
			before := testutil.ToFloat64(globalManager.fallbacks)
			RecordFallback()
			RecordGeneration(12, "ok")
			RecordInvalidRoster()
			AddPartitionsEnumerated(5775)
			ObserveStageSurvivors("coarse", 42)
			RecordGenerationLatency(12.5)

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.fallbacks), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.generations.WithLabelValues("12", "ok")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording job pipeline metrics", func() {
			UpdateQueueCapacity(64)
			UpdateQueueSize(3)
			UpdateWorkerCount(4)
			IncWorkersBusy()
			DecWorkersBusy()
			RecordQueueEnqueueError("full")
			RecordJobTransition("done")
			UpdateJobsStored(7)
			RecordDuplicateSubmission()

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.jobsStored), ShouldEqual, 7)
			})
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("teams", "POST", "200")
				RecordHTTPRequestDuration("teams", "POST", "200", 30)
				RecordHTTPError("teams", "client_error")
				RecordRateLimited("jobs")
			}, ShouldNotPanic)

			Convey("Then the custom registry exposes them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "fairteams_engine_http_requests_total")
				So(joined, ShouldContainSubstring, "fairteams_engine_rate_limited_total")
			})
		})

		Convey("When recording system metrics", func() {
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.2)

			Convey("Then the gauges hold the sample", func() {
				So(testutil.ToFloat64(globalManager.memoryBytes), ShouldEqual, 1<<20)
				So(testutil.ToFloat64(globalManager.goroutines), ShouldEqual, 12)
			})
		})
	})
}
