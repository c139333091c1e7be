package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.rosterSize.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				found := false
				for _, mf := range families {
					if mf.GetName() == "test_unit_characters" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})

			Convey("And creating a second manager on the same registry panics", func() {
				So(func() {
					NewManager(
						WithNamespace("test"),
						WithSubsystem("unit"),
						WithConstLabels(map[string]string{"env": "test"}),
						WithPrometheusRegistry(registry),
					)
				}, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording mutations", func() {
			before := testutil.ToFloat64(globalManager.mutations.WithLabelValues("create", "api"))
			RecordMutation("create", "api")
			RecordMutation("create", "api")

			Convey("Then the labelled counter grows", func() {
				So(testutil.ToFloat64(globalManager.mutations.WithLabelValues("create", "api")), ShouldEqual, before+2)
			})
		})

		Convey("When publishing frames", func() {
			delivered := testutil.ToFloat64(globalManager.framesDelivered)
			dropped := testutil.ToFloat64(globalManager.framesDropped)
			RecordFrames(3, 1)

			Convey("Then delivered and dropped are tracked separately", func() {
				So(testutil.ToFloat64(globalManager.framesDelivered), ShouldEqual, delivered+3)
				So(testutil.ToFloat64(globalManager.framesDropped), ShouldEqual, dropped+1)
			})
		})

		Convey("When updating class members", func() {
			UpdateClassMembers(map[string]int{"Warrior": 2, "Mage": 1})
			UpdateClassMembers(map[string]int{"Mage": 4})

			Convey("Then only the latest snapshot remains", func() {
				So(testutil.CollectAndCount(globalManager.classMembers), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.classMembers.WithLabelValues("Mage")), ShouldEqual, 4)
			})
		})

		Convey("When updating gauges", func() {
			UpdateRosterSize(7)
			UpdateSubscribers(2)
			IncGenerators()
			IncGenerators()
			DecGenerators()

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.rosterSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.subscribers), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.generators), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordStoreError("create")
				RecordStoreLatency("memory", "list", 0.2)
				RecordBroadcast("statsUpdate")
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueRejected("full")
				RecordHTTPRequest("characters", "GET", "200")
				RecordHTTPRequestDuration("characters", "GET", "200", 1.5)
				RecordHTTPError("characters", "PUT", "not_found")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then they appear on the exposition registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, mf := range families {
					names = append(names, mf.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "roster_store_errors_total")
				So(joined, ShouldContainSubstring, "roster_http_requests_total")
				So(joined, ShouldContainSubstring, "roster_queue_rejected_total")
			})
		})
	})
}
