package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording application flow metrics", func() {
			So(func() {
				RecordApplicationSubmitted()
				RecordEligibilityCheck()
				RecordEligibilityFailure("already_applied")
				RecordEligibilityFailure("cap_exceeded")
				RecordStatusTransition("admitted")
			}, ShouldNotPanic)
		})

		Convey("When recording arbitration metrics", func() {
			So(func() {
				RecordAdmissionSelected()
				RecordAdmissionsDeclined(2)
				RecordArbitrationConflict()
				RecordArbitrationRetry()
			}, ShouldNotPanic)
		})

		Convey("When recording scoring metrics", func() {
			So(func() {
				RecordScoringRun("job-ranking")
				RecordScoringDuration(1.25)
				RecordJobsRanked(5)
			}, ShouldNotPanic)
		})

		Convey("When recording notification metrics", func() {
			So(func() {
				RecordNotificationEmitted()
				RecordNotificationDropped()
				RecordNotificationFailure()
			}, ShouldNotPanic)
		})

		Convey("When recording store metrics", func() {
			So(func() {
				RecordStoreOperation("create")
				RecordStoreBatchSize(3)
				RecordStoreOpLatency(0.4)
				RecordStoreGuardAbort()
				UpdateDocumentsTotal("applications", 12)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("applications", "POST", "201")
				RecordHTTPRequestDuration("applications", "POST", "201", 3.0)
			}, ShouldNotPanic)
		})

		Convey("When fetching the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
