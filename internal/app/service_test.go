package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/intake/internal/adapters/docstore"
	service "github.com/okian/intake/internal/app"
	"github.com/okian/intake/internal/domain/apperr"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func seed(ctx context.Context, store docstore.Store, collection string, data any) {
	if _, err := store.Create(ctx, collection, data); err != nil {
		panic(err)
	}
}

func seededStore(ctx context.Context) *docstore.Memory {
	store := docstore.NewMemory()

	seed(ctx, store, docstore.CollectionStudents, model.Candidate{
		ID:     "student-1",
		Name:   "Dana",
		Skills: []string{"go", "sql", "python"},
		Education: []model.Education{
			{Level: "bachelors", Field: "computer science", GPA: 3.8, Institution: "State University"},
		},
		WorkExperience: []model.WorkExperience{
			{Position: "developer", Company: "Acme", Years: 2},
		},
	})

	seed(ctx, store, docstore.CollectionTargets, model.RequirementSet{
		ID: "course-a", Kind: model.KindCourse, OwnerID: "uni-a", OwnerName: "Alpha University",
		Title: "Data Engineering", Status: model.TargetActive,
		Education: "bachelors", MinGPA: 3.0,
	})
	seed(ctx, store, docstore.CollectionTargets, model.RequirementSet{
		ID: "course-b", Kind: model.KindCourse, OwnerID: "uni-b", OwnerName: "Beta University",
		Title: "Software Systems", Status: model.TargetActive,
		Education: "bachelors", MinGPA: 3.5,
	})

	seed(ctx, store, docstore.CollectionTargets, model.RequirementSet{
		ID: "job-good", Kind: model.KindJob, OwnerID: "acme", OwnerName: "Acme Corp",
		Title: "Backend Engineer", Status: model.TargetActive,
		Education: "bachelors", ExperienceLevel: "entry-level",
		Skills: []string{"go", "sql"}, MinGPA: 3.0,
	})
	seed(ctx, store, docstore.CollectionTargets, model.RequirementSet{
		ID: "job-poor", Kind: model.KindJob, OwnerID: "globex", OwnerName: "Globex",
		Title: "Principal Researcher", Status: model.TargetActive,
		Education: "phd", ExperienceLevel: "senior",
		Skills: []string{"rust"}, MinGPA: 4.0,
	})
	seed(ctx, store, docstore.CollectionTargets, model.RequirementSet{
		ID: "job-closed", Kind: model.KindJob, OwnerID: "acme", OwnerName: "Acme Corp",
		Title: "Closed Role", Status: model.TargetClosed,
		Skills: []string{"go"},
	})

	return store
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service built on a seeded store", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		store := seededStore(ctx)
		svc := service.New(
			service.WithStore(store),
			service.WithNotifyWorkerCount(1),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When starting twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
		})

		Convey("When running the full admission flow", func() {
			appA, err := svc.Apply(ctx, "student-1", "course-a")
			So(err, ShouldBeNil)
			appB, err := svc.Apply(ctx, "student-1", "course-b")
			So(err, ShouldBeNil)

			_, err = svc.UpdateApplicationStatus(ctx, appA.ID, model.StatusAdmitted, "staff-1")
			So(err, ShouldBeNil)
			_, err = svc.UpdateApplicationStatus(ctx, appB.ID, model.StatusAdmitted, "staff-2")
			So(err, ShouldBeNil)

			selected, err := svc.SelectAdmission(ctx, "student-1", appA.ID)
			So(err, ShouldBeNil)

			Convey("Then the selected offer is accepted and the rest declined", func() {
				So(selected.Status, ShouldEqual, model.StatusAccepted)

				apps, err := svc.ListApplications(ctx, "student-1")
				So(err, ShouldBeNil)
				So(len(apps), ShouldEqual, 2)

				byID := map[string]model.Application{}
				for _, a := range apps {
					byID[a.ID] = a
				}
				So(byID[appA.ID].Status, ShouldEqual, model.StatusAccepted)
				So(byID[appB.ID].Status, ShouldEqual, model.StatusRejected)
			})

			Convey("And the flow's notifications are persisted once drained", func() {
				svc.Stop()

				ns, err := svc.ListNotifications(ctx, "student-1")
				So(err, ShouldBeNil)
				So(len(ns), ShouldEqual, 5)

				types := map[string]int{}
				for _, n := range ns {
					types[n.Type]++
				}
				So(types["application_submitted"], ShouldEqual, 2)
				So(types["application_admitted"], ShouldEqual, 2)
				So(types["admission_selected"], ShouldEqual, 1)

				Convey("And marking one read persists the flag", func() {
					So(svc.MarkNotificationRead(ctx, ns[0].ID), ShouldBeNil)
					again, err := svc.ListNotifications(ctx, "student-1")
					So(err, ShouldBeNil)
					read := 0
					for _, n := range again {
						if n.Read {
							read++
						}
					}
					So(read, ShouldEqual, 1)
				})
			})
		})

		Convey("When checking eligibility", func() {
			report, err := svc.CheckEligibility(ctx, "student-1", "course-a")
			So(err, ShouldBeNil)
			So(report.Eligible(), ShouldBeTrue)
		})

		Convey("When matching jobs", func() {
			matches, err := svc.MatchJobs(ctx, "student-1")
			So(err, ShouldBeNil)

			Convey("Then only open, well-scoring jobs are returned", func() {
				So(len(matches), ShouldEqual, 1)
				So(matches[0].Job.ID, ShouldEqual, "job-good")
				So(matches[0].Score, ShouldBeGreaterThan, 50)
				So(matches[0].Qualified, ShouldBeTrue)
			})
		})

		Convey("When matching jobs for an unknown student", func() {
			_, err := svc.MatchJobs(ctx, "ghost")
			So(errors.Is(err, apperr.ErrNotFound), ShouldBeTrue)
		})

		Convey("When reading an application with enrichment", func() {
			app, err := svc.Apply(ctx, "student-1", "course-a")
			So(err, ShouldBeNil)
			So(app.TargetTitle, ShouldEqual, "Data Engineering")

			So(store.Update(ctx, docstore.CollectionTargets, "course-a",
				map[string]any{"title": "Applied Data Engineering"}), ShouldBeNil)

			Convey("Then the plain read serves the stored snapshot", func() {
				got, err := svc.GetApplication(ctx, app.ID, false)
				So(err, ShouldBeNil)
				So(got.TargetTitle, ShouldEqual, "Data Engineering")
			})

			Convey("And the enriched read serves the current target data", func() {
				got, err := svc.GetApplication(ctx, app.ID, true)
				So(err, ShouldBeNil)
				So(got.TargetTitle, ShouldEqual, "Applied Data Engineering")
			})

			Convey("And enrichment failure falls back to the snapshot", func() {
				So(store.Delete(ctx, docstore.CollectionTargets, "course-a"), ShouldBeNil)
				got, err := svc.GetApplication(ctx, app.ID, true)
				So(err, ShouldBeNil)
				So(got.TargetTitle, ShouldEqual, "Data Engineering")
			})
		})

		Convey("When reading a missing application", func() {
			_, err := svc.GetApplication(ctx, "ghost", false)
			So(errors.Is(err, apperr.ErrNotFound), ShouldBeTrue)
		})

		Convey("When asking for stats", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["institutionCap"], ShouldEqual, 2)
		})

		Reset(func() {
			svc.Stop()
		})
	})
}
