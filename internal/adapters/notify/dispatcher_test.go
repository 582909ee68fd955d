package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/intake/internal/adapters/docstore"
	"github.com/okian/intake/internal/adapters/notify"
	"github.com/okian/intake/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDispatcherDelivery(t *testing.T) {
	Convey("Given a started dispatcher", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		store := docstore.NewMemory()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		tick := 0
		d := notify.NewDispatcher(store,
			notify.WithWorkerCount(1),
			notify.WithClock(func() time.Time {
				tick++
				return base.Add(time.Duration(tick) * time.Minute)
			}),
		)
		d.Start(ctx)

		Convey("When emitting events for a user", func() {
			d.Emit(ctx, "student-1", notify.Event{
				Type:    "application_submitted",
				Title:   "Application submitted",
				Message: "Your application is in",
			})
			d.Emit(ctx, "student-1", notify.Event{
				Type:    "application_admitted",
				Title:   "You were admitted",
				Message: "Congratulations",
			})
			d.Emit(ctx, "student-2", notify.Event{Type: "noise", Title: "x", Message: "y"})
			d.Close()

			Convey("Then they are persisted newest first per user", func() {
				list, err := d.ListForUser(ctx, "student-1")
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 2)
				So(list[0].Type, ShouldEqual, "application_admitted")
				So(list[1].Type, ShouldEqual, "application_submitted")
				So(list[0].Read, ShouldBeFalse)
			})

			Convey("And marking one read sticks", func() {
				list, err := d.ListForUser(ctx, "student-1")
				So(err, ShouldBeNil)
				So(d.MarkRead(ctx, list[0].ID), ShouldBeNil)

				again, err := d.ListForUser(ctx, "student-1")
				So(err, ShouldBeNil)
				So(again[0].Read, ShouldBeTrue)
			})
		})

		Convey("When emitting after Close", func() {
			d.Close()

			Convey("Then the event is dropped without panicking", func() {
				So(func() {
					d.Emit(ctx, "student-1", notify.Event{Type: "late", Title: "x", Message: "y"})
				}, ShouldNotPanic)

				list, err := d.ListForUser(ctx, "student-1")
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
			})
		})
	})
}

func TestDispatcherBackpressure(t *testing.T) {
	Convey("Given a dispatcher with a tiny queue and no workers started", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		store := docstore.NewMemory()
		d := notify.NewDispatcher(store,
			notify.WithQueueSize(1),
			notify.WithWorkerCount(1),
			notify.WithLogger(logger.Get()),
		)

		Convey("When more events arrive than the queue holds", func() {
			So(func() {
				for i := 0; i < 5; i++ {
					d.Emit(ctx, "student-1", notify.Event{Type: "burst", Title: "x", Message: "y"})
				}
			}, ShouldNotPanic)

			Convey("Then at most the queued event survives a late start", func() {
				d.Start(ctx)
				d.Close()
				list, err := d.ListForUser(ctx, "student-1")
				So(err, ShouldBeNil)
				So(len(list), ShouldEqual, 1)
			})
		})
	})
}
