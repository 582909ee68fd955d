package docstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/intake/internal/adapters/docstore"
	. "github.com/smartystreets/goconvey/convey"
)

type toy struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Price float64 `json:"price"`
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("doc-%03d", n)
	}
}

func TestMemoryCRUD(t *testing.T) {
	Convey("Given an empty in-memory store", t, func() {
		ctx := context.Background()
		store := docstore.NewMemory(docstore.WithIDGenerator(seqIDs()))

		Convey("When creating a document", func() {
			id, err := store.Create(ctx, "toys", toy{Name: "ball", Kind: "round", Price: 3})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "doc-001")

			Convey("Then Get returns a decodable copy", func() {
				doc, err := store.Get(ctx, "toys", id)
				So(err, ShouldBeNil)

				var got toy
				So(doc.Decode(&got), ShouldBeNil)
				So(got.ID, ShouldEqual, id)
				So(got.Name, ShouldEqual, "ball")
			})

			Convey("And mutating the returned copy does not touch the store", func() {
				doc, err := store.Get(ctx, "toys", id)
				So(err, ShouldBeNil)
				doc.Data["name"] = "mutated"

				again, err := store.Get(ctx, "toys", id)
				So(err, ShouldBeNil)
				So(again.Data["name"], ShouldEqual, "ball")
			})

			Convey("And a partial update merges without dropping fields", func() {
				So(store.Update(ctx, "toys", id, map[string]any{"price": 4.5}), ShouldBeNil)

				doc, err := store.Get(ctx, "toys", id)
				So(err, ShouldBeNil)
				var got toy
				So(doc.Decode(&got), ShouldBeNil)
				So(got.Price, ShouldEqual, 4.5)
				So(got.Name, ShouldEqual, "ball")
			})

			Convey("And Delete removes it", func() {
				So(store.Delete(ctx, "toys", id), ShouldBeNil)
				_, err := store.Get(ctx, "toys", id)
				So(errors.Is(err, docstore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When reading an absent document", func() {
			_, err := store.Get(ctx, "toys", "nope")
			So(errors.Is(err, docstore.ErrNotFound), ShouldBeTrue)
		})

		Convey("When updating an absent document", func() {
			err := store.Update(ctx, "toys", "nope", map[string]any{"price": 1})
			So(errors.Is(err, docstore.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryQuery(t *testing.T) {
	Convey("Given a store with a few documents", t, func() {
		ctx := context.Background()
		store := docstore.NewMemory(docstore.WithIDGenerator(seqIDs()))

		for _, x := range []toy{
			{Name: "ball", Kind: "round", Price: 3},
			{Name: "cube", Kind: "square", Price: 7},
			{Name: "marble", Kind: "round", Price: 1},
			{Name: "die", Kind: "square", Price: 2},
		} {
			_, err := store.Create(ctx, "toys", x)
			So(err, ShouldBeNil)
		}

		Convey("When filtering by equality", func() {
			docs, err := store.Query(ctx, "toys", docstore.Query{
				Filters: []docstore.Filter{docstore.Eq("kind", "round")},
			})
			So(err, ShouldBeNil)
			So(len(docs), ShouldEqual, 2)
		})

		Convey("When combining equality filters", func() {
			docs, err := store.Query(ctx, "toys", docstore.Query{
				Filters: []docstore.Filter{
					docstore.Eq("kind", "round"),
					docstore.Eq("name", "marble"),
				},
			})
			So(err, ShouldBeNil)
			So(len(docs), ShouldEqual, 1)
		})

		Convey("When filtering with an in-list", func() {
			docs, err := store.Query(ctx, "toys", docstore.Query{
				Filters: []docstore.Filter{docstore.In("name", []string{"ball", "die", "ghost"})},
			})
			So(err, ShouldBeNil)
			So(len(docs), ShouldEqual, 2)
		})

		Convey("When ordering and limiting", func() {
			docs, err := store.Query(ctx, "toys", docstore.Query{
				OrderBy: "price",
				Desc:    true,
				Limit:   2,
			})
			So(err, ShouldBeNil)
			So(len(docs), ShouldEqual, 2)
			So(docs[0].Data["name"], ShouldEqual, "cube")
			So(docs[1].Data["name"], ShouldEqual, "ball")
		})

		Convey("When using range operators", func() {
			docs, err := store.Query(ctx, "toys", docstore.Query{
				Filters: []docstore.Filter{{Field: "price", Op: docstore.OpGte, Value: 3}},
			})
			So(err, ShouldBeNil)
			So(len(docs), ShouldEqual, 2)
		})

		Convey("When using an unknown operator", func() {
			_, err := store.Query(ctx, "toys", docstore.Query{
				Filters: []docstore.Filter{{Field: "price", Op: "!=", Value: 3}},
			})
			So(errors.Is(err, docstore.ErrBadQuery), ShouldBeTrue)
		})
	})
}

func TestMemoryRunBatch(t *testing.T) {
	Convey("Given a store with two documents", t, func() {
		ctx := context.Background()
		store := docstore.NewMemory(docstore.WithIDGenerator(seqIDs()))

		a, err := store.Create(ctx, "toys", toy{Name: "ball", Kind: "round", Price: 3})
		So(err, ShouldBeNil)
		b, err := store.Create(ctx, "toys", toy{Name: "cube", Kind: "square", Price: 7})
		So(err, ShouldBeNil)

		Convey("When a batch updates both documents", func() {
			err := store.RunBatch(ctx, []docstore.BatchOp{
				docstore.UpdateOp("toys", a, map[string]any{"price": 10}),
				docstore.UpdateOp("toys", b, map[string]any{"price": 20}),
			})
			So(err, ShouldBeNil)

			Convey("Then both writes are visible", func() {
				da, _ := store.Get(ctx, "toys", a)
				db, _ := store.Get(ctx, "toys", b)
				So(da.Data["price"], ShouldEqual, 10)
				So(db.Data["price"], ShouldEqual, 20)
			})
		})

		Convey("When one operation in a batch is invalid", func() {
			err := store.RunBatch(ctx, []docstore.BatchOp{
				docstore.UpdateOp("toys", a, map[string]any{"price": 99}),
				docstore.UpdateOp("toys", "missing", map[string]any{"price": 99}),
			})
			So(errors.Is(err, docstore.ErrNotFound), ShouldBeTrue)

			Convey("Then no operation was applied", func() {
				da, _ := store.Get(ctx, "toys", a)
				So(da.Data["price"], ShouldEqual, 3)
			})
		})

		Convey("When a guard precondition holds", func() {
			err := store.RunBatch(ctx, []docstore.BatchOp{
				docstore.GuardOp("toys", []docstore.Filter{docstore.Eq("kind", "round")}, 1),
				docstore.CreateOp("toys", toy{Name: "disc", Kind: "flat"}),
			})
			So(err, ShouldBeNil)

			docs, _ := store.Query(ctx, "toys", docstore.Query{})
			So(len(docs), ShouldEqual, 3)
		})

		Convey("When a guard precondition fails", func() {
			err := store.RunBatch(ctx, []docstore.BatchOp{
				docstore.GuardOp("toys", []docstore.Filter{docstore.Eq("kind", "round")}, 0),
				docstore.CreateOp("toys", toy{Name: "disc", Kind: "flat"}),
				docstore.DeleteOp("toys", b),
			})
			So(errors.Is(err, docstore.ErrConflict), ShouldBeTrue)

			Convey("Then the whole batch rolled back", func() {
				docs, _ := store.Query(ctx, "toys", docstore.Query{})
				So(len(docs), ShouldEqual, 2)
				_, err := store.Get(ctx, "toys", b)
				So(err, ShouldBeNil)
			})
		})

		Convey("When a batch mixes create and delete", func() {
			err := store.RunBatch(ctx, []docstore.BatchOp{
				docstore.CreateOp("toys", toy{Name: "kite", Kind: "flat"}),
				docstore.DeleteOp("toys", a),
			})
			So(err, ShouldBeNil)

			docs, _ := store.Query(ctx, "toys", docstore.Query{})
			So(len(docs), ShouldEqual, 2)
			_, err = store.Get(ctx, "toys", a)
			So(errors.Is(err, docstore.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a batch deletes a document and then updates it", func() {
			err := store.RunBatch(ctx, []docstore.BatchOp{
				docstore.DeleteOp("toys", a),
				docstore.UpdateOp("toys", a, map[string]any{"price": 99}),
			})
			So(errors.Is(err, docstore.ErrNotFound), ShouldBeTrue)

			Convey("Then the delete was not applied either", func() {
				doc, err := store.Get(ctx, "toys", a)
				So(err, ShouldBeNil)
				So(doc.Data["price"], ShouldEqual, 3)
			})
		})

		Convey("When a batch creates a document and updates it in the same batch", func() {
			err := store.RunBatch(ctx, []docstore.BatchOp{
				docstore.CreateOp("toys", toy{ID: "disc-1", Name: "disc", Kind: "flat", Price: 2}),
				docstore.UpdateOp("toys", "disc-1", map[string]any{"price": 4}),
			})
			So(err, ShouldBeNil)

			doc, err := store.Get(ctx, "toys", "disc-1")
			So(err, ShouldBeNil)
			So(doc.Data["price"], ShouldEqual, 4)
		})
	})
}
