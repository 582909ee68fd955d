// Package docstore abstracts document persistence for the matching core.
// It is the only shared mutable resource; every write is a single
// document except RunBatch, which is atomic by construction.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// FilterOp is a supported filter operator.
type FilterOp string

const (
	OpEq  FilterOp = "=="
	OpIn  FilterOp = "in"
	OpGte FilterOp = ">="
	OpLte FilterOp = "<="
)

// Filter constrains a query on a single field.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// In builds an in-list filter. Value must be a slice.
func In(field string, values any) Filter { return Filter{Field: field, Op: OpIn, Value: values} }

// Query describes a filtered, optionally ordered and limited read.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Document is one stored document. Data always carries its "id" field.
type Document struct {
	ID   string
	Data map[string]any
}

// Decode unmarshals the document into out via a JSON round trip.
func (d Document) Decode(out any) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// BatchKind discriminates batch operations.
type BatchKind string

const (
	BatchCreate BatchKind = "create"
	BatchUpdate BatchKind = "update"
	BatchDelete BatchKind = "delete"
	BatchGuard  BatchKind = "guard"
)

// Guard is a batch precondition: the filtered count must not exceed
// MaxCount, otherwise the whole batch aborts with ErrConflict.
type Guard struct {
	Filters  []Filter
	MaxCount int
}

// BatchOp is one operation inside an atomic batch.
type BatchOp struct {
	Kind       BatchKind
	Collection string
	ID         string         // update, delete
	Data       any            // create
	Patch      map[string]any // update
	Guard      *Guard         // guard
}

// CreateOp builds a batch create.
func CreateOp(collection string, data any) BatchOp {
	return BatchOp{Kind: BatchCreate, Collection: collection, Data: data}
}

// UpdateOp builds a batch partial update.
func UpdateOp(collection, id string, patch map[string]any) BatchOp {
	return BatchOp{Kind: BatchUpdate, Collection: collection, ID: id, Patch: patch}
}

// DeleteOp builds a batch delete.
func DeleteOp(collection, id string) BatchOp {
	return BatchOp{Kind: BatchDelete, Collection: collection, ID: id}
}

// GuardOp builds a batch precondition over a filtered count.
func GuardOp(collection string, filters []Filter, maxCount int) BatchOp {
	return BatchOp{Kind: BatchGuard, Collection: collection, Guard: &Guard{Filters: filters, MaxCount: maxCount}}
}

// Store provides document persistence with atomic multi-document batches.
// A batch is all-or-nothing: no reader of the store ever observes a
// partially applied batch.
type Store interface {
	// Get returns a document by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns documents matching the query, in order when requested.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Create stores a new document and returns its generated id.
	Create(ctx context.Context, collection string, data any) (string, error)

	// Update merges the patch into an existing document.
	Update(ctx context.Context, collection, id string, patch map[string]any) error

	// Delete removes a document. Deleting an absent document is an error.
	Delete(ctx context.Context, collection, id string) error

	// RunBatch applies all operations atomically. A failed guard or any
	// invalid operation aborts the batch with no state change.
	RunBatch(ctx context.Context, ops []BatchOp) error
}
