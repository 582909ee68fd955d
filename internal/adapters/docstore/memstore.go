package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/intake/pkg/metrics"
)

// Memory is an in-memory Store. A single mutex covers every operation,
// so RunBatch is transaction-consistent: readers see either none or all
// of a batch's writes.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	newID       func() string
}

// compile-time interface check.
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		collections: make(map[string]map[string]map[string]any),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the document by id.
func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	defer observe("get", time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	return Document{ID: id, Data: deepCopy(doc)}, nil
}

// Query returns copies of all matching documents.
func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	defer observe("query", time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs, err := m.queryLocked(collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{ID: d.ID, Data: deepCopy(d.Data)}
	}
	return out, nil
}

// Create stores a new document under a generated id.
func (m *Memory) Create(ctx context.Context, collection string, data any) (string, error) {
	defer observe("create", time.Now())

	doc, err := encode(data)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.createLocked(collection, doc)
	metrics.UpdateDocumentsTotal(collection, len(m.collections[collection]))
	return id, nil
}

// Update merges the patch into an existing document.
func (m *Memory) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	defer observe("update", time.Now())

	normalized, err := encode(patch)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.updateLocked(collection, id, normalized)
}

// Delete removes a document.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	defer observe("delete", time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
	}
	delete(m.collections[collection], id)
	metrics.UpdateDocumentsTotal(collection, len(m.collections[collection]))
	return nil
}

// RunBatch applies all operations under one critical section.
// Guards and referenced documents are validated before any write, so a
// failing batch leaves the store untouched.
func (m *Memory) RunBatch(ctx context.Context, ops []BatchOp) error {
	defer observe("batch", time.Now())
	metrics.RecordStoreBatchSize(len(ops))

	// Encode creates/patches outside the lock.
	encoded := make([]map[string]any, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case BatchCreate:
			doc, err := encode(op.Data)
			if err != nil {
				return err
			}
			encoded[i] = doc
		case BatchUpdate:
			doc, err := encode(op.Patch)
			if err != nil {
				return err
			}
			encoded[i] = doc
		case BatchDelete, BatchGuard:
			// nothing to encode
		default:
			return fmt.Errorf("%w: unknown batch op %q", ErrBadQuery, op.Kind)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate everything first. Creates and deletes earlier in the
	// batch are tracked so later operations are checked against the
	// state they will actually see, not the pre-batch state. Guards
	// stay preconditions on the pre-batch state.
	created := map[string]map[string]struct{}{}
	deleted := map[string]map[string]struct{}{}
	exists := func(collection, id string) bool {
		if _, gone := deleted[collection][id]; gone {
			return false
		}
		if _, added := created[collection][id]; added {
			return true
		}
		_, ok := m.collections[collection][id]
		return ok
	}
	mark := func(set map[string]map[string]struct{}, collection, id string) {
		if set[collection] == nil {
			set[collection] = make(map[string]struct{})
		}
		set[collection][id] = struct{}{}
	}
	for i, op := range ops {
		switch op.Kind {
		case BatchGuard:
			docs, err := m.queryLocked(op.Collection, Query{Filters: op.Guard.Filters})
			if err != nil {
				return err
			}
			if len(docs) > op.Guard.MaxCount {
				metrics.RecordStoreGuardAbort()
				return fmt.Errorf("guard on %s (max %d, found %d): %w",
					op.Collection, op.Guard.MaxCount, len(docs), ErrConflict)
			}
		case BatchUpdate:
			if !exists(op.Collection, op.ID) {
				return fmt.Errorf("batch %s %s/%s: %w", op.Kind, op.Collection, op.ID, ErrNotFound)
			}
		case BatchDelete:
			if !exists(op.Collection, op.ID) {
				return fmt.Errorf("batch %s %s/%s: %w", op.Kind, op.Collection, op.ID, ErrNotFound)
			}
			mark(deleted, op.Collection, op.ID)
			delete(created[op.Collection], op.ID)
		case BatchCreate:
			// Only creates with an explicit id can be referenced by
			// later operations; generated ids are unknowable here.
			if id, _ := encoded[i]["id"].(string); id != "" {
				mark(created, op.Collection, id)
				delete(deleted[op.Collection], id)
			}
		}
	}

	// Apply.
	touched := map[string]struct{}{}
	for i, op := range ops {
		switch op.Kind {
		case BatchCreate:
			m.createLocked(op.Collection, encoded[i])
			touched[op.Collection] = struct{}{}
		case BatchUpdate:
			if err := m.updateLocked(op.Collection, op.ID, encoded[i]); err != nil {
				// Unreachable after validation; surface loudly if it happens.
				return err
			}
		case BatchDelete:
			delete(m.collections[op.Collection], op.ID)
			touched[op.Collection] = struct{}{}
		case BatchGuard:
			// validated above
		}
	}
	for col := range touched {
		metrics.UpdateDocumentsTotal(col, len(m.collections[col]))
	}
	return nil
}

func (m *Memory) createLocked(collection string, doc map[string]any) string {
	id, _ := doc["id"].(string)
	if id == "" {
		id = m.newID()
		doc["id"] = id
	}
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]any)
	}
	m.collections[collection][id] = doc
	return id
}

func (m *Memory) updateLocked(collection, id string, patch map[string]any) error {
	doc, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	return nil
}

func (m *Memory) queryLocked(collection string, q Query) ([]Document, error) {
	var out []Document
	for id, doc := range m.collections[collection] {
		ok, err := matchesAll(doc, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Document{ID: id, Data: doc})
		}
	}

	// Deterministic order even without an explicit OrderBy.
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.OrderBy != "" {
		field := q.OrderBy
		sort.SliceStable(out, func(i, j int) bool {
			cmp := compareValues(out[i].Data[field], out[j].Data[field])
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesAll(doc map[string]any, filters []Filter) (bool, error) {
	for _, f := range filters {
		ok, err := matches(doc, f)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matches(doc map[string]any, f Filter) (bool, error) {
	val, present := doc[f.Field]
	switch f.Op {
	case OpEq:
		return present && compareValues(val, f.Value) == 0, nil
	case OpIn:
		items, err := toSlice(f.Value)
		if err != nil {
			return false, err
		}
		if !present {
			return false, nil
		}
		for _, item := range items {
			if compareValues(val, item) == 0 {
				return true, nil
			}
		}
		return false, nil
	case OpGte:
		return present && compareValues(val, f.Value) >= 0, nil
	case OpLte:
		return present && compareValues(val, f.Value) <= 0, nil
	default:
		return false, fmt.Errorf("%w: unsupported operator %q", ErrBadQuery, f.Op)
	}
}

// compareValues orders two JSON-shaped values. Numbers compare
// numerically, everything else compares by normalized string form.
func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(normalize(a)), fmt.Sprint(normalize(b)))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: in-list value must be a slice", ErrBadQuery)
		}
		var out []any
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: in-list value must be a slice", ErrBadQuery)
		}
		return out, nil
	}
}

// normalize passes a value through JSON so typed and stored shapes compare.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// encode converts a typed value into a stored document map.
func encode(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	return doc, nil
}

// deepCopy clones a stored document so callers cannot alias store state.
func deepCopy(doc map[string]any) map[string]any {
	out, err := encode(doc)
	if err != nil {
		// Stored documents are JSON-shaped maps; this cannot fail.
		return map[string]any{}
	}
	return out
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOperation(op)
	metrics.RecordStoreOpLatency(float64(time.Since(start).Microseconds()) / 1000.0)
}
