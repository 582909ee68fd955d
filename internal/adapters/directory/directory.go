// Package directory provides store-backed lookups of candidate profiles
// and requirement sets. The core treats both as read-only.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/intake/internal/adapters/docstore"
	"github.com/okian/intake/internal/domain/apperr"
	"github.com/okian/intake/internal/domain/model"
)

// CandidateSource resolves student profiles for scoring.
type CandidateSource interface {
	CandidateProfile(ctx context.Context, studentID string) (model.Candidate, error)
}

// TargetSource resolves requirement sets for courses and jobs.
type TargetSource interface {
	RequirementSet(ctx context.Context, targetID string) (model.RequirementSet, error)
	ListOpenTargets(ctx context.Context, kind model.TargetKind) ([]model.RequirementSet, error)
}

// Directory implements CandidateSource and TargetSource over the
// document store.
type Directory struct {
	store docstore.Store
}

var (
	_ CandidateSource = (*Directory)(nil)
	_ TargetSource    = (*Directory)(nil)
)

// New creates a Directory over the given store.
func New(store docstore.Store) *Directory {
	return &Directory{store: store}
}

// CandidateProfile returns the student's profile snapshot.
func (d *Directory) CandidateProfile(ctx context.Context, studentID string) (model.Candidate, error) {
	doc, err := d.store.Get(ctx, docstore.CollectionStudents, studentID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return model.Candidate{}, fmt.Errorf("student %s: %w", studentID, apperr.ErrNotFound)
		}
		return model.Candidate{}, fmt.Errorf("load student %s: %w", studentID, err)
	}
	var c model.Candidate
	if err := doc.Decode(&c); err != nil {
		return model.Candidate{}, fmt.Errorf("load student %s: %w", studentID, err)
	}
	return c, nil
}

// RequirementSet returns the target's qualification criteria.
func (d *Directory) RequirementSet(ctx context.Context, targetID string) (model.RequirementSet, error) {
	doc, err := d.store.Get(ctx, docstore.CollectionTargets, targetID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return model.RequirementSet{}, fmt.Errorf("target %s: %w", targetID, apperr.ErrNotFound)
		}
		return model.RequirementSet{}, fmt.Errorf("load target %s: %w", targetID, err)
	}
	var r model.RequirementSet
	if err := doc.Decode(&r); err != nil {
		return model.RequirementSet{}, fmt.Errorf("load target %s: %w", targetID, err)
	}
	return r, nil
}

// ListOpenTargets returns every active target of the given kind.
func (d *Directory) ListOpenTargets(ctx context.Context, kind model.TargetKind) ([]model.RequirementSet, error) {
	docs, err := d.store.Query(ctx, docstore.CollectionTargets, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("kind", string(kind)),
			docstore.Eq("status", string(model.TargetActive)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list open %s targets: %w", kind, err)
	}
	out := make([]model.RequirementSet, 0, len(docs))
	for _, doc := range docs {
		var r model.RequirementSet
		if err := doc.Decode(&r); err != nil {
			return nil, fmt.Errorf("list open %s targets: %w", kind, err)
		}
		out = append(out, r)
	}
	return out, nil
}
