// Package gate enforces eligibility before an application is created:
// no duplicate application, per-institution cap, target availability,
// and academic qualification.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/intake/internal/adapters/directory"
	"github.com/okian/intake/internal/adapters/docstore"
	"github.com/okian/intake/internal/adapters/notify"
	"github.com/okian/intake/internal/domain/apperr"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/internal/domain/scoring"
	"github.com/okian/intake/pkg/logger"
	"github.com/okian/intake/pkg/metrics"
)

// DefaultInstitutionCap is the maximum number of simultaneous
// non-rejected applications a student may hold against one institution.
const DefaultInstitutionCap = 2

// nonRejectedStatuses lists every status that counts toward the
// duplicate and cap rules, across both course and job applications.
var nonRejectedStatuses = []string{
	string(model.StatusPending),
	string(model.StatusAdmitted),
	string(model.StatusAccepted),
	string(model.StatusShortlisted),
	string(model.StatusInterview),
}

// Report is the structured outcome of an eligibility check. All rules
// are evaluated independently so a caller can show every blocking
// reason at once.
type Report struct {
	Qualified               bool     `json:"qualified"`
	CanApplyToTarget        bool     `json:"canApplyToTarget"`
	TargetAvailable         bool     `json:"targetAvailable"`
	AlreadyApplied          bool     `json:"alreadyApplied"`
	MissingRequirements     []string `json:"missingRequirements,omitempty"`
	CurrentApplicationCount int      `json:"currentApplicationCount"`
	Score                   int      `json:"score"`
}

// Eligible reports whether every rule passed.
func (r Report) Eligible() bool {
	return r.Qualified && r.CanApplyToTarget && r.TargetAvailable && !r.AlreadyApplied
}

// Option applies a configuration option to the Gatekeeper.
type Option func(*Gatekeeper)

// WithInstitutionCap overrides the per-institution application cap.
func WithInstitutionCap(cap int) Option {
	return func(g *Gatekeeper) {
		if cap > 0 {
			g.cap = cap
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(g *Gatekeeper) {
		if log != nil {
			g.log = log
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gatekeeper) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDGenerator overrides application id generation, mainly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(g *Gatekeeper) {
		if gen != nil {
			g.newID = gen
		}
	}
}

// Gatekeeper checks eligibility and creates applications.
type Gatekeeper struct {
	store      docstore.Store
	candidates directory.CandidateSource
	targets    directory.TargetSource
	scorer     *scoring.Scorer
	emitter    notify.Emitter

	cap   int
	log   logger.Logger
	now   func() time.Time
	newID func() string
}

// New creates a Gatekeeper.
func New(store docstore.Store, candidates directory.CandidateSource, targets directory.TargetSource, scorer *scoring.Scorer, emitter notify.Emitter, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		store:      store,
		candidates: candidates,
		targets:    targets,
		scorer:     scorer,
		emitter:    emitter,
		cap:        DefaultInstitutionCap,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.Named("gate")
	}
	return g
}

// CheckEligibility evaluates all four rules for the pair. Rules are
// computed independently, never short-circuited, so the report carries
// every failing reason. Repeated calls with no intervening writes
// return identical reports.
func (g *Gatekeeper) CheckEligibility(ctx context.Context, studentID, targetID string) (Report, error) {
	report, _, err := g.check(ctx, studentID, targetID)
	return report, err
}

func (g *Gatekeeper) check(ctx context.Context, studentID, targetID string) (Report, model.RequirementSet, error) {
	metrics.RecordEligibilityCheck()

	candidate, err := g.candidates.CandidateProfile(ctx, studentID)
	if err != nil {
		return Report{}, model.RequirementSet{}, err
	}
	req, err := g.targets.RequirementSet(ctx, targetID)
	if err != nil {
		return Report{}, model.RequirementSet{}, err
	}

	var report Report

	// Rule 1: no live application to the same target.
	dups, err := g.store.Query(ctx, docstore.CollectionApplications, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("studentId", studentID),
			docstore.Eq("targetId", targetID),
			docstore.In("status", nonRejectedStatuses),
		},
	})
	if err != nil {
		return Report{}, model.RequirementSet{}, fmt.Errorf("check duplicate application: %w", err)
	}
	report.AlreadyApplied = len(dups) > 0

	// Rule 2: the per-institution cap.
	held, err := g.store.Query(ctx, docstore.CollectionApplications, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("studentId", studentID),
			docstore.Eq("ownerId", req.OwnerID),
			docstore.In("status", nonRejectedStatuses),
		},
	})
	if err != nil {
		return Report{}, model.RequirementSet{}, fmt.Errorf("count held applications: %w", err)
	}
	report.CurrentApplicationCount = len(held)
	report.CanApplyToTarget = len(held) < g.cap

	// Rule 3: target availability.
	report.TargetAvailable = req.Status == model.TargetActive

	// Rule 4: academic qualification. Courses gate on the AND-of-checks
	// semantics; jobs use the weighted threshold.
	var result scoring.Result
	if req.Kind == model.KindCourse {
		result = g.scorer.CheckCourse(candidate, req)
	} else {
		result = g.scorer.Evaluate(candidate, req, scoring.JobRanking)
	}
	report.Qualified = result.Qualified
	report.MissingRequirements = result.Missing
	report.Score = result.Score

	return report, req, nil
}

// Apply re-checks eligibility and creates a pending application with
// target display fields denormalized onto it. The duplicate and cap
// rules are re-asserted as guards inside the same batch that creates
// the document, closing the check-then-act window.
func (g *Gatekeeper) Apply(ctx context.Context, studentID, targetID string) (model.Application, error) {
	report, req, err := g.check(ctx, studentID, targetID)
	if err != nil {
		return model.Application{}, err
	}

	switch {
	case report.AlreadyApplied:
		metrics.RecordEligibilityFailure("already_applied")
		return model.Application{}, fmt.Errorf("student %s, target %s: %w", studentID, targetID, apperr.ErrAlreadyApplied)
	case !report.CanApplyToTarget:
		metrics.RecordEligibilityFailure("cap_exceeded")
		return model.Application{}, fmt.Errorf("student %s holds %d applications at %s: %w",
			studentID, report.CurrentApplicationCount, req.OwnerID, apperr.ErrCapExceeded)
	case !report.TargetAvailable:
		metrics.RecordEligibilityFailure("target_unavailable")
		return model.Application{}, fmt.Errorf("target %s: %w", targetID, apperr.ErrTargetUnavailable)
	case !report.Qualified:
		metrics.RecordEligibilityFailure("not_qualified")
		return model.Application{}, fmt.Errorf("student %s, target %s: %w", studentID, targetID, apperr.ErrNotQualified)
	}

	now := g.now().UTC()
	app := model.Application{
		ID:          g.newID(),
		StudentID:   studentID,
		TargetID:    targetID,
		TargetKind:  req.Kind,
		OwnerID:     req.OwnerID,
		OwnerName:   req.OwnerName,
		TargetTitle: req.Title,
		Status:      model.StatusPending,
		AppliedAt:   now,
		UpdatedAt:   now,
	}

	err = g.store.RunBatch(ctx, []docstore.BatchOp{
		docstore.GuardOp(docstore.CollectionApplications, []docstore.Filter{
			docstore.Eq("studentId", studentID),
			docstore.Eq("targetId", targetID),
			docstore.In("status", nonRejectedStatuses),
		}, 0),
		docstore.GuardOp(docstore.CollectionApplications, []docstore.Filter{
			docstore.Eq("studentId", studentID),
			docstore.Eq("ownerId", req.OwnerID),
			docstore.In("status", nonRejectedStatuses),
		}, g.cap-1),
		docstore.CreateOp(docstore.CollectionApplications, app),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			// A concurrent apply won the race between check and create.
			metrics.RecordEligibilityFailure("race_lost")
			return model.Application{}, fmt.Errorf("apply for %s: %w", targetID, apperr.ErrStoreConflict)
		}
		return model.Application{}, fmt.Errorf("create application: %w", err)
	}

	metrics.RecordApplicationSubmitted()
	g.log.Info(ctx, "application created",
		logger.String("applicationID", app.ID),
		logger.String("studentID", studentID),
		logger.String("targetID", targetID),
	)

	g.emitter.Emit(ctx, studentID, notify.Event{
		Type:                 "application_submitted",
		Title:                "Application submitted",
		Message:              fmt.Sprintf("Your application to %s at %s was submitted.", req.Title, req.OwnerName),
		RelatedApplicationID: app.ID,
	})

	return app, nil
}
