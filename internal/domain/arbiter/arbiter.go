// Package arbiter resolves the multiple-admissions conflict: accepting
// one admitted course application atomically declines every other
// admitted application the student holds, so at most one accepted
// application ever exists per student.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/intake/internal/adapters/docstore"
	"github.com/okian/intake/internal/adapters/notify"
	"github.com/okian/intake/internal/domain/apperr"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/pkg/logger"
	"github.com/okian/intake/pkg/metrics"
)

// defaultMaxAttempts bounds whole-batch retries on store conflict.
const defaultMaxAttempts = 3

// autoDeclineReason is stamped on admitted applications declined by a selection.
const autoDeclineReason = "student selected another institution"

// Option applies a configuration option to the Arbiter.
type Option func(*Arbiter)

// WithMaxAttempts sets the number of whole-batch attempts on conflict.
func WithMaxAttempts(n int) Option {
	return func(a *Arbiter) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Arbiter) {
		if log != nil {
			a.log = log
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Arbiter) {
		if now != nil {
			a.now = now
		}
	}
}

// Arbiter owns admission selection and staff status transitions.
type Arbiter struct {
	store   docstore.Store
	emitter notify.Emitter

	maxAttempts int
	log         logger.Logger
	now         func() time.Time
}

// New creates an Arbiter.
func New(store docstore.Store, emitter notify.Emitter, opts ...Option) *Arbiter {
	a := &Arbiter{
		store:       store,
		emitter:     emitter,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Named("arbiter")
	}
	return a
}

// SelectAdmission accepts the admitted application and declines every
// other admitted course application of the same student in one atomic
// batch. On store conflict the whole batch is retried from a fresh
// read; individual writes are never retried in isolation.
func (a *Arbiter) SelectAdmission(ctx context.Context, studentID, applicationID string) (model.Application, error) {
	var lastErr error
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RecordArbitrationRetry()
		}

		app, err := a.loadApplication(ctx, applicationID)
		if err != nil {
			return model.Application{}, err
		}
		if app.StudentID != studentID {
			return model.Application{}, fmt.Errorf("application %s belongs to another student: %w", applicationID, apperr.ErrUnauthorized)
		}
		if app.TargetKind != model.KindCourse || app.Status != model.StatusAdmitted {
			return model.Application{}, fmt.Errorf("application %s is %s: %w", applicationID, app.Status, apperr.ErrInvalidSelection)
		}

		others, err := a.otherAdmitted(ctx, studentID, applicationID)
		if err != nil {
			return model.Application{}, err
		}

		now := a.now().UTC()
		ops := make([]docstore.BatchOp, 0, len(others)+3)
		// Abort if the target left the admitted state since the read.
		ops = append(ops, docstore.GuardOp(docstore.CollectionApplications, []docstore.Filter{
			docstore.Eq("id", applicationID),
			docstore.In("status", []string{
				string(model.StatusPending),
				string(model.StatusAccepted),
				string(model.StatusRejected),
			}),
		}, 0))
		// Abort if another admitted offer appeared since the read, so
		// the retry declines it too.
		ops = append(ops, docstore.GuardOp(docstore.CollectionApplications, []docstore.Filter{
			docstore.Eq("studentId", studentID),
			docstore.Eq("targetKind", string(model.KindCourse)),
			docstore.Eq("status", string(model.StatusAdmitted)),
		}, len(others)+1))
		ops = append(ops, docstore.UpdateOp(docstore.CollectionApplications, applicationID, map[string]any{
			"status":          string(model.StatusAccepted),
			"studentSelected": true,
			"selectedAt":      now,
			"updatedAt":       now,
		}))
		for _, other := range others {
			ops = append(ops, docstore.UpdateOp(docstore.CollectionApplications, other.ID, map[string]any{
				"status":          string(model.StatusRejected),
				"rejectionReason": autoDeclineReason,
				"updatedAt":       now,
			}))
		}

		if err := a.store.RunBatch(ctx, ops); err != nil {
			if errors.Is(err, docstore.ErrConflict) {
				metrics.RecordArbitrationConflict()
				lastErr = err
				continue
			}
			return model.Application{}, fmt.Errorf("arbitration batch: %w", err)
		}

		metrics.RecordAdmissionSelected()
		metrics.RecordAdmissionsDeclined(len(others))
		a.log.Info(ctx, "admission selected",
			logger.String("studentID", studentID),
			logger.String("applicationID", applicationID),
			logger.Int("declined", len(others)),
		)

		a.emitter.Emit(ctx, studentID, notify.Event{
			Type:  "admission_selected",
			Title: "Admission confirmed",
			Message: fmt.Sprintf("You accepted your admission to %s at %s; %d other offer(s) were declined automatically.",
				app.TargetTitle, app.OwnerName, len(others)),
			RelatedApplicationID: applicationID,
		})

		app.Status = model.StatusAccepted
		app.StudentSelected = true
		app.SelectedAt = &now
		app.UpdatedAt = now
		return app, nil
	}

	return model.Application{}, fmt.Errorf("arbitration failed after %d attempts: %w (%v)",
		a.maxAttempts, apperr.ErrStoreConflict, lastErr)
}

// transitions allowed on the staff-driven path, per target kind.
// Accepted is terminal: only SelectAdmission produces it, and nothing
// leaves it in the normal flow.
var courseTransitions = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.StatusPending:  {model.StatusAdmitted, model.StatusRejected},
	model.StatusAdmitted: {model.StatusPending, model.StatusRejected},
	model.StatusRejected: {model.StatusPending},
}

var jobTransitions = map[model.ApplicationStatus][]model.ApplicationStatus{
	model.StatusPending:     {model.StatusShortlisted, model.StatusRejected},
	model.StatusShortlisted: {model.StatusInterview, model.StatusPending, model.StatusRejected},
	model.StatusInterview:   {model.StatusPending, model.StatusRejected},
	model.StatusRejected:    {model.StatusPending},
}

// UpdateStatus performs a staff-driven transition on one application,
// stamping the reviewer. It only ever touches a single document and can
// never produce an accepted application.
func (a *Arbiter) UpdateStatus(ctx context.Context, applicationID string, newStatus model.ApplicationStatus, reviewer string) (model.Application, error) {
	app, err := a.loadApplication(ctx, applicationID)
	if err != nil {
		return model.Application{}, err
	}

	allowed := courseTransitions
	if app.TargetKind == model.KindJob {
		allowed = jobTransitions
	}
	if !contains(allowed[app.Status], newStatus) {
		return model.Application{}, fmt.Errorf("%s -> %s on application %s: %w",
			app.Status, newStatus, applicationID, apperr.ErrInvalidTransition)
	}

	now := a.now().UTC()
	patch := map[string]any{
		"status":     string(newStatus),
		"reviewedAt": now,
		"reviewedBy": reviewer,
		"updatedAt":  now,
	}
	if newStatus == model.StatusPending {
		// Reverting clears the prior decision's reason.
		patch["rejectionReason"] = ""
	}
	if err := a.store.Update(ctx, docstore.CollectionApplications, applicationID, patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return model.Application{}, fmt.Errorf("application %s: %w", applicationID, apperr.ErrNotFound)
		}
		return model.Application{}, fmt.Errorf("update application %s: %w", applicationID, err)
	}

	metrics.RecordStatusTransition(string(newStatus))
	a.log.Info(ctx, "application status updated",
		logger.String("applicationID", applicationID),
		logger.String("from", string(app.Status)),
		logger.String("to", string(newStatus)),
		logger.String("reviewer", reviewer),
	)

	ev := statusEvent(newStatus, app)
	ev.RelatedApplicationID = applicationID
	a.emitter.Emit(ctx, app.StudentID, ev)

	app.Status = newStatus
	app.ReviewedAt = &now
	app.ReviewedBy = reviewer
	app.UpdatedAt = now
	return app, nil
}

func (a *Arbiter) loadApplication(ctx context.Context, id string) (model.Application, error) {
	doc, err := a.store.Get(ctx, docstore.CollectionApplications, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return model.Application{}, fmt.Errorf("application %s: %w", id, apperr.ErrNotFound)
		}
		return model.Application{}, fmt.Errorf("load application %s: %w", id, err)
	}
	var app model.Application
	if err := doc.Decode(&app); err != nil {
		return model.Application{}, fmt.Errorf("load application %s: %w", id, err)
	}
	return app, nil
}

func (a *Arbiter) otherAdmitted(ctx context.Context, studentID, excludeID string) ([]model.Application, error) {
	docs, err := a.store.Query(ctx, docstore.CollectionApplications, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("studentId", studentID),
			docstore.Eq("targetKind", string(model.KindCourse)),
			docstore.Eq("status", string(model.StatusAdmitted)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list admitted applications: %w", err)
	}
	out := make([]model.Application, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == excludeID {
			continue
		}
		var app model.Application
		if err := doc.Decode(&app); err != nil {
			return nil, fmt.Errorf("list admitted applications: %w", err)
		}
		out = append(out, app)
	}
	return out, nil
}

func statusEvent(status model.ApplicationStatus, app model.Application) notify.Event {
	target := app.TargetTitle
	if target == "" {
		target = app.TargetID
	}
	switch status {
	case model.StatusAdmitted:
		return notify.Event{
			Type:    "application_admitted",
			Title:   "You were admitted",
			Message: fmt.Sprintf("You were admitted to %s. Select the offer to confirm your place.", target),
		}
	case model.StatusRejected:
		return notify.Event{
			Type:    "application_rejected",
			Title:   "Application decision",
			Message: fmt.Sprintf("Your application to %s was not successful.", target),
		}
	case model.StatusShortlisted:
		return notify.Event{
			Type:    "application_shortlisted",
			Title:   "You were shortlisted",
			Message: fmt.Sprintf("You were shortlisted for %s.", target),
		}
	case model.StatusInterview:
		return notify.Event{
			Type:    "application_interview",
			Title:   "Interview invitation",
			Message: fmt.Sprintf("You were invited to interview for %s.", target),
		}
	default:
		return notify.Event{
			Type:    "application_updated",
			Title:   "Application updated",
			Message: fmt.Sprintf("Your application to %s is now %s.", target, status),
		}
	}
}

func contains(list []model.ApplicationStatus, s model.ApplicationStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
