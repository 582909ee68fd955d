// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/okian/intake/internal/adapters/directory"
	"github.com/okian/intake/internal/adapters/docstore"
	"github.com/okian/intake/internal/adapters/notify"
	"github.com/okian/intake/internal/domain/apperr"
	"github.com/okian/intake/internal/domain/arbiter"
	"github.com/okian/intake/internal/domain/gate"
	"github.com/okian/intake/internal/domain/matching"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/internal/domain/scoring"
	"github.com/okian/intake/pkg/logger"
)

// Service wires the matching core together and implements the API
// dependencies for the admission system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      docstore.Store
	dir        *directory.Directory
	scorer     *scoring.Scorer
	gatekeeper *gate.Gatekeeper
	arb        *arbiter.Arbiter
	ranker     *matching.Ranker
	dispatcher *notify.Dispatcher

	// Configuration
	institutionCap   int
	qualifyThreshold int
	rankerMinScore   int
	rankerLimit      int
	maxAttempts      int
	queueSize        int
	workerCount      int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a document store, replacing the default in-memory
// one. Mainly for tests needing a pre-seeded store.
func WithStore(store docstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithInstitutionCap limits concurrent applications per institution.
func WithInstitutionCap(cap int) Option {
	return func(s *Service) {
		if cap > 0 {
			s.institutionCap = cap
		}
	}
}

// WithQualifyThreshold sets the job qualification threshold.
func WithQualifyThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.qualifyThreshold = threshold
		}
	}
}

// WithRankerMinScore sets the exclusive score floor for job matching.
func WithRankerMinScore(min int) Option {
	return func(s *Service) {
		if min >= 0 {
			s.rankerMinScore = min
		}
	}
}

// WithRankerLimit caps the number of matches returned per student.
func WithRankerLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.rankerLimit = limit
		}
	}
}

// WithArbitrationMaxAttempts bounds admission selection retries.
func WithArbitrationMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithNotifyQueueSize bounds the notification queue.
func WithNotifyQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithNotifyWorkerCount sets the number of notification workers.
func WithNotifyWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		institutionCap:   gate.DefaultInstitutionCap,
		qualifyThreshold: 60,
		rankerMinScore:   50,
		rankerLimit:      10,
		maxAttempts:      3,
		queueSize:        1024,
		workerCount:      runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting intake service...")

	if s.store == nil {
		s.store = docstore.NewMemory()
	}
	s.dir = directory.New(s.store)
	s.scorer = scoring.New(
		scoring.WithQualifyThreshold(s.qualifyThreshold),
	)
	s.dispatcher = notify.NewDispatcher(s.store,
		notify.WithQueueSize(s.queueSize),
		notify.WithWorkerCount(s.workerCount),
		notify.WithLogger(s.logger.Named("notify")),
	)
	s.dispatcher.Start(ctx)

	s.gatekeeper = gate.New(s.store, s.dir, s.dir, s.scorer, s.dispatcher,
		gate.WithInstitutionCap(s.institutionCap),
		gate.WithLogger(s.logger.Named("gate")),
	)
	s.arb = arbiter.New(s.store, s.dispatcher,
		arbiter.WithMaxAttempts(s.maxAttempts),
		arbiter.WithLogger(s.logger.Named("arbiter")),
	)
	s.ranker = matching.New(s.scorer,
		matching.WithMinScore(s.rankerMinScore),
		matching.WithLimit(s.rankerLimit),
	)

	s.started = true
	s.logger.Info(ctx, "intake service started",
		logger.Int("institutionCap", s.institutionCap),
		logger.Int("qualifyThreshold", s.qualifyThreshold),
		logger.Int("notifyWorkers", s.workerCount),
	)
	return nil
}

// Stop gracefully shuts down the service, draining pending
// notifications first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping intake service...")

	if s.dispatcher != nil {
		s.dispatcher.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "intake service stopped")
}

// Store exposes the backing document store, mainly for seeding and
// administrative tooling.
func (s *Service) Store() docstore.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// CheckEligibility reports every gate rule for a student against a
// target without side effects.
func (s *Service) CheckEligibility(ctx context.Context, studentID, targetID string) (gate.Report, error) {
	return s.gatekeeper.CheckEligibility(ctx, studentID, targetID)
}

// Apply submits an application after re-asserting eligibility.
func (s *Service) Apply(ctx context.Context, studentID, targetID string) (model.Application, error) {
	return s.gatekeeper.Apply(ctx, studentID, targetID)
}

// SelectAdmission confirms one admitted course offer and auto-declines
// the student's other admitted offers.
func (s *Service) SelectAdmission(ctx context.Context, studentID, applicationID string) (model.Application, error) {
	return s.arb.SelectAdmission(ctx, studentID, applicationID)
}

// UpdateApplicationStatus performs a staff-driven status transition.
func (s *Service) UpdateApplicationStatus(ctx context.Context, applicationID string, status model.ApplicationStatus, reviewer string) (model.Application, error) {
	return s.arb.UpdateStatus(ctx, applicationID, status, reviewer)
}

// MatchJobs ranks open jobs for a student. Scores are computed on the
// fly and never persisted.
func (s *Service) MatchJobs(ctx context.Context, studentID string) ([]matching.Match, error) {
	candidate, err := s.dir.CandidateProfile(ctx, studentID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.dir.ListOpenTargets(ctx, model.KindJob)
	if err != nil {
		return nil, fmt.Errorf("list open jobs: %w", err)
	}
	return s.ranker.RankJobs(candidate, jobs), nil
}

// GetApplication loads one application. With enrich set, the target's
// current title and owner name are re-fetched and layered over the
// stored denormalized copies; enrichment failures are logged and the
// stored values returned instead.
func (s *Service) GetApplication(ctx context.Context, applicationID string, enrich bool) (model.Application, error) {
	doc, err := s.store.Get(ctx, docstore.CollectionApplications, applicationID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return model.Application{}, fmt.Errorf("application %s: %w", applicationID, apperr.ErrNotFound)
		}
		return model.Application{}, fmt.Errorf("load application %s: %w", applicationID, err)
	}
	var app model.Application
	if err := doc.Decode(&app); err != nil {
		return model.Application{}, fmt.Errorf("load application %s: %w", applicationID, err)
	}
	if !enrich {
		return app, nil
	}

	req, err := s.dir.RequirementSet(ctx, app.TargetID)
	if err != nil {
		s.logger.Warn(ctx, "application enrichment failed, serving stored fields",
			logger.String("applicationID", applicationID),
			logger.String("targetID", app.TargetID),
			logger.Error(err),
		)
		return app, nil
	}
	app.TargetTitle = req.Title
	app.OwnerName = req.OwnerName
	return app, nil
}

// ListApplications returns a student's applications, most recent first.
func (s *Service) ListApplications(ctx context.Context, studentID string) ([]model.Application, error) {
	docs, err := s.store.Query(ctx, docstore.CollectionApplications, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("studentId", studentID)},
		OrderBy: "appliedAt",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make([]model.Application, 0, len(docs))
	for _, doc := range docs {
		var app model.Application
		if err := doc.Decode(&app); err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		out = append(out, app)
	}
	return out, nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	return s.dispatcher.ListForUser(ctx, userID)
}

// MarkNotificationRead marks one notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return s.dispatcher.MarkRead(ctx, notificationID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"started":          s.started,
		"institutionCap":   s.institutionCap,
		"qualifyThreshold": s.qualifyThreshold,
		"rankerMinScore":   s.rankerMinScore,
		"rankerLimit":      s.rankerLimit,
		"notifyWorkers":    s.workerCount,
		"notifyQueueSize":  s.queueSize,
	}
}
