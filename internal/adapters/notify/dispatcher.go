// Package notify records user-facing events. Emission is fire-and-forget:
// a bounded queue feeds worker goroutines that persist notifications
// best-effort, so a slow or failing write never blocks or fails the core
// operation that triggered it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/intake/internal/adapters/docstore"
	"github.com/okian/intake/internal/domain/apperr"
	"github.com/okian/intake/internal/domain/model"
	"github.com/okian/intake/pkg/logger"
	"github.com/okian/intake/pkg/metrics"
)

// Default dispatcher configuration constants.
const (
	defaultQueueSize   = 1024
	defaultWorkerCount = 2
)

// Event is the notification-creation contract consumed by the core.
type Event struct {
	Type                 string
	Title                string
	Message              string
	RelatedApplicationID string
}

// Emitter records a user-facing event. Implementations must never block
// the caller and must never surface failures to it.
type Emitter interface {
	Emit(ctx context.Context, userID string, ev Event)
}

type pending struct {
	userID string
	ev     Event
}

// Dispatcher implements Emitter over the document store.
type Dispatcher struct {
	store   docstore.Store
	log     logger.Logger
	now     func() time.Time
	workers int

	mu     sync.RWMutex
	queue  chan pending
	closed bool
	wg     sync.WaitGroup
}

var _ Emitter = (*Dispatcher)(nil)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithWorkerCount sets the number of persisting workers.
func WithWorkerCount(count int) Option {
	return func(d *Dispatcher) {
		if count > 0 {
			d.workers = count
		}
	}
}

// WithQueueSize bounds the pending notification queue.
func WithQueueSize(size int) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queue = make(chan pending, size)
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a Dispatcher. Start must be called before Emit
// delivers anything.
func NewDispatcher(store docstore.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		now:     time.Now,
		workers: defaultWorkerCount,
		queue:   make(chan pending, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start spawns the persisting workers.
func (d *Dispatcher) Start(ctx context.Context) {
	if d.log == nil {
		d.log = logger.Get().Named("notify")
	}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
}

// Close stops accepting events, drains the queue, and waits for workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Emit enqueues a notification for persistence. On backpressure or after
// Close the event is dropped and counted, never blocking the caller.
func (d *Dispatcher) Emit(ctx context.Context, userID string, ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.RecordNotificationDropped()
		return
	}
	select {
	case d.queue <- pending{userID: userID, ev: ev}:
	default:
		metrics.RecordNotificationDropped()
		d.log.Warn(ctx, "notification queue full, dropping event",
			logger.String("userID", userID),
			logger.String("type", ev.Type),
		)
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for p := range d.queue {
		n := model.Notification{
			UserID:               p.userID,
			Type:                 p.ev.Type,
			Title:                p.ev.Title,
			Message:              p.ev.Message,
			RelatedApplicationID: p.ev.RelatedApplicationID,
			CreatedAt:            d.now().UTC(),
		}
		if _, err := d.store.Create(ctx, docstore.CollectionNotifications, n); err != nil {
			metrics.RecordNotificationFailure()
			d.log.Error(ctx, "failed to persist notification",
				logger.String("userID", p.userID),
				logger.String("type", p.ev.Type),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordNotificationEmitted()
	}
}

// ListForUser returns the user's notifications, newest first.
func (d *Dispatcher) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	docs, err := d.store.Query(ctx, docstore.CollectionNotifications, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("userId", userID)},
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	out := make([]model.Notification, 0, len(docs))
	for _, doc := range docs {
		var n model.Notification
		if err := doc.Decode(&n); err != nil {
			return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// MarkRead flags a notification as read.
func (d *Dispatcher) MarkRead(ctx context.Context, id string) error {
	err := d.store.Update(ctx, docstore.CollectionNotifications, id, map[string]any{"read": true})
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
	}
	return err
}
