package audit

import (
	"context"
	"strings"
	"sync"
	"time"

	"tierdir.org/internal/ids"
)

const queueDepth = 256

// Recorder records activity and security events without ever failing the
// request that triggered them. Entries are logged synchronously and
// persisted by a background worker; a full queue or a failing store only
// produces a diagnostic log line.
type Recorder struct {
	store Store
	now   func() time.Time

	queue chan persistJob
	done  chan struct{}
	once  sync.Once
}

type persistJob func(ctx context.Context) error

// RecorderOption configures Recorder behavior.
type RecorderOption func(*Recorder)

// WithRecorderClock overrides the time source (useful for tests).
func WithRecorderClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder starts a recorder persisting through store. The store may be
// nil, in which case entries are logged but not persisted.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store: store,
		now:   time.Now,
		queue: make(chan persistJob, queueDepth),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for job := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := job(ctx); err != nil {
			LogEvent(ctx, "audit.persist_failed", map[string]any{"error": err.Error()})
		}
		cancel()
	}
}

// Close stops accepting new entries and drains the queue.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.queue) })
	<-r.done
}

func (r *Recorder) enqueue(ctx context.Context, job persistJob) {
	if r.store == nil {
		return
	}
	select {
	case r.queue <- job:
	default:
		LogEvent(ctx, "audit.queue_full", nil)
	}
}

// Activity records an action performed by an authenticated user.
func (r *Recorder) Activity(ctx context.Context, userID, activity, ip string) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return
	}
	LogEvent(ctx, "audit.activity", map[string]any{
		"user_id":  userID,
		"activity": activity,
		"ip":       ip,
	})
	entry := ActivityEntry{
		ID:        ids.New(),
		UserID:    userID,
		Activity:  activity,
		IP:        ip,
		Timestamp: r.now().UTC(),
	}
	r.enqueue(ctx, func(ctx context.Context) error {
		return r.store.AppendActivity(ctx, entry)
	})
}

// Security records a security-relevant event such as a honeypot hit or a
// failed login.
func (r *Recorder) Security(ctx context.Context, event, details, ip string) {
	event = strings.TrimSpace(event)
	if event == "" {
		return
	}
	LogEvent(ctx, "audit.security", map[string]any{
		"event":   event,
		"details": details,
		"ip":      ip,
	})
	entry := SecurityEntry{
		ID:        ids.New(),
		Event:     event,
		Details:   details,
		IP:        ip,
		Timestamp: r.now().UTC(),
	}
	r.enqueue(ctx, func(ctx context.Context) error {
		return r.store.AppendSecurity(ctx, entry)
	})
}
