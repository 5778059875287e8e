// Package store provides the in-memory toast store.
package store

import (
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/toasty/internal/clock"
	"github.com/jmylchreest/toasty/internal/model"
)

// DefaultLifetime is how long a toast lives before it expires.
const DefaultLifetime = 4000 * time.Millisecond

// Observer receives the full active set after every mutation.
type Observer func(model.Snapshot)

// RemoveReason says why a toast left the store.
type RemoveReason int

const (
	// RemoveReasonDismissed means Remove was called.
	RemoveReasonDismissed RemoveReason = iota
	// RemoveReasonExpired means the lifetime elapsed.
	RemoveReasonExpired
	// RemoveReasonCleared means Clear was called.
	RemoveReasonCleared
)

// String returns the string representation of RemoveReason.
func (r RemoveReason) String() string {
	switch r {
	case RemoveReasonDismissed:
		return "dismissed"
	case RemoveReasonExpired:
		return "expired"
	case RemoveReasonCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Recorder receives store events for instrumentation.
type Recorder interface {
	ToastCreated(kind model.Kind)
	ToastRemoved(kind model.Kind, reason RemoveReason)
	ObserverFailed()
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for timestamps and expiry timers.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLifetime sets how long toasts live. Non-positive values are ignored.
func WithLifetime(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the instrumentation hook.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

type subscription struct {
	fn      Observer
	removed atomic.Bool
}

// Store is the single owner of the active toast list and its observers.
// All methods are safe for concurrent use.
//
// Mutations are applied under the store lock and queue a snapshot. One
// flusher at a time delivers queued snapshots to observers in mutation
// order, outside the lock, so observers may call back into the store.
type Store struct {
	mu       sync.Mutex
	active   []model.Toast
	index    map[string]int
	timers   map[string]clock.Timer
	entropy  io.Reader
	lifetime time.Duration

	observers []*subscription
	pending   []delivery
	flushing  bool
	closed    bool

	clock    clock.Clock
	logger   *slog.Logger
	recorder Recorder
}

type delivery struct {
	snapshot  model.Snapshot
	observers []*subscription
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		active:   make([]model.Toast, 0),
		index:    make(map[string]int),
		timers:   make(map[string]clock.Timer),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		lifetime: DefaultLifetime,
		clock:    clock.Real(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a toast and schedules its expiry. It returns the new id.
// After Close, Create does nothing and returns an empty id.
func (s *Store) Create(message string, kind model.Kind) (string, error) {
	if !kind.Valid() {
		return "", model.ErrInvalidKind
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("toast dropped, store closed", "kind", kind)
		return "", nil
	}

	now := s.clock.Now()
	var id string
	for {
		var err error
		id, err = model.NewID(now, s.entropy)
		if err != nil {
			s.mu.Unlock()
			return "", err
		}
		if _, exists := s.index[id]; !exists {
			break
		}
	}

	s.index[id] = len(s.active)
	s.active = append(s.active, model.Toast{
		ID:        id,
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
	})
	lifetime := s.lifetime
	s.timers[id] = s.clock.AfterFunc(lifetime, func() {
		s.remove(id, RemoveReasonExpired)
	})
	s.queueLocked()
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.ToastCreated(kind)
	}
	s.logger.Debug("toast created", "id", id, "kind", kind, "lifetime", lifetime)

	s.flush()
	return id, nil
}

// Remove deletes the toast with the given id and notifies observers.
// Removing an unknown id is a no-op. It reports whether a toast was removed.
func (s *Store) Remove(id string) bool {
	return s.remove(id, RemoveReasonDismissed)
}

func (s *Store) remove(id string, reason RemoveReason) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	idx, exists := s.index[id]
	if !exists && reason == RemoveReasonExpired {
		// Lost the race with an explicit removal.
		s.mu.Unlock()
		return false
	}
	var removed model.Toast
	if exists {
		removed = s.active[idx]
		s.active = append(s.active[:idx], s.active[idx+1:]...)
		s.reindexLocked()
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
	}
	s.queueLocked()
	s.mu.Unlock()

	if exists {
		if s.recorder != nil {
			s.recorder.ToastRemoved(removed.Kind, reason)
		}
		s.logger.Debug("toast removed", "id", id, "kind", removed.Kind, "reason", reason)
	}

	s.flush()
	return exists
}

// Clear removes every toast.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	cleared := s.active
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.active = make([]model.Toast, 0)
	s.index = make(map[string]int)
	s.queueLocked()
	s.mu.Unlock()

	if s.recorder != nil {
		for _, t := range cleared {
			s.recorder.ToastRemoved(t.Kind, RemoveReasonCleared)
		}
	}
	s.logger.Debug("toasts cleared", "count", len(cleared))

	s.flush()
}

// Subscribe registers fn to receive a snapshot after every mutation.
// No initial snapshot is pushed; callers read Snapshot themselves.
// The returned function unsubscribes fn and is safe to call repeatedly.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	sub := &subscription{fn: fn}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	s.observers = append(s.observers, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.removed.Store(true)

			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.observers {
				if o == sub {
					s.observers = append(s.observers[:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Snapshot returns a copy of the active toasts, oldest first.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Snapshot(s.active).Clone()
}

// Get returns the toast with the given id.
func (s *Store) Get(id string) (model.Toast, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.index[id]
	if !exists {
		return model.Toast{}, false
	}
	return s.active[idx], true
}

// Count returns the number of active toasts.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Lifetime returns the lifetime applied to newly created toasts.
func (s *Store) Lifetime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifetime
}

// SetLifetime changes the lifetime for toasts created from now on.
// Pending expiries keep their original deadline.
func (s *Store) SetLifetime(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.lifetime = d
	s.mu.Unlock()
	s.logger.Debug("toast lifetime changed", "lifetime", d)
}

// Close cancels pending expiries and drops all observers. Later calls to
// Create, Remove and Clear are silent no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	for _, o := range s.observers {
		o.removed.Store(true)
	}
	s.observers = nil
	s.pending = nil

	return nil
}

// queueLocked records the current state for delivery. Caller must hold the lock.
func (s *Store) queueLocked() {
	if len(s.observers) == 0 {
		return
	}
	observers := make([]*subscription, len(s.observers))
	copy(observers, s.observers)
	s.pending = append(s.pending, delivery{
		snapshot:  model.Snapshot(s.active).Clone(),
		observers: observers,
	})
}

// flush delivers queued snapshots. If another call is already flushing,
// it will pick up anything queued here.
func (s *Store) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true

	for len(s.pending) > 0 {
		d := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		for _, o := range d.observers {
			if o.removed.Load() {
				continue
			}
			s.notify(o, d.snapshot.Clone())
		}

		s.mu.Lock()
	}

	s.flushing = false
	s.mu.Unlock()
}

// notify invokes one observer, isolating panics from the others.
func (s *Store) notify(o *subscription, snap model.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("observer panicked", "panic", r)
			if s.recorder != nil {
				s.recorder.ObserverFailed()
			}
		}
	}()
	o.fn(snap)
}

// reindexLocked rebuilds the id index. Caller must hold the lock.
func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.active))
	for i, t := range s.active {
		s.index[t.ID] = i
	}
}
