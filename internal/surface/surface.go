// Package surface renders the store's toasts with a two-stage dismissal.
//
// A mounted Surface mirrors the store's snapshot. Each toast it sees
// starts a display timer; when that fires the toast enters the closing
// phase, and only after the exit delay is it removed from the store.
package surface

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toasty/internal/clock"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
)

// DefaultExitDelay is how long a toast stays in the closing phase before
// it is removed from the store.
const DefaultExitDelay = 300 * time.Millisecond

// DefaultDisplayDuration is how long a toast is shown before closing.
// It ends the exit transition exactly when the store would expire it.
const DefaultDisplayDuration = store.DefaultLifetime - DefaultExitDelay

// ErrMounted is returned by Mount when the surface is already mounted.
var ErrMounted = errors.New("surface already mounted")

// Source is the part of the store a surface depends on.
type Source interface {
	Snapshot() model.Snapshot
	Subscribe(fn store.Observer) func()
	Remove(id string) bool
}

// Phase is the presentation state of a single toast.
type Phase int

const (
	// PhaseActive means the toast is fully shown.
	PhaseActive Phase = iota
	// PhaseClosing means the exit transition is running.
	PhaseClosing
	// PhaseRemoved means removal from the store has been requested.
	PhaseRemoved
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseClosing:
		return "closing"
	case PhaseRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Item is a toast together with its presentation state.
type Item struct {
	Toast model.Toast
	Phase Phase
	// Deadline is when the current phase ends.
	Deadline time.Time
}

type entry struct {
	toast    model.Toast
	phase    Phase
	deadline time.Time
	timer    clock.Timer
}

// Option configures a Surface.
type Option func(*Surface)

// WithClock sets the clock driving the display and exit timers.
func WithClock(c clock.Clock) Option {
	return func(s *Surface) { s.clock = c }
}

// WithDisplayDuration sets how long each toast is shown before closing.
func WithDisplayDuration(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.displayDuration = d
		}
	}
}

// WithExitDelay sets the closing phase length.
func WithExitDelay(d time.Duration) Option {
	return func(s *Surface) {
		if d >= 0 {
			s.exitDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.logger = l
		}
	}
}

// Surface is a display surface bound to a Source.
type Surface struct {
	src             Source
	clock           clock.Clock
	logger          *slog.Logger
	displayDuration time.Duration
	exitDelay       time.Duration

	mu          sync.Mutex
	mounted     bool
	order       []string
	entries     map[string]*entry
	unsubscribe func()
	changes     chan struct{}
}

// New creates an unmounted Surface.
func New(src Source, opts ...Option) *Surface {
	s := &Surface{
		src:             src,
		clock:           clock.Real(),
		logger:          slog.Default(),
		displayDuration: DefaultDisplayDuration,
		exitDelay:       DefaultExitDelay,
		entries:         make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount reads the current snapshot and subscribes for updates.
func (s *Surface) Mount() error {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return ErrMounted
	}
	s.mounted = true
	s.changes = make(chan struct{}, 1)
	s.mu.Unlock()

	s.apply(s.src.Snapshot())
	unsub := s.src.Subscribe(s.apply)

	s.mu.Lock()
	if !s.mounted {
		// Unmounted while subscribing.
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.unsubscribe = unsub
	s.mu.Unlock()

	s.logger.Debug("surface mounted")
	return nil
}

// Unmount unsubscribes from the store and cancels every pending timer.
// It is safe to call on an unmounted surface.
func (s *Surface) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false

	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	s.entries = make(map[string]*entry)
	s.order = nil

	unsub := s.unsubscribe
	s.unsubscribe = nil
	close(s.changes)
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.logger.Debug("surface unmounted")
}

// Mounted reports whether the surface is mounted.
func (s *Surface) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Changes returns a channel that receives a value whenever the rendered
// items change. The channel is closed on Unmount. Before Mount it is nil.
func (s *Surface) Changes() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes
}

// Items returns the rendered toasts in store order.
func (s *Surface) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		items = append(items, Item{Toast: e.toast, Phase: e.phase, Deadline: e.deadline})
	}
	return items
}

// Dismiss starts the exit transition for id immediately.
// It reports false if the toast is unknown or already closing.
func (s *Surface) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.phase != PhaseActive {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	s.closeLocked(id, e)
	return true
}

// apply reconciles the rendered items with a store snapshot.
func (s *Surface) apply(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return
	}

	present := make(map[string]struct{}, len(snap))
	order := make([]string, 0, len(snap))
	changed := false

	for _, t := range snap {
		present[t.ID] = struct{}{}
		order = append(order, t.ID)
		if _, ok := s.entries[t.ID]; ok {
			continue
		}

		e := &entry{
			toast:    t,
			phase:    PhaseActive,
			deadline: s.clock.Now().Add(s.displayDuration),
		}
		id := t.ID
		e.timer = s.clock.AfterFunc(s.displayDuration, func() { s.expire(id, e) })
		s.entries[id] = e
		changed = true
	}

	for id, e := range s.entries {
		if _, ok := present[id]; ok {
			continue
		}
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.entries, id)
		changed = true
	}

	s.order = order
	if changed {
		s.signalLocked()
	}
}

func (s *Surface) expire(id string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[id] != e || e.phase != PhaseActive {
		return
	}
	s.closeLocked(id, e)
}

// closeLocked moves e into the closing phase. Caller must hold the lock.
func (s *Surface) closeLocked(id string, e *entry) {
	e.phase = PhaseClosing
	e.deadline = s.clock.Now().Add(s.exitDelay)
	e.timer = s.clock.AfterFunc(s.exitDelay, func() { s.finish(id, e) })
	s.logger.Debug("toast closing", "id", id)
	s.signalLocked()
}

func (s *Surface) finish(id string, e *entry) {
	s.mu.Lock()
	if s.entries[id] != e || e.phase != PhaseClosing {
		s.mu.Unlock()
		return
	}
	e.phase = PhaseRemoved
	e.timer = nil
	s.mu.Unlock()

	// The store notifies synchronously, which re-enters apply.
	s.src.Remove(id)
}

func (s *Surface) signalLocked() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
