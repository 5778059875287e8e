// Package carousel implements a timer-driven rotating index.
package carousel

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toasty/internal/clock"
)

// DefaultInterval is the auto-advance period.
const DefaultInterval = 3 * time.Second

var (
	// ErrEmpty is returned when creating a carousel with no slides.
	ErrEmpty = errors.New("carousel needs at least one slide")
	// ErrIndexOutOfRange is returned by GoTo for an invalid index.
	ErrIndexOutOfRange = errors.New("slide index out of range")
)

// ChangeHandler is called with the new index after every move.
type ChangeHandler func(index int)

// Option configures a Carousel.
type Option func(*Carousel)

// WithInterval sets the auto-advance period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(c *Carousel) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock sets the clock driving auto-advance.
func WithClock(clk clock.Clock) Option {
	return func(c *Carousel) { c.clock = clk }
}

// WithChangeHandler sets a callback run after the index changes.
// It is called without the carousel lock held.
func WithChangeHandler(fn ChangeHandler) Option {
	return func(c *Carousel) { c.onChange = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Carousel) {
		if l != nil {
			c.logger = l
		}
	}
}

// Carousel rotates through n slides. Every move, automatic or manual,
// restarts the countdown to the next automatic advance.
type Carousel struct {
	mu       sync.Mutex
	n        int
	index    int
	interval time.Duration
	running  bool
	timer    clock.Timer
	gen      uint64

	clock    clock.Clock
	logger   *slog.Logger
	onChange ChangeHandler
}

// New creates a stopped carousel over n slides.
func New(n int, opts ...Option) (*Carousel, error) {
	if n <= 0 {
		return nil, ErrEmpty
	}
	c := &Carousel{
		n:        n,
		interval: DefaultInterval,
		clock:    clock.Real(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start begins auto-advancing. Calling Start on a running carousel is a no-op.
func (c *Carousel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.scheduleLocked()
}

// Stop cancels the pending advance. The current index is kept.
func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Running reports whether auto-advance is active.
func (c *Carousel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Index returns the current slide.
func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Len returns the number of slides.
func (c *Carousel) Len() int {
	return c.n
}

// Interval returns the auto-advance period.
func (c *Carousel) Interval() time.Duration {
	return c.interval
}

// Next moves forward one slide, wrapping to the first.
func (c *Carousel) Next() int {
	return c.move(func(i int) int { return (i + 1) % c.n })
}

// Prev moves back one slide, wrapping to the last.
func (c *Carousel) Prev() int {
	return c.move(func(i int) int { return (i - 1 + c.n) % c.n })
}

// GoTo jumps to slide i.
func (c *Carousel) GoTo(i int) error {
	if i < 0 || i >= c.n {
		return ErrIndexOutOfRange
	}
	c.move(func(int) int { return i })
	return nil
}

func (c *Carousel) move(step func(int) int) int {
	c.mu.Lock()
	c.index = step(c.index)
	idx := c.index
	if c.running {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	c.logger.Debug("carousel moved", "index", idx)
	if c.onChange != nil {
		c.onChange(idx)
	}
	return idx
}

// scheduleLocked replaces the pending advance. Caller must hold the lock.
func (c *Carousel) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.interval, func() { c.advance(gen) })
}

func (c *Carousel) advance(gen uint64) {
	c.mu.Lock()
	stale := gen != c.gen || !c.running
	c.mu.Unlock()
	if stale {
		return
	}
	c.Next()
}
