package audio

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
)

// ErrMounted is returned by Mount on an already mounted chime.
var ErrMounted = errors.New("chime already mounted")

// Source is the toast store the chime follows.
type Source interface {
	Snapshot() model.Snapshot
	Subscribe(fn store.Observer) func()
}

// Sounder plays a sound file. *Player satisfies it.
type Sounder interface {
	Play(path string) error
}

// Chime plays the configured sound whenever a toast appears. Toasts
// already present at mount are silent.
type Chime struct {
	src    Source
	player Sounder
	logger *slog.Logger

	mu      sync.Mutex
	sounds  map[model.Kind]string
	mounted bool
	unsub   func()
	queue   chan model.Snapshot
	done    chan struct{}
}

// NewChime creates a chime playing sounds[kind] through player.
func NewChime(src Source, player Sounder, sounds map[model.Kind]string, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chime{src: src, player: player, logger: logger}
	c.SetSounds(sounds)
	return c
}

// SetSounds replaces the kind to sound mapping.
func (c *Chime) SetSounds(sounds map[model.Kind]string) {
	copied := make(map[model.Kind]string, len(sounds))
	for k, v := range sounds {
		if v != "" {
			copied[k] = v
		}
	}

	c.mu.Lock()
	c.sounds = copied
	c.mu.Unlock()

	if p, ok := c.player.(interface{ Preload(string) error }); ok {
		for k, path := range copied {
			if err := p.Preload(path); err != nil {
				c.logger.Warn("failed to preload sound", "kind", k, "path", path, "error", err)
			}
		}
	}
}

// Mount starts following the store.
func (c *Chime) Mount() error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return ErrMounted
	}
	c.mounted = true
	queue := make(chan model.Snapshot, 16)
	done := make(chan struct{})
	c.queue, c.done = queue, done
	c.mu.Unlock()

	go c.run(c.src.Snapshot(), queue, done)

	unsub := c.src.Subscribe(func(snap model.Snapshot) {
		select {
		case queue <- snap:
		default:
			// A later snapshot still carries the new toasts.
		}
	})

	c.mu.Lock()
	c.unsub = unsub
	c.mu.Unlock()
	return nil
}

// Unmount stops following the store.
func (c *Chime) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	unsub, queue, done := c.unsub, c.queue, c.done
	c.unsub = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	close(queue)
	<-done
}

func (c *Chime) run(prev model.Snapshot, queue <-chan model.Snapshot, done chan<- struct{}) {
	defer close(done)

	for next := range queue {
		added, _ := model.Diff(prev, next)
		prev = next
		if len(added) == 0 {
			continue
		}

		// One sound per batch, for the newest toast.
		kind := added[len(added)-1].Kind
		c.mu.Lock()
		path, ok := c.sounds[kind]
		c.mu.Unlock()
		if !ok {
			continue
		}
		if err := c.player.Play(path); err != nil {
			c.logger.Debug("failed to play chime", "kind", kind, "error", err)
		}
	}
}
