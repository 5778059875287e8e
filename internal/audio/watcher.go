package audio

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher drops a sound from the player's cache when its file changes,
// so an edited sound is picked up without a restart.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	player  *Player
	watcher *fsnotify.Watcher
	paths   map[string]struct{}
	dirs    map[string]struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher for player's sound files.
func NewWatcher(player *Player, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		logger:  logger,
		player:  player,
		watcher: fw,
		paths:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch starts tracking path. The parent directory is watched so
// editors that replace the file are handled.
func (w *Watcher) Watch(path string) error {
	if path == "" {
		return nil
	}
	path = filepath.Clean(expandPath(path))
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.paths[path] = struct{}{}
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(event.Name)

			w.mu.Lock()
			_, tracked := w.paths[path]
			w.mu.Unlock()
			if !tracked {
				continue
			}

			w.logger.Debug("sound file changed, invalidating cache", "path", path)
			w.player.Invalidate(path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)
		}
	}
}
