package main

import (
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toasty/internal/audio"
	"github.com/jmylchreest/toasty/internal/config"
	"github.com/jmylchreest/toasty/internal/desktop"
	"github.com/jmylchreest/toasty/internal/metrics"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
	"github.com/jmylchreest/toasty/internal/theme"
)

// runtime owns the process's single toast store and the surfaces that
// are not tied to a particular command.
type runtime struct {
	logger  *slog.Logger
	store   *store.Store
	metrics *metrics.Metrics
	themes  *theme.Manager

	mirror   *desktop.Mirror
	dbusConn *dbus.Conn

	player       *audio.Player
	chime        *audio.Chime
	soundWatcher *audio.Watcher

	configWatcher *config.Watcher

	stop      chan struct{}
	closeOnce sync.Once
}

func newRuntime(c *config.Config, logger *slog.Logger) (*runtime, error) {
	m := metrics.New()
	rt := &runtime{
		logger:  logger,
		metrics: m,
		stop:    make(chan struct{}),
		store: store.New(
			store.WithLifetime(c.Toasts.Lifetime.Duration()),
			store.WithLogger(logger),
			store.WithRecorder(m),
		),
	}

	themes, err := theme.NewManager(config.PalettesDir(), logger)
	if err != nil {
		_ = rt.store.Close()
		return nil, err
	}
	themes.Set(c.Theme.Palette)
	rt.themes = themes

	if c.Desktop.Enabled {
		rt.startDesktop(c)
	}
	if c.Audio.Enabled {
		rt.startAudio(c)
	}
	rt.watchConfig()

	return rt, nil
}

func (rt *runtime) startDesktop(c *config.Config) {
	conn, obj, err := desktop.Connect()
	if err != nil {
		rt.logger.Warn("desktop notifications unavailable", "error", err)
		return
	}

	mirror := desktop.New(rt.store, obj,
		desktop.WithAppName(c.Desktop.AppName),
		desktop.WithExpireTimeout(c.Toasts.Lifetime.Duration()),
		desktop.WithLogger(rt.logger),
	)
	if err := mirror.Mount(); err != nil {
		rt.logger.Warn("failed to mount desktop mirror", "error", err)
		_ = conn.Close()
		return
	}
	if err := mirror.Listen(conn, rt.stop); err != nil {
		rt.logger.Warn("desktop dismissals will not be followed", "error", err)
	}

	rt.mirror = mirror
	rt.dbusConn = conn
	rt.logger.Info("desktop mirror started", "app_name", c.Desktop.AppName)
}

func (rt *runtime) startAudio(c *config.Config) {
	rt.player = audio.NewPlayer(audio.WithPlayerLogger(rt.logger))
	rt.player.SetVolume(float64(c.Audio.Volume) / 100)

	rt.chime = audio.NewChime(rt.store, rt.player, soundsFromConfig(c), rt.logger)
	if err := rt.chime.Mount(); err != nil {
		rt.logger.Warn("failed to mount chime", "error", err)
		rt.chime = nil
		return
	}

	w, err := audio.NewWatcher(rt.player, rt.logger)
	if err != nil {
		rt.logger.Warn("sound files will not be watched", "error", err)
		return
	}
	for _, path := range soundsFromConfig(c) {
		if err := w.Watch(path); err != nil {
			rt.logger.Debug("failed to watch sound file", "path", path, "error", err)
		}
	}
	rt.soundWatcher = w
}

func (rt *runtime) watchConfig() {
	w, err := config.NewWatcher(globalOpts.configPath, rt.applyConfig, rt.logger)
	if err != nil {
		rt.logger.Warn("config changes will not be picked up", "error", err)
		return
	}
	if err := w.Start(); err != nil {
		rt.logger.Debug("failed to watch config file", "error", err)
		return
	}
	rt.configWatcher = w
}

// applyConfig applies a reloaded config. A new lifetime only affects
// toasts created afterwards.
func (rt *runtime) applyConfig(c *config.Config) {
	rt.store.SetLifetime(c.Toasts.Lifetime.Duration())
	if err := rt.themes.Reload(); err != nil {
		rt.logger.Warn("failed to reload palettes", "error", err)
	}
	rt.themes.Set(c.Theme.Palette)

	if rt.chime != nil {
		rt.player.SetVolume(float64(c.Audio.Volume) / 100)
		rt.chime.SetSounds(soundsFromConfig(c))
	}
	rt.logger.Info("config reloaded", "lifetime", c.Toasts.Lifetime.Duration(), "palette", c.Theme.Palette)
}

// Close unmounts every surface and closes the store.
func (rt *runtime) Close() {
	rt.closeOnce.Do(func() {
		close(rt.stop)

		if rt.configWatcher != nil {
			_ = rt.configWatcher.Stop()
		}
		if rt.mirror != nil {
			rt.mirror.Unmount()
			_ = rt.dbusConn.Close()
		}
		if rt.chime != nil {
			rt.chime.Unmount()
		}
		if rt.soundWatcher != nil {
			_ = rt.soundWatcher.Stop()
		}
		if rt.player != nil {
			rt.player.Close()
		}
		_ = rt.store.Close()
	})
}

func soundsFromConfig(c *config.Config) map[model.Kind]string {
	sounds := make(map[model.Kind]string, len(model.Kinds))
	for _, k := range model.Kinds {
		if path := c.SoundForKind(k); path != "" {
			sounds[k] = path
		}
	}
	return sounds
}
