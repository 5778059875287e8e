// Package desktop mirrors live toasts to the freedesktop.org notification
// daemon over D-Bus, and removes toasts the user dismisses there.
package desktop

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the notification daemon's bus name.
	DBusBusName = "org.freedesktop.Notifications"
)

// ErrMounted is returned by Mount on an already mounted mirror.
var ErrMounted = errors.New("desktop mirror already mounted")

// CloseReason is the reason carried by the NotificationClosed signal.
type CloseReason uint32

const (
	CloseReasonExpired   CloseReason = 1
	CloseReasonDismissed CloseReason = 2
	CloseReasonClosed    CloseReason = 3
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Caller is the part of a D-Bus object the mirror calls into.
// *dbus.Object satisfies it.
type Caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Source is the toast store the mirror follows.
type Source interface {
	Snapshot() model.Snapshot
	Subscribe(fn store.Observer) func()
	Remove(id string) bool
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithAppName sets the application name shown by the daemon.
func WithAppName(name string) Option {
	return func(m *Mirror) {
		if name != "" {
			m.appName = name
		}
	}
}

// WithExpireTimeout sets how long the daemon should show each
// notification. Zero leaves it to the daemon.
func WithExpireTimeout(d time.Duration) Option {
	return func(m *Mirror) {
		m.expire = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// Mirror shows each toast as a desktop notification for as long as it
// lives in the store.
type Mirror struct {
	src     Source
	obj     Caller
	logger  *slog.Logger
	appName string
	expire  time.Duration

	mu       sync.Mutex
	mounted  bool
	unsub    func()
	pending  model.Snapshot
	hasNext  bool
	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	byToast  map[string]uint32
	byNotify map[uint32]string
}

// New creates a mirror that calls obj for every toast in src.
func New(src Source, obj Caller, opts ...Option) *Mirror {
	m := &Mirror{
		src:      src,
		obj:      obj,
		logger:   slog.Default(),
		appName:  "toasty",
		expire:   store.DefaultLifetime,
		byToast:  make(map[string]uint32),
		byNotify: make(map[uint32]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mount shows the toasts already in the store and starts following it.
func (m *Mirror) Mount() error {
	m.mu.Lock()
	if m.mounted {
		m.mu.Unlock()
		return ErrMounted
	}
	m.mounted = true
	m.wake = make(chan struct{}, 1)
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(m.wake, m.stop, m.done)

	m.enqueue(m.src.Snapshot())
	unsub := m.src.Subscribe(m.enqueue)

	m.mu.Lock()
	m.unsub = unsub
	m.mu.Unlock()
	return nil
}

// Unmount stops following the store and waits for in-flight calls.
// Notifications already on screen are left to expire.
func (m *Mirror) Unmount() {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return
	}
	m.mounted = false
	unsub := m.unsub
	m.unsub = nil
	stop, done := m.stop, m.done
	m.pending = nil
	m.hasNext = false
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	close(stop)
	<-done
}

// Shown returns the number of notifications currently on screen.
func (m *Mirror) Shown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToast)
}

// enqueue keeps only the newest snapshot; the worker always catches up
// to the latest state.
func (m *Mirror) enqueue(snap model.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mounted {
		return
	}
	m.pending = snap
	m.hasNext = true
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Mirror) run(wake <-chan struct{}, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var prev model.Snapshot
	for {
		select {
		case <-stop:
			return
		case <-wake:
		}

		m.mu.Lock()
		next, ok := m.pending, m.hasNext
		m.pending, m.hasNext = nil, false
		m.mu.Unlock()
		if !ok {
			continue
		}

		added, removed := model.Diff(prev, next)
		for _, t := range removed {
			m.close(t.ID)
		}
		for _, t := range added {
			m.notify(t)
		}
		prev = next
	}
}

func (m *Mirror) notify(t model.Toast) {
	hints := map[string]dbus.Variant{
		"urgency":  dbus.MakeVariant(t.Kind.Urgency()),
		"category": dbus.MakeVariant("toasty." + t.Kind.String()),
	}

	var id uint32
	call := m.obj.Call(DBusInterface+".Notify", 0,
		m.appName,
		uint32(0),
		iconForKind(t.Kind),
		t.Title(),
		t.Message,
		[]string{},
		hints,
		int32(m.expire.Milliseconds()),
	)
	if err := call.Store(&id); err != nil {
		m.logger.Warn("failed to send desktop notification", "toast", t.ID, "error", err)
		return
	}

	m.mu.Lock()
	m.byToast[t.ID] = id
	m.byNotify[id] = t.ID
	m.mu.Unlock()
	m.logger.Debug("desktop notification shown", "toast", t.ID, "notification", id)
}

func (m *Mirror) close(toastID string) {
	m.mu.Lock()
	id, ok := m.byToast[toastID]
	if ok {
		delete(m.byToast, toastID)
		delete(m.byNotify, id)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if call := m.obj.Call(DBusInterface+".CloseNotification", 0, id); call.Err != nil {
		m.logger.Debug("failed to close desktop notification", "notification", id, "error", call.Err)
	}
}

// HandleClosed reacts to a NotificationClosed signal. A notification the
// user dismissed removes its toast from the store.
func (m *Mirror) HandleClosed(id uint32, reason CloseReason) {
	m.mu.Lock()
	toastID, ok := m.byNotify[id]
	if ok {
		delete(m.byNotify, id)
		delete(m.byToast, toastID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.logger.Debug("desktop notification closed", "notification", id, "toast", toastID, "reason", reason.String())
	if reason == CloseReasonDismissed {
		m.src.Remove(toastID)
	}
}

// Listen forwards NotificationClosed signals from conn to the mirror
// until stop is closed.
func (m *Mirror) Listen(conn *dbus.Conn, stop <-chan struct{}) error {
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(DBusInterface),
		dbus.WithMatchMember("NotificationClosed"),
	); err != nil {
		return fmt.Errorf("failed to add signal match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	go func() {
		defer conn.RemoveSignal(signals)
		for {
			select {
			case <-stop:
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Name != DBusInterface+".NotificationClosed" || len(sig.Body) != 2 {
					continue
				}
				id, ok1 := sig.Body[0].(uint32)
				reason, ok2 := sig.Body[1].(uint32)
				if !ok1 || !ok2 {
					m.logger.Warn("malformed NotificationClosed signal", "body", sig.Body)
					continue
				}
				m.HandleClosed(id, CloseReason(reason))
			}
		}
	}()
	return nil
}

// Connect opens the session bus and returns the notification daemon object.
func Connect() (*dbus.Conn, Caller, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return conn, conn.Object(DBusBusName, DBusPath), nil
}

func iconForKind(k model.Kind) string {
	switch k {
	case model.KindSuccess:
		return "emblem-ok-symbolic"
	case model.KindError:
		return "dialog-error"
	case model.KindWarning:
		return "dialog-warning"
	default:
		return "dialog-information"
	}
}
