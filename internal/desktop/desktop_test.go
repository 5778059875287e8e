package desktop

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/clock"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
)

type call struct {
	method string
	args   []interface{}
}

// fakeDaemon records calls and hands out increasing notification ids.
type fakeDaemon struct {
	mu     sync.Mutex
	calls  []call
	nextID uint32
	fail   bool
}

func (f *fakeDaemon) Call(method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, args: args})

	if f.fail {
		return &dbus.Call{Err: errors.New("no daemon")}
	}
	if method == DBusInterface+".Notify" {
		f.nextID++
		return &dbus.Call{Body: []interface{}{f.nextID}}
	}
	return &dbus.Call{}
}

func (f *fakeDaemon) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.method
	}
	return out
}

func (f *fakeDaemon) callAt(i int) call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

const (
	notify = DBusInterface + ".Notify"
	closeN = DBusInterface + ".CloseNotification"
)

func newTestMirror(t *testing.T, opts ...Option) (*Mirror, *store.Store, *fakeDaemon, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	st := store.New(store.WithClock(fc))
	daemon := &fakeDaemon{}
	m := New(st, daemon, opts...)
	t.Cleanup(func() {
		m.Unmount()
		_ = st.Close()
	})
	return m, st, daemon, fc
}

func waitCalls(t *testing.T, d *fakeDaemon, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(d.methods()) == n }, 2*time.Second, 5*time.Millisecond)
}

func TestMirror_ShowsExistingToastsOnMount(t *testing.T) {
	m, st, daemon, _ := newTestMirror(t, WithAppName("demo"))
	_, err := st.Create("Saved", model.KindSuccess)
	require.NoError(t, err)

	require.NoError(t, m.Mount())
	waitCalls(t, daemon, 1)

	c := daemon.callAt(0)
	assert.Equal(t, notify, c.method)
	require.Len(t, c.args, 8)
	assert.Equal(t, "demo", c.args[0])
	assert.Equal(t, uint32(0), c.args[1])
	assert.Equal(t, "emblem-ok-symbolic", c.args[2])
	assert.Equal(t, "Success", c.args[3])
	assert.Equal(t, "Saved", c.args[4])
	assert.Equal(t, int32(4000), c.args[7])

	hints, ok := c.args[6].(map[string]dbus.Variant)
	require.True(t, ok)
	assert.Equal(t, model.KindSuccess.Urgency(), hints["urgency"].Value())
}

func TestMirror_ClosesWhenStoreRemoves(t *testing.T) {
	m, st, daemon, fc := newTestMirror(t)
	require.NoError(t, m.Mount())

	id, err := st.Create("bye", model.KindError)
	require.NoError(t, err)
	waitCalls(t, daemon, 1)
	require.Eventually(t, func() bool { return m.Shown() == 1 }, time.Second, 5*time.Millisecond)

	fc.Advance(store.DefaultLifetime)
	waitCalls(t, daemon, 2)
	assert.Equal(t, []string{notify, closeN}, daemon.methods())
	assert.Equal(t, []interface{}{uint32(1)}, daemon.callAt(1).args)
	assert.Zero(t, m.Shown())

	assert.False(t, st.Remove(id))
}

func TestMirror_UserDismissRemovesToast(t *testing.T) {
	m, st, daemon, _ := newTestMirror(t)
	require.NoError(t, m.Mount())

	_, err := st.Create("click me", model.KindInfo)
	require.NoError(t, err)
	waitCalls(t, daemon, 1)
	require.Eventually(t, func() bool { return m.Shown() == 1 }, time.Second, 5*time.Millisecond)

	m.HandleClosed(1, CloseReasonDismissed)
	assert.Zero(t, st.Count())

	// The toast left the store but the daemon already closed it.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{notify}, daemon.methods())
}

func TestMirror_DaemonExpiryKeepsToast(t *testing.T) {
	m, st, daemon, _ := newTestMirror(t)
	require.NoError(t, m.Mount())

	_, err := st.Create("still here", model.KindInfo)
	require.NoError(t, err)
	waitCalls(t, daemon, 1)
	require.Eventually(t, func() bool { return m.Shown() == 1 }, time.Second, 5*time.Millisecond)

	m.HandleClosed(1, CloseReasonExpired)
	assert.Equal(t, 1, st.Count())
	assert.Zero(t, m.Shown())

	m.HandleClosed(99, CloseReasonDismissed)
	assert.Equal(t, 1, st.Count())
}

func TestMirror_NotifyFailureIsLogged(t *testing.T) {
	m, st, daemon, _ := newTestMirror(t)
	daemon.fail = true
	require.NoError(t, m.Mount())

	_, err := st.Create("nowhere", model.KindWarning)
	require.NoError(t, err)
	waitCalls(t, daemon, 1)
	assert.Zero(t, m.Shown())
}

func TestMirror_MountTwice(t *testing.T) {
	m, _, _, _ := newTestMirror(t)
	require.NoError(t, m.Mount())
	assert.ErrorIs(t, m.Mount(), ErrMounted)
}

func TestMirror_UnmountStopsFollowing(t *testing.T) {
	m, st, daemon, _ := newTestMirror(t)
	require.NoError(t, m.Mount())
	m.Unmount()
	m.Unmount()

	_, err := st.Create("unseen", model.KindInfo)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, daemon.methods())

	require.NoError(t, m.Mount())
	waitCalls(t, daemon, 1)
}

func TestCloseReason_String(t *testing.T) {
	assert.Equal(t, "expired", CloseReasonExpired.String())
	assert.Equal(t, "dismissed", CloseReasonDismissed.String())
	assert.Equal(t, "closed", CloseReasonClosed.String())
	assert.Equal(t, "undefined", CloseReasonUndefined.String())
	assert.Equal(t, "unknown", CloseReason(9).String())
}
