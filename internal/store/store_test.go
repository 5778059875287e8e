package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/clock"
	"github.com/jmylchreest/toasty/internal/model"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(opts ...Option) (*Store, *clock.Fake) {
	c := clock.NewFake(epoch)
	s := New(append([]Option{WithClock(c)}, opts...)...)
	return s, c
}

type recorded struct {
	mu       sync.Mutex
	created  []model.Kind
	removed  []RemoveReason
	failures int
}

func (r *recorded) ToastCreated(kind model.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, kind)
}

func (r *recorded) ToastRemoved(_ model.Kind, reason RemoveReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, reason)
}

func (r *recorded) ObserverFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func TestNew(t *testing.T) {
	s := New()
	defer s.Close()

	assert.Equal(t, 0, s.Count())
	assert.Equal(t, DefaultLifetime, s.Lifetime())
	assert.NotNil(t, s.Snapshot())
}

func TestStore_Create(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	id, err := s.Create("Saved", model.KindSuccess)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	toast, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Saved", toast.Message)
	assert.Equal(t, model.KindSuccess, toast.Kind)
	assert.Equal(t, epoch, toast.CreatedAt)
}

func TestStore_Create_InvalidKind(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	id, err := s.Create("nope", model.Kind("fatal"))
	assert.ErrorIs(t, err, model.ErrInvalidKind)
	assert.Empty(t, id)
	assert.Equal(t, 0, s.Count())
}

func TestStore_Create_UniqueIDs(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id, err := s.Create("x", model.KindInfo)
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Equal(t, 200, s.Count())
}

func TestStore_Create_NotifiesWithAppendedSnapshot(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	var got []model.Snapshot
	s.Subscribe(func(snap model.Snapshot) { got = append(got, snap) })

	a, _ := s.Create("a", model.KindInfo)
	b, _ := s.Create("b", model.KindWarning)

	require.Len(t, got, 2)
	assert.Equal(t, []string{a}, got[0].IDs())
	assert.Equal(t, []string{a, b}, got[1].IDs())
}

func TestStore_Subscribe_NoInitialPush(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	_, _ = s.Create("existing", model.KindInfo)

	calls := 0
	s.Subscribe(func(model.Snapshot) { calls++ })
	assert.Equal(t, 0, calls)
}

func TestStore_RemoveTwice(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	a, _ := s.Create("A", model.KindInfo)
	b, _ := s.Create("B", model.KindInfo)
	assert.Equal(t, []string{a, b}, s.Snapshot().IDs())

	assert.True(t, s.Remove(a))
	assert.Equal(t, []string{b}, s.Snapshot().IDs())

	assert.False(t, s.Remove(a))
	assert.Equal(t, []string{b}, s.Snapshot().IDs())
}

func TestStore_Remove_UnknownStillNotifies(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	b, _ := s.Create("B", model.KindInfo)

	var got []model.Snapshot
	s.Subscribe(func(snap model.Snapshot) { got = append(got, snap) })

	assert.False(t, s.Remove("missing"))
	require.Len(t, got, 1)
	assert.Equal(t, []string{b}, got[0].IDs())
}

func TestStore_Expiry(t *testing.T) {
	s, c := newTestStore()
	defer s.Close()

	id, err := s.Create("Saved", model.KindSuccess)
	require.NoError(t, err)

	var last model.Snapshot
	s.Subscribe(func(snap model.Snapshot) { last = snap })

	c.Advance(DefaultLifetime - time.Millisecond)
	_, ok := s.Get(id)
	assert.True(t, ok, "present just before expiry")

	c.Advance(2 * time.Millisecond)
	_, ok = s.Get(id)
	assert.False(t, ok, "absent just after expiry")
	assert.NotNil(t, last)
	assert.Empty(t, last)
}

func TestStore_Expiry_Independent(t *testing.T) {
	s, c := newTestStore()
	defer s.Close()

	a, _ := s.Create("A", model.KindInfo)
	c.Advance(time.Second)
	b, _ := s.Create("B", model.KindInfo)

	c.Advance(3 * time.Second)
	assert.Equal(t, []string{b}, s.Snapshot().IDs())
	assert.False(t, s.Remove(a))

	c.Advance(time.Second)
	assert.Empty(t, s.Snapshot())
}

func TestStore_Remove_CancelsExpiry(t *testing.T) {
	s, c := newTestStore()
	defer s.Close()

	id, _ := s.Create("A", model.KindInfo)
	assert.Equal(t, 1, c.Pending())

	s.Remove(id)
	assert.Equal(t, 0, c.Pending())

	calls := 0
	s.Subscribe(func(model.Snapshot) { calls++ })
	c.Advance(DefaultLifetime * 2)
	assert.Equal(t, 0, calls)
}

func TestStore_WithLifetime(t *testing.T) {
	s, c := newTestStore(WithLifetime(time.Second))
	defer s.Close()

	_, _ = s.Create("short", model.KindInfo)
	c.Advance(time.Second)
	assert.Equal(t, 0, s.Count())

	s.SetLifetime(2 * time.Second)
	s.SetLifetime(0)
	assert.Equal(t, 2*time.Second, s.Lifetime())
}

func TestStore_Clear(t *testing.T) {
	rec := &recorded{}
	s, c := newTestStore(WithRecorder(rec))
	defer s.Close()

	_, _ = s.Create("A", model.KindInfo)
	_, _ = s.Create("B", model.KindError)

	var last model.Snapshot
	s.Subscribe(func(snap model.Snapshot) { last = snap })

	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, last)
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, []RemoveReason{RemoveReasonCleared, RemoveReasonCleared}, rec.removed)
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	var first, second int
	unsubFirst := s.Subscribe(func(model.Snapshot) { first++ })
	s.Subscribe(func(model.Snapshot) { second++ })

	_, _ = s.Create("one", model.KindInfo)
	unsubFirst()
	unsubFirst()
	_, _ = s.Create("two", model.KindInfo)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second, "other observer must stay registered")
}

func TestStore_Unsubscribe_SameFunctionTwice(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	calls := 0
	fn := func(model.Snapshot) { calls++ }
	unsub1 := s.Subscribe(fn)
	s.Subscribe(fn)

	unsub1()
	unsub1()
	_, _ = s.Create("x", model.KindInfo)
	assert.Equal(t, 1, calls)
}

func TestStore_Unsubscribe_DuringDelivery(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	calls := 0
	var unsubLater func()
	s.Subscribe(func(model.Snapshot) { unsubLater() })
	unsubLater = s.Subscribe(func(model.Snapshot) { calls++ })

	_, _ = s.Create("x", model.KindInfo)
	_, _ = s.Create("y", model.KindInfo)
	assert.Equal(t, 0, calls)
}

func TestStore_ObserverOrder(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	var order []int
	for i := 0; i < 4; i++ {
		s.Subscribe(func(model.Snapshot) { order = append(order, i) })
	}

	_, _ = s.Create("x", model.KindInfo)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestStore_ObserverPanicIsolated(t *testing.T) {
	rec := &recorded{}
	s, _ := newTestStore(WithRecorder(rec))
	defer s.Close()

	var got model.Snapshot
	s.Subscribe(func(model.Snapshot) { panic("boom") })
	s.Subscribe(func(snap model.Snapshot) { got = snap })

	id, err := s.Create("x", model.KindInfo)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, got.IDs())
	assert.Equal(t, 1, rec.failures)

	_, ok := s.Get(id)
	assert.True(t, ok)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	var got []model.Snapshot
	s.Subscribe(func(snap model.Snapshot) {
		if len(snap) > 0 {
			snap[0].Message = "tampered"
		}
		got = append(got, snap)
	})
	s.Subscribe(func(snap model.Snapshot) { got = append(got, snap) })

	id, _ := s.Create("original", model.KindInfo)

	require.Len(t, got, 2)
	assert.Equal(t, "original", got[1][0].Message)
	toast, _ := s.Get(id)
	assert.Equal(t, "original", toast.Message)
}

func TestStore_ReentrantObserver(t *testing.T) {
	s, _ := newTestStore()
	defer s.Close()

	var seen [][]string
	s.Subscribe(func(snap model.Snapshot) {
		seen = append(seen, snap.IDs())
		if len(snap) == 1 {
			s.Remove(snap[0].ID)
		}
	})

	id, err := s.Create("bounce", model.KindInfo)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, []string{id}, seen[0])
	assert.Empty(t, seen[1])
	assert.Equal(t, 0, s.Count())
}

func TestStore_Close(t *testing.T) {
	s, c := newTestStore()

	_, _ = s.Create("pending", model.KindInfo)
	calls := 0
	s.Subscribe(func(model.Snapshot) { calls++ })

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 0, c.Pending())

	id, err := s.Create("late", model.KindInfo)
	assert.NoError(t, err)
	assert.Empty(t, id)
	assert.False(t, s.Remove("anything"))
	s.Clear()

	unsub := s.Subscribe(func(model.Snapshot) { calls++ })
	unsub()
	assert.Equal(t, 0, calls)
}

func TestStore_Recorder(t *testing.T) {
	rec := &recorded{}
	s, c := newTestStore(WithRecorder(rec))
	defer s.Close()

	a, _ := s.Create("a", model.KindSuccess)
	_, _ = s.Create("b", model.KindError)
	s.Remove(a)
	s.Remove(a)
	c.Advance(DefaultLifetime)

	assert.Equal(t, []model.Kind{model.KindSuccess, model.KindError}, rec.created)
	assert.Equal(t, []RemoveReason{RemoveReasonDismissed, RemoveReasonExpired}, rec.removed)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s := New(WithLifetime(time.Hour))
	defer s.Close()

	var mu sync.Mutex
	var lens []int
	s.Subscribe(func(snap model.Snapshot) {
		mu.Lock()
		lens = append(lens, len(snap))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				id, err := s.Create("x", model.KindInfo)
				if err == nil && j%2 == 0 {
					s.Remove(id)
				}
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, lens, 8*25+8*13)
	assert.Equal(t, 8*12, s.Count())
	assert.Equal(t, s.Count(), lens[len(lens)-1])
}

func TestRemoveReason_String(t *testing.T) {
	assert.Equal(t, "dismissed", RemoveReasonDismissed.String())
	assert.Equal(t, "expired", RemoveReasonExpired.String())
	assert.Equal(t, "cleared", RemoveReasonCleared.String())
	assert.Equal(t, "unknown", RemoveReason(99).String())
}
