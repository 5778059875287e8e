package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/server"
	"github.com/jmylchreest/toasty/internal/store"
)

func newTestClient(t *testing.T) (*Client, *store.Store) {
	t.Helper()
	st := store.New(store.WithLifetime(time.Minute))
	ts := httptest.NewServer(server.New(st, server.Options{}).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = st.Close()
	})

	c, err := New(ts.URL)
	require.NoError(t, err)
	return c, st
}

func TestNew(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"127.0.0.1:7878", "http://127.0.0.1:7878", false},
		{"https://toasts.example.com", "https://toasts.example.com", false},
		{"http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := New(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.baseURL.String())
		})
	}
}

func TestClient_CreateListDismiss(t *testing.T) {
	c, st := newTestClient(t)
	ctx := context.Background()

	id, err := c.Create(ctx, "Deployed", model.KindSuccess)
	require.NoError(t, err)
	assert.True(t, st.Snapshot().Contains(id))

	snap, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "Deployed", snap[0].Message)

	require.NoError(t, c.Dismiss(ctx, id))
	require.NoError(t, c.Dismiss(ctx, id))
	assert.Zero(t, st.Count())

	snap, err = c.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestClient_Clear(t *testing.T) {
	c, st := newTestClient(t)
	ctx := context.Background()

	for range 3 {
		_, err := c.Create(ctx, "x", model.KindInfo)
		require.NoError(t, err)
	}
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, st.Count())
}

func TestClient_CreateRejected(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Create(context.Background(), "", model.KindInfo)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "message is required", se.Message)
}

func TestClient_Unreachable(t *testing.T) {
	c, err := New("127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.List(context.Background())
	assert.Error(t, err)
	assert.False(t, IsStatus(err, http.StatusBadRequest))
}

func TestClient_Watch(t *testing.T) {
	c, st := newTestClient(t)

	existing, err := st.Create("existing", model.KindInfo)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		snaps []model.Snapshot
	)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func(s model.Snapshot) {
			mu.Lock()
			snaps = append(snaps, s)
			mu.Unlock()
		})
	}()

	received := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(snaps)
	}
	require.Eventually(t, func() bool { return received() == 1 }, 2*time.Second, 10*time.Millisecond)

	st.Remove(existing)
	require.Eventually(t, func() bool { return received() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{existing}, snaps[0].IDs())
	assert.Empty(t, snaps[1])
}

func TestStatusError(t *testing.T) {
	assert.Equal(t, "server returned 503: store is shut down", (&StatusError{Code: 503, Message: "store is shut down"}).Error())
	assert.Equal(t, "server returned 404 Not Found", (&StatusError{Code: 404}).Error())
}
