package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
)

func TestMetrics_StoreEvents(t *testing.T) {
	m := New()

	m.ToastCreated(model.KindSuccess)
	m.ToastCreated(model.KindSuccess)
	m.ToastCreated(model.KindError)
	m.ToastRemoved(model.KindSuccess, store.RemoveReasonExpired)
	m.ObserverFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToastsCreatedTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsCreatedTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsRemovedTotal.WithLabelValues("success", "expired")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToastsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObserverFailuresTotal))
}

func TestMetrics_WithStore(t *testing.T) {
	m := New()
	s := store.New(store.WithRecorder(m))
	defer s.Close()

	id, err := s.Create("hello", model.KindInfo)
	require.NoError(t, err)
	s.Remove(id)
	s.Remove(id)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsCreatedTotal.WithLabelValues("info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsRemovedTotal.WithLabelValues("info", "dismissed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ToastsActive))
}

func TestMetrics_Websocket(t *testing.T) {
	m := New()

	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.ClientDropped()
	m.Broadcast()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebsocketClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebsocketDroppedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebsocketBroadcastsTotal))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ToastCreated(model.KindWarning)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `toasty_toasts_created_total{kind="warning"} 1`)
	assert.Contains(t, string(body), "toasty_toasts_active 1")
}
