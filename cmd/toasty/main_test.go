package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toasty/internal/config"
	"github.com/jmylchreest/toasty/internal/core"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/server"
	"github.com/jmylchreest/toasty/internal/store"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func newTestServer(t *testing.T) (*store.Store, string) {
	t.Helper()
	st := store.New(store.WithLifetime(time.Minute))
	ts := httptest.NewServer(server.New(st, server.Options{}).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = st.Close()
	})
	return st, ts.URL
}

func TestSendMessage(t *testing.T) {
	st, url := newTestServer(t)

	out, err := execute(t, "", "send", "--server", url, "--kind", "error", "disk", "full")
	require.NoError(t, err)

	snap := st.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "disk full", snap[0].Message)
	assert.Equal(t, model.KindError, snap[0].Kind)
	assert.Equal(t, snap[0].ID+"\n", out)
}

func TestSendFromFile(t *testing.T) {
	st, url := newTestServer(t)

	path := filepath.Join(t.TempDir(), "toasts.txt")
	require.NoError(t, writeFile(path, "# batch\nsuccess: deployed\n{\"message\":\"hi\",\"kind\":\"warning\"}\n"))

	out, err := execute(t, "", "send", "--server", url, "--input", path)
	require.NoError(t, err)

	snap := st.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, model.KindSuccess, snap[0].Kind)
	assert.Equal(t, "hi", snap[1].Message)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestSendBadKind(t *testing.T) {
	_, url := newTestServer(t)
	_, err := execute(t, "", "send", "--server", url, "--kind", "loud", "x")
	assert.ErrorIs(t, err, model.ErrInvalidKind)
}

func TestWatchOnce(t *testing.T) {
	st, url := newTestServer(t)
	id, err := st.Create("listed", model.KindInfo)
	require.NoError(t, err)

	out, err := execute(t, "", "watch", "--server", url, "--once", "--format", "ids")
	require.NoError(t, err)
	assert.Equal(t, id+"\n", out)
}

func TestWatchOnceFiltered(t *testing.T) {
	st, url := newTestServer(t)
	_, err := st.Create("deploy started", model.KindInfo)
	require.NoError(t, err)
	failed, err := st.Create("deploy failed", model.KindError)
	require.NoError(t, err)
	_, err = st.Create("disk full", model.KindError)
	require.NoError(t, err)

	out, err := execute(t, "", "watch", "--server", url, "--once", "--format", "ids",
		"--kind", "error", "--search", "deploy")
	require.NoError(t, err)
	assert.Equal(t, failed+"\n", out)

	_, err = execute(t, "", "watch", "--server", url, "--once", "--kind", "loud")
	assert.ErrorIs(t, err, model.ErrInvalidKind)

	// Reset shared flag state for later watch runs.
	watchOpts.kinds, watchOpts.search = "", ""
}

func TestDismiss(t *testing.T) {
	st, url := newTestServer(t)
	first, err := st.Create("first", model.KindInfo)
	require.NoError(t, err)
	second, err := st.Create("second", model.KindInfo)
	require.NoError(t, err)
	third, err := st.Create("third", model.KindInfo)
	require.NoError(t, err)

	out, err := execute(t, "", "dismiss", "--server", url, "--all=false", "1", third)
	require.NoError(t, err)
	assert.Equal(t, first+"\n"+third+"\n", out)
	assert.Equal(t, []string{second}, st.Snapshot().IDs())

	_, err = execute(t, "", "dismiss", "--server", url, "--all=false", "7")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = execute(t, "", "dismiss", "--server", url, "--all=false")
	assert.Error(t, err)

	_, err = execute(t, "", "dismiss", "--server", url, "--all")
	require.NoError(t, err)
	assert.Empty(t, st.Snapshot())
}

func TestConfigPathAndInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toasty", "config.toml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path, "config", "path"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, path+"\n", out.String())

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, rootCmd.Execute())

	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Toasts, loaded.Toasts)

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, rootCmd.Execute())
}

func TestSoundsFromConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.Audio.Sounds.Error = "/sounds/error.wav"
	c.Audio.Sounds.Success = "/sounds/ok.wav"

	assert.Equal(t, map[model.Kind]string{
		model.KindError:   "/sounds/error.wav",
		model.KindSuccess: "/sounds/ok.wav",
	}, soundsFromConfig(c))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
