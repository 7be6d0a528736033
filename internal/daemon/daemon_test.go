package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/schemasync/internal/config"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

func daemonConfig(interval string) *config.Config {
	cfg := config.Default()
	cfg.Daemon.Interval = interval
	return cfg
}

func TestNewRequiresConfigAndSync(t *testing.T) {
	_, err := New("", nil, func(context.Context, *config.Config) error { return nil })
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = New("", config.Default(), nil)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
}

func TestDaemonRunsPeriodically(t *testing.T) {
	cfg := daemonConfig("50ms")
	cfg.Daemon.RunOnStart = true

	var runs atomic.Int32
	d, err := New("", cfg, func(context.Context, *config.Config) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 3*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	st := d.Status()
	assert.GreaterOrEqual(t, st.Runs, 3)
	assert.Zero(t, st.Failures)
}

func TestDaemonTriggerIsExclusive(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	d, err := New("", daemonConfig("1h"), func(context.Context, *config.Config) error {
		close(started)
		<-release
		return errors.New("upstream changed")
	})
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() { first <- d.Trigger(t.Context()) }()
	<-started

	assert.ErrorIs(t, d.Trigger(t.Context()), ErrSyncInProgress)
	assert.True(t, d.Status().Running)

	close(release)
	require.EqualError(t, <-first, "upstream changed")

	st := d.Status()
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, "upstream changed", st.LastError)
	assert.False(t, st.Running)
}

func TestDaemonReloadConfig(t *testing.T) {
	d, err := New("", daemonConfig("1h"), func(context.Context, *config.Config) error { return nil })
	require.NoError(t, err)

	next := daemonConfig("2h")
	require.NoError(t, d.ReloadConfig(t.Context(), next))
	assert.Same(t, next, d.GetConfig())

	bumped := daemonConfig("2h")
	bumped.Version = "99"
	err = d.ReloadConfig(t.Context(), bumped)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Same(t, next, d.GetConfig())
}

func TestDaemonReloadReschedules(t *testing.T) {
	var runs atomic.Int32
	d, err := New("", daemonConfig("1h"), func(context.Context, *config.Config) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool { return !d.Status().NextRun.IsZero() }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, runs.Load())

	require.NoError(t, d.ReloadConfig(ctx, daemonConfig("50ms")))
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestConfigWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemasync.yaml")
	require.NoError(t, config.Init(path, false))

	reloaded := make(chan *config.Config, 4)
	w, err := NewConfigWatcher(path, func(_ context.Context, cfg *config.Config) error {
		reloaded <- cfg
		return nil
	}, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop() })

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	updated := strings.Replace(string(data), "interval: 24h", "interval: 1h", 1)
	require.NotEqual(t, string(data), updated)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, time.Hour, cfg.Daemon.IntervalDuration())
	case <-time.After(5 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestConfigWatcherKeepsConfigOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemasync.yaml")
	require.NoError(t, config.Init(path, false))

	var applied atomic.Int32
	w, err := NewConfigWatcher(path, func(context.Context, *config.Config) error {
		applied.Add(1)
		return nil
	}, 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("daemon:\n  interval: soon\n"), 0o600))
	err = w.performReload(t.Context())
	require.Error(t, err)
	assert.Zero(t, applied.Load())
}

func TestDaemonReloadKeepsOverrides(t *testing.T) {
	d, err := New("", daemonConfig("6h"), func(context.Context, *config.Config) error { return nil })
	require.NoError(t, err)
	d.WithOverrides(func(cfg *config.Config) { cfg.Daemon.Interval = "6h" })

	require.NoError(t, d.ReloadConfig(t.Context(), daemonConfig("24h")))
	assert.Equal(t, "6h", d.GetConfig().Daemon.Interval)
}
