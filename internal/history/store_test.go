package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRecordAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := Run{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Outcome:    OutcomeWritten,
		Properties: 120,
		Plugins:    24,
		Bases:      6,
		Extensions: 9,
		Interfaces: 180,
		OutputPath: "schemas/snapcraft.json",
		SHA256:     "abc123",
	}
	require.NoError(t, store.Record(ctx, run))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
	assert.True(t, got.Changed())
}

func TestStoreListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, Run{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Second),
			Outcome:    OutcomeUnchanged,
		}))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b", limited[1].ID)
}

func TestStoreLastSuccessSkipsFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, ok, err := store.LastSuccess(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, Run{ID: "ok", StartedAt: base, FinishedAt: base, Outcome: OutcomeWritten}))
	require.NoError(t, store.Record(ctx, Run{
		ID: "bad", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour),
		Outcome: OutcomeFailed, Error: "Parsed 3 plugins, expected at least 15",
	}))

	last, ok, err := store.LastSuccess(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ok", last.ID)
}

func TestStoreErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	err := store.Record(ctx, Run{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	_, err = store.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryHistory))

	_, err = Open("  ")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	ctx := t.Context()

	store, err := Open(path)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, store.Record(ctx, Run{ID: "persisted", StartedAt: now, FinishedAt: now, Outcome: OutcomeDryRun}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	runs, err := reopened.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, OutcomeDryRun, runs[0].Outcome)
	assert.Equal(t, now.UnixNano(), runs[0].StartedAt.UnixNano())
}
