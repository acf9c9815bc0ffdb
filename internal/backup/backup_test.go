package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-donkey/buildfront/internal/store"
)

func TestRunOnceWritesRestorableExport(t *testing.T) {
	ctx := context.Background()
	s := store.Open(ctx, store.Options{})
	s.AddSubscriber(ctx, "a@b.com")

	dir := t.TempDir()
	scheduler, err := New(s, Options{Dir: dir, Now: func() time.Time {
		return time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)
	}})
	require.NoError(t, err)

	path, err := scheduler.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "buildfront-20261015-030000.000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	snap, err := store.DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snap.Subscribers, 1)
	assert.Equal(t, "a@b.com", snap.Subscribers[0].Email)
}

func TestRunOnceKeepsNewestExports(t *testing.T) {
	s := store.Open(context.Background(), store.Options{})
	dir := t.TempDir()
	clock := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	scheduler, err := New(s, Options{Dir: dir, Retain: 2, Now: func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}})
	require.NoError(t, err)

	var written []string
	for i := 0; i < 4; i++ {
		path, err := scheduler.RunOnce()
		require.NoError(t, err)
		written = append(written, filepath.Base(path))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, written[2:], names)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	scheduler, err := New(store.Open(context.Background(), store.Options{}), Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Error(t, scheduler.Start("every now and then"))
	scheduler.Stop()
}

func TestStartRunsOnSchedule(t *testing.T) {
	dir := t.TempDir()
	scheduler, err := New(store.Open(context.Background(), store.Options{}), Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, scheduler.Start("@every 1s"))
	defer scheduler.Stop()

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		return err == nil && len(entries) > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New(store.Open(context.Background(), store.Options{}), Options{})
	assert.Error(t, err)
}
