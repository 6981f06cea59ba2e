package snapshot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_SaveNow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	text := `{"node_powgen":1}`
	s := NewScheduler(repo, "cubesat1", func() (string, error) { return text, nil }, time.Minute, 0)

	require.NoError(t, s.SaveNow(ctx))
	require.NoError(t, s.SaveNow(ctx))
	text = `{"node_powgen":2}`
	require.NoError(t, s.SaveNow(ctx))

	list, err := repo.List(ctx, "cubesat1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestScheduler_SourceError(t *testing.T) {
	repo := newTestRepo(t)
	boom := errors.New("boom")
	s := NewScheduler(repo, "cubesat1", func() (string, error) { return "", boom }, time.Minute, 0)
	assert.ErrorIs(t, s.SaveNow(context.Background()), boom)
}

func TestScheduler_Retention(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	repo.now = stepClock(time.Now().Add(-48 * time.Hour))

	for _, text := range []string{"{}", "{}{}", "{}{}{}"} {
		_, _, err := repo.Save(ctx, "cubesat1", text)
		require.NoError(t, err)
	}
	repo.now = time.Now

	s := NewScheduler(repo, "cubesat1", func() (string, error) { return `{"x":1}`, nil }, time.Minute, 24*time.Hour)
	require.NoError(t, s.SaveNow(ctx))

	list, err := repo.List(ctx, "cubesat1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Entries)
}

func TestScheduler_StopTakesFinalSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	var calls atomic.Int32
	s := NewScheduler(repo, "cubesat1", func() (string, error) {
		calls.Add(1)
		return "{}", nil
	}, 0, 0)
	assert.Equal(t, minInterval, s.interval)

	s.Start(context.Background())
	s.Stop(context.Background())
	s.Stop(context.Background())

	assert.Equal(t, int32(1), calls.Load())
	_, err := repo.Latest(context.Background(), "cubesat1")
	assert.NoError(t, err)
}
