package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashplay/internal/errors"
)

type fakeEngine struct {
	closed atomic.Int32
}

func (f *fakeEngine) Close() { f.closed.Add(1) }

func TestRegistry_OwnerScopedLookup(t *testing.T) {
	r := NewRegistry[*fakeEngine](time.Minute)
	eng := &fakeEngine{}
	id := r.Add("alice", eng)

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	got, err := r.Get("alice", id)
	require.NoError(t, err)
	assert.Same(t, eng, got)

	_, err = r.Get("bob", id)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	_, err = r.Get("alice", "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	assert.True(t, errors.HasCode(r.Remove("bob", id), errors.ErrCodeNotFound))
	require.NoError(t, r.Remove("alice", id))
	assert.Equal(t, int32(1), eng.closed.Load())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SweepClosesIdleEngines(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry[*fakeEngine](10 * time.Minute)
	r.now = func() time.Time { return now }

	idle, busy := &fakeEngine{}, &fakeEngine{}
	r.Add("alice", idle)
	busyID := r.Add("alice", busy)

	now = now.Add(8 * time.Minute)
	_, err := r.Get("alice", busyID)
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, int32(1), idle.closed.Load())
	assert.Equal(t, int32(0), busy.closed.Load())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_TouchKeepsWatchedEngineAlive(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry[*fakeEngine](10 * time.Minute)
	r.now = func() time.Time { return now }

	watched := &fakeEngine{}
	id := r.Add("alice", watched)

	for i := 0; i < 3; i++ {
		now = now.Add(6 * time.Minute)
		require.NoError(t, r.Touch("alice", id))
		assert.Equal(t, 0, r.Sweep())
	}
	assert.True(t, errors.HasCode(r.Touch("bob", id), errors.ErrCodeNotFound))

	now = now.Add(11 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, int32(1), watched.closed.Load())
	assert.True(t, errors.HasCode(r.Touch("alice", id), errors.ErrCodeNotFound))
}

func TestRegistry_RunClosesAllOnShutdown(t *testing.T) {
	r := NewRegistry[*fakeEngine](time.Hour)
	eng := &fakeEngine{}
	r.Add("alice", eng)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	assert.Equal(t, int32(1), eng.closed.Load())
	assert.Equal(t, 0, r.Len())
}
