package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylock-backend/models"
)

func TestSessionManagerLifecycle(t *testing.T) {
	t.Parallel()

	m := NewSessionManager(planningConfig(true), nil)

	_, err := m.Create(0, 10)
	assert.Error(t, err)

	a, err := m.Create(5, 5)
	require.NoError(t, err)
	b, err := m.Create(8, 6)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Count())

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	list := m.List()
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, m.Remove(a.ID))
	_, err = m.Get(a.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Remove(a.ID), ErrSessionNotFound)
	assert.Equal(t, 1, m.Count())
}

func TestSessionsHaveIndependentLocks(t *testing.T) {
	t.Parallel()

	m := NewSessionManager(planningConfig(true), nil)
	a, err := m.Create(5, 5)
	require.NoError(t, err)
	b, err := m.Create(5, 5)
	require.NoError(t, err)

	_, err = a.SelectTarget([]models.Track{cornerTarget()}, intPtr(7))
	require.NoError(t, err)
	assert.True(t, a.LockState().Locked)
	assert.False(t, b.LockState().Locked)
}

func TestSessionProcessCachesResult(t *testing.T) {
	t.Parallel()

	m := NewSessionManager(planningConfig(true), nil)
	s, err := m.Create(5, 5)
	require.NoError(t, err)
	assert.Nil(t, s.Info().LastResult)

	in := frameInput(models.UniformDepthMap(5, 5, 0), []models.Track{cornerTarget()}, nil)
	in.Width, in.Height = 0, 0 // filled from the session
	res, err := s.Process(context.Background(), in)
	require.NoError(t, err)

	info := s.Info()
	require.NotNil(t, info.LastResult)
	assert.Equal(t, res.FrameIndex, info.LastResult.FrameIndex)
	assert.Equal(t, int64(1), info.Frames)

	// select between frames uses the cached tracks
	id, err := s.SelectTarget(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	s.ClearTarget()
	assert.False(t, s.LockState().Locked)
}

func TestSessionSelectWithoutAnyTracks(t *testing.T) {
	t.Parallel()

	m := NewSessionManager(planningConfig(true), nil)
	s, err := m.Create(5, 5)
	require.NoError(t, err)

	_, err = s.SelectTarget(nil, intPtr(1))
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSessionManagerCleanupIdle(t *testing.T) {
	t.Parallel()

	m := NewSessionManager(planningConfig(true), nil)
	stale, err := m.Create(5, 5)
	require.NoError(t, err)
	fresh, err := m.Create(5, 5)
	require.NoError(t, err)

	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	assert.Equal(t, 1, m.CleanupIdle(10*time.Minute))
	_, err = m.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSessionManagerRunCleanupStopsWithContext(t *testing.T) {
	t.Parallel()

	m := NewSessionManager(planningConfig(true), nil)
	s, err := m.Create(5, 5)
	require.NoError(t, err)
	s.mu.Lock()
	s.lastActive = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunCleanup(ctx, time.Minute, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunCleanup did not return after cancel")
	}
}
