package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylock-backend/models"
)

func intPtr(v int) *int { return &v }

func track(id, cx, cy int, confirmed bool) models.Track {
	return models.Track{
		ID:         id,
		BBox:       models.BBox{X1: cx - 1, Y1: cy - 1, X2: cx + 1, Y2: cy + 1},
		Confidence: 0.9,
		Confirmed:  confirmed,
	}
}

func fixedLock(targetClass int) (*TargetLock, time.Time) {
	l := NewTargetLock(targetClass)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return at }
	return l, at
}

func TestTargetLockSelectFromEmptyTracks(t *testing.T) {
	t.Parallel()

	l, _ := fixedLock(NoClassFilter)
	_, err := l.Select(nil, intPtr(3))
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.False(t, l.IsLocked())
}

func TestTargetLockSurvivesMissingFrames(t *testing.T) {
	t.Parallel()

	l, at := fixedLock(NoClassFilter)
	id, err := l.Select([]models.Track{track(7, 5, 5, true)}, intPtr(7))
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	got, ok := l.Resolve([]models.Track{track(7, 5, 5, true)})
	require.True(t, ok)
	assert.Equal(t, 7, got.ID)

	for i := 1; i <= 3; i++ {
		got, ok = l.Resolve(nil)
		assert.False(t, ok)
		assert.Nil(t, got)
		state := l.State()
		assert.True(t, state.Locked)
		assert.Equal(t, 7, state.TargetID)
		assert.Equal(t, i, state.MissedFrames)
		assert.Equal(t, at, state.LastSeen)
	}

	got, ok = l.Resolve([]models.Track{track(2, 1, 1, true), track(7, 6, 6, true)})
	require.True(t, ok)
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, models.Cell{X: 6, Y: 6}, got.BBox.Center())
	assert.Zero(t, l.State().MissedFrames)
}

func TestTargetLockDefaultPolicy(t *testing.T) {
	t.Parallel()

	tracks := []models.Track{
		track(4, 1, 1, false),
		track(9, 2, 2, true),
		track(11, 3, 3, true),
	}

	l, _ := fixedLock(NoClassFilter)
	id, err := l.Select(tracks, nil)
	require.NoError(t, err)
	assert.Equal(t, 9, id, "first confirmed track wins")

	unconfirmed := []models.Track{track(4, 1, 1, false), track(5, 2, 2, false)}
	l2, _ := fixedLock(NoClassFilter)
	id, err = l2.Select(unconfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, id, "falls back to the first track")
}

func TestTargetLockClassFilter(t *testing.T) {
	t.Parallel()

	person := track(1, 1, 1, true)
	car := track(2, 2, 2, true)
	car.ClassID = 2

	l, _ := fixedLock(2)
	id, err := l.Select([]models.Track{person, car}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, id)

	l2, _ := fixedLock(5)
	_, err = l2.Select([]models.Track{person, car}, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.False(t, l2.IsLocked())
}

func TestTargetLockRequestedIDAbsentFromFrame(t *testing.T) {
	t.Parallel()

	l, at := fixedLock(NoClassFilter)
	id, err := l.Select([]models.Track{track(1, 1, 1, true)}, intPtr(42))
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	state := l.State()
	assert.True(t, state.Locked)
	assert.Equal(t, at, state.LockedAt)
	assert.True(t, state.LastSeen.IsZero())
}

func TestTargetLockReselectReplaces(t *testing.T) {
	t.Parallel()

	tracks := []models.Track{track(1, 1, 1, true), track(2, 3, 3, true)}
	l, _ := fixedLock(NoClassFilter)
	_, err := l.Select(tracks, intPtr(1))
	require.NoError(t, err)
	l.Resolve(nil)

	_, err = l.Select(tracks, intPtr(2))
	require.NoError(t, err)
	state := l.State()
	assert.Equal(t, 2, state.TargetID)
	assert.Zero(t, state.MissedFrames)
}

func TestTargetLockClear(t *testing.T) {
	t.Parallel()

	l, _ := fixedLock(NoClassFilter)
	_, err := l.Select([]models.Track{track(7, 1, 1, true)}, intPtr(7))
	require.NoError(t, err)

	l.Clear()
	assert.False(t, l.IsLocked())
	assert.Equal(t, models.LockState{}, l.State())

	got, ok := l.Resolve([]models.Track{track(7, 1, 1, true)})
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTargetLockConcurrentAccess(t *testing.T) {
	t.Parallel()

	l := NewTargetLock(NoClassFilter)
	tracks := []models.Track{track(1, 1, 1, true), track(2, 2, 2, true)}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				switch (i + j) % 4 {
				case 0:
					_, _ = l.Select(tracks, intPtr(1+j%2))
				case 1:
					l.Resolve(tracks[:j%2])
				case 2:
					_ = l.State()
				default:
					l.Clear()
				}
			}
		}(i)
	}
	wg.Wait()

	state := l.State()
	if state.Locked {
		assert.Contains(t, []int{1, 2}, state.TargetID)
	}
}
