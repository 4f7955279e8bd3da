package services

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylock-backend/config"
	"skylock-backend/models"
)

func TestMapGeneratorScene(t *testing.T) {
	t.Parallel()

	mg := NewMapGenerator(7)
	assert.Nil(t, mg.GetActiveMap())
	_, err := mg.RenderDepth()
	assert.Error(t, err)

	scene := mg.GenerateMap(80, 60, 5)
	require.NotNil(t, scene)
	assert.Same(t, scene, mg.GetActiveMap())
	assert.LessOrEqual(t, len(scene.Obstacles), 5)
	assert.NotEmpty(t, scene.Obstacles)

	for _, o := range scene.Obstacles {
		assert.Greater(t, math.Hypot(o.X-40, o.Y-30), o.Radius, "obstacle %s covers the frame centre", o.ID)
		assert.False(t, mg.IsPositionValid(o.X, o.Y))
	}
	assert.True(t, mg.IsPositionValid(40, 30))
	assert.False(t, mg.IsPositionValid(-1, 0))
	assert.False(t, mg.IsPositionValid(80, 0))

	mg.ClearMap()
	assert.Nil(t, mg.GetActiveMap())
}

func TestMapGeneratorRenderDepth(t *testing.T) {
	t.Parallel()

	mg := NewMapGenerator(3)
	scene := mg.GenerateMap(80, 60, 4)
	require.NotEmpty(t, scene.Obstacles)

	depth, err := mg.RenderDepth()
	require.NoError(t, err)
	require.NoError(t, depth.Validate())

	o := scene.Obstacles[0]
	assert.Greater(t, depth.At(int(o.X), int(o.Y)), 0.2, "obstacle centre must be blocked")
	assert.InDelta(t, sceneBackgroundDepth, depth.At(40, 30), 1e-9)

	_, err = mg.Estimate(context.Background(), models.Frame{Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	got, err := mg.Estimate(context.Background(), models.Frame{Width: 80, Height: 60})
	require.NoError(t, err)
	assert.Equal(t, depth, got)
}

func simConfig() config.SimulatorConfig {
	return config.SimulatorConfig{
		Enabled:  true,
		Width:    160,
		Height:   120,
		Targets:  3,
		Seed:     11,
		Interval: 5 * time.Millisecond,
	}
}

func TestSimulatorStepConfirmsTracksAndPlans(t *testing.T) {
	t.Parallel()

	sm := NewSessionManager(planningConfig(true), nil)
	s, err := sm.Create(160, 120)
	require.NoError(t, err)

	sim := NewSimulator(simConfig(), s, nil)
	ctx := context.Background()

	var res models.FrameResult
	for i := 0; i < DefaultTrackerNInit; i++ {
		res, err = sim.Step(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(DefaultTrackerNInit), res.FrameIndex)
	assert.Len(t, res.Tracks, 3, "every target is confirmed after n_init frames")
	assert.Equal(t, models.OutcomeUnlocked, res.Diagnostics.Outcome)

	id, err := s.SelectTarget(nil, nil)
	require.NoError(t, err)

	res, err = sim.Step(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.LockedTarget)
	assert.Equal(t, id, res.LockedTarget.ID)
	assert.Equal(t, models.OutcomePlanned, res.Diagnostics.Outcome)
	require.NotEmpty(t, res.Path)
	assert.Equal(t, *res.Goal, res.Path[len(res.Path)-1])
	assert.Equal(t, models.Cell{X: 80, Y: 60}, res.Path[0])
}

func TestSimulatorStartStop(t *testing.T) {
	t.Parallel()

	sm := NewSessionManager(planningConfig(true), nil)
	s, err := sm.Create(160, 120)
	require.NoError(t, err)

	var frames atomic.Int64
	sim := NewSimulator(simConfig(), s, func(sessionID string, _ models.FrameResult) {
		assert.Equal(t, s.ID, sessionID)
		frames.Add(1)
	})

	sim.Start()
	sim.Start() // no-op while running
	assert.True(t, sim.Running())
	require.Eventually(t, func() bool { return frames.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	sim.Stop()
	assert.False(t, sim.Running())
	stopped := frames.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, frames.Load())

	sim.Stop() // no-op when stopped
	assert.NotNil(t, s.Info().LastResult)
}
