package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylock-backend/models"
)

func TestNormalizeDepth(t *testing.T) {
	t.Parallel()

	raw := models.DepthMap{Width: 2, Height: 2, Values: []float64{10, 20, 30, 50}}
	got, err := NormalizeDepth(raw)
	require.NoError(t, err)

	want := []float64{0, 0.25, 0.5, 1}
	for i := range want {
		assert.InDelta(t, want[i], got.Values[i], 1e-6)
	}
	// input untouched
	assert.Equal(t, []float64{10, 20, 30, 50}, raw.Values)
}

func TestNormalizeDepthUniformIsZero(t *testing.T) {
	t.Parallel()

	got, err := NormalizeDepth(models.UniformDepthMap(3, 2, 7))
	require.NoError(t, err)
	for _, v := range got.Values {
		assert.Zero(t, v)
	}
}

func TestNormalizeDepthRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := NormalizeDepth(models.DepthMap{Width: 3, Height: 3, Values: []float64{1}})
	assert.Error(t, err)
}

func TestTargetDepthMedian(t *testing.T) {
	t.Parallel()

	depth := models.NewDepthMap(4, 4)
	depth.Set(0, 0, 0.1)
	depth.Set(1, 0, 0.9)
	depth.Set(0, 1, 0.3)
	depth.Set(1, 1, 0.4)

	got, ok := TargetDepth(depth, models.BBox{X1: 0, Y1: 0, X2: 2, Y2: 2})
	require.True(t, ok)
	// empirical quantile picks the lower middle value
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestTargetDepthClampsToMap(t *testing.T) {
	t.Parallel()

	depth := models.UniformDepthMap(4, 4, 0.6)
	got, ok := TargetDepth(depth, models.BBox{X1: -5, Y1: -5, X2: 10, Y2: 10})
	require.True(t, ok)
	assert.InDelta(t, 0.6, got, 1e-9)

	_, ok = TargetDepth(depth, models.BBox{X1: 8, Y1: 8, X2: 12, Y2: 12})
	assert.False(t, ok)
}
