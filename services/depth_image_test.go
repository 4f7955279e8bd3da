package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skylock-backend/models"
)

func TestDepthImageRoundTrip(t *testing.T) {
	t.Parallel()

	depth := models.NewDepthMap(8, 4)
	for y := 0; y < depth.Height; y++ {
		for x := 0; x < depth.Width; x++ {
			depth.Set(x, y, float64(x)/float64(depth.Width-1))
		}
	}

	png, err := EncodeDepthImage(depth)
	require.NoError(t, err)
	require.NotEmpty(t, png)

	got, err := DecodeDepthImage(png)
	require.NoError(t, err)
	assert.Equal(t, depth.Width, got.Width)
	assert.Equal(t, depth.Height, got.Height)
	for i, v := range depth.Values {
		assert.InDelta(t, v, got.Values[i], 1.0/255+1e-6)
	}
}

func TestDecodeDepthImageRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeDepthImage(nil)
	assert.ErrorIs(t, err, ErrUndecodableImage)

	_, err = DecodeDepthImage([]byte("definitely not a png"))
	assert.ErrorIs(t, err, ErrUndecodableImage)
}

func TestEncodeDepthImageRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := EncodeDepthImage(models.DepthMap{Width: 2, Height: 2})
	assert.Error(t, err)
}
