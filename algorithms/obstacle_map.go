package algorithms

import (
	"errors"
	"fmt"

	"skylock-backend/models"
)

// ErrMalformedDepth is returned when a depth map does not match its declared size.
var ErrMalformedDepth = errors.New("malformed depth map")

// BuildTraversabilityGrid converts a normalised depth map into a grid.
// A cell is free iff its depth is strictly below threshold; NaN is blocked.
// The threshold is always supplied by the caller.
func BuildTraversabilityGrid(depth models.DepthMap, threshold float64) (*Grid, error) {
	if err := depth.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDepth, err)
	}

	g := &Grid{
		Width:  depth.Width,
		Height: depth.Height,
		free:   make([]bool, len(depth.Values)),
	}
	for i, v := range depth.Values {
		g.free[i] = v < threshold
	}
	return g, nil
}
