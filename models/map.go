package models

import "fmt"

// Cell - 그리드 셀 좌표 (픽셀 단위)
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// DepthMap is a normalised depth estimate, row-major, values in [0,1].
// Larger values are closer to the camera.
type DepthMap struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Values []float64 `json:"values"`
}

// NewDepthMap allocates a zero-filled depth map.
func NewDepthMap(width, height int) DepthMap {
	return DepthMap{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

// UniformDepthMap returns a map with every cell set to v.
func UniformDepthMap(width, height int, v float64) DepthMap {
	d := NewDepthMap(width, height)
	for i := range d.Values {
		d.Values[i] = v
	}
	return d
}

// At returns the depth at (x, y). Callers must stay in bounds.
func (d DepthMap) At(x, y int) float64 {
	return d.Values[y*d.Width+x]
}

// Set writes the depth at (x, y).
func (d DepthMap) Set(x, y int, v float64) {
	d.Values[y*d.Width+x] = v
}

// Validate checks that the value slice matches the declared dimensions.
func (d DepthMap) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("depth map has invalid size %dx%d", d.Width, d.Height)
	}
	if len(d.Values) != d.Width*d.Height {
		return fmt.Errorf("depth map %dx%d needs %d values, got %d",
			d.Width, d.Height, d.Width*d.Height, len(d.Values))
	}
	return nil
}
