package services

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"skylock-backend/models"
)

// depthEpsilon keeps min/max normalisation finite on uniform input.
const depthEpsilon = 1e-8

// NormalizeDepth - 원시 깊이값을 0~1로 정규화 (min/max)
func NormalizeDepth(raw models.DepthMap) (models.DepthMap, error) {
	if err := raw.Validate(); err != nil {
		return models.DepthMap{}, err
	}

	lo := floats.Min(raw.Values)
	hi := floats.Max(raw.Values)
	scale := hi - lo + depthEpsilon

	out := models.NewDepthMap(raw.Width, raw.Height)
	for i, v := range raw.Values {
		out.Values[i] = (v - lo) / scale
	}
	return out, nil
}

// TargetDepth returns the empirical median depth inside box, clamped to the
// map. ok is false when the clamped box covers no cell.
func TargetDepth(depth models.DepthMap, box models.BBox) (median float64, ok bool) {
	x1, y1 := max(box.X1, 0), max(box.Y1, 0)
	x2, y2 := min(box.X2, depth.Width-1), min(box.Y2, depth.Height-1)
	if x1 >= x2 || y1 >= y2 {
		return 0, false
	}

	vals := make([]float64, 0, (x2-x1)*(y2-y1))
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			vals = append(vals, depth.At(x, y))
		}
	}
	sort.Float64s(vals)
	return stat.Quantile(0.5, stat.Empirical, vals, nil), true
}
