package services

import (
	"math"

	"skylock-backend/models"
)

// SimplifyPath - Douglas-Peucker 알고리즘으로 경로 간소화
//
// The first and last cells are always kept. epsilon <= 0 returns a copy.
func SimplifyPath(path []models.Cell, epsilon float64) []models.Cell {
	if len(path) < 3 || epsilon <= 0 {
		out := make([]models.Cell, len(path))
		copy(out, path)
		return out
	}

	// 가장 먼 점 찾기
	dmax := 0.0
	index := 0
	last := len(path) - 1
	for i := 1; i < last; i++ {
		d := perpendicularDistance(path[i], path[0], path[last])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	// 재귀적으로 간소화
	if dmax > epsilon {
		left := SimplifyPath(path[:index+1], epsilon)
		right := SimplifyPath(path[index:], epsilon)
		return append(left[:len(left)-1], right...)
	}

	return []models.Cell{path[0], path[last]}
}

// perpendicularDistance - 점에서 선분까지 거리
func perpendicularDistance(point, lineStart, lineEnd models.Cell) float64 {
	px, py := float64(point.X), float64(point.Y)
	sx, sy := float64(lineStart.X), float64(lineStart.Y)
	dx := float64(lineEnd.X) - sx
	dy := float64(lineEnd.Y) - sy

	if dx == 0 && dy == 0 {
		return math.Hypot(px-sx, py-sy)
	}

	t := ((px-sx)*dx + (py-sy)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	return math.Hypot(px-(sx+t*dx), py-(sy+t*dy))
}

// PathLength returns the number of moves in a cell path.
func PathLength(path []models.Cell) int {
	if len(path) == 0 {
		return 0
	}
	return len(path) - 1
}
