package algorithms

import "skylock-backend/models"

// Grid - 통과 가능 여부 그리드 (true = free)
type Grid struct {
	Width  int
	Height int
	free   []bool
}

// NewGrid returns a grid with every cell free.
func NewGrid(width, height int) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		free:   make([]bool, width*height),
	}
	for i := range g.free {
		g.free[i] = true
	}
	return g
}

// AddObstacle marks a cell as blocked. Out-of-bounds cells are ignored.
func (g *Grid) AddObstacle(x, y int) {
	if !g.InBounds(x, y) {
		return
	}
	g.free[y*g.Width+x] = false
}

// InBounds - 그리드 범위 내 검사
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// IsObstacle reports whether an in-bounds cell is blocked.
func (g *Grid) IsObstacle(x, y int) bool {
	return !g.free[y*g.Width+x]
}

// IsValid - 범위 안이면서 장애물이 아닌 셀
func (g *Grid) IsValid(x, y int) bool {
	return g.InBounds(x, y) && g.free[y*g.Width+x]
}

// FreeCount returns the number of traversable cells.
func (g *Grid) FreeCount() int {
	n := 0
	for _, f := range g.free {
		if f {
			n++
		}
	}
	return n
}

func (g *Grid) validCell(c models.Cell) bool {
	return g.IsValid(c.X, c.Y)
}
