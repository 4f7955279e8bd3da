package algorithms

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"skylock-backend/models"
)

// ErrInvalidEndpoint is returned when start or goal is out of bounds or blocked.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// ctxCheckInterval - 컨텍스트 만료 확인 주기 (확장 횟수)
const ctxCheckInterval = 64

// neighborOffsets lists the 8 moves in row-major order. The order is part of
// the planner's contract: identical input must give an identical path.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// node - A* 탐색 노드
type node struct {
	cell    models.Cell
	g, h, f int
	seq     uint64 // 삽입 순서, 동점 처리용
	parent  *node
	index   int // for heap
}

// priorityQueue orders by (f, seq): on equal f the earlier insertion wins.
type priorityQueue []*node

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// Planner - 8방향 그리드 A* 경로 계획기
//
// The zero value is ready to use and searches without an expansion cap.
type Planner struct {
	// MaxExpansions bounds the number of finalised cells per call; 0 means unlimited.
	MaxExpansions int
}

// PlanResult - 경로 계획 결과
type PlanResult struct {
	Path     []models.Cell // start..goal inclusive, empty if unreachable
	Partial  bool          // search stopped early; Path ends at the best cell reached
	Expanded int
}

// heuristic is the squared Euclidean distance. It overestimates on purpose so
// the search is pulled hard toward the goal; paths are not guaranteed shortest.
func heuristic(c, goal models.Cell) int {
	dx := c.X - goal.X
	dy := c.Y - goal.Y
	return dx*dx + dy*dy
}

// Plan searches grid for a route from start to goal.
//
// Every move, straight or diagonal, costs 1. A cell removed from the frontier
// is final and never expanded again. When the expansion cap or the context
// deadline is hit the path to the finalised cell closest to the goal is
// returned with Partial set. An exhausted frontier yields an empty path and
// no error.
func (p *Planner) Plan(ctx context.Context, grid *Grid, start, goal models.Cell) (PlanResult, error) {
	var result PlanResult

	if grid == nil {
		return result, fmt.Errorf("%w: nil grid", ErrInvalidEndpoint)
	}
	if !grid.validCell(start) {
		return result, fmt.Errorf("%w: start %v", ErrInvalidEndpoint, start)
	}
	if !grid.validCell(goal) {
		return result, fmt.Errorf("%w: goal %v", ErrInvalidEndpoint, goal)
	}

	idx := func(x, y int) int { return y*grid.Width + x }

	closed := make([]bool, grid.Width*grid.Height)
	bestG := make([]int, grid.Width*grid.Height)
	for i := range bestG {
		bestG[i] = -1
	}

	open := make(priorityQueue, 0, 64)
	var seq uint64
	push := func(n *node) {
		n.seq = seq
		seq++
		heap.Push(&open, n)
	}

	h0 := heuristic(start, goal)
	bestG[idx(start.X, start.Y)] = 0
	push(&node{cell: start, g: 0, h: h0, f: h0})

	var best *node
	for open.Len() > 0 {
		current := heap.Pop(&open).(*node)
		ci := idx(current.cell.X, current.cell.Y)
		if closed[ci] {
			continue
		}

		// 목표 도달
		if current.cell == goal {
			result.Path = reconstructPath(current)
			return result, nil
		}

		if p.exhausted(ctx, result.Expanded) {
			result.Partial = true
			if best != nil {
				result.Path = reconstructPath(best)
			}
			return result, nil
		}

		closed[ci] = true
		result.Expanded++
		if best == nil || current.h < best.h {
			best = current
		}

		for _, off := range neighborOffsets {
			nx, ny := current.cell.X+off[0], current.cell.Y+off[1]
			if !grid.IsValid(nx, ny) {
				continue
			}
			ni := idx(nx, ny)
			if closed[ni] {
				continue
			}

			tentativeG := current.g + 1
			if bestG[ni] >= 0 && tentativeG >= bestG[ni] {
				continue
			}
			bestG[ni] = tentativeG

			cell := models.Cell{X: nx, Y: ny}
			h := heuristic(cell, goal)
			push(&node{
				cell:   cell,
				g:      tentativeG,
				h:      h,
				f:      tentativeG + h,
				parent: current,
			})
		}
	}

	// 경로 없음
	return result, nil
}

func (p *Planner) exhausted(ctx context.Context, expanded int) bool {
	if p.MaxExpansions > 0 && expanded >= p.MaxExpansions {
		return true
	}
	if ctx != nil && expanded%ctxCheckInterval == 0 && ctx.Err() != nil {
		return true
	}
	return false
}

// reconstructPath - 부모 링크를 따라 경로 재구성
func reconstructPath(n *node) []models.Cell {
	length := 0
	for cur := n; cur != nil; cur = cur.parent {
		length++
	}
	path := make([]models.Cell, length)
	for cur := n; cur != nil; cur = cur.parent {
		length--
		path[length] = cur.cell
	}
	return path
}
