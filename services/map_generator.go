package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"skylock-backend/models"
)

// Depth levels rendered by the map generator.
const (
	sceneBackgroundDepth = 0.05 // 먼 배경 (통과 가능)
	obstacleEdgeDepth    = 0.5
	obstacleCenterDepth  = 0.95
)

// MapGenerator handles virtual scene generation and depth rendering
type MapGenerator struct {
	mu           sync.RWMutex
	activeMap    *models.SceneMap
	generationMu sync.Mutex
	rng          *rand.Rand
}

// NewMapGenerator creates a new MapGenerator instance. seed 0 uses the clock.
func NewMapGenerator(seed int64) *MapGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MapGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GenerateMap creates a new virtual scene with count random obstacles
func (mg *MapGenerator) GenerateMap(width, height, count int) *models.SceneMap {
	mg.generationMu.Lock()
	defer mg.generationMu.Unlock()

	scene := &models.SceneMap{
		ID:        uuid.New().String(),
		Width:     width,
		Height:    height,
		Obstacles: mg.generateObstacles(width, height, count),
		CreatedAt: time.Now(),
	}

	mg.mu.Lock()
	mg.activeMap = scene
	mg.mu.Unlock()

	return scene
}

// generateObstacles creates random obstacles away from the frame centre,
// which is the default planning start.
func (mg *MapGenerator) generateObstacles(width, height, count int) []models.Obstacle {
	obstacles := make([]models.Obstacle, 0, count)

	// 경계에서 안전한 여백 (10%)
	margin := 0.1
	w, h := float64(width), float64(height)
	minX, maxX := w*margin, w*(1-margin)
	minY, maxY := h*margin, h*(1-margin)
	cx, cy := float64(width/2), float64(height/2)
	shortSide := math.Min(w, h)

	for i := 0; len(obstacles) < count && i < count*20; i++ {
		o := models.Obstacle{
			ID:     fmt.Sprintf("obstacle-%d", len(obstacles)+1),
			X:      minX + mg.rng.Float64()*(maxX-minX),
			Y:      minY + mg.rng.Float64()*(maxY-minY),
			Radius: shortSide * (0.04 + mg.rng.Float64()*0.06), // 짧은 변의 4~10%
		}
		if math.Hypot(o.X-cx, o.Y-cy) <= o.Radius+2 {
			continue
		}
		obstacles = append(obstacles, o)
	}

	return obstacles
}

// GetActiveMap returns the current active scene
func (mg *MapGenerator) GetActiveMap() *models.SceneMap {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return mg.activeMap
}

// IsPositionValid checks if a position is inside the scene and outside every obstacle
func (mg *MapGenerator) IsPositionValid(x, y float64) bool {
	mg.mu.RLock()
	defer mg.mu.RUnlock()

	if mg.activeMap == nil {
		return false
	}

	// 경계 체크
	if x < 0 || x >= float64(mg.activeMap.Width) || y < 0 || y >= float64(mg.activeMap.Height) {
		return false
	}

	// 장애물과 충돌 체크
	for _, obstacle := range mg.activeMap.Obstacles {
		if math.Hypot(x-obstacle.X, y-obstacle.Y) < obstacle.Radius {
			return false
		}
	}

	return true
}

// RenderDepth draws the active scene as a normalised depth map. Obstacles are
// closest at their centre and fall off linearly to the rim.
func (mg *MapGenerator) RenderDepth() (models.DepthMap, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()

	if mg.activeMap == nil {
		return models.DepthMap{}, fmt.Errorf("no active map")
	}

	depth := models.UniformDepthMap(mg.activeMap.Width, mg.activeMap.Height, sceneBackgroundDepth)
	for _, o := range mg.activeMap.Obstacles {
		x0 := max(int(o.X-o.Radius), 0)
		x1 := min(int(o.X+o.Radius)+1, depth.Width)
		y0 := max(int(o.Y-o.Radius), 0)
		y1 := min(int(o.Y+o.Radius)+1, depth.Height)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				d := math.Hypot(float64(x)-o.X, float64(y)-o.Y)
				if d >= o.Radius {
					continue
				}
				v := obstacleCenterDepth - (obstacleCenterDepth-obstacleEdgeDepth)*(d/o.Radius)
				if v > depth.At(x, y) {
					depth.Set(x, y, v)
				}
			}
		}
	}
	return depth, nil
}

// Estimate implements DepthEstimator for simulated frames.
func (mg *MapGenerator) Estimate(_ context.Context, frame models.Frame) (models.DepthMap, error) {
	depth, err := mg.RenderDepth()
	if err != nil {
		return models.DepthMap{}, err
	}
	if depth.Width != frame.Width || depth.Height != frame.Height {
		return models.DepthMap{}, fmt.Errorf("%w: scene %dx%d, frame %dx%d",
			ErrDimensionMismatch, depth.Width, depth.Height, frame.Width, frame.Height)
	}
	return depth, nil
}

// ClearMap removes the current active scene
func (mg *MapGenerator) ClearMap() {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	mg.activeMap = nil
}
