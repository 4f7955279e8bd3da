package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"skylock-backend/algorithms"
	"skylock-backend/models"
	"skylock-backend/services"
)

// PathfindingRequest - 단독 경로 탐색 요청
//
// The grid comes from Depth when it is set, otherwise from Width/Height and
// the Obstacles list.
type PathfindingRequest struct {
	Start     models.Cell      `json:"start"`
	Goal      models.Cell      `json:"goal"`
	Depth     *models.DepthMap `json:"depth,omitempty"`
	Threshold float64          `json:"threshold,omitempty"` // 0이면 서버 설정값
	Width     int              `json:"map_width"`
	Height    int              `json:"map_height"`
	Obstacles []models.Cell    `json:"obstacles"`
}

// PathfindingResponse - 경로 탐색 결과
type PathfindingResponse struct {
	Success   bool          `json:"success"`
	Path      []models.Cell `json:"path,omitempty"`
	Waypoints []models.Cell `json:"waypoints,omitempty"`
	Partial   bool          `json:"partial,omitempty"`
	Expanded  int           `json:"expanded"`
	Message   string        `json:"message,omitempty"`
}

// HandlePathfinding - 그리드 하나에 대한 A* 경로 탐색
func HandlePathfinding(c *fiber.Ctx) error {
	var req PathfindingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Success: false,
			Message: "잘못된 요청 형식입니다",
		})
	}

	grid, err := requestGrid(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	log.Printf("📍 경로 탐색 요청: %v → %v (맵 %dx%d, 통과 가능 %d칸)",
		req.Start, req.Goal, grid.Width, grid.Height, grid.FreeCount())

	ctx := c.UserContext()
	if planning.PlanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, planning.PlanTimeout)
		defer cancel()
	}

	planner := algorithms.Planner{MaxExpansions: planning.MaxExpansions}
	res, err := planner.Plan(ctx, grid, req.Start, req.Goal)
	if errors.Is(err, algorithms.ErrInvalidEndpoint) {
		return c.Status(fiber.StatusBadRequest).JSON(PathfindingResponse{
			Success: false,
			Message: err.Error(),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(PathfindingResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	if len(res.Path) == 0 {
		log.Printf("❌ 경로를 찾을 수 없습니다")
		return c.Status(fiber.StatusOK).JSON(PathfindingResponse{
			Success:  false,
			Partial:  res.Partial,
			Expanded: res.Expanded,
			Message:  "경로를 찾을 수 없습니다",
		})
	}

	waypoints := services.SimplifyPath(res.Path, planning.SimplifyEpsilon)
	log.Printf("✅ 경로 탐색 성공: %d칸, %d개 웨이포인트", len(res.Path), len(waypoints))
	return c.Status(fiber.StatusOK).JSON(PathfindingResponse{
		Success:   true,
		Path:      res.Path,
		Waypoints: waypoints,
		Partial:   res.Partial,
		Expanded:  res.Expanded,
		Message:   "경로 탐색 성공",
	})
}

func requestGrid(req PathfindingRequest) (*algorithms.Grid, error) {
	if req.Depth != nil {
		threshold := req.Threshold
		if threshold <= 0 {
			threshold = planning.ObstacleThreshold
		}
		return algorithms.BuildTraversabilityGrid(*req.Depth, threshold)
	}

	if req.Width <= 0 || req.Height <= 0 {
		return nil, errors.New("map_width and map_height must be positive")
	}
	grid := algorithms.NewGrid(req.Width, req.Height)
	for _, ob := range req.Obstacles {
		grid.AddObstacle(ob.X, ob.Y)
	}
	return grid, nil
}
