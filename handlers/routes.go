package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"skylock-backend/algorithms"
	"skylock-backend/config"
	"skylock-backend/models"
	"skylock-backend/services"
)

// errBadRequest marks malformed request payloads.
var errBadRequest = errors.New("bad request")

// 핸들러 공용 의존성
var (
	sessions  *services.SessionManager
	journal   *services.LogBuffer
	planning  config.PlanningConfig
	simulator *services.Simulator
)

// Init - 핸들러 의존성 설정. sim may be nil.
func Init(sm *services.SessionManager, lb *services.LogBuffer, pc config.PlanningConfig, sim *services.Simulator) {
	sessions = sm
	journal = lb
	planning = pc
	simulator = sim
}

// RegisterRoutes mounts the REST API and the WebSocket endpoint.
func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", HandleHealth)

	// 세션
	sessionsAPI := api.Group("/sessions")
	sessionsAPI.Post("/", HandleCreateSession)
	sessionsAPI.Get("/", HandleListSessions)
	sessionsAPI.Get("/:id", HandleGetSession)
	sessionsAPI.Delete("/:id", HandleDeleteSession)
	sessionsAPI.Post("/:id/target", HandleSelectTarget)
	sessionsAPI.Delete("/:id/target", HandleClearTarget)
	sessionsAPI.Post("/:id/frames", HandleProcessFrame)

	// 경로 탐색 (단독)
	api.Post("/pathfinding", HandlePathfinding)

	// 시뮬레이터
	api.Get("/simulator", HandleGetSimulator)

	// 로그 조회 API
	logsAPI := api.Group("/logs")
	logsAPI.Get("/recent", HandleGetRecentLogs)     // 최근 로그
	logsAPI.Get("/range", HandleGetLogsByTimeRange) // 시간 범위
	logsAPI.Get("/type", HandleGetLogsByEventType)  // 이벤트 타입별
	logsAPI.Get("/stats", HandleGetLogStats)        // 통계

	// WebSocket
	app.Use("/websocket", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/websocket/sessions/:id", websocket.New(HandleSessionWebSocket))
}

// HandleHealth - 서버 상태
func HandleHealth(c *fiber.Ctx) error {
	sessionCount := 0
	if sessions != nil {
		sessionCount = sessions.Count()
	}
	return c.JSON(fiber.Map{
		"status":   "OK",
		"sessions": sessionCount,
		"clients":  Manager.GetClientCount(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrNoCandidates):
		return fiber.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, services.ErrDimensionMismatch),
		errors.Is(err, services.ErrUndecodableImage),
		errors.Is(err, algorithms.ErrMalformedDepth):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// buildFrameInput turns a wire request into orchestrator input for session s.
func buildFrameInput(s *services.Session, req models.FrameRequest) (models.FrameInput, error) {
	var (
		depth models.DepthMap
		err   error
	)
	switch {
	case req.Depth != nil:
		depth = *req.Depth
		if req.Normalize {
			if depth, err = services.NormalizeDepth(depth); err != nil {
				return models.FrameInput{}, fmt.Errorf("%w: %v", errBadRequest, err)
			}
		}
	case req.DepthImage != "":
		raw, decErr := base64.StdEncoding.DecodeString(req.DepthImage)
		if decErr != nil {
			return models.FrameInput{}, fmt.Errorf("%w: depth_image is not base64: %v", errBadRequest, decErr)
		}
		if depth, err = services.DecodeDepthImage(raw); err != nil {
			return models.FrameInput{}, err
		}
	default:
		return models.FrameInput{}, fmt.Errorf("%w: depth or depth_image is required", errBadRequest)
	}

	return models.FrameInput{
		Width:       s.Width,
		Height:      s.Height,
		Tracks:      req.Tracks,
		Depth:       depth,
		RequestedID: req.RequestedID,
		Start:       req.Start,
	}, nil
}

// queryLimit - limit 쿼리 파싱 (기본 100)
func queryLimit(c *fiber.Ctx) int {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		return 100
	}
	return limit
}
