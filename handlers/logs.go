package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"skylock-backend/models"
)

// HandleGetRecentLogs - 최근 로그 조회 (session_id 없으면 전체)
func HandleGetRecentLogs(c *fiber.Ctx) error {
	logs, err := journal.RecentLogs(c.Query("session_id"), queryLimit(c))
	return logsResponse(c, logs, err, nil)
}

// HandleGetLogsByTimeRange - 시간 범위로 로그 조회 (기본: 최근 24시간)
func HandleGetLogsByTimeRange(c *fiber.Ctx) error {
	now := time.Now()
	start, err := timeQuery(c, "start", now.Add(-24*time.Hour))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	end, err := timeQuery(c, "end", now)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := journal.LogsByTimeRange(c.Query("session_id"), start, end, queryLimit(c))
	return logsResponse(c, logs, err, fiber.Map{
		"time_range": fiber.Map{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		},
	})
}

// HandleGetLogsByEventType - 이벤트 타입별 로그 조회
func HandleGetLogsByEventType(c *fiber.Ctx) error {
	eventType := c.Query("event_type")
	if eventType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "event_type parameter is required",
		})
	}

	logs, err := journal.LogsByEventType(c.Query("session_id"), eventType, queryLimit(c))
	return logsResponse(c, logs, err, fiber.Map{"event_type": eventType})
}

// HandleGetLogStats - 이벤트 통계 (hours 기본 24)
func HandleGetLogStats(c *fiber.Ctx) error {
	hours, err := strconv.Atoi(c.Query("hours", "24"))
	if err != nil || hours <= 0 {
		hours = 24
	}

	stats, err := journal.LogStats(c.Query("session_id"), hours)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch stats",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// logsResponse writes a log listing; extra keys are merged into the body.
func logsResponse(c *fiber.Ctx, logs []models.PlanningLog, err error, extra fiber.Map) error {
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch logs",
		})
	}

	body := fiber.Map{
		"success": true,
		"count":   len(logs),
		"logs":    logs,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(body)
}

// timeQuery parses an RFC3339 query parameter, falling back to def when absent.
func timeQuery(c *fiber.Ctx, key string, def time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s time format (use RFC3339)", key)
	}
	return t, nil
}
