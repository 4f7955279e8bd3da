package models

import (
	"time"
)

// 저널 이벤트 타입
const (
	EventTargetLocked     = "target_locked"
	EventTargetCleared    = "target_cleared"
	EventTargetLost       = "target_lost"
	EventTargetReacquired = "target_reacquired"
	EventPathPlanned      = "path_planned"
	EventPathPartial      = "path_partial"
	EventPathNotFound     = "path_not_found"
	EventInvalidEndpoint  = "invalid_endpoint"
)

// PlanningLog - 잠금/경로 계획 이벤트 로그
type PlanningLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	SessionID  string    `gorm:"size:64;index" json:"session_id"`
	FrameIndex int64     `json:"frame_index"`
	EventType  string    `gorm:"size:32;index" json:"event_type"`

	// 타겟 정보
	TargetID    int     `json:"target_id"`
	TargetClass string  `json:"target_class"`
	GoalX       int     `json:"goal_x"`
	GoalY       int     `json:"goal_y"`
	TargetDepth float64 `json:"target_depth"`

	// 경로 정보
	PathLength     int   `json:"path_length"`
	WaypointCount  int   `json:"waypoint_count"`
	Expanded       int   `json:"expanded"`
	DurationMicros int64 `json:"duration_micros"`
}

// LogStats - 세션별 로그 통계
type LogStats struct {
	TotalLogs   int64            `json:"total_logs"`
	EventCounts map[string]int64 `json:"event_counts"`
	TimeRange   string           `json:"time_range"`
}
