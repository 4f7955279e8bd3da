package models

import "time"

// ========================================
// 프레임 처리 결과 상수
// ========================================
const (
	OutcomePlanned          = "planned"           // 목표까지 경로 완성
	OutcomePartial          = "partial"           // 탐색 한도 초과, 부분 경로
	OutcomePathNotFound     = "path_not_found"    // 프런티어 소진
	OutcomeInvalidEndpoint  = "invalid_endpoint"  // 시작/목표가 범위 밖 또는 장애물
	OutcomeTargetUnresolved = "target_unresolved" // 잠긴 ID가 이번 프레임에 없음
	OutcomeUnlocked         = "unlocked"          // 잠긴 타겟 없음
)

// LockState - 타겟 잠금 상태 스냅샷
type LockState struct {
	Locked       bool      `json:"locked"`
	TargetID     int       `json:"target_id,omitempty"`
	LockedAt     time.Time `json:"locked_at,omitempty"`
	LastSeen     time.Time `json:"last_seen,omitempty"`
	MissedFrames int       `json:"missed_frames"` // 마지막으로 보인 뒤 연속 누락 프레임 수
}

// FrameInput is everything the core needs for one frame. The collaborators
// have already run; the core never reads pixels.
type FrameInput struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Tracks      []Track  `json:"tracks"`
	Depth       DepthMap `json:"depth"`
	RequestedID *int     `json:"requested_id,omitempty"`
	Start       *Cell    `json:"start,omitempty"` // nil이면 프레임 중심
}

// Diagnostics - 프레임별 진단 정보
type Diagnostics struct {
	Outcome       string        `json:"outcome"`
	Expanded      int           `json:"expanded"`
	FreeCells     int           `json:"free_cells"`
	PlanDuration  time.Duration `json:"plan_duration"`
	FrameDuration time.Duration `json:"frame_duration"`
}

// FrameResult - 프레임 한 장에 대한 처리 결과
type FrameResult struct {
	FrameIndex   int64       `json:"frame_index"`
	Tracks       []Track     `json:"tracks"`
	Lock         LockState   `json:"lock"`
	LockedTarget *Track      `json:"locked_target,omitempty"`
	Start        Cell        `json:"start"`
	Goal         *Cell       `json:"goal,omitempty"`
	Path         []Cell      `json:"path"`
	Waypoints    []Cell      `json:"waypoints"`
	Partial      bool        `json:"partial"`
	TargetDepth  *float64    `json:"target_depth,omitempty"`
	Diagnostics  Diagnostics `json:"diagnostics"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Frame - 외부 수집기가 넘겨주는 영상 프레임
//
// The planning core never reads Data; collaborators do.
type Frame struct {
	Index      int64     `json:"index"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Data       []byte    `json:"-"`
	CapturedAt time.Time `json:"captured_at"`
}
