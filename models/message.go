package models

import (
	"encoding/json"
	"time"
)

// ========================================
// 메시지 타입 상수
// ========================================
const (
	// Client → Server
	MessageTypeFrame        = "frame"         // 프레임 한 장 처리 요청
	MessageTypeSelectTarget = "select_target" // 타겟 선택
	MessageTypeClearTarget  = "clear_target"  // 타겟 해제

	// Server → Client
	MessageTypeFrameResult = "frame_result" // 프레임 처리 결과
	MessageTypeLockState   = "lock_state"   // 잠금 상태
	MessageTypeError       = "error"        // 오류
	MessageTypeSystemInfo  = "system_info"  // 연결 정보
)

// ========================================
// 공통 WebSocket 메시지 형식
// ========================================
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp (ms)
}

// InboundMessage keeps Data raw so it can be decoded once the type is known.
type InboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// ========================================
// 요청 페이로드
// ========================================

// FrameRequest - 프레임 처리 요청 (HTTP, WebSocket 공용)
//
// Depth 또는 DepthImage 중 하나를 보낸다. DepthImage는 base64 인코딩된
// 그레이스케일 이미지이며 서버에서 0~1로 정규화된다.
type FrameRequest struct {
	Tracks      []Track   `json:"tracks"`
	Depth       *DepthMap `json:"depth,omitempty"`
	DepthImage  string    `json:"depth_image,omitempty"`
	Normalize   bool      `json:"normalize"` // Depth 값이 정규화되지 않은 원시값인 경우
	RequestedID *int      `json:"requested_id,omitempty"`
	Start       *Cell     `json:"start,omitempty"`
}

// SelectTargetRequest - 타겟 선택 요청 (TrackID가 없으면 기본 정책)
type SelectTargetRequest struct {
	TrackID *int    `json:"track_id,omitempty"`
	Tracks  []Track `json:"tracks,omitempty"` // 비어 있으면 마지막 프레임의 트랙 사용
}

// CreateSessionRequest - 세션 생성 요청
type CreateSessionRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SessionInfo - 세션 요약
type SessionInfo struct {
	ID         string       `json:"id"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	CreatedAt  time.Time    `json:"created_at"`
	LastActive time.Time    `json:"last_active"`
	Frames     int64        `json:"frames"`
	Lock       LockState    `json:"lock"`
	LastResult *FrameResult `json:"last_result,omitempty"`
}
