package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"skylock-backend/config"
	"skylock-backend/models"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Session - 독립적인 계획 컨텍스트 (잠금 1개, 오케스트레이터 1개)
type Session struct {
	ID        string
	Width     int
	Height    int
	CreatedAt time.Time

	orchestrator *FrameOrchestrator

	mu         sync.RWMutex
	lastActive time.Time
	lastResult *models.FrameResult
	lastTracks []models.Track
}

// Orchestrator returns the session's frame orchestrator.
func (s *Session) Orchestrator() *FrameOrchestrator {
	return s.orchestrator
}

// Process runs one frame through the orchestrator and caches the result.
func (s *Session) Process(ctx context.Context, in models.FrameInput) (models.FrameResult, error) {
	if in.Width == 0 && in.Height == 0 {
		in.Width, in.Height = s.Width, s.Height
	}
	result, err := s.orchestrator.ProcessFrame(ctx, in)
	if err != nil {
		return models.FrameResult{}, err
	}
	s.remember(result)
	return result, nil
}

// ProcessPipeline runs the collaborators for frame and caches the result.
func (s *Session) ProcessPipeline(ctx context.Context, p Pipeline, frame models.Frame, requestedID *int) (models.FrameResult, error) {
	p.Orchestrator = s.orchestrator
	result, err := p.Process(ctx, frame, requestedID)
	if err != nil {
		return models.FrameResult{}, err
	}
	s.remember(result)
	return result, nil
}

func (s *Session) remember(result models.FrameResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	s.lastResult = &result
	s.lastTracks = result.Tracks
}

// SelectTarget locks a target. Without tracks the last frame's tracks are used.
func (s *Session) SelectTarget(tracks []models.Track, requestedID *int) (int, error) {
	if len(tracks) == 0 {
		s.mu.RLock()
		tracks = s.lastTracks
		s.mu.RUnlock()
	}
	id, err := s.orchestrator.SelectTarget(tracks, requestedID)
	if err != nil {
		return 0, err
	}
	s.touch()
	return id, nil
}

// ClearTarget releases the lock.
func (s *Session) ClearTarget() {
	s.orchestrator.ClearTarget()
	s.touch()
}

// LockState returns the session's lock snapshot.
func (s *Session) LockState() models.LockState {
	return s.orchestrator.LockState()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// LastActive returns the time of the last frame or lock request.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Info - 세션 요약 정보
func (s *Session) Info() models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := models.SessionInfo{
		ID:         s.ID,
		Width:      s.Width,
		Height:     s.Height,
		CreatedAt:  s.CreatedAt,
		LastActive: s.lastActive,
		Lock:       s.orchestrator.LockState(),
	}
	if s.lastResult != nil {
		r := *s.lastResult
		info.LastResult = &r
		info.Frames = r.FrameIndex
	}
	return info
}

// SessionManager - 세션 등록/조회/정리
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	planning config.PlanningConfig
	journal  Journal
}

// NewSessionManager - SessionManager 생성. journal may be nil.
func NewSessionManager(planning config.PlanningConfig, journal Journal) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		planning: planning,
		journal:  journal,
	}
}

// Create - 새 세션 생성
func (m *SessionManager) Create(width, height int) (*Session, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	id := uuid.New().String()
	now := time.Now()
	s := &Session{
		ID:           id,
		Width:        width,
		Height:       height,
		CreatedAt:    now,
		lastActive:   now,
		orchestrator: NewFrameOrchestrator(id, m.planning, m.journal),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Printf("[Sessions] session created: %s (%dx%d)\n", id, width, height)
	return s, nil
}

// Get - 세션 조회
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns every session, oldest first.
func (m *SessionManager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Remove - 세션 삭제
func (m *SessionManager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	log.Printf("[Sessions] session removed: %s\n", id)
	return nil
}

// Count - 현재 세션 수
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupIdle - 비활성 세션 정리
//
// timeout 동안 프레임이나 잠금 요청이 없던 세션을 제거한다.
func (m *SessionManager) CleanupIdle(timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	now := time.Now()
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) > timeout {
			delete(m.sessions, id)
			log.Printf("[Sessions] session cleanup: %s (idle)\n", id)
			count++
		}
	}
	return count
}

// RunCleanup removes idle sessions every interval until ctx is done.
func (m *SessionManager) RunCleanup(ctx context.Context, timeout, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupIdle(timeout); n > 0 {
				log.Printf("🧹 비활성 세션 %d개 정리", n)
			}
		}
	}
}
