package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"skylock-backend/config"
	"skylock-backend/models"
)

// simulated object classes, indexed by class id
var simClasses = []string{"person", "car", "drone"}

// simTarget - 장면 안에서 움직이는 가상 타겟
type simTarget struct {
	x, y         float64
	vx, vy       float64
	halfW, halfH int
	classID      int
}

// Simulator - 가상 장면 시뮬레이터
//
// It plays detector (moving targets), depth estimator (rendered scene) and
// drives an IoUTracker, feeding one session at a fixed rate. A target whose
// centre is inside an obstacle is occluded and not detected.
type Simulator struct {
	IsRunning bool

	cfg      config.SimulatorConfig
	session  *Session
	maps     *MapGenerator
	tracker  *IoUTracker
	onResult func(sessionID string, result models.FrameResult)

	// 시뮬레이션 상태
	targets    []*simTarget
	rng        *rand.Rand
	frameIndex int64

	// 제어
	stopChan chan struct{}
	done     chan struct{}
	mu       sync.RWMutex
}

// NewSimulator - 시뮬레이터 생성. onResult may be nil.
func NewSimulator(cfg config.SimulatorConfig, session *Session, onResult func(string, models.FrameResult)) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}

	s := &Simulator{
		cfg:      cfg,
		session:  session,
		maps:     NewMapGenerator(seed),
		tracker:  NewIoUTracker(DefaultTrackerNInit, DefaultTrackerMaxAge),
		onResult: onResult,
		rng:      rand.New(rand.NewSource(seed + 1)),
	}
	s.maps.GenerateMap(cfg.Width, cfg.Height, cfg.Obstacles)
	s.targets = s.generateTargets(cfg.Targets)
	return s
}

// generateTargets places targets on free cells with random velocities
func (s *Simulator) generateTargets(count int) []*simTarget {
	targets := make([]*simTarget, 0, count)
	w, h := float64(s.cfg.Width), float64(s.cfg.Height)

	for i := 0; len(targets) < count && i < count*50; i++ {
		t := &simTarget{
			x:       w * (0.1 + 0.8*s.rng.Float64()),
			y:       h * (0.1 + 0.8*s.rng.Float64()),
			vx:      (s.rng.Float64()*2 - 1) * 1.2,
			vy:      (s.rng.Float64()*2 - 1) * 1.2,
			halfW:   3 + s.rng.Intn(4),
			halfH:   3 + s.rng.Intn(4),
			classID: len(targets) % len(simClasses),
		}
		if !s.maps.IsPositionValid(t.x, t.y) {
			continue
		}
		targets = append(targets, t)
	}
	return targets
}

// Session returns the session the simulator feeds.
func (s *Simulator) Session() *Session {
	return s.session
}

// Scene returns the simulated scene.
func (s *Simulator) Scene() *models.SceneMap {
	return s.maps.GetActiveMap()
}

// Start - 시뮬레이션 시작
func (s *Simulator) Start() {
	s.mu.Lock()
	if s.IsRunning {
		s.mu.Unlock()
		return
	}
	s.IsRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	log.Printf("🚀 시뮬레이터 시작 (세션 %s, %v 간격)", s.session.ID, s.cfg.Interval)
	go s.runSimulation()
}

// Stop - 시뮬레이션 중지 (루프 종료까지 대기)
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.IsRunning {
		s.mu.Unlock()
		return
	}
	s.IsRunning = false
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	log.Println("🛑 시뮬레이터 중지")
}

// Running reports whether the loop is active.
func (s *Simulator) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.IsRunning
}

// runSimulation - 시뮬레이션 메인 루프
func (s *Simulator) runSimulation() {
	s.mu.RLock()
	stop, done := s.stopChan, s.done
	s.mu.RUnlock()
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.Step(ctx); err != nil {
				log.Printf("⚠️ 시뮬레이션 프레임 처리 실패: %v", err)
			}
		}
	}
}

// Step advances the scene by one frame and runs it through the session.
func (s *Simulator) Step(ctx context.Context) (models.FrameResult, error) {
	s.mu.Lock()
	s.moveTargets()
	s.frameIndex++
	frame := models.Frame{
		Index:      s.frameIndex,
		Width:      s.cfg.Width,
		Height:     s.cfg.Height,
		CapturedAt: time.Now(),
	}
	s.mu.Unlock()

	result, err := s.session.ProcessPipeline(ctx, Pipeline{
		Detector: s,
		Tracker:  s.tracker,
		Depth:    s.maps,
	}, frame, nil)
	if err != nil {
		return models.FrameResult{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	if s.onResult != nil {
		s.onResult(s.session.ID, result)
	}
	return result, nil
}

// moveTargets - 벽에 닿으면 반사; s.mu is held
func (s *Simulator) moveTargets() {
	w, h := float64(s.cfg.Width-1), float64(s.cfg.Height-1)
	for _, t := range s.targets {
		t.x += t.vx
		t.y += t.vy
		if t.x < 0 || t.x > w {
			t.vx = -t.vx
			t.x = min(max(t.x, 0), w)
		}
		if t.y < 0 || t.y > h {
			t.vy = -t.vy
			t.y = min(max(t.y, 0), h)
		}
	}
}

// Detect implements Detector for simulated frames.
func (s *Simulator) Detect(_ context.Context, frame models.Frame) ([]models.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	detections := make([]models.Detection, 0, len(s.targets))
	for _, t := range s.targets {
		// 장애물 뒤에 가려진 타겟은 검출되지 않음
		if !s.maps.IsPositionValid(t.x, t.y) {
			continue
		}
		cx, cy := int(t.x), int(t.y)
		box := models.BBox{
			X1: max(cx-t.halfW, 0),
			Y1: max(cy-t.halfH, 0),
			X2: min(cx+t.halfW, frame.Width-1),
			Y2: min(cy+t.halfH, frame.Height-1),
		}
		if !box.Valid() {
			continue
		}
		detections = append(detections, models.Detection{
			BBox:       box,
			Confidence: 0.9,
			ClassID:    t.classID,
			ClassName:  simClasses[t.classID],
		})
	}
	return detections, nil
}
