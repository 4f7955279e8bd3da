package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"skylock-backend/algorithms"
	"skylock-backend/config"
	"skylock-backend/models"
)

// ErrDimensionMismatch is returned when collaborator output does not match the frame size.
var ErrDimensionMismatch = errors.New("depth map does not match frame dimensions")

// Journal receives lock and planning events. *LogBuffer implements it.
type Journal interface {
	AddLog(entry models.PlanningLog)
}

// FrameOrchestrator - 프레임 단위 처리 (잠금 해석 → 장애물 맵 → 경로 계획)
//
// One orchestrator owns one TargetLock. Frames are processed one at a time;
// the lock is the only state carried from frame to frame, apart from the
// previous path kept as a fallback for a cut-short search.
type FrameOrchestrator struct {
	mu        sync.Mutex
	sessionID string
	cfg       config.PlanningConfig
	lock      *TargetLock
	planner   *algorithms.Planner
	journal   Journal

	frames        int64
	prevPath      []models.Cell
	targetVisible bool
}

// NewFrameOrchestrator creates an orchestrator with its own unlocked TargetLock.
// journal may be nil.
func NewFrameOrchestrator(sessionID string, cfg config.PlanningConfig, journal Journal) *FrameOrchestrator {
	return &FrameOrchestrator{
		sessionID: sessionID,
		cfg:       cfg,
		lock:      NewTargetLock(cfg.TargetClass),
		planner:   &algorithms.Planner{MaxExpansions: cfg.MaxExpansions},
		journal:   journal,
	}
}

// LockState returns the current lock snapshot.
func (o *FrameOrchestrator) LockState() models.LockState {
	return o.lock.State()
}

// SelectTarget - 외부 요청으로 타겟 잠금
func (o *FrameOrchestrator) SelectTarget(tracks []models.Track, requestedID *int) (int, error) {
	id, err := o.lock.Select(tracks, requestedID)
	if err != nil {
		return 0, err
	}
	o.mu.Lock()
	_, o.targetVisible = models.FindTrack(tracks, id)
	frame := o.frames
	o.mu.Unlock()

	log.Printf("🎯 [%s] 타겟 잠금: ID %d", o.sessionID, id)
	o.record(models.PlanningLog{FrameIndex: frame, EventType: models.EventTargetLocked, TargetID: id})
	return id, nil
}

// ClearTarget - 외부 요청으로 잠금 해제
func (o *FrameOrchestrator) ClearTarget() {
	prev := o.lock.State()
	o.lock.Clear()

	o.mu.Lock()
	o.targetVisible = false
	o.prevPath = nil
	frame := o.frames
	o.mu.Unlock()

	if prev.Locked {
		log.Printf("🔓 [%s] 타겟 잠금 해제: ID %d", o.sessionID, prev.TargetID)
		o.record(models.PlanningLog{FrameIndex: frame, EventType: models.EventTargetCleared, TargetID: prev.TargetID})
	}
}

// ProcessFrame runs one full cycle. Planning failures never surface as
// errors; only malformed input does.
func (o *FrameOrchestrator) ProcessFrame(ctx context.Context, in models.FrameInput) (models.FrameResult, error) {
	began := time.Now()
	if err := validateFrameInput(in); err != nil {
		return models.FrameResult{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.frames++
	result := models.FrameResult{
		FrameIndex: o.frames,
		Tracks:     in.Tracks,
		Path:       []models.Cell{},
		Waypoints:  []models.Cell{},
		Start:      startCell(in),
		CreatedAt:  began,
	}

	var (
		target *models.Track
		grid   *algorithms.Grid
	)
	resolveTarget := func() error {
		if in.RequestedID != nil && !o.lock.IsLocked() {
			o.selectLocked(in.Tracks, in.RequestedID)
		}
		target, _ = o.lock.Resolve(in.Tracks)
		return nil
	}
	buildGrid := func() error {
		var err error
		grid, err = algorithms.BuildTraversabilityGrid(in.Depth, o.cfg.ObstacleThreshold)
		return err
	}

	if o.cfg.ParallelStages {
		var eg errgroup.Group
		eg.Go(resolveTarget)
		eg.Go(buildGrid)
		if err := eg.Wait(); err != nil {
			return models.FrameResult{}, err
		}
	} else {
		if err := resolveTarget(); err != nil {
			return models.FrameResult{}, err
		}
		if err := buildGrid(); err != nil {
			return models.FrameResult{}, err
		}
	}

	result.Lock = o.lock.State()
	result.LockedTarget = target
	result.Diagnostics.FreeCells = grid.FreeCount()
	o.noteVisibility(result.Lock, target)

	if target == nil {
		if result.Lock.Locked {
			result.Diagnostics.Outcome = models.OutcomeTargetUnresolved
		} else {
			result.Diagnostics.Outcome = models.OutcomeUnlocked
		}
		o.prevPath = nil
		result.Diagnostics.FrameDuration = time.Since(began)
		return result, nil
	}

	goal := target.BBox.Center()
	result.Goal = &goal
	if d, ok := TargetDepth(in.Depth, target.BBox); ok {
		result.TargetDepth = &d
	}

	o.plan(ctx, grid, target, &result)

	result.Diagnostics.FrameDuration = time.Since(began)
	return result, nil
}

// plan runs the planner and folds its outcome into result.
func (o *FrameOrchestrator) plan(ctx context.Context, grid *algorithms.Grid, target *models.Track, result *models.FrameResult) {
	planCtx := ctx
	if o.cfg.PlanTimeout > 0 {
		var cancel context.CancelFunc
		planCtx, cancel = context.WithTimeout(ctx, o.cfg.PlanTimeout)
		defer cancel()
	}

	planStart := time.Now()
	res, err := o.planner.Plan(planCtx, grid, result.Start, *result.Goal)
	result.Diagnostics.PlanDuration = time.Since(planStart)
	result.Diagnostics.Expanded = res.Expanded

	entry := models.PlanningLog{
		FrameIndex:     result.FrameIndex,
		TargetID:       target.ID,
		TargetClass:    target.ClassName,
		GoalX:          result.Goal.X,
		GoalY:          result.Goal.Y,
		Expanded:       res.Expanded,
		DurationMicros: result.Diagnostics.PlanDuration.Microseconds(),
	}
	if result.TargetDepth != nil {
		entry.TargetDepth = *result.TargetDepth
	}

	switch {
	case err != nil:
		// ErrInvalidEndpoint: start or goal off-grid or blocked
		log.Printf("⚠️ [%s] 프레임 %d 경로 계획 생략: %v", o.sessionID, result.FrameIndex, err)
		result.Diagnostics.Outcome = models.OutcomeInvalidEndpoint
		entry.EventType = models.EventInvalidEndpoint
		o.prevPath = nil

	case res.Partial:
		path := res.Path
		if len(path) <= 1 && len(o.prevPath) > 0 {
			path = o.prevPath
		}
		result.Path = clonePath(path)
		result.Partial = true
		result.Diagnostics.Outcome = models.OutcomePartial
		entry.EventType = models.EventPathPartial
		o.prevPath = clonePath(path)

	case len(res.Path) == 0:
		result.Diagnostics.Outcome = models.OutcomePathNotFound
		entry.EventType = models.EventPathNotFound
		o.prevPath = nil

	default:
		result.Path = res.Path
		result.Diagnostics.Outcome = models.OutcomePlanned
		entry.EventType = models.EventPathPlanned
		o.prevPath = clonePath(res.Path)
	}

	result.Waypoints = SimplifyPath(result.Path, o.cfg.SimplifyEpsilon)
	entry.PathLength = PathLength(result.Path)
	entry.WaypointCount = len(result.Waypoints)
	o.record(entry)
}

// selectLocked is the frame-path variant of SelectTarget; o.mu is held.
func (o *FrameOrchestrator) selectLocked(tracks []models.Track, requestedID *int) {
	id, err := o.lock.Select(tracks, requestedID)
	if err != nil {
		// ErrNoCandidates: retry on a later frame
		log.Printf("⚠️ [%s] 타겟 선택 보류 (ID %d): %v", o.sessionID, *requestedID, err)
		return
	}
	_, o.targetVisible = models.FindTrack(tracks, id)
	log.Printf("🎯 [%s] 타겟 잠금: ID %d", o.sessionID, id)
	o.record(models.PlanningLog{FrameIndex: o.frames, EventType: models.EventTargetLocked, TargetID: id})
}

// noteVisibility records lost/reacquired transitions; o.mu is held.
func (o *FrameOrchestrator) noteVisibility(state models.LockState, target *models.Track) {
	if !state.Locked {
		o.targetVisible = false
		return
	}
	visible := target != nil
	switch {
	case o.targetVisible && !visible:
		log.Printf("👀 [%s] 타겟 ID %d 시야에서 사라짐 (잠금 유지)", o.sessionID, state.TargetID)
		o.record(models.PlanningLog{FrameIndex: o.frames, EventType: models.EventTargetLost, TargetID: state.TargetID})
	case !o.targetVisible && visible:
		o.record(models.PlanningLog{FrameIndex: o.frames, EventType: models.EventTargetReacquired, TargetID: state.TargetID})
	}
	o.targetVisible = visible
}

func (o *FrameOrchestrator) record(entry models.PlanningLog) {
	if o.journal == nil {
		return
	}
	entry.SessionID = o.sessionID
	entry.CreatedAt = time.Now()
	o.journal.AddLog(entry)
}

// startCell - 기준점 (기본값: 프레임 중심)
func startCell(in models.FrameInput) models.Cell {
	if in.Start != nil {
		return *in.Start
	}
	return models.Cell{X: in.Width / 2, Y: in.Height / 2}
}

func validateFrameInput(in models.FrameInput) error {
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrDimensionMismatch, in.Width, in.Height)
	}
	if in.Depth.Width != in.Width || in.Depth.Height != in.Height {
		return fmt.Errorf("%w: frame %dx%d, depth %dx%d",
			ErrDimensionMismatch, in.Width, in.Height, in.Depth.Width, in.Depth.Height)
	}
	if err := in.Depth.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	return nil
}

func clonePath(path []models.Cell) []models.Cell {
	out := make([]models.Cell, len(path))
	copy(out, path)
	return out
}
