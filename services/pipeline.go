package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"skylock-backend/models"
)

// Detector - 프레임에서 객체 검출
type Detector interface {
	Detect(ctx context.Context, frame models.Frame) ([]models.Detection, error)
}

// Tracker assigns persistent ids. Implementations may return tentative
// tracks; the pipeline keeps only confirmed ones.
type Tracker interface {
	Update(ctx context.Context, frame models.Frame, detections []models.Detection) ([]models.Track, error)
}

// DepthEstimator - 프레임별 정규화 깊이 추정
type DepthEstimator interface {
	Estimate(ctx context.Context, frame models.Frame) (models.DepthMap, error)
}

// Pipeline - 검출 → 추적 → 깊이 → 오케스트레이터
type Pipeline struct {
	Detector     Detector
	Tracker      Tracker
	Depth        DepthEstimator
	Orchestrator *FrameOrchestrator
}

// Process runs the collaborators for one frame and hands their output to
// the orchestrator. Detection plus tracking and depth estimation run
// concurrently.
func (p *Pipeline) Process(ctx context.Context, frame models.Frame, requestedID *int) (models.FrameResult, error) {
	var (
		tracks []models.Track
		depth  models.DepthMap
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		detections, err := p.Detector.Detect(egCtx, frame)
		if err != nil {
			return fmt.Errorf("detect: %w", err)
		}
		tracked, err := p.Tracker.Update(egCtx, frame, detections)
		if err != nil {
			return fmt.Errorf("track: %w", err)
		}
		tracks = models.ConfirmedTracks(tracked)
		return nil
	})
	eg.Go(func() error {
		var err error
		depth, err = p.Depth.Estimate(egCtx, frame)
		if err != nil {
			return fmt.Errorf("depth: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return models.FrameResult{}, err
	}

	return p.Orchestrator.ProcessFrame(ctx, models.FrameInput{
		Width:       frame.Width,
		Height:      frame.Height,
		Tracks:      tracks,
		Depth:       depth,
		RequestedID: requestedID,
	})
}
