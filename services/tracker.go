package services

import (
	"context"
	"sync"

	"skylock-backend/models"
)

// Tracker defaults
const (
	DefaultTrackerNInit  = 3
	DefaultTrackerMaxAge = 30
	defaultIoUMatch      = 0.2
)

type trackState struct {
	track      models.Track
	hits       int
	lostFrames int
}

// IoUTracker - 바운딩 박스 겹침 기반 간단 트래커
//
// Each detection is matched greedily to the unmatched track with the highest
// IoU of the same class. A track is confirmed after nInit consecutive hits
// and removed after more than maxAge frames without a match. Ids start at 1
// and are never reused.
type IoUTracker struct {
	mu     sync.Mutex
	nInit  int
	maxAge int
	minIoU float64
	nextID int
	tracks []*trackState
}

// NewIoUTracker creates a tracker; non-positive arguments use the defaults.
func NewIoUTracker(nInit, maxAge int) *IoUTracker {
	if nInit <= 0 {
		nInit = DefaultTrackerNInit
	}
	if maxAge <= 0 {
		maxAge = DefaultTrackerMaxAge
	}
	return &IoUTracker{
		nInit:  nInit,
		maxAge: maxAge,
		minIoU: defaultIoUMatch,
		nextID: 1,
	}
}

// Update implements Tracker. Tentative tracks are returned too; only tracks
// matched in this frame are reported.
func (t *IoUTracker) Update(_ context.Context, _ models.Frame, detections []models.Detection) ([]models.Track, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	matched := make([]bool, len(t.tracks))
	out := make([]models.Track, 0, len(detections))

	for _, det := range detections {
		best, bestIoU := -1, t.minIoU
		for i, ts := range t.tracks {
			if matched[i] || ts.track.ClassID != det.ClassID {
				continue
			}
			if v := iou(ts.track.BBox, det.BBox); v >= bestIoU {
				best, bestIoU = i, v
			}
		}

		if best < 0 {
			ts := &trackState{
				track: models.Track{
					ID:         t.nextID,
					BBox:       det.BBox,
					ClassID:    det.ClassID,
					ClassName:  det.ClassName,
					Confidence: det.Confidence,
				},
				hits: 1,
			}
			t.nextID++
			ts.track.Confirmed = ts.hits >= t.nInit
			t.tracks = append(t.tracks, ts)
			matched = append(matched, true)
			out = append(out, ts.track)
			continue
		}

		ts := t.tracks[best]
		matched[best] = true
		ts.track.BBox = det.BBox
		ts.track.Confidence = det.Confidence
		ts.track.ClassName = det.ClassName
		ts.hits++
		ts.lostFrames = 0
		if ts.hits >= t.nInit {
			ts.track.Confirmed = true
		}
		out = append(out, ts.track)
	}

	// 오래 놓친 트랙 정리
	kept := t.tracks[:0]
	for i, ts := range t.tracks {
		if !matched[i] {
			ts.lostFrames++
			if !ts.track.Confirmed {
				ts.hits = 0
			}
		}
		if ts.lostFrames > t.maxAge {
			continue
		}
		kept = append(kept, ts)
	}
	for i := len(kept); i < len(t.tracks); i++ {
		t.tracks[i] = nil
	}
	t.tracks = kept

	return out, nil
}

// Len returns the number of live tracks, tentative ones included.
func (t *IoUTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tracks)
}

// iou - 두 박스의 Intersection over Union
func iou(a, b models.BBox) float64 {
	ix1, iy1 := max(a.X1, b.X1), max(a.Y1, b.Y1)
	ix2, iy2 := min(a.X2, b.X2), min(a.Y2, b.Y2)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := float64((ix2 - ix1) * (iy2 - iy1))
	areaA := float64((a.X2 - a.X1) * (a.Y2 - a.Y1))
	areaB := float64((b.X2 - b.X1) * (b.Y2 - b.Y1))
	return inter / (areaA + areaB - inter)
}
