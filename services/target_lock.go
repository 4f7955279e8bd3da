package services

import (
	"errors"
	"sync"
	"time"

	"skylock-backend/models"
)

// ErrNoCandidates is returned when a target is selected from an empty track set.
var ErrNoCandidates = errors.New("no candidate tracks to select from")

// NoClassFilter disables the class restriction of the default selection policy.
const NoClassFilter = -1

// TargetLock - 잠긴 타겟 ID를 보관하는 상태 머신
//
// UNLOCKED → LOCKED(id) only through Select, LOCKED(id) → UNLOCKED only
// through Clear. A frame without the locked id leaves the lock untouched.
type TargetLock struct {
	mu          sync.Mutex
	locked      bool
	targetID    int
	lockedAt    time.Time
	lastSeen    time.Time
	missed      int
	targetClass int
	now         func() time.Time
}

// NewTargetLock creates an unlocked TargetLock. targetClass restricts the
// default selection policy to one class id; pass NoClassFilter to disable.
func NewTargetLock(targetClass int) *TargetLock {
	return &TargetLock{
		targetClass: targetClass,
		now:         time.Now,
	}
}

// Select - 타겟 잠금 설정
//
// With a requested id that id is locked, whether or not it is visible in
// this frame. Without one the first confirmed track (of the configured class,
// if any) is chosen, falling back to the first track. Selecting while locked
// is an explicit re-target request and replaces the lock.
func (l *TargetLock) Select(tracks []models.Track, requestedID *int) (int, error) {
	if len(tracks) == 0 {
		return 0, ErrNoCandidates
	}

	id := 0
	if requestedID != nil {
		id = *requestedID
	} else {
		t, ok := l.defaultCandidate(tracks)
		if !ok {
			return 0, ErrNoCandidates
		}
		id = t.ID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.locked = true
	l.targetID = id
	l.lockedAt = now
	l.missed = 0
	l.lastSeen = time.Time{}
	if _, ok := models.FindTrack(tracks, id); ok {
		l.lastSeen = now
	}
	return id, nil
}

func (l *TargetLock) defaultCandidate(tracks []models.Track) (models.Track, bool) {
	candidates := tracks
	if l.targetClass != NoClassFilter {
		candidates = make([]models.Track, 0, len(tracks))
		for _, t := range tracks {
			if t.ClassID == l.targetClass {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) == 0 {
			return models.Track{}, false
		}
	}
	for _, t := range candidates {
		if t.Confirmed {
			return t, true
		}
	}
	return candidates[0], true
}

// Resolve - 이번 프레임에서 잠긴 타겟 찾기
//
// Returns (nil, false) when unlocked or when the locked id is absent.
func (l *TargetLock) Resolve(tracks []models.Track) (*models.Track, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		return nil, false
	}

	t, ok := models.FindTrack(tracks, l.targetID)
	if !ok {
		l.missed++
		return nil, false
	}
	l.lastSeen = l.now()
	l.missed = 0
	return t, true
}

// Clear - 잠금 해제 (외부 요청 전용)
func (l *TargetLock) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.locked = false
	l.targetID = 0
	l.lockedAt = time.Time{}
	l.lastSeen = time.Time{}
	l.missed = 0
}

// IsLocked reports whether an identity is held.
func (l *TargetLock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// State returns a snapshot of the lock.
func (l *TargetLock) State() models.LockState {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		return models.LockState{}
	}
	return models.LockState{
		Locked:       true,
		TargetID:     l.targetID,
		LockedAt:     l.lockedAt,
		LastSeen:     l.lastSeen,
		MissedFrames: l.missed,
	}
}
