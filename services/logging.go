package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"skylock-backend/models"
)

// LogBuffer - 저널 로그 버퍼 (비동기 일괄 저장)
//
// AddLog never blocks on the database. Rows are written with CreateInBatches
// when the buffer reaches flushSize, on every tick, and on Stop. With a nil
// db the rows are dropped after being counted.
type LogBuffer struct {
	db        *gorm.DB
	logs      []models.PlanningLog
	mu        sync.Mutex
	flushSize int           // 일괄 저장 크기
	flushTime time.Duration // 자동 플러시 시간
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	dropped   int64
}

// NewLogBuffer creates a buffer. Call Start to begin periodic flushing.
func NewLogBuffer(db *gorm.DB, flushSize int, flushInterval time.Duration) *LogBuffer {
	if flushSize <= 0 {
		flushSize = 1
	}
	return &LogBuffer{
		db:        db,
		logs:      make([]models.PlanningLog, 0, flushSize*2),
		flushSize: flushSize,
		flushTime: flushInterval,
		stopChan:  make(chan struct{}),
	}
}

// Start - 자동 플러시 고루틴 시작
func (lb *LogBuffer) Start() {
	lb.wg.Add(1)
	go lb.autoFlush()
	log.Printf("✅ 로깅 시스템 초기화 완료 (flushSize: %d, flushInterval: %v)", lb.flushSize, lb.flushTime)
}

// autoFlush - 주기적 로그 저장
func (lb *LogBuffer) autoFlush() {
	defer lb.wg.Done()
	ticker := time.NewTicker(lb.flushTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lb.Flush()
		case <-lb.stopChan:
			lb.Flush() // 종료 시 남은 로그 저장
			return
		}
	}
}

// AddLog - 로그 버퍼에 추가 (비동기)
func (lb *LogBuffer) AddLog(entry models.PlanningLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	lb.mu.Lock()
	lb.logs = append(lb.logs, entry)
	size := len(lb.logs)
	lb.mu.Unlock()

	// 버퍼 크기가 차면 즉시 플러시
	if size >= lb.flushSize {
		go lb.Flush()
	}
}

// Pending returns the number of buffered rows.
func (lb *LogBuffer) Pending() int {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return len(lb.logs)
}

// Dropped returns how many rows were discarded for lack of a database.
func (lb *LogBuffer) Dropped() int64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.dropped
}

// Flush - 버퍼의 모든 로그를 DB에 저장
func (lb *LogBuffer) Flush() {
	lb.mu.Lock()
	if len(lb.logs) == 0 {
		lb.mu.Unlock()
		return
	}

	// 로그 복사 및 버퍼 초기화
	logsToSave := make([]models.PlanningLog, len(lb.logs))
	copy(logsToSave, lb.logs)
	lb.logs = lb.logs[:0]
	if lb.db == nil {
		lb.dropped += int64(len(logsToSave))
		lb.mu.Unlock()
		return
	}
	lb.mu.Unlock()

	// DB 일괄 저장
	if err := lb.db.CreateInBatches(logsToSave, 100).Error; err != nil {
		log.Printf("❌ 로그 저장 실패: %v", err)
		return
	}
	log.Printf("💾 로그 %d개 저장 완료", len(logsToSave))
}

// Stop - 로깅 시스템 종료 (남은 로그 저장 후 반환)
func (lb *LogBuffer) Stop() {
	lb.stopOnce.Do(func() {
		close(lb.stopChan)
		lb.wg.Wait()
		lb.Flush()
		log.Println("🛑 로깅 시스템 종료")
	})
}

// RecentLogs - 세션별 최근 로그 조회
func (lb *LogBuffer) RecentLogs(sessionID string, limit int) ([]models.PlanningLog, error) {
	if lb.db == nil {
		return []models.PlanningLog{}, nil
	}
	var logs []models.PlanningLog
	err := lb.sessionScope(sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// LogsByEventType - 이벤트 타입별 로그 조회
func (lb *LogBuffer) LogsByEventType(sessionID, eventType string, limit int) ([]models.PlanningLog, error) {
	if lb.db == nil {
		return []models.PlanningLog{}, nil
	}
	var logs []models.PlanningLog
	err := lb.sessionScope(sessionID).
		Where("event_type = ?", eventType).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// LogsByTimeRange - 시간 범위로 로그 조회
func (lb *LogBuffer) LogsByTimeRange(sessionID string, start, end time.Time, limit int) ([]models.PlanningLog, error) {
	if lb.db == nil {
		return []models.PlanningLog{}, nil
	}
	var logs []models.PlanningLog
	query := lb.sessionScope(sessionID).Where("created_at BETWEEN ? AND ?", start, end)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC").Find(&logs).Error
	return logs, err
}

// LogStats - 최근 hours 시간 동안의 이벤트 통계
func (lb *LogBuffer) LogStats(sessionID string, hours int) (models.LogStats, error) {
	stats := models.LogStats{
		EventCounts: map[string]int64{},
		TimeRange:   fmt.Sprintf("Last %d hours", hours),
	}
	if lb.db == nil {
		return stats, nil
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	if err := lb.sessionScope(sessionID).
		Model(&models.PlanningLog{}).
		Where("created_at >= ?", since).
		Count(&stats.TotalLogs).Error; err != nil {
		return stats, err
	}

	// 이벤트 타입별 카운트
	var eventCounts []struct {
		EventType string
		Count     int64
	}
	if err := lb.sessionScope(sessionID).
		Model(&models.PlanningLog{}).
		Select("event_type, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&eventCounts).Error; err != nil {
		return stats, err
	}
	for _, ec := range eventCounts {
		stats.EventCounts[ec.EventType] = ec.Count
	}
	return stats, nil
}

// sessionScope filters by session; an empty id matches every session.
func (lb *LogBuffer) sessionScope(sessionID string) *gorm.DB {
	q := lb.db
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	return q
}
