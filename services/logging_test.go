package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skylock-backend/config"
	"skylock-backend/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PlanningLog{}))
	t.Cleanup(func() { CloseDatabase(db) })
	return db
}

func entry(session, event string, at time.Time) models.PlanningLog {
	return models.PlanningLog{SessionID: session, EventType: event, CreatedAt: at, TargetID: 7}
}

func TestLogBufferFlushAndQuery(t *testing.T) {
	db := openTestDB(t)
	lb := NewLogBuffer(db, 100, time.Hour)

	base := time.Now().Add(-time.Minute)
	lb.AddLog(entry("a", models.EventTargetLocked, base))
	lb.AddLog(entry("a", models.EventPathPlanned, base.Add(time.Second)))
	lb.AddLog(entry("a", models.EventPathPlanned, base.Add(2*time.Second)))
	lb.AddLog(entry("b", models.EventPathNotFound, base.Add(3*time.Second)))
	assert.Equal(t, 4, lb.Pending())

	lb.Flush()
	assert.Zero(t, lb.Pending())

	recent, err := lb.RecentLogs("a", 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, models.EventPathPlanned, recent[0].EventType)
	assert.Equal(t, models.EventTargetLocked, recent[2].EventType)

	all, err := lb.RecentLogs("", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].SessionID)

	planned, err := lb.LogsByEventType("a", models.EventPathPlanned, 10)
	require.NoError(t, err)
	assert.Len(t, planned, 2)

	ranged, err := lb.LogsByTimeRange("", base.Add(500*time.Millisecond), base.Add(2500*time.Millisecond), 0)
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	stats, err := lb.LogStats("a", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalLogs)
	assert.Equal(t, map[string]int64{
		models.EventTargetLocked: 1,
		models.EventPathPlanned:  2,
	}, stats.EventCounts)
	assert.Equal(t, "Last 1 hours", stats.TimeRange)
}

func TestLogBufferFlushesWhenFull(t *testing.T) {
	db := openTestDB(t)
	lb := NewLogBuffer(db, 3, time.Hour)

	for i := 0; i < 3; i++ {
		lb.AddLog(entry("a", models.EventPathPlanned, time.Time{}))
	}

	require.Eventually(t, func() bool {
		var n int64
		db.Model(&models.PlanningLog{}).Count(&n)
		return n == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogBufferStopFlushesRemainder(t *testing.T) {
	db := openTestDB(t)
	lb := NewLogBuffer(db, 100, time.Hour)
	lb.Start()

	lb.AddLog(entry("a", models.EventTargetCleared, time.Time{}))
	lb.Stop()
	lb.Stop()

	var rows []models.PlanningLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].CreatedAt.IsZero())
}

func TestLogBufferWithoutDatabase(t *testing.T) {
	t.Parallel()

	lb := NewLogBuffer(nil, 10, time.Hour)
	lb.AddLog(entry("a", models.EventPathPlanned, time.Time{}))
	lb.AddLog(entry("a", models.EventPathPlanned, time.Time{}))
	lb.Flush()

	assert.Zero(t, lb.Pending())
	assert.Equal(t, int64(2), lb.Dropped())

	logs, err := lb.RecentLogs("a", 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	stats, err := lb.LogStats("a", 24)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalLogs)
	assert.Empty(t, stats.EventCounts)
}

func TestOrchestratorWritesJournalRows(t *testing.T) {
	db := openTestDB(t)
	lb := NewLogBuffer(db, 100, time.Hour)

	o := NewFrameOrchestrator("sess", planningConfig(true), lb)
	_, err := o.SelectTarget([]models.Track{cornerTarget()}, intPtr(7))
	require.NoError(t, err)
	in := frameInput(models.UniformDepthMap(5, 5, 0), []models.Track{cornerTarget()}, nil)
	_, err = o.ProcessFrame(t.Context(), in)
	require.NoError(t, err)
	lb.Flush()

	planned, err := lb.LogsByEventType("sess", models.EventPathPlanned, 10)
	require.NoError(t, err)
	require.Len(t, planned, 1)
	row := planned[0]
	assert.Equal(t, 7, row.TargetID)
	assert.Equal(t, "person", row.TargetClass)
	assert.Equal(t, 4, row.GoalX)
	assert.Equal(t, 4, row.GoalY)
	assert.Equal(t, 4, row.PathLength)
	assert.Equal(t, 2, row.WaypointCount)
	assert.Equal(t, int64(1), row.FrameIndex)
}

func TestOpenDatabaseNoneDriver(t *testing.T) {
	t.Parallel()

	db, err := OpenDatabase(config.DatabaseConfig{Driver: config.DriverNone})
	require.NoError(t, err)
	assert.Nil(t, db)
	CloseDatabase(db)

	_, err = OpenDatabase(config.DatabaseConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestOpenDatabaseSQLiteFile(t *testing.T) {
	t.Parallel()

	db, err := OpenDatabase(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "planner.db"),
	})
	require.NoError(t, err)
	defer CloseDatabase(db)

	assert.True(t, db.Migrator().HasTable(&models.PlanningLog{}))
}
