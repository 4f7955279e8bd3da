package services

import (
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"skylock-backend/config"
	"skylock-backend/models"
)

// OpenDatabase - 설정된 드라이버로 저널 DB 연결
//
// Returns (nil, nil) for the "none" driver; the journal then only logs.
func OpenDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverNone:
		log.Println("⚠️ DB_DRIVER=none: 저널은 메모리에서만 버려집니다")
		return nil, nil
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.MySQLDSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	if err := db.AutoMigrate(&models.PlanningLog{}); err != nil {
		return nil, fmt.Errorf("마이그레이션 실패: %w", err)
	}

	switch cfg.Driver {
	case config.DriverMySQL:
		log.Println("✅ MySQL 연결 및 마이그레이션 완료")
		log.Printf("📡 연결 정보: %s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)
	default:
		log.Printf("✅ SQLite 연결 및 마이그레이션 완료 (%s)", cfg.SQLitePath)
	}
	return db, nil
}

// CloseDatabase closes the underlying connection pool. nil is a no-op.
func CloseDatabase(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("❌ DB 핸들 조회 실패: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("❌ DB 종료 실패: %v", err)
	}
}
