package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverNone   = "none"
)

// PlanningConfig - 프레임별 경로 계획 설정
type PlanningConfig struct {
	ObstacleThreshold float64       // depth >= threshold → 장애물
	MaxExpansions     int           // 0이면 무제한
	PlanTimeout       time.Duration // 0이면 무제한
	SimplifyEpsilon   float64       // 웨이포인트 간소화 허용 오차 (픽셀)
	ParallelStages    bool          // 잠금 해석과 장애물 맵 생성을 병렬 실행
	TargetClass       int           // 기본 선택 정책 클래스 필터, -1이면 전체
}

// DatabaseConfig - 저널 DB 설정
type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
}

// JournalConfig - 버퍼 로그 설정
type JournalConfig struct {
	FlushSize     int
	FlushInterval time.Duration
}

// SimulatorConfig - 시뮬레이터 설정
type SimulatorConfig struct {
	Enabled   bool
	Width     int
	Height    int
	Obstacles int
	Targets   int
	Seed      int64
	Interval  time.Duration
}

// Config - 서버 전체 설정
type Config struct {
	Port               string
	CORSOrigins        string
	SessionIdleTimeout time.Duration
	Planning           PlanningConfig
	Database           DatabaseConfig
	Journal            JournalConfig
	Simulator          SimulatorConfig
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Port:               "3000",
		CORSOrigins:        "http://localhost:5173, http://localhost:3000",
		SessionIdleTimeout: 10 * time.Minute,
		Planning: PlanningConfig{
			ObstacleThreshold: 0.2,
			MaxExpansions:     20000,
			PlanTimeout:       50 * time.Millisecond,
			SimplifyEpsilon:   1.0,
			ParallelStages:    true,
			TargetClass:       -1,
		},
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			SQLitePath: "planner.db",
			Port:       3306,
		},
		Journal: JournalConfig{
			FlushSize:     50,
			FlushInterval: 10 * time.Second,
		},
		Simulator: SimulatorConfig{
			Width:     160,
			Height:    120,
			Obstacles: 6,
			Targets:   3,
			Interval:  100 * time.Millisecond,
		},
	}
}

// LoadDotEnv loads .env if present. A missing file is not an error.
func LoadDotEnv(filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil {
		log.Println("⚠️  .env 파일을 찾을 수 없습니다. 환경 변수만 사용합니다.")
	}
}

// Load - 환경 변수에서 설정 읽기
func Load() (Config, error) {
	return loadFrom(os.Getenv)
}

func loadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()
	r := envReader{getenv: getenv}

	cfg.Port = r.String("SERVER_PORT", cfg.Port)
	cfg.CORSOrigins = r.String("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.SessionIdleTimeout = r.Duration("SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)

	p := &cfg.Planning
	p.ObstacleThreshold = r.Float("OBSTACLE_THRESHOLD", p.ObstacleThreshold)
	p.MaxExpansions = r.Int("PLANNER_MAX_EXPANSIONS", p.MaxExpansions)
	p.PlanTimeout = r.Duration("PLAN_TIMEOUT", p.PlanTimeout)
	p.SimplifyEpsilon = r.Float("PATH_SIMPLIFY_EPSILON", p.SimplifyEpsilon)
	p.ParallelStages = r.Bool("PARALLEL_STAGES", p.ParallelStages)
	p.TargetClass = r.Int("TARGET_CLASS", p.TargetClass)

	db := &cfg.Database
	db.Driver = strings.ToLower(r.String("DB_DRIVER", db.Driver))
	db.SQLitePath = r.String("SQLITE_PATH", db.SQLitePath)
	db.Host = r.String("MYSQL_HOST", db.Host)
	db.Port = r.Int("MYSQL_PORT", db.Port)
	db.User = r.String("MYSQL_USER", db.User)
	db.Password = r.String("MYSQL_PASSWORD", db.Password)
	db.Name = r.String("MYSQL_DATABASE", db.Name)

	cfg.Journal.FlushSize = r.Int("LOG_FLUSH_SIZE", cfg.Journal.FlushSize)
	cfg.Journal.FlushInterval = r.Duration("LOG_FLUSH_INTERVAL", cfg.Journal.FlushInterval)

	s := &cfg.Simulator
	s.Enabled = r.Bool("SIMULATOR_ENABLED", s.Enabled)
	s.Width = r.Int("SIM_WIDTH", s.Width)
	s.Height = r.Int("SIM_HEIGHT", s.Height)
	s.Obstacles = r.Int("SIM_OBSTACLES", s.Obstacles)
	s.Targets = r.Int("SIM_TARGETS", s.Targets)
	s.Seed = int64(r.Int("SIM_SEED", int(s.Seed)))
	s.Interval = r.Duration("SIM_INTERVAL", s.Interval)

	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges once at startup.
func (c Config) Validate() error {
	p := c.Planning
	if p.ObstacleThreshold <= 0 || p.ObstacleThreshold > 1 {
		return fmt.Errorf("OBSTACLE_THRESHOLD must be in (0, 1], got %v", p.ObstacleThreshold)
	}
	if p.MaxExpansions < 0 {
		return fmt.Errorf("PLANNER_MAX_EXPANSIONS must be >= 0, got %d", p.MaxExpansions)
	}
	if p.PlanTimeout < 0 {
		return fmt.Errorf("PLAN_TIMEOUT must be >= 0, got %v", p.PlanTimeout)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMySQL:
		d := c.Database
		if d.Host == "" || d.User == "" || d.Password == "" || d.Name == "" {
			return fmt.Errorf("MySQL 환경 변수가 모두 설정되지 않았습니다: MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE")
		}
	case DriverNone:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	if c.Journal.FlushSize <= 0 {
		return fmt.Errorf("LOG_FLUSH_SIZE must be > 0, got %d", c.Journal.FlushSize)
	}
	if c.Journal.FlushInterval <= 0 {
		return fmt.Errorf("LOG_FLUSH_INTERVAL must be > 0, got %v", c.Journal.FlushInterval)
	}

	if c.Simulator.Enabled {
		s := c.Simulator
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("SIM_WIDTH/SIM_HEIGHT must be positive, got %dx%d", s.Width, s.Height)
		}
		if s.Interval <= 0 {
			return fmt.Errorf("SIM_INTERVAL must be > 0, got %v", s.Interval)
		}
	}
	return nil
}

// MySQLDSN builds the go-sql-driver DSN.
func (d DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// envReader keeps the first parse error so Load can report it once.
type envReader struct {
	getenv func(string) string
	err    error
}

func (r *envReader) String(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) Int(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) Float(key string, def float64) float64 {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *envReader) Bool(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *envReader) Duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
