package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"skylock-backend/config"
	"skylock-backend/handlers"
	"skylock-backend/models"
	"skylock-backend/services"
)

func main() {
	// .env 파일 로드
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 설정 로드 실패: %v", err)
	}

	// 저널 DB 연결 (sqlite / mysql / none)
	db, err := services.OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("❌ DB 초기화 실패: %v", err)
	}
	defer services.CloseDatabase(db)

	// 로깅 시스템 초기화
	journal := services.NewLogBuffer(db, cfg.Journal.FlushSize, cfg.Journal.FlushInterval)
	journal.Start()
	defer journal.Stop() // 종료 시 남은 로그 저장

	sessions := services.NewSessionManager(cfg.Planning, journal)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.RunCleanup(ctx, cfg.SessionIdleTimeout, time.Minute)

	// 시뮬레이터 (선택)
	var sim *services.Simulator
	if cfg.Simulator.Enabled {
		s, err := sessions.Create(cfg.Simulator.Width, cfg.Simulator.Height)
		if err != nil {
			log.Fatalf("❌ 시뮬레이터 세션 생성 실패: %v", err)
		}
		sim = services.NewSimulator(cfg.Simulator, s, func(sessionID string, result models.FrameResult) {
			handlers.Manager.BroadcastToSession(sessionID, models.MessageTypeFrameResult, result)
		})
		sim.Start()
		defer sim.Stop()
		log.Printf("🧪 시뮬레이터 세션: %s", s.ID)
	}

	handlers.Init(sessions, journal, cfg.Planning, sim)

	app := fiber.New()

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Skylock 경로 계획 서버가 실행 중입니다.")
	})

	handlers.RegisterRoutes(app)

	// 종료 시그널 처리
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("🛑 서버 종료 중...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ 서버 종료 실패: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("🚀 서버 시작: http://localhost%s", addr)
	log.Printf("📡 WebSocket: ws://localhost%s/websocket/sessions/:id", addr)
	log.Printf("💾 로그 API: GET http://localhost%s/api/logs/*", addr)
	if err := app.Listen(addr); err != nil {
		log.Printf("❌ 서버 오류: %v", err)
	}
}
