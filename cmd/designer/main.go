package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"label-designer/internal/common/config"
	"label-designer/internal/common/health"
	"label-designer/internal/common/logging"
	"label-designer/internal/common/metrics"
	"label-designer/internal/common/middleware"
	"label-designer/internal/designer/handlers"
	"label-designer/internal/designer/repository"
	"label-designer/internal/designer/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ============================================================
// Designer Service
// ============================================================

func main() {
	cfg := config.Load()

	logger := logging.Must(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		logger.Fatal("init db", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		logger.Fatal("register metrics", zap.Error(err))
	}

	policy, ok := service.ParseSnapPolicy(cfg.SnapPolicy)
	if !ok {
		logger.Warn("unknown snap policy, using last-match", zap.String("snap_policy", cfg.SnapPolicy))
	}

	sessions := service.NewSessionManager(cfg.SessionTTL, time.Minute, service.WithSnapPolicy(policy))
	sessions.OnEvicted(func(id string) {
		logger.Debug("session closed", zap.String("session", id))
		m.SetSessions(sessions.Count())
	})

	designerHandler := handlers.NewDesignerHandler(sessions, repo, m, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Label Designer",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(middleware.Logger(logger))
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.New(2*time.Second, db).Register(app)

	app.Get("/metrics", m.Handler())

	// ============================================================
	// Designer Routes
	// ============================================================

	designerHandler.Register(app.Group("/api/v1"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	go func() {
		logger.Info("starting designer service", zap.String("addr", addr), zap.String("env", cfg.Environment))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
