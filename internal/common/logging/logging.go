package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ============================================================
// Logger
// ============================================================

// New собирает zap логгер: консольный для development, JSON для остальных окружений.
func New(env, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Must: как New, но при ошибке откатывается на production логгер.
func Must(env, level string) *zap.Logger {
	logger, err := New(env, level)
	if err == nil {
		return logger
	}
	logger, _ = zap.NewProduction()
	logger.Warn("logger config rejected, fallback to production logger", zap.Error(err))
	return logger
}
