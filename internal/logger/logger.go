package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

var log *slog.Logger

// Init настраивает глобальный логгер.
// env: "development", "test" или "production". LOG_LEVEL перекрывает уровень по умолчанию.
func Init(env string) {
	opts := &slog.HandlerOptions{
		Level:     levelFor(env),
		AddSource: env == "development",
	}

	var handler slog.Handler
	switch env {
	case "test":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "development":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log = slog.New(handler).With("service", "investoriq")
	slog.SetDefault(log)
}

func levelFor(env string) slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	switch env {
	case "test":
		return slog.LevelError
	case "development":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func getLogger() *slog.Logger {
	if log == nil {
		Init("development")
	}
	return log
}

func Info(msg string, args ...any) {
	getLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	getLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// Fatal пишет ошибку и завершает процесс
func Fatal(msg string, args ...any) {
	getLogger().Error(msg, args...)
	os.Exit(1)
}

// With - логгер с постоянными полями
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// DBLog логирует операцию со схемой или пулом соединений
func DBLog(operation, target string, duration time.Duration, err error) {
	fields := []any{
		"operation", operation,
		"target", target,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		getLogger().Error("database operation failed", fields...)
		return
	}
	getLogger().Info("database operation", fields...)
}

// PaymentLog логирует исход сверки платёжной сессии.
// outcome: credited, already_credited, pending, lost_race
func PaymentLog(provider, sessionID, outcome string, err error) {
	fields := []any{
		"provider", provider,
		"session_id", sessionID,
		"outcome", outcome,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		getLogger().Error("payment reconciliation failed", fields...)
		return
	}
	getLogger().Info("payment reconciled", fields...)
}

// AnalysisLog логирует переход анализа между шагами
func AnalysisLog(analysisID, step, status string, err error) {
	fields := []any{
		"analysis_id", analysisID,
		"step", step,
		"status", status,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		getLogger().Warn("analysis step failed", fields...)
		return
	}
	getLogger().Debug("analysis step", fields...)
}
