package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nupi-ai/whisper-runtime/internal/config"
	"github.com/nupi-ai/whisper-runtime/internal/enginefactory"
	"github.com/nupi-ai/whisper-runtime/internal/server"
	"github.com/nupi-ai/whisper-runtime/internal/telemetry"
	"github.com/nupi-ai/whisper-runtime/whisper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting whisperd",
		"listen_addr", cfg.ListenAddr,
		"model_path", cfg.ModelPath,
		"language", cfg.Language,
	)

	recorder := telemetry.NewRecorder(logger)

	eng := enginefactory.New(cfg, logger)

	modelPath := cfg.ModelPath
	if modelPath == "" {
		// The stub engine still wants a file to stat.
		tmp, err := os.CreateTemp("", "whisperd-stub-*.bin")
		if err != nil {
			logger.Error("failed to create stub model file", "error", err)
			os.Exit(1)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())
		modelPath = tmp.Name()
	}

	model, err := whisper.OpenModel(modelPath, whisper.WithEngine(eng))
	if err != nil {
		logger.Error("failed to open model", "error", err, "model_path", modelPath)
		os.Exit(1)
	}
	defer func() {
		if err := model.Close(); err != nil {
			logger.Warn("failed to close model", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(cfg, logger, model, recorder).Handler(),
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful stop timed out, forcing close", "error", err)
			_ = srv.Close()
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server terminated with error", "error", err)
		os.Exit(1)
	}

	if snapshot := recorder.Snapshot(); snapshot.TotalSessions > 0 {
		logger.Info("telemetry totals",
			"total_sessions", snapshot.TotalSessions,
			"total_process_calls", snapshot.TotalProcessCalls,
			"total_samples", snapshot.TotalSamples,
			"total_segments", snapshot.TotalSegments,
			"total_busy_rejections", snapshot.TotalBusyRejections,
		)
	}

	logger.Info("whisperd stopped")
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
