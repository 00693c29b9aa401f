// Package enginefactory resolves which engine backend a process uses.
package enginefactory

import (
	"log/slog"

	"github.com/nupi-ai/whisper-runtime/engine"
	"github.com/nupi-ai/whisper-runtime/internal/config"
	"github.com/nupi-ai/whisper-runtime/internal/native"
	"github.com/nupi-ai/whisper-runtime/internal/stubengine"
)

// New returns the engine selected by the configuration: the native
// whisper.cpp backend when it is compiled in, otherwise the deterministic
// stub with a logged warning.
func New(cfg config.Config, logger *slog.Logger) engine.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.UseStubEngine {
		logger.Warn("stub engine forced by configuration")
		return stubengine.New()
	}

	if native.Available() {
		logger.Info("native engine selected", "model_path", cfg.ModelPath)
		return native.New()
	}

	logger.Warn("native backend disabled at build time; using stub engine",
		"model_path", cfg.ModelPath,
	)
	return stubengine.New()
}
