package enginefactory

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nupi-ai/whisper-runtime/internal/config"
	"github.com/nupi-ai/whisper-runtime/internal/native"
	"github.com/nupi-ai/whisper-runtime/internal/stubengine"
)

func TestNew_StubForced(t *testing.T) {
	cfg := config.Config{UseStubEngine: true}

	eng := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, ok := eng.(*stubengine.Engine); !ok {
		t.Fatalf("expected stub engine, got %T", eng)
	}
}

func TestNew_FallsBackWhenNativeUnavailable(t *testing.T) {
	if native.Available() {
		t.Skip("native backend compiled in")
	}

	eng := New(config.Config{ModelPath: "/models/ggml-base.bin"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, ok := eng.(*stubengine.Engine); !ok {
		t.Fatalf("expected stub engine fallback, got %T", eng)
	}
}
