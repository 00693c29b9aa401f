package whisper_test

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nupi-ai/whisper-runtime/internal/stubengine"
	"github.com/nupi-ai/whisper-runtime/whisper"
)

// helperModelFile creates an empty model file for the stub engine to stat.
func helperModelFile(tb testing.TB, name string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte("ggml"), 0o600); err != nil {
		tb.Fatalf("write model file: %v", err)
	}
	return path
}

// helperModel opens a multilingual stub-backed model.
func helperModel(tb testing.TB, opts ...stubengine.Option) (*whisper.Model, func()) {
	tb.Helper()
	model, err := whisper.OpenModel(
		helperModelFile(tb, "ggml-tiny.bin"),
		whisper.WithEngine(stubengine.New(opts...)),
	)
	if err != nil {
		tb.Fatalf("open model: %v", err)
	}
	return model, func() { _ = model.Close() }
}

// helperMonoModel opens an English-only stub-backed model.
func helperMonoModel(tb testing.TB) (*whisper.Model, func()) {
	tb.Helper()
	model, err := whisper.OpenModel(
		helperModelFile(tb, "ggml-tiny.en.bin"),
		whisper.WithEngine(stubengine.New()),
	)
	if err != nil {
		tb.Fatalf("open model: %v", err)
	}
	return model, func() { _ = model.Close() }
}

func helperParams(tb testing.TB, model *whisper.Model, configure whisper.ParamsConfigure) *whisper.Parameters {
	tb.Helper()
	params, err := whisper.NewParameters(model, whisper.SamplingGreedy, configure)
	if err != nil {
		tb.Fatalf("build parameters: %v", err)
	}
	return params
}

// synthSamples produces seconds of a 16 kHz mono sine wave.
func synthSamples(seconds, freq float64) []float32 {
	n := int(seconds * 16000)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/16000))
	}
	return samples
}

// collectTexts drains a segment cursor into the ordered list of texts.
func collectTexts(tb testing.TB, next func() (whisper.Segment, error)) []string {
	tb.Helper()
	var texts []string
	for {
		segment, err := next()
		if errors.Is(err, io.EOF) {
			return texts
		}
		if err != nil {
			tb.Fatalf("next segment: %v", err)
		}
		texts = append(texts, segment.Text)
	}
}
