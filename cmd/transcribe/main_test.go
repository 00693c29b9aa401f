package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/nupi-ai/whisper-runtime/internal/stubengine"
	"github.com/nupi-ai/whisper-runtime/whisper"
)

// writeWAV encodes seconds of a 16 kHz mono sine tone.
func writeWAV(t *testing.T, path string, seconds int, freq float64) {
	t.Helper()

	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()

	data := make([]int, seconds*wantSampleRate)
	for i := range data {
		data[i] = int(0.5 * math.Sin(2*math.Pi*freq*float64(i)/wantSampleRate) * 32767)
	}

	enc := wav.NewEncoder(fh, wantSampleRate, 16, 1, 1)
	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: wantSampleRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func testModelAndParams(t *testing.T) (*whisper.Model, *whisper.Parameters) {
	t.Helper()

	modelPath := filepath.Join(t.TempDir(), "ggml-tiny.bin")
	if err := os.WriteFile(modelPath, []byte("ggml"), 0o600); err != nil {
		t.Fatal(err)
	}
	model, err := whisper.OpenModel(modelPath, whisper.WithEngine(stubengine.New()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { model.Close() })

	params, err := whisper.NewParameters(model, whisper.SamplingGreedy, nil)
	if err != nil {
		t.Fatal(err)
	}
	return model, params
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

func segmentLines(output string) int {
	count := 0
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "[") {
			count++
		}
	}
	return count
}

// Shared mode must transcribe every file in full, not just the first: the
// shared buffer's cursor never rewinds, so reusing one session across files
// would drain later files from a stale position.
func TestRunShared_MultipleFiles(t *testing.T) {
	model, params := testModelAndParams(t)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.wav")
	second := filepath.Join(dir, "second.wav")
	writeWAV(t, first, 3, 440)
	writeWAV(t, second, 2, 880)

	cmd, out := newTestCommand()
	if err := runShared(cmd, model, params, []string{first, second}); err != nil {
		t.Fatal(err)
	}

	output := out.String()
	if got := strings.Count(output, "== "); got != 2 {
		t.Fatalf("got %d file headers, want 2:\n%s", got, output)
	}
	if got := segmentLines(output); got != 5 {
		t.Fatalf("got %d segment lines, want 5 (3 + 2):\n%s", got, output)
	}

	// The second file's transcript must be complete on its own.
	_, secondOut, ok := strings.Cut(output, "== "+second)
	if !ok {
		t.Fatalf("missing header for %s:\n%s", second, output)
	}
	if got := segmentLines(secondOut); got != 2 {
		t.Fatalf("second file drained %d segments, want 2:\n%s", got, output)
	}
}

func TestRunIsolated_MultipleFiles(t *testing.T) {
	model, params := testModelAndParams(t)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.wav")
	second := filepath.Join(dir, "second.wav")
	writeWAV(t, first, 1, 440)
	writeWAV(t, second, 2, 880)

	opts.parallel = 2

	cmd, out := newTestCommand()
	if err := runIsolated(cmd, model, params, []string{first, second}); err != nil {
		t.Fatal(err)
	}

	output := out.String()
	if got := segmentLines(output); got != 3 {
		t.Fatalf("got %d segment lines, want 3 (1 + 2):\n%s", got, output)
	}
	// Outputs print in input order regardless of completion order.
	if strings.Index(output, "== "+first) > strings.Index(output, "== "+second) {
		t.Fatalf("outputs out of order:\n%s", output)
	}
}
