package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_SessionCounters(t *testing.T) {
	r := NewRecorder(quietLogger())

	s1 := r.StartSession("s1")
	s2 := r.StartSession("s2")

	snap := r.Snapshot()
	if snap.TotalSessions != 2 || snap.ActiveSessions != 2 {
		t.Fatalf("after start: %+v", snap)
	}

	s1.RecordAudio(16000)
	s1.RecordProcess(50*time.Millisecond, 3)
	s1.RecordBusy()
	s2.RecordAudio(8000)

	s1.Finish(nil)
	s2.Finish(errors.New("client went away"))

	snap = r.Snapshot()
	if snap.ActiveSessions != 0 {
		t.Errorf("active sessions: got %d, want 0", snap.ActiveSessions)
	}
	if snap.TotalSamples != 24000 {
		t.Errorf("total samples: got %d, want 24000", snap.TotalSamples)
	}
	if snap.TotalProcessCalls != 1 {
		t.Errorf("process calls: got %d, want 1", snap.TotalProcessCalls)
	}
	if snap.TotalSegments != 3 {
		t.Errorf("segments: got %d, want 3", snap.TotalSegments)
	}
	if snap.TotalBusyRejections != 1 {
		t.Errorf("busy rejections: got %d, want 1", snap.TotalBusyRejections)
	}
}

func TestSessionMetrics_FinishIdempotent(t *testing.T) {
	r := NewRecorder(quietLogger())

	s := r.StartSession("s1")
	s.Finish(nil)
	s.Finish(nil)
	s.Finish(errors.New("late"))

	if snap := r.Snapshot(); snap.ActiveSessions != 0 {
		t.Errorf("active sessions: got %d, want 0", snap.ActiveSessions)
	}
}

func TestSessionMetrics_IgnoresInvalidAudio(t *testing.T) {
	r := NewRecorder(quietLogger())

	s := r.StartSession("s1")
	s.RecordAudio(0)
	s.RecordAudio(-5)
	s.Finish(nil)

	if snap := r.Snapshot(); snap.TotalSamples != 0 {
		t.Errorf("total samples: got %d, want 0", snap.TotalSamples)
	}
}

func TestNilSafety(t *testing.T) {
	var r *Recorder
	if snap := r.Snapshot(); snap != (Snapshot{}) {
		t.Errorf("nil recorder snapshot: %+v", snap)
	}

	s := r.StartSession("ignored")
	s.RecordAudio(100)
	s.RecordProcess(time.Second, 1)
	s.RecordBusy()
	s.Finish(nil)
}
