package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Recorder tracks daemon-level counters across transcription sessions.
type Recorder struct {
	log *slog.Logger

	totalSessions       atomic.Uint64
	activeSessions      atomic.Int64
	totalProcessCalls   atomic.Uint64
	totalSamples        atomic.Uint64
	totalSegments       atomic.Uint64
	totalBusyRejections atomic.Uint64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalSessions       uint64
	ActiveSessions      int64
	TotalProcessCalls   uint64
	TotalSamples        uint64
	TotalSegments       uint64
	TotalBusyRejections uint64
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log: logger.With("component", "telemetry.Recorder"),
	}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalSessions:       r.totalSessions.Load(),
		ActiveSessions:      r.activeSessions.Load(),
		TotalProcessCalls:   r.totalProcessCalls.Load(),
		TotalSamples:        r.totalSamples.Load(),
		TotalSegments:       r.totalSegments.Load(),
		TotalBusyRejections: r.totalBusyRejections.Load(),
	}
}

// SessionMetrics accumulates statistics for a single transcription session.
type SessionMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	sessionID string

	started      time.Time
	samples      int
	processCalls int
	segments     int
	busy         int
	closed       atomic.Bool
}

// StartSession initialises a SessionMetrics instance bound to the recorder.
func (r *Recorder) StartSession(sessionID string) *SessionMetrics {
	if r == nil {
		return nil
	}

	r.totalSessions.Add(1)
	r.activeSessions.Add(1)

	return &SessionMetrics{
		recorder:  r,
		log:       r.log.With("session_id", sessionID),
		sessionID: sessionID,
		started:   time.Now(),
	}
}

// RecordAudio updates counters for received audio samples.
func (s *SessionMetrics) RecordAudio(samples int) {
	if s == nil || samples <= 0 {
		return
	}
	s.samples += samples
	s.recorder.totalSamples.Add(uint64(samples))
	s.log.Debug("audio received", "samples", samples)
}

// RecordProcess updates counters for one completed engine invocation.
func (s *SessionMetrics) RecordProcess(duration time.Duration, segments int) {
	if s == nil {
		return
	}
	s.processCalls++
	s.segments += segments
	s.recorder.totalProcessCalls.Add(1)
	s.recorder.totalSegments.Add(uint64(segments))

	s.log.Debug("process completed",
		"duration_ms", duration.Milliseconds(),
		"segments", segments,
	)
}

// RecordBusy counts a busy rejection from the shared gate.
func (s *SessionMetrics) RecordBusy() {
	if s == nil {
		return
	}
	s.busy++
	s.recorder.totalBusyRejections.Add(1)
}

// Finish logs a summary and updates active session counters.
func (s *SessionMetrics) Finish(err error) {
	if s == nil {
		return
	}
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	defer s.recorder.activeSessions.Add(-1)

	duration := time.Since(s.started)
	args := []any{
		"duration_ms", duration.Milliseconds(),
		"samples", s.samples,
		"process_calls", s.processCalls,
		"segments", s.segments,
		"busy_rejections", s.busy,
	}

	if err != nil {
		s.log.Error("session completed with error", append(args, "error", err)...)
		return
	}

	s.log.Info("session completed", args...)
}
