package whisper

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/nupi-ai/whisper-runtime/engine"
)

// SharedSession transcribes through the model's single shared output
// buffer. Process calls on shared sessions of the same model are serialized
// by the process-wide Gate: at most one enters the native call at a time,
// the rest observe ErrSharedBusy immediately.
type SharedSession struct {
	n      int
	model  *Model
	params *Parameters
	closed atomic.Bool
}

// NewSharedSession creates a session backed by the model's shared buffer.
func NewSharedSession(model *Model, params *Parameters) (*SharedSession, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	if params == nil {
		return nil, ErrParametersRequired
	}
	if _, err := model.guard.handle(); err != nil {
		return nil, err
	}

	return &SharedSession{
		model:  model,
		params: params,
	}, nil
}

// Process runs inference over mono 16 kHz samples. The shared buffer is
// guarded by the gate keyed on the model handle; losing the gate returns
// ErrSharedBusy without blocking. The gate is released on every exit path.
func (s *SharedSession) Process(
	samples []float32,
	onEncoderBegin EncoderBeginCallback,
	onSegment SegmentCallback,
	onProgress ProgressCallback,
) error {
	if s.closed.Load() {
		return ErrModelClosed
	}
	h, err := s.model.guard.handle()
	if err != nil {
		return err
	}

	k := modelGateKey(s.model)
	if !gate().Acquire(k) {
		return ErrSharedBusy
	}
	defer gate().Release(k)

	// Only one segment may be buffered at a time when streaming through a
	// per-segment callback.
	if onSegment != nil {
		s.params.SetSingleSegment(true)
	}

	if err := h.Process(nil, s.params.snapshot(), samples, engine.Callbacks{
		EncoderBegin: onEncoderBegin,
		NewSegment:   segmentStreamer(h, nil, onSegment),
		Progress:     onProgress,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	return nil
}

// NextSegment returns the next segment produced by the last Process call,
// or io.EOF once the buffer is exhausted.
func (s *SharedSession) NextSegment() (Segment, error) {
	if s.closed.Load() {
		return Segment{}, ErrModelClosed
	}
	h, err := s.model.guard.handle()
	if err != nil {
		return Segment{}, err
	}

	seg, ok := readSegment(h, nil, s.n)
	if !ok {
		return Segment{}, io.EOF
	}
	s.n++
	return seg, nil
}

// DetectedLanguage returns the language decided by the last Process call,
// or "" when unavailable.
func (s *SharedSession) DetectedLanguage() string {
	if s.closed.Load() {
		return ""
	}
	h, err := s.model.guard.handle()
	if err != nil {
		return ""
	}
	return h.DetectedLanguage(nil)
}

// Params returns the session's parameters.
func (s *SharedSession) Params() *Parameters {
	return s.params
}

// Close marks the session closed. Idempotent and safe against concurrent
// Process calls; the model is unaffected and may still be used by other
// sessions.
func (s *SharedSession) Close() error {
	s.closed.Store(true)
	return nil
}
