package whisper

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/nupi-ai/whisper-runtime/engine"
)

// IsolatedSession owns a private native scratch state allocated from the
// model at construction. Independent isolated sessions on the same model
// may Process fully in parallel; no gate is involved because no state is
// shared.
type IsolatedSession struct {
	n      int
	model  *Model
	st     engine.State
	params *Parameters
	closed atomic.Bool
}

// NewIsolatedSession creates a session with its own engine state.
func NewIsolatedSession(model *Model, params *Parameters) (*IsolatedSession, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	if params == nil {
		return nil, ErrParametersRequired
	}
	h, err := model.guard.handle()
	if err != nil {
		return nil, err
	}

	st, err := h.NewState()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCreationFailed, err)
	}

	return &IsolatedSession{
		model:  model,
		st:     st,
		params: params,
	}, nil
}

// Process runs inference over mono 16 kHz samples against this session's
// own state.
func (s *IsolatedSession) Process(
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

	if onSegment != nil {
		s.params.SetSingleSegment(true)
	}

	if err := h.Process(s.st, s.params.snapshot(), samples, engine.Callbacks{
		EncoderBegin: onEncoderBegin,
		NewSegment:   segmentStreamer(h, s.st, onSegment),
		Progress:     onProgress,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	return nil
}

// NextSegment returns the next segment produced by the last Process call,
// or io.EOF once the state's buffer is exhausted.
func (s *IsolatedSession) NextSegment() (Segment, error) {
	if s.closed.Load() {
		return Segment{}, ErrModelClosed
	}
	h, err := s.model.guard.handle()
	if err != nil {
		return Segment{}, err
	}

	seg, ok := readSegment(h, s.st, s.n)
	if !ok {
		return Segment{}, io.EOF
	}
	s.n++
	return seg, nil
}

// DetectedLanguage returns the language decided by the last Process call on
// this session's state, or "" when unavailable.
func (s *IsolatedSession) DetectedLanguage() string {
	if s.closed.Load() {
		return ""
	}
	h, err := s.model.guard.handle()
	if err != nil {
		return ""
	}
	return h.DetectedLanguage(s.st)
}

// Params returns the session's parameters.
func (s *IsolatedSession) Params() *Parameters {
	return s.params
}

// Close frees the owned state exactly once. Idempotent, and safe to call
// after the parent model has been closed.
func (s *IsolatedSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.st.Close()
}
