package whisper

import (
	"fmt"

	"github.com/nupi-ai/whisper-runtime/engine"
	"github.com/nupi-ai/whisper-runtime/internal/native"
)

// Model owns one loaded engine handle. It may be shared by any number of
// sessions; its lifetime is independent of every one of them.
type Model struct {
	path  string
	guard *handleGuard
}

// ModelOption customises OpenModel.
type ModelOption func(*modelOptions)

type modelOptions struct {
	engine engine.Engine
}

// WithEngine makes the model load through the given engine instead of the
// native whisper.cpp backend.
func WithEngine(e engine.Engine) ModelOption {
	return func(o *modelOptions) {
		o.engine = e
	}
}

// OpenModel loads the model at path and wraps it in a Model. The engine's
// Load is the single authority on why a model cannot load; its cause is
// wrapped in ErrModelLoadFailed.
func OpenModel(path string, opts ...ModelOption) (*Model, error) {
	var o modelOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = native.New()
	}

	h, err := o.engine.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoadFailed, err)
	}

	return &Model{
		path:  path,
		guard: newHandleGuard(h),
	}, nil
}

// Close releases the native handle. Idempotent; repeat calls are no-ops and
// never error. Sessions created from this model observe ErrModelClosed on
// their next operation.
func (m *Model) Close() error {
	return m.guard.close()
}

// IsClosed reports whether Close has been called.
func (m *Model) IsClosed() bool {
	return m.guard.isClosed()
}

// IsMultilingual reports whether the model supports language selection and
// translation. It returns false once the model is closed.
func (m *Model) IsMultilingual() bool {
	h, err := m.guard.handle()
	if err != nil {
		return false
	}
	return h.IsMultilingual()
}

// Languages returns the language codes the model recognises, or nil once
// the model is closed.
func (m *Model) Languages() []string {
	h, err := m.guard.handle()
	if err != nil {
		return nil
	}
	return h.Languages()
}

func (m *Model) String() string {
	return fmt.Sprintf("<whisper.model path=%q closed=%v>", m.path, m.IsClosed())
}
