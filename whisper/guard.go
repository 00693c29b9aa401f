package whisper

import (
	"sync/atomic"

	"github.com/nupi-ai/whisper-runtime/engine"
)

// handleGuard wraps an engine handle with a closed flag so use after free
// surfaces as ErrModelClosed instead of undefined behavior. The guard does
// not serialize access; handle validity is the only guarantee it makes.
type handleGuard struct {
	closed atomic.Bool
	h      engine.Handle
}

func newHandleGuard(h engine.Handle) *handleGuard {
	return &handleGuard{h: h}
}

// handle returns the wrapped engine handle while it is still open.
func (g *handleGuard) handle() (engine.Handle, error) {
	if g.closed.Load() {
		return nil, ErrModelClosed
	}
	return g.h, nil
}

func (g *handleGuard) isClosed() bool {
	return g.closed.Load()
}

// close frees the native handle exactly once. Repeat calls are no-ops.
func (g *handleGuard) close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}
	return g.h.Close()
}
