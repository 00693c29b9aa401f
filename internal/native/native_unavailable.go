//go:build !whispercpp

package native

import "github.com/nupi-ai/whisper-runtime/engine"

// Available reports whether the native whisper backend is compiled in.
func Available() bool { return false }

// New returns the native engine. Without the whispercpp build tag every
// Load fails with ErrUnavailable.
func New() engine.Engine { return unavailableEngine{} }

type unavailableEngine struct{}

func (unavailableEngine) Load(string) (engine.Handle, error) {
	return nil, ErrUnavailable
}
