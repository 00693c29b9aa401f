// Package native implements the engine boundary on top of whisper.cpp.
// The real backend is compiled only with the "whispercpp" build tag; without
// it Load fails and callers fall back to the stub engine.
package native

import "errors"

// ErrUnavailable indicates the whisper.cpp backend was not compiled in.
var ErrUnavailable = errors.New("native: whisper.cpp backend unavailable (build with -tags whispercpp)")
