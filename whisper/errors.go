package whisper

import "errors"

var (
	// ErrModelLoadFailed is returned when the model file is missing,
	// unreadable, or native initialisation fails.
	ErrModelLoadFailed = errors.New("whisper: unable to load model")

	// ErrModelRequired is returned by constructors invoked without a model.
	ErrModelRequired = errors.New("whisper: model is required")

	// ErrParametersRequired is returned by constructors invoked without
	// parameters.
	ErrParametersRequired = errors.New("whisper: parameters are required")

	// ErrModelClosed is returned by any operation reaching for a model
	// handle that has been closed. Terminal for the affected session.
	ErrModelClosed = errors.New("whisper: model has been closed")

	// ErrStateCreationFailed is returned when the engine cannot allocate an
	// isolated per-session state.
	ErrStateCreationFailed = errors.New("whisper: unable to create state")

	// ErrUnsupportedLanguage is returned for language codes the model does
	// not recognise.
	ErrUnsupportedLanguage = errors.New("whisper: unsupported language")

	// ErrNotMultilingual is returned when a language is forced on a
	// single-language model.
	ErrNotMultilingual = errors.New("whisper: model is not multilingual")

	// ErrProcessingFailed wraps errors reported by the native engine during
	// Process.
	ErrProcessingFailed = errors.New("whisper: processing failed")

	// ErrSharedBusy is returned when a SharedSession loses the single-flight
	// gate to another shared session on the same model. Recoverable: retry
	// after backoff or switch to an IsolatedSession.
	ErrSharedBusy = errors.New("whisper: shared session busy")
)
