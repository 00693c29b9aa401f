// Package engine defines the boundary between the session layer and the
// native whisper.cpp inference backend. Implementations wrap one loaded
// model and expose no concurrency guarantees of their own; serialization
// is the caller's responsibility.
package engine

// Engine loads model files and produces handles.
type Engine interface {
	// Load initialises a model from the file at path. A nil native handle
	// is reported as an error, never returned.
	Load(path string) (Handle, error)
}

// Handle is one loaded model instance. A nil State argument targets the
// handle's single shared output buffer; a non-nil State targets that
// state's private buffer. Process blocks the calling goroutine until the
// native call returns and cannot be interrupted mid-flight.
type Handle interface {
	// NewState allocates an isolated scratch state for this model.
	NewState() (State, error)

	// DefaultParams returns the native decoding defaults for the strategy.
	DefaultParams(strategy SamplingStrategy) Params

	// Process runs inference over mono 16 kHz samples and fills the output
	// buffer selected by st.
	Process(st State, params Params, samples []float32, cb Callbacks) error

	// SegmentCount reports how many segments the selected buffer holds.
	SegmentCount(st State) int

	// SegmentAt reads segment i from the selected buffer. ok is false when
	// i is out of range.
	SegmentAt(st State, i int) (seg Segment, ok bool)

	// DetectedLanguage returns the language code decided by the last
	// Process call on the selected buffer, or "" if none.
	DetectedLanguage(st State) string

	// IsMultilingual reports whether the model supports more than one
	// language.
	IsMultilingual() bool

	// Languages lists the language codes the model recognises.
	Languages() []string

	// LanguageID resolves a language code to the model's internal id,
	// or -1 when the code is unknown.
	LanguageID(code string) int

	// LanguageCode is the inverse of LanguageID.
	LanguageCode(id int) string

	// Close frees the native model. Idempotent.
	Close() error
}

// State is an isolated per-session scratch buffer. Close is idempotent and
// does not require the owning Handle to still be open.
type State interface {
	Close() error
}

// Callbacks carries the optional push-style hooks invoked during Process.
type Callbacks struct {
	// EncoderBegin is called before each encoder run; returning false
	// aborts processing.
	EncoderBegin func() bool

	// NewSegment is called when segments are appended to the output
	// buffer, with the number of segments just added.
	NewSegment func(appended int)

	// Progress reports decode progress in percent.
	Progress func(pct int)
}
