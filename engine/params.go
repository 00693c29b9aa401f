package engine

// SamplingStrategy selects the native decoding strategy.
type SamplingStrategy int

const (
	SamplingGreedy SamplingStrategy = iota
	SamplingBeamSearch
)

// LangAuto is the sentinel language id that enables detection.
const LangAuto = -1

// Params mirrors the native whisper_full_params surface consumed by
// Handle.Process. It is a plain value; callers hand each Process call its
// own copy.
type Params struct {
	Strategy   SamplingStrategy
	LanguageID int
	Translate  bool
	Threads    int

	Temperature         float32
	TemperatureFallback float32
	BeamSize            int
	EntropyThreshold    float32
	TokenThreshold      float32
	TokenSumThreshold   float32

	OffsetMS   int
	DurationMS int

	MaxSegmentLength    int
	MaxTokensPerSegment int
	MaxContext          int
	AudioCtx            int

	InitialPrompt   string
	NoContext       bool
	SingleSegment   bool
	SplitOnWord     bool
	TokenTimestamps bool

	// TinyDiarize speaker-turn detection.
	Diarize bool

	VAD VADParams
}

// VADParams configures voice activity detection for a Process call.
type VADParams struct {
	Enabled        bool
	ModelPath      string
	Threshold      float32
	MinSpeechMS    int
	MinSilenceMS   int
	MaxSpeechSec   float32
	SpeechPadMS    int
	SamplesOverlap float32
}
