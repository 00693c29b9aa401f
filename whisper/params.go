package whisper

import (
	"runtime"
	"time"

	"github.com/nupi-ai/whisper-runtime/engine"
)

// SamplingStrategy selects the decoding strategy for a Parameters value.
type SamplingStrategy = engine.SamplingStrategy

const (
	SamplingGreedy     = engine.SamplingGreedy
	SamplingBeamSearch = engine.SamplingBeamSearch
)

// ParamsConfigure customises a Parameters value during construction.
type ParamsConfigure func(*Parameters)

// Parameters is the decoding configuration consumed by both session kinds.
// Build it once, configure it before Process, and share it freely across
// sessions; each Process call snapshots the value, so a setter called while
// another session is mid-flight cannot corrupt that call.
type Parameters struct {
	model *Model
	p     engine.Params
}

// NewParameters builds a Parameters value from the model's native defaults
// for the given strategy, applies the library defaults, then the optional
// configure callback.
func NewParameters(model *Model, strategy SamplingStrategy, configure ParamsConfigure) (*Parameters, error) {
	if model == nil {
		return nil, ErrModelRequired
	}
	h, err := model.guard.handle()
	if err != nil {
		return nil, err
	}

	params := &Parameters{
		model: model,
		p:     h.DefaultParams(strategy),
	}
	params.applyDefaults()

	if configure != nil {
		configure(params)
	}
	return params, nil
}

func (w *Parameters) applyDefaults() {
	w.SetTranslate(false)
	w.SetThreads(uint(runtime.NumCPU()))
	w.SetNoContext(true)
}

// SetLanguage selects the transcription language. "auto" enables detection;
// any other code is validated against the model's language table.
func (w *Parameters) SetLanguage(lang string) error {
	h, err := w.model.guard.handle()
	if err != nil {
		return err
	}
	if lang == "auto" {
		w.p.LanguageID = engine.LangAuto
		return nil
	}
	if !h.IsMultilingual() {
		return ErrNotMultilingual
	}
	id := h.LanguageID(lang)
	if id < 0 {
		return ErrUnsupportedLanguage
	}
	w.p.LanguageID = id
	return nil
}

// Language reports the configured language code, inverting the detect
// sentinel back to "auto".
func (w *Parameters) Language() string {
	if w.p.LanguageID == engine.LangAuto {
		return "auto"
	}
	h, err := w.model.guard.handle()
	if err != nil {
		return ""
	}
	return h.LanguageCode(w.p.LanguageID)
}

func (w *Parameters) SetTranslate(v bool)              { w.p.Translate = v }
func (w *Parameters) SetThreads(v uint)                { w.p.Threads = int(v) }
func (w *Parameters) SetOffset(d time.Duration)        { w.p.OffsetMS = int(d.Milliseconds()) }
func (w *Parameters) SetDuration(d time.Duration)      { w.p.DurationMS = int(d.Milliseconds()) }
func (w *Parameters) SetTemperature(t float32)         { w.p.Temperature = t }
func (w *Parameters) SetTemperatureFallback(t float32) { w.p.TemperatureFallback = t }
func (w *Parameters) SetBeamSize(n int)                { w.p.BeamSize = n }
func (w *Parameters) SetEntropyThold(t float32)        { w.p.EntropyThreshold = t }
func (w *Parameters) SetTokenThreshold(t float32)      { w.p.TokenThreshold = t }
func (w *Parameters) SetTokenSumThreshold(t float32)   { w.p.TokenSumThreshold = t }
func (w *Parameters) SetMaxSegmentLength(n uint)       { w.p.MaxSegmentLength = int(n) }
func (w *Parameters) SetMaxTokensPerSegment(n uint)    { w.p.MaxTokensPerSegment = int(n) }
func (w *Parameters) SetMaxContext(n int)              { w.p.MaxContext = n }
func (w *Parameters) SetAudioCtx(n uint)               { w.p.AudioCtx = int(n) }
func (w *Parameters) SetInitialPrompt(prompt string)   { w.p.InitialPrompt = prompt }
func (w *Parameters) SetNoContext(v bool)              { w.p.NoContext = v }
func (w *Parameters) SetSingleSegment(v bool)          { w.p.SingleSegment = v }
func (w *Parameters) SetSplitOnWord(v bool)            { w.p.SplitOnWord = v }
func (w *Parameters) SetTokenTimestamps(v bool)        { w.p.TokenTimestamps = v }

// Diarization (tinydiarize)
func (w *Parameters) SetDiarize(v bool) { w.p.Diarize = v }

// Voice Activity Detection
func (w *Parameters) SetVAD(v bool)                    { w.p.VAD.Enabled = v }
func (w *Parameters) SetVADModelPath(p string)         { w.p.VAD.ModelPath = p }
func (w *Parameters) SetVADThreshold(t float32)        { w.p.VAD.Threshold = t }
func (w *Parameters) SetVADMinSpeechMs(ms int)         { w.p.VAD.MinSpeechMS = ms }
func (w *Parameters) SetVADMinSilenceMs(ms int)        { w.p.VAD.MinSilenceMS = ms }
func (w *Parameters) SetVADMaxSpeechSec(s float32)     { w.p.VAD.MaxSpeechSec = s }
func (w *Parameters) SetVADSpeechPadMs(ms int)         { w.p.VAD.SpeechPadMS = ms }
func (w *Parameters) SetVADSamplesOverlap(sec float32) { w.p.VAD.SamplesOverlap = sec }

func (w *Parameters) Threads() int { return w.p.Threads }

// snapshot returns the engine-level value handed to one Process call.
func (w *Parameters) snapshot() engine.Params {
	return w.p
}
