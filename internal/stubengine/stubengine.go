// Package stubengine provides a deterministic, pure-Go implementation of
// the engine boundary. It produces input-derived placeholder transcripts
// without invoking whisper.cpp, while preserving the semantics the session
// layer depends on: one shared output buffer per handle, one private buffer
// per state, and no internal serialization of Process calls.
package stubengine

import (
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nupi-ai/whisper-runtime/engine"
)

// ErrHandleClosed is reported when a freed handle is used.
var ErrHandleClosed = errors.New("stubengine: handle has been freed")

// ErrAborted is reported when the encoder-begin callback vetoes processing.
var ErrAborted = errors.New("stubengine: processing aborted by callback")

const (
	sampleRate = 16000
	// Output timestamps are in 10 ms units; one window is one second.
	windowT = 100
)

var languages = []string{"en", "de", "es", "fr", "it", "pl", "pt", "nl", "ja", "zh", "ru", "uk"}

// Option customises the stub engine, mostly to widen timing windows or
// inject failures in tests.
type Option func(*Engine)

// WithProcessDelay makes every Process call sleep before emitting output.
func WithProcessDelay(d time.Duration) Option {
	return func(e *Engine) { e.processDelay = d }
}

// WithStateFailure makes NewState fail, as a null allocation would.
func WithStateFailure() Option {
	return func(e *Engine) { e.failState = true }
}

// WithProcessError makes every Process call fail with err.
func WithProcessError(err error) Option {
	return func(e *Engine) { e.processErr = err }
}

// Engine is a deterministic engine.Engine.
type Engine struct {
	processDelay time.Duration
	failState    bool
	processErr   error
}

// New returns a stub engine.
func New(opts ...Option) *Engine {
	e := new(Engine)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load checks that the model file exists and returns a handle. Model files
// named like whisper's English-only variants ("*.en.bin") load as
// single-language models.
func (e *Engine) Load(path string) (engine.Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stubengine: stat model: %w", err)
	}
	return &handle{
		eng:          e,
		multilingual: !strings.Contains(filepath.Base(path), ".en."),
	}, nil
}

// buffer is one output buffer, shared or per-state.
type buffer struct {
	mu       sync.Mutex
	segments []engine.Segment
	detected string
}

func (b *buffer) reset() {
	b.mu.Lock()
	b.segments = nil
	b.mu.Unlock()
}

func (b *buffer) append(seg engine.Segment) {
	b.mu.Lock()
	b.segments = append(b.segments, seg)
	b.mu.Unlock()
}

func (b *buffer) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.segments)
}

func (b *buffer) at(i int) (engine.Segment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.segments) {
		return engine.Segment{}, false
	}
	return b.segments[i], true
}

type handle struct {
	eng          *Engine
	multilingual bool
	closed       atomic.Bool
	shared       buffer
}

type state struct {
	closed atomic.Bool
	buf    buffer
}

func (s *state) Close() error {
	s.closed.Store(true)
	return nil
}

func (h *handle) NewState() (engine.State, error) {
	if h.closed.Load() {
		return nil, ErrHandleClosed
	}
	if h.eng.failState {
		return nil, errors.New("stubengine: state allocation failed")
	}
	return new(state), nil
}

func (h *handle) DefaultParams(strategy engine.SamplingStrategy) engine.Params {
	p := engine.Params{
		Strategy:   strategy,
		LanguageID: engine.LangAuto,
		Threads:    4,
		BeamSize:   1,
	}
	if strategy == engine.SamplingBeamSearch {
		p.BeamSize = 5
	}
	return p
}

func (h *handle) Process(st engine.State, params engine.Params, samples []float32, cb engine.Callbacks) error {
	if h.closed.Load() {
		return ErrHandleClosed
	}
	if h.eng.processErr != nil {
		return h.eng.processErr
	}
	buf := h.buffer(st)
	if buf == nil {
		return errors.New("stubengine: state has been freed")
	}

	if h.eng.processDelay > 0 {
		time.Sleep(h.eng.processDelay)
	}
	if cb.EncoderBegin != nil && !cb.EncoderBegin() {
		return ErrAborted
	}

	segments := synthesize(samples, params)

	buf.reset()
	buf.mu.Lock()
	buf.detected = h.detectLanguage(params)
	buf.mu.Unlock()

	for i, seg := range segments {
		buf.append(seg)
		if cb.NewSegment != nil {
			cb.NewSegment(1)
		}
		if cb.Progress != nil {
			cb.Progress((i + 1) * 100 / len(segments))
		}
	}
	return nil
}

func (h *handle) buffer(st engine.State) *buffer {
	if st == nil {
		return &h.shared
	}
	s := st.(*state)
	if s.closed.Load() {
		return nil
	}
	return &s.buf
}

func (h *handle) SegmentCount(st engine.State) int {
	if h.closed.Load() {
		return 0
	}
	if buf := h.buffer(st); buf != nil {
		return buf.count()
	}
	return 0
}

func (h *handle) SegmentAt(st engine.State, i int) (engine.Segment, bool) {
	if h.closed.Load() {
		return engine.Segment{}, false
	}
	if buf := h.buffer(st); buf != nil {
		return buf.at(i)
	}
	return engine.Segment{}, false
}

func (h *handle) DetectedLanguage(st engine.State) string {
	if h.closed.Load() {
		return ""
	}
	buf := h.buffer(st)
	if buf == nil {
		return ""
	}
	buf.mu.Lock()
	defer buf.mu.Unlock()
	return buf.detected
}

func (h *handle) detectLanguage(params engine.Params) string {
	if params.LanguageID == engine.LangAuto {
		return "en"
	}
	return h.LanguageCode(params.LanguageID)
}

func (h *handle) IsMultilingual() bool {
	return !h.closed.Load() && h.multilingual
}

func (h *handle) Languages() []string {
	if h.closed.Load() {
		return nil
	}
	if !h.multilingual {
		return []string{"en"}
	}
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}

func (h *handle) LanguageID(code string) int {
	for i, lang := range languages {
		if lang == code {
			return i
		}
	}
	return -1
}

func (h *handle) LanguageCode(id int) string {
	if id < 0 || id >= len(languages) {
		return ""
	}
	return languages[id]
}

func (h *handle) Close() error {
	h.closed.Store(true)
	return nil
}

// synthesize derives segments purely from the input samples and parameters,
// so identical (samples, params) pairs always produce identical output
// regardless of which buffer receives it.
func synthesize(samples []float32, params engine.Params) []engine.Segment {
	if len(samples) == 0 {
		return nil
	}

	window := sampleRate
	if params.SingleSegment {
		window = len(samples)
	}

	var segments []engine.Segment
	for i, off := 0, 0; off < len(samples); i, off = i+1, off+window {
		end := off + window
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[off:end]

		t0 := int64(off) * windowT / sampleRate
		t1 := int64(end) * windowT / sampleRate
		text := fmt.Sprintf("segment %d rms %.4f sum %08x", i, rms(chunk), checksum(chunk))

		segments = append(segments, engine.Segment{
			Text:            text,
			T0:              t0,
			T1:              t1,
			SpeakerTurnNext: params.Diarize && i%2 == 1,
			Tokens:          tokenize(text, t0, t1),
		})
	}
	return segments
}

func tokenize(text string, t0, t1 int64) []engine.Token {
	words := strings.Fields(text)
	tokens := make([]engine.Token, len(words))
	span := (t1 - t0) / int64(len(words))
	for i, word := range words {
		tokens[i] = engine.Token{
			ID:   int(crc32.ChecksumIEEE([]byte(word)) % 50000),
			Text: " " + word,
			P:    1.0,
			T0:   t0 + int64(i)*span,
			T1:   t0 + int64(i+1)*span,
		}
	}
	return tokens
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func checksum(samples []float32) uint32 {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		bits := math.Float32bits(s)
		buf[4*i] = byte(bits)
		buf[4*i+1] = byte(bits >> 8)
		buf[4*i+2] = byte(bits >> 16)
		buf[4*i+3] = byte(bits >> 24)
	}
	return crc32.ChecksumIEEE(buf)
}
