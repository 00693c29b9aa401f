//go:build whispercpp

package native

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo CXXFLAGS: -std=c++17 -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/whisper.cpp/build -L${SRCDIR}/../../third_party/whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../third_party/whisper.cpp/build/src -lwhisper -lstdc++ -lm

#include <stdlib.h>
#include "include/whisper.h"

bool whisperRuntimeEncoderBegin(struct whisper_context * ctx, struct whisper_state * state, void * user_data);
void whisperRuntimeNewSegment(struct whisper_context * ctx, struct whisper_state * state, int n_new, void * user_data);
void whisperRuntimeProgress(struct whisper_context * ctx, struct whisper_state * state, int progress, void * user_data);
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/nupi-ai/whisper-runtime/engine"
)

// Available reports whether the native whisper backend is compiled in.
func Available() bool { return true }

// New returns the whisper.cpp engine.
func New() engine.Engine { return nativeEngine{} }

type nativeEngine struct{}

func (nativeEngine) Load(path string) (engine.Handle, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	cParams := C.whisper_context_default_params()
	ctx := C.whisper_init_from_file_with_params(cPath, cParams)
	if ctx == nil {
		return nil, fmt.Errorf("native: failed to initialise context for %s", path)
	}
	return &nativeHandle{ctx: ctx}, nil
}

type nativeHandle struct {
	mu  sync.Mutex
	ctx *C.struct_whisper_context
}

type nativeState struct {
	mu sync.Mutex
	st *C.struct_whisper_state
}

func (s *nativeState) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != nil {
		C.whisper_free_state(s.st)
		s.st = nil
	}
	return nil
}

func (h *nativeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx != nil {
		C.whisper_free(h.ctx)
		h.ctx = nil
	}
	return nil
}

func (h *nativeHandle) NewState() (engine.State, error) {
	st := C.whisper_init_state(h.ctx)
	if st == nil {
		return nil, errors.New("native: failed to initialise state")
	}
	return &nativeState{st: st}, nil
}

func (h *nativeHandle) DefaultParams(strategy engine.SamplingStrategy) engine.Params {
	cStrategy := C.enum_whisper_sampling_strategy(C.WHISPER_SAMPLING_GREEDY)
	if strategy == engine.SamplingBeamSearch {
		cStrategy = C.enum_whisper_sampling_strategy(C.WHISPER_SAMPLING_BEAM_SEARCH)
	}
	cp := C.whisper_full_default_params(cStrategy)
	return engine.Params{
		Strategy:            strategy,
		LanguageID:          engine.LangAuto,
		Threads:             int(cp.n_threads),
		Temperature:         float32(cp.temperature),
		TemperatureFallback: float32(cp.temperature_inc),
		BeamSize:            int(cp.beam_search.beam_size),
		EntropyThreshold:    float32(cp.entropy_thold),
		TokenThreshold:      float32(cp.thold_pt),
		TokenSumThreshold:   float32(cp.thold_ptsum),
		MaxContext:          int(cp.n_max_text_ctx),
		AudioCtx:            int(cp.audio_ctx),
	}
}

// rawState unwraps the engine state, or nil for the shared buffer.
func rawState(st engine.State) *C.struct_whisper_state {
	if st == nil {
		return nil
	}
	ns := st.(*nativeState)
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.st
}

// cleanup collects C allocations that must outlive whisper_full.
type cleanup struct {
	ptrs []unsafe.Pointer
}

func (c *cleanup) cstring(s string) *C.char {
	p := C.CString(s)
	c.ptrs = append(c.ptrs, unsafe.Pointer(p))
	return p
}

func (c *cleanup) free() {
	for _, p := range c.ptrs {
		C.free(p)
	}
}

func (h *nativeHandle) Process(st engine.State, params engine.Params, samples []float32, cb engine.Callbacks) error {
	if len(samples) == 0 {
		return nil
	}

	var alloc cleanup
	defer alloc.free()

	cp := C.whisper_full_default_params(strategyOf(params))
	cp.print_progress = C.bool(false)
	cp.print_realtime = C.bool(false)
	cp.print_timestamps = C.bool(false)
	cp.print_special = C.bool(false)

	cp.translate = C.bool(params.Translate)
	cp.no_context = C.bool(params.NoContext)
	cp.single_segment = C.bool(params.SingleSegment)
	cp.split_on_word = C.bool(params.SplitOnWord)
	cp.token_timestamps = C.bool(params.TokenTimestamps)
	cp.tdrz_enable = C.bool(params.Diarize)

	if params.Threads > 0 {
		cp.n_threads = C.int(params.Threads)
	}
	cp.temperature = C.float(params.Temperature)
	cp.temperature_inc = C.float(params.TemperatureFallback)
	if params.Strategy == engine.SamplingBeamSearch && params.BeamSize > 0 {
		cp.beam_search.beam_size = C.int(params.BeamSize)
	}
	cp.entropy_thold = C.float(params.EntropyThreshold)
	cp.thold_pt = C.float(params.TokenThreshold)
	cp.thold_ptsum = C.float(params.TokenSumThreshold)
	cp.offset_ms = C.int(params.OffsetMS)
	cp.duration_ms = C.int(params.DurationMS)
	cp.max_len = C.int(params.MaxSegmentLength)
	cp.max_tokens = C.int(params.MaxTokensPerSegment)
	cp.n_max_text_ctx = C.int(params.MaxContext)
	cp.audio_ctx = C.int(params.AudioCtx)

	if params.InitialPrompt != "" {
		cp.initial_prompt = alloc.cstring(params.InitialPrompt)
	}

	if params.LanguageID == engine.LangAuto {
		cp.language = alloc.cstring("auto")
		cp.detect_language = C.bool(true)
	} else {
		cp.language = C.whisper_lang_str(C.int(params.LanguageID))
	}

	if params.VAD.Enabled {
		cp.vad = C.bool(true)
		if params.VAD.ModelPath != "" {
			cp.vad_model_path = alloc.cstring(params.VAD.ModelPath)
		}
		cp.vad_params.threshold = C.float(params.VAD.Threshold)
		cp.vad_params.min_speech_duration_ms = C.int(params.VAD.MinSpeechMS)
		cp.vad_params.min_silence_duration_ms = C.int(params.VAD.MinSilenceMS)
		cp.vad_params.max_speech_duration_s = C.float(params.VAD.MaxSpeechSec)
		cp.vad_params.speech_pad_ms = C.int(params.VAD.SpeechPadMS)
		cp.vad_params.samples_overlap = C.float(params.VAD.SamplesOverlap)
	}

	handle := cgo.NewHandle(&cb)
	defer handle.Delete()
	userData := unsafe.Pointer(&handle)

	if cb.EncoderBegin != nil {
		cp.encoder_begin_callback = (C.whisper_encoder_begin_callback)(C.whisperRuntimeEncoderBegin)
		cp.encoder_begin_callback_user_data = userData
	}
	if cb.NewSegment != nil {
		cp.new_segment_callback = (C.whisper_new_segment_callback)(C.whisperRuntimeNewSegment)
		cp.new_segment_callback_user_data = userData
	}
	if cb.Progress != nil {
		cp.progress_callback = (C.whisper_progress_callback)(C.whisperRuntimeProgress)
		cp.progress_callback_user_data = userData
	}

	cSamples := (*C.float)(unsafe.Pointer(&samples[0]))
	nSamples := C.int(len(samples))

	var ret C.int
	if raw := rawState(st); raw != nil {
		ret = C.whisper_full_with_state(h.ctx, raw, cp, cSamples, nSamples)
	} else {
		ret = C.whisper_full(h.ctx, cp, cSamples, nSamples)
	}
	if ret != 0 {
		return fmt.Errorf("native: inference failed with code %d", int(ret))
	}
	return nil
}

func strategyOf(params engine.Params) C.enum_whisper_sampling_strategy {
	if params.Strategy == engine.SamplingBeamSearch {
		return C.enum_whisper_sampling_strategy(C.WHISPER_SAMPLING_BEAM_SEARCH)
	}
	return C.enum_whisper_sampling_strategy(C.WHISPER_SAMPLING_GREEDY)
}

func (h *nativeHandle) SegmentCount(st engine.State) int {
	if raw := rawState(st); raw != nil {
		return int(C.whisper_full_n_segments_from_state(raw))
	}
	return int(C.whisper_full_n_segments(h.ctx))
}

func (h *nativeHandle) SegmentAt(st engine.State, i int) (engine.Segment, bool) {
	if i < 0 || i >= h.SegmentCount(st) {
		return engine.Segment{}, false
	}

	ci := C.int(i)
	seg := engine.Segment{}
	if raw := rawState(st); raw != nil {
		seg.Text = C.GoString(C.whisper_full_get_segment_text_from_state(raw, ci))
		seg.T0 = int64(C.whisper_full_get_segment_t0_from_state(raw, ci))
		seg.T1 = int64(C.whisper_full_get_segment_t1_from_state(raw, ci))
		seg.SpeakerTurnNext = bool(C.whisper_full_get_segment_speaker_turn_next_from_state(raw, ci))

		n := int(C.whisper_full_n_tokens_from_state(raw, ci))
		seg.Tokens = make([]engine.Token, n)
		for j := 0; j < n; j++ {
			cj := C.int(j)
			data := C.whisper_full_get_token_data_from_state(raw, ci, cj)
			seg.Tokens[j] = engine.Token{
				ID:   int(C.whisper_full_get_token_id_from_state(raw, ci, cj)),
				Text: C.GoString(C.whisper_full_get_token_text_from_state(h.ctx, raw, ci, cj)),
				P:    float32(data.p),
				T0:   int64(data.t0),
				T1:   int64(data.t1),
			}
		}
		return seg, true
	}

	seg.Text = C.GoString(C.whisper_full_get_segment_text(h.ctx, ci))
	seg.T0 = int64(C.whisper_full_get_segment_t0(h.ctx, ci))
	seg.T1 = int64(C.whisper_full_get_segment_t1(h.ctx, ci))

	n := int(C.whisper_full_n_tokens(h.ctx, ci))
	seg.Tokens = make([]engine.Token, n)
	for j := 0; j < n; j++ {
		cj := C.int(j)
		data := C.whisper_full_get_token_data(h.ctx, ci, cj)
		seg.Tokens[j] = engine.Token{
			ID:   int(C.whisper_full_get_token_id(h.ctx, ci, cj)),
			Text: C.GoString(C.whisper_full_get_token_text(h.ctx, ci, cj)),
			P:    float32(data.p),
			T0:   int64(data.t0),
			T1:   int64(data.t1),
		}
	}
	return seg, true
}

func (h *nativeHandle) DetectedLanguage(st engine.State) string {
	var id C.int
	if raw := rawState(st); raw != nil {
		id = C.whisper_full_lang_id_from_state(raw)
	} else {
		id = C.whisper_full_lang_id(h.ctx)
	}
	if id < 0 {
		return ""
	}
	return C.GoString(C.whisper_lang_str(id))
}

func (h *nativeHandle) IsMultilingual() bool {
	return C.whisper_is_multilingual(h.ctx) != 0
}

func (h *nativeHandle) Languages() []string {
	max := int(C.whisper_lang_max_id())
	result := make([]string, 0, max)
	for i := 0; i <= max; i++ {
		str := C.whisper_lang_str(C.int(i))
		if C.whisper_lang_id(str) >= 0 {
			result = append(result, C.GoString(str))
		}
	}
	return result
}

func (h *nativeHandle) LanguageID(code string) int {
	cCode := C.CString(code)
	defer C.free(unsafe.Pointer(cCode))
	return int(C.whisper_lang_id(cCode))
}

func (h *nativeHandle) LanguageCode(id int) string {
	return C.GoString(C.whisper_lang_str(C.int(id)))
}

func callbacksFromHandle(userData unsafe.Pointer) *engine.Callbacks {
	if userData == nil {
		return nil
	}
	handlePtr := (*cgo.Handle)(userData)
	if handlePtr == nil || *handlePtr == 0 {
		return nil
	}
	cb, ok := handlePtr.Value().(*engine.Callbacks)
	if !ok {
		return nil
	}
	return cb
}

//export whisperRuntimeEncoderBegin
func whisperRuntimeEncoderBegin(ctx *C.struct_whisper_context, state *C.struct_whisper_state, userData unsafe.Pointer) C.bool {
	if cb := callbacksFromHandle(userData); cb != nil && cb.EncoderBegin != nil {
		return C.bool(cb.EncoderBegin())
	}
	return C.bool(true)
}

//export whisperRuntimeNewSegment
func whisperRuntimeNewSegment(ctx *C.struct_whisper_context, state *C.struct_whisper_state, nNew C.int, userData unsafe.Pointer) {
	if cb := callbacksFromHandle(userData); cb != nil && cb.NewSegment != nil {
		cb.NewSegment(int(nNew))
	}
}

//export whisperRuntimeProgress
func whisperRuntimeProgress(ctx *C.struct_whisper_context, state *C.struct_whisper_state, progress C.int, userData unsafe.Pointer) {
	if cb := callbacksFromHandle(userData); cb != nil && cb.Progress != nil {
		cb.Progress(int(progress))
	}
}
