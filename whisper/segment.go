package whisper

import (
	"fmt"
	"strings"
	"time"

	"github.com/nupi-ai/whisper-runtime/engine"
)

// SegmentCallback receives segments in real time during Process.
type SegmentCallback func(Segment)

// ProgressCallback reports decode progress in percent during Process.
type ProgressCallback func(int)

// EncoderBeginCallback is consulted before each encoder run; returning
// false aborts processing.
type EncoderBeginCallback func() bool

// Segment is the text result of one recognised span. Segments are immutable
// snapshots; they are never mutated after emission.
type Segment struct {
	// Index of the segment in the output buffer.
	Num int

	// Start and end timestamps of the segment.
	Start, End time.Duration

	// Recognised text, whitespace-trimmed.
	Text string

	// Decoded tokens in order.
	Tokens []Token

	// SpeakerTurnNext is true when the next segment is predicted to be a
	// speaker turn. Requires a tinydiarize model and SetDiarize(true).
	SpeakerTurnNext bool
}

func (s Segment) String() string {
	return fmt.Sprintf("[%s --> %s] %s", s.Start.Truncate(time.Millisecond), s.End.Truncate(time.Millisecond), s.Text)
}

// Token is a single decoded text or special token.
type Token struct {
	Id         int
	Text       string
	P          float32
	Start, End time.Duration
}

// Native timestamps are in 10 ms units.
func duration10x(t int64) time.Duration {
	return time.Duration(t) * 10 * time.Millisecond
}

func toSegment(raw engine.Segment, n int) Segment {
	tokens := make([]Token, len(raw.Tokens))
	for i, t := range raw.Tokens {
		tokens[i] = Token{
			Id:    t.ID,
			Text:  t.Text,
			P:     t.P,
			Start: duration10x(t.T0),
			End:   duration10x(t.T1),
		}
	}
	return Segment{
		Num:             n,
		Start:           duration10x(raw.T0),
		End:             duration10x(raw.T1),
		Text:            strings.TrimSpace(raw.Text),
		Tokens:          tokens,
		SpeakerTurnNext: raw.SpeakerTurnNext,
	}
}

// readSegment pulls segment n from the buffer selected by st.
func readSegment(h engine.Handle, st engine.State, n int) (Segment, bool) {
	raw, ok := h.SegmentAt(st, n)
	if !ok {
		return Segment{}, false
	}
	return toSegment(raw, n), true
}

// segmentStreamer adapts the push-style native NewSegment callback to the
// public SegmentCallback, reading each appended segment back out of the
// buffer selected by st.
func segmentStreamer(h engine.Handle, st engine.State, cb SegmentCallback) func(int) {
	if cb == nil {
		return nil
	}
	return func(appended int) {
		total := h.SegmentCount(st)
		for i := total - appended; i < total; i++ {
			if seg, ok := readSegment(h, st, i); ok {
				cb(seg)
			}
		}
	}
}
