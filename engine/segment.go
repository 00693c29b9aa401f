package engine

// Segment is one raw transcription segment as read from a native output
// buffer. Timestamps are in native units of 10 ms (centiseconds).
type Segment struct {
	Text            string
	T0              int64
	T1              int64
	SpeakerTurnNext bool
	Tokens          []Token
}

// Token is one raw decoded token.
type Token struct {
	ID   int
	Text string
	P    float32
	T0   int64
	T1   int64
}
