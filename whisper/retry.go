package whisper

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryOptions bounds ProcessWithRetry.
type RetryOptions struct {
	// InitialBackoff is the first wait after a busy rejection.
	// Defaults to 10ms.
	InitialBackoff time.Duration

	// MaxRetries caps the number of re-attempts after the first call.
	// Defaults to 5.
	MaxRetries uint64
}

// ProcessWithRetry calls session.Process and retries with fibonacci backoff
// while the shared gate is contended. Every other error, including
// ErrModelClosed, is returned immediately. The gate itself stays fail-fast;
// waiting is an explicit caller choice made here.
func ProcessWithRetry(
	ctx context.Context,
	session *SharedSession,
	samples []float32,
	onEncoderBegin EncoderBeginCallback,
	onSegment SegmentCallback,
	onProgress ProgressCallback,
	opts RetryOptions,
) error {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 10 * time.Millisecond
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}

	b := retry.WithMaxRetries(opts.MaxRetries, retry.NewFibonacci(opts.InitialBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := session.Process(samples, onEncoderBegin, onSegment, onProgress)
		if errors.Is(err, ErrSharedBusy) {
			return retry.RetryableError(err)
		}
		return err
	})
}
