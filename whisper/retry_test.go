package whisper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nupi-ai/whisper-runtime/internal/stubengine"
	"github.com/nupi-ai/whisper-runtime/whisper"
)

func TestProcessWithRetry_WaitsOutBusyGate(t *testing.T) {
	model, closeModel := helperModel(t, stubengine.WithProcessDelay(150*time.Millisecond))
	defer closeModel()
	params := helperParams(t, model, nil)

	holder, err := whisper.NewSharedSession(model, params)
	require.NoError(t, err)
	defer holder.Close()

	waiter, err := whisper.NewSharedSession(model, params)
	require.NoError(t, err)
	defer waiter.Close()

	data := synthSamples(1, 440)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- holder.Process(data, nil, nil, nil)
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	// A bare Process would fail fast here; the retry wrapper keeps backing
	// off until the holder finishes.
	err = whisper.ProcessWithRetry(context.Background(), waiter, data, nil, nil, nil, whisper.RetryOptions{
		InitialBackoff: 25 * time.Millisecond,
		MaxRetries:     20,
	})
	require.NoError(t, err)
	require.NoError(t, <-done)
}

func TestProcessWithRetry_NonBusyErrorPassesThrough(t *testing.T) {
	model, closeModel := helperModel(t, stubengine.WithProcessError(errors.New("decode exploded")))
	defer closeModel()

	session, err := whisper.NewSharedSession(model, helperParams(t, model, nil))
	require.NoError(t, err)
	defer session.Close()

	start := time.Now()
	err = whisper.ProcessWithRetry(context.Background(), session, synthSamples(1, 440), nil, nil, nil, whisper.RetryOptions{
		InitialBackoff: 250 * time.Millisecond,
		MaxRetries:     5,
	})
	require.ErrorIs(t, err, whisper.ErrProcessingFailed)

	// No backoff was consumed: the failure is not retryable.
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestProcessWithRetry_ContextCancelled(t *testing.T) {
	model, closeModel := helperModel(t, stubengine.WithProcessDelay(300*time.Millisecond))
	defer closeModel()
	params := helperParams(t, model, nil)

	holder, err := whisper.NewSharedSession(model, params)
	require.NoError(t, err)
	defer holder.Close()

	waiter, err := whisper.NewSharedSession(model, params)
	require.NoError(t, err)
	defer waiter.Close()

	data := synthSamples(1, 440)

	done := make(chan error, 1)
	go func() { done <- holder.Process(data, nil, nil, nil) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = whisper.ProcessWithRetry(ctx, waiter, data, nil, nil, nil, whisper.RetryOptions{
		InitialBackoff: 30 * time.Millisecond,
		MaxRetries:     50,
	})
	require.Error(t, err)
	require.NoError(t, <-done)
}
