package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(maxRetries int) Options {
	return Options{MaxRetries: maxRetries, InitialDelay: time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0

	result, err := Do(context.Background(), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	}, nil, fastOptions(2))

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0

	result, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, nil, fastOptions(2))

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetryBudget(t *testing.T) {
	calls := 0
	wantErr := errors.New("still broken")

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, wantErr
	}, nil, fastOptions(2))

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestDo_ShouldRetryRejectsError(t *testing.T) {
	calls := 0
	fatal := errors.New("fatal")

	_, err := Do(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, fatal
	}, func(err error) bool { return !errors.Is(err, fatal) }, fastOptions(5))

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancellationNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, context.Canceled
	}, nil, fastOptions(5))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledBeforeFirstCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, func(context.Context) (int, error) {
		calls++
		return 0, nil
	}, nil, fastOptions(2))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
