package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diillson/sw-characters-go/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func fastConfig(retries uint64) resilience.RetryConfig {
	return resilience.RetryConfig{
		Name:            "test",
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := resilience.Retry(context.Background(), fastConfig(5), zaptest.NewLogger(t), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	failure := errors.New("connection refused")
	err := resilience.Retry(context.Background(), fastConfig(2), zaptest.NewLogger(t), func(ctx context.Context) error {
		calls++
		return failure
	})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	failure := errors.New("syntax error")
	err := resilience.Retry(context.Background(), fastConfig(5), zaptest.NewLogger(t), func(ctx context.Context) error {
		calls++
		return resilience.Permanent(failure)
	})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 1, calls)
}

func TestRetry_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := resilience.Retry(ctx, fastConfig(5), zaptest.NewLogger(t), func(ctx context.Context) error {
		calls++
		return errors.New("unavailable")
	})

	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}
