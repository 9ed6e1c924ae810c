package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func remote(code domain.ErrorCode) error {
	return &domain.RemoteError{Op: "append", Code: code, Message: string(code)}
}

func TestExponential_RetryDelay(t *testing.T) {
	p := &retry.Exponential{Attempts: 10, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.RetryDelay(1, nil))
	assert.Equal(t, 200*time.Millisecond, p.RetryDelay(2, nil))
	assert.Equal(t, 400*time.Millisecond, p.RetryDelay(3, nil))
	assert.Equal(t, time.Second, p.RetryDelay(8, nil), "delay is capped")
	assert.Equal(t, time.Second, p.RetryDelay(200, nil), "overflow is capped")

	jittered := &retry.Exponential{BaseDelay: time.Second, MaxDelay: time.Minute, Jitter: 0.25}
	d := jittered.RetryDelay(1, nil)
	assert.GreaterOrEqual(t, d, 750*time.Millisecond)
	assert.LessOrEqual(t, d, 1250*time.Millisecond)

	assert.Zero(t, retry.NoDelay(3).RetryDelay(2, nil))
	assert.Equal(t, 1, (&retry.Exponential{}).MaxAttempts())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: remote(domain.CodeRateLimit), want: true},
		{name: "conflict", err: remote(domain.CodeConflict), want: true},
		{name: "unavailable", err: remote(domain.CodeUnavailable), want: true},
		{name: "internal", err: remote(domain.CodeInternal), want: true},
		{name: "timeout code", err: remote(domain.CodeTimeout), want: true},
		{name: "validation", err: remote(domain.CodeInvalidInput), want: false},
		{name: "not found", err: remote(domain.CodeNotFound), want: false},
		{name: "unauthorized", err: remote(domain.CodeUnauthorized), want: false},
		{name: "network timeout", err: timeoutErr{}, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "wrapped rate limit", err: errors.Join(errors.New("ctx"), remote(domain.CodeRateLimit)), want: true},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retry.IsTransient(tt.err))
		})
	}
}

func TestDo_ConvergesBelowBound(t *testing.T) {
	calls := 0
	var notified []int

	attempts, err := retry.Do(context.Background(), retry.NoDelay(5), func(context.Context) error {
		calls++
		if calls <= 3 {
			return remote(domain.CodeRateLimit)
		}
		return nil
	}, retry.WithNotify(func(attempt int, _ time.Duration, _ error) {
		notified = append(notified, attempt)
	}))

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, notified)
}

func TestDo_ExhaustsBound(t *testing.T) {
	calls := 0
	attempts, err := retry.Do(context.Background(), retry.NoDelay(3), func(context.Context) error {
		calls++
		return remote(domain.CodeUnavailable)
	})

	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, domain.CodeUnavailable, domain.CodeOf(err))
}

func TestDo_PermanentFailsFirstAttempt(t *testing.T) {
	calls := 0
	attempts, err := retry.Do(context.Background(), retry.NoDelay(5), func(context.Context) error {
		calls++
		return remote(domain.CodeInvalidInput)
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))
}

func TestDo_SleepsWithBackoff(t *testing.T) {
	var waits []time.Duration
	policy := &retry.Exponential{Attempts: 4, BaseDelay: 10 * time.Millisecond, MaxDelay: time.Second}

	_, err := retry.Do(context.Background(), policy, func(context.Context) error {
		return remote(domain.CodeConflict)
	}, retry.WithSleep(func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}))

	require.Error(t, err)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}, waits)
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := &retry.Exponential{Attempts: 5, BaseDelay: time.Hour}

	_, err := retry.Do(ctx, policy, func(context.Context) error {
		cancel()
		return remote(domain.CodeRateLimit)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_CustomPredicate(t *testing.T) {
	sentinel := errors.New("flaky")
	policy := &retry.Exponential{Attempts: 2, Retryable: func(err error) bool { return errors.Is(err, sentinel) }}

	calls := 0
	_, err := retry.Do(context.Background(), policy, func(context.Context) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, calls)
}
