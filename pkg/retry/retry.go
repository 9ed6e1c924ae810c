// Package retry schedules bounded retries of remote operations with exponential
// backoff. The schedule is a pure policy (attempt bound, delay function and
// retryable-error predicate) so callers can inject zero-delay policies in tests.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/aretw0/blockloom/pkg/domain"
)

// Policy decides how often and how long to wait before retrying.
type Policy interface {
	// MaxAttempts returns the total number of attempts, the first one included.
	MaxAttempts() int

	// RetryDelay returns the wait before the given retry (1 for the first retry).
	RetryDelay(attempt int, err error) time.Duration

	// IsErrorRetryable reports whether err is transient.
	IsErrorRetryable(err error) bool
}

// Exponential doubles the delay on every retry, starting at BaseDelay and
// capped at MaxDelay.
//
// Thread Safety: Exponential is immutable after construction and safe for
// concurrent use.
type Exponential struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter spreads delays by ±Jitter of their value (0 disables it).
	Jitter float64

	// Retryable overrides the transient-error predicate (default: IsTransient).
	Retryable func(error) bool
}

var _ Policy = (*Exponential)(nil)

// Default returns the policy used when none is configured: 5 attempts, 250ms
// base delay doubling up to 30s.
func Default() *Exponential {
	return &Exponential{
		Attempts:  5,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  30 * time.Second,
	}
}

// NoDelay returns a policy that retries immediately, for tests and dry runs.
func NoDelay(attempts int) *Exponential {
	return &Exponential{Attempts: attempts}
}

// MaxAttempts returns the attempt bound, never less than 1.
func (e *Exponential) MaxAttempts() int {
	if e.Attempts < 1 {
		return 1
	}
	return e.Attempts
}

// RetryDelay computes BaseDelay * 2^(attempt-1), jittered then capped.
func (e *Exponential) RetryDelay(attempt int, _ error) time.Duration {
	if e.BaseDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	backoff := float64(e.BaseDelay) * math.Pow(2, float64(attempt-1))
	if e.MaxDelay > 0 && backoff > float64(e.MaxDelay) {
		backoff = float64(e.MaxDelay)
	}
	if backoff > math.MaxInt64/2 {
		backoff = math.MaxInt64 / 2
	}
	delay := time.Duration(backoff)

	if e.Jitter > 0 {
		spread := int64(float64(delay) * e.Jitter)
		if spread > 0 {
			delay += time.Duration(rand.Int63n(2*spread) - spread)
		}
	}

	if e.MaxDelay > 0 && delay > e.MaxDelay {
		delay = e.MaxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// IsErrorRetryable applies the configured predicate.
func (e *Exponential) IsErrorRetryable(err error) bool {
	if e.Retryable != nil {
		return e.Retryable(err)
	}
	return IsTransient(err)
}

// IsTransient classifies rate limiting, conflicts, timeouts and transient
// server or service failures as retryable. Context cancellation never is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return remote.Code.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// ExhaustedError is returned when every allowed attempt failed transiently.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Notify is called before each retry with the upcoming retry number, the wait
// and the error that caused it.
type Notify func(attempt int, delay time.Duration, err error)

// Option configures a Do call.
type Option func(*settings)

type settings struct {
	notify Notify
	sleep  func(context.Context, time.Duration) error
}

// WithNotify registers a callback invoked before every retry.
func WithNotify(fn Notify) Option {
	return func(s *settings) {
		s.notify = fn
	}
}

// WithSleep replaces the wait function (default: a timer honoring ctx).
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(s *settings) {
		s.sleep = fn
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or exhausts
// the policy's attempt bound. It returns the number of attempts made.
func Do(ctx context.Context, policy Policy, fn func(context.Context) error, opts ...Option) (int, error) {
	if policy == nil {
		policy = Default()
	}
	s := settings{sleep: sleep}
	for _, opt := range opts {
		opt(&s)
	}

	maxAttempts := policy.MaxAttempts()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}

		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if !policy.IsErrorRetryable(err) {
			return attempt, err
		}
		if attempt >= maxAttempts {
			return attempt, &ExhaustedError{Attempts: attempt, Err: err}
		}

		delay := policy.RetryDelay(attempt, err)
		if s.notify != nil {
			s.notify(attempt, delay, err)
		}
		if err := s.sleep(ctx, delay); err != nil {
			return attempt, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
