package errors

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"
)

// RetryConfig is an exponential backoff policy. Attempt n (counting from
// zero) waits InitialBackoff * BackoffFactor^n, capped at MaxBackoff, with
// up to 25% jitter either way when Jitter is set.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool

	// OnRetry, when set, is called before each wait
	OnRetry func(attempt int, err error, wait time.Duration)

	// ShouldRetry, when set, replaces Retryable for this policy
	ShouldRetry func(err error) bool
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2,
		Jitter:         true,
	}
}

// UpstreamRetryConfig keeps reads against the video API snappy: a page load
// should not hang for long behind a struggling backend.
func UpstreamRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2,
		Jitter:         true,
	}
}

// StorageRetryConfig tolerates longer object store hiccups during uploads
func StorageRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2,
		Jitter:         true,
	}
}

// Delay returns how long to wait after the given failed attempt
func (c *RetryConfig) Delay(attempt int) time.Duration {
	d := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(attempt))
	if limit := float64(c.MaxBackoff); c.MaxBackoff > 0 && d > limit {
		d = limit
	}
	if c.Jitter {
		d += d * 0.25 * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

// Retry runs fn until it succeeds, fails with a non-retryable error, the
// attempts run out or ctx is done.
func Retry(ctx context.Context, cfg *RetryConfig, fn func(ctx context.Context) error) error {
	_, err := RetryWithResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryWithResult is Retry for functions that produce a value
func RetryWithResult[T any](ctx context.Context, cfg *RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}

	var zero T
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= cfg.MaxRetries || !cfg.retryable(err) {
			return zero, err
		}

		wait := cfg.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *RetryConfig) retryable(err error) bool {
	if c.ShouldRetry != nil {
		return c.ShouldRetry(err)
	}
	return Retryable(err)
}

// transientMessages match errors from drivers that do not expose types
var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"slowdown",
}

// Retryable reports whether err is worth another attempt. Cancellation never
// is; AppErrors follow their category; network timeouts and a handful of
// well known transient messages are.
func Retryable(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if appErr, ok := AsAppError(err); ok {
		return IsRetryable(appErr)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// HTTPRetryableStatus reports whether an upstream status is transient
func HTTPRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status != http.StatusNotImplemented && status <= 504)
}
