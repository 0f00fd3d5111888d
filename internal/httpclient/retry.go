package httpclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy retries transport failures and 5xx responses with
// exponential backoff. Zero retries means a single attempt.
type RetryPolicy struct {
	maxRetries uint64
	baseDelay  time.Duration
}

// NewRetryPolicy creates a retry policy
func NewRetryPolicy(maxRetries int, baseDelay time.Duration) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &RetryPolicy{maxRetries: uint64(maxRetries), baseDelay: baseDelay}
}

// Do runs fn until it succeeds, fails permanently or retries run out.
func (p *RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.maxRetries == 0 {
		return fn(ctx)
	}

	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(p.baseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsRetryable reports whether err is a transport failure or a server error.
func IsRetryable(err error) bool {
	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr *common.NetworkError
	return errors.As(err, &netErr)
}
