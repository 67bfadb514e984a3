package httputils

import (
	"context"
	"net/http"
	"time"

	"github.com/autobrr/autobrr/pkg/sharedhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const defaultRetries = 3

type Option func(*retryablehttp.Client)

// WithRetries overrides the number of retries after the first attempt.
func WithRetries(n int) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}

// WithBackoff overrides the wait bounds between retries.
func WithBackoff(min, max time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = min
		c.RetryWaitMax = max
	}
}

// NewRetryableHttpClient returns a standard *http.Client that retries connection
// errors, 429 and 5xx responses. Every attempt, retries included, takes a token from rl.
// timeout applies to each attempt.
func NewRetryableHttpClient(timeout time.Duration, rl ratelimit.Limiter, log *logrus.Entry, opts ...Option) *http.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: sharedhttp.Transport,
	}
	c.RetryMax = defaultRetries
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.CheckRetry = retryPolicy
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = nil

	c.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if rl != nil {
			rl.Take()
		}
		if log != nil && attempt > 0 {
			log.Debugf("Retrying %s %s (attempt %d)", req.Method, req.URL.Redacted(), attempt+1)
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c.StandardClient()
}

func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return false, nil
	}

	retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if resp != nil {
		// keep the final response so callers see the real status
		return retry, nil
	}
	return retry, checkErr
}
