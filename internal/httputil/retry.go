// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying, rate-limited HTTP transport used
// by the catalog client.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/book-search/internal/logger"
)

// RetryBaseDelay is the first backoff step. Tests override this to avoid
// real sleeps.
var RetryBaseDelay = 1 * time.Second

// MaxRetryDelay caps both computed backoff and server Retry-After hints.
var MaxRetryDelay = 30 * time.Second

const defaultMaxRetries = 3

// Retrier executes requests and retries responses that signal temporary
// overload (HTTP 429 and 503) with exponential backoff.
type Retrier struct {
	Client *http.Client

	// Limiter, when set, is waited on before every attempt including retries.
	Limiter *rate.Limiter

	// MaxRetries is the retry budget; 0 selects the default (3).
	MaxRetries int
}

// Do sends req and returns the first non-retryable response. The delay
// starts at RetryBaseDelay and doubles per attempt unless the server sends
// a Retry-After value in seconds, which is used instead. Both are capped at
// MaxRetryDelay.
//
// After exhausting retries the last retryable response is returned so the
// caller can inspect its status. Context cancellation during a wait
// returns ctx.Err().
func (r *Retrier) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	for attempt := 0; ; attempt++ {
		if r.Limiter != nil {
			if err := r.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		logger.For(ctx).WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"attempt": attempt + 1,
			"wait":    wait.String(),
		}).Info("catalog overloaded, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// backoff returns the wait before retry number attempt+1.
func backoff(attempt int, retryAfter string) time.Duration {
	wait := RetryBaseDelay << uint(attempt)
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		wait = time.Duration(secs) * time.Second
	}
	if wait > MaxRetryDelay || wait < 0 {
		wait = MaxRetryDelay
	}
	return wait
}
