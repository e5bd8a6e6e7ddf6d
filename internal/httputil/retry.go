// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the model client and the
// agent tools.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// maxRetryAfter caps how long a server-provided Retry-After may stall a run.
const maxRetryAfter = 2 * time.Minute

const defaultMaxRetries = 5

// statusOverloaded is the non-standard code the Anthropic API returns when
// it is temporarily overloaded.
const statusOverloaded = 529

// RetryPolicy retries requests that the server rejected as rate limited or
// overloaded (429, 503, 529). Other responses, including other errors, are
// returned to the caller unchanged.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt
	// (default 5).
	MaxRetries int

	// BaseDelay starts the exponential backoff (default RetryBaseDelay).
	BaseDelay time.Duration

	Logger zerolog.Logger
}

// Retryable reports whether status is one the policy retries.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, statusOverloaded:
		return true
	}
	return false
}

// Do executes req, retrying with exponential backoff. A Retry-After header
// in seconds overrides the computed delay. Request bodies are replayed via
// req.GetBody, so requests built with http.NewRequest over a bytes.Reader
// retry correctly.
//
// If the context is cancelled during a backoff wait Do returns ctx.Err().
// After exhausting retries the last response is returned so the caller can
// inspect it.
func (p RetryPolicy) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	base := p.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := time.Duration(math.Pow(2, float64(attempt))) * base
		if ra, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
			wait = ra
		}

		p.Logger.Warn().
			Int("status", resp.StatusCode).
			Str("host", req.URL.Host).
			Dur("wait", wait).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Msg("request throttled, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// DoWithRetry executes req with the default policy and a silent logger.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	return RetryPolicy{MaxRetries: maxRetries, Logger: zerolog.Nop()}.Do(ctx, client, req)
}

func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d, true
}
