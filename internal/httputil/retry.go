// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// Policy controls retry behavior for transient HTTP failures.
// Transient means a transport error, HTTP 429, or any 5xx status; every
// other response is returned to the caller on the first attempt.
// Per prd002-classification R5.3.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero or negative selects the default (3).
	MaxRetries int

	// BaseDelay is the wait before the first retry; it doubles each
	// attempt. Zero selects the default (2s).
	BaseDelay time.Duration

	// Jitter is the fraction of the computed delay added or removed at
	// random, in [0, 1]. Zero disables jitter.
	Jitter float64
}

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
)

// Transient reports whether an HTTP status code is worth retrying.
// 429 and 5xx are transient; everything else is a permanent rejection.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DoWithRetry executes an HTTP request under the policy. Transport errors
// and transient statuses are retried with exponential backoff; the delay
// for attempt n is BaseDelay * 2^n, jittered. On permanent rejections the
// response is returned immediately so the caller can inspect it. After
// exhausting retries the last response (or transport error) is returned.
// If the context is cancelled during a backoff wait the function returns
// ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := p.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err == nil && !Transient(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = nil
			// Exhausted retries: return the transient response as-is.
			if attempt >= maxRetries {
				return resp, nil
			}
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if attempt >= maxRetries {
			return nil, lastErr
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * baseDelay
		backoff = jitter(backoff, p.Jitter)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// jitter perturbs d by up to ±frac of its value.
func jitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	if frac > 1 {
		frac = 1
	}
	delta := (rand.Float64()*2 - 1) * frac * float64(d)
	return d + time.Duration(delta)
}
