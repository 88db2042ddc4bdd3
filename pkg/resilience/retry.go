// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry, timeout, and fallback patterns for Anemos.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/jllopis/anemos/pkg/errors"
)

// RetryConfig controls how a failed call is reattempted.
type RetryConfig struct {
	// MaxAttempts bounds the total number of calls, first try included.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt. Every further
	// attempt multiplies the previous delay by Multiplier.
	InitialDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Multiplier scales the delay between attempts. Zero means 2.
	Multiplier float64

	// IsRecoverable decides whether an error is worth another attempt.
	// Nil trusts the Recoverable flag on typed errors and treats plain
	// errors as transient.
	IsRecoverable func(error) bool

	// Jitter randomizes each delay by the given fraction; 0.1 means
	// plus or minus ten percent.
	Jitter float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		Jitter:        0.1,
		IsRecoverable: isRecoverableDefault,
	}
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(max int) RetryConfig {
	rc.MaxAttempts = max
	return rc
}

// WithInitialDelay returns a copy with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithMaxDelay returns a copy with MaxDelay set.
func (rc RetryConfig) WithMaxDelay(d time.Duration) RetryConfig {
	rc.MaxDelay = d
	return rc
}

// WithIsRecoverable returns a copy with IsRecoverable set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// Do runs fn until it succeeds, the attempt budget is spent, or an
// error is judged not recoverable. The last error seen is returned
// when every attempt fails.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	if rc.IsRecoverable == nil {
		rc.IsRecoverable = isRecoverableDefault
	}

	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeCanceled, "context canceled during retry", ctx.Err()).
					WithContext("attempt", attempt).
					WithContext("max_attempts", rc.MaxAttempts)
			case <-time.After(rc.backoff(attempt)):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !rc.IsRecoverable(err) {
			return err
		}
	}

	return lastErr
}

// DoWithResult is Do for calls that produce a value alongside the error.
func (rc RetryConfig) DoWithResult(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	err := rc.Do(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// backoff computes the delay before the given attempt, exponential in
// the attempt number, capped at MaxDelay, and spread by Jitter.
func (rc RetryConfig) backoff(attempt int) time.Duration {
	mult := rc.Multiplier
	if mult == 0 {
		mult = 2.0
	}

	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(mult, float64(attempt)))
	if delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}

	if rc.Jitter > 0 {
		spread := (2*rand.Float64() - 1) * rc.Jitter * float64(delay)
		delay += time.Duration(spread)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// isRecoverableDefault trusts the Recoverable flag on typed errors and
// assumes plain errors are transient.
func isRecoverableDefault(err error) bool {
	if err == nil {
		return false
	}
	if ae, ok := err.(*errors.AnemosError); ok {
		return ae.Recoverable
	}
	return true
}
