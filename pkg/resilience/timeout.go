// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry, timeout, and fallback patterns for Anemos.
package resilience

import (
	"context"
	"time"

	"github.com/jllopis/anemos/pkg/errors"
)

// TimeoutConfig bounds how long an operation may run.
type TimeoutConfig struct {
	// Duration is the hard limit. Zero disables the boundary.
	Duration time.Duration
}

// WithTimeout runs fn under a deadline derived from ctx. The derived
// context is handed to fn so the work can stop early; if fn ignores it
// and keeps running, the call still returns errors.CodeTimeout once the
// deadline passes and the goroutine is abandoned.
func WithTimeout(ctx context.Context, config TimeoutConfig, fn func(context.Context) error) error {
	_, err := WithTimeoutResult(ctx, config, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// WithTimeoutResult is WithTimeout for operations that produce a value.
// On timeout the value is nil and the in-flight result is discarded.
func WithTimeoutResult(ctx context.Context, config TimeoutConfig, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if config.Duration == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	type outcome struct {
		value interface{}
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		value, err := fn(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return nil, errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String()).
			WithRecoverable(true)
	}
}
