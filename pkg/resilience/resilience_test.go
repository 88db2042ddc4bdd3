// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry, timeout, and fallback patterns for Anemos.
package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	aerrors "github.com/jllopis/anemos/pkg/errors"
)

func TestRetrySuccess(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig()
	err := config.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig().WithMaxAttempts(2)
	err := config.Do(context.Background(), func() error {
		attempts++
		return errors.New("always fails")
	})

	if err == nil {
		t.Errorf("expected error after max attempts")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryNonRecoverable(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig().WithIsRecoverable(func(err error) bool {
		return false // Never recoverable
	})
	err := config.Do(context.Background(), func() error {
		attempts++
		return errors.New("non-recoverable error")
	})

	if err == nil {
		t.Errorf("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := DefaultRetryConfig().WithInitialDelay(100 * time.Millisecond)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	err := config.Do(ctx, func() error {
		attempts++
		return errors.New("transient error")
	})

	if err == nil {
		t.Errorf("expected context error")
	}
	if ae, ok := err.(*aerrors.AnemosError); ok {
		if ae.Code != aerrors.CodeCanceled {
			t.Errorf("expected CodeCanceled, got %v", ae.Code)
		}
	}
	if attempts < 1 {
		t.Errorf("expected at least 1 attempt, got %d", attempts)
	}
}

func TestRetryWithResult(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig()
	result, err := config.DoWithResult(context.Background(), func() (interface{}, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("transient")
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %v", result)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryRecoverableFlag(t *testing.T) {
	ae := aerrors.New(aerrors.CodeTimeout, "timed out", nil).WithRecoverable(true)

	config := DefaultRetryConfig()
	attempts := 0
	err := config.Do(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return ae
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected retry to succeed")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryNonRecoverableFlag(t *testing.T) {
	ae := aerrors.New(aerrors.CodeInvalidInput, "bad input", nil) // Recoverable defaults to false

	config := DefaultRetryConfig()
	attempts := 0
	err := config.Do(context.Background(), func() error {
		attempts++
		return ae
	})

	if err == nil {
		t.Errorf("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for non-recoverable typed error, got %d", attempts)
	}
}

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name        string
		duration    time.Duration
		sleepTime   time.Duration
		expectError bool
	}{
		{"fast operation", 1 * time.Second, 10 * time.Millisecond, false},
		{"slow operation", 50 * time.Millisecond, 200 * time.Millisecond, true},
		{"no timeout", 0, 100 * time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := TimeoutConfig{Duration: tt.duration}
			err := WithTimeout(context.Background(), config, func(ctx context.Context) error {
				time.Sleep(tt.sleepTime)
				return nil
			})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected timeout error")
				}
				if ae, ok := err.(*aerrors.AnemosError); ok {
					if ae.Code != aerrors.CodeTimeout {
						t.Errorf("expected CodeTimeout, got %v", ae.Code)
					}
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestWithTimeoutResult(t *testing.T) {
	config := TimeoutConfig{Duration: 1 * time.Second}

	value, err := WithTimeoutResult(context.Background(), config, func(ctx context.Context) (interface{}, error) {
		return "success", nil
	})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value != "success" {
		t.Errorf("expected 'success', got %v", value)
	}
}

func TestWithTimeoutResultTimeout(t *testing.T) {
	config := TimeoutConfig{Duration: 50 * time.Millisecond}

	value, err := WithTimeoutResult(context.Background(), config, func(ctx context.Context) (interface{}, error) {
		time.Sleep(200 * time.Millisecond)
		return "success", nil
	})

	if err == nil {
		t.Errorf("expected timeout error")
	}
	if value != nil {
		t.Errorf("expected nil value on timeout")
	}
}

func TestWithTimeoutContextHasDeadline(t *testing.T) {
	config := TimeoutConfig{Duration: 1 * time.Second}

	var hasDeadline bool
	err := WithTimeout(context.Background(), config, func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasDeadline {
		t.Errorf("expected a deadline on the derived context")
	}
}
