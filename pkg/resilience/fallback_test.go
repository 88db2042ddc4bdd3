// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry, timeout, and fallback patterns for Anemos.
package resilience

import (
	"context"
	"errors"
	"testing"
)

func TestStaticFallback(t *testing.T) {
	fallback := &StaticFallback{Value: "default"}

	value, err := fallback.Execute(context.Background(), errors.New("primary failed"))

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value != "default" {
		t.Errorf("expected 'default', got %v", value)
	}
}

func TestErrorFallback(t *testing.T) {
	fallback := &ErrorFallback{Message: "all attempts failed"}

	value, err := fallback.Execute(context.Background(), errors.New("primary failed"))

	if err == nil {
		t.Errorf("expected error")
	}
	if value != nil {
		t.Errorf("expected nil value")
	}
}

func TestCachedFallback(t *testing.T) {
	fallback := &CachedFallback{Cache: "cached_value"}

	value, err := fallback.Execute(context.Background(), errors.New("primary failed"))

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value != "cached_value" {
		t.Errorf("expected 'cached_value', got %v", value)
	}
}

func TestCachedFallbackEmpty(t *testing.T) {
	fallback := &CachedFallback{Cache: nil}

	value, err := fallback.Execute(context.Background(), errors.New("primary failed"))

	if err == nil {
		t.Errorf("expected error when cache is empty")
	}
	if value != nil {
		t.Errorf("expected nil value")
	}
}

func TestChainedFallback(t *testing.T) {
	fallback := &ChainedFallback{
		Fallbacks: []FallbackStrategy{
			&ErrorFallback{Message: "first failed"},
			&ErrorFallback{Message: "second failed"},
			&StaticFallback{Value: "final fallback"},
		},
	}

	value, err := fallback.Execute(context.Background(), errors.New("primary failed"))

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value != "final fallback" {
		t.Errorf("expected 'final fallback', got %v", value)
	}
}

func TestWithFallback(t *testing.T) {
	fallback := &StaticFallback{Value: "default"}

	value, err := WithFallback(context.Background(),
		func() (interface{}, error) {
			return nil, errors.New("primary failed")
		},
		fallback,
	)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value != "default" {
		t.Errorf("expected 'default', got %v", value)
	}
}

func TestWithFallbackSuccess(t *testing.T) {
	fallback := &StaticFallback{Value: "default"}

	value, err := WithFallback(context.Background(),
		func() (interface{}, error) {
			return "primary", nil
		},
		fallback,
	)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value != "primary" {
		t.Errorf("expected 'primary', got %v", value)
	}
}

func TestFallbackFunc(t *testing.T) {
	fallback := FallbackFunc(func(ctx context.Context, err error) (interface{}, error) {
		return "recovered", nil
	})

	value, err := fallback.Execute(context.Background(), errors.New("primary failed"))

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value != "recovered" {
		t.Errorf("expected 'recovered', got %v", value)
	}
}
