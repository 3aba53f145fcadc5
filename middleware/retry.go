// Package middleware provides decorators for backend clients: transport
// retry with exponential backoff, per-call timeouts, and response caching.
//
// Retry lives here and format-level retry lives in the responder package;
// those are the only two retry layers, and they do not nest further.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/llm"
)

// RetryConfig configures transport-level retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	// Default: 100ms
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	// Default: 10s
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Default: 2.0
	BackoffMultiplier float64

	// ShouldRetry determines if an error should trigger a retry.
	// If nil, llm.IsTransient is used.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig returns a retry config with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		ShouldRetry:       llm.IsTransient,
	}
}

// Retry wraps a backend client with bounded retry and exponential backoff.
type Retry struct {
	client llm.Client
	config RetryConfig
}

var _ llm.Client = (*Retry)(nil)

// NewRetry creates a retry decorator around client.
func NewRetry(client llm.Client, config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 100 * time.Millisecond
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 10 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	if config.ShouldRetry == nil {
		config.ShouldRetry = llm.IsTransient
	}
	return &Retry{client: client, config: config}
}

// Model returns the model identifier of the wrapped client.
func (r *Retry) Model() string {
	return r.client.Model()
}

// Complete calls the wrapped client, retrying transient failures.
func (r *Retry) Complete(ctx context.Context, messages []clinagen.Message, opts ...llm.CallOption) (string, error) {
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		response, err := r.client.Complete(ctx, messages, opts...)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !r.config.ShouldRetry(err) {
			return "", fmt.Errorf("non-retryable error on attempt %d/%d: %w", attempt, r.config.MaxAttempts, err)
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("retry cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
			if backoff > r.config.MaxBackoff {
				backoff = r.config.MaxBackoff
			}
		}
	}

	return "", fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
}
