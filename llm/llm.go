// Package llm defines the minimal backend contract the generator speaks.
//
// The interface is intentionally small: a single Complete method over a
// message list, with functional options for per-call parameters. Providers
// are swappable behind it, and the middleware package layers transport
// retry, timeouts, and response caching on top without the callers
// changing.
package llm

import (
	"context"

	"github.com/clinagen/clinagen/clinagen"
)

// Client is the minimal interface for backend completion calls.
//
// Complete sends the conversation and returns the raw completion text.
// Implementations must be safe for use from a single goroutine; the driver
// constructs one client per worker rather than sharing a handle.
type Client interface {
	// Complete generates a single completion for the given messages.
	Complete(ctx context.Context, messages []clinagen.Message, opts ...CallOption) (string, error)

	// Model returns the model identifier this client targets.
	Model() string
}

// CallOptions holds per-call parameters.
type CallOptions struct {
	Temperature *float64
	MaxTokens   *int
}

// CallOption is a functional option for configuring a completion call.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) {
		opts.Temperature = &temperature
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) {
		opts.MaxTokens = &maxTokens
	}
}

// BuildCallOptions creates CallOptions from functional options.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
