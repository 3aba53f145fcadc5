package middleware

import (
	"context"
	"time"

	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/llm"
)

// DefaultCallTimeout bounds a single backend call.
const DefaultCallTimeout = 60 * time.Second

// Timeout wraps a backend client with a per-call deadline.
type Timeout struct {
	client  llm.Client
	timeout time.Duration
}

var _ llm.Client = (*Timeout)(nil)

// NewTimeout creates a timeout decorator around client. A non-positive
// timeout falls back to DefaultCallTimeout.
func NewTimeout(client llm.Client, timeout time.Duration) *Timeout {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Timeout{client: client, timeout: timeout}
}

// Model returns the model identifier of the wrapped client.
func (t *Timeout) Model() string {
	return t.client.Model()
}

// Complete calls the wrapped client under a deadline.
func (t *Timeout) Complete(ctx context.Context, messages []clinagen.Message, opts ...llm.CallOption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.client.Complete(ctx, messages, opts...)
}
