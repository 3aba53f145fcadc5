package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/llm"
)

var tracer = otel.Tracer("github.com/clinagen/clinagen/middleware")

// Traced wraps a backend client so every completion call runs inside an
// OpenTelemetry span. Span export is the operator's concern; without a
// provider installed the spans are no-ops.
type Traced struct {
	client llm.Client
}

var _ llm.Client = (*Traced)(nil)

// NewTraced creates a tracing decorator around client.
func NewTraced(client llm.Client) *Traced {
	return &Traced{client: client}
}

// Model returns the model identifier of the wrapped client.
func (t *Traced) Model() string {
	return t.client.Model()
}

// Complete calls the wrapped client inside a span.
func (t *Traced) Complete(ctx context.Context, messages []clinagen.Message, opts ...llm.CallOption) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", t.client.Model()),
			attribute.Int("llm.message_count", len(messages)),
		),
	)
	defer span.End()

	response, err := t.client.Complete(ctx, messages, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(response)))
	return response, nil
}
