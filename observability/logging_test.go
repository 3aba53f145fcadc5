package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func spanContext(t *testing.T) trace.SpanContext {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	if err != nil {
		t.Fatal(err)
	}
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	if err != nil {
		t.Fatal(err)
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
}

func TestTraceContextHandlerStampsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := trace.ContextWithSpanContext(context.Background(), spanContext(t))
	logger.InfoContext(ctx, "summarizing", slog.Int("turn", 4))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["trace_id"] != "0102030405060708090a0b0c0d0e0f10" {
		t.Errorf("trace_id = %v", record["trace_id"])
	}
	if record["span_id"] != "0102030405060708" {
		t.Errorf("span_id = %v", record["span_id"])
	}
	if record["turn"] != float64(4) {
		t.Errorf("turn = %v", record["turn"])
	}
}

func TestTraceContextHandlerSkipsInvalidSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "no span here")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("record without a span should carry no trace_id: %s", buf.String())
	}
}

func TestTraceContextHandlerWithAttrsKeepsCorrelation(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))
	logger := base.With(slog.String("role", "diagnoser")).WithGroup("call")

	ctx := trace.ContextWithSpanContext(context.Background(), spanContext(t))
	logger.InfoContext(ctx, "backend round trip", slog.Int("attempt", 2))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["role"] != "diagnoser" {
		t.Errorf("role = %v", record["role"])
	}
	if record["trace_id"] == nil {
		t.Error("derived handler lost trace correlation")
	}
	group, ok := record["call"].(map[string]any)
	if !ok || group["attempt"] != float64(2) {
		t.Errorf("grouped attrs = %v", record["call"])
	}
}

func TestConfigureLoggingRespectsLevel(t *testing.T) {
	logger := ConfigureLogging(slog.LevelWarn, true)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be suppressed at warn level")
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
