package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMeta(t *testing.T) {
	msg := kafka.Message{
		Topic: "booking.appointment.requested.v1",
		Key:   []byte("appt-1"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte("evt-123")},
			{Key: "event_type", Value: []byte("booking.appointment.requested.v1")},
		},
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-123" {
		t.Fatalf("EventID: got %q", meta.EventID)
	}
	if meta.EventType != "booking.appointment.requested.v1" {
		t.Fatalf("EventType: got %q", meta.EventType)
	}
}

func TestExtractEventMetaFallbacks(t *testing.T) {
	msg := kafka.Message{Topic: "booking.appointment.cancelled.v1", Key: []byte("appt-2")}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "appt-2" {
		t.Fatalf("expected key fallback, got %q", meta.EventID)
	}
	if meta.EventType != "booking.appointment.cancelled.v1" {
		t.Fatalf("expected topic fallback, got %q", meta.EventType)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("SplitBrokers: got %v", got)
	}
	if got := SplitBrokers(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, []kafka.Header{{Key: "event_id", Value: []byte("evt-1")}})
	if HeaderValue(headers, "traceparent") == "" {
		t.Fatal("traceparent header not injected")
	}
	if HeaderValue(headers, "event_id") != "evt-1" {
		t.Fatal("existing headers must be preserved")
	}

	out := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	got := trace.SpanContextFromContext(out)
	if got.TraceID() != traceID {
		t.Fatalf("trace id lost in round trip: got %s", got.TraceID())
	}
}
