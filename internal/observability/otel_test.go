package observability

import (
	"context"
	"errors"
	"testing"
)

func TestTraceSettingsFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=abc, broken ,x= ,team=grading")
	t.Setenv("OTEL_SAMPLER_RATIO", "3")

	s := traceSettingsFromEnv()
	if !s.Enabled || s.Endpoint != "collector:4318" {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.Ratio != 1 {
		t.Fatalf("ratio should clamp to 1, got %v", s.Ratio)
	}
	if len(s.Headers) != 2 || s.Headers["api-key"] != "abc" || s.Headers["team"] != "grading" {
		t.Fatalf("unexpected headers %v", s.Headers)
	}
}

func TestParseHeadersEmpty(t *testing.T) {
	if h := parseHeaders(""); h != nil {
		t.Fatalf("want nil, got %v", h)
	}
}

func TestSpansAreSafeWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "grading.test")
	if ctx == nil || span == nil {
		t.Fatalf("want a no-op span")
	}
	EndSpan(span, errors.New("boom"))
	EndSpan(nil, nil)
}
