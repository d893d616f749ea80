package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "returns empty when limit non-positive", input: "hello world", limit: 0, expect: ""},
		{name: "shorter than limit", input: "hello", limit: 10, expect: "hello"},
		{name: "truncates and adds ellipsis", input: "hello world", limit: 5, expect: "hello..."},
		{name: "trims surrounding whitespace", input: "  spaced  ", limit: 5, expect: "space..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestPipelineFields(t *testing.T) {
	fields := PipelineFields("  roadmap ", "")
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != FieldPipeline || fields[0].String != "roadmap" {
		t.Fatalf("unexpected pipeline field: %+v", fields[0])
	}

	if got := PipelineFields("", ""); len(got) != 0 {
		t.Fatalf("expected no fields, got %d", len(got))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	enriched := WithFields(log, PipelineFields("assessment", "u-1")...)
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldPipeline] != "assessment" || ctx[FieldUserID] != "u-1" {
		t.Fatalf("unexpected context: %+v", ctx)
	}

	if WithFields(nil) == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
}
