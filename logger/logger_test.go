package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func jsonLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithWriter(&Config{Level: level, Format: "json"}, "test", &buf), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLevels(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"d", "i", "w", "e"}},
		{"warn", []string{"w", "e"}},
		{"invalid-level", []string{"i", "w", "e"}},
		{"", []string{"i", "w", "e"}},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			l, buf := jsonLogger(tc.level)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")

			var got []string
			for _, line := range decodeLines(t, buf) {
				got = append(got, line["message"].(string))
			}
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("messages = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStepFields(t *testing.T) {
	l, buf := jsonLogger("debug")
	l.Debug("run step", StepFields(2, "charge", "success", 3*time.Millisecond))

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	want := map[string]any{
		"level":       "debug",
		FieldIndex:    float64(2),
		FieldStep:     "charge",
		FieldStatus:   "success",
		FieldDuration: float64(3),
	}
	for k, v := range want {
		if lines[0][k] != v {
			t.Errorf("%s = %v, want %v", k, lines[0][k], v)
		}
	}
}

func TestFields(t *testing.T) {
	got := Fields("a", 1, 2, "skipped", "b", true, "dangling")
	if len(got) != 2 || got["a"] != 1 || got["b"] != true {
		t.Errorf("Fields = %v", got)
	}
	merged := MergeWithDuration(MergeWithError(nil, errors.New("boom")), 1500*time.Millisecond)
	if merged[FieldError] != "boom" || merged[FieldDuration] != int64(1500) {
		t.Errorf("merged = %v", merged)
	}
	if f := ErrorFields("load", errors.New("x")); f[FieldOperation] != "load" || f[FieldError] != "x" {
		t.Errorf("ErrorFields = %v", f)
	}
}

func TestForRun(t *testing.T) {
	l, buf := jsonLogger("info")
	l.ForRun("checkout", "run-1").Info("pipeline finished")
	l.ForRun("checkout", "").Info("defined")

	lines := decodeLines(t, buf)
	if lines[0][FieldDefinition] != "checkout" || lines[0][FieldRunID] != "run-1" {
		t.Errorf("unexpected entry %v", lines[0])
	}
	if _, ok := lines[1][FieldRunID]; ok {
		t.Errorf("expected no run id, got %v", lines[1])
	}
}

func TestWithContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(ContextWithRunID(context.Background(), "run-1"), "op")
	defer span.End()

	l, buf := jsonLogger("info")
	l.WithContext(ctx).Info("hello")
	l.WithContext(context.Background()).Info("bare")

	lines := decodeLines(t, buf)
	if lines[0][FieldRunID] != "run-1" {
		t.Errorf("expected run_id field, got %v", lines[0])
	}
	if lines[0][FieldTraceID] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace id, got %v", lines[0][FieldTraceID])
	}
	if lines[0][FieldSpanID] != span.SpanContext().SpanID().String() {
		t.Errorf("expected span id, got %v", lines[0][FieldSpanID])
	}
	for _, key := range []string{FieldRunID, FieldTraceID, FieldSpanID} {
		if _, ok := lines[1][key]; ok {
			t.Errorf("expected no %s without context values", key)
		}
	}
	if id, ok := RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Errorf("RunIDFromContext = %q, %v", id, ok)
	}
}

func TestWithComponentAndFields(t *testing.T) {
	l, buf := jsonLogger("info")
	c := l.WithComponent("flow")
	c.WithFields(Fields(FieldDefinition, "checkout")).Info("x")

	lines := decodeLines(t, buf)
	if lines[0][FieldComponent] != "flow" || lines[0][FieldDefinition] != "checkout" {
		t.Errorf("unexpected entry %v", lines[0])
	}
	if c.Name() != "flow" || l.Name() != "test" {
		t.Errorf("names = %q, %q", c.Name(), l.Name())
	}
}

func TestConsoleScope(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "debug", Format: "console", NoColor: true}, "test", &buf)

	l.ForRun("checkout", "run-1").Debug("run step", StepFields(2, "charge", "success", 0))
	l.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "[checkout#2 charge] run step") {
		t.Errorf("expected scope prefix, got %q", lines[0])
	}
	if !strings.Contains(lines[0], "status=success") || !strings.Contains(lines[0], "run_id=run-1") {
		t.Errorf("expected remaining fields, got %q", lines[0])
	}
	if strings.Contains(lines[0], "definition=") || strings.Contains(lines[0], "step=") {
		t.Errorf("expected scope fields folded into the prefix, got %q", lines[0])
	}
	if strings.Contains(lines[1], "[") {
		t.Errorf("expected no scope for plain entries, got %q", lines[1])
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"level", Config{Level: "loud", Format: "json"}, "level"},
		{"format", Config{Level: "info", Format: "xml"}, "format"},
		{"output", Config{Level: "info", Format: "json", Output: "file"}, "output"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.field+": must be one of") {
				t.Errorf("expected %s error, got %v", tc.field, err)
			}
		})
	}
}

func TestGlobalAndRegistry(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	l, buf := jsonLogger("debug")
	SetGlobalLogger(l)
	Get("config").Debug("through global")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0][FieldComponent] != "config" {
		t.Fatalf("expected component-tagged global entry, got %v", lines)
	}

	custom := NewNop()
	Register("custom", custom)
	defer Unregister("custom")
	if Get("custom") != custom {
		t.Error("expected registered logger")
	}
	Unregister("custom")
	if Get("custom") == custom {
		t.Error("expected fallback after Unregister")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("discarded", Fields("k", "v"))
	l.WithContext(context.Background()).ForRun("d", "r").Debug("discarded")
}
