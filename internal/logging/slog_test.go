package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	tests := []struct {
		level string
		msg   string
		kv    string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}
	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) || !strings.Contains(out, "msg="+tc.msg) || !strings.Contains(out, tc.kv) {
			t.Fatalf("expected %s/%s/%s in output:\n%s", tc.level, tc.msg, tc.kv, out)
		}
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("component", "engine").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, s := range []string{"level=INFO", "msg=hello", "component=engine", "k=v"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn")
	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", "user_id", "u-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON record: %v", err)
	}
	if rec["msg"] != "shown" || rec["user_id"] != "u-1" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	Nop().With("a", 1).Error(context.Background(), "dropped")
}
