package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %s", len(entries), buf.String())
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_WithOp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf).WithOp(OpMeta{Scope: "Story", Operation: "get_batch", Namespace: "ns"})

	logger.Info(context.Background(), "hello", F("keys", 3))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["cache.scope"] != "Story" || e["cache.op"] != "get_batch" || e["cache.namespace"] != "ns" {
		t.Errorf("missing op attributes: %v", e)
	}
	if e["keys"] != float64(3) {
		t.Errorf("keys = %v, want 3", e["keys"])
	}
	if e["msg"] != "hello" {
		t.Errorf("msg = %v", e["msg"])
	}
}

func TestLogger_RedactsAndFlattensErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "boom",
		F("value", `{"secret":"x"}`),
		F("password", "hunter2"),
		F("error", errors.New("store down")),
	)

	e := decodeLines(t, &buf)[0]
	if e["value"] != "[REDACTED]" || e["password"] != "[REDACTED]" {
		t.Errorf("expected redaction, got %v", e)
	}
	if e["error"] != "store down" {
		t.Errorf("error = %v, want %q", e["error"], "store down")
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.WithOp(OpMeta{Operation: "get"}).Info(context.Background(), "line", F("i", i))
		}(i)
	}
	wg.Wait()

	if got := len(decodeLines(t, &buf)); got != 50 {
		t.Errorf("expected 50 entries, got %d", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"":      LevelInfo,
		"bogus": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	l.Info(context.Background(), "ignored")
	if l.WithOp(OpMeta{Operation: "get"}) == nil {
		t.Fatal("WithOp returned nil")
	}
}
