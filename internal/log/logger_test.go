package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cataloghq/semsearch/internal/config"
)

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO")

	logger.Info("search served", "results", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v; got %q", err, buf.String())
	}
	if entry["msg"] != "search served" {
		t.Errorf("msg = %v, want 'search served'", entry["msg"])
	}
	if entry["results"] != float64(3) {
		t.Errorf("results = %v, want 3", entry["results"])
	}
}

func TestNewLoggerWithWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatPretty, "INFO")

	logger.Info("vector store ready", "dimension", 384)

	out := buf.String()
	if !strings.Contains(out, "vector store ready") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "dimension=384") {
		t.Errorf("output missing attribute: %q", out)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "WARN")

	logger.Debug("noise")
	logger.Info("noise")
	if buf.Len() != 0 {
		t.Errorf("below-level messages should be dropped, got %q", buf.String())
	}

	logger.Warn("probe failed")
	if buf.Len() == 0 {
		t.Error("warn message should be emitted at WARN level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"DEBUG":   "DEBUG",
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"ERROR":   "ERROR",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for input, want := range tests {
		if got := parseLevel(input).String(); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	if got := RequestID(ctx); got != "req-42" {
		t.Errorf("RequestID() = %q, want req-42", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID() on empty context = %q, want empty", got)
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO")

	ctx := WithRequestID(context.Background(), "req-7")
	logger.WithContext(ctx).Info("handled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["request_id"] != "req-7" {
		t.Errorf("request_id = %v, want req-7", entry["request_id"])
	}
}
