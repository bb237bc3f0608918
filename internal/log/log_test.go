// ABOUTME: Tests for the level-gated logger
// ABOUTME: Captures output through SetOutput to verify filtering and format

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// capture swaps the output writer and level for the duration of a test.
// Tests using it must not run in parallel since both are process-wide.
func capture(t *testing.T, l slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut := SetOutput(&buf)
	prevLevel := GetLevel()
	SetLevel(l)
	t.Cleanup(func() {
		SetOutput(prevOut)
		SetLevel(prevLevel)
	})
	return &buf
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	buf := capture(t, LevelInfo)

	Debug("hidden %s", "value")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestDebugEmittedAtDebugLevel(t *testing.T) {
	buf := capture(t, LevelDebug)

	Debug("probe %d", 3)
	if got := buf.String(); got != "[DEBUG] probe 3\n" {
		t.Errorf("output = %q", got)
	}
}

func TestErrorAlwaysEmitted(t *testing.T) {
	buf := capture(t, LevelError)

	Warn("dropped")
	Error("kept: %v", "boom")
	got := buf.String()
	if strings.Contains(got, "dropped") {
		t.Errorf("warn should be filtered at error level: %q", got)
	}
	if !strings.Contains(got, "[ERROR] kept: boom") {
		t.Errorf("missing error line: %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"WARN", "WARN"},
		{"error", "ERROR"},
		{"nonsense", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in).String(); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
