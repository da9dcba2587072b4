// ABOUTME: Tests for leveled logging
// ABOUTME: Validates level filtering, prefixes, and file output

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel("info")
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t)

	if IsVerbose() {
		t.Error("logger should default to non-verbose")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Error("SetVerbose(true) did not enable verbose mode")
	}
	SetVerbose(false)
	if IsVerbose() {
		t.Error("SetVerbose(false) did not disable verbose mode")
	}
}

func TestDebugLevel(t *testing.T) {
	buf := capture(t)

	Debug("hidden debug message")
	if buf.Len() > 0 {
		t.Error("debug output when not verbose")
	}

	SetVerbose(true)
	Debug("shown debug message")
	if !strings.Contains(buf.String(), "[DEBUG] shown debug message") {
		t.Errorf("unexpected debug output: %q", buf.String())
	}
}

func TestLevelPrefixes(t *testing.T) {
	buf := capture(t)

	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	for _, want := range []string{"[INFO] info message", "[WARN] warn message", "[ERROR] error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSetLevel_FiltersBelowThreshold(t *testing.T) {
	buf := capture(t)

	SetLevel("warn")
	Info("dropped")
	Warn("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn message should pass at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelOff,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatting(t *testing.T) {
	buf := capture(t)

	Info("formatted %s: %d", "test", 42)
	if !strings.Contains(buf.String(), "formatted test: 42") {
		t.Errorf("formatting failed, got: %q", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	capture(t)
	path := filepath.Join(t.TempDir(), "logs", "chatsync.log")

	if err := OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	Info("to file")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] to file") {
		t.Errorf("log file missing line, got %q", string(data))
	}
}
