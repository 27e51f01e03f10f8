package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.WarnLevel},
		{"verbose", log.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigure_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.log")
	if err := Configure("info", path); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	t.Cleanup(func() { _ = Configure("warn", "") })

	Info("hello", "session", "abc")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") || !strings.Contains(string(data), "session=abc") {
		t.Errorf("log file = %q, want message and key/value", string(data))
	}
}

func TestSetOutput_KeepsLevel(t *testing.T) {
	if err := Configure("error", ""); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	t.Cleanup(func() { _ = Configure("warn", "") })

	var buf bytes.Buffer
	SetOutput(&buf)
	Warn("dropped")
	Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("warn message written at error level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("error message missing: %q", out)
	}
}
