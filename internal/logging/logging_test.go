package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	logger, cleanup, err := Setup(Config{
		Level:     "info",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  2,
	})
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Info("indexing path", slog.String("path", "/p/a.txt"))
	cleanup()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if entry["msg"] != "indexing path" {
		t.Errorf("msg = %v, want 'indexing path'", entry["msg"])
	}
	if entry["path"] != "/p/a.txt" {
		t.Errorf("path = %v, want '/p/a.txt'", entry["path"])
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	logger, cleanup, err := Setup(Config{
		Level:     "warn",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  2,
	})
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Debug("should be filtered")
	logger.Info("should be filtered too")
	logger.Warn("should appear")
	cleanup()

	data, _ := os.ReadFile(logPath)
	content := string(data)
	if strings.Contains(content, "filtered") {
		t.Error("debug/info messages should not appear at warn level")
	}
	if !strings.Contains(content, "should appear") {
		t.Error("warn message missing from log")
	}
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "rotate.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter() failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	// Write more than 1MB to force a rotation.
	chunk := strings.Repeat("x", 64*1024)
	for i := 0; i < 20; i++ {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("expected rotated file .1 to exist")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
