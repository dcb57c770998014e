package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loopsleuth/internal/config"
	"loopsleuth/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (func(), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{
		Format:  format,
		Level:   level,
		Console: io.Discard,
		File:    logPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return func() {
		ctx := logging.WithScanID(context.Background(), 42)
		logging.WithContext(ctx, logging.WithSession(logging.NewComponentLogger(logger, "scanner"), "session-1")).
			Info("clip ingested", logging.Int64(logging.FieldClipID, 7), logging.String(logging.FieldPath, "/clips/a.mp4"))
		logger.Debug("hidden at info")
	}, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Warn("written to file")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, "written to file") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerPrefixesScanAndComponent(t *testing.T) {
	emit, logPath := newFileLogger(t, "console", "info")
	emit()

	content := readLog(t, logPath)
	if !strings.Contains(content, "[scan 42 clip 7] scanner: clip ingested") {
		t.Fatalf("expected scan and clip prefix with component, got %q", content)
	}
	if strings.Contains(content, "session-1") || strings.Contains(content, "clip_id=") {
		t.Fatalf("expected session and clip fields folded out of the console line, got %q", content)
	}
	if !strings.Contains(content, "path=/clips/a.mp4") {
		t.Fatalf("expected path attribute, got %q", content)
	}
	if strings.Contains(content, "hidden at info") {
		t.Fatalf("debug line leaked at info level: %q", content)
	}
}

func TestJSONLoggerEmitsStructuredFields(t *testing.T) {
	emit, logPath := newFileLogger(t, "json", "info")
	emit()

	line := strings.TrimSpace(readLog(t, logPath))
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json log line %q: %v", line, err)
	}
	if payload["msg"] != "clip ingested" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload[logging.FieldComponent] != "scanner" {
		t.Fatalf("unexpected component: %v", payload[logging.FieldComponent])
	}
	if payload[logging.FieldScanID] != float64(42) || payload[logging.FieldClipID] != float64(7) {
		t.Fatalf("unexpected ids: scan=%v clip=%v", payload[logging.FieldScanID], payload[logging.FieldClipID])
	}
	if payload["session_id"] != "session-1" {
		t.Fatalf("expected session id in json line, got %v", payload["session_id"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts key")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Console: io.Discard}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: io.Discard, File: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "probe failed", "probe_failed",
		logging.String(logging.FieldErrorHint, "install ffprobe"))

	content := readLog(t, logPath)
	for _, want := range []string{`"event_type":"probe_failed"`, `"error_hint":"install ffprobe"`, `"impact":`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}

func TestScanIDRoundTrip(t *testing.T) {
	if _, ok := logging.ScanID(context.Background()); ok {
		t.Fatal("expected no scan id on an empty context")
	}
	if id, ok := logging.ScanID(logging.WithScanID(context.Background(), 3)); !ok || id != 3 {
		t.Fatalf("expected scan id 3, got %d (%v)", id, ok)
	}
}

func TestConsoleLoggerGroupsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Console: &buf, Level: "debug"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("probe").Debug("metadata", logging.String("codec", "h264"), logging.String("title", "two words"))

	line := buf.String()
	for _, want := range []string{"DEBUG", "metadata", "probe.codec=h264", `probe.title="two words"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestDecisionAttrs(t *testing.T) {
	attrs := logging.DecisionAttrs("duplicate_policy", "flagged", "distance 3 <= 5")
	if len(attrs) != 3 || attrs[0].Value.String() != "duplicate_policy" {
		t.Fatalf("unexpected attrs: %v", attrs)
	}
}
