package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"loopsleuth/internal/fileutil"
	"loopsleuth/internal/logging"
)

// Status is the externally visible scan state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusScanning Status = "scanning"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Progress is a point-in-time snapshot of a scan. Done counts files handled
// so far whether they were processed, skipped, or failed.
type Progress struct {
	Total     int    `json:"total"`
	Done      int    `json:"done"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	ScanID    int64  `json:"scan_id,omitempty"`
	Current   string `json:"current,omitempty"`
}

// Observer is called synchronously after every progress change.
type Observer func(Progress)

// progressTracker publishes snapshots for lock-free readers and mirrors them
// to a JSON file for other processes.
type progressTracker struct {
	current atomic.Pointer[Progress]
	path    string
	logger  *slog.Logger

	observer Observer
}

func newProgressTracker(path string, logger *slog.Logger) *progressTracker {
	t := &progressTracker{path: path, logger: logger}
	t.current.Store(&Progress{Status: StatusIdle})
	return t
}

func (t *progressTracker) snapshot() Progress {
	return *t.current.Load()
}

func (t *progressTracker) publish(p Progress) {
	t.current.Store(&p)
	if t.path != "" {
		if err := writeProgressFile(t.path, p); err != nil {
			t.logger.Debug("progress file write failed", logging.Error(err), logging.String(logging.FieldPath, t.path))
		}
	}
	if t.observer != nil {
		t.observer(p)
	}
}

func writeProgressFile(path string, p Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// ReadProgressFile loads the progress snapshot another process mirrored to
// path. A missing file reads as idle.
func ReadProgressFile(path string) (Progress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Progress{Status: StatusIdle}, nil
		}
		return Progress{}, fmt.Errorf("read progress file: %w", err)
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return Progress{}, fmt.Errorf("decode progress file: %w", err)
	}
	if p.Status == "" {
		p.Status = StatusIdle
	}
	return p, nil
}
