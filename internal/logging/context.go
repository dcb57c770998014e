package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent names the subsystem that emitted a line.
	FieldComponent = "component"
	// FieldScanID is the catalog id of the scan run.
	FieldScanID = "scan_id"
	// FieldClipID is the catalog id of the clip a line concerns.
	FieldClipID = "clip_id"
	// FieldPath is the file a line concerns.
	FieldPath = "path"
	// FieldEventType classifies a line for filtering (e.g. "probe_failed").
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact states what a warning means for the catalog.
	FieldImpact = "impact"
)

type scanIDKey struct{}

// WithScanID stores the active scan id on the context.
func WithScanID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, scanIDKey{}, id)
}

// ScanID returns the scan id stored by WithScanID.
func ScanID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(scanIDKey{}).(int64)
	return id, ok
}

// WithContext returns logger tagged with the scan id carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := ScanID(ctx); ok {
		return logger.With(Int64(FieldScanID, id))
	}
	return logger
}
