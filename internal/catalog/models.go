package catalog

import "time"

// ScanStatus is the lifecycle state of a scan run.
type ScanStatus string

const (
	ScanStatusScanning ScanStatus = "scanning"
	ScanStatusComplete ScanStatus = "complete"
	ScanStatusError    ScanStatus = "error"
)

// Clip is one physical video file known to the catalog. Pointer fields are
// nil when the probe could not determine them.
type Clip struct {
	ID                  int64
	Path                string
	Filename            string
	Duration            *float64
	Width               *int
	Height              *int
	Size                *int64
	CodecName           *string
	PreviewPath         string
	AnimatedPreviewPath string
	Fingerprint         string
	NeedsReview         bool
	DuplicateOf         *int64
	ScanID              *int64
	Starred             bool
	CreatedAt           time.Time
	ModifiedAt          time.Time
	ScannedAt           *time.Time
}

// Metadata carries the probe results written by UpdateClipMetadata.
type Metadata struct {
	Duration  *float64
	Width     *int
	Height    *int
	Size      *int64
	CodecName *string
}

// Scan is one ingestion run.
type Scan struct {
	ID           int64
	FolderPath   string
	SessionID    string
	Status       ScanStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	Processed    int
	Skipped      int
	Errors       int
	ErrorMessage string
}

// ScanCounts are the per-file tallies recorded when a scan finishes.
type ScanCounts struct {
	Processed int
	Skipped   int
	Errors    int
}

// DuplicateGroup is a canonical clip together with the flagged clips that
// point at it. It is derived from clip rows on demand and never stored.
type DuplicateGroup struct {
	Canonical  Clip
	Duplicates []Clip
}

// FingerprintedClip is the projection the duplicate clusterer compares against.
type FingerprintedClip struct {
	ID          int64
	Fingerprint string
	// DuplicateOf is the canonical id of a flagged clip, zero otherwise.
	DuplicateOf int64
}

// DatabaseHealth describes catalog database diagnostics.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int64
	IntegrityCheck   bool
	TotalClips       int
	FlaggedClips     int
	Error            string
}
