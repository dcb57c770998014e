package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Clip describes a cataloged clip in a transport-friendly format.
type Clip struct {
	ID              int64    `json:"id"`
	Path            string   `json:"path"`
	Filename        string   `json:"filename"`
	Duration        *float64 `json:"duration,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	Size            *int64   `json:"size,omitempty"`
	Codec           *string  `json:"codec,omitempty"`
	PreviewPath     string   `json:"previewPath,omitempty"`
	AnimatedPreview string   `json:"animatedPreviewPath,omitempty"`
	Fingerprint     string   `json:"fingerprint,omitempty"`
	NeedsReview     bool     `json:"needsReview"`
	DuplicateOf     *int64   `json:"duplicateOf,omitempty"`
	ScanID          *int64   `json:"scanId,omitempty"`
	Starred         bool     `json:"starred"`
	ModifiedAt      string   `json:"modifiedAt,omitempty"`
	ScannedAt       string   `json:"scannedAt,omitempty"`
}

// DuplicateGroup is a canonical clip with the clips flagged against it.
type DuplicateGroup struct {
	Canonical  Clip   `json:"canonical"`
	Duplicates []Clip `json:"duplicates"`
}

// Progress mirrors the scanner's progress snapshot.
type Progress struct {
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Done      int    `json:"done"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	ScanID    int64  `json:"scanId,omitempty"`
	Current   string `json:"current,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ClipListResponse wraps the clip listing.
type ClipListResponse struct {
	Clips []Clip `json:"clips"`
}

// DuplicateListResponse wraps the duplicate groups.
type DuplicateListResponse struct {
	Groups []DuplicateGroup `json:"groups"`
}

// ScanRequest starts a scan of Folder.
type ScanRequest struct {
	Folder      string   `json:"folder" binding:"required"`
	Extensions  []string `json:"extensions,omitempty"`
	ForceRescan bool     `json:"forceRescan"`
}

// ScanResponse acknowledges a started scan.
type ScanResponse struct {
	Started bool   `json:"started"`
	Folder  string `json:"folder"`
}

// ResolveRequest carries a review action. CanonicalID overrides the merge
// target.
type ResolveRequest struct {
	Action      string `json:"action" binding:"required"`
	CanonicalID *int64 `json:"canonicalId,omitempty"`
}

// ResolveResponse reports the state after a review action.
type ResolveResponse struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
}

// ErrorResponse is returned for every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
