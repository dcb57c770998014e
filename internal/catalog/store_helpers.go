package catalog

import (
	"database/sql"
	"errors"
	"path/filepath"
	"time"

	"golang.org/x/text/unicode/norm"
)

const clipColumns = "id, path, filename, duration, width, height, size, codec_name, preview_path, animated_preview_path, fingerprint, needs_review, duplicate_of, scan_id, starred, created_at, modified_at, scanned_at"

const scanColumns = "id, folder_path, session_id, status, started_at, finished_at, processed, skipped, errors, error_message"

type rowScanner interface{ Scan(dest ...any) error }

func scanClip(scanner rowScanner) (*Clip, error) {
	var (
		clip        Clip
		duration    sql.NullFloat64
		width       sql.NullInt64
		height      sql.NullInt64
		size        sql.NullInt64
		codec       sql.NullString
		preview     sql.NullString
		animated    sql.NullString
		fingerprint sql.NullString
		needsReview int64
		duplicateOf sql.NullInt64
		scanID      sql.NullInt64
		starred     int64
		createdRaw  sql.NullString
		modifiedRaw sql.NullString
		scannedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&clip.ID,
		&clip.Path,
		&clip.Filename,
		&duration,
		&width,
		&height,
		&size,
		&codec,
		&preview,
		&animated,
		&fingerprint,
		&needsReview,
		&duplicateOf,
		&scanID,
		&starred,
		&createdRaw,
		&modifiedRaw,
		&scannedRaw,
	); err != nil {
		return nil, err
	}

	if duration.Valid {
		clip.Duration = &duration.Float64
	}
	clip.Width = nullIntPtr(width)
	clip.Height = nullIntPtr(height)
	if size.Valid {
		clip.Size = &size.Int64
	}
	if codec.Valid {
		clip.CodecName = &codec.String
	}
	clip.PreviewPath = preview.String
	clip.AnimatedPreviewPath = animated.String
	clip.Fingerprint = fingerprint.String
	clip.NeedsReview = needsReview != 0
	if duplicateOf.Valid {
		clip.DuplicateOf = &duplicateOf.Int64
	}
	if scanID.Valid {
		clip.ScanID = &scanID.Int64
	}
	clip.Starred = starred != 0
	if created, err := parseTimeString(createdRaw.String); err == nil {
		clip.CreatedAt = created
	}
	if modified, err := parseTimeString(modifiedRaw.String); err == nil {
		clip.ModifiedAt = modified
	}
	if scannedRaw.Valid {
		if scanned, err := parseTimeString(scannedRaw.String); err == nil {
			clip.ScannedAt = &scanned
		}
	}
	return &clip, nil
}

func scanScan(scanner rowScanner) (*Scan, error) {
	var (
		scan        Scan
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		message     sql.NullString
	)
	if err := scanner.Scan(
		&scan.ID,
		&scan.FolderPath,
		&scan.SessionID,
		&status,
		&startedRaw,
		&finishedRaw,
		&scan.Processed,
		&scan.Skipped,
		&scan.Errors,
		&message,
	); err != nil {
		return nil, err
	}
	scan.Status = ScanStatus(status)
	scan.ErrorMessage = message.String
	if started, err := parseTimeString(startedRaw); err == nil {
		scan.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			scan.FinishedAt = &finished
		}
	}
	return &scan, nil
}

func nullIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// displayFilename returns the NFC form of the path's base name so filenames
// from macOS volumes (NFD) sort and match like everything else.
func displayFilename(path string) string {
	return norm.NFC.String(filepath.Base(path))
}
