package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertOrGetClip inserts a clip for path or returns the existing row. The
// boolean reports whether a new row was created. An empty filename defaults
// to the path's base name.
func (s *Store) InsertOrGetClip(ctx context.Context, path, filename string) (*Clip, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false, errors.New("clip path is empty")
	}
	if strings.TrimSpace(filename) == "" {
		filename = displayFilename(path)
	}
	timestamp := nowString()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO clips (path, filename, created_at, modified_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(path) DO NOTHING`,
		path,
		filename,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, storeError("insert clip", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, storeError("insert clip rows affected", err)
	}
	if affected == 0 {
		clip, err := s.GetClipByPath(ctx, path)
		if err != nil {
			return nil, false, err
		}
		if clip == nil {
			return nil, false, storeError("insert clip", fmt.Errorf("clip %q vanished after conflict", path))
		}
		return clip, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, storeError("last insert id", err)
	}
	clip, err := s.GetClip(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return clip, true, nil
}

// GetClip fetches a clip by identifier. It returns nil, nil when the clip
// does not exist.
func (s *Store) GetClip(ctx context.Context, id int64) (*Clip, error) {
	row := s.q.QueryRowContext(ensureContext(ctx), `SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get clip", err)
	}
	return clip, nil
}

// GetClipByPath fetches a clip by its absolute path.
func (s *Store) GetClipByPath(ctx context.Context, path string) (*Clip, error) {
	row := s.q.QueryRowContext(ensureContext(ctx), `SELECT `+clipColumns+` FROM clips WHERE path = ?`, path)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get clip by path", err)
	}
	return clip, nil
}

// UpdateClip persists every mutable column of clip.
func (s *Store) UpdateClip(ctx context.Context, clip *Clip) error {
	if clip == nil {
		return errors.New("clip is nil")
	}
	clip.ModifiedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE clips
         SET filename = ?, duration = ?, width = ?, height = ?, size = ?, codec_name = ?,
             preview_path = ?, animated_preview_path = ?, fingerprint = ?,
             needs_review = ?, duplicate_of = ?, scan_id = ?, starred = ?,
             modified_at = ?, scanned_at = ?
         WHERE id = ?`,
		clip.Filename,
		nullableFloat(clip.Duration),
		nullableInt(clip.Width),
		nullableInt(clip.Height),
		nullableInt64(clip.Size),
		nullableStringPtr(clip.CodecName),
		nullableString(clip.PreviewPath),
		nullableString(clip.AnimatedPreviewPath),
		nullableString(clip.Fingerprint),
		boolToInt(clip.NeedsReview),
		nullableInt64(clip.DuplicateOf),
		nullableInt64(clip.ScanID),
		boolToInt(clip.Starred),
		clip.ModifiedAt.Format(time.RFC3339Nano),
		nullableTime(clip.ScannedAt),
		clip.ID,
	); err != nil {
		return storeError("update clip", err)
	}
	return nil
}

// UpdateClipMetadata overwrites the probe-derived columns of a clip.
func (s *Store) UpdateClipMetadata(ctx context.Context, id int64, meta Metadata) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE clips
         SET duration = ?, width = ?, height = ?, size = ?, codec_name = ?, modified_at = ?
         WHERE id = ?`,
		nullableFloat(meta.Duration),
		nullableInt(meta.Width),
		nullableInt(meta.Height),
		nullableInt64(meta.Size),
		nullableStringPtr(meta.CodecName),
		nowString(),
		id,
	); err != nil {
		return storeError("update clip metadata", err)
	}
	return nil
}

// SetPreview records the static preview image for a clip.
func (s *Store) SetPreview(ctx context.Context, id int64, previewPath string) error {
	return s.setColumn(ctx, "set preview", "preview_path", id, nullableString(previewPath))
}

// SetAnimatedPreview records the animated preview for a clip.
func (s *Store) SetAnimatedPreview(ctx context.Context, id int64, previewPath string) error {
	return s.setColumn(ctx, "set animated preview", "animated_preview_path", id, nullableString(previewPath))
}

// SetFingerprint records the perceptual fingerprint for a clip.
func (s *Store) SetFingerprint(ctx context.Context, id int64, fingerprint string) error {
	return s.setColumn(ctx, "set fingerprint", "fingerprint", id, nullableString(fingerprint))
}

func (s *Store) setColumn(ctx context.Context, op, column string, id int64, value any) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE clips SET `+column+` = ?, modified_at = ? WHERE id = ?`,
		value,
		nowString(),
		id,
	); err != nil {
		return storeError(op, err)
	}
	return nil
}

// StampScan marks a clip as confirmed on disk by scanID.
func (s *Store) StampScan(ctx context.Context, id, scanID int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE clips SET scan_id = ?, scanned_at = ? WHERE id = ?`,
		scanID,
		nowString(),
		id,
	); err != nil {
		return storeError("stamp scan", err)
	}
	return nil
}

// SetDuplicate flags a clip for review as a duplicate of canonicalID.
func (s *Store) SetDuplicate(ctx context.Context, id, canonicalID int64) error {
	if id == canonicalID {
		return storeError("set duplicate", fmt.Errorf("clip %d cannot be its own canonical", id))
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE clips SET needs_review = 1, duplicate_of = ?, modified_at = ? WHERE id = ?`,
		canonicalID,
		nowString(),
		id,
	); err != nil {
		return storeError("set duplicate", err)
	}
	return nil
}

// ClearDuplicate removes both the review flag and the canonical reference.
func (s *Store) ClearDuplicate(ctx context.Context, id int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE clips SET needs_review = 0, duplicate_of = NULL, modified_at = ? WHERE id = ?`,
		nowString(),
		id,
	); err != nil {
		return storeError("clear duplicate", err)
	}
	return nil
}

// ClearReview removes the review flag but keeps duplicate_of as history.
func (s *Store) ClearReview(ctx context.Context, id int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE clips SET needs_review = 0, modified_at = ? WHERE id = ?`,
		nowString(),
		id,
	); err != nil {
		return storeError("clear review", err)
	}
	return nil
}

// ResetDuplicateFlags clears review state on every clip and returns the
// number of rows changed.
func (s *Store) ResetDuplicateFlags(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE clips SET needs_review = 0, duplicate_of = NULL, modified_at = ?
         WHERE needs_review <> 0 OR duplicate_of IS NOT NULL`,
		nowString(),
	)
	if err != nil {
		return 0, storeError("reset duplicate flags", err)
	}
	return res.RowsAffected()
}

// ListClips returns every clip ordered by id.
func (s *Store) ListClips(ctx context.Context) ([]*Clip, error) {
	return s.queryClips(ctx, "list clips", `SELECT `+clipColumns+` FROM clips ORDER BY id`)
}

// ListByScan returns the clips last confirmed by scanID.
func (s *Store) ListByScan(ctx context.Context, scanID int64) ([]*Clip, error) {
	return s.queryClips(ctx, "list clips by scan", `SELECT `+clipColumns+` FROM clips WHERE scan_id = ? ORDER BY id`, scanID)
}

func (s *Store) queryClips(ctx context.Context, op, query string, args ...any) ([]*Clip, error) {
	rows, err := s.q.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		clips = append(clips, clip)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return clips, nil
}

// FingerprintedClips returns every clip with a fingerprint except excludeID,
// ordered by ascending id.
func (s *Store) FingerprintedClips(ctx context.Context, excludeID int64) ([]FingerprintedClip, error) {
	rows, err := s.q.QueryContext(
		ensureContext(ctx),
		`SELECT id, fingerprint, CASE WHEN needs_review = 1 THEN duplicate_of END FROM clips
         WHERE fingerprint IS NOT NULL AND fingerprint <> '' AND id <> ?
         ORDER BY id`,
		excludeID,
	)
	if err != nil {
		return nil, storeError("list fingerprints", err)
	}
	defer rows.Close()

	var out []FingerprintedClip
	for rows.Next() {
		var (
			fc          FingerprintedClip
			duplicateOf sql.NullInt64
		)
		if err := rows.Scan(&fc.ID, &fc.Fingerprint, &duplicateOf); err != nil {
			return nil, storeError("list fingerprints", err)
		}
		fc.DuplicateOf = duplicateOf.Int64
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list fingerprints", err)
	}
	return out, nil
}

// CountClips returns the number of cataloged clips.
func (s *Store) CountClips(ctx context.Context) (int, error) {
	var count int
	if err := s.q.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM clips`).Scan(&count); err != nil {
		return 0, storeError("count clips", err)
	}
	return count, nil
}

// DeleteClip removes a clip. Tag and playlist rows cascade; clips flagged
// against it are released by the schema trigger. It reports whether a row
// was deleted.
func (s *Store) DeleteClip(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM clips WHERE id = ?`, id)
	if err != nil {
		return false, storeError("delete clip", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeError("delete clip rows affected", err)
	}
	if affected == 0 {
		return false, nil
	}
	s.notifyDeleted(ctx, id)
	return true, nil
}

// DeleteStale removes every clip not stamped with scanID, including clips
// with no scan at all, and returns the deleted ids.
func (s *Store) DeleteStale(ctx context.Context, scanID int64) ([]int64, error) {
	var deleted []int64
	err := s.WithTx(ctx, func(tx *Store) error {
		rows, err := tx.q.QueryContext(
			ensureContext(ctx),
			`SELECT id FROM clips WHERE scan_id IS NULL OR scan_id <> ? ORDER BY id`,
			scanID,
		)
		if err != nil {
			return storeError("select stale clips", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return storeError("select stale clips", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return storeError("select stale clips", err)
		}
		if len(ids) == 0 {
			return nil
		}
		// Same predicate as the select; binding every id would overflow
		// SQLite's variable limit on large libraries.
		if _, err := tx.execWithRetry(ctx, `DELETE FROM clips WHERE scan_id IS NULL OR scan_id <> ?`, scanID); err != nil {
			return storeError("delete stale clips", err)
		}
		tx.notifyDeleted(ctx, ids...)
		deleted = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// DuplicateGroups returns every flagged clip grouped under its canonical
// clip. Groups are ordered by canonical id and duplicates by id.
func (s *Store) DuplicateGroups(ctx context.Context) ([]DuplicateGroup, error) {
	flagged, err := s.queryClips(
		ctx,
		"list flagged clips",
		`SELECT `+clipColumns+` FROM clips
         WHERE needs_review = 1 AND duplicate_of IS NOT NULL
         ORDER BY duplicate_of, id`,
	)
	if err != nil {
		return nil, err
	}

	var groups []DuplicateGroup
	for _, clip := range flagged {
		canonicalID := *clip.DuplicateOf
		if n := len(groups); n > 0 && groups[n-1].Canonical.ID == canonicalID {
			groups[n-1].Duplicates = append(groups[n-1].Duplicates, *clip)
			continue
		}
		canonical, err := s.GetClip(ctx, canonicalID)
		if err != nil {
			return nil, err
		}
		if canonical == nil {
			continue
		}
		groups = append(groups, DuplicateGroup{Canonical: *canonical, Duplicates: []Clip{*clip}})
	}
	return groups, nil
}
