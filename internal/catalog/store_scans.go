package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// CreateScan records the start of a scan over folderPath.
func (s *Store) CreateScan(ctx context.Context, folderPath, sessionID string) (*Scan, error) {
	folderPath = strings.TrimSpace(folderPath)
	if folderPath == "" {
		return nil, errors.New("scan folder path is empty")
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO scans (folder_path, session_id, status, started_at) VALUES (?, ?, ?, ?)`,
		folderPath,
		sessionID,
		ScanStatusScanning,
		nowString(),
	)
	if err != nil {
		return nil, storeError("insert scan", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeError("last insert id", err)
	}
	return s.GetScan(ctx, id)
}

// FinishScan stores the terminal status and tallies of a scan.
func (s *Store) FinishScan(ctx context.Context, id int64, status ScanStatus, counts ScanCounts, message string) error {
	finished := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE scans
         SET status = ?, finished_at = ?, processed = ?, skipped = ?, errors = ?, error_message = ?
         WHERE id = ?`,
		status,
		nullableTime(&finished),
		counts.Processed,
		counts.Skipped,
		counts.Errors,
		nullableString(message),
		id,
	); err != nil {
		return storeError("finish scan", err)
	}
	return nil
}

// GetScan fetches a scan by identifier. It returns nil, nil when missing.
func (s *Store) GetScan(ctx context.Context, id int64) (*Scan, error) {
	row := s.q.QueryRowContext(ensureContext(ctx), `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id)
	scan, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get scan", err)
	}
	return scan, nil
}

// LatestScan returns the most recently started scan, or nil when none exist.
func (s *Store) LatestScan(ctx context.Context) (*Scan, error) {
	row := s.q.QueryRowContext(ensureContext(ctx), `SELECT `+scanColumns+` FROM scans ORDER BY id DESC LIMIT 1`)
	scan, err := scanScan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("latest scan", err)
	}
	return scan, nil
}
