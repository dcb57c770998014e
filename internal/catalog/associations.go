package catalog

import (
	"context"
	"errors"
	"strings"
)

// AddTag attaches the named tag to a clip, creating the tag if needed.
func (s *Store) AddTag(ctx context.Context, clipID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("tag name is empty")
	}
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.execWithRetry(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return storeError("insert tag", err)
		}
		if _, err := tx.execWithRetry(
			ctx,
			`INSERT OR IGNORE INTO clip_tags (clip_id, tag_id)
             SELECT ?, id FROM tags WHERE name = ?`,
			clipID,
			name,
		); err != nil {
			return storeError("attach tag", err)
		}
		return nil
	})
}

// ClipTags returns the tag names on a clip in alphabetical order.
func (s *Store) ClipTags(ctx context.Context, clipID int64) ([]string, error) {
	rows, err := s.q.QueryContext(
		ensureContext(ctx),
		`SELECT t.name FROM clip_tags ct JOIN tags t ON t.id = ct.tag_id
         WHERE ct.clip_id = ? ORDER BY t.name`,
		clipID,
	)
	if err != nil {
		return nil, storeError("list clip tags", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeError("list clip tags", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list clip tags", err)
	}
	return tags, nil
}

// CreatePlaylist inserts an empty playlist and returns its id.
func (s *Store) CreatePlaylist(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("playlist name is empty")
	}
	res, err := s.execWithRetry(ctx, `INSERT INTO playlists (name, created_at) VALUES (?, ?)`, name, nowString())
	if err != nil {
		return 0, storeError("insert playlist", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeError("last insert id", err)
	}
	return id, nil
}

// AddToPlaylist appends a clip to the end of a playlist. Adding a clip that
// is already a member is a no-op.
func (s *Store) AddToPlaylist(ctx context.Context, playlistID, clipID int64) error {
	if _, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO playlist_clips (playlist_id, clip_id, position)
         SELECT ?, ?, COALESCE(MAX(position), -1) + 1 FROM playlist_clips WHERE playlist_id = ?`,
		playlistID,
		clipID,
		playlistID,
	); err != nil {
		return storeError("add to playlist", err)
	}
	return nil
}

// PlaylistClips returns clip ids of a playlist in position order.
func (s *Store) PlaylistClips(ctx context.Context, playlistID int64) ([]int64, error) {
	rows, err := s.q.QueryContext(
		ensureContext(ctx),
		`SELECT clip_id FROM playlist_clips WHERE playlist_id = ? ORDER BY position, clip_id`,
		playlistID,
	)
	if err != nil {
		return nil, storeError("list playlist clips", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeError("list playlist clips", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list playlist clips", err)
	}
	return ids, nil
}

// DeleteClipAssociations removes every tag and playlist link of a clip.
func (s *Store) DeleteClipAssociations(ctx context.Context, clipID int64) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.execWithRetry(ctx, `DELETE FROM clip_tags WHERE clip_id = ?`, clipID); err != nil {
			return storeError("delete clip tags", err)
		}
		if _, err := tx.execWithRetry(ctx, `DELETE FROM playlist_clips WHERE clip_id = ?`, clipID); err != nil {
			return storeError("delete playlist links", err)
		}
		return nil
	})
}

// CopyAssociations unions fromID's tags into toID and appends toID to the
// end of every playlist fromID belongs to that does not already contain it.
func (s *Store) CopyAssociations(ctx context.Context, fromID, toID int64) error {
	if fromID == toID {
		return nil
	}
	return s.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.execWithRetry(
			ctx,
			`INSERT OR IGNORE INTO clip_tags (clip_id, tag_id)
             SELECT ?, tag_id FROM clip_tags WHERE clip_id = ?`,
			toID,
			fromID,
		); err != nil {
			return storeError("copy tags", err)
		}

		rows, err := tx.q.QueryContext(
			ensureContext(ctx),
			`SELECT playlist_id FROM playlist_clips
             WHERE clip_id = ?
               AND playlist_id NOT IN (SELECT playlist_id FROM playlist_clips WHERE clip_id = ?)
             ORDER BY playlist_id`,
			fromID,
			toID,
		)
		if err != nil {
			return storeError("list source playlists", err)
		}
		var playlists []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return storeError("list source playlists", err)
			}
			playlists = append(playlists, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return storeError("list source playlists", err)
		}
		for _, playlistID := range playlists {
			if err := tx.AddToPlaylist(ctx, playlistID, toID); err != nil {
				return err
			}
		}
		return nil
	})
}
