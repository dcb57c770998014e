package testsupport

import (
	"context"
	"testing"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewClip inserts a clip at path and optionally stores a fingerprint.
func NewClip(t testing.TB, store *catalog.Store, path, fingerprint string) *catalog.Clip {
	t.Helper()

	ctx := context.Background()
	clip, _, err := store.InsertOrGetClip(ctx, path, "")
	if err != nil {
		t.Fatalf("store.InsertOrGetClip: %v", err)
	}
	if fingerprint != "" {
		if err := store.SetFingerprint(ctx, clip.ID, fingerprint); err != nil {
			t.Fatalf("store.SetFingerprint: %v", err)
		}
		clip.Fingerprint = fingerprint
	}
	return clip
}

// MustGetClip fetches a clip and fails the test on store errors.
func MustGetClip(t testing.TB, store *catalog.Store, id int64) *catalog.Clip {
	t.Helper()

	clip, err := store.GetClip(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetClip(%d): %v", id, err)
	}
	return clip
}
