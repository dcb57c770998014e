package scanner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/crc32"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/config"
	"loopsleuth/internal/dedupe"
	"loopsleuth/internal/fingerprint"
	"loopsleuth/internal/logging"
	"loopsleuth/internal/media/ffprobe"
	"loopsleuth/internal/testsupport"
)

type fakeProber struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (p *fakeProber) Probe(_ context.Context, path string) (ffprobe.Metadata, error) {
	p.mu.Lock()
	p.calls = append(p.calls, path)
	p.mu.Unlock()
	if err, ok := p.fail[filepath.Base(path)]; ok {
		return ffprobe.Metadata{}, err
	}
	duration := 4.0
	width, height := 640, 360
	codec := "h264"
	return ffprobe.Metadata{Duration: &duration, Width: &width, Height: &height, Codec: &codec}, nil
}

func (p *fakeProber) probed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// fakePreviews renders an image derived from the clip's bytes, so files
// with equal content get pixel-identical previews. Changing salt changes
// every later render, as a new ffmpeg build or frame offset would.
type fakePreviews struct {
	dir      string
	salt     int
	static   int
	animated int
}

func (g *fakePreviews) Static(_ context.Context, path string, _ *float64, clipID int64) (string, error) {
	g.static++
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	target := filepath.Join(g.dir, fmt.Sprintf("clip_%d.png", clipID))
	if err := writePattern(target, int(crc32.ChecksumIEEE(data))^g.salt); err != nil {
		return "", err
	}
	return target, nil
}

func (g *fakePreviews) Animated(_ context.Context, _ string, _ *float64, clipID int64) (string, error) {
	g.animated++
	target := filepath.Join(g.dir, fmt.Sprintf("clip_%d.gif", clipID))
	return target, os.WriteFile(target, []byte("GIF89a"), 0o644)
}

func writePattern(path string, variant int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, testsupport.PatternImage(128, 128, variant))
}

type harness struct {
	cfg      *config.Config
	store    *catalog.Store
	prober   *fakeProber
	previews *fakePreviews
	scanner  *Scanner
	root     string
}

func newHarness(t *testing.T, policy dedupe.Policy) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithPolicy(string(policy)))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	h := &harness{
		cfg:      cfg,
		store:    store,
		prober:   &fakeProber{fail: map[string]error{}},
		previews: &fakePreviews{dir: cfg.Paths.PreviewDir},
		root:     filepath.Join(testsupport.BaseDir(cfg), "library"),
	}
	h.scanner = New(cfg, Dependencies{
		Store:     store,
		Prober:    h.prober,
		Previews:  h.previews,
		Hasher:    fingerprint.Hasher{},
		Clusterer: dedupe.New(policy, dedupe.DefaultThreshold, logging.NewNop()),
		Logger:    logging.NewNop(),
	})
	if err := os.MkdirAll(h.root, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	return h
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (h *harness) ingest(t *testing.T, force bool) Result {
	t.Helper()
	result, err := h.scanner.Ingest(context.Background(), Request{Root: h.root, ForceRescan: force})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	h.assertGroupsConsistent(t)
	return result
}

// assertGroupsConsistent checks that every flagged clip points at a
// different, existing clip that is not itself flagged.
func (h *harness) assertGroupsConsistent(t *testing.T) {
	t.Helper()
	byID := make(map[int64]*catalog.Clip)
	clips := h.clips(t)
	for _, clip := range clips {
		byID[clip.ID] = clip
	}
	for _, clip := range clips {
		if !clip.NeedsReview {
			continue
		}
		if clip.DuplicateOf == nil || *clip.DuplicateOf == clip.ID {
			t.Fatalf("clip %d flagged without a distinct canonical: %+v", clip.ID, clip.DuplicateOf)
		}
		canonical, ok := byID[*clip.DuplicateOf]
		if !ok {
			t.Fatalf("clip %d points at missing clip %d", clip.ID, *clip.DuplicateOf)
		}
		if canonical.NeedsReview {
			t.Fatalf("clip %d points at clip %d, which is itself flagged against %v", clip.ID, canonical.ID, *canonical.DuplicateOf)
		}
	}
}

func (h *harness) removePreviews(t *testing.T) {
	t.Helper()
	for _, clip := range h.clips(t) {
		if err := os.Remove(clip.PreviewPath); err != nil {
			t.Fatalf("remove preview of clip %d: %v", clip.ID, err)
		}
	}
}

// failStamps makes every scan stamp of the named file fail.
func (h *harness) failStamps(t *testing.T, filename string) {
	t.Helper()
	db, err := sql.Open("sqlite", h.store.Path())
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	defer db.Close()
	_, err = db.Exec(`CREATE TRIGGER fail_stamp BEFORE UPDATE OF scan_id ON clips
		WHEN OLD.filename = '` + filename + `'
		BEGIN SELECT RAISE(ABORT, 'catalog unavailable'); END`)
	if err != nil {
		t.Fatalf("install trigger: %v", err)
	}
}

func (h *harness) clips(t *testing.T) []*catalog.Clip {
	t.Helper()
	clips, err := h.store.ListClips(context.Background())
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	return clips
}

func TestIngestFlagsIdenticalFilesForReview(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	first := h.write(t, "a.mp4", "same bytes")
	second := h.write(t, "b.mp4", "same bytes")
	h.write(t, "notes.txt", "ignored")

	result := h.ingest(t, false)
	if result.Status != StatusComplete || result.Total != 2 || result.Processed != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	ctx := context.Background()
	a, err := h.store.GetClipByPath(ctx, first)
	if err != nil || a == nil {
		t.Fatalf("first clip missing: %v", err)
	}
	b, err := h.store.GetClipByPath(ctx, second)
	if err != nil || b == nil {
		t.Fatalf("second clip missing: %v", err)
	}
	if a.NeedsReview || a.DuplicateOf != nil {
		t.Fatalf("first clip should be canonical: %+v", a)
	}
	if !b.NeedsReview || b.DuplicateOf == nil || *b.DuplicateOf != a.ID {
		t.Fatalf("second clip should point at first: %+v", b)
	}
	distance, err := fingerprint.Distance(a.Fingerprint, b.Fingerprint)
	if err != nil || distance != 0 {
		t.Fatalf("expected identical fingerprints, distance=%d err=%v", distance, err)
	}
	if a.Width == nil || *a.Width != 640 || a.CodecName == nil || *a.CodecName != "h264" {
		t.Fatalf("metadata not stored: %+v", a)
	}
	if a.ScanID == nil || *a.ScanID != result.ScanID {
		t.Fatalf("clip not stamped with scan %d: %+v", result.ScanID, a.ScanID)
	}
}

func TestIngestSkipPolicyKeepsOneRow(t *testing.T) {
	h := newHarness(t, dedupe.PolicySkip)
	h.write(t, "a.mp4", "same bytes")
	h.write(t, "b.mp4", "same bytes")

	h.ingest(t, false)
	clips := h.clips(t)
	if len(clips) != 1 {
		t.Fatalf("expected a single clip, got %d", len(clips))
	}
	if filepath.Base(clips[0].Path) != "a.mp4" {
		t.Fatalf("expected first file to survive, got %s", clips[0].Path)
	}
}

func TestIngestDistinctFilesStayUnflagged(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "first clip")
	h.write(t, "b.mov", "second clip")

	h.ingest(t, false)
	for _, clip := range h.clips(t) {
		if clip.NeedsReview || clip.DuplicateOf != nil {
			t.Fatalf("distinct clip flagged: %+v", clip)
		}
		if clip.Fingerprint == "" || clip.PreviewPath == "" {
			t.Fatalf("clip missing artifacts: %+v", clip)
		}
	}
}

func TestRescanPrunesRemovedFiles(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "one.mp4", "1")
	removed := h.write(t, "two.mp4", "2")
	h.write(t, "nested/three.mkv", "3")

	first := h.ingest(t, false)
	if first.Processed != 3 {
		t.Fatalf("expected 3 processed, got %+v", first)
	}
	if err := os.Remove(removed); err != nil {
		t.Fatalf("remove: %v", err)
	}

	second := h.ingest(t, false)
	if second.Skipped != 2 || second.Processed != 0 {
		t.Fatalf("expected unchanged files to be skipped: %+v", second)
	}
	if len(second.Pruned) != 1 {
		t.Fatalf("expected one pruned clip, got %v", second.Pruned)
	}
	clips := h.clips(t)
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	for _, clip := range clips {
		if clip.Path == removed {
			t.Fatalf("removed file still cataloged")
		}
		if clip.ScanID == nil || *clip.ScanID != second.ScanID {
			t.Fatalf("clip %d not stamped by latest scan", clip.ID)
		}
	}
}

func TestRescanWithoutForceDoesNotReprobe(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "a")
	h.write(t, "b.mp4", "b")

	h.ingest(t, false)
	before := h.prober.probed()
	h.ingest(t, false)
	if h.prober.probed() != before {
		t.Fatalf("rescan probed again: %d -> %d", before, h.prober.probed())
	}
	if h.previews.static != 2 {
		t.Fatalf("expected previews generated once, got %d", h.previews.static)
	}

	h.ingest(t, true)
	if h.prober.probed() != before+2 {
		t.Fatalf("forced rescan should probe every file, got %d", h.prober.probed())
	}
	if h.previews.static != 2 {
		t.Fatalf("forced rescan regenerated existing previews: %d", h.previews.static)
	}
	if len(h.clips(t)) != 2 {
		t.Fatalf("forced rescan changed row count")
	}
}

func TestForcedRescanRegeneratesMissingPreview(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	path := h.write(t, "a.mp4", "a")
	h.ingest(t, false)

	clip, err := h.store.GetClipByPath(context.Background(), path)
	if err != nil || clip == nil {
		t.Fatalf("GetClipByPath: %v", err)
	}
	if err := os.Remove(clip.PreviewPath); err != nil {
		t.Fatalf("remove preview: %v", err)
	}
	h.ingest(t, true)
	if h.previews.static != 2 {
		t.Fatalf("expected missing preview to be regenerated, got %d renders", h.previews.static)
	}
}

func TestForcedRescanKeepsDuplicateGroups(t *testing.T) {
	tests := []struct {
		name string
		salt int
	}{
		{"unchanged fingerprints", 0},
		{"changed fingerprints", 0x5a5a},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, dedupe.PolicyMarkForReview)
			h.write(t, "a.mp4", "same bytes")
			h.write(t, "b.mp4", "same bytes")
			h.ingest(t, false)

			h.removePreviews(t)
			h.previews.salt = tc.salt
			h.ingest(t, true)

			groups, err := h.store.DuplicateGroups(context.Background())
			if err != nil {
				t.Fatalf("DuplicateGroups: %v", err)
			}
			if len(groups) != 1 || len(groups[0].Duplicates) != 1 {
				t.Fatalf("expected one group with one duplicate, got %+v", groups)
			}
			canonical, duplicate := groups[0].Canonical, groups[0].Duplicates[0]
			if filepath.Base(canonical.Path) != "a.mp4" || canonical.NeedsReview {
				t.Fatalf("expected a.mp4 to stay canonical, got %+v", canonical)
			}
			if filepath.Base(duplicate.Path) != "b.mp4" || *duplicate.DuplicateOf != canonical.ID {
				t.Fatalf("expected b.mp4 flagged against a.mp4, got %+v", duplicate)
			}
		})
	}
}

func TestForcedRescanUnderSkipKeepsExistingClips(t *testing.T) {
	h := newHarness(t, dedupe.PolicySkip)
	h.write(t, "a.mp4", "first")
	second := h.write(t, "b.mp4", "second")
	h.ingest(t, false)

	ctx := context.Background()
	clips := h.clips(t)
	if len(clips) != 2 {
		t.Fatalf("expected distinct clips to be kept, got %d", len(clips))
	}
	if err := h.store.AddTag(ctx, clips[0].ID, "favorite"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}

	// b.mp4 now renders exactly like a.mp4.
	if err := os.WriteFile(second, []byte("first"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	h.removePreviews(t)
	h.ingest(t, true)

	after := h.clips(t)
	if len(after) != 2 {
		t.Fatalf("forced rescan deleted cataloged clips: %d left", len(after))
	}
	tags, err := h.store.ClipTags(ctx, clips[0].ID)
	if err != nil || len(tags) != 1 {
		t.Fatalf("expected tag to survive, got %v (%v)", tags, err)
	}

	// A file that is new to the catalog is still discarded.
	h.write(t, "c.mp4", "first")
	h.ingest(t, false)
	if got := len(h.clips(t)); got != 2 {
		t.Fatalf("expected new duplicate to be discarded, got %d clips", got)
	}
}

func TestUnconfirmedClipBlocksPrune(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "a")
	h.write(t, "b.mp4", "b")
	removed := h.write(t, "c.mp4", "c")
	h.ingest(t, false)

	if err := os.Remove(removed); err != nil {
		t.Fatalf("remove: %v", err)
	}
	h.failStamps(t, "b.mp4")

	result := h.ingest(t, false)
	if result.Status != StatusComplete || !result.PruneSkipped {
		t.Fatalf("expected completed scan without pruning, got %+v", result)
	}
	if result.Errors != 1 || result.Skipped != 1 || len(result.Pruned) != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if got := len(h.clips(t)); got != 3 {
		t.Fatalf("expected every clip kept, got %d", got)
	}
}

func TestToolMissingAbortsScan(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "a")
	h.write(t, "b.mp4", "b")
	h.write(t, "c.mp4", "c")
	h.prober.fail["a.mp4"] = &ffprobe.Error{Path: "a.mp4", Kind: ffprobe.ErrToolMissing, Err: errors.New("exec: not found")}

	result, err := h.scanner.Ingest(context.Background(), Request{Root: h.root})
	if !errors.Is(err, ffprobe.ErrToolMissing) {
		t.Fatalf("expected ErrToolMissing, got %v", err)
	}
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if result.Done >= result.Total {
		t.Fatalf("expected done < total, got %d/%d", result.Done, result.Total)
	}
	if h.prober.probed() != 1 {
		t.Fatalf("remaining files were probed: %d", h.prober.probed())
	}

	scan, err := h.store.GetScan(context.Background(), result.ScanID)
	if err != nil || scan == nil {
		t.Fatalf("GetScan: %v", err)
	}
	if scan.Status != catalog.ScanStatusError || scan.ErrorMessage == "" {
		t.Fatalf("scan row not marked failed: %+v", scan)
	}
	if got := h.scanner.Progress(); got.Status != StatusError || got.Error == "" {
		t.Fatalf("unexpected progress after abort: %+v", got)
	}
}

func TestAbortedScanDoesNotPrune(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "a")
	h.write(t, "b.mp4", "b")
	h.ingest(t, false)

	h.prober.fail["a.mp4"] = &ffprobe.Error{Path: "a.mp4", Kind: ffprobe.ErrToolMissing, Err: errors.New("missing")}
	if _, err := h.scanner.Ingest(context.Background(), Request{Root: h.root, ForceRescan: true}); err == nil {
		t.Fatal("expected aborted scan")
	}
	if len(h.clips(t)) != 2 {
		t.Fatalf("aborted scan removed clips")
	}
}

func TestProbeFailureCountsErrorAndContinues(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "bad.mp4", "corrupt")
	h.write(t, "good.mp4", "fine")
	h.prober.fail["bad.mp4"] = &ffprobe.Error{Path: "bad.mp4", Kind: ffprobe.ErrProbeFailed, Err: errors.New("invalid data")}

	result := h.ingest(t, false)
	if result.Errors != 1 || result.Processed != 1 || result.Done != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	clips := h.clips(t)
	if len(clips) != 1 || filepath.Base(clips[0].Path) != "good.mp4" {
		t.Fatalf("expected only good.mp4 cataloged, got %d clips", len(clips))
	}
}

func TestIngestRejectsOverlappingScans(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "a")

	held, _, err := acquireFileLock(h.cfg.LockPath(), time.Hour, time.Now())
	if err != nil {
		t.Fatalf("acquireFileLock: %v", err)
	}
	_, err = h.scanner.Ingest(context.Background(), Request{Root: h.root})
	if !errors.Is(err, ErrLockConflict) {
		t.Fatalf("expected ErrLockConflict, got %v", err)
	}
	if scan, err := h.store.LatestScan(context.Background()); err != nil || scan != nil {
		t.Fatalf("rejected scan created a row: %+v (%v)", scan, err)
	}
	if err := held.release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	h.ingest(t, false)
}

func TestIngestRejectsConcurrentCallInProcess(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.scanner.mu.Lock()
	_, err := h.scanner.IngestAsync(context.Background(), Request{Root: h.root})
	h.scanner.mu.Unlock()
	if !errors.Is(err, ErrLockConflict) {
		t.Fatalf("expected ErrLockConflict, got %v", err)
	}
}

// exitedPID returns the pid of a process that has already exited.
func exitedPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	if err := cmd.Run(); err != nil {
		t.Fatalf("run helper process: %v", err)
	}
	return cmd.Process.Pid
}

func TestIngestReclaimsStaleLock(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "a")

	held, _, err := acquireFileLock(h.cfg.LockPath(), time.Hour, time.Now())
	if err != nil {
		t.Fatalf("acquireFileLock: %v", err)
	}
	defer held.release()
	if err := WriteLockInfo(h.cfg.LockPath(), LockInfo{PID: exitedPID(t), StartedAt: time.Now().Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("WriteLockInfo: %v", err)
	}

	result := h.ingest(t, false)
	if result.Status != StatusComplete {
		t.Fatalf("expected scan to reclaim stale lock, got %+v", result)
	}
}

func TestLockHeldByLiveProcessIsNeverReclaimed(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)

	held, _, err := acquireFileLock(h.cfg.LockPath(), time.Hour, time.Now())
	if err != nil {
		t.Fatalf("acquireFileLock: %v", err)
	}
	defer held.release()

	tests := []struct {
		name string
		info LockInfo
	}{
		{"live holder past the stale window", LockInfo{PID: os.Getppid(), StartedAt: time.Now().Add(-48 * time.Hour)}},
		{"exited holder inside the stale window", LockInfo{PID: exitedPID(t), StartedAt: time.Now()}},
		{"unknown holder", LockInfo{StartedAt: time.Now().Add(-48 * time.Hour)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := WriteLockInfo(h.cfg.LockPath(), tc.info); err != nil {
				t.Fatalf("WriteLockInfo: %v", err)
			}
			if _, err := h.scanner.Ingest(context.Background(), Request{Root: h.root}); !errors.Is(err, ErrLockConflict) {
				t.Fatalf("expected ErrLockConflict, got %v", err)
			}
		})
	}
}

func TestReleaseClearsLockHolder(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.ingest(t, false)
	if _, err := ReadLockInfo(h.cfg.LockPath()); err == nil {
		t.Fatal("expected released lock file to carry no holder")
	}
}

func TestIngestAsyncReportsProgress(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.write(t, "a.mp4", "a")
	h.write(t, "b.mp4", "b")

	var mu sync.Mutex
	var seen []Progress
	done, err := h.scanner.IngestAsync(context.Background(), Request{
		Root: h.root,
		Observer: func(p Progress) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("IngestAsync: %v", err)
	}
	var result Result
	select {
	case result = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("scan did not finish")
	}
	if result.Err != nil || result.Status != StatusComplete {
		t.Fatalf("unexpected result: %+v", result)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 3 {
		t.Fatalf("expected start, per-file and final updates, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].Done < seen[i-1].Done {
			t.Fatalf("progress went backwards: %+v -> %+v", seen[i-1], seen[i])
		}
	}
	last := seen[len(seen)-1]
	if last.Status != StatusComplete || last.Done != 2 || last.Total != 2 {
		t.Fatalf("unexpected final progress: %+v", last)
	}

	mirrored, err := ReadProgressFile(h.cfg.ProgressPath())
	if err != nil {
		t.Fatalf("ReadProgressFile: %v", err)
	}
	if mirrored.Status != StatusComplete || mirrored.ScanID != result.ScanID {
		t.Fatalf("unexpected mirrored progress: %+v", mirrored)
	}
}

func TestAnimatedPreviewsWhenEnabled(t *testing.T) {
	h := newHarness(t, dedupe.PolicyMarkForReview)
	h.scanner.animatedPreviews = true
	path := h.write(t, "a.mp4", "a")

	h.ingest(t, false)
	clip, err := h.store.GetClipByPath(context.Background(), path)
	if err != nil || clip == nil {
		t.Fatalf("GetClipByPath: %v", err)
	}
	if h.previews.animated != 1 || clip.AnimatedPreviewPath == "" {
		t.Fatalf("animated preview not recorded: %+v", clip)
	}
}

func TestReadProgressFileMissingIsIdle(t *testing.T) {
	p, err := ReadProgressFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("ReadProgressFile: %v", err)
	}
	if p.Status != StatusIdle {
		t.Fatalf("expected idle, got %s", p.Status)
	}
}
