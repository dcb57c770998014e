package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/config"
	"loopsleuth/internal/dedupe"
	"loopsleuth/internal/fileutil"
	"loopsleuth/internal/logging"
	"loopsleuth/internal/media/ffprobe"
)

// Prober extracts clip metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Metadata, error)
}

// PreviewGenerator renders preview images for a clip.
type PreviewGenerator interface {
	Static(ctx context.Context, path string, duration *float64, clipID int64) (string, error)
	Animated(ctx context.Context, path string, duration *float64, clipID int64) (string, error)
}

// Fingerprinter hashes a preview image.
type Fingerprinter interface {
	FromFile(path string) (string, error)
}

// Dependencies are the collaborators a Scanner drives.
type Dependencies struct {
	Store     *catalog.Store
	Prober    Prober
	Previews  PreviewGenerator
	Hasher    Fingerprinter
	Clusterer *dedupe.Clusterer
	Logger    *slog.Logger
}

// Request describes one scan.
type Request struct {
	Root string
	// Extensions overrides the configured extension set when non-empty.
	Extensions []string
	// ForceRescan refreshes metadata of already cataloged files and fills in
	// missing previews and fingerprints.
	ForceRescan bool
	Observer    Observer
}

// Result summarizes a finished or aborted scan.
type Result struct {
	ScanID    int64
	SessionID string
	Status    Status
	Total     int
	Done      int
	Processed int
	Skipped   int
	Errors    int
	Pruned    []int64
	// PruneSkipped is set when a cataloged file could not be confirmed in
	// this scan, so removed files were left in the catalog.
	PruneSkipped bool
	// Err is set on asynchronous results when the scan aborted.
	Err error
}

// Scanner ingests directories into the catalog. It is safe for concurrent
// use; overlapping scans are rejected with ErrLockConflict.
type Scanner struct {
	deps             Dependencies
	extensions       []string
	lockPath         string
	lockStaleAfter   time.Duration
	animatedPreviews bool
	logger           *slog.Logger
	now              func() time.Time

	mu       sync.Mutex
	progress *progressTracker
}

// New constructs a Scanner using cfg for extensions, lock and progress paths.
func New(cfg *config.Config, deps Dependencies) *Scanner {
	logger := logging.NewComponentLogger(deps.Logger, "scanner")
	return &Scanner{
		deps:             deps,
		extensions:       append([]string(nil), cfg.Scan.Extensions...),
		lockPath:         cfg.LockPath(),
		lockStaleAfter:   cfg.LockStaleAfter(),
		animatedPreviews: cfg.Scan.AnimatedPreviews,
		logger:           logger,
		now:              time.Now,
		progress:         newProgressTracker(cfg.ProgressPath(), logger),
	}
}

// Progress returns the latest snapshot without blocking.
func (s *Scanner) Progress() Progress {
	return s.progress.snapshot()
}

// Ingest runs a scan to completion. It returns ErrLockConflict without
// touching the catalog when another scan holds the lock.
func (s *Scanner) Ingest(ctx context.Context, req Request) (Result, error) {
	release, err := s.acquire()
	if err != nil {
		return Result{}, err
	}
	defer release()
	return s.run(ctx, req)
}

// IngestAsync takes the scan lock synchronously and runs the scan in the
// background. The returned channel receives exactly one Result.
func (s *Scanner) IngestAsync(ctx context.Context, req Request) (<-chan Result, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	done := make(chan Result, 1)
	go func() {
		defer release()
		result, err := s.run(ctx, req)
		result.Err = err
		done <- result
	}()
	return done, nil
}

func (s *Scanner) acquire() (func(), error) {
	if !s.mu.TryLock() {
		return nil, ErrLockConflict
	}
	lock, reclaimed, err := acquireFileLock(s.lockPath, s.lockStaleAfter, s.now())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if reclaimed {
		logging.WarnWithContext(s.logger, "reclaimed abandoned scan lock", "lock_reclaimed",
			logging.String("lock", s.lockPath),
			logging.Duration("stale_after", s.lockStaleAfter),
			logging.String(logging.FieldErrorHint, "a previous scan did not exit cleanly"),
			logging.String(logging.FieldImpact, "none; the new scan proceeds"),
		)
	}
	return func() {
		if err := lock.release(); err != nil {
			s.logger.Warn("failed to release scan lock", logging.Error(err))
		}
		s.mu.Unlock()
	}, nil
}

// fatalError aborts the whole scan.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

type fileOutcome int

const (
	outcomeProcessed fileOutcome = iota
	outcomeSkipped
	outcomeError
	// outcomeUnstamped is an error that left a possibly cataloged file
	// without the current scan id. Pruning would delete it.
	outcomeUnstamped
)

func (s *Scanner) run(ctx context.Context, req Request) (Result, error) {
	s.progress.observer = req.Observer
	extensions := req.Extensions
	if len(extensions) == 0 {
		extensions = s.extensions
	}
	root, err := filepath.Abs(req.Root)
	if err != nil {
		return Result{}, fmt.Errorf("resolve scan root: %w", err)
	}
	files, err := Enumerate(root, extensions, s.logger)
	if err != nil {
		s.progress.publish(Progress{Status: StatusError, Error: err.Error()})
		return Result{Status: StatusError}, err
	}

	sessionID := uuid.NewString()
	scan, err := s.deps.Store.CreateScan(ctx, root, sessionID)
	if err != nil {
		s.progress.publish(Progress{Status: StatusError, Error: err.Error()})
		return Result{Status: StatusError}, fmt.Errorf("create scan: %w", err)
	}
	ctx = logging.WithScanID(ctx, scan.ID)
	logger := logging.WithContext(ctx, logging.WithSession(s.logger, sessionID))

	result := Result{ScanID: scan.ID, SessionID: sessionID, Status: StatusScanning, Total: len(files)}
	progress := Progress{Total: len(files), Status: StatusScanning, ScanID: scan.ID}
	s.progress.publish(progress)
	logger.Info("scan started",
		logging.String("root", root),
		logging.Int("files", len(files)),
		logging.Bool("force_rescan", req.ForceRescan),
	)

	abort := func(cause error) (Result, error) {
		result.Status = StatusError
		counts := catalog.ScanCounts{Processed: result.Processed, Skipped: result.Skipped, Errors: result.Errors}
		// The scan row is finalized even if the caller's context was cancelled.
		finishCtx := context.WithoutCancel(ctx)
		if err := s.deps.Store.FinishScan(finishCtx, scan.ID, catalog.ScanStatusError, counts, cause.Error()); err != nil {
			logger.Warn("failed to record scan failure", logging.Error(err))
		}
		progress.Status = StatusError
		progress.Error = cause.Error()
		progress.Current = ""
		s.progress.publish(progress)
		logging.ErrorWithContext(logger, "scan aborted", "scan_aborted",
			logging.Error(cause),
			logging.Int("done", result.Done),
			logging.Int("total", result.Total),
			logging.String(logging.FieldErrorHint, "install ffmpeg/ffprobe or rerun the scan"),
		)
		return result, cause
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		progress.Current = path
		outcome, err := s.processFile(ctx, logger, scan.ID, path, req.ForceRescan)
		var fatal *fatalError
		if errors.As(err, &fatal) {
			result.Errors++
			progress.Errors = result.Errors
			return abort(fatal.err)
		}
		switch outcome {
		case outcomeProcessed:
			result.Processed++
		case outcomeSkipped:
			result.Skipped++
		case outcomeError:
			result.Errors++
		case outcomeUnstamped:
			result.Errors++
			result.PruneSkipped = true
		}
		result.Done++
		progress.Done = result.Done
		progress.Processed = result.Processed
		progress.Skipped = result.Skipped
		progress.Errors = result.Errors
		s.progress.publish(progress)
	}

	if result.PruneSkipped {
		logging.WarnWithContext(logger, "skipping removal of missing clips", "prune_skipped",
			logging.String(logging.FieldErrorHint, "rerun the scan once the catalog is healthy"),
			logging.String(logging.FieldImpact, "clips for deleted files stay cataloged until the next clean scan"),
		)
	} else {
		pruned, err := s.deps.Store.DeleteStale(ctx, scan.ID)
		if err != nil {
			return abort(fmt.Errorf("prune stale clips: %w", err))
		}
		result.Pruned = pruned
	}
	result.Status = StatusComplete

	counts := catalog.ScanCounts{Processed: result.Processed, Skipped: result.Skipped, Errors: result.Errors}
	if err := s.deps.Store.FinishScan(ctx, scan.ID, catalog.ScanStatusComplete, counts, ""); err != nil {
		logger.Warn("failed to record scan completion", logging.Error(err))
	}
	progress.Status = StatusComplete
	progress.Current = ""
	s.progress.publish(progress)
	logger.Info("scan complete",
		logging.Int("processed", result.Processed),
		logging.Int("skipped", result.Skipped),
		logging.Int("errors", result.Errors),
		logging.Int("pruned", len(result.Pruned)),
	)
	return result, nil
}

// processFile runs one file through the pipeline. Errors other than
// *fatalError have already been logged and are reported as outcomeError, or
// outcomeUnstamped when a cataloged row may have missed the scan stamp.
func (s *Scanner) processFile(ctx context.Context, logger *slog.Logger, scanID int64, path string, force bool) (fileOutcome, error) {
	store := s.deps.Store
	fileLogger := logger.With(logging.String(logging.FieldPath, path))

	existing, err := store.GetClipByPath(ctx, path)
	if err != nil {
		s.warnStore(fileLogger, "lookup clip", err)
		return outcomeUnstamped, nil
	}
	if existing != nil && !force {
		if err := store.StampScan(ctx, existing.ID, scanID); err != nil {
			s.warnStore(fileLogger, "stamp clip", err)
			return outcomeUnstamped, nil
		}
		return outcomeSkipped, nil
	}

	meta, err := s.deps.Prober.Probe(ctx, path)
	if err != nil {
		if errors.Is(err, ffprobe.ErrToolMissing) {
			return outcomeError, &fatalError{err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcomeError, &fatalError{err: ctxErr}
		}
		outcome := outcomeError
		if existing != nil {
			if stampErr := store.StampScan(ctx, existing.ID, scanID); stampErr != nil {
				s.warnStore(fileLogger, "stamp clip", stampErr)
				outcome = outcomeUnstamped
			}
		}
		logging.WarnWithContext(fileLogger, "probe failed; skipping file", "probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the file is a readable video"),
			logging.String(logging.FieldImpact, "file not cataloged in this scan"),
		)
		return outcome, nil
	}

	clip := existing
	created := false
	if clip == nil {
		clip, created, err = store.InsertOrGetClip(ctx, path, "")
		if err != nil {
			s.warnStore(fileLogger, "insert clip", err)
			return outcomeError, nil
		}
	}
	fileLogger = fileLogger.With(logging.Int64(logging.FieldClipID, clip.ID))

	if err := store.StampScan(ctx, clip.ID, scanID); err != nil {
		s.warnStore(fileLogger, "stamp clip", err)
		return outcomeUnstamped, nil
	}
	if err := store.UpdateClipMetadata(ctx, clip.ID, catalog.Metadata{
		Duration:  meta.Duration,
		Width:     meta.Width,
		Height:    meta.Height,
		Size:      meta.Size,
		CodecName: meta.Codec,
	}); err != nil {
		s.warnStore(fileLogger, "update metadata", err)
		return outcomeError, nil
	}

	previewPath := clip.PreviewPath
	previewFresh := false
	if !fileutil.NonEmpty(previewPath) {
		previewPath = ""
		generated, err := s.deps.Previews.Static(ctx, path, meta.Duration, clip.ID)
		if err != nil {
			s.warnArtifact(fileLogger, "preview generation failed", "preview_failed", err)
		} else if err := store.SetPreview(ctx, clip.ID, generated); err != nil {
			s.warnStore(fileLogger, "record preview", err)
		} else {
			previewPath = generated
			previewFresh = true
		}
	}

	if s.animatedPreviews && !fileutil.NonEmpty(clip.AnimatedPreviewPath) {
		animated, err := s.deps.Previews.Animated(ctx, path, meta.Duration, clip.ID)
		if err != nil {
			s.warnArtifact(fileLogger, "animated preview failed", "animated_preview_failed", err)
		} else if err := store.SetAnimatedPreview(ctx, clip.ID, animated); err != nil {
			s.warnStore(fileLogger, "record animated preview", err)
		}
	}

	if previewPath == "" || (clip.Fingerprint != "" && !previewFresh) {
		return outcomeProcessed, nil
	}
	fp, err := s.deps.Hasher.FromFile(previewPath)
	if err != nil {
		s.warnArtifact(fileLogger, "fingerprint failed", "fingerprint_failed", err)
		return outcomeProcessed, nil
	}
	if !created && fp == clip.Fingerprint {
		// Regenerated preview hashed the same; the clip's grouping stands.
		return outcomeProcessed, nil
	}
	if err := store.SetFingerprint(ctx, clip.ID, fp); err != nil {
		s.warnStore(fileLogger, "record fingerprint", err)
		return outcomeProcessed, nil
	}

	outcome, err := s.deps.Clusterer.Apply(ctx, store, dedupe.Subject{ID: clip.ID, Fingerprint: fp, Existing: !created})
	if err != nil {
		s.warnStore(fileLogger, "duplicate check", err)
		return outcomeProcessed, nil
	}
	if outcome.Action != dedupe.ActionNone {
		fileLogger.Debug("duplicate check",
			logging.String("action", string(outcome.Action)),
			logging.Int64("canonical_id", outcome.CanonicalID),
			logging.Int("distance", outcome.Distance),
		)
	}
	return outcomeProcessed, nil
}

func (s *Scanner) warnStore(logger *slog.Logger, op string, err error) {
	logging.WarnWithContext(logger, "catalog write failed", "store_error",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the catalog database and disk space"),
	)
}

func (s *Scanner) warnArtifact(logger *slog.Logger, msg, eventType string, err error) {
	logging.WarnWithContext(logger, msg, eventType,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rerun with --force to retry"),
		logging.String(logging.FieldImpact, "clip cataloged without this artifact"),
	)
}
