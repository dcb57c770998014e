// Package scanner walks a directory tree and drives every matching video
// file through probe, preview, fingerprint, and duplicate clustering,
// recording the results in the catalog.
//
// Each Ingest call is one scan generation: every clip seen on disk is stamped
// with the new scan id and, once the walk completes, clips that were not
// stamped are pruned. Already cataloged paths are only stamped unless the
// request forces a rescan. Files are handled strictly one at a time.
//
// Only one scan may run per catalog. An in-process mutex rejects overlapping
// calls immediately and a flock-based lock file in the data directory does
// the same across processes; a lock whose recorded start time is older than
// the configured window is treated as abandoned and reclaimed.
//
// Progress is published after every file as an atomic snapshot (Progress),
// mirrored to scan_progress.json, and pushed to an optional Observer.
package scanner
