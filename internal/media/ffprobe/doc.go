// Package ffprobe wraps the ffprobe executable and decodes its JSON output.
//
// Inspect returns the raw streams and format sections. Prober narrows that to
// the clip Metadata the catalog stores and classifies failures: ErrToolMissing
// when the executable itself cannot be run, ErrNotFound when the media file
// is gone, and ErrProbeFailed for everything else. Callers match them with
// errors.Is; only ErrToolMissing is meant to stop a whole scan.
package ffprobe
