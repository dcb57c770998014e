// Package preflight provides readiness checks for the filesystem paths and
// external tools LoopSleuth depends on.
//
// `loopsleuth doctor` prints every result. `loopsleuth scan` runs the same
// checks first and refuses to start when a required one fails, so a scan
// never aborts on its first file because ffprobe is missing.
package preflight
