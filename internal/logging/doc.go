// Package logging assembles structured slog loggers and formatting helpers used
// across LoopSleuth.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so scanner and review code can
// tag log lines with scan IDs, clip IDs, and the scan session ID. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
