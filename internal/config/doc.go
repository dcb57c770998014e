// Package config loads, normalizes, and validates LoopSleuth configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// LOOPSLEUTH_DB_PATH and LOOPSLEUTH_DUPLICATE_POLICY. Environment values are
// read once during Load; the resulting Config is then injected into the
// scanner, clusterer, and store so nothing downstream consults ambient state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
