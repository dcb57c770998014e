// Package api exposes the catalog over a small JSON HTTP API served by
// `loopsleuth serve`.
//
// # Endpoints
//
//	GET  /api/progress                   current scan progress
//	POST /api/scans                      start a background scan (409 while one runs)
//	GET  /api/clips                      every cataloged clip
//	GET  /api/duplicates                 flagged clips grouped by canonical clip
//	POST /api/duplicates/:id/resolve     apply keep, delete, ignore, or merge
//
// DTOs use camelCase JSON tags. Nullable clip metadata is omitted rather
// than sent as zero values. Timestamps use RFC3339 with milliseconds.
package api
