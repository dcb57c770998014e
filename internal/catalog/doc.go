// Package catalog persists clips, scans, and their duplicate relationships in
// SQLite and exposes the operations the scanner, clusterer, and review
// resolver need.
//
// The Store owns every clip and scan row. Paths are unique; a clip's scan_id
// records the last scan that confirmed the file on disk, and DeleteStale
// prunes everything a finished scan did not touch. A BEFORE DELETE trigger
// releases clips that still point at a deleted canonical clip so a flagged
// row never references a missing one.
//
// Tag and playlist tables live here too, but only as associations: they cascade
// on clip deletion and expose DeleteClipAssociations and CopyAssociations for
// the review merge. Schema changes go in a new numbered file under migrations/;
// goose applies them on Open.
package catalog
