package api

import (
	"loopsleuth/internal/catalog"
	"loopsleuth/internal/scanner"
)

// FromClip converts a catalog row into its transport form.
func FromClip(clip catalog.Clip) Clip {
	out := Clip{
		ID:              clip.ID,
		Path:            clip.Path,
		Filename:        clip.Filename,
		Duration:        clip.Duration,
		Width:           clip.Width,
		Height:          clip.Height,
		Size:            clip.Size,
		Codec:           clip.CodecName,
		PreviewPath:     clip.PreviewPath,
		AnimatedPreview: clip.AnimatedPreviewPath,
		Fingerprint:     clip.Fingerprint,
		NeedsReview:     clip.NeedsReview,
		DuplicateOf:     clip.DuplicateOf,
		ScanID:          clip.ScanID,
		Starred:         clip.Starred,
	}
	if !clip.ModifiedAt.IsZero() {
		out.ModifiedAt = clip.ModifiedAt.UTC().Format(dateTimeFormat)
	}
	if clip.ScannedAt != nil {
		out.ScannedAt = clip.ScannedAt.UTC().Format(dateTimeFormat)
	}
	return out
}

// FromClips converts a clip listing, never returning nil.
func FromClips(clips []*catalog.Clip) []Clip {
	out := make([]Clip, 0, len(clips))
	for _, clip := range clips {
		if clip != nil {
			out = append(out, FromClip(*clip))
		}
	}
	return out
}

// FromDuplicateGroups converts the derived duplicate view.
func FromDuplicateGroups(groups []catalog.DuplicateGroup) []DuplicateGroup {
	out := make([]DuplicateGroup, 0, len(groups))
	for _, group := range groups {
		converted := DuplicateGroup{
			Canonical:  FromClip(group.Canonical),
			Duplicates: make([]Clip, 0, len(group.Duplicates)),
		}
		for _, dup := range group.Duplicates {
			converted.Duplicates = append(converted.Duplicates, FromClip(dup))
		}
		out = append(out, converted)
	}
	return out
}

// FromProgress converts a scanner snapshot.
func FromProgress(p scanner.Progress) Progress {
	return Progress{
		Status:    string(p.Status),
		Total:     p.Total,
		Done:      p.Done,
		Processed: p.Processed,
		Skipped:   p.Skipped,
		Errors:    p.Errors,
		ScanID:    p.ScanID,
		Current:   p.Current,
		Error:     p.Error,
	}
}
