package dedupe

import (
	"context"
	"fmt"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/fingerprint"
	"loopsleuth/internal/logging"
)

// ReflagResult summarizes a catalog-wide regrouping.
type ReflagResult struct {
	Groups  int
	Flagged int
}

// Reflag rebuilds every duplicate flag from the stored fingerprints in one
// transaction. Clips are visited in ascending id order; each unvisited clip
// collects every later unvisited clip within the threshold, and the group's
// lowest id becomes canonical. Review decisions made earlier are discarded.
func (c *Clusterer) Reflag(ctx context.Context, store *catalog.Store) (ReflagResult, error) {
	var result ReflagResult
	err := store.WithTx(ctx, func(tx *catalog.Store) error {
		clips, err := tx.FingerprintedClips(ctx, 0)
		if err != nil {
			return err
		}
		valid := clips[:0]
		for _, clip := range clips {
			if fingerprint.Valid(clip.Fingerprint) {
				valid = append(valid, clip)
			}
		}

		if _, err := tx.ResetDuplicateFlags(ctx); err != nil {
			return err
		}

		seen := make(map[int64]bool, len(valid))
		for i, clip := range valid {
			if seen[clip.ID] {
				continue
			}
			var members []int64
			for _, other := range valid[i+1:] {
				if seen[other.ID] {
					continue
				}
				distance, err := fingerprint.Distance(clip.Fingerprint, other.Fingerprint)
				if err != nil || c.Classify(distance) == KindUnique {
					continue
				}
				members = append(members, other.ID)
				seen[other.ID] = true
			}
			if len(members) == 0 {
				continue
			}
			seen[clip.ID] = true
			result.Groups++
			for _, id := range members {
				if err := tx.SetDuplicate(ctx, id, clip.ID); err != nil {
					return fmt.Errorf("flag clip %d: %w", id, err)
				}
				result.Flagged++
			}
		}
		return nil
	})
	if err != nil {
		return ReflagResult{}, err
	}
	c.logger.Info("duplicate flags rebuilt",
		logging.Int("groups", result.Groups),
		logging.Int("flagged", result.Flagged),
		logging.Int("threshold", c.Threshold),
	)
	return result, nil
}
