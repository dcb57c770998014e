// Package dedupe finds perceptual near-duplicates among cataloged clips and
// applies the configured disposition policy.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/fingerprint"
	"loopsleuth/internal/logging"
)

// DefaultThreshold is the largest Hamming distance still treated as a
// near-duplicate.
const DefaultThreshold = 5

// Candidate is an existing fingerprinted clip to compare against.
type Candidate = catalog.FingerprintedClip

// Store is the catalog surface the clusterer reads and mutates.
type Store interface {
	FingerprintedClips(ctx context.Context, excludeID int64) ([]catalog.FingerprintedClip, error)
	SetDuplicate(ctx context.Context, id, canonicalID int64) error
	DeleteClip(ctx context.Context, id int64) (bool, error)
}

// Match is the first candidate within the threshold.
type Match struct {
	CanonicalID int64
	Distance    int
	Kind        Kind
}

// Outcome reports the classification and the action taken for one clip.
type Outcome struct {
	Kind        Kind
	Distance    int
	CanonicalID int64
	Action      Action
	Deleted     bool
}

// Subject is a clip whose fingerprint was just computed.
type Subject struct {
	ID          int64
	Fingerprint string
	// Existing marks a clip cataloged before the current scan. It is only
	// compared against lower ids, is never re-flagged while other clips
	// point at it, and is never deleted by PolicySkip.
	Existing bool
}

// Clusterer compares new fingerprints against the catalog.
type Clusterer struct {
	Policy    Policy
	Threshold int

	logger *slog.Logger
}

// New returns a Clusterer. A negative threshold falls back to DefaultThreshold.
func New(policy Policy, threshold int, logger *slog.Logger) *Clusterer {
	if policy == "" {
		policy = DefaultPolicy
	}
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Clusterer{
		Policy:    policy,
		Threshold: threshold,
		logger:    logging.NewComponentLogger(logger, "dedupe"),
	}
}

// Classify maps a Hamming distance onto exact, near, or unique.
func (c *Clusterer) Classify(distance int) Kind {
	switch {
	case distance == 0:
		return KindExact
	case distance <= c.Threshold:
		return KindNear
	default:
		return KindUnique
	}
}

// FindMatch returns the lowest-id candidate within the threshold of fp.
// Candidates with unparsable fingerprints are ignored. A match on a flagged
// candidate resolves to that candidate's canonical, so groups stay one level
// deep. selfID is never matched.
func (c *Clusterer) FindMatch(selfID int64, fp string, candidates []Candidate) (Match, bool) {
	if !fingerprint.Valid(fp) {
		return Match{}, false
	}
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b Candidate) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	for _, candidate := range ordered {
		if candidate.ID == selfID {
			continue
		}
		distance, err := fingerprint.Distance(fp, candidate.Fingerprint)
		if err != nil {
			continue
		}
		kind := c.Classify(distance)
		if kind == KindUnique {
			continue
		}
		canonicalID := candidate.ID
		if candidate.DuplicateOf != 0 {
			canonicalID = candidate.DuplicateOf
		}
		if canonicalID == selfID {
			continue
		}
		return Match{CanonicalID: canonicalID, Distance: distance, Kind: kind}, true
	}
	return Match{}, false
}

// Apply compares clip against the other fingerprinted clips and applies
// the policy to the first match.
func (c *Clusterer) Apply(ctx context.Context, store Store, clip Subject) (Outcome, error) {
	candidates, err := store.FingerprintedClips(ctx, clip.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load fingerprints: %w", err)
	}
	if clip.Existing {
		var anchors bool
		candidates, anchors = earlierCandidates(clip.ID, candidates)
		if anchors {
			c.logger.Debug("clip anchors a duplicate group; keeping it canonical",
				logging.Int64(logging.FieldClipID, clip.ID))
			return Outcome{Kind: KindUnique, Action: ActionNone}, nil
		}
	}
	match, ok := c.FindMatch(clip.ID, clip.Fingerprint, candidates)
	if !ok {
		return Outcome{Kind: KindUnique, Action: ActionNone}, nil
	}

	outcome := Outcome{Kind: match.Kind, Distance: match.Distance, CanonicalID: match.CanonicalID}
	logger := c.logger.With(
		logging.Int64(logging.FieldClipID, clip.ID),
		logging.Int64("canonical_id", match.CanonicalID),
		logging.Int("distance", match.Distance),
		logging.String("match_kind", string(match.Kind)),
	)
	reason := fmt.Sprintf("distance %d <= threshold %d", match.Distance, c.Threshold)

	if c.Policy == PolicySkip && clip.Existing {
		// Only rows inserted by this scan are discarded.
		logger.Info("duplicate of an existing clip kept", logging.Args(logging.DecisionAttrs("duplicate_policy", "kept", reason+"; clip predates this scan")...)...)
		outcome.Action = ActionLogged
		return outcome, nil
	}

	switch c.Policy {
	case PolicySkip:
		// Tag and playlist links cascade with the row.
		if _, err := store.DeleteClip(ctx, clip.ID); err != nil {
			return outcome, fmt.Errorf("delete duplicate clip %d: %w", clip.ID, err)
		}
		outcome.Action = ActionDeleted
		outcome.Deleted = true
		logger.Info("duplicate clip discarded", logging.Args(logging.DecisionAttrs("duplicate_policy", "skip", reason)...)...)
	case PolicyMarkForReview:
		if err := store.SetDuplicate(ctx, clip.ID, match.CanonicalID); err != nil {
			return outcome, fmt.Errorf("flag duplicate clip %d: %w", clip.ID, err)
		}
		outcome.Action = ActionFlagged
		logger.Info("duplicate clip flagged for review", logging.Args(logging.DecisionAttrs("duplicate_policy", "flagged", reason)...)...)
	case PolicyAutoMerge:
		logger.Warn("auto-merge is not implemented; keeping duplicate unflagged",
			logging.Args(logging.DecisionAttrs("duplicate_policy", "logged", reason)...)...)
		outcome.Action = ActionLogged
	default:
		logger.Info("duplicate clip detected", logging.Args(logging.DecisionAttrs("duplicate_policy", "logged", reason)...)...)
		outcome.Action = ActionLogged
	}
	return outcome, nil
}

// earlierCandidates keeps the candidates with ids below selfID and reports
// whether any flagged clip points at selfID.
func earlierCandidates(selfID int64, candidates []Candidate) ([]Candidate, bool) {
	earlier := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.DuplicateOf == selfID {
			return nil, true
		}
		if candidate.ID < selfID {
			earlier = append(earlier, candidate)
		}
	}
	return earlier, false
}
