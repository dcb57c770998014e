package dedupe

import (
	"fmt"
	"strings"
)

// Policy selects what happens to a clip found to duplicate an existing one.
type Policy string

const (
	// PolicySkip deletes the new clip so it never appears in the catalog.
	PolicySkip Policy = "skip"
	// PolicyMarkForReview keeps the new clip flagged against its canonical.
	PolicyMarkForReview Policy = "mark-for-review"
	// PolicyLog keeps the new clip unflagged and only logs the match.
	PolicyLog Policy = "log"
	// PolicyAutoMerge is reserved; it currently behaves like PolicyLog.
	PolicyAutoMerge Policy = "auto-merge"
)

// DefaultPolicy flags duplicates for a human to resolve.
const DefaultPolicy = PolicyMarkForReview

// ParsePolicy accepts the policy names case-insensitively, with either
// dashes or underscores. An empty value yields DefaultPolicy.
func ParsePolicy(value string) (Policy, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
	switch Policy(normalized) {
	case "":
		return DefaultPolicy, nil
	case PolicySkip, PolicyMarkForReview, PolicyLog, PolicyAutoMerge:
		return Policy(normalized), nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", value)
	}
}

// Kind classifies a fingerprint comparison.
type Kind string

const (
	KindExact  Kind = "exact"
	KindNear   Kind = "near"
	KindUnique Kind = "unique"
)

// Action records what the clusterer did with a clip.
type Action string

const (
	ActionNone    Action = "none"
	ActionFlagged Action = "flagged"
	ActionDeleted Action = "deleted"
	ActionLogged  Action = "logged"
)
