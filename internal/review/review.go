// Package review applies curator decisions to clips flagged as duplicates.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/logging"
)

// Action is a curator decision for one flagged clip.
type Action string

const (
	// ActionKeep turns the duplicate into an independent clip.
	ActionKeep Action = "keep"
	// ActionDelete removes the duplicate and its tag and playlist links.
	ActionDelete Action = "delete"
	// ActionIgnore leaves the review queue but remembers duplicate_of.
	ActionIgnore Action = "ignore"
	// ActionMerge folds the duplicate's associations into the canonical
	// clip and removes the duplicate.
	ActionMerge Action = "merge"
)

// State is the review state of a clip after an action.
type State string

const (
	StateFlagged  State = "flagged"
	StateResolved State = "resolved"
)

// ErrInvalidTarget reports a merge onto the clip itself or onto a clip that
// does not exist.
var ErrInvalidTarget = errors.New("invalid merge target")

// ErrUnknownAction reports an unrecognized action name.
var ErrUnknownAction = errors.New("unknown review action")

// ParseAction accepts the action names case-insensitively.
func ParseAction(value string) (Action, error) {
	switch action := Action(strings.ToLower(strings.TrimSpace(value))); action {
	case ActionKeep, ActionDelete, ActionIgnore, ActionMerge:
		return action, nil
	default:
		return "", fmt.Errorf("%w %q (expected keep, delete, ignore, or merge)", ErrUnknownAction, value)
	}
}

// Resolver applies review actions against the catalog. Each call runs in a
// single transaction.
type Resolver struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewResolver returns a Resolver writing to store.
func NewResolver(store *catalog.Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logging.NewComponentLogger(logger, "review")}
}

// Resolve applies action to the clip duplicateID. canonicalID overrides the
// merge target; it is ignored by the other actions. A clip that is missing
// or no longer flagged is left untouched and reported as resolved.
func (r *Resolver) Resolve(ctx context.Context, duplicateID int64, action Action, canonicalID *int64) (State, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return "", err
	}
	logger := r.logger.With(
		logging.Int64(logging.FieldClipID, duplicateID),
		logging.String("action", string(action)),
	)

	noop := false
	err := r.store.WithTx(ctx, func(tx *catalog.Store) error {
		clip, err := tx.GetClip(ctx, duplicateID)
		if err != nil {
			return err
		}
		if clip == nil || !clip.NeedsReview {
			noop = true
			return nil
		}

		switch action {
		case ActionKeep:
			return tx.ClearDuplicate(ctx, clip.ID)
		case ActionIgnore:
			return tx.ClearReview(ctx, clip.ID)
		case ActionDelete:
			return removeClip(ctx, tx, clip.ID)
		case ActionMerge:
			target, err := mergeTarget(ctx, tx, clip, canonicalID)
			if err != nil {
				return err
			}
			if err := tx.CopyAssociations(ctx, clip.ID, target); err != nil {
				return err
			}
			logger = logger.With(logging.Int64("canonical_id", target))
			return removeClip(ctx, tx, clip.ID)
		}
		return nil
	})
	if err != nil {
		return StateFlagged, fmt.Errorf("resolve clip %d: %w", duplicateID, err)
	}

	if noop {
		logger.Debug("review action skipped; clip already resolved",
			logging.Args(logging.DecisionAttrs("review_action", "noop", "clip missing or not flagged")...)...)
	} else {
		logger.Info("review action applied",
			logging.Args(logging.DecisionAttrs("review_action", string(action), "curator decision")...)...)
	}
	return StateResolved, nil
}

func mergeTarget(ctx context.Context, tx *catalog.Store, clip *catalog.Clip, canonicalID *int64) (int64, error) {
	var target int64
	switch {
	case canonicalID != nil:
		target = *canonicalID
	case clip.DuplicateOf != nil:
		target = *clip.DuplicateOf
	default:
		return 0, fmt.Errorf("%w: clip %d has no canonical", ErrInvalidTarget, clip.ID)
	}
	if target == clip.ID {
		return 0, fmt.Errorf("%w: clip %d cannot merge into itself", ErrInvalidTarget, clip.ID)
	}
	canonical, err := tx.GetClip(ctx, target)
	if err != nil {
		return 0, err
	}
	if canonical == nil {
		return 0, fmt.Errorf("%w: canonical clip %d not found", ErrInvalidTarget, target)
	}
	return target, nil
}

func removeClip(ctx context.Context, tx *catalog.Store, id int64) error {
	if err := tx.DeleteClipAssociations(ctx, id); err != nil {
		return err
	}
	_, err := tx.DeleteClip(ctx, id)
	return err
}
