package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loopsleuth/internal/review"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var into int64

	cmd := &cobra.Command{
		Use:   "review <clip-id> <keep|delete|ignore|merge>",
		Short: "Resolve a clip flagged as a duplicate",
		Long: `Apply a review decision to a flagged clip:

  keep    make the clip independent (clears the flag and its canonical link)
  delete  remove the clip with its tags and playlist entries
  ignore  leave the review queue but remember which clip it duplicates
  merge   copy tags and playlist entries onto the canonical clip, then delete it

Acting on a clip that is missing or already resolved is a no-op.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid clip id %q", args[0])
			}
			action, err := review.ParseAction(args[1])
			if err != nil {
				return err
			}
			var canonical *int64
			if cmd.Flags().Changed("into") {
				if action != review.ActionMerge {
					return fmt.Errorf("--into only applies to merge")
				}
				canonical = &into
			}

			resolver, err := ctx.newResolver()
			if err != nil {
				return err
			}
			state, err := resolver.Resolve(cmd.Context(), id, action, canonical)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clip %d: %s (%s)\n", id, action, state)
			return nil
		},
	}
	cmd.Flags().Int64Var(&into, "into", 0, "Merge into this clip instead of the recorded canonical")
	return cmd
}
