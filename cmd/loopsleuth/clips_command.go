package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loopsleuth/internal/api"
)

func newClipsCommand(ctx *commandContext) *cobra.Command {
	clipsCmd := &cobra.Command{
		Use:   "clips",
		Short: "Inspect the clip catalog",
	}
	clipsCmd.AddCommand(newClipsListCommand(ctx))
	return clipsCmd
}

func newClipsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var flaggedOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cataloged clips",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			clips, err := store.ListClips(cmd.Context())
			if err != nil {
				return err
			}
			views := api.FromClips(clips)
			if flaggedOnly {
				filtered := views[:0]
				for _, clip := range views {
					if clip.NeedsReview {
						filtered = append(filtered, clip)
					}
				}
				views = filtered
			}
			if jsonOut {
				return writeJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, clip := range views {
				resolution := "-"
				if clip.Width != nil && clip.Height != nil {
					resolution = formatInt(clip.Width) + "x" + formatInt(clip.Height)
				}
				review := ""
				if clip.NeedsReview && clip.DuplicateOf != nil {
					review = "dup of " + strconv.FormatInt(*clip.DuplicateOf, 10)
				}
				rows = append(rows, []string{
					strconv.FormatInt(clip.ID, 10),
					clip.Filename,
					formatDuration(clip.Duration),
					resolution,
					formatSize(clip.Size),
					yesNo(clip.Fingerprint != ""),
					review,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(clipColumns, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print clips as JSON")
	cmd.Flags().BoolVar(&flaggedOnly, "flagged", false, "Only show clips awaiting review")
	return cmd
}
