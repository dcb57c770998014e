package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/dedupe"
	"loopsleuth/internal/fingerprint"
)

type duplicateEntry struct {
	ID          int64    `json:"id" yaml:"id"`
	Filename    string   `json:"filename" yaml:"filename"`
	Path        string   `json:"path" yaml:"path"`
	Fingerprint string   `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	PreviewPath string   `json:"preview_path,omitempty" yaml:"preview_path,omitempty"`
	Duration    *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	Size        *int64   `json:"size,omitempty" yaml:"size,omitempty"`
	Distance    *int     `json:"distance,omitempty" yaml:"distance,omitempty"`
}

type duplicateReport struct {
	Canonical  duplicateEntry   `json:"canonical" yaml:"canonical"`
	Duplicates []duplicateEntry `json:"duplicates" yaml:"duplicates"`
}

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "duplicates",
		Aliases: []string{"dupes"},
		Short:   "List clips flagged for review, grouped by canonical clip",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseOutputFormat(format)
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			groups, err := store.DuplicateGroups(cmd.Context())
			if err != nil {
				return err
			}
			reports := buildDuplicateReports(groups)
			switch outFormat {
			case formatJSON:
				return writeJSON(cmd, reports)
			case formatYAML:
				return writeYAML(cmd, reports)
			}
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No duplicates awaiting review")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDuplicateTable(reports))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json, or yaml")
	cmd.AddCommand(newReflagCommand(ctx))
	return cmd
}

func buildDuplicateReports(groups []catalog.DuplicateGroup) []duplicateReport {
	reports := make([]duplicateReport, 0, len(groups))
	for _, group := range groups {
		report := duplicateReport{Canonical: toDuplicateEntry(group.Canonical, nil)}
		for _, dup := range group.Duplicates {
			var distance *int
			if d, err := fingerprint.Distance(group.Canonical.Fingerprint, dup.Fingerprint); err == nil {
				distance = &d
			}
			report.Duplicates = append(report.Duplicates, toDuplicateEntry(dup, distance))
		}
		reports = append(reports, report)
	}
	return reports
}

func toDuplicateEntry(clip catalog.Clip, distance *int) duplicateEntry {
	return duplicateEntry{
		ID:          clip.ID,
		Filename:    clip.Filename,
		Path:        clip.Path,
		Fingerprint: clip.Fingerprint,
		PreviewPath: clip.PreviewPath,
		Duration:    clip.Duration,
		Size:        clip.Size,
		Distance:    distance,
	}
}

// renderDuplicateTable draws one section per group: the canonical clip
// first, then its duplicates with their fingerprint distance.
func renderDuplicateTable(reports []duplicateReport) string {
	sections := make([][][]string, 0, len(reports))
	for _, report := range reports {
		rows := [][]string{{
			strconv.FormatInt(report.Canonical.ID, 10),
			"canonical",
			report.Canonical.Filename,
			"",
			formatDuration(report.Canonical.Duration),
			formatSize(report.Canonical.Size),
		}}
		for _, dup := range report.Duplicates {
			distance := "?"
			if dup.Distance != nil {
				distance = strconv.Itoa(*dup.Distance)
			}
			rows = append(rows, []string{
				strconv.FormatInt(dup.ID, 10),
				fmt.Sprintf("dup of %d", report.Canonical.ID),
				dup.Filename,
				distance,
				formatDuration(dup.Duration),
				formatSize(dup.Size),
			})
		}
		sections = append(sections, rows)
	}
	return renderTable(duplicateColumns, sections...)
}

func newReflagCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reflag",
		Short: "Recompute duplicate flags for the whole catalog",
		Long: "Clears every review flag and regroups all fingerprinted clips from scratch. " +
			"The lowest clip id in each group becomes the canonical clip.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			clusterer := dedupe.New(dedupe.PolicyMarkForReview, ctx.config.Dedupe.Threshold, ctx.ensureLogger())
			result, err := clusterer.Reflag(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Flagged %d clips across %d duplicate groups\n", result.Flagged, result.Groups)
			return nil
		},
	}
}
