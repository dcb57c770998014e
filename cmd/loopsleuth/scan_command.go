package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"loopsleuth/internal/deps"
	"loopsleuth/internal/scanner"
)

type scanSummary struct {
	ScanID    int64  `json:"scan_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	Pruned    int    `json:"pruned"`
	// PruneSkipped reports that missing files were left cataloged.
	PruneSkipped bool `json:"prune_skipped,omitempty"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var extensions []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "scan <folder>",
		Short: "Catalog every video under a folder and detect duplicates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if missing := deps.MissingRequired(deps.CheckBinaries(deps.Requirements(ctx.config))); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s (run `loopsleuth doctor`)", strings.Join(missing, ", "))
			}
			s, err := ctx.newScanner()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			req := scanner.Request{Root: args[0], Extensions: extensions, ForceRescan: force}
			var bar *progressbar.ProgressBar
			if !jsonOut && shouldColorize(cmd.ErrOrStderr()) {
				req.Observer = func(p scanner.Progress) {
					if bar == nil {
						bar = newScanProgressBar(cmd, p.Total)
					}
					if p.Current != "" {
						bar.Describe(filepath.Base(p.Current))
					}
					_ = bar.Set(p.Done)
				}
			}

			result, err := s.Ingest(runCtx, req)
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if errors.Is(err, scanner.ErrLockConflict) {
				return fmt.Errorf("%w; check `loopsleuth scan status`", err)
			}

			summary := scanSummary{
				ScanID:    result.ScanID,
				SessionID: result.SessionID,
				Status:    string(result.Status),
				Total:     result.Total,
				Processed: result.Processed,
				Skipped:   result.Skipped,
				Errors:    result.Errors,
				Pruned:    len(result.Pruned),

				PruneSkipped: result.PruneSkipped,
			}
			if jsonOut {
				if encErr := writeJSON(cmd, summary); encErr != nil {
					return encErr
				}
			} else if result.ScanID != 0 {
				printScanSummary(cmd, summary)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return fmt.Errorf("scan interrupted after %d of %d files", result.Done, result.Total)
				}
				return fmt.Errorf("scan failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Refresh metadata for files already in the catalog")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Override the configured extensions (e.g. --ext mp4,mov)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the scan summary as JSON")
	cmd.AddCommand(newScanStatusCommand(ctx))
	return cmd
}

func newScanProgressBar(cmd *cobra.Command, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
	)
}

func printScanSummary(cmd *cobra.Command, s scanSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scan %d %s: %d files, %d processed, %d skipped, %d errors, %d removed\n",
		s.ScanID, s.Status, s.Total, s.Processed, s.Skipped, s.Errors, s.Pruned)
	if s.PruneSkipped {
		fmt.Fprintln(out, "Missing files were not removed because some clips could not be confirmed; rerun the scan.")
	}
}

func newScanStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show live progress and the most recent scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			progress, err := scanner.ReadProgressFile(ctx.config.ProgressPath())
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			latest, err := store.LatestScan(cmd.Context())
			if err != nil {
				return err
			}
			lockInfo, lockErr := scanner.ReadLockInfo(ctx.config.LockPath())

			if jsonOut {
				payload := map[string]any{"progress": progress}
				if latest != nil {
					payload["latest_scan"] = latest
				}
				return writeJSON(cmd, payload)
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			out := cmd.OutOrStdout()
			for _, line := range renderSectionHeader("Scan", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Progress", progressKind(progress.Status), progressMessage(progress), colorize))
			if lockErr == nil && progress.Status == scanner.StatusScanning {
				fmt.Fprintln(out, renderStatusLine("Lock holder", statusInfo,
					fmt.Sprintf("pid %d since %s", lockInfo.PID, lockInfo.StartedAt.Local().Format(time.DateTime)), colorize))
			}
			if latest == nil {
				fmt.Fprintln(out, renderStatusLine("Latest scan", statusInfo, "none", colorize))
				return nil
			}
			message := fmt.Sprintf("#%d %s (%s) %d processed, %d skipped, %d errors",
				latest.ID, latest.FolderPath, latest.Status, latest.Processed, latest.Skipped, latest.Errors)
			kind := statusOK
			if latest.ErrorMessage != "" {
				kind = statusError
				message += ": " + latest.ErrorMessage
			}
			fmt.Fprintln(out, renderStatusLine("Latest scan", kind, message, colorize))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print status as JSON")
	return cmd
}

func progressKind(status scanner.Status) statusKind {
	switch status {
	case scanner.StatusComplete:
		return statusOK
	case scanner.StatusError:
		return statusError
	case scanner.StatusScanning:
		return statusWarn
	default:
		return statusInfo
	}
}

func progressMessage(p scanner.Progress) string {
	switch p.Status {
	case scanner.StatusIdle:
		return "idle"
	case scanner.StatusError:
		return fmt.Sprintf("error after %d/%d files: %s", p.Done, p.Total, p.Error)
	default:
		return fmt.Sprintf("%s %d/%d files", p.Status, p.Done, p.Total)
	}
}
