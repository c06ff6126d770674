package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	ttkeep "ttkeep/internal"
	"ttkeep/pkg/archive"
)

// ingestCmd represents the 'ingest' command.
var ingestCmd = &cobra.Command{
	Use:     "ingest [urls...]",
	Short:   "Add posts to the archive and regenerate the page (default command).",
	Aliases: []string{"add"},
	Long: `Adds posts to the archive. URLs can be passed as arguments or listed in
the links file, one per line. Posts already archived are skipped, failed ones
are retried, and the archive page is regenerated afterwards. This is the
default command if you provide URLs without a subcommand.`,
	RunE: runIngest,
}

// runIngest contains the core logic for an archive run.
func runIngest(cmd *cobra.Command, args []string) error {
	links := getLinks(cfg, console, args)
	if len(links) == 0 {
		console.Info("No post URLs specified. Use 'ttkeep --help' for more info.")
		return nil
	}

	lock, err := archive.AcquireRunLock(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			console.Warn("Could not release run lock: %v", err)
		}
	}()

	// Ctrl-C cancels the run; nothing is persisted and the next run resumes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console.Info("Processing %d link(s) with %d worker(s)...", len(links), cfg.MaxWorkers)
	console.StartProgress("Loading archive state...")
	progressCb := func(current, total int, msg string) {
		console.UpdateProgress(fmt.Sprintf("%d/%d: %s", current, total, msg))
	}

	summary, err := archiveClient.Ingest(ctx, links, progressCb)
	console.StopProgress()

	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		switch {
		case errors.Is(err, ttkeep.ErrDiskSpace):
			console.Error("Disk space exhausted. Completed work was saved; free up space and re-run.")
		case errors.Is(err, context.Canceled):
			console.Warn("Interrupted. Nothing was saved; re-run to resume.")
		default:
			console.Error("Run failed: %v", err)
		}
		return err
	}
	return nil
}

func printSummary(summary *archive.Summary) {
	console.Success("%d fetched, %d already archived, %d failed, %d invalid line(s)",
		summary.Fetched, summary.Skipped, summary.Failed, summary.Invalid)
	for _, f := range summary.Failures {
		console.Warn("failed: %s (%s)", f.Identifier, f.Reason)
	}
}
