package cmd

import (
	"github.com/spf13/cobra"

	"ttkeep/pkg/storage"
)

// statusCmd represents the 'status' command.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive counts and records needing attention.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := archiveClient.Status(cmd.Context())
		if err != nil {
			return err
		}
		fetched, pending, failed := state.Counts()
		console.Info("%d record(s): %d fetched, %d pending, %d failed", len(state.Records), fetched, pending, failed)
		for _, rec := range state.Ordered() {
			if rec.Status == storage.StatusFailed {
				console.Warn("#%d %s: %s", rec.Seq, rec.Identifier, rec.ErrorDetail)
			}
		}
		return nil
	},
}
