package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

// renderCmd represents the 'render' command.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Regenerate the archive page from the current state.",
	Long: `Regenerates the archive page from the persisted state without fetching
anything. Useful after moving the archive or upgrading ttkeep.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := archiveClient.Render(cmd.Context()); err != nil {
			return err
		}
		console.Success("Rendered %s", filepath.Join(cfg.ArchivePath, cfg.IndexFileName))
		return nil
	},
}
