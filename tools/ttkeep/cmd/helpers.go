package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"ttkeep/pkg/logging"
	"ttkeep/tools/ttkeep/internal/cli"
	cliconfig "ttkeep/tools/ttkeep/internal/config"
)

// applyFlagOverrides applies command-line flag overrides to the configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *cliconfig.Config) {
	if cmd.Flag("dir").Changed {
		cfg.ArchivePath, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flag("links").Changed {
		cfg.LinksFile, _ = cmd.Flags().GetString("links")
	}
	if cmd.Flag("workers").Changed {
		if val, _ := cmd.Flags().GetInt("workers"); val > 0 {
			cfg.MaxWorkers = val
		}
	}
	if cmd.Flag("retries").Changed {
		if val, _ := cmd.Flags().GetInt("retries"); val > 0 {
			cfg.Retries = val
		}
	}
	if cmd.Flag("api-rate").Changed {
		cfg.APIRate, _ = cmd.Flags().GetString("api-rate")
	}
	if cmd.Flag("save-audio").Changed {
		cfg.SaveAudio, _ = cmd.Flags().GetBool("save-audio")
	}
}

// getLinks retrieves post URLs from command-line arguments or the links file.
// Blank lines and #-comments in the file are ignored.
func getLinks(cfg *cliconfig.Config, console *cli.Console, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if cfg.LinksFile == "" {
		return nil
	}
	file, err := os.Open(cfg.LinksFile)
	if err != nil {
		console.Warn("Could not open links file '%s': %v", cfg.LinksFile, err)
		return nil
	}
	defer func() {
		if err := file.Close(); err != nil {
			console.Warn("Could not close links file '%s': %v", cfg.LinksFile, err)
		}
	}()

	var links []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			links = append(links, line)
		}
	}
	if err := scanner.Err(); err != nil {
		console.Warn("Error reading links file '%s': %v", cfg.LinksFile, err)
	}
	return links
}

// setupFileLogger sets up a file logger to log application events.
func setupFileLogger(clean bool, cfg *cliconfig.Config) (*log.Logger, error) {
	logPath, err := xdg.StateFile(filepath.Join(cliconfig.AppName, "app.log"))
	if err != nil {
		return nil, fmt.Errorf("could not get log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0750); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640) // #nosec G304 G302
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	var writer io.Writer = f
	if clean {
		writer = logging.NewRedactingWriter(f, cfg.ArchivePath)
	}

	return log.New(writer, "", log.LstdFlags), nil
}
