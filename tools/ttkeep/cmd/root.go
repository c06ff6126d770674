package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	ttkeep "ttkeep/internal"
	"ttkeep/pkg/archive"
	"ttkeep/pkg/ratelimiter"
	"ttkeep/pkg/storage/sqlite"
	"ttkeep/tools/ttkeep/internal/cli"
	cliconfig "ttkeep/tools/ttkeep/internal/config"
)

var (
	// cfg stores the application configuration.
	cfg *cliconfig.Config
	// archiveClient coordinates archive runs.
	archiveClient *archive.Client
	// console is the CLI console for output.
	console *cli.Console
	// fileLogger is the logger for writing logs to a file.
	fileLogger *log.Logger
	// database is the archive state store.
	database *sqlite.DB
	// limiter paces resolver API calls.
	limiter *ratelimiter.RateLimiter
	// flagConfigPath is the path to the config file.
	flagConfigPath string
	// flagQuiet enables or disables quiet mode.
	flagQuiet bool
	// version is the version of the application. It is set at build time.
	version string
)

// SetVersion sets the version of the application.
func SetVersion(v string) {
	version = v
	if rootCmd != nil {
		rootCmd.Version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "ttkeep [command|urls...]",
	Short: "An incremental archiver for TikTok posts.",
	Long: `An incremental archiver for TikTok posts.

Run 'ttkeep [urls...]' to add posts to the archive, or use a specific command.
For example:
  ttkeep https://www.tiktok.com/@creator/video/7123456789012345678
  ttkeep ingest --links my_links.txt
  ttkeep render`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Completion needs none of the setup below.
		for c := cmd; c != nil; c = c.Parent() {
			if c.Name() == "completion" {
				return nil
			}
		}

		cleanLogs, _ := cmd.Flags().GetBool("clean-logs")
		var err error
		fileLogger, err = setupFileLogger(cleanLogs, cfg)
		if err != nil {
			return fmt.Errorf("failed to set up file logger: %w", err)
		}

		// If debug is enabled, write to both file and stderr.
		if val, _ := cmd.Flags().GetBool("debug"); val {
			ttkeep.Debug = true
			mw := io.MultiWriter(fileLogger.Writer(), os.Stderr)
			fileLogger.SetOutput(mw)
		}

		apiRate, err := time.ParseDuration(cfg.APIRate)
		if err != nil || apiRate <= 0 {
			return fmt.Errorf("invalid api_rate %q", cfg.APIRate)
		}
		limiter = ratelimiter.New(apiRate, context.Background())

		database, err = sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("error opening archive database: %w", err)
		}

		resolver := ttkeep.NewResolver("", limiter)
		downloader := ttkeep.NewDownloader()
		if cfg.Retries > 0 {
			downloader.Retries = cfg.Retries
		}

		archiveClient, err = archive.New(&cfg.Config, database, resolver, downloader, fileLogger)
		if err != nil {
			return fmt.Errorf("error creating archive client: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if limiter != nil {
			limiter.Stop()
		}
		if database != nil {
			return database.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Run the default ingest command.
		return runIngest(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// init initializes the command line interface.
func init() {
	console = cli.New(false)

	cobra.OnInitialize(func() {
		if val, err := rootCmd.Flags().GetBool("quiet"); err == nil && val {
			flagQuiet = true
			console = cli.New(true)
		}

		if val, err := rootCmd.Flags().GetString("config"); err == nil {
			flagConfigPath = val
		}

		var err error
		cfg, err = cliconfig.Load(flagConfigPath)
		if err != nil {
			console.Error("Error loading config: %v", err)
			os.Exit(1)
		}

		applyFlagOverrides(rootCmd, cfg)
	})

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet mode, no console output except for errors")
	rootCmd.PersistentFlags().Bool("debug", false, "Log debug info to stderr and log file")
	rootCmd.PersistentFlags().Bool("clean-logs", false, "Redact sensitive info (post IDs, accounts, paths) from log files")

	rootCmd.PersistentFlags().StringP("dir", "d", "", "Archive directory (overrides config)")
	rootCmd.PersistentFlags().String("links", "", "Path to a file with a list of post URLs (overrides config)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "Number of concurrent download workers (overrides config)")
	rootCmd.PersistentFlags().Int("retries", 0, "Download retry attempts for transient errors (overrides config)")
	rootCmd.PersistentFlags().String("api-rate", "", `Minimum interval between resolver calls, e.g. "1s" (overrides config)`)
	rootCmd.PersistentFlags().Bool("save-audio", false, "Save the soundtrack of photo slideshows (overrides config)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(statusCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
