// Package cliconfig loads the ttkeep tool configuration.
package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"ttkeep/pkg/config"
)

const AppName = "ttkeep"

// Config extends the core config with CLI-specific options.
type Config struct {
	config.Config `koanf:",squash"`
	LinksFile     string `koanf:"links_file"`
	DatabasePath  string `koanf:"database_path"`
}

// Default returns the default CLI configuration.
func Default() (*Config, error) {
	coreCfg := config.Default()
	dbPath, err := xdg.DataFile(filepath.Join(AppName, "archive.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to get default db path: %w", err)
	}
	linksPath, err := xdg.DataFile(filepath.Join(AppName, "links.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to get default links path: %w", err)
	}

	return &Config{
		Config:       *coreCfg,
		DatabasePath: dbPath,
		LinksFile:    linksPath,
	}, nil
}

// Load loads the configuration from the given path, creating a commented
// default config file on first run.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	defCfg, err := Default()
	if err != nil {
		return nil, err
	}
	cfgPath := path
	if cfgPath == "" {
		cfgPath, err = xdg.ConfigFile(filepath.Join(AppName, "config.yaml"))
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		if err := createDefaultConfig(cfgPath, defCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}
	if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg := defCfg
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// An empty links_file in the user's config falls back to the default
	// path instead of erroring.
	if cfg.LinksFile == "" {
		cfg.LinksFile = defCfg.LinksFile
	}

	if _, err := os.Stat(cfg.LinksFile); errors.Is(err, os.ErrNotExist) {
		if err := createDefaultLinksFile(cfg.LinksFile); err != nil {
			// Not a fatal error, just warn the user.
			fmt.Fprintf(os.Stderr, "Warning: failed to create default links file: %v\n", err)
		}
	}
	return cfg, nil
}

// createDefaultConfig creates a default configuration file.
func createDefaultConfig(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	content := fmt.Sprintf(`# ttkeep configuration file.
# Directory holding the media files and the rendered archive page.
archive_path: "%s"
# Path to a file containing post URLs, one per line.
# This file is used if no URLs are provided on the command line.
links_file: "%s"
# Path to the SQLite database that tracks archived posts.
database_path: "%s"
# Number of concurrent download workers.
max_workers: %d
# Download retry attempts for transient errors.
retries: %d
# Minimum interval between resolver API calls, e.g. "1s".
api_rate: "%s"
# Set to true to save the soundtrack of photo slideshows.
save_audio: %t
# Set to true to embed a generated-at comment in the archive page.
embed_timestamp: %t
# File name of the archive page inside the archive directory.
index_file_name: "%s"
`, cfg.ArchivePath, cfg.LinksFile, cfg.DatabasePath, cfg.MaxWorkers, cfg.Retries,
		cfg.APIRate, cfg.SaveAudio, cfg.EmbedTimestamp, cfg.IndexFileName)
	content = strings.ReplaceAll(content, "\\", "/")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write default config file: %w", err)
	}
	return nil
}

// createDefaultLinksFile creates a default links file.
func createDefaultLinksFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create links directory: %w", err)
	}
	content := `# Add TikTok post URLs here, one per line.
# Lines starting with # are ignored.
#
# Example:
# https://www.tiktok.com/@creator/video/7123456789012345678
# https://www.tiktok.com/@creator/photo/7234567890123456789
`
	return os.WriteFile(path, []byte(content), 0600)
}
