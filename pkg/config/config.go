// Package config holds the core, tool-agnostic archiver configuration.
package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Config struct holds the core archiver configuration.
type Config struct {
	ArchivePath    string `koanf:"archive_path"`     // Directory holding media, state, and the rendered index.
	MaxWorkers     int    `koanf:"max_workers"`      // Concurrent download workers.
	Retries        int    `koanf:"retries"`          // Download retry attempts for transient errors.
	APIRate        string `koanf:"api_rate"`         // Minimum interval between resolver API calls, e.g. "1s".
	SaveAudio      bool   `koanf:"save_audio"`       // Save the soundtrack of photo slideshows.
	EmbedTimestamp bool   `koanf:"embed_timestamp"`  // Embed a generated-at comment in the rendered index.
	IndexFileName  string `koanf:"index_file_name"`  // File name of the rendered index inside the archive dir.
}

// Default returns the default core configuration.
func Default() *Config {
	var defaultPath string
	downloadDir := xdg.UserDirs.Download
	if downloadDir != "" {
		defaultPath = filepath.Join(downloadDir, "ttkeep")
	} else {
		// Fallback for systems without a configured XDG downloads directory.
		defaultPath = filepath.Join("downloads", "ttkeep")
	}

	return &Config{
		ArchivePath:    defaultPath,
		MaxWorkers:     4,
		Retries:        3,
		APIRate:        "1s",
		SaveAudio:      true,
		EmbedTimestamp: true,
		IndexFileName:  "archive.html",
	}
}
