// Package archive implements the run coordinator: it reconciles an input
// list of post URLs against the persisted archive state, fetches the delta,
// and regenerates the browsable index from the union of all runs.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	ttkeep "ttkeep/internal"
	"ttkeep/pkg/config"
	"ttkeep/pkg/index"
	"ttkeep/pkg/storage"
)

// Resolver resolves a post identifier into direct media locations.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (*ttkeep.Post, error)
}

// Downloader fetches a URL to a local file without leaving partial files
// visible under the final path.
type Downloader interface {
	Fetch(ctx context.Context, url, dest string) error
}

// ProgressCallback reports per-record progress during a run.
type ProgressCallback func(current, total int, message string)

func noOpProgress(current, total int, message string) {}

// Failure pairs a record identifier with the reason its fetch failed.
type Failure struct {
	Identifier string
	Reason     string
}

// Summary is the run-end report.
type Summary struct {
	Fetched  int       // Records newly fetched this run.
	Skipped  int       // Input identifiers already archived.
	Failed   int       // Records whose fetch failed this run.
	Invalid  int       // Input lines that were not valid URLs.
	Failures []Failure // Failed identifiers with reasons, for manual follow-up.
}

// Client coordinates a run. It exclusively owns the in-memory state for the
// duration of a run and is solely responsible for persisting it.
type Client struct {
	cfg        *config.Config
	store      storage.Store
	resolver   Resolver
	downloader Downloader
	logger     *log.Logger
}

// New creates a run coordinator.
func New(cfg *config.Config, store storage.Store, resolver Resolver, downloader Downloader, logger *log.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if downloader == nil {
		return nil, fmt.Errorf("downloader cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Client{cfg: cfg, store: store, resolver: resolver, downloader: downloader, logger: logger}, nil
}

// Ingest runs one reconciliation pass: load state, diff the input list
// against it, fetch the delta, merge results, regenerate the index, and
// persist. Re-running with an overlapping or identical list is idempotent.
//
// Nothing is persisted until all fetch attempts complete, so an interrupted
// run leaves the prior archive state untouched and is safely resumable.
func (c *Client) Ingest(ctx context.Context, rawURLs []string, progress ProgressCallback) (*Summary, error) {
	if progress == nil {
		progress = noOpProgress
	}

	state, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	c.logger.Printf("Loaded archive state: %d record(s), max sequence %d", len(state.Records), state.MaxSeq)

	delta, summary := c.merge(state, rawURLs)
	c.logger.Printf("Input diff: %d to fetch, %d already archived, %d invalid line(s)",
		len(delta), summary.Skipped, summary.Invalid)

	fetchErr := c.fetchDelta(ctx, delta, summary, progress)
	if errors.Is(fetchErr, context.Canceled) || errors.Is(fetchErr, context.DeadlineExceeded) {
		// Interrupted: persist nothing so the archive is exactly as it was.
		return summary, fetchErr
	}

	if err := c.renderIndex(state); err != nil {
		return summary, err
	}
	if err := c.store.SaveRun(delta); err != nil {
		return summary, fmt.Errorf("failed to persist run: %w", err)
	}
	c.logger.Printf("Run persisted: %d fetched, %d failed, %d skipped",
		summary.Fetched, summary.Failed, summary.Skipped)

	// A disk-space halt is reported after persisting the work that did
	// complete, so the next run picks up exactly where this one stopped.
	return summary, fetchErr
}

// Render regenerates the browsable index from the current persisted state.
func (c *Client) Render(ctx context.Context) error {
	state, err := c.store.Load()
	if err != nil {
		return err
	}
	return c.renderIndex(state)
}

// Status returns the current persisted state for reporting.
func (c *Client) Status(ctx context.Context) (*storage.ArchiveState, error) {
	return c.store.Load()
}

// renderIndex rebuilds the index document from scratch from the full state
// and replaces the old one atomically.
func (c *Client) renderIndex(state *storage.ArchiveState) error {
	doc, err := index.Render(state, index.Options{EmbedTimestamp: c.cfg.EmbedTimestamp})
	if err != nil {
		return fmt.Errorf("failed to render index: %w", err)
	}
	// #nosec G301
	if err := os.MkdirAll(c.cfg.ArchivePath, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	final := filepath.Join(c.cfg.ArchivePath, c.cfg.IndexFileName)
	tmp := final + ".tmp"
	// #nosec G306
	if err := os.WriteFile(tmp, doc, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	c.logger.Printf("Rendered index to %s", final)
	return nil
}
