package archive

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	ttkeep "ttkeep/internal"
	"ttkeep/pkg/pool"
	"ttkeep/pkg/storage"
)

// mediaDirName is the directory under the archive root holding fetched
// media. The index references it via relative paths.
const mediaDirName = "media"

// placeholderTitle matches the platform's auto-generated captions, which
// carry no information and are stored as blank titles.
var placeholderTitle = regexp.MustCompile(`(?i)^\s*tiktok\s+(video|photo)(\s*#\d+)?\s*$`)

// fetchDelta drives the worker pool over the delta. Each worker operates on
// a private copy of its record; results are merged back into the shared
// state sequentially after the pool drains, preserving single-writer
// discipline. Per-record failures are data; only disk exhaustion or
// cancellation stops the pool early.
func (c *Client) fetchDelta(ctx context.Context, delta []*storage.PostRecord, summary *Summary, progress ProgressCallback) error {
	if len(delta) == 0 {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	byID := make(map[string]*storage.PostRecord, len(delta))
	for _, rec := range delta {
		byID[rec.Identifier] = rec
	}

	results := make(chan storage.PostRecord, len(delta))
	var fatalMu sync.Mutex
	var fatalErr error

	total := len(delta)
	workers := pool.New(c.cfg.MaxWorkers, total)
	for i, rec := range delta {
		i, snapshot := i, *rec
		workers.Submit(func() {
			if runCtx.Err() != nil {
				return
			}
			progress(i+1, total, "Fetching "+snapshot.Identifier)
			updated, err := c.fetchRecord(runCtx, snapshot)
			if err != nil {
				fatalMu.Lock()
				if fatalErr == nil {
					fatalErr = err
				}
				fatalMu.Unlock()
				cancel()
				if errors.Is(err, ttkeep.ErrDiskSpace) {
					// The failure is still data for this record.
					results <- updated
				}
				return
			}
			results <- updated
		})
	}
	workers.Stop()
	close(results)

	for updated := range results {
		rec, ok := byID[updated.Identifier]
		if !ok {
			continue
		}
		*rec = updated
		switch updated.Status {
		case storage.StatusFetched:
			summary.Fetched++
		case storage.StatusFailed:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				Identifier: updated.Identifier,
				Reason:     updated.ErrorDetail,
			})
		}
	}
	sort.Slice(summary.Failures, func(i, j int) bool {
		return summary.Failures[i].Identifier < summary.Failures[j].Identifier
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	return fatalErr
}

// fetchRecord attempts one record: resolve the post, download its media to
// identifier-addressed paths, and return the updated record. The returned
// error is non-nil only for run-fatal conditions (disk space, cancellation);
// everything else lands in the record as status=failed with detail.
func (c *Client) fetchRecord(ctx context.Context, rec storage.PostRecord) (storage.PostRecord, error) {
	post, err := c.resolveWithRetry(ctx, rec.Identifier)
	if err != nil {
		return c.failRecord(rec, fmt.Errorf("resolve: %w", err))
	}

	resolved := storage.KindVideo
	if post.IsAlbum() {
		resolved = storage.KindPhoto
	}
	if rec.Kind == "" {
		rec.Kind = resolved
	} else if rec.Kind != resolved {
		// Kind is immutable once seen; warn rather than guess intent.
		c.logger.Printf("WARN: post %s resolved as %s but was first recorded as %s; keeping %s",
			rec.Identifier, resolved, rec.Kind, rec.Kind)
	}

	stem := ttkeep.PostIDFromIdentifier(rec.Identifier)
	if post.IsAlbum() {
		imagePaths, err := c.fetchAlbum(ctx, post, stem)
		if err != nil {
			return c.failRecord(rec, err)
		}
		rec.ImagePaths = imagePaths
		rec.LocalPath = imagePaths[0]
		rec.AudioPath = c.fetchAudio(ctx, post, stem)
	} else {
		rel := path.Join(mediaDirName, stem+".mp4")
		if err := c.downloader.Fetch(ctx, post.VideoURL(), c.absPath(rel)); err != nil {
			return c.failRecord(rec, fmt.Errorf("download: %w", err))
		}
		rec.ImagePaths = nil
		rec.LocalPath = rel
	}

	if sha, err := ttkeep.FileSHA256(c.absPath(rec.LocalPath)); err != nil {
		c.logger.Printf("WARN: could not hash %s: %v", rec.LocalPath, err)
	} else {
		rec.SHA256 = sha
	}

	rec.Title = cleanTitle(post.Title)
	rec.Status = storage.StatusFetched
	rec.ErrorDetail = ""
	rec.FetchedAt = time.Now().UTC()
	c.logger.Printf("Fetched %s -> %s", rec.Identifier, rec.LocalPath)
	return rec, nil
}

// fetchAlbum downloads every image of a photo post to numbered paths.
func (c *Client) fetchAlbum(ctx context.Context, post *ttkeep.Post, stem string) ([]string, error) {
	if len(post.Images) == 0 {
		return nil, fmt.Errorf("%w: album has no images", ttkeep.ErrPermanent)
	}
	rels := make([]string, 0, len(post.Images))
	for i, imgURL := range post.Images {
		rel := path.Join(mediaDirName, fmt.Sprintf("%s_%d%s", stem, i+1, extFromURL(imgURL, ".jpg")))
		if err := c.downloader.Fetch(ctx, imgURL, c.absPath(rel)); err != nil {
			return nil, fmt.Errorf("download image %d/%d: %w", i+1, len(post.Images), err)
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// fetchAudio saves a slideshow's soundtrack next to its images. Audio is a
// nice-to-have: any failure is logged and the record still counts as
// fetched, the images being the core of the post.
func (c *Client) fetchAudio(ctx context.Context, post *ttkeep.Post, stem string) string {
	if !c.cfg.SaveAudio {
		return ""
	}
	audioURL := post.AudioURL()
	if audioURL == "" {
		return ""
	}
	rel := path.Join(mediaDirName, stem+"_sound.mp3")
	if err := c.downloader.Fetch(ctx, audioURL, c.absPath(rel)); err != nil {
		c.logger.Printf("WARN: could not fetch soundtrack for %s: %v", stem, err)
		return ""
	}
	return rel
}

// failRecord marks the record failed. Disk exhaustion and cancellation are
// escalated to the caller; everything else is contained.
func (c *Client) failRecord(rec storage.PostRecord, err error) (storage.PostRecord, error) {
	rec.Status = storage.StatusFailed
	rec.ErrorDetail = err.Error()
	c.logger.Printf("Fetch failed for %s: %v", rec.Identifier, err)
	if errors.Is(err, ttkeep.ErrDiskSpace) {
		return rec, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return rec, err
	}
	return rec, nil
}

// resolveWithRetry retries transient resolver errors with exponential
// backoff. Permanent failures (removed or private posts) return immediately.
func (c *Client) resolveWithRetry(ctx context.Context, identifier string) (*ttkeep.Post, error) {
	retries := c.cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	var lastErr error
	for i := 0; i <= retries; i++ {
		if i > 0 {
			wait := time.Second * time.Duration(2<<(i-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		post, err := c.resolver.Resolve(ctx, identifier)
		if err == nil {
			return post, nil
		}
		if errors.Is(err, ttkeep.ErrPermanent) {
			return nil, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed after %d retries: %w", retries, lastErr)
}

// absPath turns an archive-relative media path into an absolute one.
func (c *Client) absPath(rel string) string {
	return filepath.Join(c.cfg.ArchivePath, filepath.FromSlash(rel))
}

// extFromURL extracts a known image extension from a media URL.
func extFromURL(raw, fallback string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	}
	return fallback
}

// cleanTitle trims a post caption and blanks the platform's placeholders.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if placeholderTitle.MatchString(title) {
		return ""
	}
	return title
}
