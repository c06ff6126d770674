package ttkeep

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cavaliergopher/grab/v3"

	"ttkeep/internal/fs"
)

// DefaultDownloadClient is the default HTTP client for downloading media.
var DefaultDownloadClient = &grab.Client{
	HTTPClient: &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
		Timeout: time.Minute * 5,
	},
	UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Safari/605.1.1",
}

// DefaultTimeoutOnError is the default delay between download retries.
var DefaultTimeoutOnError = time.Second * 10

// Downloader fetches a URL to a local file. Files are written under a
// temporary name and renamed into place only once complete, so a crash can
// never leave a partial file visible under the final path.
type Downloader struct {
	Client         *grab.Client  // HTTP client used for downloads.
	Retries        int           // Attempts beyond the first for transient errors.
	TimeoutOnError time.Duration // Delay between retries.
	MinFreeSpace   uint64        // Free-space floor when the asset size is unknown.
}

// NewDownloader creates a Downloader with the default client and retry policy.
func NewDownloader() *Downloader {
	return &Downloader{
		Client:         DefaultDownloadClient,
		Retries:        3,
		TimeoutOnError: DefaultTimeoutOnError,
		MinFreeSpace:   MinRequiredDiskSpace,
	}
}

// Fetch downloads url to dest, retrying transient errors. Permanent
// conditions (context cancellation, disk space) are returned immediately.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) error {
	if url == "" {
		return fmt.Errorf("%w: no media URL", ErrPermanent)
	}
	dir := filepath.Dir(dest)
	// #nosec G301
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create media directory %s: %w", dir, err)
	}

	var lastErr error
	for try := 0; try <= d.Retries; try++ {
		if try > 0 {
			select {
			case <-time.After(d.TimeoutOnError):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := d.checkSpace(dir); err != nil {
			return err
		}
		if err := d.fetchOnce(ctx, url, dest); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("failed after %d retries: %w", d.Retries, lastErr)
}

// fetchOnce downloads to dest+".part" and renames on success.
func (d *Downloader) fetchOnce(ctx context.Context, url, dest string) error {
	tmp := dest + ".part"
	req, err := grab.NewRequest(tmp, url)
	if err != nil {
		return err
	}
	req = req.WithContext(ctx)
	req.NoResume = true
	if resp := d.Client.Do(req); resp.Err() != nil {
		_ = os.Remove(tmp)
		return resp.Err()
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

// checkSpace verifies the target filesystem has room for another asset.
func (d *Downloader) checkSpace(dir string) error {
	available, err := fs.Available(dir)
	if err != nil {
		if errors.Is(err, fs.ErrUnsupportedOS) {
			return nil
		}
		return fmt.Errorf("could not check disk space for %s: %w", dir, err)
	}
	required := d.MinFreeSpace
	if required == 0 {
		required = MinRequiredDiskSpace
	}
	if available < required {
		return fmt.Errorf("%w: %d bytes available in %s, requires at least %d bytes", ErrDiskSpace, available, dir, required)
	}
	return nil
}

// FileSHA256 calculates the SHA256 hash of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to copy file to hasher: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
