package ttkeep

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloaderFetch(t *testing.T) {
	payload := []byte("fake video bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "media", "123.mp4")
	d := NewDownloader()
	d.TimeoutOnError = 10 * time.Millisecond

	err := d.Fetch(context.Background(), server.URL+"/123.mp4", dest)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// No partial file left behind.
	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestDownloaderFetchRetriesTransient(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("eventually fine"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "123.mp4")
	d := NewDownloader()
	d.Retries = 3
	d.TimeoutOnError = 10 * time.Millisecond

	err := d.Fetch(context.Background(), server.URL, dest)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestDownloaderFetchExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "123.mp4")
	d := NewDownloader()
	d.Retries = 1
	d.TimeoutOnError = 10 * time.Millisecond

	err := d.Fetch(context.Background(), server.URL, dest)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "failed download must not leave a file under the final path")
}

func TestDownloaderFetchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "123.mp4")
	d := NewDownloader()
	d.TimeoutOnError = 10 * time.Millisecond

	err := d.Fetch(ctx, "http://127.0.0.1:0/unreachable", dest)
	require.Error(t, err)
}

func TestDownloaderFetchEmptyURL(t *testing.T) {
	d := NewDownloader()
	err := d.Fetch(context.Background(), "", filepath.Join(t.TempDir(), "x.mp4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermanent)
}

func TestFileSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("hash me")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	want := sha256.Sum256(content)
	got, err := FileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)

	_, err = FileSHA256(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
