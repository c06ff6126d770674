package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttkeep/pkg/storage"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoadEmpty(t *testing.T) {
	db := newTestDB(t)
	state, err := db.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Records)
	assert.Zero(t, state.MaxSeq)
}

func TestSaveRunRoundTrip(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	records := []*storage.PostRecord{
		{
			Identifier:  "https://www.tiktok.com/@a/video/1",
			Seq:         1,
			Kind:        storage.KindVideo,
			Status:      storage.StatusFetched,
			Title:       "first",
			LocalPath:   "media/1.mp4",
			SHA256:      "abc",
			FirstSeenAt: now,
			FetchedAt:   now,
		},
		{
			Identifier:  "https://www.tiktok.com/@a/photo/2",
			Seq:         2,
			Kind:        storage.KindPhoto,
			Status:      storage.StatusFetched,
			LocalPath:   "media/2_1.jpg",
			ImagePaths:  []string{"media/2_1.jpg", "media/2_2.jpg"},
			AudioPath:   "media/2_sound.mp3",
			FirstSeenAt: now,
			FetchedAt:   now,
		},
		{
			Identifier:  "https://www.tiktok.com/@a/video/3",
			Seq:         3,
			Kind:        storage.KindVideo,
			Status:      storage.StatusFailed,
			ErrorDetail: "resolver error: video not found (-1)",
			FirstSeenAt: now,
		},
	}
	require.NoError(t, db.SaveRun(records))

	state, err := db.Load()
	require.NoError(t, err)
	require.Len(t, state.Records, 3)
	assert.Equal(t, int64(3), state.MaxSeq)

	video := state.Records["https://www.tiktok.com/@a/video/1"]
	require.NotNil(t, video)
	assert.Equal(t, storage.StatusFetched, video.Status)
	assert.Equal(t, "first", video.Title)
	assert.Equal(t, "media/1.mp4", video.LocalPath)
	assert.Equal(t, "abc", video.SHA256)

	photo := state.Records["https://www.tiktok.com/@a/photo/2"]
	require.NotNil(t, photo)
	assert.Equal(t, []string{"media/2_1.jpg", "media/2_2.jpg"}, photo.ImagePaths)
	assert.Equal(t, "media/2_sound.mp3", photo.AudioPath)

	failed := state.Records["https://www.tiktok.com/@a/video/3"]
	require.NotNil(t, failed)
	assert.Equal(t, storage.StatusFailed, failed.Status)
	assert.NotEmpty(t, failed.ErrorDetail)
	assert.True(t, failed.FetchedAt.IsZero())
}

func TestSaveRunKeepsSeqKindAndFirstSeen(t *testing.T) {
	db := newTestDB(t)
	firstSeen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	original := &storage.PostRecord{
		Identifier:  "https://www.tiktok.com/@a/video/1",
		Seq:         1,
		Kind:        storage.KindVideo,
		Status:      storage.StatusFailed,
		ErrorDetail: "transient",
		FirstSeenAt: firstSeen,
	}
	require.NoError(t, db.SaveRun([]*storage.PostRecord{original}))

	// A later run retries the record. Even with different seq, kind, and
	// first-seen values, the persisted ones must survive.
	retried := &storage.PostRecord{
		Identifier:  original.Identifier,
		Seq:         99,
		Kind:        storage.KindPhoto,
		Status:      storage.StatusFetched,
		LocalPath:   "media/1.mp4",
		FirstSeenAt: time.Now().UTC(),
		FetchedAt:   time.Now().UTC(),
	}
	require.NoError(t, db.SaveRun([]*storage.PostRecord{retried}))

	state, err := db.Load()
	require.NoError(t, err)
	rec := state.Records[original.Identifier]
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec.Seq, "sequence index is append-only, never reassigned")
	assert.Equal(t, storage.KindVideo, rec.Kind)
	assert.True(t, rec.FirstSeenAt.Equal(firstSeen), "first seen %s, want %s", rec.FirstSeenAt, firstSeen)
	assert.Equal(t, storage.StatusFetched, rec.Status)
	assert.Empty(t, rec.ErrorDetail)
}

func TestSaveRunEmptyIsNoOp(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveRun(nil))
	state, err := db.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Records)
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveRun([]*storage.PostRecord{{
		Identifier:  "https://www.tiktok.com/@a/video/1",
		Seq:         1,
		Kind:        storage.KindVideo,
		Status:      storage.StatusFetched,
		LocalPath:   "media/1.mp4",
		FirstSeenAt: time.Now().UTC(),
		FetchedAt:   time.Now().UTC(),
	}}))
	require.NoError(t, db.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	state, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, state.Records, 1)
	assert.Equal(t, int64(1), state.MaxSeq)
}
