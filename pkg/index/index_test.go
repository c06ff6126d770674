package index

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttkeep/pkg/storage"
)

func fetchedVideo(id string, seq int64, title string) *storage.PostRecord {
	return &storage.PostRecord{
		Identifier: "https://www.tiktok.com/@a/video/" + id,
		Seq:        seq,
		Kind:       storage.KindVideo,
		Status:     storage.StatusFetched,
		Title:      title,
		LocalPath:  "media/" + id + ".mp4",
	}
}

func stateOf(records ...*storage.PostRecord) *storage.ArchiveState {
	state := storage.NewState()
	for _, r := range records {
		state.Records[r.Identifier] = r
		if r.Seq > state.MaxSeq {
			state.MaxSeq = r.Seq
		}
	}
	return state
}

func TestRenderOrdersBySequence(t *testing.T) {
	state := stateOf(
		fetchedVideo("222", 2, "second"),
		fetchedVideo("111", 1, "first"),
		fetchedVideo("333", 3, "third"),
	)

	doc, err := Render(state, Options{})
	require.NoError(t, err)
	html := string(doc)

	first := []int{
		indexOf(t, html, "111.mp4"),
		indexOf(t, html, "222.mp4"),
		indexOf(t, html, "333.mp4"),
	}
	assert.Less(t, first[0], first[1])
	assert.Less(t, first[1], first[2])
	assert.Contains(t, html, "3 item(s)")
}

func TestRenderOmitsUnfetched(t *testing.T) {
	failed := fetchedVideo("222", 2, "")
	failed.Status = storage.StatusFailed
	failed.LocalPath = ""
	pending := fetchedVideo("333", 3, "")
	pending.Status = storage.StatusPending
	pending.LocalPath = ""

	doc, err := Render(stateOf(fetchedVideo("111", 1, ""), failed, pending), Options{})
	require.NoError(t, err)
	html := string(doc)
	assert.Contains(t, html, "111.mp4")
	assert.NotContains(t, html, "#2</span>")
	assert.NotContains(t, html, "#3</span>")
	assert.Contains(t, html, "1 item(s)")
}

func TestRenderSlideshow(t *testing.T) {
	photo := &storage.PostRecord{
		Identifier: "https://www.tiktok.com/@a/photo/444",
		Seq:        1,
		Kind:       storage.KindPhoto,
		Status:     storage.StatusFetched,
		Title:      "my album",
		LocalPath:  "media/444_1.jpg",
		ImagePaths: []string{"media/444_1.jpg", "media/444_2.jpg", "media/444_3.jpg"},
		AudioPath:  "media/444_sound.mp3",
	}

	doc, err := Render(stateOf(photo), Options{})
	require.NoError(t, err)
	html := string(doc)
	assert.Contains(t, html, `data-type="slideshow"`)
	assert.Contains(t, html, "444_2.jpg")
	assert.Contains(t, html, "444_sound.mp3")
	assert.Contains(t, html, "3 photo(s)")
	assert.Contains(t, html, "my album")
}

func TestRenderEscapesTitles(t *testing.T) {
	doc, err := Render(stateOf(fetchedVideo("111", 1, `<script>alert("x")</script>`)), Options{})
	require.NoError(t, err)
	html := string(doc)
	assert.NotContains(t, html, `<script>alert("x")</script>`)
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	state := stateOf(fetchedVideo("111", 1, ""))

	doc, err := Render(state, Options{EmbedTimestamp: true, Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Contains(t, string(doc), "generated at 2026-08-30T12:00:00Z")

	doc, err = Render(state, Options{})
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "generated at")
}

func TestRenderEmptyState(t *testing.T) {
	doc, err := Render(storage.NewState(), Options{})
	require.NoError(t, err)
	assert.Contains(t, string(doc), "0 item(s)")

	_, err = Render(nil, Options{})
	require.Error(t, err)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	i := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, i, 0, "expected %q in document", needle)
	return i
}
