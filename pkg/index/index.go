// Package index renders the browsable archive page from the full state.
// The page is a single self-contained HTML document regenerated from
// scratch on every run: video cards open in a lightbox, photo posts get a
// slideshow with keyboard navigation and an optional soundtrack.
package index

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"ttkeep/pkg/storage"
)

//go:embed templates/archive.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/archive.html.tmpl"))

// Options controls rendering.
type Options struct {
	EmbedTimestamp bool // Embed a generated-at comment in the document.

	// Now overrides the timestamp source, for reproducible output.
	Now func() time.Time
}

// item is one card on the page.
type item struct {
	Seq        int64
	Kind       string // "video" or "slideshow"
	Title      string
	Src        string // video source, archive-relative
	Images     []string
	ImagesJSON string
	Audio      string
	Cover      string
}

type page struct {
	// Stamp is the generated-at comment. html/template elides literal
	// comments, so it is injected pre-rendered.
	Stamp template.HTML
	Items []item
}

// Render produces the archive page for every fetched record, ordered by
// sequence index. Failed and pending records are omitted; re-rendering
// after they succeed slots them into their original position.
func Render(state *storage.ArchiveState, opts Options) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}

	var items []item
	for _, rec := range state.Ordered() {
		if rec.Status != storage.StatusFetched {
			continue
		}
		it, err := itemFromRecord(rec)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	p := page{Items: items}
	if opts.EmbedTimestamp {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		p.Stamp = template.HTML("<!-- generated at " + now().UTC().Format(time.RFC3339) + " -->")
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("failed to execute index template: %w", err)
	}
	return buf.Bytes(), nil
}

func itemFromRecord(rec *storage.PostRecord) (item, error) {
	it := item{
		Seq:   rec.Seq,
		Title: rec.Title,
	}
	if len(rec.ImagePaths) > 0 {
		it.Kind = "slideshow"
		it.Images = make([]string, 0, len(rec.ImagePaths))
		for _, p := range rec.ImagePaths {
			it.Images = append(it.Images, hrefFor(p))
		}
		it.Cover = it.Images[0]
		if rec.AudioPath != "" {
			it.Audio = hrefFor(rec.AudioPath)
		}
		b, err := json.Marshal(it.Images)
		if err != nil {
			return item{}, fmt.Errorf("failed to encode image list for #%d: %w", rec.Seq, err)
		}
		it.ImagesJSON = string(b)
		return it, nil
	}
	it.Kind = "video"
	it.Src = hrefFor(rec.LocalPath)
	return it, nil
}

// hrefFor turns an archive-relative media path into a URL-safe href. The
// index lives at the archive root, so paths pass through relative with each
// segment escaped.
func hrefFor(rel string) string {
	segs := strings.Split(rel, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
