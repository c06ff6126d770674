// Package storage defines the persisted archive state and its store contract.
package storage

import (
	"errors"
	"sort"
	"time"
)

// ErrStateCorrupt indicates the persisted archive state is unreadable. A run
// aborts on it before any mutation rather than silently discarding history.
var ErrStateCorrupt = errors.New("archive state is corrupt")

// Kind is the media kind of an archived post.
type Kind string

const (
	// KindVideo is a single video post.
	KindVideo Kind = "video"
	// KindPhoto is a photo slideshow post.
	KindPhoto Kind = "photo"
)

// Status is the lifecycle state of a post record.
type Status string

const (
	// StatusPending marks a record seen in an input list but not yet fetched.
	StatusPending Status = "pending"
	// StatusFetched marks a record whose media is stored locally. Fetched
	// records are never re-fetched or overwritten by later runs.
	StatusFetched Status = "fetched"
	// StatusFailed marks a record whose last fetch attempt failed. Failed
	// records re-enter the delta on the next run.
	StatusFailed Status = "failed"
)

// PostRecord is one entry of the archive: a single post and where its media
// lives on disk. Paths are relative to the archive directory.
type PostRecord struct {
	// Identifier is the normalized canonical post URL, the unique key.
	Identifier string
	// Seq preserves original collection order. Assigned once, never reused.
	Seq int64
	// Kind is video or photo, immutable after first sighting.
	Kind Kind
	// Status is the record's lifecycle state.
	Status Status
	// Title is the post caption, blank when the source had none.
	Title string
	// LocalPath is the primary media file once fetched. For photo posts it
	// is the first image.
	LocalPath string
	// ImagePaths lists every image of a photo post, in slideshow order.
	ImagePaths []string
	// AudioPath is the slideshow soundtrack, when one was saved.
	AudioPath string
	// SHA256 is the hash of the primary media file.
	SHA256 string
	// ErrorDetail describes the last failure when Status is failed.
	ErrorDetail string
	// FirstSeenAt is when the identifier first appeared in an input list.
	FirstSeenAt time.Time
	// FetchedAt is when the media download completed.
	FetchedAt time.Time
}

// ArchiveState is the full in-memory collection, keyed by identifier.
// Ordering is carried by Seq, never by container order.
type ArchiveState struct {
	Records map[string]*PostRecord
	// MaxSeq is the highest sequence index ever assigned. New records are
	// appended after it, even when earlier records failed or were removed.
	MaxSeq int64
}

// NewState returns an empty archive state.
func NewState() *ArchiveState {
	return &ArchiveState{Records: make(map[string]*PostRecord)}
}

// Ordered returns all records sorted by ascending sequence index.
func (s *ArchiveState) Ordered() []*PostRecord {
	out := make([]*PostRecord, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Counts returns the number of records per status.
func (s *ArchiveState) Counts() (fetched, pending, failed int) {
	for _, r := range s.Records {
		switch r.Status {
		case StatusFetched:
			fetched++
		case StatusFailed:
			failed++
		default:
			pending++
		}
	}
	return
}

// Store persists the archive state. Implementations must make SaveRun
// all-or-nothing: a crash mid-save leaves the prior state intact.
type Store interface {
	// Load reads the full persisted state. A missing store yields an empty
	// state (first run); an unreadable one fails with ErrStateCorrupt.
	Load() (*ArchiveState, error)
	// SaveRun atomically writes the given records (new and changed) on top
	// of the persisted state.
	SaveRun(records []*PostRecord) error
	// Close releases the store.
	Close() error
}
