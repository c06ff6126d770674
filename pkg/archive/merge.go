package archive

import (
	"errors"
	"time"

	ttkeep "ttkeep/internal"
	"ttkeep/pkg/storage"
)

// merge folds the raw input lines into the in-memory state. For each
// normalized identifier: absent creates a pending record with the next
// sequence index; present-and-failed re-enters the delta; present-and-fetched
// is left untouched. The returned delta holds every record this run must
// attempt, in input order.
func (c *Client) merge(state *storage.ArchiveState, rawURLs []string) ([]*storage.PostRecord, *Summary) {
	summary := &Summary{}
	seen := make(map[string]bool, len(rawURLs))
	var delta []*storage.PostRecord

	for _, raw := range rawURLs {
		identifier, err := ttkeep.Normalize(raw)
		if err != nil {
			if errors.Is(err, ttkeep.ErrInvalidURL) {
				c.logger.Printf("WARN: skipping input line: %v", err)
				summary.Invalid++
				continue
			}
			c.logger.Printf("WARN: skipping input line %q: %v", raw, err)
			summary.Invalid++
			continue
		}
		if seen[identifier] {
			continue
		}
		seen[identifier] = true

		if rec, ok := state.Records[identifier]; ok {
			switch rec.Status {
			case storage.StatusFetched:
				summary.Skipped++
			default:
				// Failed records are retry-eligible; pending records are
				// leftovers of an interrupted run. Both re-enter the delta.
				delta = append(delta, rec)
			}
			continue
		}

		state.MaxSeq++
		rec := &storage.PostRecord{
			Identifier:  identifier,
			Seq:         state.MaxSeq,
			Kind:        storage.Kind(ttkeep.KindFromIdentifier(identifier)),
			Status:      storage.StatusPending,
			FirstSeenAt: time.Now().UTC(),
		}
		state.Records[identifier] = rec
		delta = append(delta, rec)
	}
	return delta, summary
}
