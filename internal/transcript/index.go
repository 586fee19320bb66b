// Package transcript models cleaned video transcripts and builds the
// text-to-timestamp lookup used when a summary line carries no usable
// inline timestamp.
package transcript

import (
	"strings"

	"github.com/railbird-dev/railbird/internal/timestamp"
)

// Entry is one transcript line with the true video timestamp attached
// during transcript chunking.
type Entry struct {
	Text          string `json:"text"`
	TrueTimestamp string `json:"true_video_timestamp,omitempty"`
}

// Index maps normalized transcript text to its timestamp. It is built
// fresh per video and used only as a merge-time fallback; it is never
// persisted.
type Index struct {
	byText map[string]timestamp.Token
}

// BuildIndex constructs an Index from transcript entries in order.
// Entries without a parseable timestamp are skipped. When two entries
// share identical text the later one wins: transcript order is
// chronological, and a repeated line is assumed closer in time to its
// most recent occurrence. This is deliberate policy, not an accident
// of map insertion.
func BuildIndex(entries []Entry) *Index {
	idx := &Index{byText: make(map[string]timestamp.Token, len(entries))}
	for _, e := range entries {
		if e.TrueTimestamp == "" {
			continue
		}
		tok, err := timestamp.Normalize(e.TrueTimestamp)
		if err != nil {
			continue
		}
		idx.byText[indexKey(e.Text)] = tok
	}
	return idx
}

// Lookup returns the timestamp recorded for the given text, matching
// under the same trim-and-lowercase normalization used at build time.
func (idx *Index) Lookup(text string) (timestamp.Token, bool) {
	tok, ok := idx.byText[indexKey(text)]
	return tok, ok
}

// Len returns the number of indexed lines.
func (idx *Index) Len() int { return len(idx.byText) }

func indexKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
