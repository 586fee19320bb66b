package summary

import (
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/railbird-dev/railbird/internal/cleanup"
	"github.com/railbird-dev/railbird/internal/timestamp"
	"github.com/railbird-dev/railbird/internal/transcript"
)

// watchURL is the link target for time-coded entries.
const watchURL = "https://www.youtube.com/watch"

// Record accumulates the merged, deduplicated entries for one video.
// It is owned exclusively by the merge step and finalized once every
// document for the video has been consumed.
type Record struct {
	sections [3][]string
	seen     [3]map[string]bool
}

// Section returns the ordered entries of one section.
func (r *Record) Section(kind SectionKind) []string {
	return r.sections[kind]
}

// Add appends a formatted entry to a section unless an identical string
// is already present. Dedup is exact-match after formatting, not fuzzy.
func (r *Record) Add(kind SectionKind, entry string) {
	if r.seen[kind] == nil {
		r.seen[kind] = make(map[string]bool)
	}
	if r.seen[kind][entry] {
		return
	}
	r.seen[kind][entry] = true
	r.sections[kind] = append(r.sections[kind], entry)
}

// Empty reports whether no entries were merged into any section.
func (r *Record) Empty() bool {
	return len(r.sections[KeyMoments]) == 0 &&
		len(r.sections[StandoutPlayers]) == 0 &&
		len(r.sections[StrategicInsights]) == 0
}

// DurationLookup resolves a video ID to its known duration. ok=false
// means metadata for the video is unavailable and its documents must
// be dropped.
type DurationLookup func(videoID string) (timestamp.Token, bool)

// inlineTimestampRe matches the first bracketed numeric timestamp token
// in a line, colon or decimal form.
var inlineTimestampRe = regexp.MustCompile(`\[(\d[\d:.]*)\]`)

// Merger folds summary documents into per-video records.
type Merger struct {
	Duration DurationLookup
	Logger   *slog.Logger
}

// Merge processes documents in input order, accumulating entries into
// one record per video ID. Documents with no video ID or no known
// metadata are dropped with a warning; their identifiers are returned
// in skipped. Entry order within a section follows source line order;
// no re-sorting happens here.
func (m *Merger) Merge(docs []*Document) (records map[string]*Record, skipped []string) {
	records = make(map[string]*Record)
	indexes := make(map[string]*transcript.Index)

	for _, doc := range docs {
		if doc.VideoID == "" {
			m.Logger.Warn("skipping document without video_id", "path", doc.Path)
			skipped = append(skipped, doc.Path)
			continue
		}

		duration, ok := m.Duration(doc.VideoID)
		if !ok {
			m.Logger.Warn("skipping document: no metadata for video",
				"video_id", doc.VideoID, "path", doc.Path)
			skipped = append(skipped, doc.VideoID)
			continue
		}

		// Build the fallback index from this document's transcript,
		// reusing the previous document's index when this one carries
		// no transcript of its own.
		idx := indexes[doc.VideoID]
		if entries := doc.TranscriptEntries(); len(entries) > 0 || idx == nil {
			idx = transcript.BuildIndex(entries)
			indexes[doc.VideoID] = idx
		}

		rec := records[doc.VideoID]
		if rec == nil {
			rec = &Record{}
			records[doc.VideoID] = rec
		}

		for _, chunk := range doc.Summaries {
			m.mergeChunk(rec, doc.VideoID, chunk.Summary, duration, idx)
		}
	}

	return records, skipped
}

// mergeChunk splits one summary chunk into lines, tracks the current
// section across header boundaries, and appends each processed line to
// the record.
func (m *Merger) mergeChunk(rec *Record, videoID, raw string, duration timestamp.Token, idx *transcript.Index) {
	current := KeyMoments

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if kind, rest, isHeader := ClassifySection(line); isHeader {
			current = kind
			line = rest
			if strings.TrimSpace(line) == "" {
				continue
			}
		}

		entry, ok := m.processLine(videoID, line, duration, idx)
		if !ok {
			continue
		}
		rec.Add(current, entry)
	}
}

// processLine resolves a line's timestamp and renders the final entry
// string. Resolution order: inline bracketed token validated against
// the video duration, then transcript-index lookup on the cleaned text,
// then no timestamp at all.
func (m *Merger) processLine(videoID, line string, duration timestamp.Token, idx *transcript.Index) (string, bool) {
	var tok timestamp.Token
	resolved := false

	if match := inlineTimestampRe.FindStringSubmatchIndex(line); match != nil {
		rawTok := line[match[2]:match[3]]
		// Strip the token before cleaning; a single timestamp is
		// re-attached below. Any further bracketed timestamps on the
		// line are the duplicate-wrapped artifact ("[T] text [T]") and
		// are dropped with it, so the wrapped and single-token forms of
		// a line render identically and dedup against each other.
		line = line[:match[0]] + " " + line[match[1]:]
		line = inlineTimestampRe.ReplaceAllString(line, " ")

		if t, err := timestamp.Normalize(rawTok); err == nil && t.Within(duration) {
			tok = t
			resolved = true
		}
	}

	text := cleanup.Clean(line)
	if text == "" {
		return "", false
	}

	if !resolved {
		if t, ok := idx.Lookup(text); ok && t.Within(duration) {
			tok = t
			resolved = true
		}
	}

	if !resolved {
		return html.EscapeString(text), true
	}
	return formatEntry(videoID, tok, text), true
}

// formatEntry renders the clickable time-coded entry string. The entry
// text is escaped here because the anchor markup must survive template
// rendering as-is.
func formatEntry(videoID string, tok timestamp.Token, text string) string {
	return fmt.Sprintf(`<a href="%s?v=%s&t=%d">[%s]</a> %s`,
		watchURL, videoID, tok.Seconds(), tok, html.EscapeString(text))
}
