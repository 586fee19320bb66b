// Package report turns merged video records into the final HTML report.
package report

import (
	"log/slog"
	"sort"
	"time"

	"github.com/railbird-dev/railbird/internal/summary"
	"github.com/railbird-dev/railbird/internal/timestamp"
	"github.com/railbird-dev/railbird/internal/youtube"
)

// Entry is one video block in the report, ready for rendering.
type Entry struct {
	VideoID    string
	Title      string
	Duration   timestamp.Token
	UploadTime time.Time
	UploadDate string
	Record     *summary.Record
}

// Assemble pairs merged records with fetched metadata and orders them
// newest-first. The order slice fixes the tie-break sequence: videos with
// equal upload times keep their first-seen position. IDs present in only
// one of the two maps are logged and skipped.
func Assemble(order []string, records map[string]*summary.Record, metadata map[string]*youtube.Metadata, logger *slog.Logger) []Entry {
	if logger == nil {
		logger = slog.Default()
	}

	entries := make([]Entry, 0, len(order))
	for _, id := range order {
		rec, ok := records[id]
		if !ok {
			logger.Warn("no merged record for video", "video_id", id)
			continue
		}
		meta, ok := metadata[id]
		if !ok {
			logger.Warn("no metadata for video", "video_id", id)
			continue
		}
		entries = append(entries, Entry{
			VideoID:    id,
			Title:      meta.Title,
			Duration:   meta.Duration,
			UploadTime: meta.UploadTime,
			UploadDate: meta.UploadDateDisplay,
			Record:     rec,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UploadTime.After(entries[j].UploadTime)
	})
	return entries
}
