// Package summary loads per-video summary documents and merges their
// chunks into deduplicated, section-labeled records ready for the
// report renderer.
package summary

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/railbird-dev/railbird/internal/transcript"
)

// Chunk is one model-generated summary of a transcript chunk.
type Chunk struct {
	ChunkID int    `json:"chunk_id,omitempty"`
	Summary string `json:"summary"`
}

// TranscriptChunk is the nested transcript layout produced by the
// transcript fetcher, kept for compatibility with older batch outputs.
type TranscriptChunk struct {
	ChunkID    int                `json:"chunk_id"`
	Transcript []transcript.Entry `json:"transcript"`
}

// Document is one ingested summary file. Multiple documents may share a
// VideoID (separate batch runs) and are merged downstream. Documents
// are immutable after loading.
type Document struct {
	VideoID    string             `json:"video_id"`
	Transcript []transcript.Entry `json:"transcript,omitempty"`
	Chunks     []TranscriptChunk  `json:"chunks,omitempty"`
	Summaries  []Chunk            `json:"summaries"`

	// Path is the source file, for log context. Not part of the JSON.
	Path string `json:"-"`
}

// TranscriptEntries returns the document's transcript lines, flattening
// the nested chunk layout when the flat field is absent.
func (d *Document) TranscriptEntries() []transcript.Entry {
	if len(d.Transcript) > 0 {
		return d.Transcript
	}
	var entries []transcript.Entry
	for _, c := range d.Chunks {
		entries = append(entries, c.Transcript...)
	}
	return entries
}

// LoadDir reads every *.json file in dir, in name order, into
// documents. A file that fails to read or parse is logged and skipped;
// one malformed batch output never aborts the run.
func LoadDir(dir string, logger *slog.Logger) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("summary: read dir %s: %w", dir, err)
	}

	var docs []*Document
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable summary file", "path", path, "error", err)
			continue
		}

		doc := &Document{Path: path}
		if err := json.Unmarshal(data, doc); err != nil {
			logger.Warn("skipping malformed summary file", "path", path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
