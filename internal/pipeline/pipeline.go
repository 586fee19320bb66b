// Package pipeline wires the full summary-to-report run: load documents,
// fetch video metadata, merge sections, render the report, and push it
// to the configured repository.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/railbird-dev/railbird/internal/publish"
	"github.com/railbird-dev/railbird/internal/report"
	"github.com/railbird-dev/railbird/internal/state"
	"github.com/railbird-dev/railbird/internal/summary"
	"github.com/railbird-dev/railbird/internal/timestamp"
	"github.com/railbird-dev/railbird/internal/youtube"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// Metadata is the slice of the YouTube client the pipeline needs; the
// real client satisfies it and tests swap in fixtures.
type Metadata interface {
	VideoMetadata(ctx context.Context, videoID string) (*youtube.Metadata, error)
}

// Publisher abstracts the report destination the same way.
type Publisher interface {
	Publish(ctx context.Context, content []byte, message string) (string, error)
}

// Options configures one run.
type Options struct {
	SummariesDir string
	OutputPath   string
	Title        string
	Intro        string // markdown, already read from disk
}

// Pipeline runs the report generation end to end. Publisher and Store
// are optional; a nil Publisher keeps the report local only.
type Pipeline struct {
	YouTube   Metadata
	Publisher Publisher
	Store     *state.Store
	Logger    *slog.Logger

	// NewRunID is swapped in tests for deterministic commit messages.
	NewRunID func() string
}

// Result reports what a run produced.
type Result struct {
	RunID      string
	OutputPath string
	Videos     int      // videos included in the report
	Excluded   []string // video IDs dropped for missing metadata
	CommitSHA  string   // empty when publishing is disabled
}

// Run executes the pipeline sequentially. A video whose metadata cannot
// be fetched is excluded and listed in the report footer; every other
// failure before the report is written aborts the run. A publish
// failure is returned as an error but the local report file is kept.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runID := uuid.NewString()
	if p.NewRunID != nil {
		runID = p.NewRunID()
	}
	logger = logger.With("run_id", runID)

	docs, err := summary.LoadDir(opts.SummariesDir, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: loading summaries: %w", err)
	}
	logger.Info("loaded summary documents", "count", len(docs), "dir", opts.SummariesDir)

	order := videoOrder(docs)
	metadata, excluded := p.fetchMetadata(ctx, order, logger)

	merger := &summary.Merger{
		Logger: logger,
		Duration: func(videoID string) (timestamp.Token, bool) {
			meta, ok := metadata[videoID]
			if !ok {
				return timestamp.Token{}, false
			}
			return meta.Duration, true
		},
	}
	records, skipped := merger.Merge(docs)
	if len(skipped) > 0 {
		logger.Warn("documents skipped during merge", "count", len(skipped))
	}

	entries := report.Assemble(order, records, metadata, logger)
	if len(entries) == 0 && len(excluded) == 0 {
		return nil, errors.New("pipeline: nothing to report")
	}

	renderer := &report.Renderer{Title: opts.Title, Intro: opts.Intro}
	if err := renderer.RenderToFile(opts.OutputPath, entries, excluded); err != nil {
		return nil, fmt.Errorf("pipeline: writing report: %w", err)
	}
	logger.Info("report written", "path", opts.OutputPath, "videos", len(entries))

	res := &Result{
		RunID:      runID,
		OutputPath: opts.OutputPath,
		Videos:     len(entries),
		Excluded:   excluded,
	}

	if p.Publisher != nil {
		sha, err := p.publishFile(ctx, opts.OutputPath, runID)
		if err != nil {
			// The report already exists on disk; the caller can retry
			// the push without regenerating.
			return res, err
		}
		res.CommitSHA = sha
	}

	if p.Store != nil {
		for _, e := range entries {
			if err := p.Store.MarkProcessed(e.VideoID); err != nil {
				return res, fmt.Errorf("pipeline: marking %s processed: %w", e.VideoID, err)
			}
			if err := p.Store.Dequeue(e.VideoID); err != nil {
				return res, fmt.Errorf("pipeline: dequeuing %s: %w", e.VideoID, err)
			}
		}
	}

	return res, nil
}

// videoOrder returns the unique video IDs in first-seen document order.
func videoOrder(docs []*summary.Document) []string {
	var order []string
	seen := make(map[string]bool)
	for _, d := range docs {
		if d.VideoID == "" || seen[d.VideoID] {
			continue
		}
		seen[d.VideoID] = true
		order = append(order, d.VideoID)
	}
	return order
}

// fetchMetadata looks up every video once. Failures exclude the video
// from the report instead of aborting the run.
func (p *Pipeline) fetchMetadata(ctx context.Context, order []string, logger *slog.Logger) (map[string]*youtube.Metadata, []string) {
	metadata := make(map[string]*youtube.Metadata, len(order))
	var excluded []string
	for _, id := range order {
		meta, err := p.YouTube.VideoMetadata(ctx, id)
		if err != nil {
			logger.Error("excluding video, metadata fetch failed",
				"video_id", id, "error", err)
			excluded = append(excluded, id)
			continue
		}
		metadata[id] = meta
	}
	return metadata, excluded
}

// publishFile pushes the rendered report to the configured repository.
func (p *Pipeline) publishFile(ctx context.Context, path, runID string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("pipeline: reading report for publish: %w", err)
	}
	msg := publish.CommitMessage(runID, timeNow())
	sha, err := p.Publisher.Publish(ctx, content, msg)
	if err != nil {
		return "", fmt.Errorf("pipeline: publishing report: %w", err)
	}
	return sha, nil
}
