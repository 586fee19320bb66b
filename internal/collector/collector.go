// Package collector discovers new channel uploads and queues them for
// future processing runs.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/railbird-dev/railbird/internal/state"
	"github.com/railbird-dev/railbird/internal/youtube"
)

// Config controls one collection pass.
type Config struct {
	ChannelID string
	// StartDate bounds the first pass; later passes resume from the
	// stored cursor.
	StartDate time.Time
	// MinDuration filters out shorts and clips.
	MinDuration time.Duration
}

// Result summarizes a collection pass.
type Result struct {
	Scanned  int // videos returned by the channel listing
	Queued   int // new videos added to the queue
	Skipped  int // too short or already known
	CursorAt time.Time
}

// Collector scans a channel for videos to process.
type Collector struct {
	client *youtube.Client
	store  *state.Store
	cfg    Config
	logger *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// New creates a collector.
func New(client *youtube.Client, store *state.Store, cfg Config, logger *slog.Logger) (*Collector, error) {
	if cfg.ChannelID == "" {
		return nil, errors.New("collector: channel ID is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Run performs one collection pass: list channel uploads since the
// cursor, enqueue videos long enough to be worth summarizing, then
// advance the cursor. Videos whose metadata cannot be fetched are
// skipped for this pass and picked up again next time because the
// cursor only moves after the full listing succeeds.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	since := c.cfg.StartDate
	if cursor, ok, err := c.store.LastCollected(); err != nil {
		return nil, fmt.Errorf("collector: reading cursor: %w", err)
	} else if ok {
		since = cursor
	}

	c.logger.Info("collecting channel uploads",
		"channel_id", c.cfg.ChannelID,
		"since", since.Format(time.RFC3339),
	)

	ids, err := c.listAll(ctx, since)
	if err != nil {
		return nil, err
	}

	res := &Result{Scanned: len(ids), CursorAt: c.now().UTC()}
	for _, id := range ids {
		keep, err := c.consider(ctx, id)
		if err != nil {
			return nil, err
		}
		if keep {
			res.Queued++
		} else {
			res.Skipped++
		}
	}

	if err := c.store.SetLastCollected(res.CursorAt); err != nil {
		return nil, fmt.Errorf("collector: advancing cursor: %w", err)
	}
	c.logger.Info("collection pass finished",
		"scanned", res.Scanned, "queued", res.Queued, "skipped", res.Skipped)
	return res, nil
}

// listAll walks every page of the channel listing.
func (c *Collector) listAll(ctx context.Context, since time.Time) ([]string, error) {
	var ids []string
	token := ""
	for {
		page, err := c.client.SearchVideos(ctx, c.cfg.ChannelID, since, token)
		if err != nil {
			return nil, fmt.Errorf("collector: listing channel: %w", err)
		}
		ids = append(ids, page.VideoIDs...)
		if page.NextPageToken == "" {
			return ids, nil
		}
		token = page.NextPageToken
	}
}

// consider decides whether one video belongs in the queue.
func (c *Collector) consider(ctx context.Context, id string) (bool, error) {
	processed, err := c.store.IsProcessed(id)
	if err != nil {
		return false, fmt.Errorf("collector: checking %s: %w", id, err)
	}
	if processed {
		return false, nil
	}

	meta, err := c.client.VideoMetadata(ctx, id)
	if err != nil {
		if errors.Is(err, youtube.ErrNotFound) {
			c.logger.Warn("video vanished during collection", "video_id", id)
			return false, nil
		}
		return false, err
	}

	if d := time.Duration(meta.Duration.Seconds()) * time.Second; d < c.cfg.MinDuration {
		c.logger.Debug("skipping short video",
			"video_id", id, "duration", meta.Duration.String())
		return false, nil
	}

	if err := c.store.Enqueue(id); err != nil {
		return false, fmt.Errorf("collector: queueing %s: %w", id, err)
	}
	c.logger.Info("queued video", "video_id", id, "title", meta.Title)
	return true, nil
}
