// Package youtube is a minimal YouTube Data API v3 client covering the
// two read-only calls railbird needs: per-video metadata and channel
// search pagination. Calls retry with bounded exponential backoff;
// exhausting the retry budget for one video never aborts a run.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/railbird-dev/railbird/internal/httpkit"
	"github.com/railbird-dev/railbird/internal/timestamp"
)

// DefaultBaseURL is the Data API endpoint root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrNotFound reports a video ID the API knows nothing about.
// It is terminal; retrying cannot help.
var ErrNotFound = errors.New("youtube: video not found")

// Config holds client settings.
type Config struct {
	APIKey string
	// BaseURL overrides the API root, for tests.
	BaseURL string
	// MaxRetries bounds attempts per call (default 5).
	MaxRetries int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt
	// (default 2s).
	RetryBaseDelay time.Duration
}

// Client calls the Data API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a Data API client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		http: httpkit.NewClient(
			httpkit.WithTimeout(30 * time.Second),
		),
	}
}

// Metadata is the per-video information the report needs.
type Metadata struct {
	VideoID string
	Title   string
	// Duration is the canonical video length, used to validate
	// summary timestamps.
	Duration timestamp.Token
	// UploadTime orders videos by recency.
	UploadTime time.Time
	// UploadDateDisplay is the human-readable upload date.
	UploadDateDisplay string
}

// videosResponse is the subset of the videos endpoint payload we parse.
type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// VideoMetadata fetches title, duration, and upload date for one video.
// Returns ErrNotFound when the API has no item for the ID.
func (c *Client) VideoMetadata(ctx context.Context, videoID string) (*Metadata, error) {
	q := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {videoID},
		"key":  {c.cfg.APIKey},
	}

	var resp videosResponse
	if err := c.get(ctx, "/videos", q, &resp); err != nil {
		return nil, fmt.Errorf("youtube: metadata for %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("youtube: metadata for %s: %w", videoID, ErrNotFound)
	}

	item := resp.Items[0]
	duration, err := timestamp.ParseDuration(item.ContentDetails.Duration)
	if err != nil {
		return nil, fmt.Errorf("youtube: metadata for %s: bad duration %q: %w",
			videoID, item.ContentDetails.Duration, err)
	}

	return &Metadata{
		VideoID:           videoID,
		Title:             item.Snippet.Title,
		Duration:          duration,
		UploadTime:        item.Snippet.PublishedAt,
		UploadDateDisplay: item.Snippet.PublishedAt.Format("January 2, 2006"),
	}, nil
}

// SearchPage is one page of channel search results.
type SearchPage struct {
	VideoIDs      []string
	NextPageToken string
}

// searchResponse is the subset of the search endpoint payload we parse.
type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// SearchVideos lists a channel's videos published after the given time,
// newest-first, one page per call. Pass the previous page's
// NextPageToken to continue; an empty token in the result means the
// listing is exhausted.
func (c *Client) SearchVideos(ctx context.Context, channelID string, publishedAfter time.Time, pageToken string) (*SearchPage, error) {
	q := url.Values{
		"part":           {"id"},
		"channelId":      {channelID},
		"maxResults":     {strconv.Itoa(50)},
		"order":          {"date"},
		"type":           {"video"},
		"publishedAfter": {publishedAfter.UTC().Format(time.RFC3339)},
		"key":            {c.cfg.APIKey},
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp searchResponse
	if err := c.get(ctx, "/search", q, &resp); err != nil {
		return nil, fmt.Errorf("youtube: search channel %s: %w", channelID, err)
	}

	page := &SearchPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			page.VideoIDs = append(page.VideoIDs, item.ID.VideoID)
		}
	}
	return page, nil
}

// get performs a GET with bounded exponential-backoff retry. Transport
// errors, 429, and 5xx responses are retried; other non-200 statuses
// are terminal.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	fullURL := c.cfg.BaseURL + path + "?" + q.Encode()

	var lastErr error
	delay := c.cfg.RetryBaseDelay

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying youtube api call",
				"path", path,
				"attempt", attempt,
				"max_attempts", c.cfg.MaxRetries,
				"delay", delay,
				"error", lastErr,
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		lastErr = c.getOnce(ctx, fullURL, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// statusError marks a retryable HTTP status.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Transport-level errors (timeouts, resets) are worth another try.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) getOnce(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{
			code: resp.StatusCode,
			body: httpkit.ReadErrorBody(resp.Body, 512),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
