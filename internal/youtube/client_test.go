package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{
		APIKey:         "test-key",
		BaseURL:        ts.URL,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	}, logger)
}

func TestVideoMetadata(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "abc123" {
			t.Errorf("id = %q, want abc123", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"id": "abc123",
				"snippet": map[string]any{
					"title":       "High Stakes Final Table",
					"publishedAt": "2025-03-01T18:00:00Z",
				},
				"contentDetails": map[string]any{"duration": "PT1H22M18S"},
			}},
		})
	})

	c := newTestClient(t, mux)
	meta, err := c.VideoMetadata(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("VideoMetadata: %v", err)
	}

	if meta.Title != "High Stakes Final Table" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.Duration.String() != "01:22:18" {
		t.Errorf("Duration = %q, want 01:22:18", meta.Duration)
	}
	if meta.UploadTime.Year() != 2025 || meta.UploadTime.Month() != 3 {
		t.Errorf("UploadTime = %v", meta.UploadTime)
	}
	if meta.UploadDateDisplay != "March 1, 2025" {
		t.Errorf("UploadDateDisplay = %q", meta.UploadDateDisplay)
	}
}

func TestVideoMetadata_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})

	c := newTestClient(t, mux)
	_, err := c.VideoMetadata(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestVideoMetadata_RetriesServerErrors(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "backend flake", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"snippet": map[string]any{
					"title":       "Recovered",
					"publishedAt": "2025-03-01T18:00:00Z",
				},
				"contentDetails": map[string]any{"duration": "PT10M"},
			}},
		})
	})

	c := newTestClient(t, mux)
	meta, err := c.VideoMetadata(context.Background(), "abc")
	if err != nil {
		t.Fatalf("VideoMetadata: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if meta.Title != "Recovered" {
		t.Errorf("Title = %q", meta.Title)
	}
}

func TestVideoMetadata_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		http.Error(w, "still down", http.StatusInternalServerError)
	})

	c := newTestClient(t, mux)
	if _, err := c.VideoMetadata(context.Background(), "abc"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestVideoMetadata_BadRequestIsTerminal(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		http.Error(w, "key invalid", http.StatusForbidden)
	})

	c := newTestClient(t, mux)
	if _, err := c.VideoMetadata(context.Background(), "abc"); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 4xx)", attempts)
	}
}

func TestSearchVideos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("channelId"); got != "UC123" {
			t.Errorf("channelId = %q", got)
		}
		if got := q.Get("type"); got != "video" {
			t.Errorf("type = %q", got)
		}
		if got := q.Get("publishedAfter"); got != "2025-02-01T00:00:00Z" {
			t.Errorf("publishedAfter = %q", got)
		}

		if q.Get("pageToken") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"nextPageToken": "page2",
				"items": []map[string]any{
					{"id": map[string]any{"videoId": "vid1"}},
					{"id": map[string]any{"videoId": "vid2"}},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": map[string]any{"videoId": "vid3"}},
			},
		})
	})

	c := newTestClient(t, mux)
	after := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	page, err := c.SearchVideos(context.Background(), "UC123", after, "")
	if err != nil {
		t.Fatalf("SearchVideos: %v", err)
	}
	if len(page.VideoIDs) != 2 || page.VideoIDs[0] != "vid1" {
		t.Errorf("VideoIDs = %v", page.VideoIDs)
	}
	if page.NextPageToken != "page2" {
		t.Errorf("NextPageToken = %q", page.NextPageToken)
	}

	page, err = c.SearchVideos(context.Background(), "UC123", after, page.NextPageToken)
	if err != nil {
		t.Fatalf("SearchVideos page 2: %v", err)
	}
	if len(page.VideoIDs) != 1 || page.VideoIDs[0] != "vid3" {
		t.Errorf("VideoIDs = %v", page.VideoIDs)
	}
	if page.NextPageToken != "" {
		t.Errorf("NextPageToken = %q, want empty at end", page.NextPageToken)
	}
}
