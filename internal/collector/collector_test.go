package collector

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/railbird-dev/railbird/internal/state"
	"github.com/railbird-dev/railbird/internal/youtube"
)

// channelFixture serves a one-page channel listing plus per-video
// metadata with the given ISO durations.
func channelFixture(t *testing.T, durations map[string]string) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, _ *http.Request) {
		items := make([]map[string]any, 0, len(durations))
		for id := range durations {
			items = append(items, map[string]any{
				"id": map[string]any{"videoId": id},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items})
	})
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		dur, ok := durations[id]
		if !ok {
			json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"id": id,
				"snippet": map[string]any{
					"title":       "Video " + id,
					"publishedAt": "2025-03-01T18:00:00Z",
				},
				"contentDetails": map[string]any{"duration": dur},
			}},
		})
	})
	return mux
}

func newTestCollector(t *testing.T, handler http.Handler) (*Collector, *state.Store) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := state.NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := youtube.New(youtube.Config{
		APIKey:         "test-key",
		BaseURL:        ts.URL,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	}, logger)

	c, err := New(client, store, Config{
		ChannelID:   "UCtest",
		StartDate:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		MinDuration: 10 * time.Minute,
	}, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }
	return c, store
}

func TestRun_QueuesLongUnseenVideos(t *testing.T) {
	c, store := newTestCollector(t, channelFixture(t, map[string]string{
		"long1":  "PT45M",
		"long2":  "PT1H5M",
		"short1": "PT3M20S",
	}))

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Scanned != 3 {
		t.Errorf("Scanned = %d, want 3", res.Scanned)
	}
	if res.Queued != 2 {
		t.Errorf("Queued = %d, want 2", res.Queued)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}

	queue, err := store.Queue()
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("len(queue) = %d, want 2: %v", len(queue), queue)
	}
	for _, id := range queue {
		if id == "short1" {
			t.Error("short video was queued")
		}
	}
}

func TestRun_SkipsProcessedVideos(t *testing.T) {
	c, store := newTestCollector(t, channelFixture(t, map[string]string{
		"done": "PT45M",
		"new":  "PT30M",
	}))
	if err := store.MarkProcessed("done"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Queued != 1 {
		t.Errorf("Queued = %d, want 1", res.Queued)
	}

	queue, _ := store.Queue()
	if len(queue) != 1 || queue[0] != "new" {
		t.Errorf("queue = %v, want [new]", queue)
	}
}

func TestRun_AdvancesCursor(t *testing.T) {
	c, store := newTestCollector(t, channelFixture(t, nil))

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cursor, ok, err := store.LastCollected()
	if err != nil {
		t.Fatalf("LastCollected: %v", err)
	}
	if !ok {
		t.Fatal("cursor not set after run")
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !cursor.Equal(want) {
		t.Errorf("cursor = %v, want %v", cursor, want)
	}
}

func TestRun_ResumesFromCursor(t *testing.T) {
	var gotAfter string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		gotAfter = r.URL.Query().Get("publishedAfter")
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})

	c, store := newTestCollector(t, mux)
	cursor := time.Date(2025, 3, 5, 6, 0, 0, 0, time.UTC)
	if err := store.SetLastCollected(cursor); err != nil {
		t.Fatalf("SetLastCollected: %v", err)
	}

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotAfter != "2025-03-05T06:00:00Z" {
		t.Errorf("publishedAfter = %q, want cursor time", gotAfter)
	}
}

func TestRun_SkipsVanishedVideo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": map[string]any{"videoId": "ghost"}}},
		})
	})
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	})

	c, _ := newTestCollector(t, mux)
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Queued != 0 || res.Skipped != 1 {
		t.Errorf("Queued = %d Skipped = %d, want 0 and 1", res.Queued, res.Skipped)
	}
}
