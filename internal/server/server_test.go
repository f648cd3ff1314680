package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/player"
	"github.com/desertthunder/ytstream/internal/shared"
	tu "github.com/desertthunder/ytstream/internal/testing"
)

func newTestServer(t *testing.T, ids ...string) (*Server, *tu.MockService) {
	t.Helper()
	mock := &tu.MockService{}
	exp := time.Now().Add(time.Hour).UnixMilli()
	for _, id := range ids {
		mock.SetAsset(models.MediaAsset{
			ID:          id,
			Title:       "Title " + id,
			Author:      "Author",
			StreamURL:   "https://stream/" + id,
			ExpiresAtMs: exp,
		})
	}
	session := player.NewSession(player.SessionOpts{Service: mock, Workers: 1, RateLimit: 1000})
	t.Cleanup(session.Close)
	return New(Opts{Service: mock, Session: session, AllowedOrigins: []string{"http://app.local"}}), mock
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["service"] != "mock" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestSearchAndItem(t *testing.T) {
	s, mock := newTestServer(t, "abc")
	mock.SearchFn = func(ctx context.Context, query, continuation string) (*models.SearchResponse, error) {
		if query == "" {
			return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
		}
		return &models.SearchResponse{
			Results:      []models.SearchResult{{ID: "abc", Title: query + "/" + continuation}},
			Continuation: "tok2",
		}, nil
	}

	t.Run("search page", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/search?q=lofi&next=tok1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		page := decode[models.SearchResponse](t, rec)
		if len(page.Results) != 1 || page.Results[0].Title != "lofi/tok1" || page.Continuation != "tok2" {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("empty search is a bad request", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/search", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("item", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/items/abc", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if a := decode[models.MediaAsset](t, rec); a.StreamURL != "https://stream/abc" {
			t.Errorf("unexpected asset %+v", a)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/items/nope", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if body := decode[map[string]string](t, rec); body["error"] == "" {
			t.Error("expected error message")
		}
	})
}

func TestMatch(t *testing.T) {
	s, mock := newTestServer(t)
	var got models.Query
	mock.GetByQueryFn = func(ctx context.Context, q models.Query) (*models.MediaAsset, error) {
		got = q
		return &models.MediaAsset{ID: "m1", StreamURL: "https://stream/m1"}, nil
	}

	rec := do(t, s, http.MethodGet, "/api/match?title=Song&artist=Band", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Primary != "Song" || got.Secondary != "Band" {
		t.Errorf("unexpected query %+v", got)
	}
}

func TestQueueRoutes(t *testing.T) {
	s, _ := newTestServer(t, "a", "b", "c")

	rec := do(t, s, http.MethodPost, "/api/queue", `{"ids":["a","missing","b","c"],"active":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var loaded struct {
		Queue  player.Snapshot `json:"queue"`
		Failed []loadFailed    `json:"failed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&loaded); err != nil {
		t.Fatal(err)
	}
	if len(loaded.Queue.Items) != 3 || loaded.Queue.Active != 1 {
		t.Fatalf("unexpected queue %+v", loaded.Queue)
	}
	if len(loaded.Failed) != 1 || loaded.Failed[0].Request != "missing" {
		t.Errorf("unexpected failures %+v", loaded.Failed)
	}

	t.Run("open", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/queue/open/2", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := decode[map[string]string](t, rec); body["url"] != "https://stream/c" {
			t.Errorf("unexpected url %q", body["url"])
		}
	})

	t.Run("position", func(t *testing.T) {
		if rec := do(t, s, http.MethodPost, "/api/queue/position", `{"index":2}`); rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if rec := do(t, s, http.MethodPost, "/api/queue/position", `{"index":9}`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("move", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/queue/move", `{"from":0,"to":2}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		snap := decode[player.Snapshot](t, rec)
		if snap.Items[2].ID != "a" {
			t.Errorf("expected a at the end, got %+v", snap.Items)
		}
	})

	t.Run("remove", func(t *testing.T) {
		rec := do(t, s, http.MethodDelete, "/api/queue/0", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if snap := decode[player.Snapshot](t, rec); len(snap.Items) != 2 {
			t.Errorf("expected 2 items, got %d", len(snap.Items))
		}
		if rec := do(t, s, http.MethodDelete, "/api/queue/x", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("snapshot", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/queue", "")
		if snap := decode[player.Snapshot](t, rec); snap.ID != s.session.ID() {
			t.Errorf("unexpected session id %q", snap.ID)
		}
	})
}

func TestLoadQueueRejectsBadBodies(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"ids":`},
		{"unknown field", `{"songs":["a"]}`},
		{"empty", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, http.MethodPost, "/api/queue", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", shared.ErrMissingArgument), http.StatusBadRequest},
		{shared.ErrNoMatchFound, http.StatusNotFound},
		{shared.ErrNotTracked, http.StatusNotFound},
		{shared.ErrProviderRejected, http.StatusBadGateway},
		{shared.ErrProviderUnreachable, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestCheckOrigin(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"http://app.local", true},
		{"http://evil.test", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := s.checkOrigin(r); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWebsocketFeed(t *testing.T) {
	s, _ := newTestServer(t, "a")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub().Run(ctx)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var welcome Message
	if err := conn.ReadJSON(&welcome); err != nil || welcome.Type != "welcome" {
		t.Fatalf("expected welcome, got %+v (%v)", welcome, err)
	}

	msgs := make(chan Message, 4)
	go func() {
		for {
			var m Message
			if err := conn.ReadJSON(&m); err != nil {
				close(msgs)
				return
			}
			msgs <- m
		}
	}()

	// Registration races the welcome frame, so keep publishing until one lands.
	ev := models.AssetRefreshed{ItemID: "a", Index: 0, URL: "https://stream/a2"}
	deadline := time.After(2 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case m, ok := <-msgs:
			if !ok {
				t.Fatal("connection closed")
			}
			if m.Type != "assetRefreshed" {
				t.Fatalf("unexpected message type %q", m.Type)
			}
			data, _ := m.Data.(map[string]any)
			if data["url"] != "https://stream/a2" {
				t.Errorf("unexpected payload %v", m.Data)
			}
			return
		case <-tick.C:
			s.Hub().AssetRefreshed(ctx, ev)
		case <-deadline:
			t.Fatal("timed out waiting for refresh")
		}
	}
}

func TestHubPublishDropsWhenFull(t *testing.T) {
	h := NewHub(nil)
	for range cap(h.broadcast) {
		if !h.Publish(Message{Type: "x"}) {
			t.Fatal("expected publish to succeed")
		}
	}
	if h.Publish(Message{Type: "x"}) {
		t.Error("expected publish to report a full queue")
	}
}
