// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"vidcatalog/internal/cache"
	"vidcatalog/internal/handlers"
	"vidcatalog/internal/models"
	"vidcatalog/internal/store"
)

// flakyStore wraps the memory backend so tests can take the durable
// layer offline and watch the cache keep serving.
type flakyStore struct {
	*store.Memory
	mu   sync.Mutex
	down bool
}

func (f *flakyStore) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *flakyStore) ListAll(ctx context.Context) ([]models.Video, error) {
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()
	if down {
		return nil, store.ErrUnavailable
	}
	return f.Memory.ListAll(ctx)
}

func testRouter(t *testing.T, ttl time.Duration) (chi.Router, *flakyStore) {
	t.Helper()
	fs := &flakyStore{Memory: store.NewMemory()}
	c := cache.NewCatalogCache(fs, nil, ttl)
	return New(handlers.NewVideos(c), nil), fs
}

func do(t *testing.T, r chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func envelopeOf(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("not a JSON envelope: %v\nbody: %s", err, rr.Body.String())
	}
	return env
}

func TestHealth(t *testing.T) {
	r, _ := testRouter(t, time.Hour)

	rr := do(t, r, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("body: %s", rr.Body.String())
	}
}

// TestVideoLifecycle walks a record through the whole API surface:
// create, list, category query, update, get, delete, and the
// idempotent second delete.
func TestVideoLifecycle(t *testing.T) {
	r, _ := testRouter(t, time.Hour)

	// Create with only a category; the server fills in the rest.
	rr := do(t, r, http.MethodPost, "/videos", `{"category": "demo", "title": "First"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status: got %d\nbody: %s", rr.Code, rr.Body.String())
	}
	created := envelopeOf(t, rr)["video"].(map[string]any)
	id, _ := created["id"].(string)
	if !strings.HasPrefix(id, "video-") {
		t.Fatalf("assigned id: got %q", id)
	}
	if created["status"] != "active" {
		t.Errorf("default status: got %v", created["status"])
	}

	// The collection and the category query both see it.
	rr = do(t, r, http.MethodGet, "/videos", "")
	if env := envelopeOf(t, rr); env["count"] != float64(1) {
		t.Errorf("list count: got %v", env["count"])
	}
	rr = do(t, r, http.MethodGet, "/videos/category/demo", "")
	if env := envelopeOf(t, rr); env["count"] != float64(1) {
		t.Errorf("category count: got %v", env["count"])
	}
	rr = do(t, r, http.MethodGet, "/videos/category/other", "")
	if env := envelopeOf(t, rr); env["count"] != float64(0) {
		t.Errorf("empty category count: got %v", env["count"])
	}

	// Update the status; unrelated fields survive.
	rr = do(t, r, http.MethodPut, "/videos/"+id, `{"status": "inactive"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status: got %d\nbody: %s", rr.Code, rr.Body.String())
	}
	rr = do(t, r, http.MethodGet, "/videos/"+id, "")
	got := envelopeOf(t, rr)["video"].(map[string]any)
	if got["status"] != "inactive" {
		t.Errorf("status after update: got %v", got["status"])
	}
	if got["title"] != "First" || got["category"] != "demo" {
		t.Errorf("update dropped fields: %v", got)
	}

	// Delete, confirm gone, delete again.
	rr = do(t, r, http.MethodDelete, "/videos/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status: got %d", rr.Code)
	}
	rr = do(t, r, http.MethodGet, "/videos/"+id, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", rr.Code)
	}
	if env := envelopeOf(t, rr); env["error"] != "video not found" {
		t.Errorf("error: got %v", env["error"])
	}
	rr = do(t, r, http.MethodDelete, "/videos/"+id, "")
	if rr.Code != http.StatusOK {
		t.Errorf("repeat delete: got %d, want 200", rr.Code)
	}
}

// TestStaleServeWhenStoreDown: after the freshness window passes with
// the store offline, reads keep answering from the last good snapshot
// and mark the response stale.
func TestStaleServeWhenStoreDown(t *testing.T) {
	r, fs := testRouter(t, time.Nanosecond)

	rr := do(t, r, http.MethodPost, "/videos", `{"category": "demo"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d", rr.Code)
	}

	// Warm the cache, then take the store down. The nanosecond window
	// means the next list must attempt a refresh.
	if rr := do(t, r, http.MethodGet, "/videos", ""); rr.Code != http.StatusOK {
		t.Fatalf("warm list: got %d", rr.Code)
	}
	fs.setDown(true)

	rr = do(t, r, http.MethodGet, "/videos", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stale list: got %d\nbody: %s", rr.Code, rr.Body.String())
	}
	env := envelopeOf(t, rr)
	if env["stale"] != true {
		t.Error("expected stale flag on fallback response")
	}
	if env["count"] != float64(1) {
		t.Errorf("stale snapshot count: got %v", env["count"])
	}
}

// TestUnavailableWhenNeverPopulated: with no snapshot to fall back on,
// a dead store surfaces as 503.
func TestUnavailableWhenNeverPopulated(t *testing.T) {
	r, fs := testRouter(t, time.Hour)
	fs.setDown(true)

	rr := do(t, r, http.MethodGet, "/videos", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	if env := envelopeOf(t, rr); env["success"] != false {
		t.Error("expected failure envelope")
	}
}

func TestRouteMissUsesEnvelope(t *testing.T) {
	r, _ := testRouter(t, time.Hour)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/nope"},
		{http.MethodPatch, "/videos"},
		{http.MethodGet, "/videos/category/"},
	} {
		rr := do(t, r, tc.method, tc.target, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: got %d, want 404", tc.method, tc.target, rr.Code)
			continue
		}
		if env := envelopeOf(t, rr); env["error"] != "route not found" {
			t.Errorf("%s %s: error %v", tc.method, tc.target, env["error"])
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := testRouter(t, time.Hour)

	req := httptest.NewRequest(http.MethodOptions, "/videos", nil)
	req.Header.Set("Origin", "https://videos.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("preflight status: got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Allow-Methods: got %q", got)
	}
}
