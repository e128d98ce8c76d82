// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers maps transport requests onto catalog operations. The
// handlers are stateless; all shared state lives in the catalog cache,
// which synchronizes internally.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vidcatalog/internal/cache"
	"vidcatalog/internal/models"
	"vidcatalog/internal/snapshot"
	"vidcatalog/internal/store"
)

// maxBodySize caps request bodies. Catalog records are small metadata;
// anything near this limit is not a video record.
const maxBodySize = 1 << 20

// Videos serves the catalog CRUD API through the read-through cache.
type Videos struct {
	catalog *cache.CatalogCache
}

// NewVideos creates the catalog handler group.
func NewVideos(catalog *cache.CatalogCache) *Videos {
	return &Videos{catalog: catalog}
}

// envelope is the uniform response body: a success flag plus either the
// payload or an error description. Videos is a pointer so collection
// responses always carry a "videos" array — empty included — while the
// other response kinds omit the key.
type envelope struct {
	Success bool            `json:"success"`
	Videos  *[]models.Video `json:"videos,omitempty"`
	Video   *models.Video   `json:"video,omitempty"`
	Count   *int            `json:"count,omitempty"`
	Stale   bool            `json:"stale,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// writeJSON renders an envelope with the given status code.
func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps an error kind onto a status code and envelope. The
// envelope carries a short description, never internal details.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Error: "video not found"})
	case errors.Is(err, store.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, envelope{Error: "invalid video payload"})
	case errors.Is(err, store.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, envelope{Error: "catalog temporarily unavailable"})
	default:
		slog.Error("catalog request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "internal error"})
	}
}

// listEnvelope builds a successful collection response. An empty
// collection still renders as "videos": [], never null or absent.
func listEnvelope(videos []models.Video, stale bool) envelope {
	if videos == nil {
		videos = []models.Video{}
	}
	count := len(videos)
	return envelope{Success: true, Videos: &videos, Count: &count, Stale: stale}
}

// List handles GET /videos. An optional ?status= filter narrows the
// collection; status=active is the public projection.
func (h *Videos) List(w http.ResponseWriter, r *http.Request) {
	videos, stale, err := h.catalog.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if status := models.VideoStatus(r.URL.Query().Get("status")); status.Valid() {
		videos = models.FilterStatus(videos, status)
	}

	writeJSON(w, http.StatusOK, listEnvelope(videos, stale))
}

// Get handles GET /videos/{id}.
func (h *Videos) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	video, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Video: &video})
}

// ByCategory handles GET /videos/category/{category}.
func (h *Videos) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	videos, err := h.catalog.QueryByCategory(r.Context(), category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listEnvelope(videos, false))
}

// Create handles POST /videos.
func (h *Videos) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.Video
	if err := decodeBody(w, r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
		return
	}

	video, err := h.catalog.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("video created", "id", video.ID, "category", video.Category)
	writeJSON(w, http.StatusCreated, envelope{Success: true, Video: &video})
}

// Update handles PUT /videos/{id}. The record is identified by the path;
// any id in the body is ignored.
func (h *Videos) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.VideoPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
		return
	}

	video, err := h.catalog.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("video updated", "id", id)
	writeJSON(w, http.StatusOK, envelope{Success: true, Video: &video})
}

// Delete handles DELETE /videos/{id}. Idempotent: deleting an absent ID
// still answers success, so a client retrying a lost response never sees
// a spurious not-found.
func (h *Videos) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("video deleted", "id", id)
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// Export handles GET /videos/export: the current collection as a
// downloadable pretty-printed JSON array, ready to commit to the
// canonical location. ?status=active exports the public projection.
func (h *Videos) Export(w http.ResponseWriter, r *http.Request) {
	videos, _, err := h.catalog.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("status") == string(models.VideoStatusActive) {
		videos = models.FilterActive(videos)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="videos-data.json"`)
	if err := snapshot.Export(w, videos); err != nil {
		slog.Error("snapshot export failed", "error", err)
	}
}

// RouteNotFound answers unmatched routes and methods with the envelope.
// Distinct from a record not-found: this is a routing error.
func RouteNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{Error: "route not found"})
}

// decodeBody decodes a JSON request body with a size cap. The returned
// error text is safe to echo back to the client.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}
