// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vidcatalog/internal/models"
)

// Memory is the in-process Catalog backend. It is the default when no
// remote store is configured and the store every unit test runs against.
type Memory struct {
	mu     sync.RWMutex
	videos map[string]models.Video
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{videos: make(map[string]models.Video)}
}

// ListAll returns every record sorted by ID for stable output.
func (m *Memory) ListAll(_ context.Context) ([]models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Video, 0, len(m.videos))
	for _, v := range m.videos {
		out = append(out, v.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the record with the given ID.
func (m *Memory) Get(_ context.Context, id string) (models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return v.Clone(), nil
}

// Create stores a new record, assigning ID and timestamps as needed.
func (m *Memory) Create(_ context.Context, payload models.Video) (models.Video, error) {
	v, err := prepareCreate(payload, time.Now())
	if err != nil {
		return models.Video{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.videos[v.ID] = v
	return v.Clone(), nil
}

// Update merges patch over the existing record under the write lock, so
// concurrent updates to the same ID never interleave.
func (m *Memory) Update(_ context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.videos[id]
	if !ok {
		return models.Video{}, fmt.Errorf("update %q: %w", id, ErrNotFound)
	}

	merged, err := applyPatch(existing, patch, time.Now())
	if err != nil {
		return models.Video{}, err
	}

	m.videos[id] = merged
	return merged.Clone(), nil
}

// Delete removes the record. A missing ID is not an error.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.videos, id)
	return nil
}

// ReplaceAll swaps the whole catalog, records taken verbatim.
func (m *Memory) ReplaceAll(_ context.Context, videos []models.Video) error {
	next := make(map[string]models.Video, len(videos))
	for _, v := range videos {
		next[v.ID] = v.Clone()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.videos = next
	return nil
}

// QueryByCategory filters the primary dataset by category.
func (m *Memory) QueryByCategory(ctx context.Context, category string) ([]models.Video, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterCategory(all, category), nil
}
