// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go provides the read-through catalog cache. Readers are served
// from an immutable in-process snapshot; the authoritative store is only
// contacted when the snapshot has outlived the freshness window, and a
// failed refresh degrades to serving the last-known data instead of
// erroring.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"vidcatalog/internal/models"
	"vidcatalog/internal/store"
)

// DefaultTTL is the freshness window: how long a loaded collection is
// served without re-contacting the store.
const DefaultTTL = 5 * time.Minute

// snapshot is one immutable generation of the cached collection. The
// cache swaps whole snapshots, so readers never observe a partially
// updated collection.
type snapshot struct {
	videos    []models.Video
	fetchedAt time.Time
}

// CatalogCache is a read-through cache over a Catalog store. It
// implements store.Catalog itself, so handlers can be wired against
// either the raw store or the cached view.
//
// Writes are never buffered: they go to the store first and, only on
// success, are replayed onto the local snapshot so subsequent reads see
// them without waiting out the freshness window.
type CatalogCache struct {
	store  store.Catalog
	mirror *Mirror // optional cross-process last-known fallback
	ttl    time.Duration

	snap atomic.Pointer[snapshot]
	mu   sync.Mutex // serializes snapshot swaps, never blocks readers

	now func() time.Time
}

// NewCatalogCache creates a cache over the given store. mirror may be
// nil. A zero ttl means DefaultTTL.
func NewCatalogCache(catalog store.Catalog, mirror *Mirror, ttl time.Duration) *CatalogCache {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{
		store:  catalog,
		mirror: mirror,
		ttl:    ttl,
		now:    time.Now,
	}
}

// copyVideos clones the slice so callers can never mutate a snapshot.
func copyVideos(videos []models.Video) []models.Video {
	out := make([]models.Video, len(videos))
	for i, v := range videos {
		out[i] = v.Clone()
	}
	return out
}

// Load returns the current collection. stale is true when the store
// could not be reached and the data is older than the freshness window.
//
// State machine: a fresh snapshot is returned as-is; a stale or missing
// snapshot triggers a synchronous ListAll. Refresh success replaces the
// snapshot wholesale — the remote collection is authoritative, there is
// no field-level merging. Refresh failure serves the previous snapshot
// with a warning, then the mirror's last-known copy, and only fails with
// ErrUnavailable when no data has ever been cached anywhere.
func (c *CatalogCache) Load(ctx context.Context) (videos []models.Video, stale bool, err error) {
	cur := c.snap.Load()
	if cur != nil && c.now().Sub(cur.fetchedAt) < c.ttl {
		return copyVideos(cur.videos), false, nil
	}

	fetched, fetchErr := c.store.ListAll(ctx)
	if fetchErr == nil {
		c.install(ctx, fetched, c.now())
		return copyVideos(fetched), false, nil
	}

	if cur != nil {
		slog.Warn("catalog refresh failed, serving cached data",
			"error", fetchErr,
			"cached_videos", len(cur.videos),
			"cached_age", c.now().Sub(cur.fetchedAt).String(),
		)
		return copyVideos(cur.videos), true, nil
	}

	if c.mirror != nil {
		if mirrored, savedAt, ok := c.mirror.LoadSnapshot(ctx); ok {
			slog.Warn("catalog refresh failed, serving mirrored snapshot",
				"error", fetchErr,
				"mirrored_videos", len(mirrored),
				"saved_at", savedAt,
			)
			c.install(ctx, mirrored, savedAt)
			return copyVideos(mirrored), true, nil
		}
	}

	return nil, false, fmt.Errorf("%w: %v", store.ErrUnavailable, fetchErr)
}

// install swaps in a new snapshot generation and mirrors it.
func (c *CatalogCache) install(ctx context.Context, videos []models.Video, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Store(&snapshot{videos: videos, fetchedAt: fetchedAt})
	if c.mirror != nil {
		c.mirror.SaveSnapshot(ctx, videos)
	}
}

// mutate applies a local edit to the cached collection after a store
// write succeeded. The snapshot's age is preserved: a local write does
// not make remote data any fresher.
func (c *CatalogCache) mutate(ctx context.Context, fn func([]models.Video) []models.Video) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	if cur == nil {
		return
	}

	videos := fn(copyVideos(cur.videos))
	c.snap.Store(&snapshot{videos: videos, fetchedAt: cur.fetchedAt})
	if c.mirror != nil {
		c.mirror.SaveSnapshot(ctx, videos)
	}
}

// Cached returns the current snapshot without touching the store.
func (c *CatalogCache) Cached() ([]models.Video, bool) {
	cur := c.snap.Load()
	if cur == nil {
		return nil, false
	}
	return copyVideos(cur.videos), true
}

// ListAll implements store.Catalog over Load, dropping the staleness flag.
func (c *CatalogCache) ListAll(ctx context.Context) ([]models.Video, error) {
	videos, _, err := c.Load(ctx)
	return videos, err
}

// Get serves a record from the cached collection. On stale data an ID
// miss falls through to the store, since the record may have been
// created after the last successful refresh.
func (c *CatalogCache) Get(ctx context.Context, id string) (models.Video, error) {
	videos, stale, err := c.Load(ctx)
	if err != nil {
		return models.Video{}, err
	}
	for _, v := range videos {
		if v.ID == id {
			return v, nil
		}
	}
	if stale {
		return c.store.Get(ctx, id)
	}
	return models.Video{}, fmt.Errorf("get %q: %w", id, store.ErrNotFound)
}

// Create writes through to the store, then replays onto the local
// snapshot. Create has put semantics, so a record with the same ID is
// replaced rather than appended twice.
func (c *CatalogCache) Create(ctx context.Context, payload models.Video) (models.Video, error) {
	created, err := c.store.Create(ctx, payload)
	if err != nil {
		return models.Video{}, err
	}
	c.mutate(ctx, func(videos []models.Video) []models.Video {
		for i := range videos {
			if videos[i].ID == created.ID {
				videos[i] = created.Clone()
				return videos
			}
		}
		return append(videos, created.Clone())
	})
	return created, nil
}

// Update writes through to the store, then replaces the local copy.
func (c *CatalogCache) Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	merged, err := c.store.Update(ctx, id, patch)
	if err != nil {
		return models.Video{}, err
	}
	c.mutate(ctx, func(videos []models.Video) []models.Video {
		for i := range videos {
			if videos[i].ID == id {
				videos[i] = merged.Clone()
			}
		}
		return videos
	})
	return merged, nil
}

// Delete writes through to the store, then drops the local copy.
func (c *CatalogCache) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.mutate(ctx, func(videos []models.Video) []models.Video {
		kept := videos[:0]
		for _, v := range videos {
			if v.ID != id {
				kept = append(kept, v)
			}
		}
		return kept
	})
	return nil
}

// QueryByCategory filters the cached collection.
func (c *CatalogCache) QueryByCategory(ctx context.Context, category string) ([]models.Video, error) {
	videos, _, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterCategory(videos, category), nil
}
