// Package cache provides the read-through catalog cache and its optional
// Valkey (Redis-compatible) mirror of the last successfully loaded
// collection.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"vidcatalog/internal/models"
)

// snapshotKey holds the last-known catalog snapshot. No TTL: this is the
// fallback of last resort for a process that starts while the store is
// down, not a freshness cache.
const snapshotKey = "catalog:last-known"

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", fmt.Sprintf("%s:%s", host, port))
	return client, nil
}

// Mirror persists the last-known catalog collection in Valkey so it
// survives process restarts. Mirror failures are logged warnings and
// never surface to callers — losing the mirror only costs the fallback.
type Mirror struct {
	client *redis.Client
}

// NewMirror creates a snapshot mirror backed by the given Valkey client.
func NewMirror(client *redis.Client) *Mirror {
	return &Mirror{client: client}
}

// mirrorPayload is the stored shape: the collection plus when it was
// captured, so a restored snapshot is known to be stale.
type mirrorPayload struct {
	SavedAt time.Time      `json:"savedAt"`
	Videos  []models.Video `json:"videos"`
}

// SaveSnapshot stores the collection as the last-known catalog state.
func (m *Mirror) SaveSnapshot(ctx context.Context, videos []models.Video) {
	data, err := json.Marshal(mirrorPayload{SavedAt: time.Now(), Videos: videos})
	if err != nil {
		slog.Warn("snapshot mirror encode error", "error", err)
		return
	}
	if err := m.client.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		slog.Warn("snapshot mirror save error", "error", err)
		return
	}
	slog.Debug("snapshot mirrored", "videos", len(videos))
}

// LoadSnapshot retrieves the last-known collection. Returns ok=false on
// a miss or any error.
func (m *Mirror) LoadSnapshot(ctx context.Context) ([]models.Video, time.Time, bool) {
	data, err := m.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, false
	}
	if err != nil {
		slog.Warn("snapshot mirror load error", "error", err)
		return nil, time.Time{}, false
	}

	var payload mirrorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		slog.Warn("snapshot mirror decode error", "error", err)
		return nil, time.Time{}, false
	}
	return payload.Videos, payload.SavedAt, true
}

// Clear removes the mirrored snapshot.
func (m *Mirror) Clear(ctx context.Context) {
	if err := m.client.Del(ctx, snapshotKey).Err(); err != nil {
		slog.Warn("snapshot mirror clear error", "error", err)
	}
}
