package store

import (
	"context"
	"testing"
	"time"

	"vidcatalog/internal/models"
)

// The DynamoDB backend is exercised end to end against a real table; the
// item conversion, which carries all the lifecycle semantics, is covered
// here without the network.

func TestDynamoItemRoundTrip(t *testing.T) {
	v := models.Video{
		ID:        "video-42",
		Category:  "demo",
		Status:    models.VideoStatusActive,
		CreatedAt: time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC),
		Attrs:     map[string]any{"title": "Queue Deep Dive", "duration": float64(300)},
	}

	item := toItem(v)
	if item.VideoID != "video-42" {
		t.Errorf("videoId: got %q", item.VideoID)
	}
	if item.CreatedAt != "2025-04-01T10:30:00Z" {
		t.Errorf("createdAt: got %q", item.CreatedAt)
	}

	back, err := fromItem(item)
	if err != nil {
		t.Fatalf("fromItem: %v", err)
	}
	if back.ID != v.ID || back.Category != v.Category || back.Status != v.Status {
		t.Errorf("typed fields changed: %+v", back)
	}
	if !back.CreatedAt.Equal(v.CreatedAt) || !back.UpdatedAt.Equal(v.UpdatedAt) {
		t.Errorf("timestamps changed: %v %v", back.CreatedAt, back.UpdatedAt)
	}
	if back.Attrs["title"] != "Queue Deep Dive" {
		t.Errorf("attrs changed: %v", back.Attrs)
	}
}

func TestDynamoItemNilAttrs(t *testing.T) {
	back, err := fromItem(dynamoItem{
		VideoID:   "video-empty",
		Status:    "active",
		CreatedAt: "2025-04-01T00:00:00Z",
		UpdatedAt: "2025-04-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("fromItem: %v", err)
	}
	if back.Attrs == nil {
		t.Error("attrs must never be nil after conversion")
	}
}

func TestDynamoItemBadTimestamp(t *testing.T) {
	_, err := fromItem(dynamoItem{
		VideoID:   "video-bad",
		CreatedAt: "not-a-time",
		UpdatedAt: "2025-04-01T00:00:00Z",
	})
	if err == nil {
		t.Error("expected error for malformed createdAt")
	}
}

func TestNewDynamoRequiresTable(t *testing.T) {
	if _, err := NewDynamo(context.Background(), "ap-southeast-1", "", ""); err == nil {
		t.Error("expected error for empty table name")
	}
}
