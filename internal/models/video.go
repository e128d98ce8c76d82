// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the catalog entities shared by every layer.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VideoStatus represents the visibility state of a video.
// Only active videos are exposed to the public listing.
type VideoStatus string

const (
	VideoStatusActive   VideoStatus = "active"
	VideoStatusInactive VideoStatus = "inactive"
)

// Valid reports whether s is one of the known status values.
func (s VideoStatus) Valid() bool {
	return s == VideoStatusActive || s == VideoStatusInactive
}

// Video is a single catalog record. The typed fields are the ones the
// catalog core cares about; everything else a client sends (title,
// description, URL, thumbnails, ...) is carried opaquely in Attrs and
// flattened to top-level keys on the wire.
type Video struct {
	ID        string
	Category  string
	Status    VideoStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	Attrs     map[string]any
}

// reservedKeys are the wire keys backed by typed fields. They are never
// stored in Attrs.
var reservedKeys = map[string]bool{
	"id":        true,
	"category":  true,
	"status":    true,
	"createdAt": true,
	"updatedAt": true,
}

// NewVideoID returns a fresh catalog ID: a millisecond timestamp for
// ordering plus a random suffix so IDs stay unique even when two records
// are created within the same millisecond.
func NewVideoID() string {
	return fmt.Sprintf("video-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// MarshalJSON flattens Attrs into the top-level object alongside the
// typed fields. Timestamps are RFC 3339.
func (v Video) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(v.Attrs)+5)
	for k, val := range v.Attrs {
		if !reservedKeys[k] {
			m[k] = val
		}
	}
	m["id"] = v.ID
	m["category"] = v.Category
	m["status"] = v.Status
	m["createdAt"] = v.CreatedAt.UTC().Format(time.RFC3339)
	m["updatedAt"] = v.UpdatedAt.UTC().Format(time.RFC3339)
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON: typed keys are pulled out
// with type checks, every other key lands in Attrs. A wrong type on a
// typed key is an error so malformed payloads are rejected early.
func (v *Video) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	out := Video{Attrs: make(map[string]any)}
	for key, raw := range m {
		switch key {
		case "id":
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("video field %q must be a string", key)
			}
			out.ID = s
		case "category":
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("video field %q must be a string", key)
			}
			out.Category = s
		case "status":
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("video field %q must be a string", key)
			}
			status := VideoStatus(s)
			if s != "" && !status.Valid() {
				return fmt.Errorf("video status %q is not %q or %q", s, VideoStatusActive, VideoStatusInactive)
			}
			out.Status = status
		case "createdAt", "updatedAt":
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("video field %q must be an RFC 3339 string", key)
			}
			ts, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fmt.Errorf("video field %q: %w", key, err)
			}
			if key == "createdAt" {
				out.CreatedAt = ts
			} else {
				out.UpdatedAt = ts
			}
		default:
			out.Attrs[key] = raw
		}
	}

	*v = out
	return nil
}

// Clone returns a deep-enough copy of the video: the Attrs map is copied
// so mutations on the clone never leak into cached snapshots. Attr values
// themselves are plain decoded JSON and are treated as immutable.
func (v Video) Clone() Video {
	out := v
	out.Attrs = make(map[string]any, len(v.Attrs))
	for k, val := range v.Attrs {
		out.Attrs[k] = val
	}
	return out
}

// VideoPatch is a partial update decoded straight from a request body.
// Keys it does not carry keep their previous value.
type VideoPatch map[string]any

// Apply merges the patch over an existing video, shallow and
// field-by-field. The id and createdAt fields are immutable and any
// caller-supplied value for them is discarded; updatedAt is always
// server-assigned. A null value for an opaque key deletes that key.
func (p VideoPatch) Apply(existing Video, now time.Time) (Video, error) {
	out := existing.Clone()

	for key, raw := range p {
		switch key {
		case "id", "videoId", "createdAt", "updatedAt":
			// Server-owned; ignored on purpose so stale client copies
			// cannot rewrite them.
		case "category":
			s, ok := raw.(string)
			if !ok {
				return Video{}, fmt.Errorf("video field %q must be a string", key)
			}
			out.Category = s
		case "status":
			s, ok := raw.(string)
			if !ok {
				return Video{}, fmt.Errorf("video field %q must be a string", key)
			}
			status := VideoStatus(s)
			if !status.Valid() {
				return Video{}, fmt.Errorf("video status %q is not %q or %q", s, VideoStatusActive, VideoStatusInactive)
			}
			out.Status = status
		default:
			if raw == nil {
				delete(out.Attrs, key)
			} else {
				out.Attrs[key] = raw
			}
		}
	}

	// updatedAt never moves backwards, even if the wall clock does.
	if now.After(existing.UpdatedAt) {
		out.UpdatedAt = now
	} else {
		out.UpdatedAt = existing.UpdatedAt
	}
	return out, nil
}

// FilterStatus returns the videos with the given status.
func FilterStatus(videos []Video, status VideoStatus) []Video {
	out := make([]Video, 0, len(videos))
	for _, v := range videos {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out
}

// FilterActive returns the public projection: only active videos.
func FilterActive(videos []Video) []Video {
	return FilterStatus(videos, VideoStatusActive)
}

// FilterCategory returns the videos whose category equals category.
func FilterCategory(videos []Video, category string) []Video {
	out := make([]Video, 0)
	for _, v := range videos {
		if v.Category == category {
			out = append(out, v)
		}
	}
	return out
}
