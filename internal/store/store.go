// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store defines the Catalog contract — durable CRUD over video
// records plus a category query — and its backends. The original system
// ran two parallel implementations of the same semantics (a document
// table and a JSON object in a bucket); here they are interchangeable
// backends behind one interface.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidcatalog/internal/models"
)

// Error kinds surfaced by every backend. Callers match with errors.Is.
var (
	// ErrNotFound means no record exists for the requested ID.
	ErrNotFound = errors.New("video not found")

	// ErrInvalidInput means the payload is malformed and retrying the
	// same request cannot succeed.
	ErrInvalidInput = errors.New("invalid video payload")

	// ErrUnavailable means the authoritative store could not be reached.
	// The request may succeed later.
	ErrUnavailable = errors.New("catalog store unavailable")
)

// Catalog is the authoritative persistence contract for video records.
// A returned success means the write is durable.
//
// Delete is idempotent: deleting an absent ID succeeds, so clients can
// safely retry after a lost response.
type Catalog interface {
	// ListAll returns every record. An uninitialized dataset is an empty
	// slice, not an error.
	ListAll(ctx context.Context) ([]models.Video, error)

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (models.Video, error)

	// Create persists a new record, assigning ID and timestamps as
	// needed, and returns the stored copy. A caller-supplied ID that is
	// already taken replaces that record (put semantics), so IDs stay
	// unique for the lifetime of the catalog.
	Create(ctx context.Context, payload models.Video) (models.Video, error)

	// Update merges patch over the existing record and persists the
	// result. ErrNotFound if the ID is absent.
	Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error)

	// Delete removes the record. Succeeds even if it is already gone.
	Delete(ctx context.Context, id string) error

	// QueryByCategory returns all records with the given category.
	QueryByCategory(ctx context.Context, category string) ([]models.Video, error)
}

// Replacer is the optional bulk side of a backend: swap in a whole
// catalog at once, records taken verbatim. Used when re-publishing an
// exported snapshot, where IDs and timestamps must survive the trip.
type Replacer interface {
	ReplaceAll(ctx context.Context, videos []models.Video) error
}

// prepareCreate normalizes a create payload into the record to persist:
// ID assigned when absent, status defaulted to active, both timestamps
// set to now. Shared by all backends so their lifecycle semantics cannot
// drift apart.
func prepareCreate(payload models.Video, now time.Time) (models.Video, error) {
	v := payload.Clone()

	if v.Status == "" {
		v.Status = models.VideoStatusActive
	}
	if !v.Status.Valid() {
		return models.Video{}, fmt.Errorf("%w: status %q", ErrInvalidInput, v.Status)
	}
	if v.ID == "" {
		v.ID = models.NewVideoID()
	}

	v.CreatedAt = now
	v.UpdatedAt = now
	return v, nil
}

// applyPatch merges a patch over an existing record, mapping a bad patch
// to ErrInvalidInput. Shared by all backends.
func applyPatch(existing models.Video, patch models.VideoPatch, now time.Time) (models.Video, error) {
	merged, err := patch.Apply(existing, now)
	if err != nil {
		return models.Video{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return merged, nil
}
