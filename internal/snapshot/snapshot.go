// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package snapshot serializes a catalog collection to the portable
// pretty-printed JSON file an operator commits to the canonical location
// the store is published from, and replays such files back into a store.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"vidcatalog/internal/models"
	"vidcatalog/internal/store"
)

// Export writes the collection as a pretty-printed JSON array. It is a
// pure function of its input: no network, no store access. The only
// failure mode is serialization or writer error.
func Export(w io.Writer, videos []models.Video) error {
	if videos == nil {
		videos = []models.Video{}
	}
	data, err := json.MarshalIndent(videos, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// WriteFile exports the collection to a file, replacing any previous one.
func WriteFile(path string, videos []models.Video) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	if err := Export(f, videos); err != nil {
		return err
	}
	return f.Close()
}

// Read parses a snapshot produced by Export.
func Read(r io.Reader) ([]models.Video, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	videos := make([]models.Video, 0)
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return videos, nil
}

// ReadFile parses a snapshot file.
func ReadFile(path string) ([]models.Video, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Import replays a snapshot into a catalog store. Backends that support
// bulk replacement take the records verbatim — IDs and timestamps
// preserved — so an exported snapshot round-trips to an identical
// catalog. For other stores it falls back to delete-then-create, which
// keeps IDs but reassigns timestamps.
func Import(ctx context.Context, catalog store.Catalog, videos []models.Video) error {
	if r, ok := catalog.(store.Replacer); ok {
		if err := r.ReplaceAll(ctx, videos); err != nil {
			return fmt.Errorf("import snapshot: %w", err)
		}
		return nil
	}

	for _, v := range videos {
		if v.ID != "" {
			if err := catalog.Delete(ctx, v.ID); err != nil {
				return fmt.Errorf("import clear %q: %w", v.ID, err)
			}
		}
		if _, err := catalog.Create(ctx, v); err != nil {
			return fmt.Errorf("import %q: %w", v.ID, err)
		}
	}
	return nil
}
