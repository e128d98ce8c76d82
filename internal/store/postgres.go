// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vidcatalog/internal/models"
)

// Postgres is the document-table Catalog backend on PostgreSQL. Typed
// fields get real columns; the opaque payload is a JSONB column.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres catalog over an open connection pool.
// The schema is managed by the migrations in internal/database.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const videoColumns = "id, category, status, attrs, created_at, updated_at"

// scanVideo reads one row into a Video, decoding the attrs JSONB column.
func scanVideo(row interface{ Scan(...any) error }) (models.Video, error) {
	var v models.Video
	var attrs []byte
	if err := row.Scan(&v.ID, &v.Category, &v.Status, &attrs, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return models.Video{}, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &v.Attrs); err != nil {
			return models.Video{}, fmt.Errorf("decode attrs for %q: %w", v.ID, err)
		}
	}
	if v.Attrs == nil {
		v.Attrs = make(map[string]any)
	}
	return v, nil
}

// ListAll returns every record, ordered by creation time then ID.
func (p *Postgres) ListAll(ctx context.Context) ([]models.Video, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	out := make([]models.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get retrieves a single record by ID.
func (p *Postgres) Get(ctx context.Context, id string) (models.Video, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+videoColumns+` FROM videos WHERE id = $1
	`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// Create inserts a new record. A caller-supplied ID that already exists
// replaces that row, matching the put semantics of the other backends.
func (p *Postgres) Create(ctx context.Context, payload models.Video) (models.Video, error) {
	v, err := prepareCreate(payload, time.Now())
	if err != nil {
		return models.Video{}, err
	}

	attrs, err := json.Marshal(v.Attrs)
	if err != nil {
		return models.Video{}, fmt.Errorf("encode attrs: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO videos (id, category, status, attrs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			attrs = EXCLUDED.attrs,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`, v.ID, v.Category, v.Status, attrs, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return models.Video{}, fmt.Errorf("create video: %w", err)
	}
	return v, nil
}

// Update merges patch over the stored record inside a transaction with a
// row lock, giving the per-record read-modify-write atomicity the rest of
// the system relies on.
func (p *Postgres) Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Video{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+videoColumns+` FROM videos WHERE id = $1 FOR UPDATE
	`, id)
	existing, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, fmt.Errorf("update %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("load video for update: %w", err)
	}

	merged, err := applyPatch(existing, patch, time.Now())
	if err != nil {
		return models.Video{}, err
	}

	attrs, err := json.Marshal(merged.Attrs)
	if err != nil {
		return models.Video{}, fmt.Errorf("encode attrs: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE videos SET category = $1, status = $2, attrs = $3, updated_at = $4
		WHERE id = $5
	`, merged.Category, merged.Status, attrs, merged.UpdatedAt, id)
	if err != nil {
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Video{}, fmt.Errorf("commit update: %w", err)
	}
	return merged, nil
}

// Delete removes a record. Deleting an absent ID is a no-op success.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole table contents in one transaction, records
// taken verbatim including timestamps.
func (p *Postgres) ReplaceAll(ctx context.Context, videos []models.Video) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM videos`); err != nil {
		return fmt.Errorf("clear videos: %w", err)
	}

	for _, v := range videos {
		attrs, err := json.Marshal(v.Attrs)
		if err != nil {
			return fmt.Errorf("encode attrs for %q: %w", v.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO videos (id, category, status, attrs, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, v.ID, v.Category, v.Status, attrs, v.CreatedAt, v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert video %q: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// QueryByCategory returns all records in a category.
func (p *Postgres) QueryByCategory(ctx context.Context, category string) ([]models.Video, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE category = $1
		ORDER BY created_at, id
	`, category)
	if err != nil {
		return nil, fmt.Errorf("query videos by category: %w", err)
	}
	defer rows.Close()

	out := make([]models.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
