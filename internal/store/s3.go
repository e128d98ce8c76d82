// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"vidcatalog/internal/models"
)

// S3 is the object-store Catalog backend: the entire catalog lives in a
// single pretty-printed JSON array object, the same file an operator can
// download, edit, and re-publish by hand. Every write is a read-modify-
// write of that object, serialized by a process mutex — the catalog
// operates single-writer.
type S3 struct {
	client *s3.Client
	bucket string
	key    string

	mu sync.Mutex
}

// NewS3 creates an S3 catalog configured for path-style access so it
// works against CEPH/MinIO-style endpoints as well as AWS. Static
// credentials; key defaults to videos.json when empty.
func NewS3(endpoint, region, accessKey, secretKey, bucket, key string) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket cannot be empty")
	}
	if key == "" {
		key = "videos.json"
	}

	endpoint = strings.TrimRight(endpoint, "/")

	opts := s3.Options{
		Region:       region,
		UsePathStyle: true,
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}
	if accessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
	}

	return &S3{
		client: s3.New(opts),
		bucket: bucket,
		key:    key,
	}, nil
}

// load fetches and decodes the catalog object. A missing object is an
// uninitialized dataset and reads as empty.
func (s *S3) load(ctx context.Context) ([]models.Video, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return []models.Video{}, nil
		}
		return nil, fmt.Errorf("%w: s3 get %s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 read %s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}

	videos := make([]models.Video, 0)
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("decode catalog object: %w", err)
	}
	return videos, nil
}

// save encodes and writes the catalog object, pretty-printed so the file
// stays diffable and hand-editable.
func (s *S3) save(ctx context.Context, videos []models.Video) error {
	data, err := json.MarshalIndent(videos, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog object: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 put %s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	return nil
}

// ListAll returns the full catalog.
func (s *S3) ListAll(ctx context.Context) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the record with the given ID.
func (s *S3) Get(ctx context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	videos, err := s.load(ctx)
	if err != nil {
		return models.Video{}, err
	}
	for _, v := range videos {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Video{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
}

// Create stores a new record and rewrites the catalog object. A
// caller-supplied ID that already exists replaces that record in place,
// so the catalog never holds two entries with the same ID. The call
// returns only after the object write succeeded, so a returned success
// is durable.
func (s *S3) Create(ctx context.Context, payload models.Video) (models.Video, error) {
	v, err := prepareCreate(payload, time.Now())
	if err != nil {
		return models.Video{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	videos, err := s.load(ctx)
	if err != nil {
		return models.Video{}, err
	}

	replaced := false
	for i := range videos {
		if videos[i].ID == v.ID {
			videos[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		videos = append(videos, v)
	}

	if err := s.save(ctx, videos); err != nil {
		return models.Video{}, err
	}
	return v, nil
}

// Update merges patch over the stored record and rewrites the object.
func (s *S3) Update(ctx context.Context, id string, patch models.VideoPatch) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	videos, err := s.load(ctx)
	if err != nil {
		return models.Video{}, err
	}

	idx := -1
	for i, v := range videos {
		if v.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Video{}, fmt.Errorf("update %q: %w", id, ErrNotFound)
	}

	merged, err := applyPatch(videos[idx], patch, time.Now())
	if err != nil {
		return models.Video{}, err
	}
	videos[idx] = merged

	if err := s.save(ctx, videos); err != nil {
		return models.Video{}, err
	}
	return merged, nil
}

// Delete removes the record if present. When the ID is already absent the
// object is left untouched and the call still succeeds.
func (s *S3) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	videos, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := videos[:0]
	for _, v := range videos {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(videos) {
		return nil
	}
	return s.save(ctx, kept)
}

// ReplaceAll rewrites the catalog object with the given records
// verbatim. This is the programmatic equivalent of committing an
// exported snapshot to the canonical location.
func (s *S3) ReplaceAll(ctx context.Context, videos []models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, videos)
}

// QueryByCategory filters the catalog by category.
func (s *S3) QueryByCategory(ctx context.Context, category string) ([]models.Video, error) {
	videos, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterCategory(videos, category), nil
}
