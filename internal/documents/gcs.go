/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSStore keeps documents in a Google Cloud Storage bucket.
type GCSStore struct {
	client   *storage.Client
	bucket   string
	maxBytes int64
}

// NewGCSStore uses credentialsJSON when set and application default
// credentials otherwise.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string, maxBytes int64) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required for the gcs document backend")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucket, err)
	}

	return &GCSStore{client: client, bucket: bucket, maxBytes: maxBytes}, nil
}

func (s *GCSStore) Save(ctx context.Context, upload Upload) (string, error) {
	p, err := prepare(upload, s.maxBytes)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(p.name).NewWriter(ctx)
	w.ContentType = p.contentType
	if _, err := io.Copy(w, p.reader()); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize document upload: %w", err)
	}

	zap.L().Info("Document uploaded",
		zap.String("bucket", s.bucket),
		zap.String("reference", p.name),
		zap.String("content_type", p.contentType))
	return p.name, nil
}

func (s *GCSStore) Open(ctx context.Context, reference string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(reference).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return r, nil
}

func (s *GCSStore) Delete(ctx context.Context, reference string) error {
	err := s.client.Bucket(s.bucket).Object(reference).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	zap.L().Info("Document deleted", zap.String("bucket", s.bucket), zap.String("reference", reference))
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
