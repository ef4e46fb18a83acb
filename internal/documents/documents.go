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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"asset-lifecycle-go/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const DefaultMaxBytes int64 = 5 * 1024 * 1024

var (
	ErrTooLarge        = errors.New("document exceeds size limit")
	ErrUnsupportedType = errors.New("document type not allowed")
	ErrEmpty           = errors.New("document is empty")
	ErrNotFound        = errors.New("document not found")
)

// allowedTypes are the job-order formats: scanned images and PDFs.
var allowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

// Upload is a file handed in with a repair transition.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Store keeps job-order documents and hands back an opaque reference.
type Store interface {
	Save(ctx context.Context, upload Upload) (string, error)
	Open(ctx context.Context, reference string) (io.ReadCloser, error)
	// Delete removes a stored document. A missing document is not an error.
	Delete(ctx context.Context, reference string) error
}

// prepared is an upload that passed the size and type checks.
type prepared struct {
	name        string
	contentType string
	data        []byte
}

// prepare reads at most maxBytes, sniffs the content and names the object.
// The client-supplied filename is never trusted for the type.
func prepare(upload Upload, maxBytes int64) (*prepared, error) {
	if upload.Content == nil {
		return nil, ErrEmpty
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	return &prepared{
		name:        path.Join("job-orders", uuid.New().String()+mtype.Extension()),
		contentType: mtype.String(),
		data:        data,
	}, nil
}

func (p *prepared) reader() io.Reader {
	return bytes.NewReader(p.data)
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg models.DocumentConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.Dir, cfg.MaxBytes)
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsJSON, cfg.MaxBytes)
	default:
		return nil, fmt.Errorf("unknown document backend %q", cfg.Backend)
	}
}
