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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps documents under a directory on disk.
type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("document directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document directory: %w", err)
	}
	return &LocalStore{dir: abs, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Save(ctx context.Context, upload Upload) (string, error) {
	p, err := prepare(upload, s.maxBytes)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(p.name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := os.WriteFile(target, p.data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}

	zap.L().Info("Document stored",
		zap.String("reference", p.name),
		zap.String("content_type", p.contentType),
		zap.Int("bytes", len(p.data)))
	return p.name, nil
}

// resolve maps a reference to a path inside the document directory.
func (s *LocalStore) resolve(reference string) (string, bool) {
	target := filepath.Join(s.dir, filepath.FromSlash(reference))
	return target, strings.HasPrefix(target, s.dir+string(filepath.Separator))
}

func (s *LocalStore) Open(_ context.Context, reference string) (io.ReadCloser, error) {
	target, ok := s.resolve(reference)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, reference string) error {
	target, ok := s.resolve(reference)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	zap.L().Info("Document deleted", zap.String("reference", reference))
	return nil
}
