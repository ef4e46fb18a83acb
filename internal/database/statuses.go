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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(row rowScanner) (*models.Status, error) {
	var status models.Status
	var createdAt string
	if err := row.Scan(&status.Id, &status.Name, &status.Color, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	status.CreatedAt = t
	return &status, nil
}

func (r *reader) GetStatusByName(ctx context.Context, name string) (*models.Status, error) {
	status, err := scanStatus(r.q.QueryRowContext(ctx, queryGetStatusByName, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", store.ErrStatusNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status %q: %w", name, err)
	}
	return status, nil
}

func (r *reader) GetStatusById(ctx context.Context, id string) (*models.Status, error) {
	status, err := scanStatus(r.q.QueryRowContext(ctx, queryGetStatusById, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %s", store.ErrStatusNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status %s: %w", id, err)
	}
	return status, nil
}

func (r *reader) ListStatuses(ctx context.Context) ([]models.Status, error) {
	rows, err := r.q.QueryContext(ctx, queryListStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer closeRows(rows)

	var statuses []models.Status
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, *status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status rows: %w", err)
	}
	return statuses, nil
}

// UpsertStatus creates the named status or updates its color.
func (t *txConn) UpsertStatus(ctx context.Context, name, color string) (*models.Status, error) {
	_, err := t.q.ExecContext(ctx, queryUpsertStatus, uuid.New().String(), name, color, formatTime(nowUTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert status %q: %w", name, err)
	}

	status, err := t.GetStatusByName(ctx, name)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Status upserted", zap.String("name", name), zap.String("id", status.Id))
	return status, nil
}
