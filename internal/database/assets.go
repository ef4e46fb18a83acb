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
	"strings"
	"time"

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

func scanAsset(row rowScanner) (*models.Asset, error) {
	var a models.Asset
	var code sql.NullString
	var purchaseDate, defectiveAt, deleteAfterAt sql.NullString
	var usefulLife sql.NullInt64
	var employeeId, branchId sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&a.Id, &code, &a.Name, &a.SerialNumber, &a.Description,
		&a.AcquisitionCost, &purchaseDate, &usefulLife, &a.BookValue,
		&a.StatusId, &a.StatusName, &employeeId, &branchId,
		&defectiveAt, &deleteAfterAt, &a.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.Code = code.String
	a.UsefulLifeYears = intPtr(usefulLife)
	a.EmployeeId = stringPtr(employeeId)
	a.BranchId = stringPtr(branchId)

	if a.PurchaseDate, err = parseNullTime(purchaseDate); err != nil {
		return nil, err
	}
	if a.DefectiveAt, err = parseNullTime(defectiveAt); err != nil {
		return nil, err
	}
	if a.DeleteAfterAt, err = parseNullTime(deleteAfterAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *reader) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	asset, err := scanAsset(r.q.QueryRowContext(ctx, queryGetAsset, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: asset %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	return asset, nil
}

func (r *reader) ListAssets(ctx context.Context, filter store.AssetFilter) ([]models.Asset, error) {
	var where []string
	var args []any

	if filter.StatusName != "" {
		where = append(where, "s.name = ?")
		args = append(args, filter.StatusName)
	}
	if filter.CreatedBefore != nil {
		where = append(where, "a.created_at <= ?")
		args = append(args, formatTime(*filter.CreatedBefore))
	}
	if filter.DeleteDueAt != nil {
		where = append(where, "a.delete_after_at IS NOT NULL AND a.delete_after_at <= ?")
		args = append(args, formatTime(*filter.DeleteDueAt))
	}
	if filter.OnlyDepreciable {
		where = append(where, "a.acquisition_cost IS NOT NULL AND a.purchase_date IS NOT NULL AND a.useful_life_years > 0")
	}

	query := querySelectAssets
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.created_at, a.id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer closeRows(rows)

	var assets []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during asset row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}
	return assets, nil
}

func (t *txConn) InsertAsset(ctx context.Context, a *models.Asset) error {
	if a.Version == 0 {
		a.Version = 1
	}
	_, err := t.q.ExecContext(ctx, queryInsertAsset,
		a.Id, nullIfEmpty(a.Code), a.Name, a.SerialNumber, a.Description,
		a.AcquisitionCost, nullTime(a.PurchaseDate), nullInt(a.UsefulLifeYears), a.BookValue,
		a.StatusId, nullString(a.EmployeeId), nullString(a.BranchId),
		nullTime(a.DefectiveAt), nullTime(a.DeleteAfterAt), a.Version,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert asset %s: %w", a.Id, err)
	}
	return nil
}

func (t *txConn) UpdateAsset(ctx context.Context, a *models.Asset) error {
	result, err := t.q.ExecContext(ctx, queryUpdateAsset,
		nullIfEmpty(a.Code), a.Name, a.SerialNumber, a.Description,
		a.AcquisitionCost, nullTime(a.PurchaseDate), nullInt(a.UsefulLifeYears), a.BookValue,
		a.StatusId, nullString(a.EmployeeId), nullString(a.BranchId),
		nullTime(a.DefectiveAt), nullTime(a.DeleteAfterAt),
		formatTime(a.UpdatedAt), a.Id, a.Version)
	if err != nil {
		return fmt.Errorf("failed to update asset %s: %w", a.Id, err)
	}

	updated, err := checkAffected(result)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("asset %s update failed - %w", a.Id, store.ErrConcurrentModification)
	}

	a.Version++
	return nil
}

func (t *txConn) TransitionAssetStatus(ctx context.Context, assetId, fromStatusId, toStatusId string, at time.Time) (bool, error) {
	result, err := t.q.ExecContext(ctx, queryTransitionAssetStatus, toStatusId, formatTime(at), assetId, fromStatusId)
	if err != nil {
		return false, fmt.Errorf("failed to transition asset %s: %w", assetId, err)
	}
	return checkAffected(result)
}

func (t *txConn) DeleteAssetIfDue(ctx context.Context, assetId string, now time.Time) (bool, error) {
	result, err := t.q.ExecContext(ctx, queryDeleteAssetIfDue, assetId, formatTime(now))
	if err != nil {
		return false, fmt.Errorf("failed to delete asset %s: %w", assetId, err)
	}
	return checkAffected(result)
}

// NextAssetCodeSequence returns the next value of the per-prefix counter.
func (t *txConn) NextAssetCodeSequence(ctx context.Context, prefix string) (int, error) {
	var next int
	if err := t.q.QueryRowContext(ctx, queryNextAssetCodeSequence, prefix).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to advance code sequence %q: %w", prefix, err)
	}
	return next, nil
}
