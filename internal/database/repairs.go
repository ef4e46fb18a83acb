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

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/mattn/go-sqlite3"
)

func scanRepair(row rowScanner) (*models.Repair, error) {
	var r models.Repair
	var repairDate, createdAt, updatedAt string
	var expectedReturn, actualReturn sql.NullString
	var deliveredByEmployee, deliveredByBranch, document, invoiceNo, completion, previousStatus sql.NullString
	var state string

	err := row.Scan(&r.Id, &r.AssetId, &r.VendorId, &r.Description, &repairDate,
		&expectedReturn, &actualReturn, &r.RepairCost, &state,
		&deliveredByEmployee, &deliveredByBranch, &document,
		&invoiceNo, &completion, &previousStatus,
		&r.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	r.State = models.RepairState(state)
	r.DeliveredByEmployee = stringPtr(deliveredByEmployee)
	r.DeliveredByBranchId = stringPtr(deliveredByBranch)
	r.JobOrderDocument = stringPtr(document)
	r.InvoiceNo = stringPtr(invoiceNo)
	r.CompletionDescription = stringPtr(completion)
	r.PreviousStatusId = stringPtr(previousStatus)

	if r.RepairDate, err = parseTime(repairDate); err != nil {
		return nil, err
	}
	if r.ExpectedReturnDate, err = parseNullTime(expectedReturn); err != nil {
		return nil, err
	}
	if r.ActualReturnDate, err = parseNullTime(actualReturn); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *reader) GetRepair(ctx context.Context, id string) (*models.Repair, error) {
	repair, err := scanRepair(r.q.QueryRowContext(ctx, queryGetRepair, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: repair %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repair %s: %w", id, err)
	}
	return repair, nil
}

// ActiveRepairForAsset returns the asset's non-returned repair, or
// store.ErrNotFound when there is none.
func (r *reader) ActiveRepairForAsset(ctx context.Context, assetId string) (*models.Repair, error) {
	repair, err := scanRepair(r.q.QueryRowContext(ctx, queryActiveRepairForAsset, assetId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no active repair for asset %s", store.ErrNotFound, assetId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active repair for asset %s: %w", assetId, err)
	}
	return repair, nil
}

func (r *reader) ListRepairs(ctx context.Context, filter store.RepairFilter) ([]models.Repair, error) {
	var where []string
	var args []any

	if filter.AssetId != "" {
		where = append(where, "asset_id = ?")
		args = append(args, filter.AssetId)
	}
	if filter.OnlyOpen {
		where = append(where, "state <> 'returned'")
	}
	if filter.HasDueDate {
		where = append(where, "expected_return_date IS NOT NULL")
	}

	query := querySelectRepairs
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY expected_return_date, created_at, id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query repairs: %w", err)
	}
	defer closeRows(rows)

	var repairs []models.Repair
	for rows.Next() {
		repair, err := scanRepair(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repair: %w", err)
		}
		repairs = append(repairs, *repair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repair rows: %w", err)
	}
	return repairs, nil
}

func (r *reader) ListRemarks(ctx context.Context, repairId string) ([]models.RepairRemark, error) {
	rows, err := r.q.QueryContext(ctx, queryListRemarks, repairId)
	if err != nil {
		return nil, fmt.Errorf("failed to query remarks: %w", err)
	}
	defer closeRows(rows)

	var remarks []models.RepairRemark
	for rows.Next() {
		var remark models.RepairRemark
		var kind, createdAt string
		if err := rows.Scan(&remark.Id, &remark.RepairId, &kind, &remark.Body, &remark.ActorId, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan remark: %w", err)
		}
		remark.Kind = models.RemarkKind(kind)
		if remark.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		remarks = append(remarks, remark)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating remark rows: %w", err)
	}
	return remarks, nil
}

func repairArgs(r *models.Repair) []any {
	return []any{
		r.VendorId, r.Description, formatTime(r.RepairDate),
		nullTime(r.ExpectedReturnDate), nullTime(r.ActualReturnDate), r.RepairCost, string(r.State),
		nullString(r.DeliveredByEmployee), nullString(r.DeliveredByBranchId), nullString(r.JobOrderDocument),
		nullString(r.InvoiceNo), nullString(r.CompletionDescription), nullString(r.PreviousStatusId),
	}
}

func (t *txConn) InsertRepair(ctx context.Context, r *models.Repair) error {
	if r.Version == 0 {
		r.Version = 1
	}
	args := append([]any{r.Id, r.AssetId}, repairArgs(r)...)
	args = append(args, r.Version, formatTime(r.CreatedAt), formatTime(r.UpdatedAt))

	if _, err := t.q.ExecContext(ctx, queryInsertRepair, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("asset %s: %w", r.AssetId, store.ErrActiveRepairExists)
		}
		return fmt.Errorf("failed to insert repair %s: %w", r.Id, err)
	}
	return nil
}

func (t *txConn) UpdateRepair(ctx context.Context, r *models.Repair) error {
	args := append(repairArgs(r), formatTime(r.UpdatedAt), r.Id, r.Version)

	result, err := t.q.ExecContext(ctx, queryUpdateRepair, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("asset %s: %w", r.AssetId, store.ErrActiveRepairExists)
		}
		return fmt.Errorf("failed to update repair %s: %w", r.Id, err)
	}

	updated, err := checkAffected(result)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("repair %s update failed - %w", r.Id, store.ErrConcurrentModification)
	}

	r.Version++
	return nil
}

func (t *txConn) DeleteRepair(ctx context.Context, id string) error {
	result, err := t.q.ExecContext(ctx, queryDeleteRepair, id)
	if err != nil {
		return fmt.Errorf("failed to delete repair %s: %w", id, err)
	}
	deleted, err := checkAffected(result)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: repair %s", store.ErrNotFound, id)
	}
	return nil
}

func (t *txConn) InsertRemark(ctx context.Context, remark *models.RepairRemark) error {
	_, err := t.q.ExecContext(ctx, queryInsertRemark,
		remark.Id, remark.RepairId, string(remark.Kind), remark.Body, remark.ActorId, formatTime(remark.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert remark for repair %s: %w", remark.RepairId, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
