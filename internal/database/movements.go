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

	"go.uber.org/zap"
)

func scanMovement(row rowScanner) (*models.Movement, error) {
	var m models.Movement
	var subjectType, kind, metadata, movedAt, createdAt string
	var subjectId sql.NullString
	var fromEmployee, toEmployee, fromStatus, toStatus, fromBranch, toBranch sql.NullString
	var deletedAt, deletedBy, deleteReason sql.NullString

	err := row.Scan(&m.Id, &subjectType, &subjectId, &kind,
		&fromEmployee, &toEmployee, &fromStatus, &toStatus, &fromBranch, &toBranch,
		&m.ActorId, &m.Reason, &m.Remarks, &metadata, &movedAt, &createdAt,
		&m.IpAddress, &m.UserAgent, &deletedAt, &deletedBy, &deleteReason)
	if err != nil {
		return nil, err
	}

	m.SubjectType = models.SubjectType(subjectType)
	m.SubjectId = stringPtr(subjectId)
	m.Kind = models.MovementKind(kind)
	m.FromEmployee = stringPtr(fromEmployee)
	m.ToEmployee = stringPtr(toEmployee)
	m.FromStatus = stringPtr(fromStatus)
	m.ToStatus = stringPtr(toStatus)
	m.FromBranch = stringPtr(fromBranch)
	m.ToBranch = stringPtr(toBranch)
	m.DeletedBy = stringPtr(deletedBy)
	m.DeleteReason = stringPtr(deleteReason)

	if m.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, err
	}
	if m.MovedAt, err = parseTime(movedAt); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.DeletedAt, err = parseNullTime(deletedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *reader) GetMovement(ctx context.Context, id string) (*models.Movement, error) {
	movement, err := scanMovement(r.q.QueryRowContext(ctx, queryGetMovement, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: movement %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movement %s: %w", id, err)
	}
	return movement, nil
}

// ListMovements returns entries newest first, resuming strictly after
// query.After when set.
func (r *reader) ListMovements(ctx context.Context, query store.MovementQuery) ([]models.Movement, error) {
	var where []string
	var args []any

	if !query.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if query.SubjectType != "" {
		where = append(where, "subject_type = ?")
		args = append(args, string(query.SubjectType))
	}
	if query.SubjectId != "" {
		where = append(where, "subject_id = ?")
		args = append(args, query.SubjectId)
	}
	if len(query.Kinds) > 0 {
		placeholders := make([]string, len(query.Kinds))
		for i, kind := range query.Kinds {
			placeholders[i] = "?"
			args = append(args, string(kind))
		}
		where = append(where, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}
	if query.ActorId != "" {
		where = append(where, "actor_id = ?")
		args = append(args, query.ActorId)
	}
	if query.MovedFrom != nil {
		where = append(where, "moved_at >= ?")
		args = append(args, formatTime(*query.MovedFrom))
	}
	if query.MovedTo != nil {
		where = append(where, "moved_at < ?")
		args = append(args, formatTime(*query.MovedTo))
	}
	if query.After != nil {
		movedAt := formatTime(query.After.MovedAt)
		where = append(where, "(moved_at < ? OR (moved_at = ? AND id < ?))")
		args = append(args, movedAt, movedAt, query.After.Id)
	}

	sqlQuery := querySelectMovements
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}
	sqlQuery += " ORDER BY moved_at DESC, id DESC"
	if query.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := r.q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer closeRows(rows)

	var movements []models.Movement
	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, *movement)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during movement row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating movement rows: %w", err)
	}
	return movements, nil
}

// InsertMovement appends one ledger entry. Ledger rows are never updated
// except through TombstoneMovement.
func (t *txConn) InsertMovement(ctx context.Context, m *models.Movement) error {
	metadata, err := encodeMetadata(m.Metadata)
	if err != nil {
		return err
	}

	_, err = t.q.ExecContext(ctx, queryInsertMovement,
		m.Id, string(m.SubjectType), nullString(m.SubjectId), string(m.Kind),
		nullString(m.FromEmployee), nullString(m.ToEmployee),
		nullString(m.FromStatus), nullString(m.ToStatus),
		nullString(m.FromBranch), nullString(m.ToBranch),
		m.ActorId, m.Reason, m.Remarks, metadata,
		formatTime(m.MovedAt), formatTime(m.CreatedAt),
		m.IpAddress, m.UserAgent,
		nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to insert movement %s: %w", m.Kind, err)
	}
	return nil
}

func (t *txConn) TombstoneMovement(ctx context.Context, p store.TombstoneParams) (bool, error) {
	result, err := t.q.ExecContext(ctx, queryTombstoneMovement,
		formatTime(p.DeletedAt), p.DeletedBy, p.Reason, p.Id)
	if err != nil {
		return false, fmt.Errorf("failed to tombstone movement %s: %w", p.Id, err)
	}
	return checkAffected(result)
}
