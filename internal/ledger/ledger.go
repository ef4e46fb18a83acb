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

package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Entry is what a lifecycle operation asks the ledger to record. Provenance
// and timestamps are stamped by Record.
type Entry struct {
	SubjectType  models.SubjectType
	SubjectId    string
	Kind         models.MovementKind
	FromEmployee *string
	ToEmployee   *string
	FromStatus   *string
	ToStatus     *string
	FromBranch   *string
	ToBranch     *string
	Reason       string
	Remarks      string
	Metadata     models.Metadata
	MovedAt      time.Time // zero means now
}

// Filter selects ledger entries for List.
type Filter struct {
	SubjectType    models.SubjectType
	SubjectId      string
	Kinds          []models.MovementKind
	ActorId        string
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
	Cursor         string
	Limit          int
}

// Page is one slice of ledger history. NextCursor is empty on the last page.
type Page struct {
	Entries    []models.Movement
	NextCursor string
}

// Ledger is the append-only movement trail.
type Ledger struct {
	store store.Store
	clock clock.Clock
}

func New(s store.Store, c clock.Clock) *Ledger {
	return &Ledger{store: s, clock: c}
}

// Record validates e and inserts it through tx, so the entry commits or
// rolls back with the caller's state change.
func (l *Ledger) Record(ctx context.Context, tx store.Tx, e Entry) (*models.Movement, error) {
	if err := Validate(&e); err != nil {
		return nil, err
	}

	provenance := models.GetProvenance(ctx)
	now := l.clock.Now()
	movedAt := e.MovedAt
	if movedAt.IsZero() {
		movedAt = now
	}
	metadata := e.Metadata
	if metadata == nil {
		metadata = models.Metadata{}
	}

	movement := &models.Movement{
		Id:           uuid.New().String(),
		SubjectType:  e.SubjectType,
		Kind:         e.Kind,
		FromEmployee: e.FromEmployee,
		ToEmployee:   e.ToEmployee,
		FromStatus:   e.FromStatus,
		ToStatus:     e.ToStatus,
		FromBranch:   e.FromBranch,
		ToBranch:     e.ToBranch,
		ActorId:      provenance.ActorId,
		Reason:       e.Reason,
		Remarks:      e.Remarks,
		Metadata:     metadata,
		MovedAt:      movedAt,
		CreatedAt:    now,
		IpAddress:    provenance.IpAddress,
		UserAgent:    provenance.UserAgent,
	}
	if e.SubjectId != "" {
		subjectId := e.SubjectId
		movement.SubjectId = &subjectId
	}

	if err := tx.InsertMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record %s movement: %w", e.Kind, err)
	}

	zap.L().Debug("Movement recorded",
		zap.String("movement_id", movement.Id),
		zap.String("kind", string(movement.Kind)),
		zap.String("subject_id", e.SubjectId),
		zap.String("actor_id", movement.ActorId))

	return movement, nil
}

// List returns one page of entries, newest first.
func (l *Ledger) List(ctx context.Context, f Filter) (*Page, error) {
	for _, kind := range f.Kinds {
		if !Known(kind) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMovementKind, kind)
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	query := store.MovementQuery{
		SubjectType:    f.SubjectType,
		SubjectId:      f.SubjectId,
		Kinds:          f.Kinds,
		ActorId:        f.ActorId,
		MovedFrom:      f.From,
		MovedTo:        f.To,
		IncludeDeleted: f.IncludeDeleted,
		Limit:          limit + 1,
	}
	if f.Cursor != "" {
		after, err := DecodeCursor(f.Cursor)
		if err != nil {
			return nil, err
		}
		query.After = after
	}

	entries, err := l.store.ListMovements(ctx, query)
	if err != nil {
		return nil, err
	}

	page := &Page{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = EncodeCursor(store.MovementCursor{MovedAt: last.MovedAt, Id: last.Id})
	}
	return page, nil
}

// Tombstone marks an entry deleted for compliance. The payload is kept and
// the entry drops out of default reads.
func (l *Ledger) Tombstone(ctx context.Context, id, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: tombstone reason is required", ErrInvalidEntry)
	}

	provenance := models.GetProvenance(ctx)
	return l.store.InTx(ctx, func(tx store.Tx) error {
		movement, err := tx.GetMovement(ctx, id)
		if err != nil {
			return err
		}
		if movement.Tombstoned() {
			return fmt.Errorf("%w: %s", ErrAlreadyTombstoned, id)
		}

		applied, err := tx.TombstoneMovement(ctx, store.TombstoneParams{
			Id:        id,
			DeletedAt: l.clock.Now(),
			DeletedBy: provenance.ActorId,
			Reason:    reason,
		})
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("%w: %s", ErrAlreadyTombstoned, id)
		}

		zap.L().Info("Movement tombstoned",
			zap.String("movement_id", id),
			zap.String("deleted_by", provenance.ActorId))
		return nil
	})
}

var errBadCursor = errors.New("malformed cursor")

// EncodeCursor renders a keyset position as an opaque token.
func EncodeCursor(c store.MovementCursor) string {
	raw := c.MovedAt.UTC().Format(time.RFC3339Nano) + "|" + c.Id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (*store.MovementCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadCursor, err)
	}
	movedAt, id, found := strings.Cut(string(raw), "|")
	if !found || id == "" {
		return nil, errBadCursor
	}
	t, err := time.Parse(time.RFC3339Nano, movedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadCursor, err)
	}
	return &store.MovementCursor{MovedAt: t, Id: id}, nil
}
