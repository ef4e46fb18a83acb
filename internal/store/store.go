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

package store

import (
	"context"
	"errors"
	"time"

	"asset-lifecycle-go/internal/models"
)

// Sentinel errors shared across backend implementations.
var (
	ErrNotFound               = errors.New("record not found")
	ErrStatusNotFound         = errors.New("status not found")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrActiveRepairExists     = errors.New("asset already has an active repair")
)

// AssetFilter narrows ListAssets. Zero fields do not filter.
type AssetFilter struct {
	StatusName      string
	CreatedBefore   *time.Time
	DeleteDueAt     *time.Time // delete_after_at <= DeleteDueAt
	OnlyDepreciable bool
}

// RepairFilter narrows ListRepairs.
type RepairFilter struct {
	AssetId    string
	OnlyOpen   bool // state != returned
	HasDueDate bool // expected_return_date set
}

// MovementCursor is the keyset position of the last entry of a page.
type MovementCursor struct {
	MovedAt time.Time
	Id      string
}

// MovementQuery filters and pages ledger reads. Entries are ordered newest
// first by (moved_at, id).
type MovementQuery struct {
	SubjectType    models.SubjectType
	SubjectId      string
	Kinds          []models.MovementKind
	ActorId        string
	MovedFrom      *time.Time // inclusive
	MovedTo        *time.Time // exclusive
	IncludeDeleted bool
	After          *MovementCursor
	Limit          int
}

// TombstoneParams sets the tamper-evident deletion marker on a ledger entry.
type TombstoneParams struct {
	Id        string
	DeletedAt time.Time
	DeletedBy string
	Reason    string
}

// Reader is the read side shared by the store and its transactions.
type Reader interface {
	// --- Statuses ---
	GetStatusByName(ctx context.Context, name string) (*models.Status, error)
	GetStatusById(ctx context.Context, id string) (*models.Status, error)
	ListStatuses(ctx context.Context) ([]models.Status, error)

	// --- Assets ---
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	ListAssets(ctx context.Context, filter AssetFilter) ([]models.Asset, error)

	// --- Repairs ---
	GetRepair(ctx context.Context, id string) (*models.Repair, error)
	ActiveRepairForAsset(ctx context.Context, assetId string) (*models.Repair, error)
	ListRepairs(ctx context.Context, filter RepairFilter) ([]models.Repair, error)
	ListRemarks(ctx context.Context, repairId string) ([]models.RepairRemark, error)

	// --- Ledger ---
	GetMovement(ctx context.Context, id string) (*models.Movement, error)
	ListMovements(ctx context.Context, query MovementQuery) ([]models.Movement, error)
}

// Tx is a unit of work. Every write made through it commits or rolls back
// together.
type Tx interface {
	Reader

	UpsertStatus(ctx context.Context, name, color string) (*models.Status, error)

	InsertAsset(ctx context.Context, asset *models.Asset) error
	// UpdateAsset writes every mutable column when the stored version still
	// matches asset.Version, then bumps asset.Version.
	UpdateAsset(ctx context.Context, asset *models.Asset) error
	// TransitionAssetStatus moves the asset to toStatusId only while it is in
	// fromStatusId. It reports false when the asset was not in fromStatusId.
	TransitionAssetStatus(ctx context.Context, assetId, fromStatusId, toStatusId string, at time.Time) (bool, error)
	// DeleteAssetIfDue removes the asset only while delete_after_at <= now.
	DeleteAssetIfDue(ctx context.Context, assetId string, now time.Time) (bool, error)
	NextAssetCodeSequence(ctx context.Context, prefix string) (int, error)

	InsertRepair(ctx context.Context, repair *models.Repair) error
	UpdateRepair(ctx context.Context, repair *models.Repair) error
	DeleteRepair(ctx context.Context, id string) error
	InsertRemark(ctx context.Context, remark *models.RepairRemark) error

	InsertMovement(ctx context.Context, movement *models.Movement) error
	// TombstoneMovement reports false when the entry was already tombstoned.
	TombstoneMovement(ctx context.Context, params TombstoneParams) (bool, error)
}

// Store defines the contract every persistence backend must satisfy.
type Store interface {
	Reader

	// InTx runs fn in a transaction, committing when fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Close()
}
