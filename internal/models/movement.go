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

package models

import "time"

// MovementKind names the lifecycle event a ledger entry records.
type MovementKind string

const (
	MovementCreated             MovementKind = "created"
	MovementAssigned            MovementKind = "assigned"
	MovementTransferred         MovementKind = "transferred"
	MovementReturned            MovementKind = "returned"
	MovementStatusChanged       MovementKind = "status_changed"
	MovementRepairInitiated     MovementKind = "repair_initiated"
	MovementRepairInProgress    MovementKind = "repair_in_progress"
	MovementRepairCompleted     MovementKind = "repair_completed"
	MovementRepairReturned      MovementKind = "repair_returned"
	MovementRepairStatusChanged MovementKind = "repair_status_changed"
	MovementRepairUpdated       MovementKind = "repair_updated"
	MovementRepairRemarkAdded   MovementKind = "repair_remark_added"
	MovementRepairDeleted       MovementKind = "repair_deleted"
	MovementUpdated             MovementKind = "updated"
	MovementDisposed            MovementKind = "disposed"
	MovementCodeGenerated       MovementKind = "code_generated"
	MovementInventoryOperation  MovementKind = "inventory_operation"
)

// SubjectType identifies what a ledger entry is about.
type SubjectType string

const (
	SubjectAsset     SubjectType = "asset"
	SubjectComponent SubjectType = "component"
	SubjectInventory SubjectType = "inventory"
)

// Valid reports whether t is a known subject type.
func (t SubjectType) Valid() bool {
	switch t {
	case SubjectAsset, SubjectComponent, SubjectInventory:
		return true
	}
	return false
}

// Change is an old/new value pair recorded in ledger metadata.
type Change struct {
	Old *string `json:"old,omitempty"`
	New *string `json:"new,omitempty"`
}

// Empty reports whether neither side carries a value.
func (c Change) Empty() bool { return c.Old == nil && c.New == nil }

// Metadata maps a field name to its old/new values.
type Metadata map[string]Change

// Set records old and new for key. Empty strings are stored as absent.
func (m Metadata) Set(key, oldValue, newValue string) {
	m[key] = Change{Old: optional(oldValue), New: optional(newValue)}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Movement is one immutable ledger entry
type Movement struct {
	Id           string       `db:"id"`
	SubjectType  SubjectType  `db:"subject_type"`
	SubjectId    *string      `db:"subject_id"`
	Kind         MovementKind `db:"kind"`
	FromEmployee *string      `db:"from_employee"`
	ToEmployee   *string      `db:"to_employee"`
	FromStatus   *string      `db:"from_status"`
	ToStatus     *string      `db:"to_status"`
	FromBranch   *string      `db:"from_branch"`
	ToBranch     *string      `db:"to_branch"`
	ActorId      string       `db:"actor_id"`
	Reason       string       `db:"reason"`
	Remarks      string       `db:"remarks"`
	Metadata     Metadata     `db:"metadata"`
	MovedAt      time.Time    `db:"moved_at"`
	CreatedAt    time.Time    `db:"created_at"`
	IpAddress    string       `db:"ip_address"`
	UserAgent    string       `db:"user_agent"`
	DeletedAt    *time.Time   `db:"deleted_at"`
	DeletedBy    *string      `db:"deleted_by"`
	DeleteReason *string      `db:"delete_reason"`
}

// Tombstoned reports whether the entry has been marked deleted.
func (m *Movement) Tombstoned() bool { return m.DeletedAt != nil }
