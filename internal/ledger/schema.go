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
	"errors"
	"fmt"
	"sort"
	"strings"

	"asset-lifecycle-go/internal/models"
)

var (
	ErrUnknownMovementKind = errors.New("unknown movement kind")
	ErrInvalidMetadata     = errors.New("invalid movement metadata")
	ErrInvalidEntry        = errors.New("invalid movement entry")
	ErrAlreadyTombstoned   = errors.New("movement already tombstoned")
)

// Metadata keys shared by writers and readers of the ledger.
const (
	KeyRepairId              = "repair_id"
	KeyState                 = "state"
	KeyRepairCost            = "repair_cost"
	KeyActualReturnDate      = "actual_return_date"
	KeyRemarkKind            = "remark_kind"
	KeyCode                  = "code"
	KeyOperation             = "operation"
	KeyDefectiveAt           = "defective_at"
	KeyDeleteAfterAt         = "delete_after_at"
	KeyPurged                = "purged"
	KeySnapshot              = "snapshot"
	KeyDeliveredByEmployee   = "delivered_by_employee"
	KeyDeliveredByBranch     = "delivered_by_branch_id"
	KeyJobOrderDocument      = "job_order_document"
	KeyInvoiceNo             = "invoice_no"
	KeyCompletionDescription = "completion_description"
	KeyBookValue             = "book_value"
)

// kindSchema describes what an entry of one kind must carry. Keys outside
// Required are accepted so writers can add context without a schema change.
type kindSchema struct {
	Required     []string
	NonEmpty     bool // at least one metadata key
	NeedsSubject bool
	NeedsTo      func(e *Entry) bool
}

var schemas = map[models.MovementKind]kindSchema{
	models.MovementCreated:             {NeedsSubject: true},
	models.MovementAssigned:            {NeedsSubject: true, NeedsTo: func(e *Entry) bool { return e.ToEmployee != nil }},
	models.MovementTransferred:         {NeedsSubject: true, NeedsTo: func(e *Entry) bool { return e.ToBranch != nil }},
	models.MovementReturned:            {NeedsSubject: true, NeedsTo: func(e *Entry) bool { return e.FromEmployee != nil }},
	models.MovementStatusChanged:       {NeedsSubject: true, NeedsTo: func(e *Entry) bool { return e.ToStatus != nil }},
	models.MovementRepairInitiated:     {NeedsSubject: true, Required: []string{KeyRepairId}},
	models.MovementRepairInProgress:    {NeedsSubject: true, Required: []string{KeyRepairId, KeyState}},
	models.MovementRepairCompleted:     {NeedsSubject: true, Required: []string{KeyRepairId, KeyState, KeyRepairCost}},
	models.MovementRepairReturned:      {NeedsSubject: true, Required: []string{KeyRepairId, KeyState, KeyActualReturnDate}},
	models.MovementRepairStatusChanged: {NeedsSubject: true, Required: []string{KeyRepairId, KeyState}},
	models.MovementRepairUpdated:       {NeedsSubject: true, Required: []string{KeyRepairId}, NonEmpty: true},
	models.MovementRepairRemarkAdded:   {NeedsSubject: true, Required: []string{KeyRepairId, KeyRemarkKind}},
	models.MovementRepairDeleted:       {NeedsSubject: true, Required: []string{KeyRepairId, KeySnapshot}},
	models.MovementUpdated:             {NeedsSubject: true, NonEmpty: true},
	models.MovementDisposed:            {NeedsSubject: true},
	models.MovementCodeGenerated:       {NeedsSubject: true, Required: []string{KeyCode}},
	models.MovementInventoryOperation:  {Required: []string{KeyOperation}},
}

// Known reports whether kind belongs to the closed movement set.
func Known(kind models.MovementKind) bool {
	_, ok := schemas[kind]
	return ok
}

// Kinds returns the closed movement set in a stable order.
func Kinds() []models.MovementKind {
	kinds := make([]models.MovementKind, 0, len(schemas))
	for kind := range schemas {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Validate checks an entry against its kind's schema without writing.
func Validate(e *Entry) error {
	schema, ok := schemas[e.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMovementKind, e.Kind)
	}

	if !e.SubjectType.Valid() {
		return fmt.Errorf("%w: subject type %q", ErrInvalidEntry, e.SubjectType)
	}
	if schema.NeedsSubject && e.SubjectId == "" {
		return fmt.Errorf("%w: %s requires a subject id", ErrInvalidEntry, e.Kind)
	}
	if schema.NeedsTo != nil && !schema.NeedsTo(e) {
		return fmt.Errorf("%w: %s is missing its from/to values", ErrInvalidEntry, e.Kind)
	}

	var missing []string
	for _, key := range schema.Required {
		if change, ok := e.Metadata[key]; !ok || change.Empty() {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidMetadata, e.Kind, strings.Join(missing, ", "))
	}

	if schema.NonEmpty && len(e.Metadata) <= len(schema.Required) {
		return fmt.Errorf("%w: %s must record at least one changed field", ErrInvalidMetadata, e.Kind)
	}
	return nil
}
