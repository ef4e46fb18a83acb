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

package repair

import (
	"errors"
	"fmt"
	"strings"

	"asset-lifecycle-go/internal/models"
)

// ErrPrecondition matches every workflow rejection via errors.Is.
var ErrPrecondition = errors.New("repair precondition violated")

// PreconditionError explains why a transition or edit was rejected, in words
// a user can act on.
type PreconditionError struct {
	RepairId string
	State    models.RepairState
	Field    string
	Reason   string
}

func (e *PreconditionError) Error() string {
	var b strings.Builder
	if e.RepairId != "" {
		fmt.Fprintf(&b, "repair %s", e.RepairId)
		if e.State != "" {
			fmt.Fprintf(&b, " (%s)", e.State.Label())
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	return b.String()
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// GuardResult is the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Field   string
	Reason  string
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(field, format string, args ...any) GuardResult {
	return GuardResult{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Err converts a denied result to a *PreconditionError for r.
func (g GuardResult) Err(r *models.Repair) error {
	if g.Allowed {
		return nil
	}
	pe := &PreconditionError{Field: g.Field, Reason: g.Reason}
	if r != nil {
		pe.RepairId = r.Id
		pe.State = r.State
	}
	return pe
}

// CanTransition checks that to is the single next state after from.
func CanTransition(from, to models.RepairState) GuardResult {
	if to.Rank() < 0 {
		return deny("state", "unknown repair state %q", to)
	}
	if from.Terminal() {
		return deny("state", "repair is already %s and cannot change state", from.Label())
	}
	if to.Rank() <= from.Rank() {
		return deny("state", "cannot move back from %s to %s", from.Label(), to.Label())
	}
	if to.Rank() != from.Rank()+1 {
		next := nextState(from)
		return deny("state", "cannot skip to %s; move the repair to %s first", to.Label(), next.Label())
	}
	return allow()
}

func nextState(s models.RepairState) models.RepairState {
	for _, candidate := range []models.RepairState{models.RepairPending, models.RepairInRepair, models.RepairCompleted, models.RepairReturned} {
		if candidate.Rank() == s.Rank()+1 {
			return candidate
		}
	}
	return s
}

// CanStart checks the delivery attribution for Pending -> In Repair.
func CanStart(employee, branchId *string) GuardResult {
	hasEmployee := employee != nil && strings.TrimSpace(*employee) != ""
	hasBranch := branchId != nil && strings.TrimSpace(*branchId) != ""
	switch {
	case hasEmployee && hasBranch:
		return deny("delivered_by", "provide either the delivering employee or the delivering branch, not both")
	case !hasEmployee && !hasBranch:
		return deny("delivered_by", "provide the delivering employee or the delivering branch")
	}
	return allow()
}

// fieldStates maps a state-specific field to the state it is unlocked in.
var fieldStates = map[string]models.RepairState{
	"delivered_by_employee":  models.RepairInRepair,
	"delivered_by_branch_id": models.RepairInRepair,
	"job_order_document":     models.RepairInRepair,
	"repair_cost":            models.RepairCompleted,
	"invoice_no":             models.RepairCompleted,
	"completion_description": models.RepairCompleted,
	"actual_return_date":     models.RepairReturned,
}

// CanSetField checks that a state-specific field is not set before the
// repair reaches the state that owns it.
func CanSetField(current models.RepairState, field string) GuardResult {
	owner, ok := fieldStates[field]
	if !ok {
		return allow()
	}
	if current.Rank() < owner.Rank() {
		return deny(field, "%s can only be set once the repair is %s", field, owner.Label())
	}
	return allow()
}
