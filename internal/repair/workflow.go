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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/documents"
	"asset-lifecycle-go/internal/ledger"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultDueSoonWindow is how far ahead a due date counts as "due soon".
const DefaultDueSoonWindow = 4 * 24 * time.Hour

// Config holds the collaborators of a Workflow.
type Config struct {
	Store         store.Store
	Ledger        *ledger.Ledger
	Clock         clock.Clock
	Documents     documents.Store // optional; uploads are refused without one
	DueSoonWindow time.Duration
}

// Workflow drives repairs through Pending -> In Repair -> Completed ->
// Returned. Every change is written together with its ledger entries.
type Workflow struct {
	store         store.Store
	ledger        *ledger.Ledger
	clock         clock.Clock
	documents     documents.Store
	dueSoonWindow time.Duration
	validate      *validator.Validate
}

func NewWorkflow(cfg Config) *Workflow {
	c := cfg.Clock
	if c == nil {
		c = clock.System()
	}
	l := cfg.Ledger
	if l == nil {
		l = ledger.New(cfg.Store, c)
	}
	window := cfg.DueSoonWindow
	if window <= 0 {
		window = DefaultDueSoonWindow
	}
	return &Workflow{
		store:         cfg.Store,
		ledger:        l,
		clock:         c,
		documents:     cfg.Documents,
		dueSoonWindow: window,
		validate:      validator.New(),
	}
}

// OpenInput describes a repair being sent out.
type OpenInput struct {
	AssetId            string `validate:"required"`
	VendorId           string `validate:"required"`
	Description        string `validate:"max=2000"`
	RepairDate         *time.Time
	ExpectedReturnDate *time.Time
	Remark             string `validate:"max=2000"`
}

// StartInput moves a repair to In Repair. Exactly one delivery attribution
// is required.
type StartInput struct {
	DeliveredByEmployee *string `validate:"omitempty,max=200"`
	DeliveredByBranchId *string
	Document            *documents.Upload
	Remark              string `validate:"max=2000"`
}

// CompleteInput moves a repair to Completed.
type CompleteInput struct {
	RepairCost            decimal.Decimal
	InvoiceNo             *string `validate:"omitempty,max=100"`
	CompletionDescription *string `validate:"omitempty,max=2000"`
}

// ReturnInput moves a repair to Returned. ReturnedAt defaults to now.
type ReturnInput struct {
	ReturnedAt *time.Time
	Remark     string `validate:"max=2000"`
}

// UpdateInput edits a repair in place. Nil fields are left alone.
// State-specific fields are refused until the repair reaches their state.
type UpdateInput struct {
	VendorId              *string `validate:"omitempty,min=1"`
	Description           *string `validate:"omitempty,max=2000"`
	RepairDate            *time.Time
	ExpectedReturnDate    *time.Time
	DeliveredByEmployee   *string `validate:"omitempty,max=200"`
	DeliveredByBranchId   *string
	RepairCost            *decimal.Decimal
	InvoiceNo             *string `validate:"omitempty,max=100"`
	CompletionDescription *string `validate:"omitempty,max=2000"`
	ActualReturnDate      *time.Time
}

func (w *Workflow) validateInput(input any) error {
	if err := w.validate.Struct(input); err != nil {
		return &PreconditionError{Reason: err.Error()}
	}
	return nil
}

// Open creates a Pending repair and moves the asset to "Under Repair" when
// that status exists. An asset may have only one repair that is not yet
// Returned.
func (w *Workflow) Open(ctx context.Context, input OpenInput) (*models.Repair, error) {
	if err := w.validateInput(input); err != nil {
		return nil, err
	}
	now := w.clock.Now()
	repairDate := now
	if input.RepairDate != nil {
		repairDate = *input.RepairDate
	}
	if input.ExpectedReturnDate != nil && input.ExpectedReturnDate.Before(repairDate) {
		return nil, &PreconditionError{Field: "expected_return_date", Reason: "expected return date cannot be before the repair date"}
	}

	r := &models.Repair{
		Id:                 uuid.New().String(),
		AssetId:            input.AssetId,
		VendorId:           input.VendorId,
		Description:        input.Description,
		RepairDate:         repairDate,
		ExpectedReturnDate: input.ExpectedReturnDate,
		State:              models.RepairPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := w.store.InTx(ctx, func(tx store.Tx) error {
		asset, err := tx.GetAsset(ctx, input.AssetId)
		if err != nil {
			return err
		}

		active, err := tx.ActiveRepairForAsset(ctx, asset.Id)
		if err == nil {
			return fmt.Errorf("%w: repair %s is still %s", store.ErrActiveRepairExists, active.Id, active.State.Label())
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		r.PreviousStatusId = &asset.StatusId
		if err := tx.InsertRepair(ctx, r); err != nil {
			return err
		}

		metadata := repairMetadata(r)
		metadata.Set(ledger.KeyState, "", string(r.State))
		metadata.Set("vendor_id", "", r.VendorId)
		if err := w.record(ctx, tx, r, models.MovementRepairInitiated, metadata, input.Description); err != nil {
			return err
		}

		underRepair, err := tx.GetStatusByName(ctx, models.StatusUnderRepair)
		switch {
		case errors.Is(err, store.ErrStatusNotFound):
			zap.L().Debug("No Under Repair status; asset status unchanged", zap.String("asset_id", asset.Id))
		case err != nil:
			return err
		case asset.StatusId != underRepair.Id:
			if err := w.setAssetStatus(ctx, tx, asset, underRepair, "sent for repair"); err != nil {
				return err
			}
		}

		if input.Remark != "" {
			return w.addRemark(ctx, tx, r, models.RemarkGeneral, input.Remark)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Repair opened", zap.String("repair_id", r.Id), zap.String("asset_id", r.AssetId))
	return r, nil
}

// StartRepair moves a Pending repair to In Repair.
func (w *Workflow) StartRepair(ctx context.Context, repairId string, input StartInput) (*models.Repair, error) {
	if err := w.validateInput(input); err != nil {
		return nil, err
	}
	if err := CanStart(input.DeliveredByEmployee, input.DeliveredByBranchId).Err(nil); err != nil {
		return nil, err
	}

	// Check the transition before storing any upload.
	current, err := w.store.GetRepair(ctx, repairId)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(current.State, models.RepairInRepair).Err(current); err != nil {
		return nil, err
	}

	var documentRef *string
	if input.Document != nil {
		if w.documents == nil {
			return nil, fmt.Errorf("job order uploads are not configured")
		}
		ref, err := w.documents.Save(ctx, *input.Document)
		if err != nil {
			return nil, &PreconditionError{RepairId: repairId, Field: "job_order_document", Reason: err.Error()}
		}
		documentRef = &ref
	}

	r, err := w.transition(ctx, repairId, models.RepairInRepair, models.MovementRepairInProgress, func(r *models.Repair, metadata models.Metadata) {
		r.DeliveredByEmployee = trimmed(input.DeliveredByEmployee)
		r.DeliveredByBranchId = trimmed(input.DeliveredByBranchId)
		r.JobOrderDocument = documentRef
		setOptional(metadata, ledger.KeyDeliveredByEmployee, nil, r.DeliveredByEmployee)
		setOptional(metadata, ledger.KeyDeliveredByBranch, nil, r.DeliveredByBranchId)
		setOptional(metadata, ledger.KeyJobOrderDocument, nil, r.JobOrderDocument)
	}, input.Remark)
	if err != nil && documentRef != nil {
		// Nothing references the upload once the transaction rolled back.
		if derr := w.documents.Delete(context.WithoutCancel(ctx), *documentRef); derr != nil {
			zap.L().Warn("Failed to remove orphaned job order",
				zap.String("repair_id", repairId),
				zap.String("reference", *documentRef),
				zap.Error(derr))
		}
	}
	return r, err
}

// Complete moves an In Repair repair to Completed. The repair cost must be
// positive.
func (w *Workflow) Complete(ctx context.Context, repairId string, input CompleteInput) (*models.Repair, error) {
	if err := w.validateInput(input); err != nil {
		return nil, err
	}
	if !input.RepairCost.IsPositive() {
		return nil, &PreconditionError{RepairId: repairId, Field: "repair_cost", Reason: "repair cost must be greater than zero"}
	}

	return w.transition(ctx, repairId, models.RepairCompleted, models.MovementRepairCompleted, func(r *models.Repair, metadata models.Metadata) {
		r.RepairCost = decimal.NewNullDecimal(input.RepairCost)
		r.InvoiceNo = trimmed(input.InvoiceNo)
		r.CompletionDescription = trimmed(input.CompletionDescription)
		metadata.Set(ledger.KeyRepairCost, "", input.RepairCost.StringFixed(2))
		setOptional(metadata, ledger.KeyInvoiceNo, nil, r.InvoiceNo)
		setOptional(metadata, ledger.KeyCompletionDescription, nil, r.CompletionDescription)
	}, "")
}

// Return moves a Completed repair to Returned, records the actual return
// date and restores the asset's status from before the repair.
func (w *Workflow) Return(ctx context.Context, repairId string, input ReturnInput) (*models.Repair, error) {
	if err := w.validateInput(input); err != nil {
		return nil, err
	}
	returnedAt := w.clock.Now()
	if input.ReturnedAt != nil {
		returnedAt = *input.ReturnedAt
	}

	return w.transition(ctx, repairId, models.RepairReturned, models.MovementRepairReturned, func(r *models.Repair, metadata models.Metadata) {
		r.ActualReturnDate = &returnedAt
		metadata.Set(ledger.KeyActualReturnDate, "", returnedAt.UTC().Format(time.RFC3339))
	}, input.Remark)
}

// transition applies one forward step inside a transaction: it re-reads the
// repair, checks the guard, applies mutate, writes the repair and its ledger
// entry, and adds the optional remark.
func (w *Workflow) transition(ctx context.Context, repairId string, to models.RepairState, kind models.MovementKind,
	mutate func(r *models.Repair, metadata models.Metadata), remark string) (*models.Repair, error) {
	now := w.clock.Now()
	var result *models.Repair

	err := w.store.InTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRepair(ctx, repairId)
		if err != nil {
			return err
		}
		if err := CanTransition(r.State, to).Err(r); err != nil {
			return err
		}
		if to == models.RepairCompleted && r.State == models.RepairInRepair && r.DeliveredByEmployee == nil && r.DeliveredByBranchId == nil {
			return &PreconditionError{RepairId: r.Id, State: r.State, Field: "delivered_by", Reason: "delivery attribution is missing"}
		}

		metadata := repairMetadata(r)
		metadata.Set(ledger.KeyState, string(r.State), string(to))
		mutate(r, metadata)
		r.State = to
		r.UpdatedAt = now
		if err := tx.UpdateRepair(ctx, r); err != nil {
			return err
		}
		if err := w.record(ctx, tx, r, kind, metadata, ""); err != nil {
			return err
		}

		if to == models.RepairReturned {
			if err := w.restoreAssetStatus(ctx, tx, r, "returned from repair"); err != nil {
				return err
			}
		}

		if remark != "" {
			if err := w.addRemark(ctx, tx, r, models.RemarkStatusChange, remark); err != nil {
				return err
			}
		}
		result = r
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrPrecondition) {
			zap.L().Warn("Repair transition failed",
				zap.String("repair_id", repairId),
				zap.String("to", string(to)),
				zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("Repair transitioned",
		zap.String("repair_id", result.Id),
		zap.String("state", string(result.State)))
	return result, nil
}

// Update edits non-state fields in place. Fields belonging to a later state
// are refused, and an edit that changes nothing writes nothing.
func (w *Workflow) Update(ctx context.Context, repairId string, input UpdateInput) (*models.Repair, error) {
	if err := w.validateInput(input); err != nil {
		return nil, err
	}
	now := w.clock.Now()
	var result *models.Repair

	err := w.store.InTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRepair(ctx, repairId)
		if err != nil {
			return err
		}

		for field, set := range map[string]bool{
			"delivered_by_employee":  input.DeliveredByEmployee != nil,
			"delivered_by_branch_id": input.DeliveredByBranchId != nil,
			"repair_cost":            input.RepairCost != nil,
			"invoice_no":             input.InvoiceNo != nil,
			"completion_description": input.CompletionDescription != nil,
			"actual_return_date":     input.ActualReturnDate != nil,
		} {
			if set {
				if err := CanSetField(r.State, field).Err(r); err != nil {
					return err
				}
			}
		}
		for field, value := range map[string]*string{
			"delivered_by_employee":  input.DeliveredByEmployee,
			"delivered_by_branch_id": input.DeliveredByBranchId,
		} {
			if value != nil && trimmed(value) == nil {
				return &PreconditionError{RepairId: r.Id, State: r.State, Field: field, Reason: field + " cannot be blank"}
			}
		}
		if input.DeliveredByEmployee != nil && input.DeliveredByBranchId != nil {
			if err := CanStart(input.DeliveredByEmployee, input.DeliveredByBranchId).Err(r); err != nil {
				return err
			}
		}
		if input.RepairCost != nil && !input.RepairCost.IsPositive() {
			return &PreconditionError{RepairId: r.Id, State: r.State, Field: "repair_cost", Reason: "repair cost must be greater than zero"}
		}

		metadata := repairMetadata(r)
		before := len(metadata)

		if input.VendorId != nil && *input.VendorId != r.VendorId {
			metadata.Set("vendor_id", r.VendorId, *input.VendorId)
			r.VendorId = *input.VendorId
		}
		if input.Description != nil && *input.Description != r.Description {
			metadata.Set("description", r.Description, *input.Description)
			r.Description = *input.Description
		}
		if input.RepairDate != nil && !input.RepairDate.Equal(r.RepairDate) {
			metadata.Set("repair_date", formatTime(&r.RepairDate), formatTime(input.RepairDate))
			r.RepairDate = *input.RepairDate
		}
		if input.ExpectedReturnDate != nil && (r.ExpectedReturnDate == nil || !input.ExpectedReturnDate.Equal(*r.ExpectedReturnDate)) {
			metadata.Set("expected_return_date", formatTime(r.ExpectedReturnDate), formatTime(input.ExpectedReturnDate))
			r.ExpectedReturnDate = input.ExpectedReturnDate
		}
		if v := trimmed(input.DeliveredByEmployee); v != nil && !equalPtr(v, r.DeliveredByEmployee) {
			setOptional(metadata, ledger.KeyDeliveredByEmployee, r.DeliveredByEmployee, v)
			setOptional(metadata, ledger.KeyDeliveredByBranch, r.DeliveredByBranchId, nil)
			r.DeliveredByEmployee, r.DeliveredByBranchId = v, nil
		}
		if v := trimmed(input.DeliveredByBranchId); v != nil && !equalPtr(v, r.DeliveredByBranchId) {
			setOptional(metadata, ledger.KeyDeliveredByBranch, r.DeliveredByBranchId, v)
			setOptional(metadata, ledger.KeyDeliveredByEmployee, r.DeliveredByEmployee, nil)
			r.DeliveredByBranchId, r.DeliveredByEmployee = v, nil
		}
		if input.RepairCost != nil && (!r.RepairCost.Valid || !r.RepairCost.Decimal.Equal(*input.RepairCost)) {
			old := ""
			if r.RepairCost.Valid {
				old = r.RepairCost.Decimal.StringFixed(2)
			}
			metadata.Set(ledger.KeyRepairCost, old, input.RepairCost.StringFixed(2))
			r.RepairCost = decimal.NewNullDecimal(*input.RepairCost)
		}
		if v := trimmed(input.InvoiceNo); v != nil && !equalPtr(v, r.InvoiceNo) {
			setOptional(metadata, ledger.KeyInvoiceNo, r.InvoiceNo, v)
			r.InvoiceNo = v
		}
		if v := trimmed(input.CompletionDescription); v != nil && !equalPtr(v, r.CompletionDescription) {
			setOptional(metadata, ledger.KeyCompletionDescription, r.CompletionDescription, v)
			r.CompletionDescription = v
		}
		if input.ActualReturnDate != nil && (r.ActualReturnDate == nil || !input.ActualReturnDate.Equal(*r.ActualReturnDate)) {
			metadata.Set(ledger.KeyActualReturnDate, formatTime(r.ActualReturnDate), formatTime(input.ActualReturnDate))
			r.ActualReturnDate = input.ActualReturnDate
		}

		if len(metadata) == before {
			result = r
			return nil
		}

		r.UpdatedAt = now
		if err := tx.UpdateRepair(ctx, r); err != nil {
			return err
		}
		if err := w.record(ctx, tx, r, models.MovementRepairUpdated, metadata, ""); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a repair after recording a repair_deleted entry carrying a
// snapshot of the row. An unfinished repair hands the asset back its status.
func (w *Workflow) Delete(ctx context.Context, repairId, reason string) error {
	return w.store.InTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRepair(ctx, repairId)
		if err != nil {
			return err
		}

		metadata, err := ledger.RepairDeletion(r)
		if err != nil {
			return err
		}

		_, err = w.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectAsset,
			SubjectId:   r.AssetId,
			Kind:        models.MovementRepairDeleted,
			Reason:      reason,
			Metadata:    metadata,
		})
		if err != nil {
			return err
		}

		if !r.State.Terminal() {
			if err := w.restoreAssetStatus(ctx, tx, r, "repair deleted"); err != nil {
				return err
			}
		}

		if err := tx.DeleteRepair(ctx, r.Id); err != nil {
			return err
		}
		zap.L().Info("Repair deleted", zap.String("repair_id", r.Id), zap.String("asset_id", r.AssetId))
		return nil
	})
}

// AddRemark appends a note to a repair in any state.
func (w *Workflow) AddRemark(ctx context.Context, repairId string, kind models.RemarkKind, body string) (*models.RepairRemark, error) {
	if !kind.Valid() {
		return nil, &PreconditionError{RepairId: repairId, Field: "kind", Reason: fmt.Sprintf("unknown remark kind %q", kind)}
	}
	if strings.TrimSpace(body) == "" {
		return nil, &PreconditionError{RepairId: repairId, Field: "body", Reason: "remark cannot be empty"}
	}

	var remark *models.RepairRemark
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRepair(ctx, repairId)
		if err != nil {
			return err
		}
		remark, err = w.insertRemark(ctx, tx, r, kind, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return remark, nil
}

// Remarks lists a repair's notes, oldest first.
func (w *Workflow) Remarks(ctx context.Context, repairId string) ([]models.RepairRemark, error) {
	return w.store.ListRemarks(ctx, repairId)
}

func (w *Workflow) addRemark(ctx context.Context, tx store.Tx, r *models.Repair, kind models.RemarkKind, body string) error {
	_, err := w.insertRemark(ctx, tx, r, kind, body)
	return err
}

func (w *Workflow) insertRemark(ctx context.Context, tx store.Tx, r *models.Repair, kind models.RemarkKind, body string) (*models.RepairRemark, error) {
	remark := &models.RepairRemark{
		Id:        uuid.New().String(),
		RepairId:  r.Id,
		Kind:      kind,
		Body:      body,
		ActorId:   models.GetProvenance(ctx).ActorId,
		CreatedAt: w.clock.Now(),
	}
	if err := tx.InsertRemark(ctx, remark); err != nil {
		return nil, err
	}

	metadata := repairMetadata(r)
	metadata.Set(ledger.KeyRemarkKind, "", string(kind))
	if err := w.record(ctx, tx, r, models.MovementRepairRemarkAdded, metadata, body); err != nil {
		return nil, err
	}
	return remark, nil
}

func (w *Workflow) record(ctx context.Context, tx store.Tx, r *models.Repair, kind models.MovementKind, metadata models.Metadata, remarks string) error {
	_, err := w.ledger.Record(ctx, tx, ledger.Entry{
		SubjectType: models.SubjectAsset,
		SubjectId:   r.AssetId,
		Kind:        kind,
		Remarks:     remarks,
		Metadata:    metadata,
	})
	return err
}

// restoreAssetStatus hands an asset that is still "Under Repair" back the
// status it had when the repair opened, or "Functional" when that is gone.
func (w *Workflow) restoreAssetStatus(ctx context.Context, tx store.Tx, r *models.Repair, reason string) error {
	asset, err := tx.GetAsset(ctx, r.AssetId)
	if err != nil {
		return err
	}
	if asset.StatusName != models.StatusUnderRepair {
		return nil
	}

	var target *models.Status
	if r.PreviousStatusId != nil {
		previous, err := tx.GetStatusById(ctx, *r.PreviousStatusId)
		if err != nil && !errors.Is(err, store.ErrStatusNotFound) {
			return err
		}
		if previous != nil && previous.Name != models.StatusUnderRepair {
			target = previous
		}
	}
	if target == nil {
		target, err = tx.GetStatusByName(ctx, models.StatusFunctional)
		if err != nil {
			return err
		}
	}
	return w.setAssetStatus(ctx, tx, asset, target, reason)
}

func (w *Workflow) setAssetStatus(ctx context.Context, tx store.Tx, asset *models.Asset, to *models.Status, reason string) error {
	from := asset.StatusName
	asset.StatusId = to.Id
	asset.StatusName = to.Name
	asset.UpdatedAt = w.clock.Now()
	if err := tx.UpdateAsset(ctx, asset); err != nil {
		return err
	}
	_, err := w.ledger.Record(ctx, tx, ledger.Entry{
		SubjectType: models.SubjectAsset,
		SubjectId:   asset.Id,
		Kind:        models.MovementStatusChanged,
		FromStatus:  &from,
		ToStatus:    &to.Name,
		Reason:      reason,
	})
	return err
}

func repairMetadata(r *models.Repair) models.Metadata {
	metadata := models.Metadata{}
	metadata.Set(ledger.KeyRepairId, "", r.Id)
	return metadata
}

func setOptional(metadata models.Metadata, key string, oldValue, newValue *string) {
	if oldValue == nil && newValue == nil {
		return
	}
	metadata[key] = models.Change{Old: oldValue, New: newValue}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
