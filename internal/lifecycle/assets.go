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

package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"asset-lifecycle-go/internal/depreciation"
	"asset-lifecycle-go/internal/ledger"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAssetInput describes a newly acquired asset.
type CreateAssetInput struct {
	Name            string `validate:"required,max=200"`
	SerialNumber    string `validate:"max=100"`
	Description     string `validate:"max=2000"`
	AcquisitionCost *decimal.Decimal
	PurchaseDate    *time.Time
	UsefulLifeYears *int    `validate:"omitempty,min=1,max=100"`
	StatusName      string  // defaults to "New"
	EmployeeId      *string `validate:"omitempty,min=1"`
	BranchId        *string `validate:"omitempty,min=1"`
}

// UpdateAssetInput carries the descriptive fields to change. Nil fields are
// left alone.
type UpdateAssetInput struct {
	Name            *string `validate:"omitempty,min=1,max=200"`
	SerialNumber    *string `validate:"omitempty,max=100"`
	Description     *string `validate:"omitempty,max=2000"`
	AcquisitionCost *decimal.Decimal
	PurchaseDate    *time.Time
	UsefulLifeYears *int `validate:"omitempty,min=1,max=100"`
}

func (e *Engine) validateInput(input any) error {
	if err := e.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// CreateAsset inserts the asset with its initial book value and records a
// "created" entry.
func (e *Engine) CreateAsset(ctx context.Context, input CreateAssetInput) (*models.Asset, error) {
	if err := e.validateInput(input); err != nil {
		return nil, err
	}
	if input.AcquisitionCost != nil && input.AcquisitionCost.IsNegative() {
		return nil, fmt.Errorf("%w: acquisition cost cannot be negative", ErrInvalidInput)
	}

	statusName := input.StatusName
	if statusName == "" {
		statusName = models.StatusNew
	}
	now := e.clock.Now()

	asset := &models.Asset{
		Id:              uuid.New().String(),
		Name:            input.Name,
		SerialNumber:    input.SerialNumber,
		Description:     input.Description,
		PurchaseDate:    input.PurchaseDate,
		UsefulLifeYears: input.UsefulLifeYears,
		EmployeeId:      input.EmployeeId,
		BranchId:        input.BranchId,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.AcquisitionCost != nil {
		asset.AcquisitionCost = decimal.NewNullDecimal(*input.AcquisitionCost)
	}
	if value, ok := depreciation.BookValue(depreciationInput(asset), now); ok {
		asset.BookValue = decimal.NewNullDecimal(value)
	}

	err := e.store.InTx(ctx, func(tx store.Tx) error {
		status, err := e.statusByName(ctx, tx, statusName)
		if err != nil {
			return err
		}
		asset.StatusId = status.Id
		asset.StatusName = status.Name

		if err := tx.InsertAsset(ctx, asset); err != nil {
			return err
		}

		metadata := models.Metadata{}
		metadata.Set("name", "", asset.Name)
		if asset.BookValue.Valid {
			metadata.Set(ledger.KeyBookValue, "", asset.BookValue.Decimal.StringFixed(2))
		}
		_, err = e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectAsset,
			SubjectId:   asset.Id,
			Kind:        models.MovementCreated,
			ToStatus:    strPtr(status.Name),
			ToEmployee:  asset.EmployeeId,
			ToBranch:    asset.BranchId,
			Metadata:    metadata,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Asset created", zap.String("asset_id", asset.Id), zap.String("name", asset.Name))
	return asset, nil
}

// Assign hands the asset to an employee. Re-assigning to the current holder
// is a no-op.
func (e *Engine) Assign(ctx context.Context, assetId, employeeId, reason string) (*models.Asset, error) {
	if employeeId == "" {
		return nil, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	now := e.clock.Now()

	return e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		if asset.EmployeeId != nil && *asset.EmployeeId == employeeId {
			return nil
		}
		from := asset.EmployeeId
		asset.EmployeeId = strPtr(employeeId)
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		_, err := e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType:  models.SubjectAsset,
			SubjectId:    asset.Id,
			Kind:         models.MovementAssigned,
			FromEmployee: from,
			ToEmployee:   asset.EmployeeId,
			Reason:       reason,
		})
		return err
	})
}

// Transfer moves the asset to another branch. Transferring to the current
// branch is a no-op.
func (e *Engine) Transfer(ctx context.Context, assetId, branchId, reason string) (*models.Asset, error) {
	if branchId == "" {
		return nil, fmt.Errorf("%w: branch id is required", ErrInvalidInput)
	}
	now := e.clock.Now()

	return e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		if asset.BranchId != nil && *asset.BranchId == branchId {
			return nil
		}
		from := asset.BranchId
		asset.BranchId = strPtr(branchId)
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		_, err := e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectAsset,
			SubjectId:   asset.Id,
			Kind:        models.MovementTransferred,
			FromBranch:  from,
			ToBranch:    asset.BranchId,
			Reason:      reason,
		})
		return err
	})
}

// Return takes the asset back from its current holder.
func (e *Engine) Return(ctx context.Context, assetId, reason string) (*models.Asset, error) {
	now := e.clock.Now()

	return e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		if asset.EmployeeId == nil {
			return fmt.Errorf("%w: %s", ErrNotAssigned, asset.Id)
		}
		from := asset.EmployeeId
		asset.EmployeeId = nil
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		_, err := e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType:  models.SubjectAsset,
			SubjectId:    asset.Id,
			Kind:         models.MovementReturned,
			FromEmployee: from,
			Reason:       reason,
		})
		return err
	})
}

// Update edits descriptive and depreciation fields. Each changed field is
// recorded as an old/new pair; an edit that changes nothing writes nothing.
func (e *Engine) Update(ctx context.Context, assetId string, input UpdateAssetInput) (*models.Asset, error) {
	if err := e.validateInput(input); err != nil {
		return nil, err
	}
	if input.AcquisitionCost != nil && input.AcquisitionCost.IsNegative() {
		return nil, fmt.Errorf("%w: acquisition cost cannot be negative", ErrInvalidInput)
	}
	now := e.clock.Now()

	return e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		metadata := models.Metadata{}

		if input.Name != nil && *input.Name != asset.Name {
			metadata.Set("name", asset.Name, *input.Name)
			asset.Name = *input.Name
		}
		if input.SerialNumber != nil && *input.SerialNumber != asset.SerialNumber {
			metadata.Set("serial_number", asset.SerialNumber, *input.SerialNumber)
			asset.SerialNumber = *input.SerialNumber
		}
		if input.Description != nil && *input.Description != asset.Description {
			metadata.Set("description", asset.Description, *input.Description)
			asset.Description = *input.Description
		}
		if input.AcquisitionCost != nil && (!asset.AcquisitionCost.Valid || !asset.AcquisitionCost.Decimal.Equal(*input.AcquisitionCost)) {
			metadata.Set("acquisition_cost", formatNullDecimal(asset.AcquisitionCost), input.AcquisitionCost.String())
			asset.AcquisitionCost = decimal.NewNullDecimal(*input.AcquisitionCost)
		}
		if input.PurchaseDate != nil && (asset.PurchaseDate == nil || !asset.PurchaseDate.Equal(*input.PurchaseDate)) {
			metadata.Set("purchase_date", formatOptionalTime(asset.PurchaseDate), formatOptionalTime(input.PurchaseDate))
			asset.PurchaseDate = input.PurchaseDate
		}
		if input.UsefulLifeYears != nil && (asset.UsefulLifeYears == nil || *asset.UsefulLifeYears != *input.UsefulLifeYears) {
			metadata.Set("useful_life_years", formatOptionalInt(asset.UsefulLifeYears), strconv.Itoa(*input.UsefulLifeYears))
			asset.UsefulLifeYears = input.UsefulLifeYears
		}

		if len(metadata) == 0 {
			return nil
		}

		if value, ok := depreciation.BookValue(depreciationInput(asset), now); ok {
			if !asset.BookValue.Valid || !asset.BookValue.Decimal.Equal(value) {
				metadata.Set(ledger.KeyBookValue, formatNullDecimal(asset.BookValue), value.StringFixed(2))
				asset.BookValue = decimal.NewNullDecimal(value)
			}
		}

		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		_, err := e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectAsset,
			SubjectId:   asset.Id,
			Kind:        models.MovementUpdated,
			Metadata:    metadata,
		})
		return err
	})
}

// Dispose retires the asset and releases it from its holder.
func (e *Engine) Dispose(ctx context.Context, assetId, reason string) (*models.Asset, error) {
	now := e.clock.Now()

	return e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		if asset.StatusName == models.StatusRetired {
			return nil
		}
		retired, err := e.statusByName(ctx, tx, models.StatusRetired)
		if err != nil {
			return err
		}

		fromStatus := asset.StatusName
		fromEmployee := asset.EmployeeId
		asset.StatusId = retired.Id
		asset.StatusName = retired.Name
		asset.EmployeeId = nil
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		_, err = e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType:  models.SubjectAsset,
			SubjectId:    asset.Id,
			Kind:         models.MovementDisposed,
			FromStatus:   strPtr(fromStatus),
			ToStatus:     strPtr(retired.Name),
			FromEmployee: fromEmployee,
			Reason:       reason,
		})
		return err
	})
}

// GenerateCode assigns the next <PREFIX>-<YYYY>-<NNNNN> tag. An asset that
// already has a code keeps it.
func (e *Engine) GenerateCode(ctx context.Context, assetId string) (string, error) {
	now := e.clock.Now()

	asset, err := e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		if asset.Code != "" {
			return nil
		}

		prefix := fmt.Sprintf("%s-%04d", e.cfg.AssetCodePrefix, now.Year())
		next, err := tx.NextAssetCodeSequence(ctx, prefix)
		if err != nil {
			return err
		}
		asset.Code = fmt.Sprintf("%s-%05d", prefix, next)
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}

		metadata := models.Metadata{}
		metadata.Set(ledger.KeyCode, "", asset.Code)
		_, err = e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectAsset,
			SubjectId:   asset.Id,
			Kind:        models.MovementCodeGenerated,
			Metadata:    metadata,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return asset.Code, nil
}

// RecordInventoryOperation logs a non-asset inventory event, such as a
// stock count, that has no subject record.
func (e *Engine) RecordInventoryOperation(ctx context.Context, operation, remarks string, details map[string]string) (*models.Movement, error) {
	if operation == "" {
		return nil, fmt.Errorf("%w: operation is required", ErrInvalidInput)
	}

	metadata := models.Metadata{}
	metadata.Set(ledger.KeyOperation, "", operation)
	for key, value := range details {
		metadata.Set(key, "", value)
	}

	var movement *models.Movement
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		movement, err = e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectInventory,
			Kind:        models.MovementInventoryOperation,
			Remarks:     remarks,
			Metadata:    metadata,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func formatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func formatOptionalInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
