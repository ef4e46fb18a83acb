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
	"errors"
	"fmt"

	"asset-lifecycle-go/internal/depreciation"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const OperationRecalculateBookValues = "recalculate-book-values"

func depreciationInput(a *models.Asset) depreciation.Input {
	return depreciation.Input{
		Cost:            a.AcquisitionCost,
		PurchaseDate:    a.PurchaseDate,
		UsefulLifeYears: a.UsefulLifeYears,
	}
}

// RecalculateAsset recomputes one asset's book value as of now. changed is
// false when the stored value already matches.
func (e *Engine) RecalculateAsset(ctx context.Context, assetId string) (value decimal.Decimal, changed bool, err error) {
	now := e.clock.Now()
	var posting *models.DepreciationPosting

	_, err = e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		computed, ok := depreciation.BookValue(depreciationInput(asset), now)
		if !ok {
			return ErrNotDepreciable
		}
		value = computed
		if asset.BookValue.Valid && asset.BookValue.Decimal.Equal(computed) {
			return nil
		}

		if asset.BookValue.Valid && computed.LessThan(asset.BookValue.Decimal) {
			posting = &models.DepreciationPosting{
				AssetId:   asset.Id,
				AssetCode: asset.Code,
				Previous:  asset.BookValue.Decimal,
				Current:   computed,
				At:        now,
			}
		}

		asset.BookValue = decimal.NewNullDecimal(computed)
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, false, err
	}

	if posting != nil && e.journal != nil {
		if err := e.journal.RecordDepreciation(ctx, *posting); err != nil {
			// The book value stays committed; a missed posting is only logged.
			zap.L().Warn("Failed to mirror depreciation to journal",
				zap.String("asset_id", assetId),
				zap.String("amount", posting.Amount().String()),
				zap.Error(err))
		}
	}
	return value, changed, nil
}

// RecalculateBookValues recomputes the book value of every asset. Assets
// missing cost, purchase date or useful life are skipped, as are assets whose
// stored value already matches.
func (e *Engine) RecalculateBookValues(ctx context.Context) models.BatchResult {
	result := models.BatchResult{Operation: OperationRecalculateBookValues}

	assets, err := e.store.ListAssets(ctx, store.AssetFilter{})
	if err != nil {
		zap.L().Error("Failed to list assets for recalculation", zap.Error(err))
		result.Fail("", "list assets", err)
		return result
	}

	zap.L().Info("Recalculating book values", zap.Int("assets", len(assets)))

	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("Book value recalculation interrupted", zap.Error(err))
			break
		}

		label := asset.Label()
		if !asset.Depreciable() {
			result.Skip(asset.Id, label, "not depreciable")
			continue
		}

		value, changed, err := e.RecalculateAsset(ctx, asset.Id)
		switch {
		case errors.Is(err, ErrNotDepreciable):
			result.Skip(asset.Id, label, "not depreciable")
		case errors.Is(err, store.ErrNotFound):
			result.Skip(asset.Id, label, "asset no longer exists")
		case err != nil:
			zap.L().Warn("Book value recalculation failed", zap.String("asset_id", asset.Id), zap.Error(err))
			result.Fail(asset.Id, label, err)
		case !changed:
			result.Skip(asset.Id, label, "no change")
		default:
			result.Succeed(asset.Id, label, fmt.Sprintf("book value %s", value.StringFixed(2)))
		}
	}

	zap.L().Info("Book value recalculation finished",
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("skipped", result.Skipped()),
		zap.Int("failed", result.Failed()))
	return result
}
