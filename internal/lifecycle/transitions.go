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
	"time"

	"asset-lifecycle-go/internal/ledger"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

const (
	DefaultNewAssetGrace            = 30 * 24 * time.Hour
	DefaultDefectiveRetentionMonths = 1
	DefaultAssetCodePrefix          = "AST"

	OperationTransitionStatuses = "transition-statuses"
)

// TransitionStatuses moves every asset that has been "New" for at least the
// grace period to "Functional". The update is conditional on the asset still
// being "New", so reruns and overlapping runs write nothing twice.
func (e *Engine) TransitionStatuses(ctx context.Context) models.BatchResult {
	result := models.BatchResult{Operation: OperationTransitionStatuses}
	now := e.clock.Now()
	cutoff := now.Add(-e.cfg.NewAssetGrace)

	candidates, err := e.store.ListAssets(ctx, store.AssetFilter{
		StatusName:    models.StatusNew,
		CreatedBefore: &cutoff,
	})
	if err != nil {
		zap.L().Error("Failed to list transition candidates", zap.Error(err))
		result.Fail("", "list assets", err)
		return result
	}

	if len(candidates) == 0 {
		zap.L().Info("No assets due for status transition")
		return result
	}

	functional, err := e.statusByName(ctx, e.store, models.StatusFunctional)
	if err != nil {
		zap.L().Error("Cannot transition assets", zap.Error(err))
		for _, asset := range candidates {
			result.Fail(asset.Id, asset.Label(), err)
		}
		return result
	}

	for _, asset := range candidates {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("Status transition interrupted", zap.Error(err))
			break
		}

		label := asset.Label()
		applied, err := e.transitionOne(ctx, &asset, functional, now)
		switch {
		case err != nil:
			zap.L().Warn("Status transition failed", zap.String("asset_id", asset.Id), zap.Error(err))
			result.Fail(asset.Id, label, err)
		case !applied:
			result.Skip(asset.Id, label, "no longer New")
		default:
			result.Succeed(asset.Id, label, fmt.Sprintf("%s -> %s", models.StatusNew, models.StatusFunctional))
		}
	}

	zap.L().Info("Status transition finished",
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("skipped", result.Skipped()),
		zap.Int("failed", result.Failed()))
	return result
}

func (e *Engine) transitionOne(ctx context.Context, asset *models.Asset, to *models.Status, now time.Time) (bool, error) {
	applied := false
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		ok, err := tx.TransitionAssetStatus(ctx, asset.Id, asset.StatusId, to.Id, now)
		if err != nil || !ok {
			return err
		}

		metadata := models.Metadata{}
		metadata.Set("status", asset.StatusName, to.Name)
		_, err = e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectAsset,
			SubjectId:   asset.Id,
			Kind:        models.MovementStatusChanged,
			FromStatus:  strPtr(asset.StatusName),
			ToStatus:    strPtr(to.Name),
			Reason:      "automatic transition after new asset grace period",
			Metadata:    metadata,
		})
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// MarkDefective moves the asset to "Defective" and starts its retention
// grace period. The asset becomes eligible for purge once delete_after_at
// has passed.
func (e *Engine) MarkDefective(ctx context.Context, assetId, reason string) (*models.Asset, error) {
	now := e.clock.Now()

	asset, err := e.withAsset(ctx, assetId, func(tx store.Tx, asset *models.Asset) error {
		if asset.StatusName == models.StatusDefective {
			return fmt.Errorf("%w: %s", ErrAlreadyDefective, asset.Id)
		}

		defective, err := e.statusByName(ctx, tx, models.StatusDefective)
		if err != nil {
			return err
		}

		deleteAfter := now.AddDate(0, e.cfg.DefectiveRetentionMonths, 0)
		fromStatus := asset.StatusName

		metadata := models.Metadata{}
		metadata.Set(ledger.KeyDefectiveAt, formatOptionalTime(asset.DefectiveAt), now.UTC().Format(time.RFC3339))
		metadata.Set(ledger.KeyDeleteAfterAt, formatOptionalTime(asset.DeleteAfterAt), deleteAfter.UTC().Format(time.RFC3339))

		asset.StatusId = defective.Id
		asset.StatusName = defective.Name
		asset.DefectiveAt = &now
		asset.DeleteAfterAt = &deleteAfter
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return err
		}

		_, err = e.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType: models.SubjectAsset,
			SubjectId:   asset.Id,
			Kind:        models.MovementStatusChanged,
			FromStatus:  strPtr(fromStatus),
			ToStatus:    strPtr(defective.Name),
			Reason:      reason,
			Metadata:    metadata,
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyDefective) {
			zap.L().Warn("Failed to mark asset defective", zap.String("asset_id", assetId), zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("Asset marked defective",
		zap.String("asset_id", asset.Id),
		zap.Time("delete_after_at", *asset.DeleteAfterAt))
	return asset, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
