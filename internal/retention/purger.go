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

package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/ledger"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"go.uber.org/zap"
)

const OperationDeleteDefective = "delete-defective"

// Purger permanently deletes assets whose retention grace period has passed.
// Each run is idempotent, so the CLI and the scheduler may both trigger it.
type Purger struct {
	store  store.Store
	ledger *ledger.Ledger
	clock  clock.Clock
}

func NewPurger(s store.Store, l *ledger.Ledger, c clock.Clock) *Purger {
	if c == nil {
		c = clock.System()
	}
	if l == nil {
		l = ledger.New(s, c)
	}
	return &Purger{store: s, ledger: l, clock: c}
}

// Purge deletes every Defective asset with delete_after_at <= now. Assets
// with a repair still in progress are kept. With dryRun set it only reports
// the candidates.
func (p *Purger) Purge(ctx context.Context, dryRun bool) models.BatchResult {
	result := models.BatchResult{Operation: OperationDeleteDefective, DryRun: dryRun}
	now := p.clock.Now()

	candidates, err := p.store.ListAssets(ctx, store.AssetFilter{DeleteDueAt: &now})
	if err != nil {
		zap.L().Error("Failed to list purge candidates", zap.Error(err))
		result.Fail("", "list assets", err)
		return result
	}

	if len(candidates) == 0 {
		zap.L().Info("No assets due for deletion")
		return result
	}

	zap.L().Info("Purging assets past retention",
		zap.Int("candidates", len(candidates)),
		zap.Bool("dry_run", dryRun))

	for _, asset := range candidates {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("Purge interrupted", zap.Error(err))
			break
		}

		label := asset.Label()
		due := asset.DeleteAfterAt.UTC().Format(time.RFC3339)
		if dryRun {
			_, reason, err := eligibility(ctx, p.store, &asset, now)
			switch {
			case err != nil:
				result.Fail(asset.Id, label, err)
			case reason != "":
				result.Skip(asset.Id, label, reason)
			default:
				result.Succeed(asset.Id, label, fmt.Sprintf("would delete (due %s)", due))
			}
			continue
		}

		skip, err := p.purgeOne(ctx, &asset, now)
		switch {
		case err != nil:
			zap.L().Warn("Asset purge failed", zap.String("asset_id", asset.Id), zap.Error(err))
			result.Fail(asset.Id, label, err)
		case skip != "":
			zap.L().Info("Asset kept", zap.String("asset_id", asset.Id), zap.String("reason", skip))
			result.Skip(asset.Id, label, skip)
		default:
			zap.L().Info("Asset purged", zap.String("asset_id", asset.Id), zap.String("due", due))
			result.Succeed(asset.Id, label, fmt.Sprintf("deleted (due %s)", due))
		}
	}

	zap.L().Info("Purge finished",
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("skipped", result.Skipped()),
		zap.Int("failed", result.Failed()))
	return result
}

// purgeOne deletes the asset only if it is still a due Defective asset with
// no repair in progress. Each of its repairs gets a repair_deleted entry and
// the asset a disposed entry, all in the same transaction; ledger entries
// outlive their subject. A non-empty skip explains why nothing was deleted.
func (p *Purger) purgeOne(ctx context.Context, candidate *models.Asset, now time.Time) (skip string, err error) {
	err = p.store.InTx(ctx, func(tx store.Tx) error {
		asset, err := tx.GetAsset(ctx, candidate.Id)
		if errors.Is(err, store.ErrNotFound) {
			skip = "already deleted"
			return nil
		}
		if err != nil {
			return err
		}
		repairs, reason, err := eligibility(ctx, tx, asset, now)
		if err != nil || reason != "" {
			skip = reason
			return err
		}
		for i := range repairs {
			metadata, err := ledger.RepairDeletion(&repairs[i])
			if err != nil {
				return err
			}
			_, err = p.ledger.Record(ctx, tx, ledger.Entry{
				SubjectType: models.SubjectAsset,
				SubjectId:   asset.Id,
				Kind:        models.MovementRepairDeleted,
				Reason:      "asset purged after retention period",
				Metadata:    metadata,
			})
			if err != nil {
				return err
			}
		}

		ok, err := tx.DeleteAssetIfDue(ctx, asset.Id, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("asset %s: %w", asset.Id, store.ErrConcurrentModification)
		}

		metadata := models.Metadata{}
		metadata.Set(ledger.KeyPurged, "", "true")
		metadata.Set(ledger.KeyDeleteAfterAt, asset.DeleteAfterAt.UTC().Format(time.RFC3339), "")
		if asset.Code != "" {
			metadata.Set(ledger.KeyCode, asset.Code, "")
		}
		_, err = p.ledger.Record(ctx, tx, ledger.Entry{
			SubjectType:  models.SubjectAsset,
			SubjectId:    asset.Id,
			Kind:         models.MovementDisposed,
			FromStatus:   &asset.StatusName,
			FromEmployee: asset.EmployeeId,
			FromBranch:   asset.BranchId,
			Reason:       "retention period elapsed",
			Metadata:     metadata,
		})
		return err
	})
	return skip, err
}

// eligibility returns the asset's repairs, or the reason it must be kept.
func eligibility(ctx context.Context, r store.Reader, asset *models.Asset, now time.Time) ([]models.Repair, string, error) {
	if asset.DeleteAfterAt == nil || asset.DeleteAfterAt.After(now) {
		return nil, "no longer due", nil
	}
	if asset.StatusName != models.StatusDefective {
		return nil, fmt.Sprintf("status is %s, not %s", asset.StatusName, models.StatusDefective), nil
	}

	repairs, err := r.ListRepairs(ctx, store.RepairFilter{AssetId: asset.Id})
	if err != nil {
		return nil, "", err
	}
	for _, repair := range repairs {
		if !repair.State.Terminal() {
			return nil, fmt.Sprintf("repair %s is %s", repair.Id, repair.State.Label()), nil
		}
	}
	return repairs, "", nil
}
