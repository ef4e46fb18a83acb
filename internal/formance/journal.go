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

package formance

import (
	"context"
	"fmt"

	"asset-lifecycle-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// numscriptDepreciation moves the decrease out of the asset's value account
// into the depreciation expense account. The value account is never funded
// here, so it runs an unbounded overdraft that mirrors accumulated
// depreciation.
const numscriptDepreciation = `vars {
  asset $currency
  number $amount
  account $asset_account
  string $asset_id
  string $asset_code
  string $previous_book_value
  string $book_value
}

send [$currency $amount] (
  source = $asset_account allowing unbounded overdraft
  destination = @expenses:depreciation
)

set_tx_meta("event_type", "depreciation")
set_tx_meta("asset_id", $asset_id)
set_tx_meta("asset_code", $asset_code)
set_tx_meta("previous_book_value", $previous_book_value)
set_tx_meta("book_value", $book_value)
`

// RecordDepreciation posts one book value decrease. The reference is derived
// from the asset, the decrease and its date, so a repeated posting is a
// no-op.
func (j *Journal) RecordDepreciation(ctx context.Context, p models.DepreciationPosting) error {
	postTx, ok := j.depreciationTransaction(p)
	if !ok {
		return nil
	}

	_, err := j.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            j.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			return nil // idempotent
		}
		return fmt.Errorf("error recording depreciation for asset %s: %w", p.AssetId, err)
	}

	zap.L().Info("Depreciation recorded in Formance",
		zap.String("asset_id", p.AssetId),
		zap.String("amount", p.Amount().StringFixed(2)),
		zap.String("book_value", p.Current.StringFixed(2)))
	return nil
}

// depreciationTransaction builds the posting, or reports false when there is
// no decrease to record.
func (j *Journal) depreciationTransaction(p models.DepreciationPosting) (shared.V2PostTransaction, bool) {
	amount := p.Amount()
	if !amount.IsPositive() {
		return shared.V2PostTransaction{}, false
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(depreciationReference(p)),
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptDepreciation,
			Vars: map[string]string{
				"currency":            formanceAsset(j.currency),
				"amount":              amount.Shift(int32(precisionFor(j.currency))).BigInt().String(),
				"asset_account":       assetAccount(p.AssetId),
				"asset_id":            p.AssetId,
				"asset_code":          p.AssetCode,
				"previous_book_value": p.Previous.StringFixed(2),
				"book_value":          p.Current.StringFixed(2),
			},
		},
	}
	if !p.At.IsZero() {
		at := p.At.UTC()
		postTx.Timestamp = &at
	}
	return postTx, true
}

// depreciationReference is "depr:<asset id>:<date>:<previous>:<book value>".
// The previous value keeps a later decrease to an already posted book value
// (after a cost edit) from colliding with the earlier posting.
func depreciationReference(p models.DepreciationPosting) string {
	return fmt.Sprintf("depr:%s:%s:%s:%s",
		p.AssetId, p.At.UTC().Format("20060102"), p.Previous.StringFixed(2), p.Current.StringFixed(2))
}

func assetAccount(assetId string) string {
	return "assets:" + assetId + ":value"
}

func strPtr(s string) *string { return &s }
