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

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/ledger"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/go-playground/validator/v10"
)

var (
	ErrAlreadyDefective = errors.New("asset is already defective")
	ErrNotDepreciable   = errors.New("asset is not depreciable")
	ErrNotAssigned      = errors.New("asset is not assigned")
	ErrInvalidInput     = errors.New("invalid asset input")
)

// Journal receives book value decreases after they commit.
type Journal interface {
	RecordDepreciation(ctx context.Context, posting models.DepreciationPosting) error
}

// EngineConfig holds the collaborators of an Engine.
type EngineConfig struct {
	Store     store.Store
	Ledger    *ledger.Ledger
	Clock     clock.Clock
	Lifecycle models.LifecycleConfig
	Journal   Journal // optional
}

// Engine applies time-driven and user-driven changes to assets. Every change
// is written together with its ledger entry.
type Engine struct {
	store    store.Store
	ledger   *ledger.Ledger
	clock    clock.Clock
	cfg      models.LifecycleConfig
	journal  Journal
	validate *validator.Validate
}

func NewEngine(cfg EngineConfig) *Engine {
	c := cfg.Clock
	if c == nil {
		c = clock.System()
	}
	l := cfg.Ledger
	if l == nil {
		l = ledger.New(cfg.Store, c)
	}
	lc := cfg.Lifecycle
	if lc.NewAssetGrace <= 0 {
		lc.NewAssetGrace = DefaultNewAssetGrace
	}
	if lc.DefectiveRetentionMonths <= 0 {
		lc.DefectiveRetentionMonths = DefaultDefectiveRetentionMonths
	}
	if lc.AssetCodePrefix == "" {
		lc.AssetCodePrefix = DefaultAssetCodePrefix
	}
	return &Engine{
		store:    cfg.Store,
		ledger:   l,
		clock:    c,
		cfg:      lc,
		journal:  cfg.Journal,
		validate: validator.New(),
	}
}

// withAsset loads the asset inside a transaction and hands it to fn. A nil
// return from fn commits.
func (e *Engine) withAsset(ctx context.Context, assetId string, fn func(tx store.Tx, asset *models.Asset) error) (*models.Asset, error) {
	var result *models.Asset
	err := e.store.InTx(ctx, func(tx store.Tx) error {
		asset, err := tx.GetAsset(ctx, assetId)
		if err != nil {
			return err
		}
		if err := fn(tx, asset); err != nil {
			return err
		}
		result = asset
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) statusByName(ctx context.Context, r store.Reader, name string) (*models.Status, error) {
	status, err := r.GetStatusByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("required status %q: %w", name, err)
	}
	return status, nil
}

func strPtr(s string) *string {
	return &s
}
