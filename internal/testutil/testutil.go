// Package testutil opens throwaway SQLite stores for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"asset-lifecycle-go/internal/database"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultStatuses is the catalog most tests run against.
var DefaultStatuses = []string{
	models.StatusNew,
	models.StatusFunctional,
	models.StatusUnderRepair,
	models.StatusDefective,
	models.StatusRetired,
}

// OpenStore returns a migrated store in a temp dir, closed on test cleanup.
func OpenStore(t *testing.T) *database.Service {
	t.Helper()
	svc, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "assets.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

// SeedStatuses upserts the named statuses and returns them by name.
func SeedStatuses(t *testing.T, s store.Store, names ...string) map[string]*models.Status {
	t.Helper()
	if len(names) == 0 {
		names = DefaultStatuses
	}
	statuses := make(map[string]*models.Status, len(names))
	err := s.InTx(context.Background(), func(tx store.Tx) error {
		for _, name := range names {
			status, err := tx.UpsertStatus(context.Background(), name, "")
			if err != nil {
				return err
			}
			statuses[name] = status
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to seed statuses: %v", err)
	}
	return statuses
}

// AssetOption customizes a seeded asset.
type AssetOption func(*models.Asset)

// WithDepreciation sets the book value inputs.
func WithDepreciation(cost int64, purchase time.Time, lifeYears int) AssetOption {
	return func(a *models.Asset) {
		a.AcquisitionCost = decimal.NewNullDecimal(decimal.NewFromInt(cost))
		a.PurchaseDate = &purchase
		a.UsefulLifeYears = &lifeYears
	}
}

// WithDeleteAfter sets the retention deadline.
func WithDeleteAfter(at time.Time) AssetOption {
	return func(a *models.Asset) { a.DeleteAfterAt = &at }
}

// SeedAsset inserts an asset directly, bypassing the ledger.
func SeedAsset(t *testing.T, s store.Store, status *models.Status, createdAt time.Time, opts ...AssetOption) *models.Asset {
	t.Helper()
	asset := &models.Asset{
		Id:         uuid.New().String(),
		Name:       "Test asset",
		StatusId:   status.Id,
		StatusName: status.Name,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	for _, opt := range opts {
		opt(asset)
	}
	err := s.InTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertAsset(context.Background(), asset)
	})
	if err != nil {
		t.Fatalf("Failed to seed asset: %v", err)
	}
	return asset
}

// Movements returns every ledger entry about subjectId, tombstoned included.
func Movements(t *testing.T, s store.Store, subjectId string, kinds ...models.MovementKind) []models.Movement {
	t.Helper()
	movements, err := s.ListMovements(context.Background(), store.MovementQuery{
		SubjectId:      subjectId,
		Kinds:          kinds,
		IncludeDeleted: true,
	})
	if err != nil {
		t.Fatalf("Failed to list movements: %v", err)
	}
	return movements
}
