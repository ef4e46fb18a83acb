package retention

import (
	"context"
	"testing"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/database"
	"asset-lifecycle-go/internal/lifecycle"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/repair"
	"asset-lifecycle-go/internal/store"
	"asset-lifecycle-go/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Purger, *database.Service, *clock.Fixed, map[string]*models.Status) {
	t.Helper()
	s := testutil.OpenStore(t)
	statuses := testutil.SeedStatuses(t, s)
	c := clock.NewFixed(t0)
	return NewPurger(s, nil, c), s, c, statuses
}

func TestPurge_AfterRetentionPeriod(t *testing.T) {
	purger, s, c, statuses := setup(t)
	ctx := context.Background()
	engine := lifecycle.NewEngine(lifecycle.EngineConfig{Store: s, Clock: c})

	asset := testutil.SeedAsset(t, s, statuses[models.StatusFunctional], t0.AddDate(-1, 0, 0))
	marked, err := engine.MarkDefective(ctx, asset.Id, "screen dead")
	require.NoError(t, err)
	require.NotNil(t, marked.DeleteAfterAt)
	assert.True(t, marked.DeleteAfterAt.Equal(t0.AddDate(0, 1, 0)))

	c.Set(t0.AddDate(0, 0, 29))
	result := purger.Purge(ctx, false)
	assert.Equal(t, 0, result.Total())
	_, err = s.GetAsset(ctx, asset.Id)
	require.NoError(t, err)

	c.Set(t0.AddDate(0, 0, 31))
	result = purger.Purge(ctx, false)
	assert.Equal(t, 1, result.Succeeded())
	assert.False(t, result.HasFailures())

	_, err = s.GetAsset(ctx, asset.Id)
	require.ErrorIs(t, err, store.ErrNotFound)

	// The history of a deleted asset stays readable.
	disposed := testutil.Movements(t, s, asset.Id, models.MovementDisposed)
	require.Len(t, disposed, 1)
	assert.Equal(t, "true", *disposed[0].Metadata["purged"].New)
	assert.Equal(t, models.StatusDefective, *disposed[0].FromStatus)
	assert.Len(t, testutil.Movements(t, s, asset.Id, models.MovementStatusChanged), 1)

	// A second run finds nothing.
	result = purger.Purge(ctx, false)
	assert.Equal(t, 0, result.Total())
}

func TestPurge_NothingDue(t *testing.T) {
	purger, s, _, statuses := setup(t)
	testutil.SeedAsset(t, s, statuses[models.StatusFunctional], t0)
	testutil.SeedAsset(t, s, statuses[models.StatusDefective], t0, testutil.WithDeleteAfter(t0.Add(time.Hour)))

	result := purger.Purge(context.Background(), false)
	assert.Equal(t, 0, result.Total())

	assets, err := s.ListAssets(context.Background(), store.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

func TestPurge_DryRunDeletesNothing(t *testing.T) {
	purger, s, _, statuses := setup(t)
	asset := testutil.SeedAsset(t, s, statuses[models.StatusDefective], t0.AddDate(0, -2, 0),
		testutil.WithDeleteAfter(t0.AddDate(0, 0, -1)))

	result := purger.Purge(context.Background(), true)
	assert.True(t, result.DryRun)
	require.Equal(t, 1, result.Succeeded())
	assert.Contains(t, result.Items[0].Message, "would delete")

	_, err := s.GetAsset(context.Background(), asset.Id)
	require.NoError(t, err)
	assert.Empty(t, testutil.Movements(t, s, asset.Id))
}

func TestPurgeOne_AlreadyDeleted(t *testing.T) {
	purger, s, _, statuses := setup(t)
	ctx := context.Background()
	asset := testutil.SeedAsset(t, s, statuses[models.StatusDefective], t0.AddDate(0, -2, 0),
		testutil.WithDeleteAfter(t0.AddDate(0, 0, -1)))

	skip, err := purger.purgeOne(ctx, asset, t0)
	require.NoError(t, err)
	require.Empty(t, skip)

	// A concurrent run holding the same candidate finds it gone.
	skip, err = purger.purgeOne(ctx, asset, t0)
	require.NoError(t, err)
	assert.Equal(t, "already deleted", skip)
	assert.Len(t, testutil.Movements(t, s, asset.Id, models.MovementDisposed), 1)
}

func TestPurge_CancelledContext(t *testing.T) {
	purger, s, _, statuses := setup(t)
	testutil.SeedAsset(t, s, statuses[models.StatusDefective], t0.AddDate(0, -2, 0),
		testutil.WithDeleteAfter(t0.AddDate(0, 0, -1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := purger.Purge(ctx, false)
	assert.Equal(t, 0, result.Succeeded())

	assets, err := s.ListAssets(context.Background(), store.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}

func ptr(s string) *string { return &s }

func TestPurge_KeepsAssetOutForRepair(t *testing.T) {
	purger, s, c, statuses := setup(t)
	ctx := context.Background()
	engine := lifecycle.NewEngine(lifecycle.EngineConfig{Store: s, Clock: c})
	workflow := repair.NewWorkflow(repair.Config{Store: s, Clock: c})

	asset := testutil.SeedAsset(t, s, statuses[models.StatusFunctional], t0.AddDate(-1, 0, 0))
	_, err := engine.MarkDefective(ctx, asset.Id, "no power")
	require.NoError(t, err)

	r, err := workflow.Open(ctx, repair.OpenInput{AssetId: asset.Id, VendorId: "vendor-1"})
	require.NoError(t, err)
	_, err = workflow.StartRepair(ctx, r.Id, repair.StartInput{DeliveredByEmployee: ptr("emp-3")})
	require.NoError(t, err)

	c.Set(t0.AddDate(0, 1, 2))
	result := purger.Purge(ctx, true)
	require.Equal(t, 1, result.Skipped())

	result = purger.Purge(ctx, false)
	assert.Equal(t, 0, result.Succeeded())
	require.Equal(t, 1, result.Skipped())
	assert.Contains(t, result.Items[0].Message, models.StatusUnderRepair)

	_, err = s.GetAsset(ctx, asset.Id)
	require.NoError(t, err)
	_, err = s.GetRepair(ctx, r.Id)
	require.NoError(t, err)
	assert.Empty(t, testutil.Movements(t, s, asset.Id, models.MovementDisposed))

	// Marked defective again while the repair is still open.
	_, err = engine.MarkDefective(ctx, asset.Id, "vendor gave up")
	require.NoError(t, err)
	c.Set(t0.AddDate(0, 2, 4))
	result = purger.Purge(ctx, false)
	require.Equal(t, 1, result.Skipped())
	assert.Contains(t, result.Items[0].Message, r.Id)
	_, err = s.GetRepair(ctx, r.Id)
	require.NoError(t, err)
}

func TestPurge_RecordsDeletedRepairs(t *testing.T) {
	purger, s, c, statuses := setup(t)
	ctx := context.Background()
	engine := lifecycle.NewEngine(lifecycle.EngineConfig{Store: s, Clock: c})
	workflow := repair.NewWorkflow(repair.Config{Store: s, Clock: c})

	asset := testutil.SeedAsset(t, s, statuses[models.StatusFunctional], t0.AddDate(-1, 0, 0))
	_, err := engine.MarkDefective(ctx, asset.Id, "no power")
	require.NoError(t, err)

	r, err := workflow.Open(ctx, repair.OpenInput{AssetId: asset.Id, VendorId: "vendor-1"})
	require.NoError(t, err)
	_, err = workflow.StartRepair(ctx, r.Id, repair.StartInput{DeliveredByEmployee: ptr("emp-3")})
	require.NoError(t, err)
	_, err = workflow.Complete(ctx, r.Id, repair.CompleteInput{RepairCost: decimal.NewFromInt(1500)})
	require.NoError(t, err)
	_, err = workflow.Return(ctx, r.Id, repair.ReturnInput{})
	require.NoError(t, err)

	returned, err := s.GetAsset(ctx, asset.Id)
	require.NoError(t, err)
	require.Equal(t, models.StatusDefective, returned.StatusName)

	c.Set(t0.AddDate(0, 1, 2))
	result := purger.Purge(ctx, false)
	require.Equal(t, 1, result.Succeeded(), result.Items)

	_, err = s.GetRepair(ctx, r.Id)
	require.ErrorIs(t, err, store.ErrNotFound)

	deleted := testutil.Movements(t, s, asset.Id, models.MovementRepairDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, r.Id, *deleted[0].Metadata["repair_id"].New)
	assert.Equal(t, string(models.RepairReturned), *deleted[0].Metadata["state"].Old)
	assert.Contains(t, *deleted[0].Metadata["snapshot"].Old, r.Id)
	assert.Len(t, testutil.Movements(t, s, asset.Id, models.MovementDisposed), 1)
}
