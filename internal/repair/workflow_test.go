package repair

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/database"
	"asset-lifecycle-go/internal/documents"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"
	"asset-lifecycle-go/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	workflow *Workflow
	store    *database.Service
	clock    *clock.Fixed
	statuses map[string]*models.Status
	asset    *models.Asset
}

func setup(t *testing.T) *fixture {
	t.Helper()
	s := testutil.OpenStore(t)
	statuses := testutil.SeedStatuses(t, s)
	c := clock.NewFixed(t0)
	docs, err := documents.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	return &fixture{
		workflow: NewWorkflow(Config{Store: s, Clock: c, Documents: docs}),
		store:    s,
		clock:    c,
		statuses: statuses,
		asset:    testutil.SeedAsset(t, s, statuses[models.StatusFunctional], t0.AddDate(-1, 0, 0)),
	}
}

func (f *fixture) open(t *testing.T) *models.Repair {
	t.Helper()
	due := t0.AddDate(0, 0, 7)
	r, err := f.workflow.Open(context.Background(), OpenInput{
		AssetId:            f.asset.Id,
		VendorId:           "vendor-1",
		Description:        "Cracked screen",
		ExpectedReturnDate: &due,
	})
	require.NoError(t, err)
	return r
}

func ptr(s string) *string { return &s }

func TestWorkflow_PendingToCompleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)
	assert.Equal(t, models.RepairPending, r.State)

	_, err := f.workflow.Update(ctx, r.Id, UpdateInput{InvoiceNo: ptr("INV-1")})
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Contains(t, err.Error(), "Completed")

	r, err = f.workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByBranchId: ptr("branch-7")})
	require.NoError(t, err)
	assert.Equal(t, models.RepairInRepair, r.State)
	assert.Equal(t, "branch-7", *r.DeliveredByBranchId)
	assert.Len(t, testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairInProgress), 1)

	r, err = f.workflow.Complete(ctx, r.Id, CompleteInput{RepairCost: decimal.NewFromInt(1500), InvoiceNo: ptr("INV-1")})
	require.NoError(t, err)
	assert.Equal(t, models.RepairCompleted, r.State)

	completed := testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "1500.00", *completed[0].Metadata["repair_cost"].New)
	assert.Equal(t, r.Id, *completed[0].Metadata["repair_id"].New)
}

func TestWorkflow_CannotSkipInRepair(t *testing.T) {
	f := setup(t)
	r := f.open(t)

	_, err := f.workflow.Complete(context.Background(), r.Id, CompleteInput{RepairCost: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, ErrPrecondition)

	got, err := f.store.GetRepair(context.Background(), r.Id)
	require.NoError(t, err)
	assert.Equal(t, models.RepairPending, got.State)
	assert.Empty(t, testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairCompleted))
}

func TestWorkflow_StartRequiresOneAttribution(t *testing.T) {
	f := setup(t)
	r := f.open(t)
	ctx := context.Background()

	_, err := f.workflow.StartRepair(ctx, r.Id, StartInput{})
	require.ErrorIs(t, err, ErrPrecondition)

	_, err = f.workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByEmployee: ptr("emp-1"), DeliveredByBranchId: ptr("branch-1")})
	require.ErrorIs(t, err, ErrPrecondition)
}

func TestWorkflow_CompleteRejectsNonPositiveCost(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)
	_, err := f.workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByEmployee: ptr("emp-1")})
	require.NoError(t, err)

	_, err = f.workflow.Complete(ctx, r.Id, CompleteInput{RepairCost: decimal.Zero})
	require.ErrorIs(t, err, ErrPrecondition)
}

func TestWorkflow_SingleActiveRepair(t *testing.T) {
	f := setup(t)
	f.open(t)

	_, err := f.workflow.Open(context.Background(), OpenInput{AssetId: f.asset.Id, VendorId: "vendor-2"})
	require.ErrorIs(t, err, store.ErrActiveRepairExists)
}

func TestWorkflow_AssetStatusFollowsRepair(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)

	asset, err := f.store.GetAsset(ctx, f.asset.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderRepair, asset.StatusName)

	_, err = f.workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByEmployee: ptr("emp-1")})
	require.NoError(t, err)
	_, err = f.workflow.Complete(ctx, r.Id, CompleteInput{RepairCost: decimal.NewFromInt(250)})
	require.NoError(t, err)

	f.clock.Advance(48 * time.Hour)
	r, err = f.workflow.Return(ctx, r.Id, ReturnInput{})
	require.NoError(t, err)
	assert.Equal(t, models.RepairReturned, r.State)
	require.NotNil(t, r.ActualReturnDate)
	assert.True(t, r.ActualReturnDate.Equal(t0.Add(48*time.Hour)))

	asset, err = f.store.GetAsset(ctx, f.asset.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFunctional, asset.StatusName)
	assert.Len(t, testutil.Movements(t, f.store, f.asset.Id, models.MovementStatusChanged), 2)

	// Returned is terminal, and a new repair may now be opened.
	_, err = f.workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByEmployee: ptr("emp-1")})
	require.ErrorIs(t, err, ErrPrecondition)
	f.open(t)
}

func TestWorkflow_UpdateRecordsChangesOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)

	_, err := f.workflow.Update(ctx, r.Id, UpdateInput{VendorId: ptr("vendor-1")})
	require.NoError(t, err)
	assert.Empty(t, testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairUpdated))

	r, err = f.workflow.Update(ctx, r.Id, UpdateInput{VendorId: ptr("vendor-9"), Description: ptr("Battery swap")})
	require.NoError(t, err)
	assert.Equal(t, "vendor-9", r.VendorId)

	updates := testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairUpdated)
	require.Len(t, updates, 1)
	assert.Equal(t, "vendor-1", *updates[0].Metadata["vendor_id"].Old)
	assert.Equal(t, "vendor-9", *updates[0].Metadata["vendor_id"].New)
}

func TestWorkflow_UpdateSwitchesAttribution(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)
	_, err := f.workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByEmployee: ptr("emp-1")})
	require.NoError(t, err)

	r, err = f.workflow.Update(ctx, r.Id, UpdateInput{DeliveredByBranchId: ptr("branch-2")})
	require.NoError(t, err)
	assert.Nil(t, r.DeliveredByEmployee)
	assert.Equal(t, "branch-2", *r.DeliveredByBranchId)
}

func TestWorkflow_StartStoresJobOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	require.NoError(t, png.Encode(&buf, img))

	r, err := f.workflow.StartRepair(ctx, r.Id, StartInput{
		DeliveredByEmployee: ptr("emp-1"),
		Document:            &documents.Upload{Filename: "job-order.png", Content: &buf},
		Remark:              "Dropped off at the counter",
	})
	require.NoError(t, err)
	require.NotNil(t, r.JobOrderDocument)
	assert.Contains(t, *r.JobOrderDocument, ".png")

	remarks, err := f.workflow.Remarks(ctx, r.Id)
	require.NoError(t, err)
	require.Len(t, remarks, 1)
	assert.Equal(t, models.RemarkStatusChange, remarks[0].Kind)
	assert.Len(t, testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairRemarkAdded), 1)
}

func TestWorkflow_RejectedUploadLeavesRepairPending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)

	_, err := f.workflow.StartRepair(ctx, r.Id, StartInput{
		DeliveredByEmployee: ptr("emp-1"),
		Document:            &documents.Upload{Filename: "notes.txt", Content: bytes.NewBufferString("plain text")},
	})
	require.ErrorIs(t, err, ErrPrecondition)

	got, err := f.store.GetRepair(ctx, r.Id)
	require.NoError(t, err)
	assert.Equal(t, models.RepairPending, got.State)
}

// racingDocuments runs beforeReturn after storing an upload, standing in for
// a concurrent writer that gets to the repair first.
type racingDocuments struct {
	*documents.LocalStore
	beforeReturn func()
	saved        []string
}

func (d *racingDocuments) Save(ctx context.Context, upload documents.Upload) (string, error) {
	ref, err := d.LocalStore.Save(ctx, upload)
	if err == nil {
		d.saved = append(d.saved, ref)
		if d.beforeReturn != nil {
			d.beforeReturn()
		}
	}
	return ref, err
}

func TestWorkflow_FailedStartRemovesUpload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)

	local, err := documents.NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	docs := &racingDocuments{LocalStore: local}
	workflow := NewWorkflow(Config{Store: f.store, Clock: f.clock, Documents: docs})
	docs.beforeReturn = func() {
		_, err := workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByBranchId: ptr("branch-2")})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	_, err = workflow.StartRepair(ctx, r.Id, StartInput{
		DeliveredByEmployee: ptr("emp-1"),
		Document:            &documents.Upload{Filename: "job-order.png", Content: &buf},
	})
	require.ErrorIs(t, err, ErrPrecondition)

	require.Len(t, docs.saved, 1)
	_, err = local.Open(ctx, docs.saved[0])
	assert.ErrorIs(t, err, documents.ErrNotFound)

	got, err := f.store.GetRepair(ctx, r.Id)
	require.NoError(t, err)
	assert.Equal(t, "branch-2", *got.DeliveredByBranchId)
	assert.Nil(t, got.JobOrderDocument)
}

func TestWorkflow_UpdateRejectsBlankAttribution(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)
	_, err := f.workflow.StartRepair(ctx, r.Id, StartInput{DeliveredByEmployee: ptr("emp-1")})
	require.NoError(t, err)

	_, err = f.workflow.Update(ctx, r.Id, UpdateInput{DeliveredByEmployee: ptr("   ")})
	require.ErrorIs(t, err, ErrPrecondition)
	assert.Contains(t, err.Error(), "delivered_by_employee")

	_, err = f.workflow.Update(ctx, r.Id, UpdateInput{DeliveredByBranchId: ptr("")})
	require.ErrorIs(t, err, ErrPrecondition)

	got, err := f.store.GetRepair(ctx, r.Id)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", *got.DeliveredByEmployee)
	assert.Len(t, testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairUpdated), 0)
}

func TestWorkflow_AddRemark(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)

	_, err := f.workflow.AddRemark(ctx, r.Id, models.RemarkKind("gossip"), "hello")
	require.ErrorIs(t, err, ErrPrecondition)
	_, err = f.workflow.AddRemark(ctx, r.Id, models.RemarkPendingReason, "  ")
	require.ErrorIs(t, err, ErrPrecondition)

	ctx = models.WithProvenance(ctx, models.Provenance{ActorId: "user-42"})
	remark, err := f.workflow.AddRemark(ctx, r.Id, models.RemarkPendingReason, "Waiting on parts")
	require.NoError(t, err)
	assert.Equal(t, "user-42", remark.ActorId)

	entries := testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairRemarkAdded)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-42", entries[0].ActorId)
	assert.Equal(t, "Waiting on parts", entries[0].Remarks)
}

func TestWorkflow_DeleteKeepsSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t)

	require.NoError(t, f.workflow.Delete(ctx, r.Id, "opened by mistake"))

	_, err := f.store.GetRepair(ctx, r.Id)
	require.ErrorIs(t, err, store.ErrNotFound)

	deleted := testutil.Movements(t, f.store, f.asset.Id, models.MovementRepairDeleted)
	require.Len(t, deleted, 1)
	assert.Contains(t, *deleted[0].Metadata["snapshot"].Old, r.Id)
	assert.Equal(t, "opened by mistake", deleted[0].Reason)

	asset, err := f.store.GetAsset(ctx, f.asset.Id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFunctional, asset.StatusName)
}

func TestReminders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.open(t) // due t0+7d

	report, err := f.workflow.Reminders(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Overdue)
	assert.Empty(t, report.DueSoon)

	f.clock.Set(t0.AddDate(0, 0, 4))
	report, err = f.workflow.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, report.DueSoon, 1)
	assert.Equal(t, r.Id, report.DueSoon[0].Id)

	f.clock.Set(t0.AddDate(0, 0, 8))
	report, err = f.workflow.Reminders(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Overdue, 1)
	assert.Empty(t, report.DueSoon)
}

func TestIsOverdue_ReturnedNeverOverdue(t *testing.T) {
	due := t0
	r := &models.Repair{State: models.RepairReturned, ExpectedReturnDate: &due}
	assert.False(t, IsOverdue(r, t0.AddDate(1, 0, 0)))
	assert.False(t, IsDueSoon(r, t0, DefaultDueSoonWindow))
}
