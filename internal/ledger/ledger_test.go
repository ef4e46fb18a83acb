package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"
	"asset-lifecycle-go/internal/testutil"
)

func statusChange(subjectId string) Entry {
	from, to := models.StatusNew, models.StatusFunctional
	return Entry{
		SubjectType: models.SubjectAsset,
		SubjectId:   subjectId,
		Kind:        models.MovementStatusChanged,
		FromStatus:  &from,
		ToStatus:    &to,
	}
}

func TestValidate(t *testing.T) {
	metadata := func(pairs ...string) models.Metadata {
		m := models.Metadata{}
		for i := 0; i+1 < len(pairs); i += 2 {
			m.Set(pairs[i], "", pairs[i+1])
		}
		return m
	}

	tests := []struct {
		name    string
		entry   Entry
		wantErr error
	}{
		{"status change", statusChange("a1"), nil},
		{"unknown kind", Entry{SubjectType: models.SubjectAsset, SubjectId: "a1", Kind: "teleported"}, ErrUnknownMovementKind},
		{"missing subject", Entry{SubjectType: models.SubjectAsset, Kind: models.MovementCreated}, ErrInvalidEntry},
		{"bad subject type", Entry{SubjectType: "building", SubjectId: "a1", Kind: models.MovementCreated}, ErrInvalidEntry},
		{"status change without target", Entry{SubjectType: models.SubjectAsset, SubjectId: "a1", Kind: models.MovementStatusChanged}, ErrInvalidEntry},
		{"repair completed without cost", Entry{SubjectType: models.SubjectAsset, SubjectId: "a1", Kind: models.MovementRepairCompleted,
			Metadata: metadata(KeyRepairId, "r1", KeyState, "completed")}, ErrInvalidMetadata},
		{"repair completed", Entry{SubjectType: models.SubjectAsset, SubjectId: "a1", Kind: models.MovementRepairCompleted,
			Metadata: metadata(KeyRepairId, "r1", KeyState, "completed", KeyRepairCost, "1500")}, nil},
		{"extra keys accepted", Entry{SubjectType: models.SubjectAsset, SubjectId: "a1", Kind: models.MovementCodeGenerated,
			Metadata: metadata(KeyCode, "AST-2025-00001", "printed", "yes")}, nil},
		{"empty update", Entry{SubjectType: models.SubjectAsset, SubjectId: "a1", Kind: models.MovementUpdated}, ErrInvalidMetadata},
		{"repair update with only id", Entry{SubjectType: models.SubjectAsset, SubjectId: "a1", Kind: models.MovementRepairUpdated,
			Metadata: metadata(KeyRepairId, "r1")}, ErrInvalidMetadata},
		{"inventory operation without subject", Entry{SubjectType: models.SubjectInventory, Kind: models.MovementInventoryOperation,
			Metadata: metadata(KeyOperation, "stock_count")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.entry)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestKindsClosedSet(t *testing.T) {
	if got := len(Kinds()); got != 17 {
		t.Errorf("Expected 17 movement kinds, got %d", got)
	}
}

func TestRecord_StampsProvenance(t *testing.T) {
	s := testutil.OpenStore(t)
	now := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	l := New(s, clock.NewFixed(now))

	ctx := models.WithProvenance(context.Background(), models.Provenance{
		ActorId: "user-7", IpAddress: "10.0.0.7", UserAgent: "browser/1.0",
	})
	movedAt := now.Add(-time.Hour)
	entry := statusChange("asset-1")
	entry.MovedAt = movedAt

	err := s.InTx(ctx, func(tx store.Tx) error {
		_, err := l.Record(ctx, tx, entry)
		return err
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got := testutil.Movements(t, s, "asset-1")
	if len(got) != 1 {
		t.Fatalf("Expected 1 movement, got %d", len(got))
	}
	m := got[0]
	if m.ActorId != "user-7" || m.IpAddress != "10.0.0.7" || m.UserAgent != "browser/1.0" {
		t.Errorf("Expected provenance to be stamped, got %+v", m)
	}
	if !m.MovedAt.Equal(movedAt) || !m.CreatedAt.Equal(now) {
		t.Errorf("Expected moved_at %v and created_at %v, got %v and %v", movedAt, now, m.MovedAt, m.CreatedAt)
	}
}

func TestRecord_DefaultsToSystemActor(t *testing.T) {
	s := testutil.OpenStore(t)
	l := New(s, clock.System())
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		_, err := l.Record(ctx, tx, statusChange("asset-1"))
		return err
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if got := testutil.Movements(t, s, "asset-1"); len(got) != 1 || got[0].ActorId != models.SystemActor {
		t.Errorf("Expected one entry by %s, got %+v", models.SystemActor, got)
	}
}

func TestRecord_RollsBackWithCaller(t *testing.T) {
	s := testutil.OpenStore(t)
	l := New(s, clock.System())
	ctx := context.Background()
	boom := errors.New("state change failed")

	err := s.InTx(ctx, func(tx store.Tx) error {
		if _, err := l.Record(ctx, tx, statusChange("asset-1")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected caller error, got %v", err)
	}
	if got := testutil.Movements(t, s, "asset-1"); len(got) != 0 {
		t.Errorf("Expected rollback to drop the entry, got %d", len(got))
	}
}

func TestRecord_UnknownKindWritesNothing(t *testing.T) {
	s := testutil.OpenStore(t)
	l := New(s, clock.System())
	ctx := context.Background()

	err := s.InTx(ctx, func(tx store.Tx) error {
		_, err := l.Record(ctx, tx, Entry{SubjectType: models.SubjectAsset, SubjectId: "asset-1", Kind: "exploded"})
		return err
	})
	if !errors.Is(err, ErrUnknownMovementKind) {
		t.Fatalf("Expected ErrUnknownMovementKind, got %v", err)
	}
	if got := testutil.Movements(t, s, "asset-1"); len(got) != 0 {
		t.Errorf("Expected no entries, got %d", len(got))
	}
}

func TestListAndTombstone(t *testing.T) {
	s := testutil.OpenStore(t)
	fixed := clock.NewFixed(time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC))
	l := New(s, fixed)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		fixed.Advance(time.Minute)
		err := s.InTx(ctx, func(tx store.Tx) error {
			_, err := l.Record(ctx, tx, statusChange("asset-1"))
			return err
		})
		if err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	var ids []string
	cursor := ""
	for {
		page, err := l.List(ctx, Filter{SubjectId: "asset-1", Limit: 2, Cursor: cursor})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, m := range page.Entries {
			ids = append(ids, m.Id)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	if len(ids) != 5 {
		t.Fatalf("Expected 5 entries across pages, got %d", len(ids))
	}

	if err := l.Tombstone(ctx, ids[0], "entered in error"); err != nil {
		t.Fatalf("Tombstone failed: %v", err)
	}
	if err := l.Tombstone(ctx, ids[0], "again"); !errors.Is(err, ErrAlreadyTombstoned) {
		t.Errorf("Expected ErrAlreadyTombstoned, got %v", err)
	}
	if err := l.Tombstone(ctx, "missing", "reason"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	page, err := l.List(ctx, Filter{SubjectId: "asset-1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Entries) != 4 {
		t.Errorf("Expected 4 visible entries, got %d", len(page.Entries))
	}

	if _, err := l.List(ctx, Filter{Cursor: "not-a-cursor!"}); err == nil {
		t.Error("Expected malformed cursor to be rejected")
	}
	if _, err := l.List(ctx, Filter{Kinds: []models.MovementKind{"bogus"}}); !errors.Is(err, ErrUnknownMovementKind) {
		t.Errorf("Expected ErrUnknownMovementKind, got %v", err)
	}
}
