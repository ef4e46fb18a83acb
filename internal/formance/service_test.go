package formance

import (
	"context"
	"testing"
	"time"

	"asset-lifecycle-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		currency string
		want     string
	}{
		{"PHP", "PHP/2"},
		{"USD", "USD/2"},
		{"JPY", "JPY/0"},
		{"XYZ", "XYZ/2"}, // default precision
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.currency); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.currency, got, tt.want)
		}
	}
}

func TestIsConflictError(t *testing.T) {
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
}

func TestNewJournal_RequiresCredentials(t *testing.T) {
	_, err := NewJournal(context.Background(), models.FormanceConfig{StackURL: "http://localhost"})
	require.Error(t, err)
}

func TestDepreciationTransaction(t *testing.T) {
	j := &Journal{ledger: "test", currency: "PHP"}
	at := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	p := models.DepreciationPosting{
		AssetId:   "a-1",
		AssetCode: "AST-2025-00001",
		Previous:  decimal.RequireFromString("96065.75"),
		Current:   decimal.RequireFromString("96000.00"),
		At:        at,
	}

	postTx, ok := j.depreciationTransaction(p)
	require.True(t, ok)
	assert.Equal(t, "depr:a-1:20250106:96065.75:96000.00", *postTx.Reference)
	require.NotNil(t, postTx.Timestamp)
	assert.True(t, postTx.Timestamp.Equal(at))

	vars := postTx.Script.Vars
	assert.Equal(t, "6575", vars["amount"])
	assert.Equal(t, "PHP/2", vars["currency"])
	assert.Equal(t, "assets:a-1:value", vars["asset_account"])
	assert.Equal(t, "96065.75", vars["previous_book_value"])
}

func TestDepreciationReference_DistinctAfterCostEdit(t *testing.T) {
	at := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	first := models.DepreciationPosting{
		AssetId:  "a-1",
		Previous: decimal.RequireFromString("96065.75"),
		Current:  decimal.RequireFromString("96000.00"),
		At:       at,
	}
	// The cost was raised, then the value fell back to 96000.00 later on.
	again := models.DepreciationPosting{
		AssetId:  "a-1",
		Previous: decimal.RequireFromString("99000.00"),
		Current:  decimal.RequireFromString("96000.00"),
		At:       at,
	}
	later := first
	later.At = at.AddDate(0, 2, 0)

	assert.NotEqual(t, depreciationReference(first), depreciationReference(again))
	assert.NotEqual(t, depreciationReference(first), depreciationReference(later))
	assert.Equal(t, depreciationReference(first), depreciationReference(first))
}

func TestDepreciationTransaction_NoDecrease(t *testing.T) {
	j := &Journal{ledger: "test", currency: "PHP"}
	p := models.DepreciationPosting{
		AssetId:  "a-1",
		Previous: decimal.NewFromInt(100),
		Current:  decimal.NewFromInt(100),
	}
	_, ok := j.depreciationTransaction(p)
	assert.False(t, ok)

	// RecordDepreciation never reaches the client for a zero amount.
	require.NoError(t, j.RecordDepreciation(context.Background(), p))
}
