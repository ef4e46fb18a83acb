package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statuses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validCatalog = `statuses:
  - name: New
    color: "#2563eb"
  - name: Functional
    color: "#16a34a"
  - name: Under Repair
  - name: Defective
    color: "#dc2626"
`

func TestLoadStatusCatalog(t *testing.T) {
	statuses, err := LoadStatusCatalog(writeCatalog(t, validCatalog))
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	assert.Equal(t, "Under Repair", statuses[2].Name)
	assert.Equal(t, "#dc2626", statuses[3].Color)
}

func TestLoadStatusCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", "statuses:\n  - color: red\n"},
		{"duplicate", "statuses:\n  - name: New\n  - name: New\n  - name: Functional\n  - name: Defective\n"},
		{"padded name", "statuses:\n  - name: \" New\"\n"},
		{"missing Functional", "statuses:\n  - name: New\n  - name: Defective\n"},
		{"not yaml", "statuses: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadStatusCatalog(writeCatalog(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadStatusCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSeedStatuses_Idempotent(t *testing.T) {
	s := testutil.OpenStore(t)
	ctx := context.Background()
	statuses, err := LoadStatusCatalog(writeCatalog(t, validCatalog))
	require.NoError(t, err)

	first, err := SeedStatuses(ctx, s, statuses)
	require.NoError(t, err)
	second, err := SeedStatuses(ctx, s, statuses)
	require.NoError(t, err)
	assert.Equal(t, first[0].Id, second[0].Id)

	all, err := s.ListStatuses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	functional, err := s.GetStatusByName(ctx, models.StatusFunctional)
	require.NoError(t, err)
	assert.Equal(t, "#16a34a", functional.Color)
}

func TestExitCode(t *testing.T) {
	var result models.BatchResult
	result.Skip("a", "A", "no change")
	assert.Equal(t, 0, ExitCode(result))
	result.Fail("b", "B", errors.New("boom"))
	assert.Equal(t, 1, ExitCode(result))
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(errors.New("sync /dev/stderr: inappropriate ioctl for device")))
	assert.False(t, isIgnorableSyncError(errors.New("disk full")))
}
