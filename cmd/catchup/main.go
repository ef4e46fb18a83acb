package main

import (
	"context"
	"os"

	"asset-lifecycle-go/internal/common"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/scheduler"
)

// catchup re-runs book value recalculation and status transitions once,
// for use after the scheduler missed its firings.
func main() {
	os.Exit(common.RunBatch(func(ctx context.Context, services *common.Services) models.BatchResult {
		return scheduler.Catchup(services.Engine)(ctx)
	}))
}
