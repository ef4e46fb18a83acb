package main

import (
	"context"
	"flag"
	"os"

	"asset-lifecycle-go/internal/common"
	"asset-lifecycle-go/internal/models"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "List assets past their retention period without deleting them")
	flag.Parse()

	os.Exit(common.RunBatch(func(ctx context.Context, services *common.Services) models.BatchResult {
		return services.Purger.Purge(ctx, *dryRun)
	}))
}
