package main

import (
	"context"
	"os"

	"asset-lifecycle-go/internal/common"
	"asset-lifecycle-go/internal/models"
)

func main() {
	os.Exit(common.RunBatch(func(ctx context.Context, services *common.Services) models.BatchResult {
		return services.Engine.TransitionStatuses(ctx)
	}))
}
