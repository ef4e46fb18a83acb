package main

import (
	"context"
	"flag"
	"fmt"

	"asset-lifecycle-go/internal/common"
	"asset-lifecycle-go/internal/config"

	"go.uber.org/zap"
)

// setup migrates the database and seeds the status catalog. Safe to rerun.
func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	catalogFile := flag.String("statuses", cfg.Lifecycle.StatusCatalogFile, "Path to the status catalog YAML")
	flag.Parse()

	zap.L().Info("Loading status catalog", zap.String("file", *catalogFile))
	catalog, err := common.LoadStatusCatalog(*catalogFile)
	if err != nil {
		zap.L().Fatal("Failed to load status catalog", zap.Error(err))
	}

	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	statuses, err := common.SeedStatuses(ctx, dbService, catalog)
	if err != nil {
		zap.L().Fatal("Failed to seed statuses", zap.Error(err))
	}

	common.PrintHeader("Status catalog", common.DefaultWidth)
	for i, status := range statuses {
		color := status.Color
		if color == "" {
			color = "-"
		}
		fmt.Printf("%s%-20s %s\n", common.BoxPrefix(i == len(statuses)-1), status.Name, color)
	}
	common.PrintFooter(fmt.Sprintf("Seeded %d statuses", len(statuses)), common.DefaultWidth)
}
