package common

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"asset-lifecycle-go/internal/config"
	"asset-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

// RunBatch wires the services, runs one batch operation, prints its
// per-item summary and returns the process exit code. SIGINT/SIGTERM
// cancel the run between items.
func RunBatch(run func(ctx context.Context, services *Services) models.BatchResult) int {
	_, loggerCleanup := InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load config", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize services", zap.Error(err))
		return 1
	}
	defer services.Close()

	result := run(ctx, services)
	PrintBatchResult(result)

	if ctx.Err() != nil {
		zap.L().Warn("Run interrupted; remaining items were not processed", zap.String("operation", result.Operation))
		return 1
	}
	return ExitCode(result)
}
