package common

import (
	"context"
	"io"
	"log"
	"strings"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/database"
	"asset-lifecycle-go/internal/documents"
	"asset-lifecycle-go/internal/formance"
	"asset-lifecycle-go/internal/ledger"
	"asset-lifecycle-go/internal/lifecycle"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/repair"
	"asset-lifecycle-go/internal/retention"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Ledger    *ledger.Ledger
	Engine    *lifecycle.Engine
	Workflow  *repair.Workflow
	Purger    *retention.Purger
	Documents documents.Store
	Journal   *formance.Journal // nil unless FORMANCE_STACK_URL is set
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the database and wires every engine on top of it.
// The Formance journal is optional: when it cannot be reached the engines run
// without it.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	docs, err := documents.New(ctx, cfg.Documents)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	var journal *formance.Journal
	var lifecycleJournal lifecycle.Journal
	if cfg.Formance.Enabled() {
		journal, err = formance.NewJournal(ctx, cfg.Formance)
		if err != nil {
			zap.L().Warn("Depreciation journal unavailable; continuing without it", zap.Error(err))
		} else {
			lifecycleJournal = journal
		}
	}

	c := clock.System()
	l := ledger.New(dbService, c)

	return &Services{
		DbService: dbService,
		Ledger:    l,
		Engine: lifecycle.NewEngine(lifecycle.EngineConfig{
			Store:     dbService,
			Ledger:    l,
			Clock:     c,
			Lifecycle: cfg.Lifecycle,
			Journal:   lifecycleJournal,
		}),
		Workflow: repair.NewWorkflow(repair.Config{
			Store:         dbService,
			Ledger:        l,
			Clock:         c,
			Documents:     docs,
			DueSoonWindow: cfg.Lifecycle.RepairDueSoonWindow,
		}),
		Purger:    retention.NewPurger(dbService, l, c),
		Documents: docs,
		Journal:   journal,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for read-only operations like listing movements
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if closer, ok := cs.Documents.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			zap.L().Warn("Failed to close document store", zap.Error(err))
		}
	}
	if cs.Journal != nil {
		cs.Journal.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
