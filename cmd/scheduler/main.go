/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asset-lifecycle-go/internal/common"
	"asset-lifecycle-go/internal/config"
	"asset-lifecycle-go/internal/metrics"
	"asset-lifecycle-go/internal/ops"
	"asset-lifecycle-go/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = common.InitializeLogger()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting asset lifecycle scheduler",
		zap.String("timezone", cfg.Schedule.Location.String()))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	var locker scheduler.Locker
	if cfg.Redis.Address != "" {
		redisLocker, err := scheduler.NewRedisLocker(ctx, cfg.Redis.Address, cfg.Redis.LockTTL)
		if err != nil {
			zap.L().Fatal("Failed to connect job lock", zap.Error(err))
		}
		defer func() { _ = redisLocker.Close() }()
		locker = redisLocker
	} else {
		zap.L().Info("REDIS_ADDRESS not set; jobs run without a cross-process lock")
	}

	sched := scheduler.New(scheduler.Config{
		Jobs:       scheduler.DefaultJobs(cfg.Schedule, services.Engine, services.Purger),
		Locker:     locker,
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
		RunTimeout: cfg.Schedule.RunTimeout,
	})
	if err := sched.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start scheduler", zap.Error(err))
	}

	opsServer := ops.NewServer(cfg.Ops.Addr, prometheus.DefaultGatherer, services.DbService.Ping, sched)
	go func() {
		if err := opsServer.Start(); err != nil {
			zap.L().Error("Ops server stopped", zap.Error(err))
		}
	}()

	zap.L().Info("Scheduler running", zap.Strings("jobs", sched.Jobs()), zap.String("ops_addr", cfg.Ops.Addr))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping scheduler...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		zap.L().Warn("Ops server shutdown error", zap.Error(err))
	}

	// In-flight runs see the cancellation between items.
	cancel()
	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Scheduler stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Shutdown timeout exceeded, forcing exit")
	}
}
