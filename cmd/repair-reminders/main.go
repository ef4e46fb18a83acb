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
	"fmt"
	"os"
	"time"

	"asset-lifecycle-go/internal/common"
	"asset-lifecycle-go/internal/config"
	"asset-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

// repair-reminders lists open repairs that are overdue or due soon. It exits
// 2 when anything is overdue so it can gate a notification step.
func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load config", zap.Error(err))
		return 1
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize services", zap.Error(err))
		return 1
	}
	defer services.Close()

	report, err := services.Workflow.Reminders(ctx)
	if err != nil {
		zap.L().Error("Failed to compute reminders", zap.Error(err))
		return 1
	}

	printRepairs("Overdue repairs", report.Overdue)
	printRepairs("Repairs due soon", report.DueSoon)

	if len(report.Overdue) > 0 {
		return 2
	}
	return 0
}

func printRepairs(title string, repairs []models.Repair) {
	common.PrintHeader(fmt.Sprintf("%s (%d)", title, len(repairs)), common.DefaultWidth)
	for i, r := range repairs {
		isLast := i == len(repairs)-1
		fmt.Printf("%srepair %s  asset %s  vendor %s\n", common.BoxPrefix(isLast), r.Id, r.AssetId, r.VendorId)
		fmt.Printf("%s  %s, expected back %s\n", common.BoxDetailPrefix(isLast),
			r.State.Label(), r.ExpectedReturnDate.Format(time.DateOnly))
	}
}
