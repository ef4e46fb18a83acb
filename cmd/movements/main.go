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
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/common"
	"asset-lifecycle-go/internal/config"
	"asset-lifecycle-go/internal/ledger"
	"asset-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

// movements pages through the ledger, or tombstones one entry with
// --tombstone.
func main() {
	os.Exit(run())
}

func run() int {
	subject := flag.String("subject", "", "Only entries about this subject id")
	subjectType := flag.String("type", "", "Only entries about this subject type (asset, component, inventory)")
	kinds := flag.String("kinds", "", "Comma-separated movement kinds")
	actor := flag.String("actor", "", "Only entries recorded by this actor")
	cursor := flag.String("cursor", "", "Cursor from a previous page")
	limit := flag.Int("limit", 50, "Page size")
	includeDeleted := flag.Bool("include-deleted", false, "Include tombstoned entries")
	tombstone := flag.String("tombstone", "", "Tombstone the entry with this id")
	reason := flag.String("reason", "", "Reason for --tombstone")
	actorId := flag.String("as", "", "Actor id recorded on --tombstone")
	flag.Parse()

	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load config", zap.Error(err))
		return 1
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize database", zap.Error(err))
		return 1
	}
	defer dbService.Close()

	l := ledger.New(dbService, clock.System())

	if *tombstone != "" {
		if *actorId != "" {
			ctx = models.WithProvenance(ctx, models.Provenance{ActorId: *actorId})
		}
		if err := l.Tombstone(ctx, *tombstone, *reason); err != nil {
			zap.L().Error("Failed to tombstone entry", zap.String("id", *tombstone), zap.Error(err))
			return 1
		}
		fmt.Printf("Tombstoned %s\n", *tombstone)
		return 0
	}

	filter := ledger.Filter{
		SubjectType:    models.SubjectType(*subjectType),
		SubjectId:      *subject,
		ActorId:        *actor,
		IncludeDeleted: *includeDeleted,
		Cursor:         *cursor,
		Limit:          *limit,
	}
	for _, kind := range strings.Split(*kinds, ",") {
		if kind = strings.TrimSpace(kind); kind != "" {
			filter.Kinds = append(filter.Kinds, models.MovementKind(kind))
		}
	}

	page, err := l.List(ctx, filter)
	if err != nil {
		zap.L().Error("Failed to list movements", zap.Error(err))
		return 1
	}

	common.PrintHeader(fmt.Sprintf("Movements (%d)", len(page.Entries)), common.WideWidth)
	for i, m := range page.Entries {
		isLast := i == len(page.Entries)-1
		subjectId := "-"
		if m.SubjectId != nil {
			subjectId = *m.SubjectId
		}
		marker := ""
		if m.Tombstoned() {
			marker = " [deleted]"
		}
		fmt.Printf("%s%s  %-22s %s %s  by %s%s\n", common.BoxPrefix(isLast),
			m.MovedAt.Format(time.RFC3339), m.Kind, m.SubjectType, subjectId, m.ActorId, marker)
		for key, change := range m.Metadata {
			fmt.Printf("%s  %s: %s -> %s\n", common.BoxDetailPrefix(isLast), key, orDash(change.Old), orDash(change.New))
		}
	}
	if page.NextCursor != "" {
		common.PrintFooter("Next page: --cursor "+page.NextCursor, common.WideWidth)
	} else {
		common.PrintFooter("End of history", common.WideWidth)
	}
	return 0
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
