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

package scheduler

import (
	"context"

	"asset-lifecycle-go/internal/lifecycle"
	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/retention"
)

// Job names, shared with the CLIs.
const (
	JobRecalculateBookValues = lifecycle.OperationRecalculateBookValues
	JobTransitionStatuses    = lifecycle.OperationTransitionStatuses
	JobCatchup               = "catchup"
	JobDeleteDefective       = retention.OperationDeleteDefective
)

// Runner executes one batch.
type Runner func(ctx context.Context) models.BatchResult

// Job is a named batch with its schedule.
type Job struct {
	Name     string
	Schedule Schedule
	Run      Runner
}

// Catchup re-runs book value recalculation and status transitions. Both are
// idempotent, so a sweep after a missed firing only applies what is due.
func Catchup(engine *lifecycle.Engine) Runner {
	return func(ctx context.Context) models.BatchResult {
		result := models.BatchResult{Operation: JobCatchup}
		result.Merge(engine.RecalculateBookValues(ctx))
		if ctx.Err() != nil {
			return result
		}
		result.Merge(engine.TransitionStatuses(ctx))
		return result
	}
}

// DefaultJobs builds the four lifecycle jobs from the schedule config.
func DefaultJobs(cfg models.ScheduleConfig, engine *lifecycle.Engine, purger *retention.Purger) []Job {
	return []Job{
		{
			Name:     JobRecalculateBookValues,
			Schedule: Weekdays{Times: cfg.BookValueTimes, Location: cfg.Location},
			Run:      engine.RecalculateBookValues,
		},
		{
			Name:     JobTransitionStatuses,
			Schedule: Weekdays{Times: cfg.StatusTimes, Location: cfg.Location},
			Run:      engine.TransitionStatuses,
		},
		{
			Name:     JobCatchup,
			Schedule: Hourly(cfg.CatchupStart, cfg.CatchupEnd, cfg.Location),
			Run:      Catchup(engine),
		},
		{
			Name:     JobDeleteDefective,
			Schedule: Daily{Times: cfg.PurgeTimes, Location: cfg.Location},
			Run: func(ctx context.Context) models.BatchResult {
				return purger.Purge(ctx, false)
			},
		},
	}
}
