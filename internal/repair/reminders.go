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

package repair

import (
	"context"
	"time"

	"asset-lifecycle-go/internal/models"
	"asset-lifecycle-go/internal/store"
)

// IsOverdue reports whether an unreturned repair is past its expected
// return date.
func IsOverdue(r *models.Repair, now time.Time) bool {
	if r.State == models.RepairReturned || r.ExpectedReturnDate == nil {
		return false
	}
	return now.After(*r.ExpectedReturnDate)
}

// IsDueSoon reports whether an unreturned repair falls due within window and
// is not yet overdue.
func IsDueSoon(r *models.Repair, now time.Time, window time.Duration) bool {
	if r.State == models.RepairReturned || r.ExpectedReturnDate == nil || IsOverdue(r, now) {
		return false
	}
	return !r.ExpectedReturnDate.After(now.Add(window))
}

// ReminderReport splits open repairs with a due date by urgency.
type ReminderReport struct {
	Overdue []models.Repair
	DueSoon []models.Repair
}

// Reminders lists open repairs that are overdue or due soon.
func (w *Workflow) Reminders(ctx context.Context) (*ReminderReport, error) {
	repairs, err := w.store.ListRepairs(ctx, store.RepairFilter{OnlyOpen: true, HasDueDate: true})
	if err != nil {
		return nil, err
	}

	now := w.clock.Now()
	report := &ReminderReport{}
	for i := range repairs {
		switch {
		case IsOverdue(&repairs[i], now):
			report.Overdue = append(report.Overdue, repairs[i])
		case IsDueSoon(&repairs[i], now, w.dueSoonWindow):
			report.DueSoon = append(report.DueSoon, repairs[i])
		}
	}
	return report, nil
}
