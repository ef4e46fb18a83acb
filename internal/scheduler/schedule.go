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
	"time"

	"asset-lifecycle-go/internal/models"
)

// Schedule yields the next firing strictly after a given instant. A zero
// time means the job never fires again.
type Schedule interface {
	Next(after time.Time) time.Time
}

// ScheduleFunc adapts a function to Schedule.
type ScheduleFunc func(after time.Time) time.Time

func (f ScheduleFunc) Next(after time.Time) time.Time { return f(after) }

// Weekdays fires at fixed wall-clock times, Monday through Friday, in its
// location.
type Weekdays struct {
	Times    []models.TimeOfDay
	Location *time.Location
}

// Hourly returns a weekday schedule firing every hour from start through end
// inclusive.
func Hourly(start, end models.TimeOfDay, loc *time.Location) Weekdays {
	var times []models.TimeOfDay
	for h := start.Hour; h <= end.Hour; h++ {
		t := models.TimeOfDay{Hour: h, Minute: start.Minute}
		if h == end.Hour && t.Minute > end.Minute {
			break
		}
		times = append(times, t)
	}
	return Weekdays{Times: times, Location: loc}
}

func (s Weekdays) Next(after time.Time) time.Time {
	if len(s.Times) == 0 {
		return time.Time{}
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	local := after.In(loc)
	// A full week always contains a weekday.
	for offset := 0; offset < 8; offset++ {
		day := time.Date(local.Year(), local.Month(), local.Day()+offset, 0, 0, 0, 0, loc)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}

		var best time.Time
		for _, t := range s.Times {
			candidate := time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
			if !candidate.After(after) {
				continue
			}
			if best.IsZero() || candidate.Before(best) {
				best = candidate
			}
		}
		if !best.IsZero() {
			return best
		}
	}
	return time.Time{}
}

// Daily fires at fixed wall-clock times every day, weekends included.
type Daily struct {
	Times    []models.TimeOfDay
	Location *time.Location
}

func (s Daily) Next(after time.Time) time.Time {
	if len(s.Times) == 0 {
		return time.Time{}
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	local := after.In(loc)
	var best time.Time
	for offset := 0; offset < 2; offset++ {
		for _, t := range s.Times {
			candidate := time.Date(local.Year(), local.Month(), local.Day()+offset, t.Hour, t.Minute, 0, 0, loc)
			if candidate.After(after) && (best.IsZero() || candidate.Before(best)) {
				best = candidate
			}
		}
		if !best.IsZero() {
			return best
		}
	}
	return best
}
