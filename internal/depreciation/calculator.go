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

package depreciation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Floor is the minimum book value. Assets never depreciate to zero.
var Floor = decimal.NewFromInt(1)

const daysPerYear = 365

// Input carries the asset fields the straight-line formula needs. Nil or
// invalid fields mark the asset as not yet depreciable.
type Input struct {
	Cost            decimal.NullDecimal
	PurchaseDate    *time.Time
	UsefulLifeYears *int
}

// DaysElapsed returns the whole days from purchase to asOf, clamped at zero
// for future-dated purchases.
func DaysElapsed(purchase, asOf time.Time) int64 {
	if !asOf.After(purchase) {
		return 0
	}
	return int64(asOf.Sub(purchase) / (24 * time.Hour))
}

// BookValue computes max(Floor, C - C*days/(L*365)) rounded to cents. ok is
// false when the input is incomplete or the useful life is not positive.
func BookValue(in Input, asOf time.Time) (value decimal.Decimal, ok bool) {
	if !in.Cost.Valid || in.PurchaseDate == nil || in.UsefulLifeYears == nil || *in.UsefulLifeYears <= 0 {
		return decimal.Decimal{}, false
	}

	cost := in.Cost.Decimal
	days := decimal.NewFromInt(DaysElapsed(*in.PurchaseDate, asOf))
	lifeDays := decimal.NewFromInt(int64(*in.UsefulLifeYears) * daysPerYear)

	// Multiply before dividing so the daily rate is never rounded on its own.
	diminished := cost.Mul(days).Div(lifeDays)
	book := cost.Sub(diminished).Round(2)

	if book.LessThan(Floor) {
		return Floor, true
	}
	return book, true
}

// DailyDepreciation returns C / (L*365), or zero when the input is not
// depreciable.
func DailyDepreciation(in Input) decimal.Decimal {
	if !in.Cost.Valid || in.UsefulLifeYears == nil || *in.UsefulLifeYears <= 0 {
		return decimal.Zero
	}
	return in.Cost.Decimal.Div(decimal.NewFromInt(int64(*in.UsefulLifeYears) * daysPerYear))
}
