package depreciation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func input(cost int64, purchase time.Time, life int) Input {
	return Input{
		Cost:            decimal.NewNullDecimal(decimal.NewFromInt(cost)),
		PurchaseDate:    &purchase,
		UsefulLifeYears: &life,
	}
}

func TestBookValue_OneYearOfFive(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	got, ok := BookValue(input(120000, t0, 5), t0.AddDate(0, 0, 365))
	if !ok {
		t.Fatal("Expected asset to be depreciable")
	}
	if !got.Equal(decimal.NewFromInt(96000)) {
		t.Errorf("Expected 96000, got %s", got)
	}

	daily := DailyDepreciation(input(120000, t0, 5)).Round(2)
	if !daily.Equal(decimal.RequireFromString("65.75")) {
		t.Errorf("Expected daily depreciation 65.75, got %s", daily)
	}
}

func TestBookValue_Cases(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	zero := 0

	tests := []struct {
		name   string
		in     Input
		asOf   time.Time
		want   string
		wantOk bool
	}{
		{"same day", input(50000, t0, 3), t0, "50000", true},
		{"future purchase clamps to cost", input(50000, t0, 3), t0.AddDate(0, 0, -10), "50000", true},
		{"partial day does not count", input(36500, t0, 1), t0.Add(23 * time.Hour), "36500", true},
		{"one day", input(36500, t0, 1), t0.Add(24 * time.Hour), "36400", true},
		{"rounds to cents", input(1000, t0, 3), t0.AddDate(0, 0, 1), "999.09", true},
		{"past useful life hits floor", input(10000, t0, 2), t0.AddDate(5, 0, 0), "1", true},
		{"missing cost", Input{PurchaseDate: &t0, UsefulLifeYears: new(int)}, t0, "0", false},
		{"missing purchase date", Input{Cost: decimal.NewNullDecimal(decimal.NewFromInt(10)), UsefulLifeYears: new(int)}, t0, "0", false},
		{"zero useful life", Input{Cost: decimal.NewNullDecimal(decimal.NewFromInt(10)), PurchaseDate: &t0, UsefulLifeYears: &zero}, t0, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BookValue(tt.in, tt.asOf)
			if ok != tt.wantOk {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOk, ok)
			}
			if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBookValue_MonotonicWithFloor(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	in := input(25000, t0, 4)

	previous, _ := BookValue(in, t0)
	reachedFloor := false
	for day := 1; day <= 6*365; day += 7 {
		got, ok := BookValue(in, t0.AddDate(0, 0, day))
		if !ok {
			t.Fatalf("Day %d: expected depreciable", day)
		}
		if got.GreaterThan(previous) {
			t.Fatalf("Day %d: book value rose from %s to %s", day, previous, got)
		}
		if got.LessThan(Floor) {
			t.Fatalf("Day %d: book value %s below floor", day, got)
		}
		if reachedFloor && !got.Equal(Floor) {
			t.Fatalf("Day %d: book value left the floor: %s", day, got)
		}
		reachedFloor = got.Equal(Floor)
		previous = got
	}
	if !reachedFloor {
		t.Error("Expected the book value to reach the floor after the useful life")
	}
}
