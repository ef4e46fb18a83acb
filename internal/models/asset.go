package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known status names the engines look up by exact match.
const (
	StatusNew         = "New"
	StatusFunctional  = "Functional"
	StatusUnderRepair = "Under Repair"
	StatusDefective   = "Defective"
	StatusRetired     = "Retired"
)

// Status is a named reference entry with a display color
type Status struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Color     string    `db:"color"`
	CreatedAt time.Time `db:"created_at"`
}

// Asset represents a tracked physical asset
type Asset struct {
	Id              string              `db:"id"`
	Code            string              `db:"code"`
	Name            string              `db:"name"`
	SerialNumber    string              `db:"serial_number"`
	Description     string              `db:"description"`
	AcquisitionCost decimal.NullDecimal `db:"acquisition_cost"`
	PurchaseDate    *time.Time          `db:"purchase_date"`
	UsefulLifeYears *int                `db:"useful_life_years"`
	BookValue       decimal.NullDecimal `db:"book_value"`
	StatusId        string              `db:"status_id"`
	StatusName      string              `db:"status_name"`
	EmployeeId      *string             `db:"employee_id"`
	BranchId        *string             `db:"branch_id"`
	DefectiveAt     *time.Time          `db:"defective_at"`
	DeleteAfterAt   *time.Time          `db:"delete_after_at"`
	Version         int64               `db:"version"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`
}

// Depreciable reports whether the asset carries every field the book value
// formula needs.
func (a *Asset) Depreciable() bool {
	return a.AcquisitionCost.Valid && a.PurchaseDate != nil && a.UsefulLifeYears != nil && *a.UsefulLifeYears > 0
}

// PurgeDue reports whether the asset's retention grace period has elapsed at now.
func (a *Asset) PurgeDue(now time.Time) bool {
	return a.DeleteAfterAt != nil && !a.DeleteAfterAt.After(now)
}

// Label is the human-readable name used in batch reports.
func (a *Asset) Label() string {
	if a.Code != "" {
		return a.Code + " (" + a.Name + ")"
	}
	return a.Name
}

// DepreciationPosting is one book value decrease mirrored to an external journal.
type DepreciationPosting struct {
	AssetId   string
	AssetCode string
	Previous  decimal.Decimal
	Current   decimal.Decimal
	At        time.Time
}

// Amount is the value lost since the previous posting.
func (p DepreciationPosting) Amount() decimal.Decimal {
	return p.Previous.Sub(p.Current)
}
