package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepairState is the position of a repair in the workflow.
type RepairState string

const (
	RepairPending   RepairState = "pending"
	RepairInRepair  RepairState = "in_repair"
	RepairCompleted RepairState = "completed"
	RepairReturned  RepairState = "returned"
)

var repairStateOrder = map[RepairState]int{
	RepairPending:   0,
	RepairInRepair:  1,
	RepairCompleted: 2,
	RepairReturned:  3,
}

// Rank returns the position of the state in the forward-only ordering, or -1
// for an unknown state.
func (s RepairState) Rank() int {
	if r, ok := repairStateOrder[s]; ok {
		return r
	}
	return -1
}

// Label returns the display name of the state.
func (s RepairState) Label() string {
	switch s {
	case RepairPending:
		return "Pending"
	case RepairInRepair:
		return "In Repair"
	case RepairCompleted:
		return "Completed"
	case RepairReturned:
		return "Returned"
	}
	return string(s)
}

// Terminal reports whether no further transition is possible.
func (s RepairState) Terminal() bool { return s == RepairReturned }

// Repair represents one repair job for an asset
type Repair struct {
	Id                    string              `db:"id"`
	AssetId               string              `db:"asset_id"`
	VendorId              string              `db:"vendor_id"`
	Description           string              `db:"description"`
	RepairDate            time.Time           `db:"repair_date"`
	ExpectedReturnDate    *time.Time          `db:"expected_return_date"`
	ActualReturnDate      *time.Time          `db:"actual_return_date"`
	RepairCost            decimal.NullDecimal `db:"repair_cost"`
	State                 RepairState         `db:"state"`
	DeliveredByEmployee   *string             `db:"delivered_by_employee"`
	DeliveredByBranchId   *string             `db:"delivered_by_branch_id"`
	JobOrderDocument      *string             `db:"job_order_document"`
	InvoiceNo             *string             `db:"invoice_no"`
	CompletionDescription *string             `db:"completion_description"`
	PreviousStatusId      *string             `db:"previous_status_id"`
	Version               int64               `db:"version"`
	CreatedAt             time.Time           `db:"created_at"`
	UpdatedAt             time.Time           `db:"updated_at"`
}

// RemarkKind classifies a repair remark.
type RemarkKind string

const (
	RemarkGeneral       RemarkKind = "general"
	RemarkStatusChange  RemarkKind = "status_change"
	RemarkPendingReason RemarkKind = "pending_reason"
)

// Valid reports whether k is a known remark kind.
func (k RemarkKind) Valid() bool {
	switch k {
	case RemarkGeneral, RemarkStatusChange, RemarkPendingReason:
		return true
	}
	return false
}

// RepairRemark is an insert-only note attached to a repair
type RepairRemark struct {
	Id        string     `db:"id"`
	RepairId  string     `db:"repair_id"`
	Kind      RemarkKind `db:"kind"`
	Body      string     `db:"body"`
	ActorId   string     `db:"actor_id"`
	CreatedAt time.Time  `db:"created_at"`
}
