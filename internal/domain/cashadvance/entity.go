package cashadvance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

type GateStatus string

const (
	GatePending  GateStatus = "PENDING"
	GateApproved GateStatus = "APPROVED"
	GateRejected GateStatus = "REJECTED"
)

type Gate string

const (
	GateManager Gate = "manager"
	GateAdmin   Gate = "admin"
)

type Request struct {
	ID              string
	EmployeeID      string
	Amount          decimal.Decimal
	Reason          string
	RepaymentPlan   string
	Status          Status
	ManagerApproval GateStatus
	ManagerID       *string
	AdminApproval   GateStatus
	AdminID         *string
	ReviewNotes     *string
	IsDisbursed     bool
	DisbursedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Eligible reports whether the advance counts as a payroll deduction for the window [start, end].
func (r Request) Eligible(start, end time.Time) bool {
	if r.Status != StatusApproved || !r.IsDisbursed || r.DisbursedAt == nil {
		return false
	}
	at := *r.DisbursedAt
	return !at.Before(start) && at.Before(end.AddDate(0, 0, 1))
}
