package leave

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

type Type string

const (
	TypeVacation    Type = "vacation"
	TypeSick        Type = "sick"
	TypeEmergency   Type = "emergency"
	TypeMaternity   Type = "maternity"
	TypePaternity   Type = "paternity"
	TypeBereavement Type = "bereavement"
	TypeUnpaid      Type = "unpaid"
	TypeOther       Type = "other"
)

// Types lists every leave type in display order.
var Types = []Type{
	TypeVacation, TypeSick, TypeEmergency, TypeMaternity,
	TypePaternity, TypeBereavement, TypeUnpaid, TypeOther,
}

func (t Type) Valid() bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

// Request is a leave filing. An open leave has no EndDate; it is settled by the employee's
// next clock-in, which fixes EndDate to the previous day and counts TotalDays.
type Request struct {
	ID          string
	EmployeeID  string
	LeaveType   Type
	StartDate   time.Time
	EndDate     *time.Time
	TotalDays   *int
	Reason      string
	Status      Status
	IsActive    bool
	ReviewedBy  *string
	ReviewNotes *string
	ReviewedAt  *time.Time
	NeedsReview bool
	ReviewFlag  *string
	CompletedBy *string
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOpen reports whether the leave still waits for its end boundary.
func (r Request) IsOpen() bool {
	return r.EndDate == nil
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// Credit overrides the default annual entitlement of one leave type for one employee.
type Credit struct {
	EmployeeID string
	LeaveType  Type
	Days       int
	Reason     string
	AdjustedBy string
	AdjustedAt time.Time
}

// Entitlement is the effective allowance of one leave type.
type Entitlement struct {
	LeaveType  Type
	Days       int
	Overridden bool
	Reason     *string
	AdjustedBy *string
	AdjustedAt *time.Time
}

type Outcome string

const (
	OutcomeSettled        Outcome = "settled"
	OutcomeNoMatch        Outcome = "no_match"
	OutcomeAnomaly        Outcome = "anomaly"
	OutcomeAlreadySettled Outcome = "already_settled"
)
