package overtime

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

type DayType string

const (
	DayTypeWeekday DayType = "weekday"
	DayTypeRestDay DayType = "rest_day"
	DayTypeHoliday DayType = "holiday"
)

// Request is an overtime filing. It is open-ended until settled: EndTime, TotalHours and
// OvertimePay stay nil until a clock-out (or an administrator) closes it.
type Request struct {
	ID             string
	EmployeeID     string
	Date           time.Time
	StartTime      time.Time
	EndTime        *time.Time
	TotalHours     *decimal.Decimal
	DayType        DayType
	RateMultiplier decimal.Decimal
	OvertimePay    *decimal.Decimal
	Reason         string
	Status         Status
	IsActive       bool
	ReviewedBy     *string
	ReviewNotes    *string
	ReviewedAt     *time.Time
	NeedsReview    bool
	ReviewFlag     *string
	CompletedBy    *string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCompleted reports whether the request has been settled.
func (r Request) IsCompleted() bool {
	return r.TotalHours != nil
}

// Outcome describes what a settlement trigger did.
type Outcome string

const (
	OutcomeSettled        Outcome = "settled"
	OutcomeNoMatch        Outcome = "no_match"
	OutcomeAnomaly        Outcome = "anomaly"
	OutcomeAlreadySettled Outcome = "already_settled"
)

// Totals sums settled overtime for a pay period.
type Totals struct {
	Hours decimal.Decimal
	Pay   decimal.Decimal
}
