package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayrollStatus string

const (
	PayrollStatusDraft     PayrollStatus = "draft"
	PayrollStatusFinalized PayrollStatus = "finalized"
)

// Half is the semi-monthly half a period falls in. Statutory deductions are levied on the second half only.
type Half string

const (
	HalfFirst  Half = "first"
	HalfSecond Half = "second"
)

// Period is a pay-period window of calendar days, both ends included.
type Period struct {
	Start time.Time
	End   time.Time
}

// Half classifies the period by the day-of-month of its start.
func (p Period) Half() Half {
	if p.Start.Day() <= 15 {
		return HalfFirst
	}
	return HalfSecond
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Inputs are the period-scoped figures gathered for one employee.
type Inputs struct {
	DaysAbsent    int
	LateMinutes   int
	OvertimeHours decimal.Decimal
	// OvertimePay, when set, is used as is; otherwise pay is hourlyRate * OvertimeHours * OvertimeMultiplier.
	OvertimePay *decimal.Decimal
	// OvertimeMultiplier defaults to the weekday multiplier when zero.
	OvertimeMultiplier decimal.Decimal
	CashAdvance        decimal.Decimal
}

// Deductions are the employee-side lines of a payslip. Absence is informational unless
// folding is enabled in settings; Total is the sum of the lines that are levied.
type Deductions struct {
	SocialInsurance decimal.Decimal
	HealthInsurance decimal.Decimal
	HousingFund     decimal.Decimal
	Tax             decimal.Decimal
	Late            decimal.Decimal
	CashAdvance     decimal.Decimal
	Absence         decimal.Decimal
	AbsenceFolded   bool
	Total           decimal.Decimal
}

// Sum adds the levied lines.
func (d Deductions) Sum() decimal.Decimal {
	total := decimal.Sum(d.SocialInsurance, d.HealthInsurance, d.HousingFund, d.Tax, d.Late, d.CashAdvance)
	if d.AbsenceFolded {
		total = total.Add(d.Absence)
	}
	return total
}

// EmployerContributions accrue on every period regardless of the half.
type EmployerContributions struct {
	SocialInsurance              decimal.Decimal
	SocialInsuranceSupplementary decimal.Decimal
	HealthInsurance              decimal.Decimal
	HousingFund                  decimal.Decimal
	Total                        decimal.Decimal
}

type PayrollLine struct {
	ID            string
	BatchID       *string
	EmployeeID    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Half          Half
	BasicSalary   decimal.Decimal
	HourlyRate    decimal.Decimal
	DaysAbsent    int
	LateMinutes   int
	OvertimeHours decimal.Decimal
	OvertimePay   decimal.Decimal
	GrossPay      decimal.Decimal
	Deductions    Deductions
	NetPay        decimal.Decimal
	Employer      EmployerContributions
	Status        PayrollStatus
	PayoutDate    *time.Time
	FinalizedBy   *string
	FinalizedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Period returns the line's pay-period window.
func (l PayrollLine) Period() Period {
	return Period{Start: l.PeriodStart, End: l.PeriodEnd}
}

// Key identifies the (employee, period) slot a line occupies.
func (l PayrollLine) Key() string {
	return l.EmployeeID + "|" + l.PeriodStart.Format("2006-01-02") + "|" + l.PeriodEnd.Format("2006-01-02")
}

// CheckInvariant verifies netPay == grossPay - deductions.total and that the total matches its lines.
func (l PayrollLine) CheckInvariant() error {
	if !l.Deductions.Total.Equal(l.Deductions.Sum()) {
		return ErrInvariantViolated
	}
	if !l.NetPay.Equal(l.GrossPay.Sub(l.Deductions.Total)) {
		return ErrInvariantViolated
	}
	return nil
}

// DraftRegister is the in-memory result of a draft run.
type DraftRegister struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Lines       []PayrollLine
	Failures    []LineFailure
}
