package settings

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings is an immutable snapshot of every tunable used by the calculators and the ledger.
// Callers receive a pointer from a Provider and must not modify it.
type Settings struct {
	Timezone             string          `json:"timezone"`
	WorkStart            TimeOfDay       `json:"work_start"`
	WorkEnd              TimeOfDay       `json:"work_end"`
	GracePeriodMinutes   int             `json:"grace_period_minutes"`
	StandardMonthlyHours decimal.Decimal `json:"standard_monthly_hours"`
	WorkingDaysPerHalf   decimal.Decimal `json:"working_days_per_half"`
	FoldAbsenceDeduction bool            `json:"fold_absence_deduction"`

	Overtime        OvertimeRule        `json:"overtime"`
	SocialInsurance SocialInsuranceRule `json:"social_insurance"`
	HealthInsurance HealthInsuranceRule `json:"health_insurance"`
	HousingFund     HousingFundRule     `json:"housing_fund"`
	TaxBrackets     []TaxBracket        `json:"tax_brackets"`

	// LeaveEntitlements maps a leave type to its default annual entitlement in days.
	LeaveEntitlements map[string]int `json:"leave_entitlements"`

	UpdatedAt time.Time `json:"updated_at"`
}

type CrossMidnightPolicy string

const (
	// CrossMidnightAnomaly routes any non-positive overtime duration to manual review.
	CrossMidnightAnomaly CrossMidnightPolicy = "anomaly"
	// CrossMidnightNextDay treats a clock-out earlier than the start as falling on the following day.
	CrossMidnightNextDay CrossMidnightPolicy = "next_day"
)

type OvertimeRule struct {
	WeekdayMultiplier decimal.Decimal     `json:"weekday_multiplier"`
	RestDayMultiplier decimal.Decimal     `json:"rest_day_multiplier"`
	HolidayMultiplier decimal.Decimal     `json:"holiday_multiplier"`
	CrossMidnight     CrossMidnightPolicy `json:"cross_midnight"`
}

type SocialInsuranceRule struct {
	MinCreditable          decimal.Decimal `json:"min_creditable"`
	MaxCreditable          decimal.Decimal `json:"max_creditable"`
	EmployeeRate           decimal.Decimal `json:"employee_rate"`
	EmployerRate           decimal.Decimal `json:"employer_rate"`
	SupplementaryThreshold decimal.Decimal `json:"supplementary_threshold"`
	SupplementaryLow       decimal.Decimal `json:"supplementary_low"`
	SupplementaryHigh      decimal.Decimal `json:"supplementary_high"`
}

type HealthInsuranceRule struct {
	Floor         decimal.Decimal `json:"floor"`
	Ceiling       decimal.Decimal `json:"ceiling"`
	TotalRate     decimal.Decimal `json:"total_rate"`
	EmployeeShare decimal.Decimal `json:"employee_share"`
}

type HousingFundRule struct {
	MaxBase            decimal.Decimal `json:"max_base"`
	LowSalaryThreshold decimal.Decimal `json:"low_salary_threshold"`
	EmployeeLowRate    decimal.Decimal `json:"employee_low_rate"`
	EmployeeRate       decimal.Decimal `json:"employee_rate"`
	EmployerRate       decimal.Decimal `json:"employer_rate"`
}

// TaxBracket is one piece of the withholding schedule: tax = BaseTax + (income - LowerBound) * Rate.
type TaxBracket struct {
	LowerBound decimal.Decimal `json:"lower_bound"`
	BaseTax    decimal.Decimal `json:"base_tax"`
	Rate       decimal.Decimal `json:"rate"`
}

// TimeOfDay is a wall-clock time in the settings timezone, encoded as "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	v, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: v.Hour(), Minute: v.Minute()}, nil
}

// Location returns the configured timezone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateOf returns the calendar day of ts in the configured timezone, represented as midnight UTC.
func (s *Settings) DateOf(ts time.Time) time.Time {
	y, m, d := ts.In(s.Location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At returns the instant at which the given wall-clock time occurs on date in the configured timezone.
func (s *Settings) At(date time.Time, tod TimeOfDay) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, s.Location())
}

// Entitlement returns the default annual entitlement for a leave type.
func (s *Settings) Entitlement(leaveType string) int {
	return s.LeaveEntitlements[leaveType]
}

// Clone returns a deep copy suitable for modification before an update.
func (s *Settings) Clone() *Settings {
	c := *s
	c.TaxBrackets = append([]TaxBracket(nil), s.TaxBrackets...)
	c.LeaveEntitlements = make(map[string]int, len(s.LeaveEntitlements))
	for k, v := range s.LeaveEntitlements {
		c.LeaveEntitlements[k] = v
	}
	return &c
}
