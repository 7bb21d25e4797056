package settings

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// continuityTolerance absorbs rounding in published bracket tables.
var continuityTolerance = decimal.NewFromFloat(0.01)

// Validate checks that the snapshot is internally consistent. A rejected snapshot must never be swapped in.
func (s *Settings) Validate() error {
	var errs validator.ValidationErrors

	if _, err := time.LoadLocation(s.Timezone); err != nil {
		errs.Add("timezone", "unknown timezone")
	}
	if !validTimeOfDay(s.WorkStart) {
		errs.Add("work_start", "must be a valid time of day")
	}
	if !validTimeOfDay(s.WorkEnd) {
		errs.Add("work_end", "must be a valid time of day")
	}
	if s.GracePeriodMinutes < 0 {
		errs.Add("grace_period_minutes", "must not be negative")
	}
	if !s.StandardMonthlyHours.IsPositive() {
		errs.Add("standard_monthly_hours", "must be positive")
	}
	if !s.WorkingDaysPerHalf.IsPositive() {
		errs.Add("working_days_per_half", "must be positive")
	}

	for field, v := range map[string]decimal.Decimal{
		"overtime.weekday_multiplier":  s.Overtime.WeekdayMultiplier,
		"overtime.rest_day_multiplier": s.Overtime.RestDayMultiplier,
		"overtime.holiday_multiplier":  s.Overtime.HolidayMultiplier,
	} {
		if !v.IsPositive() {
			errs.Add(field, "must be positive")
		}
	}
	switch s.Overtime.CrossMidnight {
	case CrossMidnightAnomaly, CrossMidnightNextDay:
	default:
		errs.Add("overtime.cross_midnight", "must be one of: anomaly next_day")
	}

	si := s.SocialInsurance
	if si.MinCreditable.IsNegative() || si.MaxCreditable.LessThan(si.MinCreditable) {
		errs.Add("social_insurance", "creditable range is invalid")
	}
	if !validRate(si.EmployeeRate) || !validRate(si.EmployerRate) {
		errs.Add("social_insurance", "rates must be between 0 and 1")
	}
	if si.SupplementaryLow.IsNegative() || si.SupplementaryHigh.LessThan(si.SupplementaryLow) {
		errs.Add("social_insurance", "supplementary tiers are invalid")
	}

	hi := s.HealthInsurance
	if hi.Floor.IsNegative() || hi.Ceiling.LessThan(hi.Floor) {
		errs.Add("health_insurance", "floor and ceiling are invalid")
	}
	if !validRate(hi.TotalRate) || !validRate(hi.EmployeeShare) {
		errs.Add("health_insurance", "rates must be between 0 and 1")
	}

	hf := s.HousingFund
	if hf.MaxBase.IsNegative() || hf.LowSalaryThreshold.IsNegative() {
		errs.Add("housing_fund", "base and threshold must not be negative")
	}
	if !validRate(hf.EmployeeLowRate) || !validRate(hf.EmployeeRate) || !validRate(hf.EmployerRate) {
		errs.Add("housing_fund", "rates must be between 0 and 1")
	}
	if hf.EmployeeRate.LessThan(hf.EmployeeLowRate) {
		errs.Add("housing_fund", "employee rate must not be below the low-salary rate")
	}

	if err := ValidateBrackets(s.TaxBrackets); err != nil {
		errs.Add("tax_brackets", err.Error())
	}

	for leaveType, days := range s.LeaveEntitlements {
		if days < 0 {
			errs.Add("leave_entitlements."+leaveType, "must not be negative")
		}
	}

	return errs.Err()
}

// ValidateBrackets requires a schedule that starts at zero, ascends strictly and is continuous at every boundary.
func ValidateBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("at least one bracket is required")
	}
	if !brackets[0].LowerBound.IsZero() || !brackets[0].BaseTax.IsZero() {
		return fmt.Errorf("first bracket must start at 0 with no base tax")
	}
	for i, b := range brackets {
		if !validRate(b.Rate) {
			return fmt.Errorf("bracket %d rate must be between 0 and 1", i+1)
		}
		if i == 0 {
			continue
		}
		prev := brackets[i-1]
		if !b.LowerBound.GreaterThan(prev.LowerBound) {
			return fmt.Errorf("bracket %d lower bound must exceed bracket %d", i+1, i)
		}
		expected := prev.BaseTax.Add(b.LowerBound.Sub(prev.LowerBound).Mul(prev.Rate))
		if expected.Sub(b.BaseTax).Abs().GreaterThan(continuityTolerance) {
			return fmt.Errorf("bracket %d base tax %s is not continuous with bracket %d (expected %s)",
				i+1, b.BaseTax.String(), i, expected.StringFixed(2))
		}
	}
	return nil
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && r.LessThanOrEqual(decimal.NewFromInt(1))
}

func validTimeOfDay(t TimeOfDay) bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}
