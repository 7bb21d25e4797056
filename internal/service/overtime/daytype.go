package overtime

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/shopspring/decimal"
)

// DayTypeRule classifies the calendar day an overtime request is filed for.
type DayTypeRule interface {
	Classify(date time.Time) overtime.DayType
}

// DayTypeRuleFunc adapts a function to DayTypeRule.
type DayTypeRuleFunc func(date time.Time) overtime.DayType

func (f DayTypeRuleFunc) Classify(date time.Time) overtime.DayType {
	return f(date)
}

// WeekendRule treats Saturday and Sunday as rest days. It never yields DayTypeHoliday;
// a holiday calendar can be plugged in through a custom rule.
type WeekendRule struct{}

func (WeekendRule) Classify(date time.Time) overtime.DayType {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return overtime.DayTypeRestDay
	default:
		return overtime.DayTypeWeekday
	}
}

// multiplierFor returns the pay multiplier for a day type under the given settings.
func multiplierFor(s *settings.Settings, dayType overtime.DayType) decimal.Decimal {
	switch dayType {
	case overtime.DayTypeRestDay:
		return s.Overtime.RestDayMultiplier
	case overtime.DayTypeHoliday:
		return s.Overtime.HolidayMultiplier
	default:
		return s.Overtime.WeekdayMultiplier
	}
}
