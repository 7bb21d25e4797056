package settings

import "github.com/shopspring/decimal"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Default returns the built-in settings used until an administrator stores a replacement.
// The contribution and bracket figures are illustrative.
func Default() *Settings {
	return &Settings{
		Timezone:             "UTC",
		WorkStart:            TimeOfDay{Hour: 8},
		WorkEnd:              TimeOfDay{Hour: 17},
		GracePeriodMinutes:   15,
		StandardMonthlyHours: d("160"),
		WorkingDaysPerHalf:   d("11"),
		FoldAbsenceDeduction: false,
		Overtime: OvertimeRule{
			WeekdayMultiplier: d("1.25"),
			RestDayMultiplier: d("1.5"),
			HolidayMultiplier: d("2.0"),
			CrossMidnight:     CrossMidnightAnomaly,
		},
		SocialInsurance: SocialInsuranceRule{
			MinCreditable:          d("5000"),
			MaxCreditable:          d("35000"),
			EmployeeRate:           d("0.045"),
			EmployerRate:           d("0.095"),
			SupplementaryThreshold: d("14750"),
			SupplementaryLow:       d("10"),
			SupplementaryHigh:      d("30"),
		},
		HealthInsurance: HealthInsuranceRule{
			Floor:         d("10000"),
			Ceiling:       d("100000"),
			TotalRate:     d("0.05"),
			EmployeeShare: d("0.5"),
		},
		HousingFund: HousingFundRule{
			MaxBase:            d("10000"),
			LowSalaryThreshold: d("1500"),
			EmployeeLowRate:    d("0.01"),
			EmployeeRate:       d("0.02"),
			EmployerRate:       d("0.02"),
		},
		TaxBrackets: []TaxBracket{
			{LowerBound: d("0"), BaseTax: d("0"), Rate: d("0")},
			{LowerBound: d("20833"), BaseTax: d("0"), Rate: d("0.15")},
			{LowerBound: d("33333"), BaseTax: d("1875"), Rate: d("0.20")},
			{LowerBound: d("66667"), BaseTax: d("8541.80"), Rate: d("0.25")},
			{LowerBound: d("166667"), BaseTax: d("33541.80"), Rate: d("0.30")},
			{LowerBound: d("666667"), BaseTax: d("183541.80"), Rate: d("0.35")},
		},
		LeaveEntitlements: map[string]int{
			"vacation":    15,
			"sick":        15,
			"emergency":   3,
			"maternity":   105,
			"paternity":   7,
			"bereavement": 3,
			"unpaid":      0,
			"other":       0,
		},
	}
}
