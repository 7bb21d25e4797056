package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmployee(salary string) employee.Employee {
	return employee.Employee{
		ID:               "emp-1",
		FullName:         "Ana Cruz",
		BasicSalary:      dec(salary),
		EmploymentStatus: employee.EmploymentStatusActive,
	}
}

func firstHalf() payroll.Period {
	return payroll.Period{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func secondHalf() payroll.Period {
	return payroll.Period{
		Start: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputeLine_FirstHalfNoInputs(t *testing.T) {
	line, err := ComputeLine(settings.Default(), testEmployee("20000"), firstHalf(), payroll.Inputs{})
	require.NoError(t, err)

	assert.Equal(t, payroll.HalfFirst, line.Half)
	assert.Equal(t, "10000.00", line.GrossPay.StringFixed(2))
	assert.Equal(t, "0.00", line.Deductions.Total.StringFixed(2))
	assert.Equal(t, "10000.00", line.NetPay.StringFixed(2))
	assert.Equal(t, payroll.PayrollStatusDraft, line.Status)
	require.NoError(t, line.CheckInvariant())
}

func TestComputeLine_SecondHalfWithLateMinutes(t *testing.T) {
	line, err := ComputeLine(settings.Default(), testEmployee("20000"), secondHalf(), payroll.Inputs{LateMinutes: 30})
	require.NoError(t, err)

	d := line.Deductions
	assert.Equal(t, payroll.HalfSecond, line.Half)
	assert.Equal(t, "62.50", d.Late.StringFixed(2))
	assert.Equal(t, "450.00", d.SocialInsurance.StringFixed(2))
	assert.Equal(t, "250.00", d.HealthInsurance.StringFixed(2))
	assert.Equal(t, "100.00", d.HousingFund.StringFixed(2))
	assert.Equal(t, "0.00", d.Tax.StringFixed(2))
	assert.Equal(t, "862.50", d.Total.StringFixed(2))
	assert.Equal(t, "9137.50", line.NetPay.StringFixed(2))
	require.NoError(t, line.CheckInvariant())
}

func TestComputeLine_HalfPolicy(t *testing.T) {
	s := settings.Default()
	emp := testEmployee("50000")
	in := payroll.Inputs{LateMinutes: 10, DaysAbsent: 1}

	first, err := ComputeLine(s, emp, firstHalf(), in)
	require.NoError(t, err)
	for name, v := range map[string]decimal.Decimal{
		"social_insurance": first.Deductions.SocialInsurance,
		"health_insurance": first.Deductions.HealthInsurance,
		"housing_fund":     first.Deductions.HousingFund,
		"tax":              first.Deductions.Tax,
	} {
		assert.True(t, v.IsZero(), "%s must be zero on the first half", name)
	}
	assert.True(t, first.Deductions.Late.IsPositive())

	second, err := ComputeLine(s, emp, secondHalf(), in)
	require.NoError(t, err)
	for name, v := range map[string]decimal.Decimal{
		"social_insurance": second.Deductions.SocialInsurance,
		"health_insurance": second.Deductions.HealthInsurance,
		"housing_fund":     second.Deductions.HousingFund,
		"tax":              second.Deductions.Tax,
	} {
		assert.True(t, v.IsPositive(), "%s must be positive on the second half", name)
	}
	assert.Equal(t, "2301.70", second.Deductions.Tax.StringFixed(2))
	assert.True(t, first.Deductions.Late.Equal(second.Deductions.Late))
}

func TestComputeLine_EmployerContributionsOnBothHalves(t *testing.T) {
	s := settings.Default()
	emp := testEmployee("20000")

	first, err := ComputeLine(s, emp, firstHalf(), payroll.Inputs{})
	require.NoError(t, err)
	second, err := ComputeLine(s, emp, secondHalf(), payroll.Inputs{})
	require.NoError(t, err)

	assert.Equal(t, first.Employer, second.Employer)
	assert.Equal(t, "950.00", first.Employer.SocialInsurance.StringFixed(2))
	assert.Equal(t, "15.00", first.Employer.SocialInsuranceSupplementary.StringFixed(2))
	assert.Equal(t, "250.00", first.Employer.HealthInsurance.StringFixed(2))
	assert.Equal(t, "100.00", first.Employer.HousingFund.StringFixed(2))
	assert.Equal(t, "1315.00", first.Employer.Total.StringFixed(2))
}

func TestComputeLine_OvertimeAndCashAdvance(t *testing.T) {
	s := settings.Default()
	emp := testEmployee("20000")

	line, err := ComputeLine(s, emp, firstHalf(), payroll.Inputs{
		OvertimeHours:      dec("3.5"),
		OvertimeMultiplier: dec("1.25"),
		CashAdvance:        dec("1000"),
	})
	require.NoError(t, err)

	assert.Equal(t, "546.88", line.OvertimePay.StringFixed(2))
	assert.Equal(t, "10546.88", line.GrossPay.StringFixed(2))
	assert.Equal(t, "1000.00", line.Deductions.CashAdvance.StringFixed(2))
	assert.Equal(t, "9546.88", line.NetPay.StringFixed(2))
	require.NoError(t, line.CheckInvariant())

	supplied := dec("600")
	line, err = ComputeLine(s, emp, firstHalf(), payroll.Inputs{OvertimeHours: dec("3.5"), OvertimePay: &supplied})
	require.NoError(t, err)
	assert.Equal(t, "600.00", line.OvertimePay.StringFixed(2))
}

func TestComputeLine_MissingMultiplierUsesWeekdayRate(t *testing.T) {
	s := settings.Default()
	emp := testEmployee("20000")

	line, err := ComputeLine(s, emp, firstHalf(), payroll.Inputs{OvertimeHours: dec("3.5")})
	require.NoError(t, err)
	assert.Equal(t, "546.88", line.OvertimePay.StringFixed(2))
	assert.Equal(t, "10546.88", line.GrossPay.StringFixed(2))
	require.NoError(t, line.CheckInvariant())

	_, err = ComputeLine(s, emp, firstHalf(), payroll.Inputs{OvertimeHours: dec("3.5"), OvertimeMultiplier: dec("-1")})
	assert.ErrorIs(t, err, payroll.ErrNegativeInput)
}

func TestComputeLine_AbsenceIsInformationalByDefault(t *testing.T) {
	s := settings.Default()
	emp := testEmployee("22000")

	line, err := ComputeLine(s, emp, firstHalf(), payroll.Inputs{DaysAbsent: 2})
	require.NoError(t, err)
	assert.Equal(t, "2000.00", line.Deductions.Absence.StringFixed(2))
	assert.True(t, line.Deductions.Total.IsZero())

	folded := s.Clone()
	folded.FoldAbsenceDeduction = true
	line, err = ComputeLine(folded, emp, firstHalf(), payroll.Inputs{DaysAbsent: 2})
	require.NoError(t, err)
	assert.Equal(t, "2000.00", line.Deductions.Total.StringFixed(2))
	assert.Equal(t, "9000.00", line.NetPay.StringFixed(2))
	require.NoError(t, line.CheckInvariant())
}

func TestComputeLine_HourlyRateOverride(t *testing.T) {
	emp := testEmployee("20000")
	rate := dec("150")
	emp.HourlyRate = &rate

	line, err := ComputeLine(settings.Default(), emp, firstHalf(), payroll.Inputs{LateMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, "150.00", line.Deductions.Late.StringFixed(2))
}

func TestComputeLine_RejectsBadInput(t *testing.T) {
	s := settings.Default()

	_, err := ComputeLine(s, testEmployee("20000"), firstHalf(), payroll.Inputs{LateMinutes: -5})
	assert.ErrorIs(t, err, payroll.ErrNegativeInput)

	_, err = ComputeLine(s, testEmployee("-1"), firstHalf(), payroll.Inputs{})
	assert.ErrorIs(t, err, payroll.ErrNegativeInput)

	inverted := payroll.Period{Start: firstHalf().End, End: firstHalf().Start}
	_, err = ComputeLine(s, testEmployee("20000"), inverted, payroll.Inputs{})
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestComputeLine_InvariantHoldsAcrossInputs(t *testing.T) {
	s := settings.Default()
	for _, salary := range []string{"0", "1234.57", "14750", "20000", "33333.33", "99999.99", "750000"} {
		for _, p := range []payroll.Period{firstHalf(), secondHalf()} {
			for _, late := range []int{0, 7, 61} {
				line, err := ComputeLine(s, testEmployee(salary), p, payroll.Inputs{
					LateMinutes:        late,
					DaysAbsent:         1,
					OvertimeHours:      dec("1.37"),
					OvertimeMultiplier: dec("1.5"),
					CashAdvance:        dec("333.333"),
				})
				require.NoError(t, err)
				assert.NoError(t, line.CheckInvariant(), "salary %s half %s late %d", salary, p.Half(), late)
				assert.True(t, line.NetPay.Equal(line.GrossPay.Sub(line.Deductions.Total)))
			}
		}
	}
}
