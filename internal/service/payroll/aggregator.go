package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

var (
	two    = decimal.NewFromInt(2)
	sixty  = decimal.NewFromInt(60)
	places = int32(2)
)

func round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(places)
}

func validateInputs(emp employee.Employee, in payroll.Inputs) error {
	var bad []string
	if emp.BasicSalary.IsNegative() {
		bad = append(bad, "basic_salary", emp.BasicSalary.String())
	}
	if in.DaysAbsent < 0 {
		bad = append(bad, "days_absent", "negative")
	}
	if in.LateMinutes < 0 {
		bad = append(bad, "late_minutes", "negative")
	}
	if in.OvertimeHours.IsNegative() {
		bad = append(bad, "overtime_hours", in.OvertimeHours.String())
	}
	if in.OvertimeMultiplier.IsNegative() {
		bad = append(bad, "overtime_multiplier", in.OvertimeMultiplier.String())
	}
	if in.OvertimePay != nil && in.OvertimePay.IsNegative() {
		bad = append(bad, "overtime_pay", in.OvertimePay.String())
	}
	if in.CashAdvance.IsNegative() {
		bad = append(bad, "cash_advance", in.CashAdvance.String())
	}
	if len(bad) == 0 {
		return nil
	}
	return apperror.WithFields(payroll.ErrNegativeInput, append([]string{"employee_id", emp.ID}, bad...)...)
}

// ComputeLine builds the gross-to-net breakdown of one employee for one period. Statutory
// deductions and tax are levied on the second half only, at half their monthly amount; late and
// cash-advance deductions apply on every half. Values are kept at full precision and each line is
// rounded once, so NetPay equals GrossPay minus Deductions.Total exactly.
func ComputeLine(s *settings.Settings, emp employee.Employee, period payroll.Period, in payroll.Inputs) (payroll.PayrollLine, error) {
	if err := period.Validate(); err != nil {
		return payroll.PayrollLine{}, apperror.WithFields(err, "employee_id", emp.ID)
	}
	if err := validateInputs(emp, in); err != nil {
		return payroll.PayrollLine{}, err
	}

	hourly := emp.Rate(s.StandardMonthlyHours)
	semiMonthly := emp.BasicSalary.Div(two)

	multiplier := in.OvertimeMultiplier
	if multiplier.IsZero() {
		multiplier = s.Overtime.WeekdayMultiplier
	}
	overtimePay := hourly.Mul(in.OvertimeHours).Mul(multiplier)
	if in.OvertimePay != nil {
		overtimePay = *in.OvertimePay
	}
	gross := semiMonthly.Add(overtimePay)

	ded := payroll.Deductions{
		Late:          round(hourly.Div(sixty).Mul(decimal.NewFromInt(int64(in.LateMinutes)))),
		CashAdvance:   round(in.CashAdvance),
		Absence:       round(semiMonthly.Div(s.WorkingDaysPerHalf).Mul(decimal.NewFromInt(int64(in.DaysAbsent)))),
		AbsenceFolded: s.FoldAbsenceDeduction,
	}

	si, err := SocialInsurance(s.SocialInsurance, emp.BasicSalary)
	if err != nil {
		return payroll.PayrollLine{}, err
	}
	hi, err := HealthInsurance(s.HealthInsurance, emp.BasicSalary)
	if err != nil {
		return payroll.PayrollLine{}, err
	}
	hf, err := HousingFund(s.HousingFund, emp.BasicSalary)
	if err != nil {
		return payroll.PayrollLine{}, err
	}

	half := period.Half()
	if half == payroll.HalfSecond {
		taxable := emp.BasicSalary.Sub(si.Employee).Sub(hi.Employee).Sub(hf.Employee)
		tax, err := WithholdingTax(s.TaxBrackets, decimal.Max(taxable, decimal.Zero))
		if err != nil {
			return payroll.PayrollLine{}, err
		}
		ded.SocialInsurance = round(si.Employee.Div(two))
		ded.HealthInsurance = round(hi.Employee.Div(two))
		ded.HousingFund = round(hf.Employee.Div(two))
		ded.Tax = round(tax.Div(two))
	}
	ded.Total = ded.Sum()

	employer := payroll.EmployerContributions{
		SocialInsurance:              round(si.EmployerRegular.Div(two)),
		SocialInsuranceSupplementary: round(si.EmployerSupplementary.Div(two)),
		HealthInsurance:              round(hi.Employer.Div(two)),
		HousingFund:                  round(hf.Employer.Div(two)),
	}
	employer.Total = decimal.Sum(employer.SocialInsurance, employer.SocialInsuranceSupplementary, employer.HealthInsurance, employer.HousingFund)

	grossRounded := round(gross)
	line := payroll.PayrollLine{
		EmployeeID:    emp.ID,
		PeriodStart:   period.Start,
		PeriodEnd:     period.End,
		Half:          half,
		BasicSalary:   emp.BasicSalary,
		HourlyRate:    round(hourly),
		DaysAbsent:    in.DaysAbsent,
		LateMinutes:   in.LateMinutes,
		OvertimeHours: round(in.OvertimeHours),
		OvertimePay:   round(overtimePay),
		GrossPay:      grossRounded,
		Deductions:    ded,
		NetPay:        grossRounded.Sub(ded.Total),
		Employer:      employer,
		Status:        payroll.PayrollStatusDraft,
	}
	return line, nil
}
