package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Contribution is a monthly employee/employer split, kept at full precision.
type Contribution struct {
	Employee decimal.Decimal
	Employer decimal.Decimal
}

// SocialInsuranceContribution adds the employer breakdown. Employer = EmployerRegular + EmployerSupplementary.
type SocialInsuranceContribution struct {
	Employee              decimal.Decimal
	Employer              decimal.Decimal
	EmployerRegular       decimal.Decimal
	EmployerSupplementary decimal.Decimal
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

func checkSalary(salary decimal.Decimal) error {
	if salary.IsNegative() {
		return apperror.WithFields(payroll.ErrNegativeInput, "salary", salary.String())
	}
	return nil
}

// SocialInsurance computes the monthly social-insurance contribution on the creditable salary.
func SocialInsurance(rule settings.SocialInsuranceRule, salary decimal.Decimal) (SocialInsuranceContribution, error) {
	if err := checkSalary(salary); err != nil {
		return SocialInsuranceContribution{}, err
	}
	credit := clamp(salary, rule.MinCreditable, rule.MaxCreditable)

	supplementary := rule.SupplementaryLow
	if credit.GreaterThan(rule.SupplementaryThreshold) {
		supplementary = rule.SupplementaryHigh
	}
	regular := credit.Mul(rule.EmployerRate)

	return SocialInsuranceContribution{
		Employee:              credit.Mul(rule.EmployeeRate),
		Employer:              regular.Add(supplementary),
		EmployerRegular:       regular,
		EmployerSupplementary: supplementary,
	}, nil
}

// HealthInsurance computes the monthly premium, split between employee and employer by EmployeeShare.
func HealthInsurance(rule settings.HealthInsuranceRule, salary decimal.Decimal) (Contribution, error) {
	if err := checkSalary(salary); err != nil {
		return Contribution{}, err
	}
	premium := clamp(salary, rule.Floor, rule.Ceiling).Mul(rule.TotalRate)
	employee := premium.Mul(rule.EmployeeShare)
	return Contribution{Employee: employee, Employer: premium.Sub(employee)}, nil
}

// HousingFund computes the monthly housing-fund contribution. The employee tier is chosen from
// the actual salary; both shares apply to the salary capped at MaxBase.
func HousingFund(rule settings.HousingFundRule, salary decimal.Decimal) (Contribution, error) {
	if err := checkSalary(salary); err != nil {
		return Contribution{}, err
	}
	base := decimal.Min(salary, rule.MaxBase)

	rate := rule.EmployeeRate
	if salary.LessThanOrEqual(rule.LowSalaryThreshold) {
		rate = rule.EmployeeLowRate
	}
	return Contribution{Employee: base.Mul(rate), Employer: base.Mul(rule.EmployerRate)}, nil
}

// WithholdingTax evaluates the bracket schedule at income. Income at or below zero owes nothing.
func WithholdingTax(brackets []settings.TaxBracket, income decimal.Decimal) (decimal.Decimal, error) {
	if !income.IsPositive() {
		return decimal.Zero, nil
	}
	if len(brackets) == 0 {
		return decimal.Zero, apperror.New(apperror.KindValidation, "TAX_BRACKETS_MISSING", "no tax brackets configured")
	}

	bracket := brackets[0]
	for _, b := range brackets[1:] {
		if income.LessThan(b.LowerBound) {
			break
		}
		bracket = b
	}
	return bracket.BaseTax.Add(income.Sub(bracket.LowerBound).Mul(bracket.Rate)), nil
}
