package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type PeriodRequest struct {
	PeriodStart string `json:"period_start" validate:"required"`
	PeriodEnd   string `json:"period_end" validate:"required"`
}

// Parse validates and converts the request into a Period.
func (r PeriodRequest) Parse() (Period, error) {
	if err := validator.Struct(r); err != nil {
		return Period{}, err
	}
	var errs validator.ValidationErrors
	start, ok := validator.IsValidDate(r.PeriodStart)
	if !ok {
		errs.Add("period_start", "period_start must be in YYYY-MM-DD format")
	}
	end, ok := validator.IsValidDate(r.PeriodEnd)
	if !ok {
		errs.Add("period_end", "period_end must be in YYYY-MM-DD format")
	}
	if len(errs) > 0 {
		return Period{}, errs
	}
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

type RunDraftRequest struct {
	PeriodRequest
	EmployeeIDs []string `json:"employee_ids"`
	Save        bool     `json:"save"`
}

type ComputeLineRequest struct {
	PeriodRequest
	EmployeeID         string           `json:"employee_id" validate:"required"`
	DaysAbsent         int              `json:"days_absent" validate:"gte=0"`
	LateMinutes        int              `json:"late_minutes" validate:"gte=0"`
	OvertimeHours      decimal.Decimal  `json:"overtime_hours" validate:"gte=0"`
	OvertimePay        *decimal.Decimal `json:"overtime_pay,omitempty"`
	OvertimeMultiplier *decimal.Decimal `json:"overtime_multiplier,omitempty"`
	CashAdvance        decimal.Decimal  `json:"cash_advance" validate:"gte=0"`
}

func (r *ComputeLineRequest) Validate() error {
	return validator.Struct(r)
}

// Inputs converts the request figures. A missing multiplier is left zero so the weekday multiplier applies.
func (r ComputeLineRequest) Inputs() Inputs {
	var multiplier decimal.Decimal
	if r.OvertimeMultiplier != nil {
		multiplier = *r.OvertimeMultiplier
	}
	return Inputs{
		DaysAbsent:         r.DaysAbsent,
		LateMinutes:        r.LateMinutes,
		OvertimeHours:      r.OvertimeHours,
		OvertimePay:        r.OvertimePay,
		OvertimeMultiplier: multiplier,
		CashAdvance:        r.CashAdvance,
	}
}

type FinalizeRequest struct {
	LineIDs     []string `json:"line_ids" validate:"required,min=1"`
	PayoutDate  string   `json:"payout_date" validate:"required"`
	FinalizedBy string   `json:"finalized_by" validate:"required"`
}

func (r *FinalizeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if _, ok := validator.IsValidDate(r.PayoutDate); !ok {
		return validator.ValidationErrors{{Field: "payout_date", Message: "payout_date must be in YYYY-MM-DD format"}}
	}
	return nil
}

type FinalizeResult struct {
	BatchID    string        `json:"batch_id"`
	PayoutDate time.Time     `json:"payout_date"`
	Lines      []PayrollLine `json:"-"`
}

type PayrollFilter struct {
	EmployeeID  *string
	Status      *PayrollStatus
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	BatchID     *string
}

type DeductionsResponse struct {
	SocialInsurance string `json:"social_insurance"`
	HealthInsurance string `json:"health_insurance"`
	HousingFund     string `json:"housing_fund"`
	Tax             string `json:"tax"`
	Late            string `json:"late"`
	CashAdvance     string `json:"cash_advance"`
	Absence         string `json:"absence"`
	AbsenceFolded   bool   `json:"absence_folded"`
	Total           string `json:"total"`
}

type EmployerResponse struct {
	SocialInsurance              string `json:"social_insurance"`
	SocialInsuranceSupplementary string `json:"social_insurance_supplementary"`
	HealthInsurance              string `json:"health_insurance"`
	HousingFund                  string `json:"housing_fund"`
	Total                        string `json:"total"`
}

type PayrollLineResponse struct {
	ID            string             `json:"id,omitempty"`
	BatchID       *string            `json:"batch_id,omitempty"`
	EmployeeID    string             `json:"employee_id"`
	PeriodStart   string             `json:"period_start"`
	PeriodEnd     string             `json:"period_end"`
	Half          string             `json:"half"`
	BasicSalary   string             `json:"basic_salary"`
	HourlyRate    string             `json:"hourly_rate"`
	DaysAbsent    int                `json:"days_absent"`
	LateMinutes   int                `json:"late_minutes"`
	OvertimeHours string             `json:"overtime_hours"`
	OvertimePay   string             `json:"overtime_pay"`
	GrossPay      string             `json:"gross_pay"`
	Deductions    DeductionsResponse `json:"deductions"`
	NetPay        string             `json:"net_pay"`
	Employer      EmployerResponse   `json:"employer"`
	Status        string             `json:"status"`
	PayoutDate    *string            `json:"payout_date,omitempty"`
	FinalizedBy   *string            `json:"finalized_by,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func ToResponse(l PayrollLine) PayrollLineResponse {
	resp := PayrollLineResponse{
		ID:            l.ID,
		BatchID:       l.BatchID,
		EmployeeID:    l.EmployeeID,
		PeriodStart:   l.PeriodStart.Format("2006-01-02"),
		PeriodEnd:     l.PeriodEnd.Format("2006-01-02"),
		Half:          string(l.Half),
		BasicSalary:   money(l.BasicSalary),
		HourlyRate:    money(l.HourlyRate),
		DaysAbsent:    l.DaysAbsent,
		LateMinutes:   l.LateMinutes,
		OvertimeHours: l.OvertimeHours.StringFixed(2),
		OvertimePay:   money(l.OvertimePay),
		GrossPay:      money(l.GrossPay),
		Deductions: DeductionsResponse{
			SocialInsurance: money(l.Deductions.SocialInsurance),
			HealthInsurance: money(l.Deductions.HealthInsurance),
			HousingFund:     money(l.Deductions.HousingFund),
			Tax:             money(l.Deductions.Tax),
			Late:            money(l.Deductions.Late),
			CashAdvance:     money(l.Deductions.CashAdvance),
			Absence:         money(l.Deductions.Absence),
			AbsenceFolded:   l.Deductions.AbsenceFolded,
			Total:           money(l.Deductions.Total),
		},
		NetPay: money(l.NetPay),
		Employer: EmployerResponse{
			SocialInsurance:              money(l.Employer.SocialInsurance),
			SocialInsuranceSupplementary: money(l.Employer.SocialInsuranceSupplementary),
			HealthInsurance:              money(l.Employer.HealthInsurance),
			HousingFund:                  money(l.Employer.HousingFund),
			Total:                        money(l.Employer.Total),
		},
		Status:      string(l.Status),
		FinalizedBy: l.FinalizedBy,
	}
	if l.PayoutDate != nil {
		p := l.PayoutDate.Format("2006-01-02")
		resp.PayoutDate = &p
	}
	return resp
}

type LineFailureResponse struct {
	EmployeeID string `json:"employee_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

type DraftRegisterResponse struct {
	PeriodStart string                `json:"period_start"`
	PeriodEnd   string                `json:"period_end"`
	Lines       []PayrollLineResponse `json:"lines"`
	Failures    []LineFailureResponse `json:"failures"`
}

func ToFailureResponses(failures []LineFailure) []LineFailureResponse {
	out := make([]LineFailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, LineFailureResponse{
			EmployeeID: f.EmployeeID,
			Code:       apperror.CodeOf(f.Err),
			Message:    f.Err.Error(),
		})
	}
	return out
}

func ToRegisterResponse(reg DraftRegister) DraftRegisterResponse {
	lines := make([]PayrollLineResponse, 0, len(reg.Lines))
	for _, l := range reg.Lines {
		lines = append(lines, ToResponse(l))
	}
	return DraftRegisterResponse{
		PeriodStart: reg.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   reg.PeriodEnd.Format("2006-01-02"),
		Lines:       lines,
		Failures:    ToFailureResponses(reg.Failures),
	}
}
