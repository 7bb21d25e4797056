package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	payrollColumns = `id, batch_id, employee_id, period_start, period_end, half, basic_salary, hourly_rate,
		days_absent, late_minutes, overtime_hours, overtime_pay, gross_pay,
		social_insurance, health_insurance, housing_fund, tax, late_deduction, cash_advance,
		absence_deduction, absence_folded, total_deductions, net_pay,
		employer_social, employer_social_supp, employer_health, employer_housing, employer_total,
		status, payout_date, finalized_by, finalized_at, created_at, updated_at`
	payrollFinalizedKey = "payroll_lines_finalized_key"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func scanPayrollLine(row pgx.Row) (payroll.PayrollLine, error) {
	var l payroll.PayrollLine
	d := &l.Deductions
	e := &l.Employer
	err := row.Scan(&l.ID, &l.BatchID, &l.EmployeeID, &l.PeriodStart, &l.PeriodEnd, &l.Half, &l.BasicSalary, &l.HourlyRate,
		&l.DaysAbsent, &l.LateMinutes, &l.OvertimeHours, &l.OvertimePay, &l.GrossPay,
		&d.SocialInsurance, &d.HealthInsurance, &d.HousingFund, &d.Tax, &d.Late, &d.CashAdvance,
		&d.Absence, &d.AbsenceFolded, &d.Total, &l.NetPay,
		&e.SocialInsurance, &e.SocialInsuranceSupplementary, &e.HealthInsurance, &e.HousingFund, &e.Total,
		&l.Status, &l.PayoutDate, &l.FinalizedBy, &l.FinalizedAt, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (p *payrollRepository) insert(ctx context.Context, line payroll.PayrollLine) (payroll.PayrollLine, error) {
	q := GetQuerier(ctx, p.db)
	if line.ID == "" {
		id, err := newID()
		if err != nil {
			return payroll.PayrollLine{}, err
		}
		line.ID = id
	}
	d, e := line.Deductions, line.Employer
	query := `
		INSERT INTO payroll_lines (
			id, batch_id, employee_id, period_start, period_end, half, basic_salary, hourly_rate,
			days_absent, late_minutes, overtime_hours, overtime_pay, gross_pay,
			social_insurance, health_insurance, housing_fund, tax, late_deduction, cash_advance,
			absence_deduction, absence_folded, total_deductions, net_pay,
			employer_social, employer_social_supp, employer_health, employer_housing, employer_total,
			status, payout_date, finalized_by, finalized_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
		) RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		line.ID, line.BatchID, line.EmployeeID, line.PeriodStart, line.PeriodEnd, line.Half, line.BasicSalary, line.HourlyRate,
		line.DaysAbsent, line.LateMinutes, line.OvertimeHours, line.OvertimePay, line.GrossPay,
		d.SocialInsurance, d.HealthInsurance, d.HousingFund, d.Tax, d.Late, d.CashAdvance,
		d.Absence, d.AbsenceFolded, d.Total, line.NetPay,
		e.SocialInsurance, e.SocialInsuranceSupplementary, e.HealthInsurance, e.HousingFund, e.Total,
		line.Status, line.PayoutDate, line.FinalizedBy, line.FinalizedAt,
	).Scan(&line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return payroll.PayrollLine{}, err
	}
	return line, nil
}

// SaveDraft implements payroll.PayrollRepository.
func (p *payrollRepository) SaveDraft(ctx context.Context, line payroll.PayrollLine) (payroll.PayrollLine, error) {
	line.Status = payroll.PayrollStatusDraft
	var saved payroll.PayrollLine
	// replace and insert must land together
	err := NewTransactor(p.db).WithinTransaction(ctx, func(ctx context.Context) error {
		if err := p.DeleteDrafts(ctx, line.EmployeeID, line.PeriodStart, line.PeriodEnd); err != nil {
			return err
		}
		var err error
		saved, err = p.insert(ctx, line)
		return err
	})
	if err != nil {
		return payroll.PayrollLine{}, fmt.Errorf("failed to save draft: %w", err)
	}
	return saved, nil
}

// InsertFinalized implements payroll.PayrollRepository.
func (p *payrollRepository) InsertFinalized(ctx context.Context, line payroll.PayrollLine) (payroll.PayrollLine, error) {
	line.Status = payroll.PayrollStatusFinalized
	saved, err := p.insert(ctx, line)
	if err != nil {
		if isUniqueViolation(err, payrollFinalizedKey) {
			return payroll.PayrollLine{}, payroll.ErrDuplicatePeriod
		}
		if isUniqueViolation(err, "payroll_lines_pkey") {
			return payroll.PayrollLine{}, payroll.ErrFinalizedImmutable
		}
		return payroll.PayrollLine{}, fmt.Errorf("failed to insert finalized line: %w", err)
	}
	return saved, nil
}

// DeleteDrafts implements payroll.PayrollRepository.
func (p *payrollRepository) DeleteDrafts(ctx context.Context, employeeID string, start, end time.Time) error {
	q := GetQuerier(ctx, p.db)
	_, err := q.Exec(ctx, `
		DELETE FROM payroll_lines
		WHERE employee_id = $1 AND period_start = $2 AND period_end = $3 AND status = $4
	`, employeeID, start, end, payroll.PayrollStatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete drafts: %w", err)
	}
	return nil
}

// ExistsFinalized implements payroll.PayrollRepository.
func (p *payrollRepository) ExistsFinalized(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, p.db)
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payroll_lines
			WHERE employee_id = $1 AND period_start = $2 AND period_end = $3 AND status = $4
		)
	`, employeeID, start, end, payroll.PayrollStatusFinalized).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finalized line: %w", err)
	}
	return exists, nil
}

// GetByID implements payroll.PayrollRepository.
func (p *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollLine, error) {
	q := GetQuerier(ctx, p.db)
	l, err := scanPayrollLine(q.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payroll_lines WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollLine{}, payroll.ErrPayrollLineNotFound
		}
		return payroll.PayrollLine{}, fmt.Errorf("failed to get payroll line: %w", err)
	}
	return l, nil
}

// List implements payroll.PayrollRepository.
func (p *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollLine, error) {
	q := GetQuerier(ctx, p.db)

	baseWhere := "WHERE 1 = 1"
	args := []interface{}{}
	argIdx := 1
	if filter.EmployeeID != nil {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.PeriodStart != nil {
		baseWhere += fmt.Sprintf(" AND period_start = $%d", argIdx)
		args = append(args, *filter.PeriodStart)
		argIdx++
	}
	if filter.PeriodEnd != nil {
		baseWhere += fmt.Sprintf(" AND period_end = $%d", argIdx)
		args = append(args, *filter.PeriodEnd)
		argIdx++
	}
	if filter.BatchID != nil {
		baseWhere += fmt.Sprintf(" AND batch_id = $%d", argIdx)
		args = append(args, *filter.BatchID)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT %s FROM payroll_lines %s ORDER BY period_start, employee_id, status`, payrollColumns, baseWhere)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll lines: %w", err)
	}
	defer rows.Close()

	out := make([]payroll.PayrollLine, 0)
	for rows.Next() {
		l, err := scanPayrollLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteDraft implements payroll.PayrollRepository.
func (p *payrollRepository) DeleteDraft(ctx context.Context, id string) error {
	q := GetQuerier(ctx, p.db)
	tag, err := q.Exec(ctx, `DELETE FROM payroll_lines WHERE id = $1 AND status = $2`, id, payroll.PayrollStatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := p.GetByID(ctx, id); err != nil {
		return err
	}
	return payroll.ErrFinalizedImmutable
}
