package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const cashAdvanceColumns = `id, employee_id, amount, reason, repayment_plan, status, manager_approval, manager_id,
	admin_approval, admin_id, review_notes, is_disbursed, disbursed_at, created_at, updated_at`

type cashAdvanceRepository struct {
	db *database.DB
}

func NewCashAdvanceRepository(db *database.DB) cashadvance.CashAdvanceRepository {
	return &cashAdvanceRepository{db: db}
}

func scanCashAdvance(row pgx.Row) (cashadvance.Request, error) {
	var r cashadvance.Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Amount, &r.Reason, &r.RepaymentPlan, &r.Status, &r.ManagerApproval, &r.ManagerID,
		&r.AdminApproval, &r.AdminID, &r.ReviewNotes, &r.IsDisbursed, &r.DisbursedAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// Create implements cashadvance.CashAdvanceRepository.
func (c *cashAdvanceRepository) Create(ctx context.Context, req cashadvance.Request) (cashadvance.Request, error) {
	q := GetQuerier(ctx, c.db)
	if req.ID == "" {
		id, err := newID()
		if err != nil {
			return cashadvance.Request{}, err
		}
		req.ID = id
	}
	query := `
		INSERT INTO cash_advances (
			id, employee_id, amount, reason, repayment_plan, status, manager_approval, manager_id,
			admin_approval, admin_id, review_notes, is_disbursed, disbursed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		req.ID, req.EmployeeID, req.Amount, req.Reason, req.RepaymentPlan, req.Status, req.ManagerApproval, req.ManagerID,
		req.AdminApproval, req.AdminID, req.ReviewNotes, req.IsDisbursed, req.DisbursedAt,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return cashadvance.Request{}, fmt.Errorf("failed to create cash advance: %w", err)
	}
	return req, nil
}

// GetByID implements cashadvance.CashAdvanceRepository.
func (c *cashAdvanceRepository) GetByID(ctx context.Context, id string) (cashadvance.Request, error) {
	q := GetQuerier(ctx, c.db)
	query := `SELECT ` + cashAdvanceColumns + ` FROM cash_advances WHERE id = $1`
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		query += " FOR UPDATE"
	}
	r, err := scanCashAdvance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cashadvance.Request{}, cashadvance.ErrRequestNotFound
		}
		return cashadvance.Request{}, fmt.Errorf("failed to get cash advance: %w", err)
	}
	return r, nil
}

// Update implements cashadvance.CashAdvanceRepository.
func (c *cashAdvanceRepository) Update(ctx context.Context, req cashadvance.Request) error {
	q := GetQuerier(ctx, c.db)
	query := `
		UPDATE cash_advances
		SET status = $2, manager_approval = $3, manager_id = $4, admin_approval = $5, admin_id = $6,
			review_notes = $7, is_disbursed = $8, disbursed_at = $9, updated_at = now()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, req.ID, req.Status, req.ManagerApproval, req.ManagerID, req.AdminApproval, req.AdminID,
		req.ReviewNotes, req.IsDisbursed, req.DisbursedAt)
	if err != nil {
		return fmt.Errorf("failed to update cash advance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cashadvance.ErrRequestNotFound
	}
	return nil
}

// List implements cashadvance.CashAdvanceRepository.
func (c *cashAdvanceRepository) List(ctx context.Context, filter cashadvance.CashAdvanceFilter) ([]cashadvance.Request, error) {
	q := GetQuerier(ctx, c.db)

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

	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM cash_advances %s ORDER BY id`, cashAdvanceColumns, baseWhere), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash advances: %w", err)
	}
	defer rows.Close()

	out := make([]cashadvance.Request, 0)
	for rows.Next() {
		r, err := scanCashAdvance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash advance: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// EligibleTotal implements cashadvance.CashAdvanceRepository.
func (c *cashAdvanceRepository) EligibleTotal(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error) {
	q := GetQuerier(ctx, c.db)
	var total decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM cash_advances
		WHERE employee_id = $1 AND status = $2 AND is_disbursed
		  AND disbursed_at >= $3 AND disbursed_at < $4
	`, employeeID, cashadvance.StatusApproved, start, end.AddDate(0, 0, 1)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to total cash advances: %w", err)
	}
	return total, nil
}
