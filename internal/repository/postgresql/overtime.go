package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	overtimeColumns = `id, employee_id, date, start_time, end_time, total_hours, day_type, rate_multiplier,
		overtime_pay, reason, status, is_active, reviewed_by, review_notes, reviewed_at,
		needs_review, review_flag, completed_by, completed_at, created_at, updated_at`
	overtimeActiveIndex = "overtime_requests_one_active_idx"
)

type overtimeRepository struct {
	db *database.DB
}

func NewOvertimeRepository(db *database.DB) overtime.OvertimeRepository {
	return &overtimeRepository{db: db}
}

func scanOvertime(row pgx.Row) (overtime.Request, error) {
	var r overtime.Request
	var hours, pay decimal.NullDecimal
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Date, &r.StartTime, &r.EndTime, &hours, &r.DayType, &r.RateMultiplier,
		&pay, &r.Reason, &r.Status, &r.IsActive, &r.ReviewedBy, &r.ReviewNotes, &r.ReviewedAt,
		&r.NeedsReview, &r.ReviewFlag, &r.CompletedBy, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return overtime.Request{}, err
	}
	if hours.Valid {
		r.TotalHours = &hours.Decimal
	}
	if pay.Valid {
		r.OvertimePay = &pay.Decimal
	}
	return r, nil
}

func (o *overtimeRepository) queryList(ctx context.Context, query string, args ...interface{}) ([]overtime.Request, error) {
	q := GetQuerier(ctx, o.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime: %w", err)
	}
	defer rows.Close()

	out := make([]overtime.Request, 0)
	for rows.Next() {
		r, err := scanOvertime(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overtime: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Create implements overtime.OvertimeRepository.
func (o *overtimeRepository) Create(ctx context.Context, req overtime.Request) (overtime.Request, error) {
	q := GetQuerier(ctx, o.db)
	if req.ID == "" {
		id, err := newID()
		if err != nil {
			return overtime.Request{}, err
		}
		req.ID = id
	}
	query := `
		INSERT INTO overtime_requests (
			id, employee_id, date, start_time, day_type, rate_multiplier, reason, status, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		req.ID, req.EmployeeID, req.Date, req.StartTime, req.DayType, req.RateMultiplier, req.Reason, req.Status, req.IsActive,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, overtimeActiveIndex) {
			return overtime.Request{}, overtime.ErrDuplicateActiveRequest
		}
		return overtime.Request{}, fmt.Errorf("failed to create overtime request: %w", err)
	}
	return req, nil
}

// GetByID implements overtime.OvertimeRepository.
func (o *overtimeRepository) GetByID(ctx context.Context, id string) (overtime.Request, error) {
	q := GetQuerier(ctx, o.db)
	r, err := scanOvertime(q.QueryRow(ctx, `SELECT `+overtimeColumns+` FROM overtime_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return overtime.Request{}, overtime.ErrRequestNotFound
		}
		return overtime.Request{}, fmt.Errorf("failed to get overtime request: %w", err)
	}
	return r, nil
}

// GetActive implements overtime.OvertimeRepository.
func (o *overtimeRepository) GetActive(ctx context.Context, employeeID string, date time.Time) (overtime.Request, error) {
	q := GetQuerier(ctx, o.db)
	query := `SELECT ` + overtimeColumns + ` FROM overtime_requests WHERE employee_id = $1 AND date = $2 AND is_active`
	r, err := scanOvertime(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return overtime.Request{}, overtime.ErrRequestNotFound
		}
		return overtime.Request{}, fmt.Errorf("failed to get active overtime request: %w", err)
	}
	return r, nil
}

// HasCompleted implements overtime.OvertimeRepository.
func (o *overtimeRepository) HasCompleted(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, o.db)
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM overtime_requests WHERE employee_id = $1 AND date = $2 AND total_hours IS NOT NULL)`,
		employeeID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completed overtime: %w", err)
	}
	return exists, nil
}

func (o *overtimeRepository) exists(ctx context.Context, id string) error {
	q := GetQuerier(ctx, o.db)
	var found bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM overtime_requests WHERE id = $1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("failed to check overtime request: %w", err)
	}
	if !found {
		return overtime.ErrRequestNotFound
	}
	return nil
}

// UpdateReview implements overtime.OvertimeRepository.
func (o *overtimeRepository) UpdateReview(ctx context.Context, req overtime.Request) error {
	q := GetQuerier(ctx, o.db)
	query := `
		UPDATE overtime_requests
		SET status = $2, is_active = $3, reviewed_by = $4, review_notes = $5, reviewed_at = $6, updated_at = now()
		WHERE id = $1 AND status = $7
	`
	tag, err := q.Exec(ctx, query, req.ID, req.Status, req.IsActive, req.ReviewedBy, req.ReviewNotes, req.ReviewedAt, overtime.StatusPending)
	if err != nil {
		if isUniqueViolation(err, overtimeActiveIndex) {
			return overtime.ErrDuplicateActiveRequest
		}
		return fmt.Errorf("failed to update overtime review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := o.exists(ctx, req.ID); err != nil {
			return err
		}
		return overtime.ErrNotPending
	}
	return nil
}

// Complete implements overtime.OvertimeRepository.
func (o *overtimeRepository) Complete(ctx context.Context, req overtime.Request) error {
	q := GetQuerier(ctx, o.db)
	query := `
		UPDATE overtime_requests
		SET end_time = $2, total_hours = $3, overtime_pay = $4, completed_by = $5, completed_at = $6,
			is_active = FALSE, needs_review = FALSE, updated_at = now()
		WHERE id = $1 AND is_active AND total_hours IS NULL
	`
	tag, err := q.Exec(ctx, query, req.ID, req.EndTime, req.TotalHours, req.OvertimePay, req.CompletedBy, req.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to complete overtime request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := o.exists(ctx, req.ID); err != nil {
			return err
		}
		return overtime.ErrAlreadySettled
	}
	return nil
}

// Flag implements overtime.OvertimeRepository.
func (o *overtimeRepository) Flag(ctx context.Context, id string, flag string) error {
	q := GetQuerier(ctx, o.db)
	tag, err := q.Exec(ctx, `UPDATE overtime_requests SET needs_review = TRUE, review_flag = $2, updated_at = now() WHERE id = $1`, id, flag)
	if err != nil {
		return fmt.Errorf("failed to flag overtime request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return overtime.ErrRequestNotFound
	}
	return nil
}

// List implements overtime.OvertimeRepository.
func (o *overtimeRepository) List(ctx context.Context, filter overtime.OvertimeFilter) ([]overtime.Request, error) {
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
	if filter.StartDate != nil {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	query := fmt.Sprintf(`SELECT %s FROM overtime_requests %s ORDER BY date, id`, overtimeColumns, baseWhere)
	return o.queryList(ctx, query, args...)
}

// ListActionRequired implements overtime.OvertimeRepository.
func (o *overtimeRepository) ListActionRequired(ctx context.Context, approvedBefore time.Time) ([]overtime.Request, error) {
	query := `SELECT ` + overtimeColumns + ` FROM overtime_requests
		WHERE is_active AND (needs_review OR reviewed_at < $1)
		ORDER BY date, id`
	return o.queryList(ctx, query, approvedBefore)
}

// SettledTotals implements overtime.OvertimeRepository.
func (o *overtimeRepository) SettledTotals(ctx context.Context, employeeID string, start, end time.Time) (overtime.Totals, error) {
	q := GetQuerier(ctx, o.db)
	var totals overtime.Totals
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_hours), 0), COALESCE(SUM(overtime_pay), 0)
		FROM overtime_requests
		WHERE employee_id = $1 AND total_hours IS NOT NULL AND date BETWEEN $2 AND $3
	`, employeeID, start, end).Scan(&totals.Hours, &totals.Pay)
	if err != nil {
		return overtime.Totals{}, fmt.Errorf("failed to total overtime: %w", err)
	}
	return totals, nil
}
