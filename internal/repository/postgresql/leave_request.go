package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	leaveColumns = `id, employee_id, leave_type, start_date, end_date, total_days, reason, status, is_active,
		reviewed_by, review_notes, reviewed_at, needs_review, review_flag, completed_by, completed_at,
		created_at, updated_at`
	leaveActiveIndex = "leave_requests_one_active_idx"
)

type leaveRequestRepository struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepository{db: db}
}

func scanLeave(row pgx.Row) (leave.Request, error) {
	var r leave.Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate, &r.TotalDays, &r.Reason, &r.Status, &r.IsActive,
		&r.ReviewedBy, &r.ReviewNotes, &r.ReviewedAt, &r.NeedsReview, &r.ReviewFlag, &r.CompletedBy, &r.CompletedAt,
		&r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (l *leaveRequestRepository) queryList(ctx context.Context, query string, args ...interface{}) ([]leave.Request, error) {
	q := GetQuerier(ctx, l.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	out := make([]leave.Request, 0)
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Create implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	q := GetQuerier(ctx, l.db)
	if req.ID == "" {
		id, err := newID()
		if err != nil {
			return leave.Request{}, err
		}
		req.ID = id
	}
	query := `
		INSERT INTO leave_requests (
			id, employee_id, leave_type, start_date, end_date, total_days, reason, status, is_active,
			reviewed_by, review_notes, reviewed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		req.ID, req.EmployeeID, req.LeaveType, req.StartDate, req.EndDate, req.TotalDays, req.Reason, req.Status, req.IsActive,
		req.ReviewedBy, req.ReviewNotes, req.ReviewedAt,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, leaveActiveIndex) {
			return leave.Request{}, leave.ErrDuplicateActiveRequest
		}
		return leave.Request{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return req, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.Request, error) {
	q := GetQuerier(ctx, l.db)
	r, err := scanLeave(q.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Request{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return r, nil
}

// GetActive implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) GetActive(ctx context.Context, employeeID string) (leave.Request, error) {
	q := GetQuerier(ctx, l.db)
	r, err := scanLeave(q.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE employee_id = $1 AND is_active`, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Request{}, fmt.Errorf("failed to get active leave request: %w", err)
	}
	return r, nil
}

// HasSettledOn implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) HasSettledOn(ctx context.Context, employeeID string, endDate time.Time) (bool, error) {
	q := GetQuerier(ctx, l.db)
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM leave_requests WHERE employee_id = $1 AND end_date = $2 AND total_days IS NOT NULL)`,
		employeeID, endDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check settled leave: %w", err)
	}
	return exists, nil
}

func (l *leaveRequestRepository) exists(ctx context.Context, id string) error {
	q := GetQuerier(ctx, l.db)
	var found bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_requests WHERE id = $1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("failed to check leave request: %w", err)
	}
	if !found {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// UpdateReview implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) UpdateReview(ctx context.Context, req leave.Request) error {
	q := GetQuerier(ctx, l.db)
	query := `
		UPDATE leave_requests
		SET status = $2, is_active = $3, reviewed_by = $4, review_notes = $5, reviewed_at = $6, updated_at = now()
		WHERE id = $1 AND status = $7
	`
	tag, err := q.Exec(ctx, query, req.ID, req.Status, req.IsActive, req.ReviewedBy, req.ReviewNotes, req.ReviewedAt, leave.StatusPending)
	if err != nil {
		if isUniqueViolation(err, leaveActiveIndex) {
			return leave.ErrDuplicateActiveRequest
		}
		return fmt.Errorf("failed to update leave review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := l.exists(ctx, req.ID); err != nil {
			return err
		}
		return leave.ErrNotPending
	}
	return nil
}

// Complete implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Complete(ctx context.Context, req leave.Request) error {
	q := GetQuerier(ctx, l.db)
	query := `
		UPDATE leave_requests
		SET end_date = $2, total_days = $3, completed_by = $4, completed_at = $5,
			is_active = FALSE, needs_review = FALSE, updated_at = now()
		WHERE id = $1 AND is_active AND total_days IS NULL
	`
	tag, err := q.Exec(ctx, query, req.ID, req.EndDate, req.TotalDays, req.CompletedBy, req.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to complete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := l.exists(ctx, req.ID); err != nil {
			return err
		}
		return leave.ErrAlreadySettled
	}
	return nil
}

// Flag implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) Flag(ctx context.Context, id string, flag string) error {
	q := GetQuerier(ctx, l.db)
	tag, err := q.Exec(ctx, `UPDATE leave_requests SET needs_review = TRUE, review_flag = $2, updated_at = now() WHERE id = $1`, id, flag)
	if err != nil {
		return fmt.Errorf("failed to flag leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// List implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.Request, error) {
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
	if filter.LeaveType != nil {
		baseWhere += fmt.Sprintf(" AND leave_type = $%d", argIdx)
		args = append(args, *filter.LeaveType)
		argIdx++
	}
	query := fmt.Sprintf(`SELECT %s FROM leave_requests %s ORDER BY start_date, id`, leaveColumns, baseWhere)
	return l.queryList(ctx, query, args...)
}

// ListActionRequired implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) ListActionRequired(ctx context.Context, startedBefore time.Time) ([]leave.Request, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests
		WHERE is_active AND (needs_review OR start_date < $1)
		ORDER BY start_date, id`
	return l.queryList(ctx, query, startedBefore)
}

// SettledDays implements leave.LeaveRequestRepository.
func (l *leaveRequestRepository) SettledDays(ctx context.Context, employeeID string, start, end time.Time) (map[leave.Type]int, error) {
	q := GetQuerier(ctx, l.db)
	rows, err := q.Query(ctx, `
		SELECT leave_type, SUM(total_days)
		FROM leave_requests
		WHERE employee_id = $1 AND status = $2 AND total_days IS NOT NULL AND start_date BETWEEN $3 AND $4
		GROUP BY leave_type
	`, employeeID, leave.StatusApproved, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum settled leave: %w", err)
	}
	defer rows.Close()

	out := make(map[leave.Type]int)
	for rows.Next() {
		var t leave.Type
		var days int
		if err := rows.Scan(&t, &days); err != nil {
			return nil, fmt.Errorf("failed to scan settled leave: %w", err)
		}
		out[t] = days
	}
	return out, rows.Err()
}

type leaveCreditRepository struct {
	db *database.DB
}

func NewLeaveCreditRepository(db *database.DB) leave.LeaveCreditRepository {
	return &leaveCreditRepository{db: db}
}

// ListByEmployee implements leave.LeaveCreditRepository.
func (l *leaveCreditRepository) ListByEmployee(ctx context.Context, employeeID string) ([]leave.Credit, error) {
	q := GetQuerier(ctx, l.db)
	rows, err := q.Query(ctx, `
		SELECT employee_id, leave_type, days, reason, adjusted_by, adjusted_at
		FROM leave_credits WHERE employee_id = $1 ORDER BY leave_type
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave credits: %w", err)
	}
	credits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (leave.Credit, error) {
		var c leave.Credit
		err := row.Scan(&c.EmployeeID, &c.LeaveType, &c.Days, &c.Reason, &c.AdjustedBy, &c.AdjustedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan leave credits: %w", err)
	}
	return credits, nil
}

// Upsert implements leave.LeaveCreditRepository.
func (l *leaveCreditRepository) Upsert(ctx context.Context, credit leave.Credit) (leave.Credit, error) {
	q := GetQuerier(ctx, l.db)
	_, err := q.Exec(ctx, `
		INSERT INTO leave_credits (employee_id, leave_type, days, reason, adjusted_by, adjusted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, leave_type) DO UPDATE
		SET days = EXCLUDED.days, reason = EXCLUDED.reason, adjusted_by = EXCLUDED.adjusted_by, adjusted_at = EXCLUDED.adjusted_at
	`, credit.EmployeeID, credit.LeaveType, credit.Days, credit.Reason, credit.AdjustedBy, credit.AdjustedAt)
	if err != nil {
		return leave.Credit{}, fmt.Errorf("failed to upsert leave credit: %w", err)
	}
	return credit, nil
}

// DeleteByEmployee implements leave.LeaveCreditRepository.
func (l *leaveCreditRepository) DeleteByEmployee(ctx context.Context, employeeID string) (int, error) {
	q := GetQuerier(ctx, l.db)
	tag, err := q.Exec(ctx, `DELETE FROM leave_credits WHERE employee_id = $1`, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset leave credits: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
