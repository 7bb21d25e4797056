package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const recordColumns = `id, employee_id, date, time_in, time_out, hours_worked, status, late_minutes, cross_boundary, created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var hours decimal.NullDecimal
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.TimeIn, &rec.TimeOut, &hours,
		&rec.Status, &rec.LateMinutes, &rec.CrossBoundary, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return attendance.Record{}, err
	}
	if hours.Valid {
		rec.HoursWorked = &hours.Decimal
	}
	return rec, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)
	if record.ID == "" {
		id, err := newID()
		if err != nil {
			return attendance.Record{}, err
		}
		record.ID = id
	}

	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, time_in, time_out, hours_worked, status, late_minutes, cross_boundary
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		record.ID,
		record.EmployeeID,
		record.Date,
		record.TimeIn,
		record.TimeOut,
		record.HoursWorked,
		record.Status,
		record.LateMinutes,
		record.CrossBoundary,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "attendance_records_employee_date_key") {
			return attendance.Record{}, attendance.ErrDuplicateClockIn
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)
	rec, err := scanRecord(q.QueryRow(ctx, `SELECT `+recordColumns+` FROM attendance_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return rec, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE employee_id = $1 AND date = $2`
	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return rec, nil
}

// Close implements attendance.AttendanceRepository.
func (a *attendanceRepository) Close(ctx context.Context, record attendance.Record) error {
	q := GetQuerier(ctx, a.db)
	query := `
		UPDATE attendance_records
		SET time_out = $2, hours_worked = $3, status = $4, cross_boundary = $5, updated_at = now()
		WHERE id = $1 AND time_in IS NOT NULL AND time_out IS NULL
	`
	tag, err := q.Exec(ctx, query, record.ID, record.TimeOut, record.HoursWorked, record.Status, record.CrossBoundary)
	if err != nil {
		return fmt.Errorf("failed to close attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrNoOpenRecord
	}
	return nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	baseWhere := "WHERE 1 = 1"
	args := []interface{}{}
	argIdx := 1
	if filter.EmployeeID != nil {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
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
	if filter.Status != nil {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.OpenOnly {
		baseWhere += " AND time_in IS NOT NULL AND time_out IS NULL"
	}

	query := fmt.Sprintf(`SELECT %s FROM attendance_records %s ORDER BY date, employee_id`, recordColumns, baseWhere)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	out := make([]attendance.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summarize implements attendance.AttendanceRepository.
func (a *attendanceRepository) Summarize(ctx context.Context, employeeID string, start, end time.Time) (attendance.Summary, error) {
	q := GetQuerier(ctx, a.db)
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status <> $4),
			COUNT(*) FILTER (WHERE status = $5),
			COUNT(*) FILTER (WHERE status = $4),
			COALESCE(SUM(late_minutes) FILTER (WHERE status <> $4), 0),
			COALESCE(SUM(hours_worked) FILTER (WHERE status <> $4), 0)
		FROM attendance_records
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
	`
	sum := attendance.Summary{EmployeeID: employeeID}
	err := q.QueryRow(ctx, query, employeeID, start, end, attendance.StatusAbsent, attendance.StatusLate).Scan(
		&sum.DaysPresent, &sum.DaysLate, &sum.DaysAbsent, &sum.LateMinutes, &sum.HoursWorked,
	)
	if err != nil {
		return attendance.Summary{}, fmt.Errorf("failed to summarize attendance: %w", err)
	}
	return sum, nil
}

// EmployeesWithRecord implements attendance.AttendanceRepository.
func (a *attendanceRepository) EmployeesWithRecord(ctx context.Context, date time.Time) ([]string, error) {
	q := GetQuerier(ctx, a.db)
	rows, err := q.Query(ctx, `SELECT employee_id FROM attendance_records WHERE date = $1 ORDER BY employee_id`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance employees: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee ids: %w", err)
	}
	return ids, nil
}

const eventColumns = `id, type, employee_id, record_id, date, occurred_at, attempts, last_error, processed_at, created_at`

type outboxRepository struct {
	db *database.DB
}

func NewOutboxRepository(db *database.DB) attendance.OutboxRepository {
	return &outboxRepository{db: db}
}

func scanEvent(row pgx.Row) (attendance.Event, error) {
	var e attendance.Event
	err := row.Scan(&e.ID, &e.Type, &e.EmployeeID, &e.RecordID, &e.Date, &e.OccurredAt,
		&e.Attempts, &e.LastError, &e.ProcessedAt, &e.CreatedAt)
	return e, err
}

// Append implements attendance.OutboxRepository.
func (o *outboxRepository) Append(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	q := GetQuerier(ctx, o.db)
	if event.ID == "" {
		id, err := newID()
		if err != nil {
			return attendance.Event{}, err
		}
		event.ID = id
	}
	query := `
		INSERT INTO attendance_events (id, type, employee_id, record_id, date, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := q.QueryRow(ctx, query, event.ID, event.Type, event.EmployeeID, event.RecordID, event.Date, event.OccurredAt).
		Scan(&event.CreatedAt)
	if err != nil {
		return attendance.Event{}, fmt.Errorf("failed to append outbox event: %w", err)
	}
	return event, nil
}

// GetByID implements attendance.OutboxRepository.
func (o *outboxRepository) GetByID(ctx context.Context, id string) (attendance.Event, error) {
	q := GetQuerier(ctx, o.db)
	e, err := scanEvent(q.QueryRow(ctx, `SELECT `+eventColumns+` FROM attendance_events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Event{}, attendance.ErrEventNotFound
		}
		return attendance.Event{}, fmt.Errorf("failed to get outbox event: %w", err)
	}
	return e, nil
}

// ListUnprocessed implements attendance.OutboxRepository.
func (o *outboxRepository) ListUnprocessed(ctx context.Context, createdBefore time.Time, limit int) ([]attendance.Event, error) {
	q := GetQuerier(ctx, o.db)
	query := `SELECT ` + eventColumns + ` FROM attendance_events
		WHERE processed_at IS NULL AND created_at < $1
		ORDER BY created_at, id`
	args := []interface{}{createdBefore}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox events: %w", err)
	}
	defer rows.Close()

	out := make([]attendance.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkProcessed implements attendance.OutboxRepository.
func (o *outboxRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	q := GetQuerier(ctx, o.db)
	tag, err := q.Exec(ctx, `UPDATE attendance_events SET processed_at = $2, attempts = attempts + 1, last_error = NULL WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrEventNotFound
	}
	return nil
}

// MarkFailed implements attendance.OutboxRepository.
func (o *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	q := GetQuerier(ctx, o.db)
	tag, err := q.Exec(ctx, `UPDATE attendance_events SET attempts = attempts + 1, last_error = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrEventNotFound
	}
	return nil
}
