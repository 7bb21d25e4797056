package attendance

import (
	"context"
	"time"
)

// AttendanceRepository stores one record per (employee, date). Create must fail with
// ErrDuplicateClockIn when a record already exists for the pair.
type AttendanceRepository interface {
	Create(ctx context.Context, record Record) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Record, error)
	// Close stores the clock-out fields only while the record is still open, otherwise ErrNoOpenRecord.
	Close(ctx context.Context, record Record) error
	List(ctx context.Context, filter AttendanceFilter) ([]Record, error)
	Summarize(ctx context.Context, employeeID string, start, end time.Time) (Summary, error)
	EmployeesWithRecord(ctx context.Context, date time.Time) ([]string, error)
}

// OutboxRepository holds attendance events until the settlement subscribers have processed them.
type OutboxRepository interface {
	Append(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)
	ListUnprocessed(ctx context.Context, createdBefore time.Time, limit int) ([]Event, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
