package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

type attendanceRepository struct {
	s *Store
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{s: s}
}

func (r *attendanceRepository) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.records {
		if existing.EmployeeID == record.EmployeeID && sameDay(existing.Date, record.Date) {
			return attendance.Record{}, attendance.ErrDuplicateClockIn
		}
	}
	if record.ID == "" {
		record.ID = newID()
	}
	now := r.s.now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	r.s.records[record.ID] = record
	return record, nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Record, error) {
	defer r.s.lock(ctx)()
	for _, rec := range r.s.records {
		if rec.EmployeeID == employeeID && sameDay(rec.Date, date) {
			return rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (r *attendanceRepository) Close(ctx context.Context, record attendance.Record) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.records[record.ID]
	if !ok || !stored.IsOpen() {
		return attendance.ErrNoOpenRecord
	}
	stored.TimeOut = record.TimeOut
	stored.HoursWorked = record.HoursWorked
	stored.Status = record.Status
	stored.CrossBoundary = record.CrossBoundary
	stored.UpdatedAt = r.s.now().UTC()
	r.s.records[record.ID] = stored
	return nil
}

func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Record, error) {
	defer r.s.lock(ctx)()
	out := make([]attendance.Record, 0)
	for _, rec := range r.s.records {
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.StartDate != nil && rec.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && rec.Date.After(*filter.EndDate) {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if filter.OpenOnly && !rec.IsOpen() {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (r *attendanceRepository) Summarize(ctx context.Context, employeeID string, start, end time.Time) (attendance.Summary, error) {
	defer r.s.lock(ctx)()
	sum := attendance.Summary{EmployeeID: employeeID, HoursWorked: decimal.Zero}
	for _, rec := range r.s.records {
		if rec.EmployeeID != employeeID || !inRange(rec.Date, start, end) {
			continue
		}
		switch rec.Status {
		case attendance.StatusAbsent:
			sum.DaysAbsent++
			continue
		case attendance.StatusLate:
			sum.DaysLate++
		}
		sum.DaysPresent++
		sum.LateMinutes += rec.LateMinutes
		if rec.HoursWorked != nil {
			sum.HoursWorked = sum.HoursWorked.Add(*rec.HoursWorked)
		}
	}
	return sum, nil
}

func (r *attendanceRepository) EmployeesWithRecord(ctx context.Context, date time.Time) ([]string, error) {
	defer r.s.lock(ctx)()
	ids := make([]string, 0)
	for _, rec := range r.s.records {
		if sameDay(rec.Date, date) {
			ids = append(ids, rec.EmployeeID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type outboxRepository struct {
	s *Store
}

func NewOutboxRepository(s *Store) attendance.OutboxRepository {
	return &outboxRepository{s: s}
}

func (r *outboxRepository) Append(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	defer r.s.lock(ctx)()
	if event.ID == "" {
		event.ID = newID()
	}
	event.CreatedAt = r.s.now().UTC()
	r.s.events[event.ID] = event
	return event, nil
}

func (r *outboxRepository) GetByID(ctx context.Context, id string) (attendance.Event, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return attendance.Event{}, attendance.ErrEventNotFound
	}
	return e, nil
}

func (r *outboxRepository) ListUnprocessed(ctx context.Context, createdBefore time.Time, limit int) ([]attendance.Event, error) {
	defer r.s.lock(ctx)()
	out := make([]attendance.Event, 0)
	for _, e := range r.s.events {
		if e.ProcessedAt == nil && e.CreatedAt.Before(createdBefore) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return attendance.ErrEventNotFound
	}
	e.ProcessedAt = &at
	e.Attempts++
	e.LastError = nil
	r.s.events[id] = e
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.events[id]
	if !ok {
		return attendance.ErrEventNotFound
	}
	e.Attempts++
	e.LastError = &reason
	r.s.events[id] = e
	return nil
}
