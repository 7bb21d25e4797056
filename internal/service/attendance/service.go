package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/shopspring/decimal"
)

const lockScope = "attendance"

type AttendanceServiceImpl struct {
	tx             database.Transactor
	settings       settings.Provider
	attendanceRepo attendance.AttendanceRepository
	outboxRepo     attendance.OutboxRepository
	employeeRepo   employee.EmployeeRepository
	locker         lock.Locker
	publisher      attendance.Publisher
	metrics        *observability.Metrics
	logger         *slog.Logger
}

func NewAttendanceService(
	tx database.Transactor,
	settingsProvider settings.Provider,
	attendanceRepo attendance.AttendanceRepository,
	outboxRepo attendance.OutboxRepository,
	employeeRepo employee.EmployeeRepository,
	locker lock.Locker,
	publisher attendance.Publisher,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *AttendanceServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceServiceImpl{
		tx:             tx,
		settings:       settingsProvider,
		attendanceRepo: attendanceRepo,
		outboxRepo:     outboxRepo,
		employeeRepo:   employeeRepo,
		locker:         locker,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger,
	}
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

// activeEmployee loads the employee and rejects anyone no longer employed.
func (s *AttendanceServiceImpl) activeEmployee(ctx context.Context, id string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.Employee{}, apperror.WithFields(err, "employee_id", id)
	}
	if !emp.IsActive() {
		return employee.Employee{}, apperror.WithFields(employee.ErrEmployeeInactive, "employee_id", id)
	}
	return emp, nil
}

// classify compares a clock-in against work start plus the grace period. Late minutes count from work start.
func classify(s *settings.Settings, date, ts time.Time) (attendance.Status, int) {
	start := s.At(date, s.WorkStart)
	graceEnd := start.Add(time.Duration(s.GracePeriodMinutes) * time.Minute)
	if !ts.After(graceEnd) {
		return attendance.StatusPresent, 0
	}
	return attendance.StatusLate, int(ts.Sub(start) / time.Minute)
}

// hoursBetween returns the elapsed hours rounded to two places.
func hoursBetween(from, to time.Time) decimal.Decimal {
	seconds := decimal.NewFromInt(int64(to.Sub(from) / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).RoundBank(2)
}

func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	resp, err := s.clockIn(ctx, req)
	s.metrics.ClockEvent(string(attendance.EventClockedIn), err)
	return resp, err
}

func (s *AttendanceServiceImpl) clockIn(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if _, err := s.activeEmployee(ctx, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	ts := req.Timestamp.UTC()
	date := snapshot.DateOf(ts)
	dateStr := date.Format("2006-01-02")

	release, err := s.locker.Lock(ctx, lock.EmployeeDayKey(lockScope, req.EmployeeID, date))
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to lock attendance day: %w", err)
	}
	defer release()

	var record attendance.Record
	var event attendance.Event
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
		if err == nil {
			return attendance.ErrDuplicateClockIn
		}
		if !errors.Is(err, attendance.ErrRecordNotFound) {
			return err
		}

		status, lateMinutes := classify(snapshot, date, ts)
		record, err = s.attendanceRepo.Create(ctx, attendance.Record{
			EmployeeID:  req.EmployeeID,
			Date:        date,
			TimeIn:      &ts,
			Status:      status,
			LateMinutes: lateMinutes,
		})
		if err != nil {
			return err
		}

		event, err = s.outboxRepo.Append(ctx, attendance.Event{
			Type:       attendance.EventClockedIn,
			EmployeeID: req.EmployeeID,
			RecordID:   record.ID,
			Date:       date,
			OccurredAt: ts,
		})
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, apperror.WithFields(err, "employee_id", req.EmployeeID, "date", dateStr)
	}

	s.publish(ctx, event)
	return attendance.ToResponse(record), nil
}

func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	resp, err := s.clockOut(ctx, req)
	s.metrics.ClockEvent(string(attendance.EventClockedOut), err)
	return resp, err
}

func (s *AttendanceServiceImpl) clockOut(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if _, err := s.activeEmployee(ctx, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	ts := req.Timestamp.UTC()
	date := snapshot.DateOf(ts)
	dateStr := date.Format("2006-01-02")

	release, err := s.locker.Lock(ctx, lock.EmployeeDayKey(lockScope, req.EmployeeID, date))
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to lock attendance day: %w", err)
	}
	defer release()

	var record attendance.Record
	var event attendance.Event
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err = s.attendanceRepo.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.ErrNoOpenRecord
		}
		if err != nil {
			return err
		}
		if !record.IsOpen() {
			return apperror.WithFields(attendance.ErrNoOpenRecord, "record_id", record.ID)
		}

		record.TimeOut = &ts
		if ts.Before(*record.TimeIn) {
			record.CrossBoundary = true
			record.Status = attendance.StatusIncomplete
			record.HoursWorked = nil
		} else {
			hours := hoursBetween(*record.TimeIn, ts)
			record.HoursWorked = &hours
		}
		if err := s.attendanceRepo.Close(ctx, record); err != nil {
			return err
		}

		event, err = s.outboxRepo.Append(ctx, attendance.Event{
			Type:       attendance.EventClockedOut,
			EmployeeID: req.EmployeeID,
			RecordID:   record.ID,
			Date:       date,
			OccurredAt: ts,
		})
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, apperror.WithFields(err, "employee_id", req.EmployeeID, "date", dateStr)
	}

	if record.CrossBoundary {
		s.logger.Warn("Clock-out recorded before clock-in",
			"employee_id", req.EmployeeID, "record_id", record.ID, "date", dateStr)
	}
	s.publish(ctx, event)
	return attendance.ToResponse(record), nil
}

// publish hands a committed event to the subscribers. A failure leaves the event in the outbox for replay.
func (s *AttendanceServiceImpl) publish(ctx context.Context, event attendance.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Attendance event not delivered, left for replay",
			"event_id", event.ID, "type", event.Type, "employee_id", event.EmployeeID, "error", err)
	}
}

// MarkAbsent creates absent records for the listed employees that have no record on the date.
// It returns the number of records created.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	created := 0
	for _, employeeID := range req.EmployeeIDs {
		if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
			return created, apperror.WithFields(err, "employee_id", employeeID)
		}
		ok, err := s.markAbsent(ctx, employeeID, date)
		if err != nil {
			return created, apperror.WithFields(err, "employee_id", employeeID, "date", req.Date)
		}
		if ok {
			created++
		}
	}
	s.logger.Info("Marked absent employees", "date", req.Date, "count", created)
	return created, nil
}

func (s *AttendanceServiceImpl) markAbsent(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	release, err := s.locker.Lock(ctx, lock.EmployeeDayKey(lockScope, employeeID, date))
	if err != nil {
		return false, fmt.Errorf("failed to lock attendance day: %w", err)
	}
	defer release()

	created := false
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, date)
		if err == nil {
			return nil
		}
		if !errors.Is(err, attendance.ErrRecordNotFound) {
			return err
		}
		if _, err := s.attendanceRepo.Create(ctx, attendance.Record{
			EmployeeID: employeeID,
			Date:       date,
			Status:     attendance.StatusAbsent,
		}); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	record, err := s.attendanceRepo.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceResponse{}, apperror.WithFields(err, "record_id", id)
	}
	return attendance.ToResponse(record), nil
}

func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceResponse, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, attendance.ErrInvalidDateFilter
	}
	records, err := s.attendanceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	out := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		out = append(out, attendance.ToResponse(r))
	}
	return out, nil
}

func (s *AttendanceServiceImpl) Summary(ctx context.Context, employeeID string, start, end time.Time) (attendance.Summary, error) {
	if end.Before(start) {
		return attendance.Summary{}, attendance.ErrInvalidDateFilter
	}
	return s.attendanceRepo.Summarize(ctx, employeeID, start, end)
}
