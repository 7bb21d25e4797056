package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
)

// Replayer redelivers outbox events that were not settled.
type Replayer interface {
	Replay(ctx context.Context, minAge time.Duration, limit int) (int, error)
}

// AbsenceMarker creates absent attendance records.
type AbsenceMarker interface {
	MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (int, error)
}

// SettingsRefresher reloads the settings snapshot from storage.
type SettingsRefresher interface {
	Refresh(ctx context.Context) (*settings.Settings, error)
}

type OvertimeReviewer interface {
	ListActionRequired(ctx context.Context, olderThan time.Duration) ([]overtime.OvertimeResponse, error)
}

type LeaveReviewer interface {
	ListActionRequired(ctx context.Context, olderThan time.Duration) ([]leave.LeaveRequestResponse, error)
}

type SettlementJobsConfig struct {
	ReplayInterval      time.Duration
	ReplayMinAge        time.Duration
	ReplayBatchSize     int
	ActionRequiredAfter time.Duration
	MarkAbsentInterval  time.Duration
	SettingsRefresh     time.Duration
}

type SettlementJobs struct {
	cfg            SettlementJobsConfig
	replayer       Replayer
	absence        AbsenceMarker
	refresher      SettingsRefresher
	settings       settings.Provider
	overtime       OvertimeReviewer
	leave          LeaveReviewer
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	leaveRepo      leave.LeaveRequestRepository
	logger         *slog.Logger
	now            func() time.Time
}

func NewSettlementJobs(
	cfg SettlementJobsConfig,
	replayer Replayer,
	absence AbsenceMarker,
	refresher SettingsRefresher,
	settingsProvider settings.Provider,
	overtimeReviewer OvertimeReviewer,
	leaveReviewer LeaveReviewer,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	leaveRepo leave.LeaveRequestRepository,
	logger *slog.Logger,
) *SettlementJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementJobs{
		cfg:            cfg,
		replayer:       replayer,
		absence:        absence,
		refresher:      refresher,
		settings:       settingsProvider,
		overtime:       overtimeReviewer,
		leave:          leaveReviewer,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		leaveRepo:      leaveRepo,
		logger:         logger,
		now:            time.Now,
	}
}

func (j *SettlementJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("replay_settlement_outbox", j.cfg.ReplayInterval, j.ReplayOutbox)
	scheduler.AddJob("surface_action_required", time.Hour, j.SurfaceActionRequired)
	scheduler.AddJob("mark_absent_employees", j.cfg.MarkAbsentInterval, j.MarkAbsentEmployees)
	if j.refresher != nil {
		scheduler.AddJob("refresh_settings", j.cfg.SettingsRefresh, j.RefreshSettings)
	}
}

func (j *SettlementJobs) ReplayOutbox(ctx context.Context) error {
	_, err := j.replayer.Replay(ctx, j.cfg.ReplayMinAge, j.cfg.ReplayBatchSize)
	return err
}

// SurfaceActionRequired logs approved requests that are still waiting for a settlement trigger or a review,
// and attendance records from earlier days that are still open.
func (j *SettlementJobs) SurfaceActionRequired(ctx context.Context) error {
	overtimes, err := j.overtime.ListActionRequired(ctx, j.cfg.ActionRequiredAfter)
	if err != nil {
		return err
	}
	for _, r := range overtimes {
		j.logger.Warn("Overtime requires action",
			"request_id", r.ID, "employee_id", r.EmployeeID, "date", r.Date, "needs_review", r.NeedsReview)
	}

	leaves, err := j.leave.ListActionRequired(ctx, j.cfg.ActionRequiredAfter)
	if err != nil {
		return err
	}
	for _, r := range leaves {
		j.logger.Warn("Leave requires action",
			"request_id", r.ID, "employee_id", r.EmployeeID, "start_date", r.StartDate, "needs_review", r.NeedsReview)
	}

	open, err := j.staleOpenAttendance(ctx)
	if err != nil {
		return err
	}
	for _, r := range open {
		j.logger.Warn("Attendance left open",
			"record_id", r.ID, "employee_id", r.EmployeeID, "date", r.Date.Format("2006-01-02"), "time_in", r.TimeIn)
	}

	if len(overtimes)+len(leaves)+len(open) > 0 {
		j.logger.Info("Cron: Action required summary",
			"overtime", len(overtimes), "leave", len(leaves), "open_attendance", len(open))
	}
	return nil
}

// staleOpenAttendance returns records from earlier days that never received a clock-out. A clock-out after
// midnight lands on the next day and cannot close them.
func (j *SettlementJobs) staleOpenAttendance(ctx context.Context) ([]attendance.Record, error) {
	snapshot, err := j.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	yesterday := snapshot.DateOf(j.now()).AddDate(0, 0, -1)
	records, err := j.attendanceRepo.List(ctx, attendance.AttendanceFilter{EndDate: &yesterday, OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}
	return records, nil
}

// MarkAbsentEmployees marks yesterday's absentees: active employees with no attendance record and not on an approved leave.
// Weekends are skipped. Re-running is harmless because existing records are left alone.
func (j *SettlementJobs) MarkAbsentEmployees(ctx context.Context) error {
	snapshot, err := j.settings.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	date := snapshot.DateOf(j.now()).AddDate(0, 0, -1)
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil
	}

	active, err := j.employeeRepo.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}
	recorded, err := j.attendanceRepo.EmployeesWithRecord(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list attendance for %s: %w", date.Format("2006-01-02"), err)
	}
	onLeave, err := j.employeesOnLeave(ctx, date)
	if err != nil {
		return err
	}

	skip := make(map[string]struct{}, len(recorded)+len(onLeave))
	for _, id := range recorded {
		skip[id] = struct{}{}
	}
	for id := range onLeave {
		skip[id] = struct{}{}
	}
	absent := make([]string, 0)
	for _, id := range active {
		if _, ok := skip[id]; !ok {
			absent = append(absent, id)
		}
	}
	if len(absent) == 0 {
		return nil
	}

	n, err := j.absence.MarkAbsent(ctx, attendance.MarkAbsentRequest{Date: date.Format("2006-01-02"), EmployeeIDs: absent})
	if err != nil {
		return err
	}
	j.logger.Info("Cron: Marked employees absent", "date", date.Format("2006-01-02"), "count", n)
	return nil
}

func (j *SettlementJobs) employeesOnLeave(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	approved := leave.StatusApproved
	leaves, err := j.leaveRepo.List(ctx, leave.LeaveRequestFilter{Status: &approved})
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}
	out := make(map[string]struct{})
	for _, l := range leaves {
		if l.StartDate.After(date) {
			continue
		}
		if l.EndDate != nil && l.EndDate.Before(date) {
			continue
		}
		if l.EndDate == nil && !l.IsActive {
			continue
		}
		out[l.EmployeeID] = struct{}{}
	}
	return out, nil
}

func (j *SettlementJobs) RefreshSettings(ctx context.Context) error {
	_, err := j.refresher.Refresh(ctx)
	return err
}
