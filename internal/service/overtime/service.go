package overtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const (
	lockScope = "overtime"

	// FlagClockOutBeforeStart marks a request whose clock-out did not come after the overtime start.
	FlagClockOutBeforeStart = "clock_out_before_start"
	// FlagDurationExceedsLimit marks a request whose clock-out came more than maxDuration after the start.
	FlagDurationExceedsLimit = "duration_exceeds_limit"

	maxDuration = 24 * time.Hour
)

type OvertimeServiceImpl struct {
	tx           database.Transactor
	settings     settings.Provider
	overtimeRepo overtime.OvertimeRepository
	employeeRepo employee.EmployeeRepository
	locker       lock.Locker
	dayType      DayTypeRule
	metrics      *observability.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

type Option func(*OvertimeServiceImpl)

func WithDayTypeRule(rule DayTypeRule) Option {
	return func(s *OvertimeServiceImpl) { s.dayType = rule }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *OvertimeServiceImpl) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *OvertimeServiceImpl) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *OvertimeServiceImpl) { s.now = now }
}

func NewOvertimeService(
	tx database.Transactor,
	settingsProvider settings.Provider,
	overtimeRepo overtime.OvertimeRepository,
	employeeRepo employee.EmployeeRepository,
	locker lock.Locker,
	opts ...Option,
) *OvertimeServiceImpl {
	s := &OvertimeServiceImpl{
		tx:           tx,
		settings:     settingsProvider,
		overtimeRepo: overtimeRepo,
		employeeRepo: employeeRepo,
		locker:       locker,
		dayType:      WeekendRule{},
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ overtime.OvertimeService = (*OvertimeServiceImpl)(nil)

func (s *OvertimeServiceImpl) lockDay(ctx context.Context, employeeID string, date time.Time) (func(), error) {
	release, err := s.locker.Lock(ctx, lock.EmployeeDayKey(lockScope, employeeID, date))
	if err != nil {
		return nil, fmt.Errorf("failed to lock overtime day: %w", err)
	}
	return release, nil
}

func (s *OvertimeServiceImpl) File(ctx context.Context, req overtime.FileRequest) (overtime.OvertimeResponse, error) {
	if err := req.Validate(); err != nil {
		return overtime.OvertimeResponse{}, err
	}
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return overtime.OvertimeResponse{}, fmt.Errorf("failed to load settings: %w", err)
	}
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "employee_id", req.EmployeeID)
	}
	if !emp.IsActive() {
		return overtime.OvertimeResponse{}, apperror.WithFields(employee.ErrEmployeeInactive, "employee_id", req.EmployeeID)
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	if !snapshot.DateOf(req.StartTime).Equal(date) {
		return overtime.OvertimeResponse{}, validator.ValidationErrors{{Field: "start_time", Message: "start_time must fall on date"}}
	}
	release, err := s.lockDay(ctx, req.EmployeeID, date)
	if err != nil {
		return overtime.OvertimeResponse{}, err
	}
	defer release()

	dayType := s.dayType.Classify(date)
	var created overtime.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.overtimeRepo.GetActive(ctx, req.EmployeeID, date); err == nil {
			return overtime.ErrDuplicateActiveRequest
		} else if !errors.Is(err, overtime.ErrRequestNotFound) {
			return err
		}
		created, err = s.overtimeRepo.Create(ctx, overtime.Request{
			EmployeeID:     req.EmployeeID,
			Date:           date,
			StartTime:      req.StartTime.UTC(),
			DayType:        dayType,
			RateMultiplier: multiplierFor(snapshot, dayType),
			Reason:         strings.TrimSpace(req.Reason),
			Status:         overtime.StatusPending,
		})
		return err
	})
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "employee_id", req.EmployeeID, "date", req.Date)
	}
	return overtime.ToResponse(created), nil
}

func (s *OvertimeServiceImpl) Approve(ctx context.Context, req overtime.ReviewRequest) (overtime.OvertimeResponse, error) {
	if err := req.Validate(); err != nil {
		return overtime.OvertimeResponse{}, err
	}
	existing, err := s.overtimeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}

	release, err := s.lockDay(ctx, existing.EmployeeID, existing.Date)
	if err != nil {
		return overtime.OvertimeResponse{}, err
	}
	defer release()

	var updated overtime.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.overtimeRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.Status != overtime.StatusPending {
			return overtime.ErrNotPending
		}
		active, err := s.overtimeRepo.GetActive(ctx, current.EmployeeID, current.Date)
		if err == nil && active.ID != current.ID {
			return apperror.WithFields(overtime.ErrDuplicateActiveRequest, "active_request_id", active.ID)
		}
		if err != nil && !errors.Is(err, overtime.ErrRequestNotFound) {
			return err
		}

		now := s.now().UTC()
		current.Status = overtime.StatusApproved
		current.IsActive = true
		current.ReviewedBy = &req.ReviewerID
		current.ReviewNotes = optional(req.Notes)
		current.ReviewedAt = &now
		if err := s.overtimeRepo.UpdateReview(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID, "employee_id", existing.EmployeeID, "date", existing.Date.Format("2006-01-02"))
	}

	s.logger.Info("Overtime approved", "request_id", updated.ID, "employee_id", updated.EmployeeID, "reviewer_id", req.ReviewerID)
	return overtime.ToResponse(updated), nil
}

func (s *OvertimeServiceImpl) Reject(ctx context.Context, req overtime.ReviewRequest) (overtime.OvertimeResponse, error) {
	if err := req.Validate(); err != nil {
		return overtime.OvertimeResponse{}, err
	}
	if strings.TrimSpace(req.Notes) == "" {
		return overtime.OvertimeResponse{}, apperror.WithFields(overtime.ErrNotesRequired, "request_id", req.ID)
	}
	current, err := s.overtimeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	if current.Status != overtime.StatusPending {
		return overtime.OvertimeResponse{}, apperror.WithFields(overtime.ErrNotPending, "request_id", req.ID)
	}

	now := s.now().UTC()
	current.Status = overtime.StatusRejected
	current.IsActive = false
	current.ReviewedBy = &req.ReviewerID
	current.ReviewNotes = optional(req.Notes)
	current.ReviewedAt = &now
	if err := s.overtimeRepo.UpdateReview(ctx, current); err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	return overtime.ToResponse(current), nil
}

func (s *OvertimeServiceImpl) Cancel(ctx context.Context, req overtime.CancelRequest) (overtime.OvertimeResponse, error) {
	if err := req.Validate(); err != nil {
		return overtime.OvertimeResponse{}, err
	}
	current, err := s.overtimeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	if current.EmployeeID != req.EmployeeID {
		return overtime.OvertimeResponse{}, apperror.WithFields(overtime.ErrNotOwner, "request_id", req.ID)
	}
	if current.Status != overtime.StatusPending {
		return overtime.OvertimeResponse{}, apperror.WithFields(overtime.ErrNotPending, "request_id", req.ID)
	}

	current.Status = overtime.StatusCancelled
	current.IsActive = false
	if err := s.overtimeRepo.UpdateReview(ctx, current); err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	return overtime.ToResponse(current), nil
}

// settlement is the computed completion of one request.
type settlement struct {
	end   time.Time
	hours decimal.Decimal
	pay   decimal.Decimal
}

// hoursBetween returns the elapsed hours rounded to two places.
func hoursBetween(from, to time.Time) decimal.Decimal {
	seconds := decimal.NewFromInt(int64(to.Sub(from) / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).RoundBank(2)
}

type verdict int

const (
	durationOK verdict = iota
	durationNonPositive
	durationTooLong
)

// compute derives hours and pay for a request ending at end. Nothing is computed unless the verdict is durationOK.
func (s *OvertimeServiceImpl) compute(ctx context.Context, snapshot *settings.Settings, req overtime.Request, end time.Time) (settlement, verdict, error) {
	hours := hoursBetween(req.StartTime, end)
	if !hours.IsPositive() {
		return settlement{}, durationNonPositive, nil
	}
	if end.Sub(req.StartTime) > maxDuration {
		return settlement{}, durationTooLong, nil
	}
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return settlement{}, durationOK, err
	}
	rate := emp.Rate(snapshot.StandardMonthlyHours)
	pay := hours.Mul(rate).Mul(req.RateMultiplier).RoundBank(2)
	return settlement{end: end, hours: hours, pay: pay}, durationOK, nil
}

// lockClockOut locks the clock-out day. Under the next_day policy the previous day is locked first
// because an after-midnight clock-out may settle its request.
func (s *OvertimeServiceImpl) lockClockOut(ctx context.Context, snapshot *settings.Settings, employeeID string, date time.Time) (func(), error) {
	if snapshot.Overtime.CrossMidnight != settings.CrossMidnightNextDay {
		return s.lockDay(ctx, employeeID, date)
	}
	releasePrev, err := s.lockDay(ctx, employeeID, date.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	release, err := s.lockDay(ctx, employeeID, date)
	if err != nil {
		releasePrev()
		return nil, err
	}
	return func() {
		release()
		releasePrev()
	}, nil
}

// findForClockOut returns the active request a clock-out settles. Under the next_day policy a clock-out
// before the workday starts also matches the previous day's request.
func (s *OvertimeServiceImpl) findForClockOut(ctx context.Context, snapshot *settings.Settings, employeeID string, date, ts time.Time) (overtime.Request, error) {
	req, err := s.overtimeRepo.GetActive(ctx, employeeID, date)
	if !errors.Is(err, overtime.ErrRequestNotFound) || snapshot.Overtime.CrossMidnight != settings.CrossMidnightNextDay {
		return req, err
	}
	if !ts.Before(snapshot.At(date, snapshot.WorkStart)) {
		return req, err
	}
	return s.overtimeRepo.GetActive(ctx, employeeID, date.AddDate(0, 0, -1))
}

// OnClockOut settles the active request of the employee's day. A clock-out that does not fall after the
// overtime start is flagged for review and reported as OutcomeAnomaly without an error.
func (s *OvertimeServiceImpl) OnClockOut(ctx context.Context, employeeID string, ts time.Time) (overtime.Outcome, error) {
	outcome, err := s.onClockOut(ctx, employeeID, ts.UTC())
	if err != nil {
		s.metrics.Settlement("overtime", "error")
		return outcome, err
	}
	s.metrics.Settlement("overtime", string(outcome))
	return outcome, nil
}

func (s *OvertimeServiceImpl) onClockOut(ctx context.Context, employeeID string, ts time.Time) (overtime.Outcome, error) {
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	date := snapshot.DateOf(ts)
	dateStr := date.Format("2006-01-02")

	release, err := s.lockClockOut(ctx, snapshot, employeeID, date)
	if err != nil {
		return "", err
	}
	defer release()

	var outcome overtime.Outcome
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		req, err := s.findForClockOut(ctx, snapshot, employeeID, date, ts)
		if errors.Is(err, overtime.ErrRequestNotFound) {
			done, err := s.overtimeRepo.HasCompleted(ctx, employeeID, date)
			if err != nil {
				return err
			}
			outcome = overtime.OutcomeNoMatch
			if done {
				outcome = overtime.OutcomeAlreadySettled
			}
			return nil
		}
		if err != nil {
			return err
		}

		result, v, err := s.compute(ctx, snapshot, req, ts)
		if err != nil {
			return err
		}
		// a clock-out stamped on the request's own date but earlier than its start is read as the next morning
		if v == durationNonPositive && snapshot.Overtime.CrossMidnight == settings.CrossMidnightNextDay && req.Date.Format("2006-01-02") == dateStr {
			result, v, err = s.compute(ctx, snapshot, req, ts.Add(24*time.Hour))
			if err != nil {
				return err
			}
		}
		if v != durationOK {
			flag := FlagClockOutBeforeStart
			if v == durationTooLong {
				flag = FlagDurationExceedsLimit
			}
			if err := s.overtimeRepo.Flag(ctx, req.ID, flag); err != nil {
				return err
			}
			s.logger.Warn("Overtime flagged for manual review",
				"request_id", req.ID, "employee_id", employeeID, "date", dateStr,
				"start_time", req.StartTime, "clock_out", ts, "flag", flag)
			outcome = overtime.OutcomeAnomaly
			return nil
		}

		now := s.now().UTC()
		req.EndTime = &result.end
		req.TotalHours = &result.hours
		req.OvertimePay = &result.pay
		req.CompletedAt = &now
		if err := s.overtimeRepo.Complete(ctx, req); err != nil {
			if errors.Is(err, overtime.ErrAlreadySettled) {
				outcome = overtime.OutcomeAlreadySettled
				return nil
			}
			return err
		}
		s.logger.Info("Overtime settled",
			"request_id", req.ID, "employee_id", employeeID, "date", dateStr,
			"hours", result.hours.String(), "pay", result.pay.StringFixed(2))
		outcome = overtime.OutcomeSettled
		return nil
	})
	if err != nil {
		return "", apperror.WithFields(err, "employee_id", employeeID, "date", dateStr)
	}
	return outcome, nil
}

// ManualComplete settles an approved request with an administrator supplied end time.
func (s *OvertimeServiceImpl) ManualComplete(ctx context.Context, req overtime.ManualCompleteRequest) (overtime.OvertimeResponse, error) {
	if err := req.Validate(); err != nil {
		return overtime.OvertimeResponse{}, err
	}
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return overtime.OvertimeResponse{}, fmt.Errorf("failed to load settings: %w", err)
	}
	existing, err := s.overtimeRepo.GetByID(ctx, req.ID)
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}

	release, err := s.lockDay(ctx, existing.EmployeeID, existing.Date)
	if err != nil {
		return overtime.OvertimeResponse{}, err
	}
	defer release()

	var completed overtime.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.overtimeRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.IsCompleted() {
			return overtime.ErrAlreadySettled
		}
		if current.Status != overtime.StatusApproved || !current.IsActive {
			return overtime.ErrNotApproved
		}

		result, v, err := s.compute(ctx, snapshot, current, req.EndTime.UTC())
		if err != nil {
			return err
		}
		switch v {
		case durationNonPositive:
			return overtime.ErrNonPositiveDuration
		case durationTooLong:
			return overtime.ErrDurationExceedsLimit
		}

		now := s.now().UTC()
		current.EndTime = &result.end
		current.TotalHours = &result.hours
		current.OvertimePay = &result.pay
		current.CompletedBy = &req.CompletedBy
		current.CompletedAt = &now
		if err := s.overtimeRepo.Complete(ctx, current); err != nil {
			return err
		}
		current.IsActive = false
		current.NeedsReview = false
		completed = current
		return nil
	})
	if err != nil {
		s.metrics.Settlement("overtime_manual", "error")
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", req.ID, "employee_id", existing.EmployeeID)
	}

	s.metrics.Settlement("overtime_manual", string(overtime.OutcomeSettled))
	s.logger.Info("Overtime completed manually",
		"request_id", completed.ID, "employee_id", completed.EmployeeID, "completed_by", req.CompletedBy)
	return overtime.ToResponse(completed), nil
}

func (s *OvertimeServiceImpl) Get(ctx context.Context, id string) (overtime.OvertimeResponse, error) {
	req, err := s.overtimeRepo.GetByID(ctx, id)
	if err != nil {
		return overtime.OvertimeResponse{}, apperror.WithFields(err, "request_id", id)
	}
	return overtime.ToResponse(req), nil
}

func (s *OvertimeServiceImpl) List(ctx context.Context, filter overtime.OvertimeFilter) ([]overtime.OvertimeResponse, error) {
	reqs, err := s.overtimeRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime requests: %w", err)
	}
	return toResponses(reqs), nil
}

// ListActionRequired returns active requests that were flagged for review or approved longer ago than olderThan.
func (s *OvertimeServiceImpl) ListActionRequired(ctx context.Context, olderThan time.Duration) ([]overtime.OvertimeResponse, error) {
	reqs, err := s.overtimeRepo.ListActionRequired(ctx, s.now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to list overtime requiring action: %w", err)
	}
	return toResponses(reqs), nil
}

func toResponses(reqs []overtime.Request) []overtime.OvertimeResponse {
	out := make([]overtime.OvertimeResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, overtime.ToResponse(r))
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
