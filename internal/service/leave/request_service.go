package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
)

const (
	lockScope = "leave"

	// FlagClockInOnStartDate marks a leave whose owner clocked in on the day the leave starts.
	FlagClockInOnStartDate = "clock_in_on_start_date"
)

// RequestService runs the leave request lifecycle and its clock-in settlement.
type RequestService struct {
	tx           database.Transactor
	settings     settings.Provider
	leaveRepo    leave.LeaveRequestRepository
	employeeRepo employee.EmployeeRepository
	locker       lock.Locker
	metrics      *observability.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

func NewRequestService(
	tx database.Transactor,
	settingsProvider settings.Provider,
	leaveRepo leave.LeaveRequestRepository,
	employeeRepo employee.EmployeeRepository,
	locker lock.Locker,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *RequestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestService{
		tx:           tx,
		settings:     settingsProvider,
		leaveRepo:    leaveRepo,
		employeeRepo: employeeRepo,
		locker:       locker,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *RequestService) lockEmployee(ctx context.Context, employeeID string) (func(), error) {
	release, err := s.locker.Lock(ctx, lock.EmployeeKey(lockScope, employeeID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock leave requests: %w", err)
	}
	return release, nil
}

// ensureNoActive fails when the employee already has an active leave other than exceptID.
func (s *RequestService) ensureNoActive(ctx context.Context, employeeID, exceptID string) error {
	active, err := s.leaveRepo.GetActive(ctx, employeeID)
	if errors.Is(err, leave.ErrLeaveRequestNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if active.ID == exceptID {
		return nil
	}
	return apperror.WithFields(leave.ErrDuplicateActiveRequest, "active_request_id", active.ID)
}

// File stores a pending leave. A leave filed with an end date is bounded up front and never waits for a clock-in.
func (s *RequestService) File(ctx context.Context, req leave.FileRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "employee_id", req.EmployeeID)
	}
	if !emp.IsActive() {
		return leave.LeaveRequestResponse{}, apperror.WithFields(employee.ErrEmployeeInactive, "employee_id", req.EmployeeID)
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	request := leave.Request{
		EmployeeID: req.EmployeeID,
		LeaveType:  leave.Type(req.LeaveType),
		StartDate:  start,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     leave.StatusPending,
	}
	if req.EndDate != nil {
		end, _ := time.Parse("2006-01-02", *req.EndDate)
		days := leave.InclusiveDays(start, end)
		request.EndDate = &end
		request.TotalDays = &days
	}

	release, err := s.lockEmployee(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	defer release()

	var created leave.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureNoActive(ctx, req.EmployeeID, ""); err != nil {
			return err
		}
		created, err = s.leaveRepo.Create(ctx, request)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "employee_id", req.EmployeeID, "start_date", req.StartDate)
	}
	return leave.ToResponse(created), nil
}

func (s *RequestService) Approve(ctx context.Context, req leave.ReviewRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	existing, err := s.leaveRepo.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}

	release, err := s.lockEmployee(ctx, existing.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	defer release()

	var updated leave.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.leaveRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.Status != leave.StatusPending {
			return leave.ErrNotPending
		}

		now := s.now().UTC()
		current.Status = leave.StatusApproved
		current.IsActive = current.IsOpen()
		current.ReviewedBy = &req.ReviewerID
		current.ReviewNotes = optional(req.Notes)
		current.ReviewedAt = &now
		if current.IsActive {
			if err := s.ensureNoActive(ctx, current.EmployeeID, current.ID); err != nil {
				return err
			}
		}
		if err := s.leaveRepo.UpdateReview(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID, "employee_id", existing.EmployeeID)
	}

	s.logger.Info("Leave approved", "request_id", updated.ID, "employee_id", updated.EmployeeID, "open", updated.IsActive)
	return leave.ToResponse(updated), nil
}

func (s *RequestService) Reject(ctx context.Context, req leave.ReviewRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if strings.TrimSpace(req.Notes) == "" {
		return leave.LeaveRequestResponse{}, apperror.WithFields(leave.ErrNotesRequired, "request_id", req.ID)
	}
	current, err := s.leaveRepo.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	if current.Status != leave.StatusPending {
		return leave.LeaveRequestResponse{}, apperror.WithFields(leave.ErrNotPending, "request_id", req.ID)
	}

	now := s.now().UTC()
	current.Status = leave.StatusRejected
	current.IsActive = false
	current.ReviewedBy = &req.ReviewerID
	current.ReviewNotes = optional(req.Notes)
	current.ReviewedAt = &now
	if err := s.leaveRepo.UpdateReview(ctx, current); err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	return leave.ToResponse(current), nil
}

func (s *RequestService) Cancel(ctx context.Context, req leave.CancelRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	current, err := s.leaveRepo.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	if current.EmployeeID != req.EmployeeID {
		return leave.LeaveRequestResponse{}, apperror.WithFields(leave.ErrNotOwner, "request_id", req.ID)
	}
	if current.Status != leave.StatusPending {
		return leave.LeaveRequestResponse{}, apperror.WithFields(leave.ErrNotPending, "request_id", req.ID)
	}

	current.Status = leave.StatusCancelled
	current.IsActive = false
	if err := s.leaveRepo.UpdateReview(ctx, current); err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}
	return leave.ToResponse(current), nil
}

// OnClockIn closes the employee's open leave on the day before the clock-in. A clock-in on the
// start date itself is flagged for review; a leave that starts later is left alone.
func (s *RequestService) OnClockIn(ctx context.Context, employeeID string, ts time.Time) (leave.Outcome, error) {
	outcome, err := s.onClockIn(ctx, employeeID, ts.UTC())
	if err != nil {
		s.metrics.Settlement("leave", "error")
		return outcome, err
	}
	s.metrics.Settlement("leave", string(outcome))
	return outcome, nil
}

func (s *RequestService) onClockIn(ctx context.Context, employeeID string, ts time.Time) (leave.Outcome, error) {
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	date := snapshot.DateOf(ts)
	dateStr := date.Format("2006-01-02")

	release, err := s.lockEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	defer release()

	var outcome leave.Outcome
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		active, err := s.leaveRepo.GetActive(ctx, employeeID)
		if errors.Is(err, leave.ErrLeaveRequestNotFound) {
			settled, err := s.leaveRepo.HasSettledOn(ctx, employeeID, date.AddDate(0, 0, -1))
			if err != nil {
				return err
			}
			outcome = leave.OutcomeNoMatch
			if settled {
				outcome = leave.OutcomeAlreadySettled
			}
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case !active.IsOpen() || active.StartDate.After(date):
			outcome = leave.OutcomeNoMatch
			return nil
		case active.StartDate.Equal(date):
			if err := s.leaveRepo.Flag(ctx, active.ID, FlagClockInOnStartDate); err != nil {
				return err
			}
			s.logger.Warn("Leave flagged for manual review",
				"request_id", active.ID, "employee_id", employeeID, "date", dateStr)
			outcome = leave.OutcomeAnomaly
			return nil
		}

		end := date.AddDate(0, 0, -1)
		days := leave.InclusiveDays(active.StartDate, end)
		now := s.now().UTC()
		active.EndDate = &end
		active.TotalDays = &days
		active.CompletedAt = &now
		if err := s.leaveRepo.Complete(ctx, active); err != nil {
			if errors.Is(err, leave.ErrAlreadySettled) {
				outcome = leave.OutcomeAlreadySettled
				return nil
			}
			return err
		}
		s.logger.Info("Leave settled",
			"request_id", active.ID, "employee_id", employeeID,
			"end_date", end.Format("2006-01-02"), "total_days", days)
		outcome = leave.OutcomeSettled
		return nil
	})
	if err != nil {
		return "", apperror.WithFields(err, "employee_id", employeeID, "date", dateStr)
	}
	return outcome, nil
}

// ManualComplete closes an approved open leave with an administrator supplied end date.
func (s *RequestService) ManualComplete(ctx context.Context, req leave.ManualCompleteRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	existing, err := s.leaveRepo.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID)
	}

	release, err := s.lockEmployee(ctx, existing.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	defer release()

	end, _ := time.Parse("2006-01-02", req.EndDate)
	var completed leave.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.leaveRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.TotalDays != nil {
			return leave.ErrAlreadySettled
		}
		if current.Status != leave.StatusApproved || !current.IsActive {
			return leave.ErrNotApproved
		}
		if end.Before(current.StartDate) {
			return leave.ErrEndBeforeStart
		}

		days := leave.InclusiveDays(current.StartDate, end)
		now := s.now().UTC()
		current.EndDate = &end
		current.TotalDays = &days
		current.CompletedBy = &req.CompletedBy
		current.CompletedAt = &now
		if err := s.leaveRepo.Complete(ctx, current); err != nil {
			return err
		}
		current.IsActive = false
		current.NeedsReview = false
		completed = current
		return nil
	})
	if err != nil {
		s.metrics.Settlement("leave_manual", "error")
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", req.ID, "employee_id", existing.EmployeeID)
	}

	s.metrics.Settlement("leave_manual", string(leave.OutcomeSettled))
	s.logger.Info("Leave completed manually",
		"request_id", completed.ID, "employee_id", completed.EmployeeID, "completed_by", req.CompletedBy)
	return leave.ToResponse(completed), nil
}

func (s *RequestService) Get(ctx context.Context, id string) (leave.LeaveRequestResponse, error) {
	req, err := s.leaveRepo.GetByID(ctx, id)
	if err != nil {
		return leave.LeaveRequestResponse{}, apperror.WithFields(err, "request_id", id)
	}
	return leave.ToResponse(req), nil
}

func (s *RequestService) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequestResponse, error) {
	reqs, err := s.leaveRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return toResponses(reqs), nil
}

// ListActionRequired returns open leaves that were flagged or started longer ago than olderThan.
func (s *RequestService) ListActionRequired(ctx context.Context, olderThan time.Duration) ([]leave.LeaveRequestResponse, error) {
	reqs, err := s.leaveRepo.ListActionRequired(ctx, s.now().UTC().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requiring action: %w", err)
	}
	return toResponses(reqs), nil
}

func toResponses(reqs []leave.Request) []leave.LeaveRequestResponse {
	out := make([]leave.LeaveRequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, leave.ToResponse(r))
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
