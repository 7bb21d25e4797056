package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
)

// CreditService resolves leave entitlements: the settings default per type, overridden per employee.
type CreditService struct {
	settings     settings.Provider
	creditRepo   leave.LeaveCreditRepository
	leaveRepo    leave.LeaveRequestRepository
	employeeRepo employee.EmployeeRepository
	logger       *slog.Logger
	now          func() time.Time
}

func NewCreditService(
	settingsProvider settings.Provider,
	creditRepo leave.LeaveCreditRepository,
	leaveRepo leave.LeaveRequestRepository,
	employeeRepo employee.EmployeeRepository,
	logger *slog.Logger,
) *CreditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreditService{
		settings:     settingsProvider,
		creditRepo:   creditRepo,
		leaveRepo:    leaveRepo,
		employeeRepo: employeeRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (c *CreditService) Credits(ctx context.Context, employeeID string) ([]leave.Entitlement, error) {
	if _, err := c.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, apperror.WithFields(err, "employee_id", employeeID)
	}
	snapshot, err := c.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	overrides, err := c.creditRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave credits: %w", err)
	}

	byType := make(map[leave.Type]leave.Credit, len(overrides))
	for _, o := range overrides {
		byType[o.LeaveType] = o
	}

	out := make([]leave.Entitlement, 0, len(leave.Types))
	for _, t := range leave.Types {
		e := leave.Entitlement{LeaveType: t, Days: snapshot.Entitlement(string(t))}
		if o, ok := byType[t]; ok {
			e.Days = o.Days
			e.Overridden = true
			e.Reason = &o.Reason
			e.AdjustedBy = &o.AdjustedBy
			e.AdjustedAt = &o.AdjustedAt
		}
		out = append(out, e)
	}
	return out, nil
}

// AdjustCredit overrides one entitlement of an employee. The reason is mandatory and kept with the override.
func (c *CreditService) AdjustCredit(ctx context.Context, req leave.AdjustCreditRequest) (leave.Entitlement, error) {
	if err := req.Validate(); err != nil {
		return leave.Entitlement{}, err
	}
	if _, err := c.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return leave.Entitlement{}, apperror.WithFields(err, "employee_id", req.EmployeeID)
	}

	credit, err := c.creditRepo.Upsert(ctx, leave.Credit{
		EmployeeID: req.EmployeeID,
		LeaveType:  leave.Type(req.LeaveType),
		Days:       req.Days,
		Reason:     strings.TrimSpace(req.Reason),
		AdjustedBy: req.AdjustedBy,
		AdjustedAt: c.now().UTC(),
	})
	if err != nil {
		return leave.Entitlement{}, fmt.Errorf("failed to store leave credit: %w", err)
	}

	c.logger.Info("Leave credit adjusted",
		"employee_id", credit.EmployeeID, "leave_type", credit.LeaveType, "days", credit.Days, "adjusted_by", credit.AdjustedBy)
	return leave.Entitlement{
		LeaveType:  credit.LeaveType,
		Days:       credit.Days,
		Overridden: true,
		Reason:     &credit.Reason,
		AdjustedBy: &credit.AdjustedBy,
		AdjustedAt: &credit.AdjustedAt,
	}, nil
}

// ResetCredits drops every override of an employee and returns how many were removed.
func (c *CreditService) ResetCredits(ctx context.Context, employeeID string) (int, error) {
	if _, err := c.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return 0, apperror.WithFields(err, "employee_id", employeeID)
	}
	n, err := c.creditRepo.DeleteByEmployee(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset leave credits: %w", err)
	}
	c.logger.Info("Leave credits reset", "employee_id", employeeID, "removed", n)
	return n, nil
}

// Balance reports entitlement against days settled on leaves that started in the given year.
func (c *CreditService) Balance(ctx context.Context, employeeID string, year int) ([]leave.BalanceResponse, error) {
	entitlements, err := c.Credits(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	used, err := c.leaveRepo.SettledDays(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to total settled leave: %w", err)
	}

	out := make([]leave.BalanceResponse, 0, len(entitlements))
	for _, e := range entitlements {
		out = append(out, leave.BalanceResponse{
			LeaveType:   string(e.LeaveType),
			Entitlement: e.Days,
			Used:        used[e.LeaveType],
			Remaining:   e.Days - used[e.LeaveType],
			Overridden:  e.Overridden,
			Reason:      e.Reason,
			AdjustedBy:  e.AdjustedBy,
			AdjustedAt:  e.AdjustedAt,
		})
	}
	return out, nil
}
