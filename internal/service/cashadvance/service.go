package cashadvance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type CashAdvanceServiceImpl struct {
	tx           database.Transactor
	advanceRepo  cashadvance.CashAdvanceRepository
	employeeRepo employee.EmployeeRepository
	logger       *slog.Logger
}

func NewCashAdvanceService(tx database.Transactor, advanceRepo cashadvance.CashAdvanceRepository, employeeRepo employee.EmployeeRepository, logger *slog.Logger) *CashAdvanceServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &CashAdvanceServiceImpl{
		tx:           tx,
		advanceRepo:  advanceRepo,
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

var _ cashadvance.CashAdvanceService = (*CashAdvanceServiceImpl)(nil)

func (s *CashAdvanceServiceImpl) File(ctx context.Context, req cashadvance.FileRequest) (cashadvance.CashAdvanceResponse, error) {
	if err := req.Validate(); err != nil {
		return cashadvance.CashAdvanceResponse{}, err
	}
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return cashadvance.CashAdvanceResponse{}, apperror.WithFields(err, "employee_id", req.EmployeeID)
	}
	if !emp.IsActive() {
		return cashadvance.CashAdvanceResponse{}, apperror.WithFields(employee.ErrEmployeeInactive, "employee_id", req.EmployeeID)
	}

	created, err := s.advanceRepo.Create(ctx, cashadvance.Request{
		EmployeeID:      req.EmployeeID,
		Amount:          req.Amount.RoundBank(2),
		Reason:          strings.TrimSpace(req.Reason),
		RepaymentPlan:   strings.TrimSpace(req.RepaymentPlan),
		Status:          cashadvance.StatusPending,
		ManagerApproval: cashadvance.GatePending,
		AdminApproval:   cashadvance.GatePending,
	})
	if err != nil {
		return cashadvance.CashAdvanceResponse{}, fmt.Errorf("failed to create cash advance: %w", err)
	}
	return cashadvance.ToResponse(created), nil
}

// update loads the request, applies fn and stores the result in one transaction.
func (s *CashAdvanceServiceImpl) update(ctx context.Context, id string, fn func(r *cashadvance.Request) error) (cashadvance.Request, error) {
	var out cashadvance.Request
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.advanceRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(&current); err != nil {
			return err
		}
		if err := s.advanceRepo.Update(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return cashadvance.Request{}, apperror.WithFields(err, "request_id", id)
	}
	return out, nil
}

// Review records one approval gate. The request is approved once both gates approve;
// a rejection at either gate rejects it.
func (s *CashAdvanceServiceImpl) Review(ctx context.Context, req cashadvance.ReviewRequest) (cashadvance.CashAdvanceResponse, error) {
	if err := req.Validate(); err != nil {
		return cashadvance.CashAdvanceResponse{}, err
	}
	if !req.Approve && strings.TrimSpace(req.Notes) == "" {
		return cashadvance.CashAdvanceResponse{}, apperror.WithFields(cashadvance.ErrNotesRequired, "request_id", req.ID)
	}

	decision := cashadvance.GateRejected
	if req.Approve {
		decision = cashadvance.GateApproved
	}
	reviewer := req.ReviewerID

	updated, err := s.update(ctx, req.ID, func(r *cashadvance.Request) error {
		if r.Status != cashadvance.StatusPending {
			return cashadvance.ErrNotPending
		}
		switch req.Gate {
		case cashadvance.GateManager:
			if r.ManagerApproval != cashadvance.GatePending {
				return cashadvance.ErrGateReviewed
			}
			r.ManagerApproval = decision
			r.ManagerID = &reviewer
		case cashadvance.GateAdmin:
			if r.AdminApproval != cashadvance.GatePending {
				return cashadvance.ErrGateReviewed
			}
			r.AdminApproval = decision
			r.AdminID = &reviewer
		default:
			return fmt.Errorf("unknown approval gate %q", req.Gate)
		}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			r.ReviewNotes = &notes
		}

		switch {
		case decision == cashadvance.GateRejected:
			r.Status = cashadvance.StatusRejected
		case r.ManagerApproval == cashadvance.GateApproved && r.AdminApproval == cashadvance.GateApproved:
			r.Status = cashadvance.StatusApproved
		}
		return nil
	})
	if err != nil {
		return cashadvance.CashAdvanceResponse{}, err
	}

	s.logger.Info("Cash advance reviewed",
		"request_id", updated.ID, "gate", req.Gate, "decision", decision, "status", updated.Status)
	return cashadvance.ToResponse(updated), nil
}

func (s *CashAdvanceServiceImpl) Cancel(ctx context.Context, id string) (cashadvance.CashAdvanceResponse, error) {
	updated, err := s.update(ctx, id, func(r *cashadvance.Request) error {
		if r.Status != cashadvance.StatusPending {
			return cashadvance.ErrNotPending
		}
		r.Status = cashadvance.StatusCancelled
		return nil
	})
	if err != nil {
		return cashadvance.CashAdvanceResponse{}, err
	}
	return cashadvance.ToResponse(updated), nil
}

// Disburse marks an approved advance as paid out. From then on it is deducted by the payroll window containing DisbursedAt.
func (s *CashAdvanceServiceImpl) Disburse(ctx context.Context, req cashadvance.DisburseRequest) (cashadvance.CashAdvanceResponse, error) {
	if err := req.Validate(); err != nil {
		return cashadvance.CashAdvanceResponse{}, err
	}
	at := req.DisbursedAt.UTC()
	updated, err := s.update(ctx, req.ID, func(r *cashadvance.Request) error {
		if r.IsDisbursed {
			return cashadvance.ErrAlreadyDisbursed
		}
		if r.Status != cashadvance.StatusApproved {
			return cashadvance.ErrNotApproved
		}
		r.IsDisbursed = true
		r.DisbursedAt = &at
		return nil
	})
	if err != nil {
		return cashadvance.CashAdvanceResponse{}, err
	}

	s.logger.Info("Cash advance disbursed",
		"request_id", updated.ID, "employee_id", updated.EmployeeID, "amount", updated.Amount.StringFixed(2))
	return cashadvance.ToResponse(updated), nil
}

func (s *CashAdvanceServiceImpl) Get(ctx context.Context, id string) (cashadvance.CashAdvanceResponse, error) {
	r, err := s.advanceRepo.GetByID(ctx, id)
	if err != nil {
		return cashadvance.CashAdvanceResponse{}, apperror.WithFields(err, "request_id", id)
	}
	return cashadvance.ToResponse(r), nil
}

func (s *CashAdvanceServiceImpl) List(ctx context.Context, filter cashadvance.CashAdvanceFilter) ([]cashadvance.CashAdvanceResponse, error) {
	reqs, err := s.advanceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash advances: %w", err)
	}
	out := make([]cashadvance.CashAdvanceResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, cashadvance.ToResponse(r))
	}
	return out, nil
}

func (s *CashAdvanceServiceImpl) EligibleTotal(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error) {
	total, err := s.advanceRepo.EligibleTotal(ctx, employeeID, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to total cash advances: %w", err)
	}
	return total, nil
}
