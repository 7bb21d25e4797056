package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

type PayrollServiceImpl struct {
	tx             database.Transactor
	settings       settings.Provider
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	overtimeRepo   overtime.OvertimeRepository
	advanceRepo    cashadvance.CashAdvanceRepository
	metrics        *observability.Metrics
	logger         *slog.Logger
	concurrency    int
	now            func() time.Time
}

type Option func(*PayrollServiceImpl)

// WithConcurrency bounds the number of employees gathered in parallel by RunDraft.
func WithConcurrency(n int) Option {
	return func(s *PayrollServiceImpl) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *PayrollServiceImpl) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *PayrollServiceImpl) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *PayrollServiceImpl) { s.now = now }
}

func NewPayrollService(
	tx database.Transactor,
	settingsProvider settings.Provider,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	overtimeRepo overtime.OvertimeRepository,
	advanceRepo cashadvance.CashAdvanceRepository,
	opts ...Option,
) *PayrollServiceImpl {
	s := &PayrollServiceImpl{
		tx:             tx,
		settings:       settingsProvider,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		overtimeRepo:   overtimeRepo,
		advanceRepo:    advanceRepo,
		logger:         slog.Default(),
		concurrency:    defaultConcurrency,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ payroll.PayrollService = (*PayrollServiceImpl)(nil)

func (s *PayrollServiceImpl) ComputeLine(ctx context.Context, employeeID string, period payroll.Period, inputs payroll.Inputs) (payroll.PayrollLine, error) {
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return payroll.PayrollLine{}, fmt.Errorf("failed to load settings: %w", err)
	}
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return payroll.PayrollLine{}, apperror.WithFields(err, "employee_id", employeeID)
	}
	return ComputeLine(snapshot, emp, period, inputs)
}

// gatherInputs collects the period-scoped figures of one employee.
func (s *PayrollServiceImpl) gatherInputs(ctx context.Context, employeeID string, period payroll.Period) (payroll.Inputs, error) {
	summary, err := s.attendanceRepo.Summarize(ctx, employeeID, period.Start, period.End)
	if err != nil {
		return payroll.Inputs{}, fmt.Errorf("failed to summarize attendance: %w", err)
	}
	totals, err := s.overtimeRepo.SettledTotals(ctx, employeeID, period.Start, period.End)
	if err != nil {
		return payroll.Inputs{}, fmt.Errorf("failed to total overtime: %w", err)
	}
	advance, err := s.advanceRepo.EligibleTotal(ctx, employeeID, period.Start, period.End)
	if err != nil {
		return payroll.Inputs{}, fmt.Errorf("failed to total cash advances: %w", err)
	}
	pay := totals.Pay
	return payroll.Inputs{
		DaysAbsent:    summary.DaysAbsent,
		LateMinutes:   summary.LateMinutes,
		OvertimeHours: totals.Hours,
		OvertimePay:   &pay,
		CashAdvance:   advance,
	}, nil
}

// RunDraft computes a draft line for every employee without persisting anything. All employees
// share one settings snapshot. A failing employee is reported in Failures and does not stop the run.
func (s *PayrollServiceImpl) RunDraft(ctx context.Context, period payroll.Period, employeeIDs []string) (payroll.DraftRegister, error) {
	register, err := s.runDraft(ctx, period, employeeIDs)
	s.metrics.BatchRun("draft", err)
	return register, err
}

func (s *PayrollServiceImpl) runDraft(ctx context.Context, period payroll.Period, employeeIDs []string) (payroll.DraftRegister, error) {
	if err := period.Validate(); err != nil {
		return payroll.DraftRegister{}, err
	}
	snapshot, err := s.settings.Current(ctx)
	if err != nil {
		return payroll.DraftRegister{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if len(employeeIDs) == 0 {
		employeeIDs, err = s.employeeRepo.ListActiveIDs(ctx)
		if err != nil {
			return payroll.DraftRegister{}, fmt.Errorf("failed to list active employees: %w", err)
		}
	}

	lines := make([]*payroll.PayrollLine, len(employeeIDs))
	failures := make([]error, len(employeeIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range employeeIDs {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emp, err := s.employeeRepo.GetByID(gctx, id)
			if err != nil {
				failures[i] = err
				return nil
			}
			if !emp.IsActive() {
				failures[i] = employee.ErrEmployeeInactive
				return nil
			}
			inputs, err := s.gatherInputs(gctx, id, period)
			if err != nil {
				failures[i] = err
				return nil
			}
			line, err := ComputeLine(snapshot, emp, period, inputs)
			if err != nil {
				failures[i] = err
				return nil
			}
			lines[i] = &line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return payroll.DraftRegister{}, err
	}

	register := payroll.DraftRegister{PeriodStart: period.Start, PeriodEnd: period.End}
	for i, id := range employeeIDs {
		if failures[i] != nil {
			register.Failures = append(register.Failures, failure(id, period, failures[i]))
			s.logger.Warn("Payroll draft line failed", "employee_id", id, "error", failures[i])
			continue
		}
		register.Lines = append(register.Lines, *lines[i])
	}
	s.logger.Info("Payroll draft computed",
		"period_start", period.Start.Format("2006-01-02"),
		"period_end", period.End.Format("2006-01-02"),
		"lines", len(register.Lines),
		"failures", len(register.Failures),
	)
	return register, nil
}

func failure(employeeID string, period payroll.Period, err error) payroll.LineFailure {
	return payroll.LineFailure{
		EmployeeID:  employeeID,
		PeriodStart: period.Start.Format("2006-01-02"),
		PeriodEnd:   period.End.Format("2006-01-02"),
		Err:         apperror.WithFields(err, "employee_id", employeeID),
	}
}

// SaveDraft stores draft lines, replacing earlier drafts of the same employee and period.
// Lines whose period is already finalized are rejected and nothing is saved.
func (s *PayrollServiceImpl) SaveDraft(ctx context.Context, lines []payroll.PayrollLine) ([]payroll.PayrollLine, error) {
	if len(lines) == 0 {
		return nil, payroll.ErrEmptyBatch
	}
	saved := make([]payroll.PayrollLine, 0, len(lines))
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var failures []payroll.LineFailure
		for _, line := range lines {
			if err := s.checkDraft(ctx, line); err != nil {
				failures = append(failures, failure(line.EmployeeID, line.Period(), err))
			}
		}
		if len(failures) > 0 {
			return &payroll.BatchError{Failures: failures}
		}
		for _, line := range lines {
			stored, err := s.payrollRepo.SaveDraft(ctx, line)
			if err != nil {
				return err
			}
			saved = append(saved, stored)
		}
		return nil
	})
	s.metrics.BatchRun("save_draft", err)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *PayrollServiceImpl) checkDraft(ctx context.Context, line payroll.PayrollLine) error {
	if line.Status != payroll.PayrollStatusDraft {
		return payroll.ErrNotDraft
	}
	if err := line.Period().Validate(); err != nil {
		return err
	}
	if err := line.CheckInvariant(); err != nil {
		return err
	}
	exists, err := s.payrollRepo.ExistsFinalized(ctx, line.EmployeeID, line.PeriodStart, line.PeriodEnd)
	if err != nil {
		return err
	}
	if exists {
		return payroll.ErrDuplicatePeriod
	}
	return nil
}

// Finalize commits every line as finalized in a single transaction. Every line is checked first;
// if any fails, a *payroll.BatchError listing all failures is returned and nothing is written.
func (s *PayrollServiceImpl) Finalize(ctx context.Context, lines []payroll.PayrollLine, payoutDate time.Time, finalizedBy string) (payroll.FinalizeResult, error) {
	result, err := s.finalize(ctx, lines, payoutDate, finalizedBy)
	s.metrics.BatchRun("finalize", err)
	if err != nil {
		s.logger.Error("Payroll batch not finalized", "lines", len(lines), "error", err)
		return payroll.FinalizeResult{}, err
	}
	s.metrics.LinesFinalized(len(result.Lines))
	s.logger.Info("Payroll batch finalized",
		"batch_id", result.BatchID,
		"lines", len(result.Lines),
		"payout_date", payoutDate.Format("2006-01-02"),
		"finalized_by", finalizedBy,
	)
	return result, nil
}

func (s *PayrollServiceImpl) finalize(ctx context.Context, lines []payroll.PayrollLine, payoutDate time.Time, finalizedBy string) (payroll.FinalizeResult, error) {
	if len(lines) == 0 {
		return payroll.FinalizeResult{}, payroll.ErrEmptyBatch
	}
	batchID, err := uuid.NewV7()
	if err != nil {
		return payroll.FinalizeResult{}, fmt.Errorf("failed to generate batch id: %w", err)
	}
	result := payroll.FinalizeResult{BatchID: batchID.String(), PayoutDate: payoutDate}
	finalizedAt := s.now().UTC()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var failures []payroll.LineFailure
		seen := make(map[string]bool, len(lines))
		for _, line := range lines {
			if seen[line.Key()] {
				failures = append(failures, failure(line.EmployeeID, line.Period(), payroll.ErrDuplicatePeriod))
				continue
			}
			seen[line.Key()] = true
			if err := s.checkDraft(ctx, line); err != nil {
				failures = append(failures, failure(line.EmployeeID, line.Period(), err))
			}
		}
		if len(failures) > 0 {
			return &payroll.BatchError{Failures: failures}
		}

		result.Lines = make([]payroll.PayrollLine, 0, len(lines))
		for _, line := range lines {
			if err := s.payrollRepo.DeleteDrafts(ctx, line.EmployeeID, line.PeriodStart, line.PeriodEnd); err != nil {
				return err
			}
			line.Status = payroll.PayrollStatusFinalized
			line.BatchID = &result.BatchID
			line.PayoutDate = &payoutDate
			line.FinalizedBy = &finalizedBy
			line.FinalizedAt = &finalizedAt

			stored, err := s.payrollRepo.InsertFinalized(ctx, line)
			if err != nil {
				// the unique index caught a concurrent finalize of the same key
				if errors.Is(err, payroll.ErrDuplicatePeriod) {
					return &payroll.BatchError{Failures: []payroll.LineFailure{failure(line.EmployeeID, line.Period(), err)}}
				}
				return err
			}
			result.Lines = append(result.Lines, stored)
		}
		return nil
	})
	if err != nil {
		return payroll.FinalizeResult{}, err
	}
	return result, nil
}

// FinalizeDrafts loads saved drafts by id and finalizes them as one batch.
func (s *PayrollServiceImpl) FinalizeDrafts(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.FinalizeResult{}, err
	}
	payoutDate, _ := time.Parse("2006-01-02", req.PayoutDate)

	lines := make([]payroll.PayrollLine, 0, len(req.LineIDs))
	var failures []payroll.LineFailure
	for _, id := range req.LineIDs {
		line, err := s.payrollRepo.GetByID(ctx, id)
		if err != nil {
			failures = append(failures, payroll.LineFailure{Err: apperror.WithFields(err, "line_id", id)})
			continue
		}
		lines = append(lines, line)
	}
	if len(failures) > 0 {
		return payroll.FinalizeResult{}, &payroll.BatchError{Failures: failures}
	}
	return s.Finalize(ctx, lines, payoutDate, req.FinalizedBy)
}

func (s *PayrollServiceImpl) GetLine(ctx context.Context, id string) (payroll.PayrollLine, error) {
	line, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollLine{}, apperror.WithFields(err, "line_id", id)
	}
	return line, nil
}

func (s *PayrollServiceImpl) ListLines(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollLine, error) {
	return s.payrollRepo.List(ctx, filter)
}

func (s *PayrollServiceImpl) DeleteDraft(ctx context.Context, id string) error {
	if err := s.payrollRepo.DeleteDraft(ctx, id); err != nil {
		return apperror.WithFields(err, "line_id", id)
	}
	return nil
}
