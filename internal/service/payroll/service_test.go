package payroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchFixture struct {
	svc   *PayrollServiceImpl
	lines payroll.PayrollRepository
	ana   string
	ben   string
}

func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	records := memory.NewAttendanceRepository(store)
	advances := memory.NewCashAdvanceRepository(store)

	ana, err := employees.Create(ctx, employee.Employee{EmployeeCode: "E-001", FullName: "Ana Cruz", BasicSalary: decimal.NewFromInt(20000)})
	require.NoError(t, err)
	ben, err := employees.Create(ctx, employee.Employee{EmployeeCode: "E-002", FullName: "Ben Santos", BasicSalary: decimal.NewFromInt(30000)})
	require.NoError(t, err)

	_, err = records.Create(ctx, attendance.Record{EmployeeID: ben.ID, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Status: attendance.StatusAbsent})
	require.NoError(t, err)
	disbursed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	_, err = advances.Create(ctx, cashadvance.Request{
		EmployeeID:      ben.ID,
		Amount:          decimal.NewFromInt(1000),
		Status:          cashadvance.StatusApproved,
		ManagerApproval: cashadvance.GateApproved,
		AdminApproval:   cashadvance.GateApproved,
		IsDisbursed:     true,
		DisbursedAt:     &disbursed,
	})
	require.NoError(t, err)

	f := &batchFixture{lines: memory.NewPayrollRepository(store), ana: ana.ID, ben: ben.ID}
	f.svc = NewPayrollService(store, settings.Static{S: settings.Default()}, f.lines, employees, records,
		memory.NewOvertimeRepository(store), advances,
		WithConcurrency(2),
		WithClock(func() time.Time { return time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC) }),
	)
	return f
}

func finalizedLines(t *testing.T, repo payroll.PayrollRepository) []payroll.PayrollLine {
	t.Helper()
	status := payroll.PayrollStatusFinalized
	lines, err := repo.List(context.Background(), payroll.PayrollFilter{Status: &status})
	require.NoError(t, err)
	return lines
}

func TestRunDraft_GathersPeriodInputs(t *testing.T) {
	f := newBatchFixture(t)

	register, err := f.svc.RunDraft(context.Background(), firstHalf(), nil)
	require.NoError(t, err)
	require.Len(t, register.Lines, 2)
	assert.Empty(t, register.Failures)

	ben := register.Lines[1]
	assert.Equal(t, f.ben, ben.EmployeeID)
	assert.Equal(t, 1, ben.DaysAbsent)
	assert.Equal(t, "1000.00", ben.Deductions.CashAdvance.StringFixed(2))
	require.NoError(t, ben.CheckInvariant())

	assert.Empty(t, finalizedLines(t, f.lines))
}

func TestRunDraft_ReportsFailingEmployeeAndContinues(t *testing.T) {
	f := newBatchFixture(t)

	register, err := f.svc.RunDraft(context.Background(), firstHalf(), []string{f.ana, "missing"})
	require.NoError(t, err)
	require.Len(t, register.Lines, 1)
	require.Len(t, register.Failures, 1)
	assert.Equal(t, "missing", register.Failures[0].EmployeeID)
	assert.ErrorIs(t, register.Failures[0].Err, employee.ErrEmployeeNotFound)
}

func TestRunDraft_RejectsInvalidPeriod(t *testing.T) {
	f := newBatchFixture(t)
	period := payroll.Period{Start: firstHalf().End, End: firstHalf().Start}

	_, err := f.svc.RunDraft(context.Background(), period, nil)
	assert.Error(t, err)
}

func TestFinalize_SecondRunIsDuplicate(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()
	register, err := f.svc.RunDraft(ctx, firstHalf(), nil)
	require.NoError(t, err)
	payout := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	result, err := f.svc.Finalize(ctx, register.Lines, payout, "admin-1")
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	for _, line := range result.Lines {
		assert.Equal(t, payroll.PayrollStatusFinalized, line.Status)
		assert.Equal(t, result.BatchID, *line.BatchID)
	}

	_, err = f.svc.Finalize(ctx, register.Lines, payout, "admin-1")
	var batchErr *payroll.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Len(t, batchErr.Failures, 2)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)
	assert.Len(t, finalizedLines(t, f.lines), 2)
}

func TestFinalize_OneBadLineCommitsNothing(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()
	register, err := f.svc.RunDraft(ctx, firstHalf(), nil)
	require.NoError(t, err)

	lines := append([]payroll.PayrollLine(nil), register.Lines...)
	lines[1].NetPay = lines[1].NetPay.Add(decimal.NewFromInt(1))

	_, err = f.svc.Finalize(ctx, lines, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), "admin-1")
	var batchErr *payroll.BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Failures, 1)
	assert.Equal(t, f.ben, batchErr.Failures[0].EmployeeID)
	assert.Empty(t, finalizedLines(t, f.lines))
}

func TestFinalize_ConcurrentBatchesCommitOnce(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()
	register, err := f.svc.RunDraft(ctx, firstHalf(), nil)
	require.NoError(t, err)
	payout := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Finalize(ctx, register.Lines, payout, "admin-1")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, payroll.ErrDuplicatePeriod))
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, finalizedLines(t, f.lines), 2)
}

func TestSaveDraftThenFinalizeDrafts(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()
	register, err := f.svc.RunDraft(ctx, firstHalf(), []string{f.ana})
	require.NoError(t, err)

	saved, err := f.svc.SaveDraft(ctx, register.Lines)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	// saving again replaces the earlier draft
	_, err = f.svc.SaveDraft(ctx, register.Lines)
	require.NoError(t, err)
	drafts, err := f.svc.ListLines(ctx, payroll.PayrollFilter{EmployeeID: &f.ana})
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	result, err := f.svc.FinalizeDrafts(ctx, payroll.FinalizeRequest{
		LineIDs:     []string{drafts[0].ID},
		PayoutDate:  "2024-03-20",
		FinalizedBy: "admin-1",
	})
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	all, err := f.svc.ListLines(ctx, payroll.PayrollFilter{EmployeeID: &f.ana})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, payroll.PayrollStatusFinalized, all[0].Status)

	assert.ErrorIs(t, f.svc.DeleteDraft(ctx, all[0].ID), payroll.ErrFinalizedImmutable)
	_, err = f.svc.SaveDraft(ctx, register.Lines)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)
}
