package cashadvance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*CashAdvanceServiceImpl, string) {
	t.Helper()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	emp, err := employees.Create(context.Background(), employee.Employee{
		EmployeeCode: "E-001",
		FullName:     "Ana Cruz",
		BasicSalary:  decimal.NewFromInt(20000),
	})
	require.NoError(t, err)
	return NewCashAdvanceService(store, memory.NewCashAdvanceRepository(store), employees, nil), emp.ID
}

func file(t *testing.T, svc *CashAdvanceServiceImpl, empID string, amount int64) cashadvance.CashAdvanceResponse {
	t.Helper()
	resp, err := svc.File(context.Background(), cashadvance.FileRequest{
		EmployeeID:    empID,
		Amount:        decimal.NewFromInt(amount),
		Reason:        "medical",
		RepaymentPlan: "one payroll",
	})
	require.NoError(t, err)
	return resp
}

func TestReview_BothGatesApprove(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	filed := file(t, svc, empID, 3000)

	afterManager, err := svc.Review(ctx, cashadvance.ReviewRequest{ID: filed.ID, Gate: cashadvance.GateManager, ReviewerID: "mgr-1", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", afterManager.Status)

	_, err = svc.Review(ctx, cashadvance.ReviewRequest{ID: filed.ID, Gate: cashadvance.GateManager, ReviewerID: "mgr-2", Approve: true})
	assert.ErrorIs(t, err, cashadvance.ErrGateReviewed)

	approved, err := svc.Review(ctx, cashadvance.ReviewRequest{ID: filed.ID, Gate: cashadvance.GateAdmin, ReviewerID: "adm-1", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
}

func TestReview_RejectionNeedsNotes(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	filed := file(t, svc, empID, 3000)

	_, err := svc.Review(ctx, cashadvance.ReviewRequest{ID: filed.ID, Gate: cashadvance.GateAdmin, ReviewerID: "adm-1"})
	assert.ErrorIs(t, err, cashadvance.ErrNotesRequired)

	rejected, err := svc.Review(ctx, cashadvance.ReviewRequest{ID: filed.ID, Gate: cashadvance.GateAdmin, ReviewerID: "adm-1", Notes: "over limit"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)

	_, err = svc.Review(ctx, cashadvance.ReviewRequest{ID: filed.ID, Gate: cashadvance.GateManager, ReviewerID: "mgr-1", Approve: true})
	assert.ErrorIs(t, err, cashadvance.ErrNotPending)
}

func TestDisburse_CountsTowardsWindow(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	filed := file(t, svc, empID, 3000)

	_, err := svc.Disburse(ctx, cashadvance.DisburseRequest{ID: filed.ID, DisbursedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, cashadvance.ErrNotApproved)

	for _, gate := range []cashadvance.Gate{cashadvance.GateManager, cashadvance.GateAdmin} {
		_, err := svc.Review(ctx, cashadvance.ReviewRequest{ID: filed.ID, Gate: gate, ReviewerID: "r", Approve: true})
		require.NoError(t, err)
	}

	disbursed, err := svc.Disburse(ctx, cashadvance.DisburseRequest{ID: filed.ID, DisbursedAt: time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.True(t, disbursed.IsDisbursed)

	_, err = svc.Disburse(ctx, cashadvance.DisburseRequest{ID: filed.ID, DisbursedAt: time.Now()})
	assert.ErrorIs(t, err, cashadvance.ErrAlreadyDisbursed)

	first, err := svc.EligibleTotal(ctx, empID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "3000.00", first.StringFixed(2))

	second, err := svc.EligibleTotal(ctx, empID, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, second.IsZero())
}

func TestCancel_OnlyWhilePending(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	filed := file(t, svc, empID, 500)

	cancelled, err := svc.Cancel(ctx, filed.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	_, err = svc.Cancel(ctx, filed.ID)
	assert.ErrorIs(t, err, cashadvance.ErrNotPending)
}
