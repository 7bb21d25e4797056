package leave

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*LeaveServiceImpl, string) {
	t.Helper()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	emp, err := employees.Create(context.Background(), employee.Employee{
		EmployeeCode: "E-001",
		FullName:     "Ana Cruz",
		BasicSalary:  decimal.NewFromInt(20000),
	})
	require.NoError(t, err)

	svc := NewLeaveService(store, settings.Static{S: settings.Default()},
		memory.NewLeaveRequestRepository(store), memory.NewLeaveCreditRepository(store),
		employees, lock.NewLocal(), nil, nil)
	return svc, emp.ID
}

func clockIn(day int) time.Time {
	return time.Date(2024, 3, day, 8, 0, 0, 0, time.UTC)
}

func fileOpenLeave(t *testing.T, svc *LeaveServiceImpl, empID, start string) leave.LeaveRequestResponse {
	t.Helper()
	ctx := context.Background()
	filed, err := svc.File(ctx, leave.FileRequest{EmployeeID: empID, LeaveType: "vacation", StartDate: start, Reason: "trip"})
	require.NoError(t, err)
	approved, err := svc.Approve(ctx, leave.ReviewRequest{ID: filed.ID, ReviewerID: "mgr-1"})
	require.NoError(t, err)
	require.True(t, approved.IsActive)
	return approved
}

func TestOnClockIn_SettlesOpenLeave(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	approved := fileOpenLeave(t, svc, empID, "2024-03-01")

	outcome, err := svc.OnClockIn(ctx, empID, clockIn(5))
	require.NoError(t, err)
	assert.Equal(t, leave.OutcomeSettled, outcome)

	got, err := svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndDate)
	require.NotNil(t, got.TotalDays)
	assert.Equal(t, "2024-03-04", *got.EndDate)
	assert.Equal(t, 4, *got.TotalDays)
	assert.False(t, got.IsActive)

	outcome, err = svc.OnClockIn(ctx, empID, clockIn(5))
	require.NoError(t, err)
	assert.Equal(t, leave.OutcomeAlreadySettled, outcome)
}

func TestOnClockIn_OnStartDateIsAnomaly(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	approved := fileOpenLeave(t, svc, empID, "2024-03-04")

	outcome, err := svc.OnClockIn(ctx, empID, clockIn(4))
	require.NoError(t, err)
	assert.Equal(t, leave.OutcomeAnomaly, outcome)

	got, err := svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TotalDays)
	assert.True(t, got.IsActive)
	assert.True(t, got.NeedsReview)

	flagged, err := svc.ListActionRequired(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, flagged, 1)

	done, err := svc.ManualComplete(ctx, leave.ManualCompleteRequest{ID: approved.ID, EndDate: "2024-03-06", CompletedBy: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, *done.TotalDays)
	assert.False(t, done.NeedsReview)
}

func TestOnClockIn_BeforeStartIsNoMatch(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	approved := fileOpenLeave(t, svc, empID, "2024-03-10")

	outcome, err := svc.OnClockIn(ctx, empID, clockIn(4))
	require.NoError(t, err)
	assert.Equal(t, leave.OutcomeNoMatch, outcome)

	got, err := svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.False(t, got.NeedsReview)
}

func TestOnClockIn_WithoutLeave(t *testing.T) {
	svc, empID := newService(t)
	outcome, err := svc.OnClockIn(context.Background(), empID, clockIn(4))
	require.NoError(t, err)
	assert.Equal(t, leave.OutcomeNoMatch, outcome)
}

func TestFile_OneActiveLeavePerEmployee(t *testing.T) {
	svc, empID := newService(t)
	fileOpenLeave(t, svc, empID, "2024-03-01")

	_, err := svc.File(context.Background(), leave.FileRequest{EmployeeID: empID, LeaveType: "sick", StartDate: "2024-03-02", Reason: "flu"})
	assert.ErrorIs(t, err, leave.ErrDuplicateActiveRequest)
}

func TestFile_BoundedLeaveIsNeverActive(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	end := "2024-03-08"

	filed, err := svc.File(ctx, leave.FileRequest{EmployeeID: empID, LeaveType: "vacation", StartDate: "2024-03-06", EndDate: &end, Reason: "trip"})
	require.NoError(t, err)
	require.NotNil(t, filed.TotalDays)
	assert.Equal(t, 3, *filed.TotalDays)

	approved, err := svc.Approve(ctx, leave.ReviewRequest{ID: filed.ID, ReviewerID: "mgr-1"})
	require.NoError(t, err)
	assert.False(t, approved.IsActive)
	assert.Equal(t, "APPROVED", approved.Status)
}

func TestManualComplete_EndBeforeStart(t *testing.T) {
	svc, empID := newService(t)
	approved := fileOpenLeave(t, svc, empID, "2024-03-04")

	_, err := svc.ManualComplete(context.Background(), leave.ManualCompleteRequest{ID: approved.ID, EndDate: "2024-03-01", CompletedBy: "admin-1"})
	assert.ErrorIs(t, err, leave.ErrEndBeforeStart)
}

func TestReject_RequiresNotes(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()
	filed, err := svc.File(ctx, leave.FileRequest{EmployeeID: empID, LeaveType: "vacation", StartDate: "2024-03-04", Reason: "trip"})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, leave.ReviewRequest{ID: filed.ID, ReviewerID: "mgr-1"})
	assert.ErrorIs(t, err, leave.ErrNotesRequired)

	_, err = svc.Cancel(ctx, leave.CancelRequest{ID: filed.ID, EmployeeID: "other"})
	assert.ErrorIs(t, err, leave.ErrNotOwner)
}

func TestCredits_OverrideAndBalance(t *testing.T) {
	svc, empID := newService(t)
	ctx := context.Background()

	fileOpenLeave(t, svc, empID, "2024-03-01")
	_, err := svc.OnClockIn(ctx, empID, clockIn(5))
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, empID, 2024)
	require.NoError(t, err)
	vacation := balance[0]
	assert.Equal(t, "vacation", vacation.LeaveType)
	assert.Equal(t, 15, vacation.Entitlement)
	assert.Equal(t, 4, vacation.Used)
	assert.Equal(t, 11, vacation.Remaining)
	assert.False(t, vacation.Overridden)

	_, err = svc.AdjustCredit(ctx, leave.AdjustCreditRequest{EmployeeID: empID, LeaveType: "vacation", Days: 20, AdjustedBy: "hr-1"})
	require.Error(t, err, "reason is mandatory")

	adjusted, err := svc.AdjustCredit(ctx, leave.AdjustCreditRequest{EmployeeID: empID, LeaveType: "vacation", Days: 20, Reason: "tenure", AdjustedBy: "hr-1"})
	require.NoError(t, err)
	assert.True(t, adjusted.Overridden)

	balance, err = svc.Balance(ctx, empID, 2024)
	require.NoError(t, err)
	assert.Equal(t, 16, balance[0].Remaining)
	require.NotNil(t, balance[0].Reason)
	assert.Equal(t, "tenure", *balance[0].Reason)

	removed, err := svc.ResetCredits(ctx, empID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	credits, err := svc.Credits(ctx, empID)
	require.NoError(t, err)
	assert.Equal(t, 15, credits[0].Days)
	assert.Len(t, credits, len(leave.Types))
}
