package overtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *OvertimeServiceImpl
	repo  overtime.OvertimeRepository
	empID string
}

func newFixture(t *testing.T, s *settings.Settings, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	emp, err := employees.Create(context.Background(), employee.Employee{
		EmployeeCode: "E-001",
		FullName:     "Ana Cruz",
		BasicSalary:  decimal.NewFromInt(20000),
	})
	require.NoError(t, err)

	repo := memory.NewOvertimeRepository(store)
	return &fixture{
		svc:   NewOvertimeService(store, settings.Static{S: s}, repo, employees, lock.NewLocal(), opts...),
		repo:  repo,
		empID: emp.ID,
	}
}

func on(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

func (f *fixture) fileAndApprove(t *testing.T, date string, start time.Time) overtime.OvertimeResponse {
	t.Helper()
	ctx := context.Background()
	filed, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: date, StartTime: start, Reason: "release"})
	require.NoError(t, err)
	approved, err := f.svc.Approve(ctx, overtime.ReviewRequest{ID: filed.ID, ReviewerID: "mgr-1"})
	require.NoError(t, err)
	return approved
}

func TestFile_SetsDayTypeMultiplier(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()

	weekday, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 18, 0), Reason: "release"})
	require.NoError(t, err)
	assert.Equal(t, "weekday", weekday.DayType)
	assert.Equal(t, "1.25", weekday.RateMultiplier.String())
	assert.Equal(t, "PENDING", weekday.Status)
	assert.False(t, weekday.IsActive)

	saturday, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-09", StartTime: on(9, 9, 0), Reason: "migration"})
	require.NoError(t, err)
	assert.Equal(t, "rest_day", saturday.DayType)
	assert.Equal(t, "1.5", saturday.RateMultiplier.String())
}

func TestFile_RejectsStartOutsideDate(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()

	_, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(2, 18, 0), Reason: "release"})
	var verr validator.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "start_time", verr[0].Field)

	reqs, err := f.svc.List(ctx, overtime.OvertimeFilter{EmployeeID: &f.empID})
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestFile_CustomHolidayRule(t *testing.T) {
	holiday := DayTypeRuleFunc(func(time.Time) overtime.DayType { return overtime.DayTypeHoliday })
	f := newFixture(t, settings.Default(), WithDayTypeRule(holiday))

	resp, err := f.svc.File(context.Background(), overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 18, 0), Reason: "release"})
	require.NoError(t, err)
	assert.Equal(t, "holiday", resp.DayType)
	assert.Equal(t, "2", resp.RateMultiplier.String())
}

func TestFile_RejectsWhenActiveExists(t *testing.T) {
	f := newFixture(t, settings.Default())
	f.fileAndApprove(t, "2024-03-04", on(4, 18, 0))

	_, err := f.svc.File(context.Background(), overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 19, 0), Reason: "again"})
	assert.ErrorIs(t, err, overtime.ErrDuplicateActiveRequest)
}

func TestOnClockOut_SettlesOnceAndIsIdempotent(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 18, 0))

	outcome, err := f.svc.OnClockOut(ctx, f.empID, on(4, 21, 30))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeSettled, outcome)

	got, err := f.svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TotalHours)
	require.NotNil(t, got.OvertimePay)
	assert.Equal(t, "3.50", got.TotalHours.StringFixed(2))
	assert.Equal(t, "546.88", got.OvertimePay.StringFixed(2))
	assert.False(t, got.IsActive)
	assert.True(t, got.Completed)
	assert.Equal(t, "APPROVED", got.Status)

	outcome, err = f.svc.OnClockOut(ctx, f.empID, on(4, 22, 0))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeAlreadySettled, outcome)

	again, err := f.svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, "546.88", again.OvertimePay.StringFixed(2))
}

func TestOnClockOut_NoRequestIsNoMatch(t *testing.T) {
	f := newFixture(t, settings.Default())
	outcome, err := f.svc.OnClockOut(context.Background(), f.empID, on(4, 17, 0))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeNoMatch, outcome)
}

func TestOnClockOut_BeforeStartIsFlagged(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 18, 0))

	outcome, err := f.svc.OnClockOut(ctx, f.empID, on(4, 17, 0))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeAnomaly, outcome)

	got, err := f.svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TotalHours)
	assert.Nil(t, got.OvertimePay)
	assert.True(t, got.IsActive)
	assert.True(t, got.NeedsReview)
	require.NotNil(t, got.ReviewFlag)
	assert.Equal(t, FlagClockOutBeforeStart, *got.ReviewFlag)

	pending, err := f.svc.ListActionRequired(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, approved.ID, pending[0].ID)

	done, err := f.svc.ManualComplete(ctx, overtime.ManualCompleteRequest{ID: approved.ID, EndTime: on(4, 20, 0), CompletedBy: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, "2.00", done.TotalHours.StringFixed(2))
	assert.Equal(t, "312.50", done.OvertimePay.StringFixed(2))
	assert.False(t, done.NeedsReview)
	require.NotNil(t, done.CompletedBy)
	assert.Equal(t, "admin-1", *done.CompletedBy)
}

func TestOnClockOut_NextDayPolicy(t *testing.T) {
	s := settings.Default().Clone()
	s.Overtime.CrossMidnight = settings.CrossMidnightNextDay
	f := newFixture(t, s)
	ctx := context.Background()
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 22, 0))

	outcome, err := f.svc.OnClockOut(ctx, f.empID, on(4, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeSettled, outcome)

	got, err := f.svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.00", got.TotalHours.StringFixed(2))
	assert.Equal(t, "468.75", got.OvertimePay.StringFixed(2))
	assert.True(t, got.EndTime.Equal(on(5, 1, 0)))
}

func TestOnClockOut_NextDayPolicyMatchesPreviousDay(t *testing.T) {
	s := settings.Default().Clone()
	s.Overtime.CrossMidnight = settings.CrossMidnightNextDay
	f := newFixture(t, s)
	ctx := context.Background()
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 22, 0))

	outcome, err := f.svc.OnClockOut(ctx, f.empID, on(5, 1, 30))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeSettled, outcome)

	got, err := f.svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.50", got.TotalHours.StringFixed(2))
	assert.True(t, got.EndTime.Equal(on(5, 1, 30)))
}

func TestOnClockOut_AnomalyPolicyIgnoresPreviousDay(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 22, 0))

	outcome, err := f.svc.OnClockOut(ctx, f.empID, on(5, 1, 30))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeNoMatch, outcome)

	got, err := f.svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.TotalHours)
}

func TestOnClockOut_OverLimitIsFlagged(t *testing.T) {
	s := settings.Default().Clone()
	s.Overtime.CrossMidnight = settings.CrossMidnightNextDay
	f := newFixture(t, s)
	ctx := context.Background()
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 0, 30))

	outcome, err := f.svc.OnClockOut(ctx, f.empID, on(5, 7, 0))
	require.NoError(t, err)
	assert.Equal(t, overtime.OutcomeAnomaly, outcome)

	got, err := f.svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TotalHours)
	assert.Nil(t, got.OvertimePay)
	assert.True(t, got.NeedsReview)
	require.NotNil(t, got.ReviewFlag)
	assert.Equal(t, FlagDurationExceedsLimit, *got.ReviewFlag)
}

func TestManualComplete_RejectsOverLimit(t *testing.T) {
	f := newFixture(t, settings.Default())
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 18, 0))

	_, err := f.svc.ManualComplete(context.Background(), overtime.ManualCompleteRequest{ID: approved.ID, EndTime: on(6, 0, 0), CompletedBy: "admin-1"})
	assert.ErrorIs(t, err, overtime.ErrDurationExceedsLimit)
}

func TestManualComplete_RejectsNonPositiveDuration(t *testing.T) {
	f := newFixture(t, settings.Default())
	approved := f.fileAndApprove(t, "2024-03-04", on(4, 18, 0))

	_, err := f.svc.ManualComplete(context.Background(), overtime.ManualCompleteRequest{ID: approved.ID, EndTime: on(4, 18, 0), CompletedBy: "admin-1"})
	assert.ErrorIs(t, err, overtime.ErrNonPositiveDuration)
}

func TestManualComplete_RequiresApproval(t *testing.T) {
	f := newFixture(t, settings.Default())
	filed, err := f.svc.File(context.Background(), overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 18, 0), Reason: "release"})
	require.NoError(t, err)

	_, err = f.svc.ManualComplete(context.Background(), overtime.ManualCompleteRequest{ID: filed.ID, EndTime: on(4, 20, 0), CompletedBy: "admin-1"})
	assert.ErrorIs(t, err, overtime.ErrNotApproved)
}

func TestApprove_ConcurrentForSameDay(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()

	first, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 18, 0), Reason: "a"})
	require.NoError(t, err)
	second, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 19, 0), Reason: "b"})
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []string{first.ID, second.ID} {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(ctx, overtime.ReviewRequest{ID: id, ReviewerID: "mgr-1"})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, overtime.ErrDuplicateActiveRequest), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func TestReject_RequiresNotes(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()
	filed, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 18, 0), Reason: "release"})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, overtime.ReviewRequest{ID: filed.ID, ReviewerID: "mgr-1", Notes: "  "})
	assert.ErrorIs(t, err, overtime.ErrNotesRequired)

	rejected, err := f.svc.Reject(ctx, overtime.ReviewRequest{ID: filed.ID, ReviewerID: "mgr-1", Notes: "not needed"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)

	_, err = f.svc.Approve(ctx, overtime.ReviewRequest{ID: filed.ID, ReviewerID: "mgr-1"})
	assert.ErrorIs(t, err, overtime.ErrNotPending)
}

func TestCancel_OwnerOnly(t *testing.T) {
	f := newFixture(t, settings.Default())
	ctx := context.Background()
	filed, err := f.svc.File(ctx, overtime.FileRequest{EmployeeID: f.empID, Date: "2024-03-04", StartTime: on(4, 18, 0), Reason: "release"})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, overtime.CancelRequest{ID: filed.ID, EmployeeID: "someone-else"})
	assert.ErrorIs(t, err, overtime.ErrNotOwner)

	cancelled, err := f.svc.Cancel(ctx, overtime.CancelRequest{ID: filed.ID, EmployeeID: f.empID})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
}
