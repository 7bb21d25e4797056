package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	store := NewStore()
	repo := NewAttendanceRepository(store)
	outbox := NewOutboxRepository(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := repo.Create(ctx, attendance.Record{EmployeeID: "emp-1", Date: day, Status: attendance.StatusPresent})
		require.NoError(t, err)
		_, err = outbox.Append(ctx, attendance.Event{Type: attendance.EventClockedIn, EmployeeID: "emp-1", RecordID: rec.ID})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetByEmployeeAndDate(ctx, "emp-1", day)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
	events, err := outbox.ListUnprocessed(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWithinTransaction_Commits(t *testing.T) {
	store := NewStore()
	repo := NewAttendanceRepository(store)
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		// nested transactions join the outer one
		return store.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.Create(ctx, attendance.Record{EmployeeID: "emp-1", Date: day})
			return err
		})
	})
	require.NoError(t, err)

	_, err = repo.GetByEmployeeAndDate(ctx, "emp-1", day)
	assert.NoError(t, err)
}

func TestAttendance_OneRecordPerDay(t *testing.T) {
	repo := NewAttendanceRepository(NewStore())
	ctx := context.Background()

	_, err := repo.Create(ctx, attendance.Record{EmployeeID: "emp-1", Date: day})
	require.NoError(t, err)
	_, err = repo.Create(ctx, attendance.Record{EmployeeID: "emp-1", Date: day})
	assert.ErrorIs(t, err, attendance.ErrDuplicateClockIn)
	_, err = repo.Create(ctx, attendance.Record{EmployeeID: "emp-2", Date: day})
	assert.NoError(t, err)
}

func TestAttendance_CloseIsConditional(t *testing.T) {
	repo := NewAttendanceRepository(NewStore())
	ctx := context.Background()
	in := day.Add(8 * time.Hour)
	out := day.Add(17 * time.Hour)

	rec, err := repo.Create(ctx, attendance.Record{EmployeeID: "emp-1", Date: day, TimeIn: &in})
	require.NoError(t, err)

	rec.TimeOut = &out
	require.NoError(t, repo.Close(ctx, rec))
	assert.ErrorIs(t, repo.Close(ctx, rec), attendance.ErrNoOpenRecord)
}

func TestOvertime_SingleActivePerDay(t *testing.T) {
	repo := NewOvertimeRepository(NewStore())
	ctx := context.Background()

	_, err := repo.Create(ctx, overtime.Request{EmployeeID: "emp-1", Date: day, IsActive: true, Status: overtime.StatusApproved})
	require.NoError(t, err)

	pending, err := repo.Create(ctx, overtime.Request{EmployeeID: "emp-1", Date: day, Status: overtime.StatusPending})
	require.NoError(t, err)

	pending.Status = overtime.StatusApproved
	pending.IsActive = true
	assert.ErrorIs(t, repo.UpdateReview(ctx, pending), overtime.ErrDuplicateActiveRequest)
}

func TestOvertime_CompleteOnce(t *testing.T) {
	repo := NewOvertimeRepository(NewStore())
	ctx := context.Background()

	req, err := repo.Create(ctx, overtime.Request{EmployeeID: "emp-1", Date: day, IsActive: true, Status: overtime.StatusApproved})
	require.NoError(t, err)

	hours := decimal.NewFromFloat(2.5)
	req.TotalHours = &hours
	require.NoError(t, repo.Complete(ctx, req))
	assert.ErrorIs(t, repo.Complete(ctx, req), overtime.ErrAlreadySettled)

	totals, err := repo.SettledTotals(ctx, "emp-1", day, day)
	require.NoError(t, err)
	assert.True(t, totals.Hours.Equal(hours))
}

func TestPayroll_FinalizedKeyIsUnique(t *testing.T) {
	repo := NewPayrollRepository(NewStore())
	ctx := context.Background()
	line := payroll.PayrollLine{EmployeeID: "emp-1", PeriodStart: day, PeriodEnd: day.AddDate(0, 0, 11)}

	draft, err := repo.SaveDraft(ctx, line)
	require.NoError(t, err)
	again, err := repo.SaveDraft(ctx, line)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, again.ID, "draft for the same key is replaced in place")

	_, err = repo.InsertFinalized(ctx, line)
	require.NoError(t, err)
	_, err = repo.InsertFinalized(ctx, line)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)

	finalized := payroll.PayrollStatusFinalized
	lines, err := repo.List(ctx, payroll.PayrollFilter{Status: &finalized})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.ErrorIs(t, repo.DeleteDraft(ctx, lines[0].ID), payroll.ErrFinalizedImmutable)
}
