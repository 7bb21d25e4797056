package attendance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *AttendanceServiceImpl
	outbox    attendance.OutboxRepository
	records   attendance.AttendanceRepository
	mu        sync.Mutex
	published []attendance.Event
	failWith  error
	empID     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	emp, err := employees.Create(context.Background(), employee.Employee{
		EmployeeCode: "E-001",
		FullName:     "Ana Cruz",
		BasicSalary:  decimal.NewFromInt(20000),
	})
	require.NoError(t, err)

	f := &fixture{
		outbox:  memory.NewOutboxRepository(store),
		records: memory.NewAttendanceRepository(store),
		empID:   emp.ID,
	}
	publisher := attendance.PublisherFunc(func(ctx context.Context, e attendance.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failWith != nil {
			return f.failWith
		}
		f.published = append(f.published, e)
		return nil
	})
	f.svc = NewAttendanceService(store, settings.Static{S: settings.Default()}, f.records, f.outbox, employees, lock.NewLocal(), publisher, nil, nil)
	return f
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestClockIn_ClassifiesAgainstGracePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(8, 15)})
	require.NoError(t, err)
	assert.Equal(t, "present", resp.Status)
	assert.Equal(t, 0, resp.LateMinutes)
	assert.Equal(t, "2024-03-04", resp.Date)

	f2 := newFixture(t)
	resp, err = f2.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f2.empID, Timestamp: at(8, 20)})
	require.NoError(t, err)
	assert.Equal(t, "late", resp.Status)
	assert.Equal(t, 20, resp.LateMinutes)
}

func TestClockIn_DuplicateCarriesIdentifiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(8, 0)})
	require.NoError(t, err)

	_, err = f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(9, 0)})
	require.ErrorIs(t, err, attendance.ErrDuplicateClockIn)
	fields := apperror.FieldsOf(err)
	assert.Equal(t, f.empID, fields["employee_id"])
	assert.Equal(t, "2024-03-04", fields["date"])
}

func TestClockIn_ConcurrentCallsOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wins, dups int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(8, 0)})
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, attendance.ErrDuplicateClockIn):
				atomic.AddInt32(&dups, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(9), dups)
}

func TestClockOut_ComputesHoursAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(8, 0)})
	require.NoError(t, err)
	resp, err := f.svc.ClockOut(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(17, 20)})
	require.NoError(t, err)

	require.NotNil(t, resp.HoursWorked)
	assert.Equal(t, "9.33", resp.HoursWorked.StringFixed(2))
	assert.Equal(t, "present", resp.Status)

	require.Len(t, f.published, 2)
	assert.Equal(t, attendance.EventClockedIn, f.published[0].Type)
	assert.Equal(t, attendance.EventClockedOut, f.published[1].Type)
	assert.True(t, f.published[1].OccurredAt.Equal(at(17, 20)))
}

func TestClockOut_NoOpenRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ClockOut(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(17, 0)})
	assert.ErrorIs(t, err, attendance.ErrNoOpenRecord)

	_, err = f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(8, 0)})
	require.NoError(t, err)
	_, err = f.svc.ClockOut(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(17, 0)})
	require.NoError(t, err)

	_, err = f.svc.ClockOut(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(18, 0)})
	assert.ErrorIs(t, err, attendance.ErrNoOpenRecord)
}

func TestClockOut_BeforeClockInIsCrossBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(9, 0)})
	require.NoError(t, err)
	resp, err := f.svc.ClockOut(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(7, 0)})
	require.NoError(t, err)

	assert.True(t, resp.CrossBoundary)
	assert.Equal(t, "incomplete", resp.Status)
	assert.Nil(t, resp.HoursWorked)
}

func TestClockIn_PublishFailureLeavesEventForReplay(t *testing.T) {
	f := newFixture(t)
	f.failWith = errors.New("queue down")
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(8, 0)})
	require.NoError(t, err)

	pending, err := f.outbox.ListUnprocessed(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.empID, pending[0].EmployeeID)
}

func TestClockIn_UnknownEmployee(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ClockIn(context.Background(), attendance.ClockRequest{EmployeeID: "ghost", Timestamp: at(8, 0)})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestMarkAbsent_SkipsExistingRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ClockIn(ctx, attendance.ClockRequest{EmployeeID: f.empID, Timestamp: at(8, 0)})
	require.NoError(t, err)

	n, err := f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{Date: "2024-03-04", EmployeeIDs: []string{f.empID}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = f.svc.MarkAbsent(ctx, attendance.MarkAbsentRequest{Date: "2024-03-05", EmployeeIDs: []string{f.empID}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	summary, err := f.svc.Summary(ctx, f.empID, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DaysAbsent)
	assert.Equal(t, 1, summary.DaysPresent)
}
