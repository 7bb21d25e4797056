package postgresql_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupDB connects to TEST_DATABASE_URL, applies migrations and empties every table.
func setupDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgresql.Migrate(ctx, db))
	_, err = db.Exec(ctx, `TRUNCATE TABLE payroll_lines, cash_advances, leave_credits, leave_requests,
		overtime_requests, attendance_events, attendance_records, employees, payroll_settings CASCADE`)
	require.NoError(t, err)
	return db
}

func createEmployee(t *testing.T, db *database.DB, code string) employee.Employee {
	t.Helper()
	emp, err := postgresql.NewEmployeeRepository(db).Create(context.Background(), employee.Employee{
		EmployeeCode: code,
		FullName:     "Ana Cruz",
		BasicSalary:  decimal.NewFromInt(20000),
	})
	require.NoError(t, err)
	return emp
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, postgresql.Migrate(context.Background(), db))
}

func TestEmployeeRepository_DuplicateCode(t *testing.T) {
	db := setupDB(t)
	createEmployee(t, db, "E-001")

	_, err := postgresql.NewEmployeeRepository(db).Create(context.Background(), employee.Employee{
		EmployeeCode: "E-001", FullName: "Other", BasicSalary: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)
}

func TestAttendanceRepository_OneRecordPerDay(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	emp := createEmployee(t, db, "E-001")
	repo := postgresql.NewAttendanceRepository(db)
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	timeIn := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	rec, err := repo.Create(ctx, attendance.Record{EmployeeID: emp.ID, Date: date, TimeIn: &timeIn, Status: attendance.StatusPresent})
	require.NoError(t, err)
	_, err = repo.Create(ctx, attendance.Record{EmployeeID: emp.ID, Date: date, TimeIn: &timeIn, Status: attendance.StatusPresent})
	assert.ErrorIs(t, err, attendance.ErrDuplicateClockIn)

	timeOut := timeIn.Add(9 * time.Hour)
	hours := decimal.NewFromInt(9)
	rec.TimeOut, rec.HoursWorked = &timeOut, &hours
	require.NoError(t, repo.Close(ctx, rec))
	assert.ErrorIs(t, repo.Close(ctx, rec), attendance.ErrNoOpenRecord)

	sum, err := repo.Summarize(ctx, emp.ID, date, date)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.DaysPresent)
	assert.True(t, sum.HoursWorked.Equal(hours))
}

func TestTransactor_RollsBackOutboxWithRecord(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	emp := createEmployee(t, db, "E-001")
	records := postgresql.NewAttendanceRepository(db)
	outbox := postgresql.NewOutboxRepository(db)
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	err := postgresql.NewTransactor(db).WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := records.Create(ctx, attendance.Record{EmployeeID: emp.ID, Date: date, Status: attendance.StatusAbsent})
		if err != nil {
			return err
		}
		if _, err := outbox.Append(ctx, attendance.Event{Type: attendance.EventClockedIn, EmployeeID: emp.ID, RecordID: rec.ID, Date: date, OccurredAt: date}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = records.GetByEmployeeAndDate(ctx, emp.ID, date)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
	events, err := outbox.ListUnprocessed(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestOvertimeRepository_ConditionalComplete(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	emp := createEmployee(t, db, "E-001")
	repo := postgresql.NewOvertimeRepository(db)
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	req, err := repo.Create(ctx, overtime.Request{
		EmployeeID: emp.ID, Date: date, StartTime: date.Add(17 * time.Hour),
		DayType: overtime.DayTypeWeekday, RateMultiplier: decimal.RequireFromString("1.25"),
		Reason: "release", Status: overtime.StatusApproved, IsActive: true,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, overtime.Request{
		EmployeeID: emp.ID, Date: date, StartTime: date.Add(18 * time.Hour),
		DayType: overtime.DayTypeWeekday, RateMultiplier: decimal.RequireFromString("1.25"),
		Reason: "again", Status: overtime.StatusApproved, IsActive: true,
	})
	assert.ErrorIs(t, err, overtime.ErrDuplicateActiveRequest)

	end := date.Add(20 * time.Hour)
	hours := decimal.RequireFromString("3.00")
	pay := decimal.RequireFromString("468.75")
	req.EndTime, req.TotalHours, req.OvertimePay = &end, &hours, &pay
	require.NoError(t, repo.Complete(ctx, req))
	assert.ErrorIs(t, repo.Complete(ctx, req), overtime.ErrAlreadySettled)

	totals, err := repo.SettledTotals(ctx, emp.ID, date, date)
	require.NoError(t, err)
	assert.True(t, totals.Pay.Equal(pay))
}

func TestLeaveRepository_SingleActiveLeave(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	emp := createEmployee(t, db, "E-001")
	repo := postgresql.NewLeaveRequestRepository(db)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, leave.Request{EmployeeID: emp.ID, LeaveType: leave.TypeSick, StartDate: start, Reason: "flu", Status: leave.StatusApproved, IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, leave.Request{EmployeeID: emp.ID, LeaveType: leave.TypeVacation, StartDate: start, Reason: "trip", Status: leave.StatusApproved, IsActive: true})
	assert.ErrorIs(t, err, leave.ErrDuplicateActiveRequest)
}

func TestPayrollRepository_FinalizedKeyIsUnique(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	emp := createEmployee(t, db, "E-001")
	repo := postgresql.NewPayrollRepository(db)
	line := payroll.PayrollLine{
		EmployeeID:  emp.ID,
		PeriodStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Half:        payroll.HalfFirst,
		BasicSalary: decimal.NewFromInt(20000),
		HourlyRate:  decimal.NewFromInt(125),
		GrossPay:    decimal.NewFromInt(10000),
		NetPay:      decimal.NewFromInt(10000),
	}

	_, err := repo.InsertFinalized(ctx, line)
	require.NoError(t, err)
	_, err = repo.InsertFinalized(ctx, line)
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)

	exists, err := repo.ExistsFinalized(ctx, emp.ID, line.PeriodStart, line.PeriodEnd)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSettingsRepository_RoundTrip(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := postgresql.NewSettingsRepository(db)

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, settings.ErrSettingsNotFound)

	s := settings.Default().Clone()
	s.GracePeriodMinutes = 10
	require.NoError(t, repo.Save(ctx, s))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.GracePeriodMinutes)
	assert.NoError(t, loaded.Validate())
}
