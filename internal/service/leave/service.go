package leave

import (
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
)

type LeaveServiceImpl struct {
	*RequestService
	*CreditService
}

func NewLeaveService(
	tx database.Transactor,
	settingsProvider settings.Provider,
	leaveRepo leave.LeaveRequestRepository,
	creditRepo leave.LeaveCreditRepository,
	employeeRepo employee.EmployeeRepository,
	locker lock.Locker,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		RequestService: NewRequestService(tx, settingsProvider, leaveRepo, employeeRepo, locker, metrics, logger),
		CreditService:  NewCreditService(settingsProvider, creditRepo, leaveRepo, employeeRepo, logger),
	}
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)
