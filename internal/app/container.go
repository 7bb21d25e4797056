// Package app assembles the repositories, services and background machinery shared by the API and worker binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/queue"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	cashAdvanceService "github.com/cmlabs-hris/payroll-engine/internal/service/cashadvance"
	employeeService "github.com/cmlabs-hris/payroll-engine/internal/service/employee"
	leaveService "github.com/cmlabs-hris/payroll-engine/internal/service/leave"
	overtimeService "github.com/cmlabs-hris/payroll-engine/internal/service/overtime"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/service/settlement"
	settingsService "github.com/cmlabs-hris/payroll-engine/internal/service/settings"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Repositories struct {
	Tx          database.Transactor
	Employee    employee.EmployeeRepository
	Attendance  attendance.AttendanceRepository
	Outbox      attendance.OutboxRepository
	Overtime    overtime.OvertimeRepository
	Leave       leave.LeaveRequestRepository
	LeaveCredit leave.LeaveCreditRepository
	CashAdvance cashadvance.CashAdvanceRepository
	Payroll     payroll.PayrollRepository
	Settings    settings.Repository
}

// Container holds the wired object graph. Close releases every connection it opened.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Repos   Repositories

	Settings    *settingsService.Store
	Employee    employee.EmployeeService
	Attendance  *attendanceService.AttendanceServiceImpl
	Overtime    *overtimeService.OvertimeServiceImpl
	Leave       *leaveService.LeaveServiceImpl
	CashAdvance *cashAdvanceService.CashAdvanceServiceImpl
	Payroll     *payrollService.PayrollServiceImpl
	Dispatcher  *settlement.Dispatcher

	closers []func()
}

func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	if err := c.openRepositories(ctx); err != nil {
		c.Close()
		return nil, err
	}

	locker, err := c.newLocker(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Settings = settingsService.NewStore(c.Repos.Settings, logger)
	if _, err := c.Settings.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	c.Employee = employeeService.NewEmployeeService(c.Repos.Employee)
	c.Overtime = overtimeService.NewOvertimeService(c.Repos.Tx, c.Settings, c.Repos.Overtime, c.Repos.Employee, locker,
		overtimeService.WithMetrics(c.Metrics),
		overtimeService.WithLogger(logger),
	)
	c.Leave = leaveService.NewLeaveService(c.Repos.Tx, c.Settings, c.Repos.Leave, c.Repos.LeaveCredit, c.Repos.Employee, locker, c.Metrics, logger)
	c.CashAdvance = cashAdvanceService.NewCashAdvanceService(c.Repos.Tx, c.Repos.CashAdvance, c.Repos.Employee, logger)
	c.Payroll = payrollService.NewPayrollService(c.Repos.Tx, c.Settings, c.Repos.Payroll, c.Repos.Employee,
		c.Repos.Attendance, c.Repos.Overtime, c.Repos.CashAdvance,
		payrollService.WithConcurrency(cfg.Payroll.DraftConcurrency),
		payrollService.WithMetrics(c.Metrics),
		payrollService.WithLogger(logger),
	)
	c.Dispatcher = settlement.NewDispatcher(c.Repos.Outbox, c.Overtime, c.Leave, c.Metrics, logger)

	var publisher attendance.Publisher = c.Dispatcher
	if cfg.Queue.Enabled {
		client := queue.NewClient(c.RedisClientOpt())
		c.closers = append(c.closers, func() { _ = client.Close() })
		publisher = settlement.NewQueuePublisher(client, cfg.Queue.MaxRetry)
	}
	c.Attendance = attendanceService.NewAttendanceService(c.Repos.Tx, c.Settings, c.Repos.Attendance, c.Repos.Outbox,
		c.Repos.Employee, locker, publisher, c.Metrics, logger)

	return c, nil
}

func (c *Container) openRepositories(ctx context.Context) error {
	switch c.Config.Database.Driver {
	case config.StorageMemory:
		store := memory.NewStore()
		c.Repos = Repositories{
			Tx:          store,
			Employee:    memory.NewEmployeeRepository(store),
			Attendance:  memory.NewAttendanceRepository(store),
			Outbox:      memory.NewOutboxRepository(store),
			Overtime:    memory.NewOvertimeRepository(store),
			Leave:       memory.NewLeaveRequestRepository(store),
			LeaveCredit: memory.NewLeaveCreditRepository(store),
			CashAdvance: memory.NewCashAdvanceRepository(store),
			Payroll:     memory.NewPayrollRepository(store),
			Settings:    memory.NewSettingsRepository(store),
		}
		c.Logger.Warn("Using in-memory storage, data is lost on restart")
		return nil
	default:
		db, err := database.NewPostgreSQLDB(ctx, c.Config.DatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.closers = append(c.closers, db.Close)
		if c.Config.Database.Migrate {
			if err := postgresql.Migrate(ctx, db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		c.Repos = Repositories{
			Tx:          postgresql.NewTransactor(db),
			Employee:    postgresql.NewEmployeeRepository(db),
			Attendance:  postgresql.NewAttendanceRepository(db),
			Outbox:      postgresql.NewOutboxRepository(db),
			Overtime:    postgresql.NewOvertimeRepository(db),
			Leave:       postgresql.NewLeaveRequestRepository(db),
			LeaveCredit: postgresql.NewLeaveCreditRepository(db),
			CashAdvance: postgresql.NewCashAdvanceRepository(db),
			Payroll:     postgresql.NewPayrollRepository(db),
			Settings:    postgresql.NewSettingsRepository(db),
		}
		return nil
	}
}

// newLocker returns the Redis lock when Redis is configured so that every instance serializes on the same keys.
func (c *Container) newLocker(ctx context.Context) (lock.Locker, error) {
	if c.Config.Redis.Addr == "" {
		return lock.NewLocal(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	c.closers = append(c.closers, func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return lock.NewRedis(client, lock.RedisOptions{
		TTL:     c.Config.Redis.LockTTL,
		MaxWait: c.Config.Redis.LockWait,
	}), nil
}

func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// NewScheduler registers the settlement maintenance jobs.
func (c *Container) NewScheduler() *cron.Scheduler {
	s := cron.NewScheduler(c.Metrics, c.Logger)
	jobs := cron.NewSettlementJobs(
		cron.SettlementJobsConfig{
			ReplayInterval:      c.Config.Settlement.ReplayInterval,
			ReplayMinAge:        c.Config.Settlement.ReplayMinAge,
			ReplayBatchSize:     c.Config.Settlement.ReplayBatchSize,
			ActionRequiredAfter: c.Config.Settlement.ActionRequiredAfter,
			MarkAbsentInterval:  c.Config.Settlement.MarkAbsentInterval,
			SettingsRefresh:     c.Config.Settlement.SettingsRefresh,
		},
		c.Dispatcher,
		c.Attendance,
		c.Settings,
		c.Settings,
		c.Overtime,
		c.Leave,
		c.Repos.Employee,
		c.Repos.Attendance,
		c.Repos.Leave,
		c.Logger,
	)
	jobs.RegisterJobs(s)
	return s
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
