// Package memory implements every repository on in-process maps. Transactions take the store
// lock for their whole duration and restore a snapshot when fn fails.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/settings"
	"github.com/google/uuid"
)

type txKey struct{}

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	employees map[string]employee.Employee
	records   map[string]attendance.Record
	events    map[string]attendance.Event
	overtimes map[string]overtime.Request
	leaves    map[string]leave.Request
	credits   map[string]leave.Credit
	advances  map[string]cashadvance.Request
	lines     map[string]payroll.PayrollLine
	settings  *settings.Settings
}

func NewStore() *Store {
	return &Store{
		now:       time.Now,
		employees: make(map[string]employee.Employee),
		records:   make(map[string]attendance.Record),
		events:    make(map[string]attendance.Event),
		overtimes: make(map[string]overtime.Request),
		leaves:    make(map[string]leave.Request),
		credits:   make(map[string]leave.Credit),
		advances:  make(map[string]cashadvance.Request),
		lines:     make(map[string]payroll.PayrollLine),
	}
}

// SetClock overrides the timestamp source used for CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

type snapshot struct {
	employees map[string]employee.Employee
	records   map[string]attendance.Record
	events    map[string]attendance.Event
	overtimes map[string]overtime.Request
	leaves    map[string]leave.Request
	credits   map[string]leave.Credit
	advances  map[string]cashadvance.Request
	lines     map[string]payroll.PayrollLine
	settings  *settings.Settings
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		employees: maps.Clone(s.employees),
		records:   maps.Clone(s.records),
		events:    maps.Clone(s.events),
		overtimes: maps.Clone(s.overtimes),
		leaves:    maps.Clone(s.leaves),
		credits:   maps.Clone(s.credits),
		advances:  maps.Clone(s.advances),
		lines:     maps.Clone(s.lines),
		settings:  s.settings,
	}
}

func (s *Store) restore(snap snapshot) {
	s.employees = snap.employees
	s.records = snap.records
	s.events = snap.events
	s.overtimes = snap.overtimes
	s.leaves = snap.leaves
	s.credits = snap.credits
	s.advances = snap.advances
	s.lines = snap.lines
	s.settings = snap.settings
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock takes the store mutex unless ctx already runs inside a transaction holding it.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func inRange(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

func sameDay(a, b time.Time) bool {
	return a.Equal(b)
}
