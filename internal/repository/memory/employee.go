package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.employees {
		if existing.EmployeeCode == e.EmployeeCode {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	now := r.s.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.employees[e.ID] = e
	return e, nil
}

func (r *employeeRepository) UpdateSalary(ctx context.Context, id string, basicSalary decimal.Decimal, hourlyRate *decimal.Decimal) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.BasicSalary = basicSalary
	e.HourlyRate = hourlyRate
	e.UpdatedAt = r.s.now().UTC()
	r.s.employees[id] = e
	return nil
}

func (r *employeeRepository) UpdateStatus(ctx context.Context, id string, status employee.EmploymentStatus) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.EmploymentStatus = status
	e.UpdatedAt = r.s.now().UTC()
	r.s.employees[id] = e
	return nil
}

func (r *employeeRepository) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, error) {
	defer r.s.lock(ctx)()
	out := make([]employee.Employee, 0)
	for _, e := range r.s.employees {
		if filter.Department != nil && e.Department != *filter.Department {
			continue
		}
		if filter.Status != nil && e.EmploymentStatus != *filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

func (r *employeeRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	defer r.s.lock(ctx)()
	active := make([]employee.Employee, 0)
	for _, e := range r.s.employees {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].EmployeeCode < active[j].EmployeeCode })
	ids := make([]string, len(active))
	for i, e := range active {
		ids[i] = e.ID
	}
	return ids, nil
}
