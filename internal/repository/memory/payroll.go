package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

type payrollRepository struct {
	s *Store
}

func NewPayrollRepository(s *Store) payroll.PayrollRepository {
	return &payrollRepository{s: s}
}

func (r *payrollRepository) find(key string, status payroll.PayrollStatus) (payroll.PayrollLine, bool) {
	for _, l := range r.s.lines {
		if l.Status == status && l.Key() == key {
			return l, true
		}
	}
	return payroll.PayrollLine{}, false
}

func (r *payrollRepository) SaveDraft(ctx context.Context, line payroll.PayrollLine) (payroll.PayrollLine, error) {
	defer r.s.lock(ctx)()
	now := r.s.now().UTC()
	line.Status = payroll.PayrollStatusDraft
	if existing, ok := r.find(line.Key(), payroll.PayrollStatusDraft); ok {
		delete(r.s.lines, existing.ID)
		if line.ID == "" {
			line.ID = existing.ID
		}
		line.CreatedAt = existing.CreatedAt
	} else {
		line.CreatedAt = now
	}
	if line.ID == "" {
		line.ID = newID()
	}
	line.UpdatedAt = now
	r.s.lines[line.ID] = line
	return line, nil
}

func (r *payrollRepository) InsertFinalized(ctx context.Context, line payroll.PayrollLine) (payroll.PayrollLine, error) {
	defer r.s.lock(ctx)()
	if _, ok := r.find(line.Key(), payroll.PayrollStatusFinalized); ok {
		return payroll.PayrollLine{}, payroll.ErrDuplicatePeriod
	}
	if line.ID == "" {
		line.ID = newID()
	}
	if existing, ok := r.s.lines[line.ID]; ok && existing.Status == payroll.PayrollStatusFinalized {
		return payroll.PayrollLine{}, payroll.ErrFinalizedImmutable
	}
	now := r.s.now().UTC()
	line.Status = payroll.PayrollStatusFinalized
	line.CreatedAt, line.UpdatedAt = now, now
	r.s.lines[line.ID] = line
	return line, nil
}

func (r *payrollRepository) DeleteDrafts(ctx context.Context, employeeID string, start, end time.Time) error {
	defer r.s.lock(ctx)()
	for id, l := range r.s.lines {
		if l.Status == payroll.PayrollStatusDraft && l.EmployeeID == employeeID && l.PeriodStart.Equal(start) && l.PeriodEnd.Equal(end) {
			delete(r.s.lines, id)
		}
	}
	return nil
}

func (r *payrollRepository) ExistsFinalized(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	defer r.s.lock(ctx)()
	key := payroll.PayrollLine{EmployeeID: employeeID, PeriodStart: start, PeriodEnd: end}.Key()
	_, ok := r.find(key, payroll.PayrollStatusFinalized)
	return ok, nil
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollLine, error) {
	defer r.s.lock(ctx)()
	l, ok := r.s.lines[id]
	if !ok {
		return payroll.PayrollLine{}, payroll.ErrPayrollLineNotFound
	}
	return l, nil
}

func (r *payrollRepository) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollLine, error) {
	defer r.s.lock(ctx)()
	out := make([]payroll.PayrollLine, 0)
	for _, l := range r.s.lines {
		if filter.EmployeeID != nil && l.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.PeriodStart != nil && !l.PeriodStart.Equal(*filter.PeriodStart) {
			continue
		}
		if filter.PeriodEnd != nil && !l.PeriodEnd.Equal(*filter.PeriodEnd) {
			continue
		}
		if filter.BatchID != nil && (l.BatchID == nil || *l.BatchID != *filter.BatchID) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodStart.Equal(out[j].PeriodStart) {
			return out[i].PeriodStart.Before(out[j].PeriodStart)
		}
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func (r *payrollRepository) DeleteDraft(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	l, ok := r.s.lines[id]
	if !ok {
		return payroll.ErrPayrollLineNotFound
	}
	if l.Status == payroll.PayrollStatusFinalized {
		return payroll.ErrFinalizedImmutable
	}
	delete(r.s.lines, id)
	return nil
}
