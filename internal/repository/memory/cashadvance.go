package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashadvance"
	"github.com/shopspring/decimal"
)

type cashAdvanceRepository struct {
	s *Store
}

func NewCashAdvanceRepository(s *Store) cashadvance.CashAdvanceRepository {
	return &cashAdvanceRepository{s: s}
}

func (r *cashAdvanceRepository) Create(ctx context.Context, req cashadvance.Request) (cashadvance.Request, error) {
	defer r.s.lock(ctx)()
	if req.ID == "" {
		req.ID = newID()
	}
	now := r.s.now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now
	r.s.advances[req.ID] = req
	return req, nil
}

func (r *cashAdvanceRepository) GetByID(ctx context.Context, id string) (cashadvance.Request, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.advances[id]
	if !ok {
		return cashadvance.Request{}, cashadvance.ErrRequestNotFound
	}
	return req, nil
}

func (r *cashAdvanceRepository) Update(ctx context.Context, req cashadvance.Request) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.advances[req.ID]; !ok {
		return cashadvance.ErrRequestNotFound
	}
	req.UpdatedAt = r.s.now().UTC()
	r.s.advances[req.ID] = req
	return nil
}

func (r *cashAdvanceRepository) List(ctx context.Context, filter cashadvance.CashAdvanceFilter) ([]cashadvance.Request, error) {
	defer r.s.lock(ctx)()
	out := make([]cashadvance.Request, 0)
	for _, req := range r.s.advances {
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *cashAdvanceRepository) EligibleTotal(ctx context.Context, employeeID string, start, end time.Time) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()
	total := decimal.Zero
	for _, req := range r.s.advances {
		if req.EmployeeID == employeeID && req.Eligible(start, end) {
			total = total.Add(req.Amount)
		}
	}
	return total, nil
}
