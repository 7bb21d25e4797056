package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/shopspring/decimal"
)

type overtimeRepository struct {
	s *Store
}

func NewOvertimeRepository(s *Store) overtime.OvertimeRepository {
	return &overtimeRepository{s: s}
}

func (r *overtimeRepository) activeConflict(req overtime.Request) bool {
	if !req.IsActive {
		return false
	}
	for _, other := range r.s.overtimes {
		if other.ID != req.ID && other.IsActive && other.EmployeeID == req.EmployeeID && sameDay(other.Date, req.Date) {
			return true
		}
	}
	return false
}

func (r *overtimeRepository) Create(ctx context.Context, req overtime.Request) (overtime.Request, error) {
	defer r.s.lock(ctx)()
	if r.activeConflict(req) {
		return overtime.Request{}, overtime.ErrDuplicateActiveRequest
	}
	if req.ID == "" {
		req.ID = newID()
	}
	now := r.s.now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now
	r.s.overtimes[req.ID] = req
	return req, nil
}

func (r *overtimeRepository) GetByID(ctx context.Context, id string) (overtime.Request, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.overtimes[id]
	if !ok {
		return overtime.Request{}, overtime.ErrRequestNotFound
	}
	return req, nil
}

func (r *overtimeRepository) GetActive(ctx context.Context, employeeID string, date time.Time) (overtime.Request, error) {
	defer r.s.lock(ctx)()
	for _, req := range r.s.overtimes {
		if req.IsActive && req.EmployeeID == employeeID && sameDay(req.Date, date) {
			return req, nil
		}
	}
	return overtime.Request{}, overtime.ErrRequestNotFound
}

func (r *overtimeRepository) HasCompleted(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	defer r.s.lock(ctx)()
	for _, req := range r.s.overtimes {
		if req.IsCompleted() && req.EmployeeID == employeeID && sameDay(req.Date, date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *overtimeRepository) UpdateReview(ctx context.Context, req overtime.Request) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.overtimes[req.ID]
	if !ok {
		return overtime.ErrRequestNotFound
	}
	if stored.Status != overtime.StatusPending {
		return overtime.ErrNotPending
	}
	if r.activeConflict(req) {
		return overtime.ErrDuplicateActiveRequest
	}
	stored.Status = req.Status
	stored.IsActive = req.IsActive
	stored.ReviewedBy = req.ReviewedBy
	stored.ReviewNotes = req.ReviewNotes
	stored.ReviewedAt = req.ReviewedAt
	stored.UpdatedAt = r.s.now().UTC()
	r.s.overtimes[req.ID] = stored
	return nil
}

func (r *overtimeRepository) Complete(ctx context.Context, req overtime.Request) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.overtimes[req.ID]
	if !ok {
		return overtime.ErrRequestNotFound
	}
	if !stored.IsActive || stored.TotalHours != nil {
		return overtime.ErrAlreadySettled
	}
	stored.EndTime = req.EndTime
	stored.TotalHours = req.TotalHours
	stored.OvertimePay = req.OvertimePay
	stored.IsActive = false
	stored.NeedsReview = false
	stored.CompletedBy = req.CompletedBy
	stored.CompletedAt = req.CompletedAt
	stored.UpdatedAt = r.s.now().UTC()
	r.s.overtimes[req.ID] = stored
	return nil
}

func (r *overtimeRepository) Flag(ctx context.Context, id string, flag string) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.overtimes[id]
	if !ok {
		return overtime.ErrRequestNotFound
	}
	stored.NeedsReview = true
	stored.ReviewFlag = &flag
	stored.UpdatedAt = r.s.now().UTC()
	r.s.overtimes[id] = stored
	return nil
}

func sortOvertime(out []overtime.Request) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
}

func (r *overtimeRepository) List(ctx context.Context, filter overtime.OvertimeFilter) ([]overtime.Request, error) {
	defer r.s.lock(ctx)()
	out := make([]overtime.Request, 0)
	for _, req := range r.s.overtimes {
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.StartDate != nil && req.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && req.Date.After(*filter.EndDate) {
			continue
		}
		out = append(out, req)
	}
	sortOvertime(out)
	return out, nil
}

func (r *overtimeRepository) ListActionRequired(ctx context.Context, approvedBefore time.Time) ([]overtime.Request, error) {
	defer r.s.lock(ctx)()
	out := make([]overtime.Request, 0)
	for _, req := range r.s.overtimes {
		if !req.IsActive {
			continue
		}
		stale := req.ReviewedAt != nil && req.ReviewedAt.Before(approvedBefore)
		if req.NeedsReview || stale {
			out = append(out, req)
		}
	}
	sortOvertime(out)
	return out, nil
}

func (r *overtimeRepository) SettledTotals(ctx context.Context, employeeID string, start, end time.Time) (overtime.Totals, error) {
	defer r.s.lock(ctx)()
	totals := overtime.Totals{Hours: decimal.Zero, Pay: decimal.Zero}
	for _, req := range r.s.overtimes {
		if req.EmployeeID != employeeID || !req.IsCompleted() || !inRange(req.Date, start, end) {
			continue
		}
		totals.Hours = totals.Hours.Add(*req.TotalHours)
		if req.OvertimePay != nil {
			totals.Pay = totals.Pay.Add(*req.OvertimePay)
		}
	}
	return totals, nil
}
