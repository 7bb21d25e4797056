package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
)

type leaveRequestRepository struct {
	s *Store
}

func NewLeaveRequestRepository(s *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepository{s: s}
}

func (r *leaveRequestRepository) activeConflict(req leave.Request) bool {
	if !req.IsActive {
		return false
	}
	for _, other := range r.s.leaves {
		if other.ID != req.ID && other.IsActive && other.EmployeeID == req.EmployeeID {
			return true
		}
	}
	return false
}

func (r *leaveRequestRepository) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	defer r.s.lock(ctx)()
	if r.activeConflict(req) {
		return leave.Request{}, leave.ErrDuplicateActiveRequest
	}
	if req.ID == "" {
		req.ID = newID()
	}
	now := r.s.now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now
	r.s.leaves[req.ID] = req
	return req, nil
}

func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.Request, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.leaves[id]
	if !ok {
		return leave.Request{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (r *leaveRequestRepository) GetActive(ctx context.Context, employeeID string) (leave.Request, error) {
	defer r.s.lock(ctx)()
	for _, req := range r.s.leaves {
		if req.IsActive && req.EmployeeID == employeeID {
			return req, nil
		}
	}
	return leave.Request{}, leave.ErrLeaveRequestNotFound
}

func (r *leaveRequestRepository) HasSettledOn(ctx context.Context, employeeID string, endDate time.Time) (bool, error) {
	defer r.s.lock(ctx)()
	for _, req := range r.s.leaves {
		if req.EmployeeID == employeeID && req.TotalDays != nil && req.EndDate != nil && sameDay(*req.EndDate, endDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *leaveRequestRepository) UpdateReview(ctx context.Context, req leave.Request) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.leaves[req.ID]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	if stored.Status != leave.StatusPending {
		return leave.ErrNotPending
	}
	if r.activeConflict(req) {
		return leave.ErrDuplicateActiveRequest
	}
	stored.Status = req.Status
	stored.IsActive = req.IsActive
	stored.ReviewedBy = req.ReviewedBy
	stored.ReviewNotes = req.ReviewNotes
	stored.ReviewedAt = req.ReviewedAt
	stored.UpdatedAt = r.s.now().UTC()
	r.s.leaves[req.ID] = stored
	return nil
}

func (r *leaveRequestRepository) Complete(ctx context.Context, req leave.Request) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.leaves[req.ID]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	if !stored.IsActive || stored.TotalDays != nil {
		return leave.ErrAlreadySettled
	}
	stored.EndDate = req.EndDate
	stored.TotalDays = req.TotalDays
	stored.IsActive = false
	stored.NeedsReview = false
	stored.CompletedBy = req.CompletedBy
	stored.CompletedAt = req.CompletedAt
	stored.UpdatedAt = r.s.now().UTC()
	r.s.leaves[req.ID] = stored
	return nil
}

func (r *leaveRequestRepository) Flag(ctx context.Context, id string, flag string) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.leaves[id]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	stored.NeedsReview = true
	stored.ReviewFlag = &flag
	stored.UpdatedAt = r.s.now().UTC()
	r.s.leaves[id] = stored
	return nil
}

func sortLeaves(out []leave.Request) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
}

func (r *leaveRequestRepository) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.Request, error) {
	defer r.s.lock(ctx)()
	out := make([]leave.Request, 0)
	for _, req := range r.s.leaves {
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.LeaveType != nil && req.LeaveType != *filter.LeaveType {
			continue
		}
		out = append(out, req)
	}
	sortLeaves(out)
	return out, nil
}

func (r *leaveRequestRepository) ListActionRequired(ctx context.Context, startedBefore time.Time) ([]leave.Request, error) {
	defer r.s.lock(ctx)()
	out := make([]leave.Request, 0)
	for _, req := range r.s.leaves {
		if !req.IsActive {
			continue
		}
		if req.NeedsReview || req.StartDate.Before(startedBefore) {
			out = append(out, req)
		}
	}
	sortLeaves(out)
	return out, nil
}

func (r *leaveRequestRepository) SettledDays(ctx context.Context, employeeID string, start, end time.Time) (map[leave.Type]int, error) {
	defer r.s.lock(ctx)()
	out := make(map[leave.Type]int)
	for _, req := range r.s.leaves {
		if req.EmployeeID != employeeID || req.Status != leave.StatusApproved || req.TotalDays == nil {
			continue
		}
		if !inRange(req.StartDate, start, end) {
			continue
		}
		out[req.LeaveType] += *req.TotalDays
	}
	return out, nil
}

type leaveCreditRepository struct {
	s *Store
}

func NewLeaveCreditRepository(s *Store) leave.LeaveCreditRepository {
	return &leaveCreditRepository{s: s}
}

func creditKey(employeeID string, t leave.Type) string {
	return employeeID + "|" + string(t)
}

func (r *leaveCreditRepository) ListByEmployee(ctx context.Context, employeeID string) ([]leave.Credit, error) {
	defer r.s.lock(ctx)()
	out := make([]leave.Credit, 0)
	for _, c := range r.s.credits {
		if c.EmployeeID == employeeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveType < out[j].LeaveType })
	return out, nil
}

func (r *leaveCreditRepository) Upsert(ctx context.Context, credit leave.Credit) (leave.Credit, error) {
	defer r.s.lock(ctx)()
	r.s.credits[creditKey(credit.EmployeeID, credit.LeaveType)] = credit
	return credit, nil
}

func (r *leaveCreditRepository) DeleteByEmployee(ctx context.Context, employeeID string) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for k, c := range r.s.credits {
		if c.EmployeeID == employeeID {
			delete(r.s.credits, k)
			n++
		}
	}
	return n, nil
}
