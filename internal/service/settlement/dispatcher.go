// Package settlement delivers committed attendance events to the overtime and leave settlers.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/overtime"
	"github.com/cmlabs-hris/payroll-engine/internal/observability"
)

// OvertimeSettler is driven by clock-out events.
type OvertimeSettler interface {
	OnClockOut(ctx context.Context, employeeID string, ts time.Time) (overtime.Outcome, error)
}

// LeaveSettler is driven by clock-in events.
type LeaveSettler interface {
	OnClockIn(ctx context.Context, employeeID string, ts time.Time) (leave.Outcome, error)
}

// Dispatcher runs the settler matching an event and records the result in the outbox.
// Delivery is at least once; the settlers make repeated deliveries no-ops.
type Dispatcher struct {
	outbox   attendance.OutboxRepository
	overtime OvertimeSettler
	leave    LeaveSettler
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcher(outbox attendance.OutboxRepository, overtimeSettler OvertimeSettler, leaveSettler LeaveSettler, metrics *observability.Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		outbox:   outbox,
		overtime: overtimeSettler,
		leave:    leaveSettler,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

var _ attendance.Publisher = (*Dispatcher)(nil)

// Publish settles the event in process.
func (d *Dispatcher) Publish(ctx context.Context, event attendance.Event) error {
	return d.Handle(ctx, event)
}

// Handle runs the settler for one event. A failure is stored on the outbox row and returned so the caller can retry.
func (d *Dispatcher) Handle(ctx context.Context, event attendance.Event) error {
	outcome, err := d.settle(ctx, event)
	if err != nil {
		if markErr := d.outbox.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			d.logger.Error("Failed to record settlement failure", "event_id", event.ID, "error", markErr)
		}
		d.logger.Warn("Settlement failed",
			"event_id", event.ID, "type", event.Type, "employee_id", event.EmployeeID, "attempt", event.Attempts+1, "error", err)
		return err
	}

	if err := d.outbox.MarkProcessed(ctx, event.ID, d.now().UTC()); err != nil {
		return fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
	}
	d.logger.Debug("Settlement event processed",
		"event_id", event.ID, "type", event.Type, "employee_id", event.EmployeeID, "outcome", outcome)
	return nil
}

func (d *Dispatcher) settle(ctx context.Context, event attendance.Event) (string, error) {
	switch event.Type {
	case attendance.EventClockedOut:
		outcome, err := d.overtime.OnClockOut(ctx, event.EmployeeID, event.OccurredAt)
		return string(outcome), err
	case attendance.EventClockedIn:
		outcome, err := d.leave.OnClockIn(ctx, event.EmployeeID, event.OccurredAt)
		return string(outcome), err
	default:
		return "", fmt.Errorf("unknown attendance event type %q", event.Type)
	}
}

// HandleByID loads an event from the outbox and handles it unless it was already processed.
func (d *Dispatcher) HandleByID(ctx context.Context, eventID string) error {
	event, err := d.outbox.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.ProcessedAt != nil {
		return nil
	}
	return d.Handle(ctx, event)
}

// Replay handles unprocessed events older than minAge, oldest first, and returns how many succeeded.
// A failing event does not stop the replay.
func (d *Dispatcher) Replay(ctx context.Context, minAge time.Duration, limit int) (int, error) {
	events, err := d.outbox.ListUnprocessed(ctx, d.now().UTC().Add(-minAge), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unprocessed events: %w", err)
	}

	processed := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		err := d.Handle(ctx, event)
		d.metrics.OutboxReplay(err)
		if err == nil {
			processed++
		}
	}
	if len(events) > 0 {
		d.logger.Info("Outbox replay finished", "pending", len(events), "processed", processed)
	}
	return processed, nil
}
