package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/hibiken/asynq"
)

const (
	// QueueSettlement is the asynq queue settlement tasks are enqueued on.
	QueueSettlement = "settlement"
	// TaskSettleEvent is the task type carrying one outbox event.
	TaskSettleEvent = "settlement:event"

	defaultMaxRetry = 10
)

// EventPayload identifies the outbox row to settle. The worker reloads the row so a stale payload cannot resurrect a processed event.
type EventPayload struct {
	EventID    string `json:"event_id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
}

// NewSettleEventTask constructs an asynq task for an outbox event.
func NewSettleEventTask(event attendance.Event) (*asynq.Task, error) {
	data, err := json.Marshal(EventPayload{EventID: event.ID, EmployeeID: event.EmployeeID, Type: string(event.Type)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettleEvent, data), nil
}

// Enqueuer is the subset of *asynq.Client used for publishing.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuePublisher hands committed events to the asynq worker, which retries failed settlements.
type QueuePublisher struct {
	client   Enqueuer
	maxRetry int
}

func NewQueuePublisher(client Enqueuer, maxRetry int) *QueuePublisher {
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	return &QueuePublisher{client: client, maxRetry: maxRetry}
}

var _ attendance.Publisher = (*QueuePublisher)(nil)

func (p *QueuePublisher) Publish(ctx context.Context, event attendance.Event) error {
	task, err := NewSettleEventTask(event)
	if err != nil {
		return fmt.Errorf("failed to build settlement task: %w", err)
	}
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueSettlement),
		asynq.MaxRetry(p.maxRetry),
		asynq.TaskID(event.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue settlement task: %w", err)
	}
	return nil
}

// HandleTask is the asynq handler for TaskSettleEvent. A malformed payload is not retried.
func (d *Dispatcher) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload EventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.EventID == "" {
		return fmt.Errorf("invalid settlement payload: %w", asynq.SkipRetry)
	}
	err := d.HandleByID(ctx, payload.EventID)
	if errors.Is(err, attendance.ErrEventNotFound) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}
