package tasks

import (
	"context"
	"errors"

	"bookwell/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Queue names served by the outbox worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// Enqueuer is the subset of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqDispatcher turns a committed outbox into background tasks. It never
// fails its caller: enqueue errors are logged.
type AsynqDispatcher struct {
	Client Enqueuer
	Logger *zap.Logger
}

func NewAsynqDispatcher(client Enqueuer, logger *zap.Logger) *AsynqDispatcher {
	return &AsynqDispatcher{Client: client, Logger: logger}
}

// Dispatch enqueues one task per side effect.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, outbox models.Outbox) {
	for _, n := range outbox.Notifications {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		d.enqueue(ctx, n.BookingID, func() (*asynq.Task, []asynq.Option, error) { return NewNotificationTask(n) })
	}
	for _, p := range outbox.Payments {
		d.enqueue(ctx, p.BookingID, func() (*asynq.Task, []asynq.Option, error) { return NewPaymentTask(p) })
	}
	for _, e := range outbox.Events {
		d.enqueue(ctx, e.BookingID, func() (*asynq.Task, []asynq.Option, error) { return NewEventTask(e) })
	}
	for _, r := range outbox.Reminders {
		if r.Notification.ID == "" {
			r.Notification.ID = uuid.New().String()
		}
		d.enqueue(ctx, r.Notification.BookingID, func() (*asynq.Task, []asynq.Option, error) { return NewReminderTask(r) })
	}
}

func (d *AsynqDispatcher) enqueue(ctx context.Context, bookingID string, build func() (*asynq.Task, []asynq.Option, error)) {
	log := d.logger()
	task, opts, err := build()
	if err != nil {
		log.Error("failed to build outbox task", zap.String("bookingID", bookingID), zap.Error(err))
		return
	}
	info, err := d.Client.EnqueueContext(ctx, task, opts...)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict), errors.Is(err, asynq.ErrDuplicateTask):
		log.Debug("outbox task already queued", zap.String("type", task.Type()), zap.String("bookingID", bookingID))
	case err != nil:
		log.Error("failed to enqueue outbox task",
			zap.String("type", task.Type()),
			zap.String("bookingID", bookingID),
			zap.Error(err))
	default:
		log.Debug("outbox task enqueued",
			zap.String("type", task.Type()),
			zap.String("taskID", info.ID),
			zap.String("queue", info.Queue))
	}
}

func (d *AsynqDispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
