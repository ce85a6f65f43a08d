package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookwell/models"
	"bookwell/services/booking"
	"bookwell/services/events"
	"bookwell/services/notification"
	"bookwell/services/payment"
	"bookwell/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingSignals is the part of the booking engine the worker reports back to.
type BookingSignals interface {
	Get(ctx context.Context, publicID string) (*models.Booking, error)
	RecordPayment(ctx context.Context, publicID string, status models.PaymentStatus, paymentRef string) (*models.Booking, error)
	RecordRefund(ctx context.Context, publicID string) (*models.Booking, error)
}

// OutboxWorker executes the side effects enqueued by the booking engine.
type OutboxWorker struct {
	Notifier notification.NotificationService
	Payments payment.Gateway
	Events   events.Publisher
	Bookings BookingSignals
	Logger   *zap.Logger
}

// Register binds a handler for every outbox task type.
func (w *OutboxWorker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeNotificationSend, w.handleNotification)
	mux.HandleFunc(tasks.TypeBookingReminder, w.handleReminder)
	mux.HandleFunc(tasks.TypePaymentAttach, w.handlePaymentAttach)
	mux.HandleFunc(tasks.TypePaymentRefund, w.handlePaymentRefund)
	mux.HandleFunc(tasks.TypeBookingEvent, w.handleEvent)
}

func decode(task *asynq.Task, v any) error {
	if err := json.Unmarshal(task.Payload(), v); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return nil
}

// permanent stops retries for engine errors that a retry cannot fix.
func permanent(err error) error {
	if be, ok := booking.AsError(err); ok && be.Kind != booking.KindDependency {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func (w *OutboxWorker) handleNotification(ctx context.Context, task *asynq.Task) error {
	var n models.NotificationIntent
	if err := decode(task, &n); err != nil {
		return err
	}
	if err := w.Notifier.Send(ctx, n); err != nil {
		w.Logger.Warn("notification delivery failed",
			zap.String("recipientID", n.RecipientID),
			zap.String("type", n.Type),
			zap.Error(err))
		return err
	}
	return nil
}

func (w *OutboxWorker) handleReminder(ctx context.Context, task *asynq.Task) error {
	var r models.Reminder
	if err := decode(task, &r); err != nil {
		return err
	}
	b, err := w.Bookings.Get(ctx, r.Notification.BookingID)
	if err != nil {
		return permanent(err)
	}
	if b.Status != models.StatusConfirmed {
		w.Logger.Debug("reminder dropped",
			zap.String("bookingID", b.PublicID),
			zap.String("status", string(b.Status)))
		return nil
	}
	return w.Notifier.Send(ctx, r.Notification)
}

func (w *OutboxWorker) handlePaymentAttach(ctx context.Context, task *asynq.Task) error {
	var req models.PaymentRequest
	if err := decode(task, &req); err != nil {
		return err
	}
	ref, err := w.Payments.Attach(ctx, req)
	if err != nil {
		w.Logger.Error("payment attach failed", zap.String("bookingID", req.BookingID), zap.Error(err))
		return err
	}
	if ref == "" {
		return nil
	}
	if _, err := w.Bookings.RecordPayment(ctx, req.BookingID, models.PaymentPending, ref); err != nil {
		return permanent(err)
	}
	return nil
}

func (w *OutboxWorker) handlePaymentRefund(ctx context.Context, task *asynq.Task) error {
	var req models.PaymentRequest
	if err := decode(task, &req); err != nil {
		return err
	}
	settled, err := w.Payments.Refund(ctx, req)
	if err != nil {
		if req.PaymentRef == "" {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		w.Logger.Error("refund failed", zap.String("bookingID", req.BookingID), zap.Error(err))
		return err
	}
	if !settled {
		// charge.refunded arrives through the webhook.
		return nil
	}
	if _, err := w.Bookings.RecordRefund(ctx, req.BookingID); err != nil {
		return permanent(err)
	}
	return nil
}

func (w *OutboxWorker) handleEvent(ctx context.Context, task *asynq.Task) error {
	var e models.BookingEvent
	if err := decode(task, &e); err != nil {
		return err
	}
	if err := w.Events.Publish(ctx, e); err != nil {
		w.Logger.Warn("event publish failed", zap.String("type", e.Type), zap.Error(err))
		return err
	}
	return nil
}

// InitOutboxWorker starts the task server in the background. The returned
// server must be shut down on exit.
func InitOutboxWorker(redisOpt asynq.RedisConnOpt, w *OutboxWorker) *asynq.Server {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
			},
			Logger:   w.Logger.Sugar(),
			LogLevel: asynq.WarnLevel,
		},
	)

	mux := asynq.NewServeMux()
	w.Register(mux)

	// Start async worker with retry logic
	go func() {
		w.Logger.Info("Starting outbox worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			w.Logger.Error("Failed to start outbox worker",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				w.Logger.Fatal("Max retry attempts reached for outbox worker")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}
