package tasks

import (
	"encoding/json"
	"fmt"

	"bookwell/models"

	"github.com/hibiken/asynq"
)

// Outbox task types.
const (
	TypeNotificationSend = "notification:send"
	TypePaymentAttach    = "payment:attach"
	TypePaymentRefund    = "payment:refund"
	TypeBookingEvent     = "booking:event"
)

const maxRetry = 5

func newTask(typ string, payload any, opts ...asynq.Option) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s payload: %w", typ, err)
	}
	return asynq.NewTask(typ, b), append([]asynq.Option{asynq.MaxRetry(maxRetry)}, opts...), nil
}

// NewNotificationTask wraps a notification intent.
func NewNotificationTask(n models.NotificationIntent) (*asynq.Task, []asynq.Option, error) {
	var opts []asynq.Option
	if n.ID != "" {
		opts = append(opts, asynq.TaskID(TypeNotificationSend+":"+n.ID))
	}
	return newTask(TypeNotificationSend, n, opts...)
}

// NewPaymentTask wraps a payment collaborator request. At most one attach
// and one refund task exist per booking.
func NewPaymentTask(p models.PaymentRequest) (*asynq.Task, []asynq.Option, error) {
	typ := TypePaymentAttach
	if p.Kind == models.PaymentRefund {
		typ = TypePaymentRefund
	}
	return newTask(typ, p, asynq.TaskID(typ+":"+p.BookingID), asynq.Queue(QueueCritical))
}

// NewEventTask wraps a lifecycle event.
func NewEventTask(e models.BookingEvent) (*asynq.Task, []asynq.Option, error) {
	return newTask(TypeBookingEvent, e)
}
