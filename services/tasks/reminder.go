package tasks

import (
	"encoding/json"
	"time"

	"bookwell/models"

	"github.com/hibiken/asynq"
)

const TypeBookingReminder = "booking:reminder"

// NewReminderTask schedules a reminder for delivery at its fire time.
func NewReminderTask(r models.Reminder) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingReminder, b)
	opts := []asynq.Option{
		asynq.ProcessAt(r.FireAt),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(24 * time.Hour),
	}
	if r.Notification.ID != "" {
		opts = append(opts, asynq.TaskID(TypeBookingReminder+":"+r.Notification.ID))
	}
	return task, opts, nil
}
