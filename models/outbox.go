package models

import "time"

// BookingEvent is published to downstream consumers on every status change.
type BookingEvent struct {
	Type       string        `json:"type"` // booking.<status>
	BookingID  string        `json:"bookingId"`
	Status     BookingStatus `json:"status"`
	CustomerID string        `json:"customerId"`
	ProviderID string        `json:"providerId"`
	ShopID     string        `json:"shopId,omitempty"`
	Date       string        `json:"date"`
	Hour       int           `json:"hour"`
	Minute     int           `json:"minute"`
	At         time.Time     `json:"at"`
}

// Reminder is a notification delivered at FireAt if the booking is still
// confirmed by then.
type Reminder struct {
	Notification NotificationIntent `json:"notification"`
	FireAt       time.Time          `json:"fireAt"`
}

// Outbox collects the side effects of one unit of work. It is drained only
// after the unit commits.
type Outbox struct {
	Notifications []NotificationIntent
	Payments      []PaymentRequest
	Events        []BookingEvent
	Reminders     []Reminder
}

// Empty reports whether there is nothing to dispatch.
func (o *Outbox) Empty() bool {
	return o == nil || (len(o.Notifications) == 0 && len(o.Payments) == 0 &&
		len(o.Events) == 0 && len(o.Reminders) == 0)
}

// Notify appends a notification intent about booking b.
func (o *Outbox) Notify(recipientID string, role RecipientRole, kind, title, body string, b *Booking) {
	if recipientID == "" {
		return
	}
	o.Notifications = append(o.Notifications, NotificationIntent{
		RecipientID: recipientID,
		Role:        role,
		Type:        kind,
		Title:       title,
		Body:        body,
		BookingID:   b.PublicID,
	})
}

// Remind schedules a notification about booking b for later delivery.
func (o *Outbox) Remind(recipientID string, role RecipientRole, kind, title, body string, b *Booking, at time.Time) {
	if recipientID == "" {
		return
	}
	o.Reminders = append(o.Reminders, Reminder{
		Notification: NotificationIntent{
			RecipientID: recipientID,
			Role:        role,
			Type:        kind,
			Title:       title,
			Body:        body,
			BookingID:   b.PublicID,
		},
		FireAt: at,
	})
}

// RequestPayment appends a payment collaborator request.
func (o *Outbox) RequestPayment(req PaymentRequest) {
	o.Payments = append(o.Payments, req)
}

// Record appends a lifecycle event reflecting b's current status.
func (o *Outbox) Record(b *Booking, at time.Time) {
	o.Events = append(o.Events, BookingEvent{
		Type:       "booking." + string(b.Status),
		BookingID:  b.PublicID,
		Status:     b.Status,
		CustomerID: b.CustomerID,
		ProviderID: b.ProviderID,
		ShopID:     b.ShopID,
		Date:       b.Date,
		Hour:       b.Hour,
		Minute:     b.Minute,
		At:         at,
	})
}
