package models

import "time"

// RecipientRole says which profile store a notification recipient lives in.
type RecipientRole string

const (
	RecipientCustomer  RecipientRole = "customer"
	RecipientProvider  RecipientRole = "provider"
	RecipientShopOwner RecipientRole = "shopOwner"
)

// NotificationIntent is a request to deliver a titled message to a user.
type NotificationIntent struct {
	ID          string        `json:"id,omitempty"` // Assigned on dispatch, reused on retries
	RecipientID string        `json:"recipientId"`
	Role        RecipientRole `json:"role"`
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	BookingID   string        `json:"bookingId"`
}

// Notification is the persisted in-app copy of a delivered intent.
type Notification struct {
	ID          string         `bson:"id" json:"id"`
	RecipientID string         `bson:"recipientId" json:"recipientId"`
	Role        RecipientRole  `bson:"role" json:"role"`
	Type        string         `bson:"type" json:"type"`
	Title       string         `bson:"title" json:"title"`
	Body        string         `bson:"body" json:"body"`
	Data        map[string]any `bson:"data,omitempty" json:"data,omitempty"`
	Sent        bool           `bson:"sent" json:"sent"`
	Read        bool           `bson:"read" json:"read"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
}
