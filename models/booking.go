package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending            BookingStatus = "pending"
	StatusAssigned           BookingStatus = "assigned"
	StatusReassigned         BookingStatus = "reassigned"
	StatusRescheduled        BookingStatus = "rescheduled"
	StatusConfirmed          BookingStatus = "confirmed"
	StatusCompleted          BookingStatus = "completed"
	StatusCancelled          BookingStatus = "cancelled"
	StatusNoShow             BookingStatus = "noShow"
	StatusRejected           BookingStatus = "rejected"
	StatusFreelancerRejected BookingStatus = "freelancer_rejected"
	StatusRejectedBarber     BookingStatus = "rejected_barber"
	StatusShopOwnerRejected  BookingStatus = "shop_owner_rejected"
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusAssigned,
	StatusConfirmed,
	StatusReassigned,
	StatusRescheduled,
}

// IsActive reports whether bookings in this status hold their slot.
func (s BookingStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// ServiceMode says where a service is delivered.
type ServiceMode string

const (
	ModeShop ServiceMode = "shop"
	ModeHome ServiceMode = "home"
	ModeBoth ServiceMode = "both"
)

// PaymentStatus mirrors the payment collaborator's view of a booking's charge.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Address is the customer location for home visits.
type Address struct {
	Coordinates GeoPoint `bson:"coordinates" json:"coordinates"`
	Formatted   string   `bson:"formatted" json:"formatted"`
}

// Booking is the central record of the booking engine.
type Booking struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"-"` // Storage key
	PublicID string             `bson:"publicId" json:"id"`     // Generated public identifier

	CustomerID     string       `bson:"customerId" json:"customerId"`
	CustomerName   string       `bson:"customerName" json:"customerName"`
	ProviderID     string       `bson:"providerId" json:"providerId"`
	ProviderName   string       `bson:"providerName" json:"providerName"`
	ProviderKind   ProviderKind `bson:"providerKind" json:"providerKind"`
	ProviderShopID string       `bson:"providerShopId,omitempty" json:"providerShopId,omitempty"` // Shop the provider is bound to, if any

	ShopID  string      `bson:"shopId,omitempty" json:"shopId,omitempty"` // Set only for shop-based bookings
	SlotKey string      `bson:"slotKey" json:"-"`                         // Capacity key: shop:<id> or provider:<id>
	Mode    ServiceMode `bson:"mode" json:"mode"`

	ServiceID   string  `bson:"serviceId" json:"serviceId"`
	ServiceName string  `bson:"serviceName" json:"serviceName"`
	Price       float64 `bson:"price" json:"price"`
	Currency    string  `bson:"currency" json:"currency"`
	Duration    int     `bson:"duration" json:"duration"` // Minutes, snapshotted at creation

	Date        string `bson:"date" json:"date"` // "YYYY-MM-DD"
	Hour        int    `bson:"hour" json:"hour"`
	Minute      int    `bson:"minute" json:"minute"`
	StartMinute int    `bson:"startMinute" json:"startMinute"` // Hour*60+Minute

	Status BookingStatus `bson:"status" json:"status"`

	Address            *Address   `bson:"address,omitempty" json:"address,omitempty"`
	Notes              string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CancellationReason string     `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	RejectionReason    string     `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	Rating             int        `bson:"rating,omitempty" json:"rating,omitempty"`
	Review             string     `bson:"review,omitempty" json:"review,omitempty"`
	RatedAt            *time.Time `bson:"ratedAt,omitempty" json:"ratedAt,omitempty"`

	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentRef    string        `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`

	Version   int       `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Start returns the booking start in minutes since midnight.
func (b *Booking) Start() int {
	return b.Hour*60 + b.Minute
}

// End returns the exclusive end of the booking in minutes since midnight.
func (b *Booking) End() int {
	return b.Start() + b.Duration
}

// IsShopBased reports whether the booking is delivered at a shop.
func (b *Booking) IsShopBased() bool {
	return b.ShopID != ""
}

// SetTime moves the booking to a new date and time of day.
func (b *Booking) SetTime(date string, hour, minute int) {
	b.Date = date
	b.Hour = hour
	b.Minute = minute
	b.StartMinute = hour*60 + minute
}

// RatingSummary is an aggregate over completed, rated bookings.
type RatingSummary struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// ShopSlotKey is the capacity key for shop-based bookings.
func ShopSlotKey(shopID string) string {
	return "shop:" + shopID
}

// ProviderSlotKey is the capacity key for home-based bookings.
func ProviderSlotKey(providerID string) string {
	return "provider:" + providerID
}
