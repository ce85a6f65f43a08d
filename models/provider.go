package models

import "time"

// ProviderKind tags which kind of provider an identifier resolves to.
type ProviderKind string

const (
	KindStaff      ProviderKind = "staff"
	KindFreelancer ProviderKind = "freelancer"
	KindShopOwner  ProviderKind = "shopOwner"
)

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// Provider is a registry entry for shop staff and freelancers.
type Provider struct {
	ID          string             `bson:"id" json:"id"`
	Kind        ProviderKind       `bson:"kind" json:"kind"` // staff or freelancer
	Name        string             `bson:"name" json:"name"`
	ShopID      string             `bson:"shopId,omitempty" json:"shopId,omitempty"` // Staff shop, or a freelancer's joined shop
	Active      bool               `bson:"active" json:"active"`
	Schedule    WeeklyAvailability `bson:"schedule" json:"schedule"`
	FCMToken    string             `bson:"fcmToken,omitempty" json:"-"`
	Rating      float64            `bson:"rating" json:"rating"`
	ReviewCount int                `bson:"reviewCount" json:"reviewCount"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ShopOwner is the profile of a person owning a shop. Owners may also take
// bookings themselves.
type ShopOwner struct {
	ID          string             `bson:"id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Schedule    WeeklyAvailability `bson:"schedule" json:"schedule"` // Personal availability for home visits
	FCMToken    string             `bson:"fcmToken,omitempty" json:"-"`
	Rating      float64            `bson:"rating" json:"rating"`
	ReviewCount int                `bson:"reviewCount" json:"reviewCount"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
