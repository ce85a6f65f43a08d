package models

import "time"

// Shop is a physical location with fixed opening hours.
type Shop struct {
	ID           string       `bson:"id" json:"id"`
	Name         string       `bson:"name" json:"name"`
	OwnerID      string       `bson:"ownerId" json:"ownerId"`
	OpeningHours OpeningHours `bson:"openingHours" json:"openingHours"`
	Location     GeoPoint     `bson:"location" json:"location"`
	Rating       float64      `bson:"rating" json:"rating"`
	ReviewCount  int          `bson:"reviewCount" json:"reviewCount"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time    `bson:"updatedAt" json:"updatedAt"`
}
