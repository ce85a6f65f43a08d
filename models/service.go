package models

import "time"

// Service is a catalog entry that customers book.
type Service struct {
	ID        string      `bson:"id" json:"id"`
	Name      string      `bson:"name" json:"name"`
	Price     float64     `bson:"price" json:"price"`
	Currency  string      `bson:"currency" json:"currency"`
	Duration  int         `bson:"duration" json:"duration"` // Minutes
	Mode      ServiceMode `bson:"mode" json:"mode"`         // shop, home or both
	Active    bool        `bson:"active" json:"active"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Supports reports whether the service may be delivered in mode m.
func (s *Service) Supports(m ServiceMode) bool {
	return s.Mode == ModeBoth || s.Mode == m
}
