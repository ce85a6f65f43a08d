package models

// DayHours is one weekday of a shop's opening-hours table.
type DayHours struct {
	Closed bool   `bson:"closed" json:"closed"`
	Open   string `bson:"open,omitempty" json:"open,omitempty"`   // "HH:MM"
	Close  string `bson:"close,omitempty" json:"close,omitempty"` // "HH:MM"
}

// OpeningHours is keyed by lowercase weekday name ("monday").
type OpeningHours map[string]DayHours

// DayAvailability is one weekday of a provider's personal schedule.
type DayAvailability struct {
	Available bool   `bson:"available" json:"available"`
	Start     string `bson:"start,omitempty" json:"start,omitempty"` // "HH:MM"
	End       string `bson:"end,omitempty" json:"end,omitempty"`     // "HH:MM"
}

// WeeklyAvailability is keyed by lowercase weekday name ("monday").
type WeeklyAvailability map[string]DayAvailability
