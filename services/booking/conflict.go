package booking

import "bookwell/models"

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open intervals share any minute.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

func intervalOf(b *models.Booking) Interval {
	return Interval{Start: b.Start(), End: b.End()}
}

// FirstConflict returns the first active booking in existing that overlaps
// candidate. The booking with public id exclude is ignored so a booking can
// be checked against its own schedule when it moves.
func FirstConflict(candidate Interval, existing []models.Booking, exclude string) (*models.Booking, bool) {
	for i := range existing {
		b := &existing[i]
		if exclude != "" && b.PublicID == exclude {
			continue
		}
		if !b.Status.IsActive() {
			continue
		}
		if candidate.Overlaps(intervalOf(b)) {
			return b, true
		}
	}
	return nil, false
}
