package booking

import (
	"iter"

	"bookwell/models"
)

// FreeSlots yields every slot of length duration inside w, starting on a
// step grid anchored at the window start, that does not overlap an active
// booking in existing. The sequence is computed from its arguments each
// time it is ranged over.
func FreeSlots(w DayWindow, duration, step int, existing []models.Booking) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if !w.IsAvailable || duration <= 0 || step <= 0 {
			return
		}
		for start := w.Start; start+duration <= w.End; start += step {
			slot := Interval{Start: start, End: start + duration}
			if _, taken := FirstConflict(slot, existing, ""); taken {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}
