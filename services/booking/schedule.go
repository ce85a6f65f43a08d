package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookwell/models"
)

// DayWindow is the working window of one date in minutes since midnight.
type DayWindow struct {
	IsAvailable bool
	Start       int
	End         int
}

// Contains reports whether [start, end) lies inside an open window.
func (w DayWindow) Contains(start, end int) bool {
	return w.IsAvailable && start >= w.Start && end <= w.End
}

// ShopWindow reads a shop's opening hours for date.
func ShopWindow(hours models.OpeningHours, date time.Time) (DayWindow, error) {
	day, ok := hours[weekdayKey(date)]
	if !ok || day.Closed {
		return DayWindow{}, nil
	}
	return window(day.Open, day.Close)
}

// PersonalWindow reads a provider's weekly availability for date.
func PersonalWindow(av models.WeeklyAvailability, date time.Time) (DayWindow, error) {
	day, ok := av[weekdayKey(date)]
	if !ok || !day.Available {
		return DayWindow{}, nil
	}
	return window(day.Start, day.End)
}

func window(open, close string) (DayWindow, error) {
	start, err := ParseClock(open)
	if err != nil {
		return DayWindow{}, err
	}
	end, err := ParseClock(close)
	if err != nil {
		return DayWindow{}, err
	}
	if end <= start {
		return DayWindow{}, fmt.Errorf("window %s-%s ends before it starts", open, close)
	}
	return DayWindow{IsAvailable: true, Start: start, End: end}, nil
}

const minutesPerDay = 24 * 60

func weekdayKey(d time.Time) string {
	return strings.ToLower(d.Weekday().String())
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is
// accepted as the end of the day.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h == 24 && m == 0 {
		return minutesPerDay, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes since midnight into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
