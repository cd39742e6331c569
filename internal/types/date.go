package types

import (
	"math"
	"time"
)

const Day = 24 * time.Hour

// AddClampedDate adds calendar years and months to t. When the resulting month
// is shorter than the source day, the day is clamped to the month's last day
// (Jan 31 + 1 month = Feb 28/29) instead of overflowing into the next month
// like time.AddDate does.
func AddClampedDate(t time.Time, years, months int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.AddDate(0, 0, -1).Day()
	if d > lastDay {
		d = lastDay
	}

	return time.Date(newY, newM, d, h, min, sec, t.Nanosecond(), t.Location())
}

// DaysUntil returns the number of days from now until end, counting a
// partial day as a whole one. It never returns a negative value.
func DaysUntil(now, end time.Time) int {
	if !end.After(now) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// DaysSince returns the number of whole days elapsed from start to now.
// It never returns a negative value.
func DaysSince(start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start) / Day)
}
