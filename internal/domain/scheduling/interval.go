package scheduling

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// span is a half-open interval [start, end) in minutes since midnight.
type span struct {
	start int
	end   int
}

// overlaps implements half-open interval intersection: touching intervals
// (a.end == b.start) do not overlap, which is what allows back-to-back
// bookings.
func (a span) overlaps(b span) bool {
	return a.start < b.end && a.end > b.start
}

// ParseClock parses a "HH:MM" wall-clock string into minutes since
// midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM". 1440 renders as
// "24:00" for end-of-day block boundaries.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// dayBounds returns the [midnight, next midnight) window of the given date
// in the date's own location.
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

// blockSpanOn clips a block's absolute time range to the given calendar
// date and returns it in minutes since midnight. The second return is false
// when the block does not touch that date.
func blockSpanOn(b *ScheduleBlock, date time.Time) (span, bool) {
	dayStart, dayEnd := dayBounds(date)
	if !b.StartsAt.Before(dayEnd) || !b.EndsAt.After(dayStart) {
		return span{}, false
	}

	start := 0
	if b.StartsAt.After(dayStart) {
		start = b.StartsAt.Hour()*60 + b.StartsAt.Minute()
	}
	end := minutesPerDay
	if b.EndsAt.Before(dayEnd) {
		end = b.EndsAt.Hour()*60 + b.EndsAt.Minute()
	}
	if start >= end {
		return span{}, false
	}
	return span{start: start, end: end}, true
}

// hasConflict reports whether candidate overlaps any blocking appointment in
// the list, skipping soft-deleted rows and the excluded appointment id (zero
// uuid excludes nothing). Malformed stored times are treated as conflicts so
// bad data fails closed.
func hasConflict(candidate span, appointments []*Appointment, exclude string) bool {
	for _, a := range appointments {
		if a.DeletedAt != nil || !a.Status.Blocking() {
			continue
		}
		if exclude != "" && a.ID.String() == exclude {
			continue
		}
		s, err := a.Span()
		if err != nil {
			return true
		}
		if candidate.overlaps(s) {
			return true
		}
	}
	return false
}
