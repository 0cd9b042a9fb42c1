package scheduling

import "time"

// computeSlots generates the bookable start times for one professional on
// one date. Pure function over its inputs: the recurring working-hours
// entry for that weekday, the blocks touching the date, and the day's
// appointments. Returns "HH:MM" strings in ascending order; an absent or
// unavailable working-hours entry yields an empty result, not an error.
func computeSlots(wh *WorkingHoursEntry, blocks []*ScheduleBlock, appointments []*Appointment, date time.Time, durationMinutes, intervalMinutes int) ([]string, error) {
	slots := []string{}
	if wh == nil || !wh.IsAvailable {
		return slots, nil
	}

	dayStart, err := ParseClock(wh.StartTime)
	if err != nil {
		return nil, err
	}
	dayEnd, err := ParseClock(wh.EndTime)
	if err != nil {
		return nil, err
	}
	if dayStart >= dayEnd {
		return slots, nil
	}

	blockSpans := make([]span, 0, len(blocks))
	for _, b := range blocks {
		if s, ok := blockSpanOn(b, date); ok {
			blockSpans = append(blockSpans, s)
		}
	}

	for start := dayStart; start+durationMinutes <= dayEnd; start += intervalMinutes {
		candidate := span{start: start, end: start + durationMinutes}

		blocked := false
		for _, bs := range blockSpans {
			if candidate.overlaps(bs) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		if hasConflict(candidate, appointments, "") {
			continue
		}

		slots = append(slots, FormatClock(start))
	}

	return slots, nil
}
