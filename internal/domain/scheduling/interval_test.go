package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b span
		want bool
	}{
		{"disjoint", span{600, 630}, span{700, 730}, false},
		{"identical", span{600, 630}, span{600, 630}, true},
		{"partial", span{600, 660}, span{630, 690}, true},
		{"contained", span{600, 720}, span{630, 660}, true},
		{"touching end-start", span{600, 630}, span{630, 660}, false},
		{"touching start-end", span{630, 660}, span{600, 630}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.overlaps(tt.b); got != tt.want {
				t.Errorf("overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// overlap is symmetric
			if got := tt.b.overlaps(tt.a); got != tt.want {
				t.Errorf("overlaps(%v, %v) = %v, want %v (swap)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"8:30", 510, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(480); got != "08:00" {
		t.Errorf("FormatClock(480) = %q", got)
	}
	if got := FormatClock(1439); got != "23:59" {
		t.Errorf("FormatClock(1439) = %q", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %q", got)
	}
}

func TestBlockSpanOn(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

	block := func(start, end time.Time) *ScheduleBlock {
		return &ScheduleBlock{ID: uuid.New(), StartsAt: start, EndsAt: end}
	}

	t.Run("within day", func(t *testing.T) {
		b := block(date.Add(9*time.Hour), date.Add(10*time.Hour))
		s, ok := blockSpanOn(b, date)
		if !ok || s.start != 540 || s.end != 600 {
			t.Errorf("got %v ok=%v, want [540,600)", s, ok)
		}
	})

	t.Run("spans multiple days clips to full day", func(t *testing.T) {
		b := block(date.AddDate(0, 0, -1), date.AddDate(0, 0, 2))
		s, ok := blockSpanOn(b, date)
		if !ok || s.start != 0 || s.end != minutesPerDay {
			t.Errorf("got %v ok=%v, want [0,1440)", s, ok)
		}
	})

	t.Run("starts mid-day runs past midnight", func(t *testing.T) {
		b := block(date.Add(22*time.Hour), date.AddDate(0, 0, 1).Add(2*time.Hour))
		s, ok := blockSpanOn(b, date)
		if !ok || s.start != 1320 || s.end != minutesPerDay {
			t.Errorf("got %v ok=%v, want [1320,1440)", s, ok)
		}
	})

	t.Run("different day", func(t *testing.T) {
		b := block(date.AddDate(0, 0, 3), date.AddDate(0, 0, 4))
		if _, ok := blockSpanOn(b, date); ok {
			t.Error("expected no span for a block on another day")
		}
	})

	t.Run("ends at midnight of date", func(t *testing.T) {
		b := block(date.AddDate(0, 0, -1), date)
		if _, ok := blockSpanOn(b, date); ok {
			t.Error("a block ending exactly at midnight does not touch the day")
		}
	})
}

func TestHasConflictFiltering(t *testing.T) {
	mk := func(start string, dur int, status Status) *Appointment {
		return &Appointment{ID: uuid.New(), StartTime: start, DurationMinutes: dur, Status: status}
	}

	appts := []*Appointment{
		mk("10:00", 30, StatusScheduled),
		mk("11:00", 30, StatusCancelled),
		mk("12:00", 30, StatusCompleted),
		mk("13:00", 30, StatusNoShow),
	}

	if !hasConflict(span{600, 630}, appts, "") {
		t.Error("expected conflict with scheduled 10:00 appointment")
	}
	if hasConflict(span{660, 690}, appts, "") {
		t.Error("cancelled appointments must not block")
	}
	if hasConflict(span{720, 750}, appts, "") {
		t.Error("completed appointments must not block")
	}
	if hasConflict(span{780, 810}, appts, "") {
		t.Error("no_show appointments must not block")
	}

	// exclude own id for reschedule re-checks
	if hasConflict(span{600, 630}, appts, appts[0].ID.String()) {
		t.Error("excluded appointment must not conflict with itself")
	}

	// soft-deleted rows are skipped
	now := time.Now()
	appts[0].DeletedAt = &now
	if hasConflict(span{600, 630}, appts, "") {
		t.Error("soft-deleted appointments must not block")
	}
}
