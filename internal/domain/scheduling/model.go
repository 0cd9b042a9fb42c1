package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Status is an appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Blocking reports whether an appointment in this status occupies its time
// slot for conflict purposes. Cancelled, completed and no-show appointments
// free the slot.
func (s Status) Blocking() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// allowedTransitions is the lifecycle state machine:
// scheduled -> confirmed -> completed; scheduled/confirmed -> cancelled or
// no_show. Terminal states have no outgoing edges.
var allowedTransitions = map[Status]map[Status]bool{
	StatusScheduled: {StatusConfirmed: true, StatusCancelled: true, StatusNoShow: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true, StatusNoShow: true},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// WorkingHoursEntry is one day of a professional's recurring weekly
// schedule. DayOfWeek follows time.Weekday: 0 is Sunday. The weekly set is
// replaced wholesale, never patched entry by entry.
type WorkingHoursEntry struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	DayOfWeek      int       `json:"day_of_week"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	IsAvailable    bool      `json:"is_available"`
}

// ScheduleBlock is an ad-hoc exclusion range (vacation, lunch, emergency
// closure) overriding working hours.
type ScheduleBlock struct {
	ID             uuid.UUID `json:"id"`
	ProfessionalID uuid.UUID `json:"professional_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

// Appointment is a single booking. Date is the calendar day, StartTime a
// wall-clock "HH:MM"; the occupied interval is the half-open
// [StartTime, StartTime+DurationMinutes).
type Appointment struct {
	ID              uuid.UUID `json:"id"`
	ProfessionalID  uuid.UUID `json:"professional_id"`
	ClientID        uuid.UUID `json:"client_id"`
	PetID           uuid.UUID `json:"pet_id"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes,omitempty"`

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	ConfirmedBy        string     `json:"confirmed_by,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CompletedBy        string     `json:"completed_by,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Span returns the appointment's occupied interval in minutes since
// midnight. Errors only on a malformed StartTime.
func (a *Appointment) Span() (span, error) {
	start, err := ParseClock(a.StartTime)
	if err != nil {
		return span{}, err
	}
	return span{start: start, end: start + a.DurationMinutes}, nil
}

// SchedulingDefaults are the per-tenant knobs the availability and
// cancellation rules depend on.
type SchedulingDefaults struct {
	DefaultDurationMinutes int `json:"default_duration_minutes"`
	SlotIntervalMinutes    int `json:"slot_interval_minutes"`
	CancellationHours      int `json:"cancellation_hours"`
}
