package scheduling

import "errors"

var (
	// ErrInvalidRange covers block or appointment windows with end <= start
	// and non-positive durations.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrProfessionalNotFound is returned when the referenced professional
	// does not exist.
	ErrProfessionalNotFound = errors.New("professional not found")

	// ErrTenantMismatch is returned when the referenced professional belongs
	// to a different clinic than the caller.
	ErrTenantMismatch = errors.New("professional belongs to another tenant")

	// ErrOutsideWorkingHours is returned when a booking falls outside the
	// professional's working-hours window for that day.
	ErrOutsideWorkingHours = errors.New("requested time is outside working hours")

	// ErrConflict is returned when the requested interval overlaps an
	// existing blocking appointment.
	ErrConflict = errors.New("time slot conflicts with an existing appointment")

	// ErrInvalidTransition is returned when a lifecycle transition is
	// requested from a terminal or incompatible state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCancellationWindow is returned when a cancellation arrives inside
	// the clinic's cancellation-notice window without the force flag.
	ErrCancellationWindow = errors.New("cancellation inside notice window")

	// ErrNotFound is returned when the referenced appointment or block does
	// not exist.
	ErrNotFound = errors.New("not found")
)
