package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vetdesk/vetdesk/internal/platform/db"
)

// History event types, one per lifecycle transition.
const (
	EventCreated     = "created"
	EventRescheduled = "rescheduled"
	EventConfirmed   = "confirmed"
	EventCompleted   = "completed"
	EventCancelled   = "cancelled"
	EventNoShow      = "no_show"
	EventDeleted     = "deleted"
)

// keyedLocks serializes bookings per (tenant, professional, date) so a
// single process never races itself on the check-then-write path. Lock
// entries are never evicted; the key space is bounded by the clinics and
// days a process actually books.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}

// Service is the scheduling core: availability computation, conflict
// checking, the appointment lifecycle and block management.
type Service struct {
	workingHours  WorkingHoursRepository
	blocks        BlockRepository
	appointments  AppointmentRepository
	config        ConfigProvider
	history       HistoryRecorder
	professionals ProfessionalDirectory

	bookingLocks *keyedLocks
	now          func() time.Time
}

func NewService(wh WorkingHoursRepository, blocks BlockRepository, appts AppointmentRepository, cfg ConfigProvider, hist HistoryRecorder, dir ProfessionalDirectory) *Service {
	return &Service{
		workingHours:  wh,
		blocks:        blocks,
		appointments:  appts,
		config:        cfg,
		history:       hist,
		professionals: dir,
		bookingLocks:  newKeyedLocks(),
		now:           time.Now,
	}
}

func lockKey(ctx context.Context, professionalID uuid.UUID, date time.Time) string {
	return db.TenantFromContext(ctx) + "|" + professionalID.String() + "|" + date.Format("2006-01-02")
}

// -- Availability --

// ComputeSlots returns the bookable "HH:MM" start times for a professional
// on a date. durationMinutes <= 0 falls back to the tenant's default
// duration. Days without an available working-hours entry yield an empty
// list.
func (s *Service) ComputeSlots(ctx context.Context, professionalID uuid.UUID, date time.Time, durationMinutes int) ([]string, error) {
	if err := s.professionals.Lookup(ctx, professionalID); err != nil {
		return nil, err
	}

	defaults, err := s.config.SchedulingDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scheduling defaults: %w", err)
	}
	if durationMinutes <= 0 {
		durationMinutes = defaults.DefaultDurationMinutes
	}
	if durationMinutes <= 0 || defaults.SlotIntervalMinutes <= 0 {
		return nil, ErrInvalidRange
	}

	wh, err := s.workingHours.GetByDay(ctx, professionalID, int(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}

	blocks, err := s.blocks.ListForDate(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}

	appts, err := s.appointments.ListForDate(ctx, professionalID, date, false)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	return computeSlots(wh, blocks, appts, date, durationMinutes, defaults.SlotIntervalMinutes)
}

// HasConflict reports whether [startTime, startTime+duration) on the date
// overlaps any blocking appointment of the professional. excludeID skips
// one appointment, for reschedule re-checks; uuid.Nil excludes nothing.
func (s *Service) HasConflict(ctx context.Context, professionalID uuid.UUID, date time.Time, startTime string, durationMinutes int, excludeID uuid.UUID) (bool, error) {
	if durationMinutes <= 0 {
		return false, ErrInvalidRange
	}
	start, err := ParseClock(startTime)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}

	appts, err := s.appointments.ListForDate(ctx, professionalID, date, false)
	if err != nil {
		return false, fmt.Errorf("load appointments: %w", err)
	}

	exclude := ""
	if excludeID != uuid.Nil {
		exclude = excludeID.String()
	}
	return hasConflict(span{start: start, end: start + durationMinutes}, appts, exclude), nil
}

// withinWorkingHours checks that the candidate span fits the professional's
// window for the date's weekday.
func (s *Service) withinWorkingHours(ctx context.Context, professionalID uuid.UUID, date time.Time, candidate span) error {
	wh, err := s.workingHours.GetByDay(ctx, professionalID, int(date.Weekday()))
	if err != nil {
		return fmt.Errorf("load working hours: %w", err)
	}
	if wh == nil || !wh.IsAvailable {
		return ErrOutsideWorkingHours
	}
	start, err := ParseClock(wh.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(wh.EndTime)
	if err != nil {
		return err
	}
	if candidate.start < start || candidate.end > end {
		return ErrOutsideWorkingHours
	}
	return nil
}

// -- Lifecycle --

type CreateAppointmentInput struct {
	ProfessionalID  uuid.UUID `json:"professional_id"`
	ClientID        uuid.UUID `json:"client_id"`
	PetID           uuid.UUID `json:"pet_id"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

// CreateAppointment books a slot. The conflict check and the insert are
// serialized per (tenant, professional, date) in-process, and the pg
// repository re-checks inside its insert transaction, so concurrent calls
// for the same slot produce exactly one success and one ErrConflict.
func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput, actorID string) (*Appointment, error) {
	if err := s.professionals.Lookup(ctx, in.ProfessionalID); err != nil {
		return nil, err
	}

	defaults, err := s.config.SchedulingDefaults(ctx)
	if err != nil {
		return nil, fmt.Errorf("load scheduling defaults: %w", err)
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = defaults.DefaultDurationMinutes
	}
	if in.DurationMinutes <= 0 {
		return nil, ErrInvalidRange
	}

	start, err := ParseClock(in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	candidate := span{start: start, end: start + in.DurationMinutes}

	if err := s.withinWorkingHours(ctx, in.ProfessionalID, in.Date, candidate); err != nil {
		return nil, err
	}

	lock := s.bookingLocks.get(lockKey(ctx, in.ProfessionalID, in.Date))
	lock.Lock()
	defer lock.Unlock()

	conflict, err := s.HasConflict(ctx, in.ProfessionalID, in.Date, in.StartTime, in.DurationMinutes, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrConflict
	}

	now := s.now()
	appt := &Appointment{
		ID:              uuid.New(),
		ProfessionalID:  in.ProfessionalID,
		ClientID:        in.ClientID,
		PetID:           in.PetID,
		Date:            in.Date,
		StartTime:       FormatClock(start),
		DurationMinutes: in.DurationMinutes,
		Status:          StatusScheduled,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.appointments.CreateIfFree(ctx, appt); err != nil {
		return nil, err
	}

	if err := s.history.Record(ctx, appt.ID, EventCreated, nil, appt, actorID); err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}

	return appt, nil
}

type RescheduleInput struct {
	Date            *time.Time `json:"date"`
	StartTime       *string    `json:"start_time"`
	DurationMinutes *int       `json:"duration_minutes"`
}

// Reschedule moves or resizes an appointment. The conflict guard only runs
// when date, time or duration actually change, and excludes the
// appointment's own id so it never conflicts with itself.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput, actorID string) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !appt.Status.Blocking() {
		return nil, ErrInvalidTransition
	}

	old := *appt

	changed := false
	if in.Date != nil && !sameDate(*in.Date, appt.Date) {
		appt.Date = *in.Date
		changed = true
	}
	if in.StartTime != nil && *in.StartTime != appt.StartTime {
		start, err := ParseClock(*in.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		appt.StartTime = FormatClock(start)
		changed = true
	}
	if in.DurationMinutes != nil && *in.DurationMinutes != appt.DurationMinutes {
		if *in.DurationMinutes <= 0 {
			return nil, ErrInvalidRange
		}
		appt.DurationMinutes = *in.DurationMinutes
		changed = true
	}

	if !changed {
		return appt, nil
	}

	candidate, err := appt.Span()
	if err != nil {
		return nil, err
	}
	if err := s.withinWorkingHours(ctx, appt.ProfessionalID, appt.Date, candidate); err != nil {
		return nil, err
	}

	lock := s.bookingLocks.get(lockKey(ctx, appt.ProfessionalID, appt.Date))
	lock.Lock()
	defer lock.Unlock()

	conflict, err := s.HasConflict(ctx, appt.ProfessionalID, appt.Date, appt.StartTime, appt.DurationMinutes, appt.ID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrConflict
	}

	appt.UpdatedAt = s.now()
	if err := s.appointments.UpdateIfFree(ctx, appt); err != nil {
		return nil, err
	}

	if err := s.history.Record(ctx, appt.ID, EventRescheduled, &old, appt, actorID); err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}

	return appt, nil
}

// Confirm moves a scheduled appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actorID string) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, EventConfirmed, actorID, func(a *Appointment, now time.Time) {
		a.ConfirmedBy = actorID
		a.ConfirmedAt = &now
	})
}

// Complete moves a confirmed appointment to completed.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actorID string) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, EventCompleted, actorID, func(a *Appointment, now time.Time) {
		a.CompletedBy = actorID
		a.CompletedAt = &now
	})
}

// Cancel moves an active appointment to cancelled. A reason is required.
// Cancellations inside the tenant's notice window are refused unless force
// is set (staff override).
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason, actorID string, force bool) (*Appointment, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation requires a reason", ErrInvalidRange)
	}

	if !force {
		appt, err := s.appointments.GetByID(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if err := s.checkCancellationWindow(ctx, appt); err != nil {
			return nil, err
		}
	}

	return s.transition(ctx, id, StatusCancelled, EventCancelled, actorID, func(a *Appointment, now time.Time) {
		a.CancellationReason = reason
		a.CancelledBy = actorID
		a.CancelledAt = &now
	})
}

// MarkNoShow records a client no-show. Always set manually by staff; there
// is no automatic sweep.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID, actorID string) (*Appointment, error) {
	return s.transition(ctx, id, StatusNoShow, EventNoShow, actorID, nil)
}

func (s *Service) checkCancellationWindow(ctx context.Context, appt *Appointment) error {
	defaults, err := s.config.SchedulingDefaults(ctx)
	if err != nil {
		return fmt.Errorf("load scheduling defaults: %w", err)
	}
	if defaults.CancellationHours <= 0 {
		return nil
	}

	start, err := ParseClock(appt.StartTime)
	if err != nil {
		return err
	}
	dayStart, _ := dayBounds(appt.Date)
	startsAt := dayStart.Add(time.Duration(start) * time.Minute)

	if s.now().Add(time.Duration(defaults.CancellationHours) * time.Hour).After(startsAt) {
		return ErrCancellationWindow
	}
	return nil
}

// transition applies one lifecycle step: validate the edge, mutate, persist,
// record exactly one history entry with old and new snapshots.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, event, actorID string, mutate func(*Appointment, time.Time)) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}

	old := *appt
	now := s.now()
	appt.Status = to
	appt.UpdatedAt = now
	if mutate != nil {
		mutate(appt, now)
	}

	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}

	if err := s.history.Record(ctx, appt.ID, event, &old, appt, actorID); err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}

	return appt, nil
}

// DeleteAppointment soft-deletes an appointment. Deleted rows no longer
// participate in conflict checks or availability.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID, actorID string) error {
	appt, err := s.appointments.GetByID(ctx, id, false)
	if err != nil {
		return err
	}

	old := *appt
	now := s.now()
	if err := s.appointments.SoftDelete(ctx, id, now); err != nil {
		return err
	}

	appt.DeletedAt = &now
	if err := s.history.Record(ctx, id, EventDeleted, &old, appt, actorID); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id, false)
}

func (s *Service) ListAppointmentsByProfessional(ctx context.Context, professionalID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByProfessional(ctx, professionalID, from, to, limit, offset)
}

func (s *Service) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByClient(ctx, clientID, limit, offset)
}

// -- Blocks --

// CreateBlockResult carries the created block plus the ids of blocking
// appointments the new range strands. Block creation deliberately does not
// reject those: an emergency closure must always be possible. Staff use the
// returned ids to reschedule.
type CreateBlockResult struct {
	Block                  *ScheduleBlock `json:"block"`
	StrandedAppointmentIDs []uuid.UUID    `json:"stranded_appointment_ids"`
}

func (s *Service) CreateBlock(ctx context.Context, professionalID uuid.UUID, start, end time.Time, reason string) (*CreateBlockResult, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}
	if err := s.professionals.Lookup(ctx, professionalID); err != nil {
		return nil, err
	}

	block := &ScheduleBlock{
		ID:             uuid.New(),
		ProfessionalID: professionalID,
		StartsAt:       start,
		EndsAt:         end,
		Reason:         reason,
		CreatedAt:      s.now(),
	}
	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, err
	}

	stranded, err := s.strandedAppointments(ctx, block)
	if err != nil {
		return nil, err
	}

	return &CreateBlockResult{Block: block, StrandedAppointmentIDs: stranded}, nil
}

// strandedAppointments walks the dates a block touches and collects the
// blocking appointments its range overlaps.
func (s *Service) strandedAppointments(ctx context.Context, block *ScheduleBlock) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	dayStart, _ := dayBounds(block.StartsAt)
	for date := dayStart; date.Before(block.EndsAt); date = date.AddDate(0, 0, 1) {
		bs, ok := blockSpanOn(block, date)
		if !ok {
			continue
		}
		appts, err := s.appointments.ListForDate(ctx, block.ProfessionalID, date, false)
		if err != nil {
			return nil, err
		}
		for _, a := range appts {
			if !a.Status.Blocking() || a.DeletedAt != nil {
				continue
			}
			as, err := a.Span()
			if err != nil {
				continue
			}
			if bs.overlaps(as) {
				ids = append(ids, a.ID)
			}
		}
	}
	return ids, nil
}

// RemoveBlock deletes a block. Always safe: removal only frees capacity.
func (s *Service) RemoveBlock(ctx context.Context, id uuid.UUID) error {
	return s.blocks.Delete(ctx, id)
}

func (s *Service) ListBlocks(ctx context.Context, professionalID uuid.UUID, limit, offset int) ([]*ScheduleBlock, int, error) {
	return s.blocks.ListByProfessional(ctx, professionalID, limit, offset)
}

func (s *Service) ListBlocksForDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]*ScheduleBlock, error) {
	return s.blocks.ListForDate(ctx, professionalID, date)
}

// -- Working hours --

// ReplaceWorkingHours swaps the professional's entire weekly schedule.
// Validates: weekday in [0..6], at most one entry per weekday, start < end
// whenever the entry is available.
func (s *Service) ReplaceWorkingHours(ctx context.Context, professionalID uuid.UUID, entries []*WorkingHoursEntry) error {
	if err := s.professionals.Lookup(ctx, professionalID); err != nil {
		return err
	}

	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			return fmt.Errorf("%w: day_of_week %d", ErrInvalidRange, e.DayOfWeek)
		}
		if seen[e.DayOfWeek] {
			return fmt.Errorf("%w: duplicate entry for day %d", ErrInvalidRange, e.DayOfWeek)
		}
		seen[e.DayOfWeek] = true
		e.ProfessionalID = professionalID

		if !e.IsAvailable {
			continue
		}
		start, err := ParseClock(e.StartTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		end, err := ParseClock(e.EndTime)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
		if start >= end {
			return fmt.Errorf("%w: day %d start %s >= end %s", ErrInvalidRange, e.DayOfWeek, e.StartTime, e.EndTime)
		}
	}

	return s.workingHours.Replace(ctx, professionalID, entries)
}

func (s *Service) WeeklySchedule(ctx context.Context, professionalID uuid.UUID) ([]*WorkingHoursEntry, error) {
	if err := s.professionals.Lookup(ctx, professionalID); err != nil {
		return nil, err
	}
	return s.workingHours.ListByProfessional(ctx, professionalID)
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
