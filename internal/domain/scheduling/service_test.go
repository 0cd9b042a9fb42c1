package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- mocks --

type mockWorkingHours struct {
	entries map[uuid.UUID]map[int]*WorkingHoursEntry
}

func newMockWorkingHours() *mockWorkingHours {
	return &mockWorkingHours{entries: make(map[uuid.UUID]map[int]*WorkingHoursEntry)}
}

func (m *mockWorkingHours) set(e *WorkingHoursEntry) {
	if m.entries[e.ProfessionalID] == nil {
		m.entries[e.ProfessionalID] = make(map[int]*WorkingHoursEntry)
	}
	m.entries[e.ProfessionalID][e.DayOfWeek] = e
}

func (m *mockWorkingHours) Replace(_ context.Context, professionalID uuid.UUID, entries []*WorkingHoursEntry) error {
	m.entries[professionalID] = make(map[int]*WorkingHoursEntry)
	for _, e := range entries {
		m.entries[professionalID][e.DayOfWeek] = e
	}
	return nil
}

func (m *mockWorkingHours) ListByProfessional(_ context.Context, professionalID uuid.UUID) ([]*WorkingHoursEntry, error) {
	var out []*WorkingHoursEntry
	for _, e := range m.entries[professionalID] {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockWorkingHours) GetByDay(_ context.Context, professionalID uuid.UUID, day int) (*WorkingHoursEntry, error) {
	return m.entries[professionalID][day], nil
}

type mockBlocks struct {
	blocks map[uuid.UUID]*ScheduleBlock
}

func newMockBlocks() *mockBlocks { return &mockBlocks{blocks: make(map[uuid.UUID]*ScheduleBlock)} }

func (m *mockBlocks) Create(_ context.Context, b *ScheduleBlock) error {
	m.blocks[b.ID] = b
	return nil
}

func (m *mockBlocks) GetByID(_ context.Context, id uuid.UUID) (*ScheduleBlock, error) {
	b, ok := m.blocks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mockBlocks) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.blocks[id]; !ok {
		return ErrNotFound
	}
	delete(m.blocks, id)
	return nil
}

func (m *mockBlocks) ListForDate(_ context.Context, professionalID uuid.UUID, date time.Time) ([]*ScheduleBlock, error) {
	var out []*ScheduleBlock
	for _, b := range m.blocks {
		if b.ProfessionalID != professionalID {
			continue
		}
		if _, ok := blockSpanOn(b, date); ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBlocks) ListByProfessional(_ context.Context, professionalID uuid.UUID, limit, offset int) ([]*ScheduleBlock, int, error) {
	var out []*ScheduleBlock
	for _, b := range m.blocks {
		if b.ProfessionalID == professionalID {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

// mockAppointments is mutex-guarded: CreateIfFree re-checks under the lock
// the way the pg implementation re-checks inside its transaction.
type mockAppointments struct {
	mu           sync.Mutex
	appts        map[uuid.UUID]*Appointment
	listForDateN int
}

func newMockAppointments() *mockAppointments {
	return &mockAppointments{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointments) dayConflicts(a *Appointment, exclude uuid.UUID) bool {
	candidate, err := a.Span()
	if err != nil {
		return true
	}
	for _, other := range m.appts {
		if other.ID == exclude || other.ProfessionalID != a.ProfessionalID || !sameDate(other.Date, a.Date) {
			continue
		}
		if other.DeletedAt != nil || !other.Status.Blocking() {
			continue
		}
		s, err := other.Span()
		if err != nil {
			return true
		}
		if candidate.overlaps(s) {
			return true
		}
	}
	return false
}

func (m *mockAppointments) CreateIfFree(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dayConflicts(a, uuid.Nil) {
		return ErrConflict
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointments) UpdateIfFree(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[a.ID]; !ok {
		return ErrNotFound
	}
	if m.dayConflicts(a, a.ID) {
		return ErrConflict
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointments) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.appts[a.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointments) GetByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || (!includeDeleted && a.DeletedAt != nil) {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointments) SoftDelete(_ context.Context, id uuid.UUID, when time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.DeletedAt != nil {
		return ErrNotFound
	}
	a.DeletedAt = &when
	return nil
}

func (m *mockAppointments) ListForDate(_ context.Context, professionalID uuid.UUID, date time.Time, includeDeleted bool) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listForDateN++
	var out []*Appointment
	for _, a := range m.appts {
		if a.ProfessionalID != professionalID || !sameDate(a.Date, date) {
			continue
		}
		if !includeDeleted && a.DeletedAt != nil {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockAppointments) ListByProfessional(_ context.Context, professionalID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if a.ProfessionalID == professionalID && a.DeletedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockAppointments) ListByClient(_ context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.appts {
		if a.ClientID == clientID && a.DeletedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

type mockConfig struct{ defaults SchedulingDefaults }

func (m *mockConfig) SchedulingDefaults(context.Context) (SchedulingDefaults, error) {
	return m.defaults, nil
}

type historyEntry struct {
	appointmentID uuid.UUID
	event         string
	oldData       interface{}
	newData       interface{}
	actorID       string
}

type mockHistory struct {
	mu      sync.Mutex
	entries []historyEntry
}

func (m *mockHistory) Record(_ context.Context, apptID uuid.UUID, event string, oldData, newData interface{}, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, historyEntry{apptID, event, oldData, newData, actorID})
	return nil
}

func (m *mockHistory) count(apptID uuid.UUID, event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.appointmentID == apptID && e.event == event {
			n++
		}
	}
	return n
}

type mockDirectory struct {
	known   map[uuid.UUID]bool
	foreign map[uuid.UUID]bool
}

func (m *mockDirectory) Lookup(_ context.Context, id uuid.UUID) error {
	if m.foreign[id] {
		return ErrTenantMismatch
	}
	if !m.known[id] {
		return ErrProfessionalNotFound
	}
	return nil
}

// -- fixture --

type fixture struct {
	svc     *Service
	wh      *mockWorkingHours
	blocks  *mockBlocks
	appts   *mockAppointments
	history *mockHistory
	dir     *mockDirectory
	profID  uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		wh:      newMockWorkingHours(),
		blocks:  newMockBlocks(),
		appts:   newMockAppointments(),
		history: &mockHistory{},
		profID:  uuid.New(),
	}
	f.dir = &mockDirectory{
		known:   map[uuid.UUID]bool{f.profID: true},
		foreign: map[uuid.UUID]bool{},
	}
	cfg := &mockConfig{defaults: SchedulingDefaults{
		DefaultDurationMinutes: 30,
		SlotIntervalMinutes:    30,
		CancellationHours:      24,
	}}
	f.svc = NewService(f.wh, f.blocks, f.appts, cfg, f.history, f.dir)
	// Mon 08:00-18:00
	f.wh.set(&WorkingHoursEntry{
		ProfessionalID: f.profID,
		DayOfWeek:      int(time.Monday),
		StartTime:      "08:00",
		EndTime:        "18:00",
		IsAvailable:    true,
	})
	return f
}

func (f *fixture) book(t *testing.T, startTime string) *Appointment {
	t.Helper()
	appt, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		ProfessionalID: f.profID,
		ClientID:       uuid.New(),
		PetID:          uuid.New(),
		Date:           monday,
		StartTime:      startTime,
	}, "tester")
	if err != nil {
		t.Fatalf("booking %s: %v", startTime, err)
	}
	return appt
}

// -- creation --

func TestCreateAppointment(t *testing.T) {
	f := newFixture()

	appt := f.book(t, "10:00")
	if appt.Status != StatusScheduled {
		t.Errorf("new appointment status = %s, want scheduled", appt.Status)
	}
	if appt.DurationMinutes != 30 {
		t.Errorf("duration should default to 30, got %d", appt.DurationMinutes)
	}
	if got := f.history.count(appt.ID, EventCreated); got != 1 {
		t.Errorf("expected exactly one created history entry, got %d", got)
	}
}

func TestCreateAppointment_Conflict(t *testing.T) {
	f := newFixture()
	f.book(t, "10:00")

	_, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		ProfessionalID: f.profID,
		ClientID:       uuid.New(),
		Date:           monday,
		StartTime:      "10:15",
	}, "tester")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// failed bookings must not leave history behind
	for _, e := range f.history.entries {
		if e.event == EventCreated && e.newData.(*Appointment).StartTime == "10:15" {
			t.Error("conflicting create wrote a history entry")
		}
	}
}

func TestCreateAppointment_BackToBack(t *testing.T) {
	f := newFixture()
	f.book(t, "10:00")
	// 10:30 touches the previous booking's end; not a conflict
	f.book(t, "10:30")
}

func TestCreateAppointment_OutsideWorkingHours(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name string
		day  time.Time
		time string
	}{
		{"before opening", monday, "07:30"},
		{"runs past closing", monday, "17:45"},
		{"day off", monday.AddDate(0, 0, 1), "10:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
				ProfessionalID: f.profID,
				Date:           tc.day,
				StartTime:      tc.time,
			}, "tester")
			if !errors.Is(err, ErrOutsideWorkingHours) {
				t.Errorf("expected ErrOutsideWorkingHours, got %v", err)
			}
		})
	}
}

func TestCreateAppointment_UnknownProfessional(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		ProfessionalID: uuid.New(),
		Date:           monday,
		StartTime:      "10:00",
	}, "tester")
	if !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("expected ErrProfessionalNotFound, got %v", err)
	}
}

func TestCreateAppointment_ForeignProfessional(t *testing.T) {
	f := newFixture()
	foreign := uuid.New()
	f.dir.foreign[foreign] = true

	_, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
		ProfessionalID: foreign,
		Date:           monday,
		StartTime:      "10:00",
	}, "tester")
	if !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("expected ErrTenantMismatch, got %v", err)
	}
}

func TestConcurrentCreate_SingleWinner(t *testing.T) {
	f := newFixture()

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentInput{
				ProfessionalID: f.profID,
				ClientID:       uuid.New(),
				Date:           monday,
				StartTime:      "10:00",
			}, "tester")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly one winning booking, got %d", successes)
	}
	if conflicts != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestBookedSlotDisappears(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	slots, err := f.svc.ComputeSlots(ctx, f.profID, monday, 0)
	if err != nil {
		t.Fatal(err)
	}
	target := slots[0]

	f.book(t, target)

	after, err := f.svc.ComputeSlots(ctx, f.profID, monday, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range after {
		if s == target {
			t.Fatalf("slot %s still offered after being booked", target)
		}
	}
	if len(after) != len(slots)-1 {
		t.Errorf("expected one fewer slot, got %d -> %d", len(slots), len(after))
	}
}

// -- lifecycle --

func TestLifecycle_HappyPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	confirmed, err := f.svc.Confirm(ctx, appt.ID, "vet-1")
	if err != nil {
		t.Fatal(err)
	}
	if confirmed.Status != StatusConfirmed || confirmed.ConfirmedBy != "vet-1" || confirmed.ConfirmedAt == nil {
		t.Errorf("confirm did not stamp fields: %+v", confirmed)
	}

	completed, err := f.svc.Complete(ctx, appt.ID, "vet-1")
	if err != nil {
		t.Fatal(err)
	}
	if completed.Status != StatusCompleted || completed.CompletedAt == nil {
		t.Errorf("complete did not stamp fields: %+v", completed)
	}

	if got := f.history.count(appt.ID, EventConfirmed); got != 1 {
		t.Errorf("confirmed history entries = %d, want 1", got)
	}
	if got := f.history.count(appt.ID, EventCompleted); got != 1 {
		t.Errorf("completed history entries = %d, want 1", got)
	}
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	appt := f.book(t, "10:00")
	if _, err := f.svc.Complete(ctx, appt.ID, "vet-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete from scheduled: expected ErrInvalidTransition, got %v", err)
	}

	if _, err := f.svc.Confirm(ctx, appt.ID, "vet-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Complete(ctx, appt.ID, "vet-1"); err != nil {
		t.Fatal(err)
	}

	// completed is terminal
	if _, err := f.svc.Confirm(ctx, appt.ID, "vet-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("confirm from completed: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.Cancel(ctx, appt.ID, "changed plans", "vet-1", true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel from completed: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.MarkNoShow(ctx, appt.ID, "vet-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("no-show from completed: expected ErrInvalidTransition, got %v", err)
	}

	// failed transitions write no history
	if got := f.history.count(appt.ID, EventCancelled); got != 0 {
		t.Errorf("failed cancel wrote %d history entries", got)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	if _, err := f.svc.Cancel(ctx, appt.ID, "", "staff-1", true); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("cancel without reason: expected ErrInvalidRange, got %v", err)
	}

	cancelled, err := f.svc.Cancel(ctx, appt.ID, "client sick", "staff-1", true)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancellationReason != "client sick" || cancelled.CancelledAt == nil {
		t.Errorf("cancel did not stamp fields: %+v", cancelled)
	}
	if got := f.history.count(appt.ID, EventCancelled); got != 1 {
		t.Errorf("cancelled history entries = %d, want 1", got)
	}
}

func TestCancel_NoticeWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	// 2 hours before start, inside the 24h window
	f.svc.now = func() time.Time { return monday.Add(8 * time.Hour) }
	if _, err := f.svc.Cancel(ctx, appt.ID, "too late", "client-1", false); !errors.Is(err, ErrCancellationWindow) {
		t.Fatalf("expected ErrCancellationWindow, got %v", err)
	}

	// force overrides the window
	if _, err := f.svc.Cancel(ctx, appt.ID, "emergency", "staff-1", true); err != nil {
		t.Fatalf("forced cancel should succeed: %v", err)
	}
}

func TestCancel_OutsideNoticeWindow(t *testing.T) {
	f := newFixture()
	appt := f.book(t, "10:00")

	// 3 days before start
	f.svc.now = func() time.Time { return monday.AddDate(0, 0, -3) }
	if _, err := f.svc.Cancel(context.Background(), appt.ID, "plans changed", "client-1", false); err != nil {
		t.Fatalf("cancel well in advance should succeed: %v", err)
	}
}

func TestMarkNoShow(t *testing.T) {
	f := newFixture()
	appt := f.book(t, "10:00")

	marked, err := f.svc.MarkNoShow(context.Background(), appt.ID, "staff-1")
	if err != nil {
		t.Fatal(err)
	}
	if marked.Status != StatusNoShow {
		t.Errorf("status = %s, want no_show", marked.Status)
	}
	if got := f.history.count(appt.ID, EventNoShow); got != 1 {
		t.Errorf("no_show history entries = %d, want 1", got)
	}
}

// -- reschedule --

func TestReschedule(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")
	f.book(t, "11:00")

	// moving onto the other booking conflicts
	clash := "11:15"
	if _, err := f.svc.Reschedule(ctx, appt.ID, RescheduleInput{StartTime: &clash}, "staff-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// moving to a free slot succeeds
	free := "14:00"
	moved, err := f.svc.Reschedule(ctx, appt.ID, RescheduleInput{StartTime: &free}, "staff-1")
	if err != nil {
		t.Fatal(err)
	}
	if moved.StartTime != "14:00" {
		t.Errorf("start time = %s, want 14:00", moved.StartTime)
	}
	if got := f.history.count(appt.ID, EventRescheduled); got != 1 {
		t.Errorf("rescheduled history entries = %d, want 1", got)
	}
}

func TestReschedule_SameValuesSkipsConflictCheck(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	before := f.appts.listForDateN
	same := "10:00"
	if _, err := f.svc.Reschedule(ctx, appt.ID, RescheduleInput{StartTime: &same}, "staff-1"); err != nil {
		t.Fatal(err)
	}
	if f.appts.listForDateN != before {
		t.Error("no-op reschedule should not run the conflict guard")
	}
	if got := f.history.count(appt.ID, EventRescheduled); got != 0 {
		t.Errorf("no-op reschedule wrote %d history entries", got)
	}
}

func TestReschedule_NotSelfConflicting(t *testing.T) {
	f := newFixture()
	appt := f.book(t, "10:00")

	// shifting by 15 minutes overlaps the old position of the same
	// appointment; the exclusion makes that legal
	shifted := "10:15"
	if _, err := f.svc.Reschedule(context.Background(), appt.ID, RescheduleInput{StartTime: &shifted}, "staff-1"); err != nil {
		t.Fatalf("self-overlapping reschedule should succeed: %v", err)
	}
}

func TestReschedule_TerminalState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")
	if _, err := f.svc.Cancel(ctx, appt.ID, "done", "staff-1", true); err != nil {
		t.Fatal(err)
	}

	free := "14:00"
	if _, err := f.svc.Reschedule(ctx, appt.ID, RescheduleInput{StartTime: &free}, "staff-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// -- soft delete --

func TestDeleteAppointment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.book(t, "10:00")

	if err := f.svc.DeleteAppointment(ctx, appt.ID, "staff-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetAppointment(ctx, appt.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted appointment should be gone, got %v", err)
	}
	if got := f.history.count(appt.ID, EventDeleted); got != 1 {
		t.Errorf("deleted history entries = %d, want 1", got)
	}

	// the slot is free again
	f.book(t, "10:00")
}

// -- blocks --

func TestCreateBlock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	start := monday.Add(9 * time.Hour)
	if _, err := f.svc.CreateBlock(ctx, f.profID, start, start, "zero"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("zero-length block: expected ErrInvalidRange, got %v", err)
	}
	if _, err := f.svc.CreateBlock(ctx, f.profID, start, start.Add(-time.Hour), "inverted"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("inverted block: expected ErrInvalidRange, got %v", err)
	}

	result, err := f.svc.CreateBlock(ctx, f.profID, start, start.Add(time.Hour), "meeting")
	if err != nil {
		t.Fatal(err)
	}
	if result.Block.Reason != "meeting" {
		t.Errorf("reason = %q", result.Block.Reason)
	}
	if len(result.StrandedAppointmentIDs) != 0 {
		t.Errorf("unexpected stranded appointments: %v", result.StrandedAppointmentIDs)
	}
}

func TestCreateBlock_ReportsStranded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inside := f.book(t, "09:30")
	f.book(t, "11:00") // outside the block

	result, err := f.svc.CreateBlock(ctx, f.profID, monday.Add(9*time.Hour), monday.Add(10*time.Hour), "emergency")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.StrandedAppointmentIDs) != 1 || result.StrandedAppointmentIDs[0] != inside.ID {
		t.Errorf("stranded = %v, want [%s]", result.StrandedAppointmentIDs, inside.ID)
	}
}

func TestRemoveBlock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.CreateBlock(ctx, f.profID, monday.Add(9*time.Hour), monday.Add(10*time.Hour), "meeting")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.RemoveBlock(ctx, result.Block.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.RemoveBlock(ctx, result.Block.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing a removed block: expected ErrNotFound, got %v", err)
	}

	// capacity is restored
	slots, err := f.svc.ComputeSlots(ctx, f.profID, monday, 0)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range slots {
		if s == "09:00" {
			found = true
		}
	}
	if !found {
		t.Error("expected 09:00 back after block removal")
	}
}

// -- working hours --

func TestReplaceWorkingHours_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name    string
		entries []*WorkingHoursEntry
	}{
		{"day out of range", []*WorkingHoursEntry{{DayOfWeek: 7, StartTime: "08:00", EndTime: "12:00", IsAvailable: true}}},
		{"duplicate day", []*WorkingHoursEntry{
			{DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00", IsAvailable: true},
			{DayOfWeek: 1, StartTime: "13:00", EndTime: "17:00", IsAvailable: true},
		}},
		{"inverted window", []*WorkingHoursEntry{{DayOfWeek: 1, StartTime: "12:00", EndTime: "08:00", IsAvailable: true}}},
		{"bad clock", []*WorkingHoursEntry{{DayOfWeek: 1, StartTime: "morning", EndTime: "12:00", IsAvailable: true}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := f.svc.ReplaceWorkingHours(ctx, f.profID, tc.entries); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
		})
	}

	// unavailable days skip the window check
	err := f.svc.ReplaceWorkingHours(ctx, f.profID, []*WorkingHoursEntry{
		{DayOfWeek: 0, IsAvailable: false},
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "16:00", IsAvailable: true},
	})
	if err != nil {
		t.Fatalf("valid replace failed: %v", err)
	}

	entries, err := f.svc.WeeklySchedule(ctx, f.profID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("weekly schedule has %d entries, want 2", len(entries))
	}
}
