package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WorkingHoursRepository stores the recurring weekly schedule. The weekly
// set is replaced wholesale on update.
type WorkingHoursRepository interface {
	Replace(ctx context.Context, professionalID uuid.UUID, entries []*WorkingHoursEntry) error
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*WorkingHoursEntry, error)
	// GetByDay returns (nil, nil) when no entry exists for that weekday.
	GetByDay(ctx context.Context, professionalID uuid.UUID, dayOfWeek int) (*WorkingHoursEntry, error)
}

// BlockRepository stores ad-hoc exclusion ranges.
type BlockRepository interface {
	Create(ctx context.Context, b *ScheduleBlock) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduleBlock, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForDate returns blocks whose range intersects the calendar date.
	ListForDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]*ScheduleBlock, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, limit, offset int) ([]*ScheduleBlock, int, error)
}

// AppointmentRepository stores bookings. CreateIfFree and UpdateIfFree must
// re-check for overlap atomically with the write and return ErrConflict
// without writing when the slot is taken; this is the storage-level leg of
// the double-booking defense.
type AppointmentRepository interface {
	CreateIfFree(ctx context.Context, a *Appointment) error
	UpdateIfFree(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Appointment, error)
	SoftDelete(ctx context.Context, id uuid.UUID, when time.Time) error
	ListForDate(ctx context.Context, professionalID uuid.UUID, date time.Time, includeDeleted bool) ([]*Appointment, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}

// ConfigProvider supplies the tenant's scheduling defaults. The tenant is
// carried in the context.
type ConfigProvider interface {
	SchedulingDefaults(ctx context.Context) (SchedulingDefaults, error)
}

// HistoryRecorder appends one audit entry per lifecycle transition.
type HistoryRecorder interface {
	Record(ctx context.Context, appointmentID uuid.UUID, eventType string, oldData, newData interface{}, actorID string) error
}

// ProfessionalDirectory resolves professional references. Lookup returns
// nil when the professional exists in the caller's tenant,
// ErrProfessionalNotFound when it does not exist, and ErrTenantMismatch
// when it is registered to another clinic.
type ProfessionalDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) error
}
