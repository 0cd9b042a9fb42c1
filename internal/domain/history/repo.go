package history

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Entry, error)
}
