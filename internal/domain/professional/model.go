package professional

import (
	"time"

	"github.com/google/uuid"
)

// Professional is a clinic staff member with a bookable schedule.
// Specialties are stored as a jsonb column and decoded once at the
// repository boundary.
type Professional struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Specialties []string  `json:"specialties"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
