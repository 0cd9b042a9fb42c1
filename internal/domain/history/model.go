package history

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only audit record for an appointment. OldData is null
// for creation events; snapshots are stored as jsonb.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	AppointmentID uuid.UUID       `json:"appointment_id"`
	EventType     string          `json:"event_type"`
	OldData       json.RawMessage `json:"old_data,omitempty"`
	NewData       json.RawMessage `json:"new_data,omitempty"`
	ActorID       string          `json:"actor_id"`
	CreatedAt     time.Time       `json:"created_at"`
}
