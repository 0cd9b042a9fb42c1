package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/vetdesk/vetdesk/internal/domain/scheduling"
)

// Recorder adapts the history store to the scheduling core's
// HistoryRecorder collaborator, marshaling snapshots once at this boundary.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

var _ scheduling.HistoryRecorder = (*Recorder)(nil)

func (r *Recorder) Record(ctx context.Context, appointmentID uuid.UUID, eventType string, oldData, newData interface{}, actorID string) error {
	e := &Entry{
		AppointmentID: appointmentID,
		EventType:     eventType,
		ActorID:       actorID,
	}

	if oldData != nil {
		raw, err := json.Marshal(oldData)
		if err != nil {
			return fmt.Errorf("marshal old snapshot: %w", err)
		}
		e.OldData = raw
	}
	if newData != nil {
		raw, err := json.Marshal(newData)
		if err != nil {
			return fmt.Errorf("marshal new snapshot: %w", err)
		}
		e.NewData = raw
	}

	return r.repo.Append(ctx, e)
}
