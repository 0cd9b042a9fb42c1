package settings

import "time"

// ClinicConfig is the tenant's scheduling configuration: one row per
// clinic, created lazily on first write.
type ClinicConfig struct {
	DefaultDurationMinutes int       `json:"default_duration_minutes"`
	SlotIntervalMinutes    int       `json:"slot_interval_minutes"`
	CancellationHours      int       `json:"cancellation_hours"`
	UpdatedAt              time.Time `json:"updated_at"`
}
