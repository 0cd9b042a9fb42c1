package settings

import (
	"context"
	"fmt"

	"github.com/vetdesk/vetdesk/internal/domain/scheduling"
)

// Fallbacks are the process-wide defaults used for tenants that have not
// saved settings yet; they come from the server configuration.
type Fallbacks struct {
	DefaultDurationMinutes int
	SlotIntervalMinutes    int
	CancellationHours      int
}

// Service reads and writes per-tenant clinic settings and implements the
// scheduling core's ConfigProvider.
type Service struct {
	repo      Repository
	fallbacks Fallbacks
}

func NewService(repo Repository, fallbacks Fallbacks) *Service {
	return &Service{repo: repo, fallbacks: fallbacks}
}

// Get returns the tenant's settings, falling back to the configured
// defaults when no row exists.
func (s *Service) Get(ctx context.Context) (*ClinicConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &ClinicConfig{
			DefaultDurationMinutes: s.fallbacks.DefaultDurationMinutes,
			SlotIntervalMinutes:    s.fallbacks.SlotIntervalMinutes,
			CancellationHours:      s.fallbacks.CancellationHours,
		}
	}
	return cfg, nil
}

func (s *Service) Put(ctx context.Context, cfg *ClinicConfig) error {
	if cfg.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("default_duration_minutes must be positive")
	}
	if cfg.SlotIntervalMinutes <= 0 {
		return fmt.Errorf("slot_interval_minutes must be positive")
	}
	if cfg.CancellationHours < 0 {
		return fmt.Errorf("cancellation_hours must not be negative")
	}
	return s.repo.Put(ctx, cfg)
}

// SchedulingDefaults implements scheduling.ConfigProvider.
func (s *Service) SchedulingDefaults(ctx context.Context) (scheduling.SchedulingDefaults, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return scheduling.SchedulingDefaults{}, err
	}
	return scheduling.SchedulingDefaults{
		DefaultDurationMinutes: cfg.DefaultDurationMinutes,
		SlotIntervalMinutes:    cfg.SlotIntervalMinutes,
		CancellationHours:      cfg.CancellationHours,
	}, nil
}
