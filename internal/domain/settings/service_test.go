package settings

import (
	"context"
	"testing"
)

type mockRepo struct {
	cfg *ClinicConfig
}

func (m *mockRepo) Get(context.Context) (*ClinicConfig, error) { return m.cfg, nil }
func (m *mockRepo) Put(_ context.Context, cfg *ClinicConfig) error {
	cp := *cfg
	m.cfg = &cp
	return nil
}

var fallbacks = Fallbacks{DefaultDurationMinutes: 30, SlotIntervalMinutes: 30, CancellationHours: 24}

func TestGet_Fallbacks(t *testing.T) {
	svc := NewService(&mockRepo{}, fallbacks)

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultDurationMinutes != 30 || cfg.SlotIntervalMinutes != 30 || cfg.CancellationHours != 24 {
		t.Errorf("expected fallback settings, got %+v", cfg)
	}
}

func TestPut_Validation(t *testing.T) {
	svc := NewService(&mockRepo{}, fallbacks)
	ctx := context.Background()

	bad := []*ClinicConfig{
		{DefaultDurationMinutes: 0, SlotIntervalMinutes: 30, CancellationHours: 24},
		{DefaultDurationMinutes: 30, SlotIntervalMinutes: -15, CancellationHours: 24},
		{DefaultDurationMinutes: 30, SlotIntervalMinutes: 30, CancellationHours: -1},
	}
	for _, cfg := range bad {
		if err := svc.Put(ctx, cfg); err == nil {
			t.Errorf("expected validation error for %+v", cfg)
		}
	}

	good := &ClinicConfig{DefaultDurationMinutes: 45, SlotIntervalMinutes: 15, CancellationHours: 48}
	if err := svc.Put(ctx, good); err != nil {
		t.Fatal(err)
	}

	defaults, err := svc.SchedulingDefaults(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if defaults.DefaultDurationMinutes != 45 || defaults.SlotIntervalMinutes != 15 || defaults.CancellationHours != 48 {
		t.Errorf("scheduling defaults do not reflect saved settings: %+v", defaults)
	}
}
