package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetdesk/vetdesk/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

// The clinic_config table lives in the tenant schema, so the singleton row
// needs no tenant column; the search_path scopes it.
func (r *repoPG) Get(ctx context.Context) (*ClinicConfig, error) {
	var cfg ClinicConfig
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT default_duration_minutes, slot_interval_minutes, cancellation_hours, updated_at
		FROM clinic_config LIMIT 1`).
		Scan(&cfg.DefaultDurationMinutes, &cfg.SlotIntervalMinutes, &cfg.CancellationHours, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repoPG) Put(ctx context.Context, cfg *ClinicConfig) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinic_config (singleton, default_duration_minutes, slot_interval_minutes, cancellation_hours, updated_at)
		VALUES (TRUE, $1, $2, $3, NOW())
		ON CONFLICT (singleton) DO UPDATE SET
			default_duration_minutes = EXCLUDED.default_duration_minutes,
			slot_interval_minutes = EXCLUDED.slot_interval_minutes,
			cancellation_hours = EXCLUDED.cancellation_hours,
			updated_at = NOW()`,
		cfg.DefaultDurationMinutes, cfg.SlotIntervalMinutes, cfg.CancellationHours)
	return err
}
