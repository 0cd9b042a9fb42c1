package settings

import "context"

type Repository interface {
	// Get returns (nil, nil) when the tenant has no settings row yet.
	Get(ctx context.Context) (*ClinicConfig, error)
	Put(ctx context.Context, cfg *ClinicConfig) error
}
