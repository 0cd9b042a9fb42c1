package client

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	Update(ctx context.Context, c *Client) error
	List(ctx context.Context, search string, limit, offset int) ([]*Client, int, error)
}

type PetRepository interface {
	Create(ctx context.Context, p *Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pet, error)
	Update(ctx context.Context, p *Pet) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Pet, error)
}
