package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	clients Repository
	pets    PetRepository
}

func NewService(clients Repository, pets PetRepository) *Service {
	return &Service{clients: clients, pets: pets}
}

func (s *Service) CreateClient(ctx context.Context, c *Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return s.clients.Create(ctx, c)
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *Service) UpdateClient(ctx context.Context, c *Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return s.clients.Update(ctx, c)
}

func (s *Service) ListClients(ctx context.Context, search string, limit, offset int) ([]*Client, int, error) {
	return s.clients.List(ctx, search, limit, offset)
}

func (s *Service) CreatePet(ctx context.Context, p *Pet) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(p.Species) == "" {
		return fmt.Errorf("species is required")
	}
	// the owner must exist
	if _, err := s.clients.GetByID(ctx, p.ClientID); err != nil {
		return err
	}
	return s.pets.Create(ctx, p)
}

func (s *Service) GetPet(ctx context.Context, id uuid.UUID) (*Pet, error) {
	return s.pets.GetByID(ctx, id)
}

func (s *Service) UpdatePet(ctx context.Context, p *Pet) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return s.pets.Update(ctx, p)
}

func (s *Service) ListPets(ctx context.Context, clientID uuid.UUID) ([]*Pet, error) {
	return s.pets.ListByClient(ctx, clientID)
}
