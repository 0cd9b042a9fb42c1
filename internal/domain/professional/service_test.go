package professional

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	items map[uuid.UUID]*Professional
}

func newMockRepo() *mockRepo { return &mockRepo{items: make(map[uuid.UUID]*Professional)} }

func (m *mockRepo) Create(_ context.Context, p *Professional) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Professional, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, p *Professional) error {
	if _, ok := m.items[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	p.Active = false
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Professional, int, error) {
	var out []*Professional
	for _, p := range m.items {
		if activeOnly && !p.Active {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, &Professional{Email: "vet@clinic.test"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.Create(ctx, &Professional{Name: "Dr. Reyes"}); err == nil {
		t.Error("expected error for missing email")
	}

	p := &Professional{Name: "Dr. Reyes", Email: "reyes@clinic.test", Specialties: []string{"surgery"}}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if !p.Active {
		t.Error("new professionals should start active")
	}
}

func TestDeactivate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p := &Professional{Name: "Dr. Okafor", Email: "okafor@clinic.test"}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := svc.Deactivate(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Error("expected professional to be inactive")
	}

	active, _, err := svc.List(ctx, true, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Errorf("active-only list should be empty, got %d", len(active))
	}
}
