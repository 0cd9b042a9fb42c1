package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetdesk/vetdesk/internal/platform/db"
)

var ErrNotFound = errors.New("not found")

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Client Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const clientCols = `id, name, email, phone, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO client (id, name, email, phone) VALUES ($1,$2,$3,$4)`,
		c.ID, c.Name, c.Email, c.Phone)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, err := scanClient(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+clientCols+` FROM client WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repoPG) Update(ctx context.Context, c *Client) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE client SET name=$2, email=$3, phone=$4, updated_at=NOW() WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, search string, limit, offset int) ([]*Client, int, error) {
	where := ``
	args := []interface{}{}
	if search != "" {
		where = ` WHERE name ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM client`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + clientCols + ` FROM client` + where +
		fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// =========== Pet Repository ===========

type petRepoPG struct{ pool *pgxpool.Pool }

func NewPetRepoPG(pool *pgxpool.Pool) PetRepository { return &petRepoPG{pool: pool} }

const petCols = `id, client_id, name, species, breed, birth_date, created_at, updated_at`

func scanPet(row pgx.Row) (*Pet, error) {
	var p Pet
	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Species, &p.Breed, &p.BirthDate, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *petRepoPG) Create(ctx context.Context, p *Pet) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO pet (id, client_id, name, species, breed, birth_date)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.ClientID, p.Name, p.Species, p.Breed, p.BirthDate)
	return err
}

func (r *petRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Pet, error) {
	p, err := scanPet(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+petCols+` FROM pet WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *petRepoPG) Update(ctx context.Context, p *Pet) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE pet SET name=$2, species=$3, breed=$4, birth_date=$5, updated_at=NOW() WHERE id = $1`,
		p.ID, p.Name, p.Species, p.Breed, p.BirthDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *petRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Pet, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT `+petCols+` FROM pet WHERE client_id = $1 ORDER BY name`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pets []*Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}
