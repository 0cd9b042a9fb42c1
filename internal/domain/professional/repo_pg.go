package professional

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetdesk/vetdesk/internal/domain/scheduling"
	"github.com/vetdesk/vetdesk/internal/platform/db"
)

var ErrNotFound = errors.New("professional not found")

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

const cols = `id, name, email, phone, specialties, active, created_at, updated_at`

// scanProfessional decodes the specialties jsonb exactly once, here; the
// rest of the code only ever sees []string.
func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	var specialties []byte
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &specialties, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(specialties) > 0 {
		if err := json.Unmarshal(specialties, &p.Specialties); err != nil {
			return nil, fmt.Errorf("decode specialties: %w", err)
		}
	}
	if p.Specialties == nil {
		p.Specialties = []string{}
	}
	return &p, nil
}

func encodeSpecialties(s []string) ([]byte, error) {
	if s == nil {
		s = []string{}
	}
	return json.Marshal(s)
}

func (r *repoPG) Create(ctx context.Context, p *Professional) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	specialties, err := encodeSpecialties(p.Specialties)
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO professional (id, name, email, phone, specialties, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Email, p.Phone, specialties, p.Active)
	if err != nil {
		return err
	}

	// The shared registry maps professional ids to tenants for
	// cross-tenant reference checks.
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.professional_registry (id, tenant_id)
		VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		p.ID, db.TenantFromContext(ctx))
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	p, err := scanProfessional(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM professional WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Professional) error {
	specialties, err := encodeSpecialties(p.Specialties)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE professional SET name=$2, email=$3, phone=$4, specialties=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, specialties, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE professional SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Professional, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM professional`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM professional`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Directory ===========

// directoryPG resolves professional references for the scheduling core via
// the shared registry, distinguishing "does not exist" from "belongs to
// another clinic".
type directoryPG struct{ pool *pgxpool.Pool }

func NewDirectoryPG(pool *pgxpool.Pool) scheduling.ProfessionalDirectory {
	return &directoryPG{pool: pool}
}

func (d *directoryPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return d.pool
}

func (d *directoryPG) Lookup(ctx context.Context, id uuid.UUID) error {
	var tenantID string
	err := d.conn(ctx).QueryRow(ctx, `SELECT tenant_id FROM shared.professional_registry WHERE id = $1`, id).Scan(&tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return scheduling.ErrProfessionalNotFound
	}
	if err != nil {
		return err
	}
	if tenantID != db.TenantFromContext(ctx) {
		return scheduling.ErrTenantMismatch
	}
	return nil
}
