package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
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

type transactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// uniqueViolation is the postgres error code raised by the partial unique
// index on (professional_id, date, start_time); it backs the conflict
// defense when several server instances share the database.
const uniqueViolation = "23505"

// =========== Working Hours Repository ===========

type workingHoursRepoPG struct{ pool *pgxpool.Pool }

func NewWorkingHoursRepoPG(pool *pgxpool.Pool) WorkingHoursRepository {
	return &workingHoursRepoPG{pool: pool}
}

func (r *workingHoursRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *workingHoursRepoPG) begin(ctx context.Context) (pgx.Tx, error) {
	if c := db.ConnFromContext(ctx); c != nil {
		return c.Begin(ctx)
	}
	return r.pool.Begin(ctx)
}

const whCols = `professional_id, day_of_week, start_time, end_time, is_available`

func (r *workingHoursRepoPG) scanEntry(row pgx.Row) (*WorkingHoursEntry, error) {
	var e WorkingHoursEntry
	err := row.Scan(&e.ProfessionalID, &e.DayOfWeek, &e.StartTime, &e.EndTime, &e.IsAvailable)
	return &e, err
}

func (r *workingHoursRepoPG) Replace(ctx context.Context, professionalID uuid.UUID, entries []*WorkingHoursEntry) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM working_hours WHERE professional_id = $1`, professionalID); err != nil {
		return err
	}
	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO working_hours (professional_id, day_of_week, start_time, end_time, is_available)
			VALUES ($1,$2,$3,$4,$5)`,
			professionalID, e.DayOfWeek, e.StartTime, e.EndTime, e.IsAvailable)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *workingHoursRepoPG) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]*WorkingHoursEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+whCols+` FROM working_hours WHERE professional_id = $1 ORDER BY day_of_week`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*WorkingHoursEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *workingHoursRepoPG) GetByDay(ctx context.Context, professionalID uuid.UUID, dayOfWeek int) (*WorkingHoursEntry, error) {
	e, err := r.scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+whCols+` FROM working_hours WHERE professional_id = $1 AND day_of_week = $2`,
		professionalID, dayOfWeek))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// =========== Block Repository ===========

type blockRepoPG struct{ pool *pgxpool.Pool }

func NewBlockRepoPG(pool *pgxpool.Pool) BlockRepository { return &blockRepoPG{pool: pool} }

func (r *blockRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const blockCols = `id, professional_id, starts_at, ends_at, reason, created_at`

func (r *blockRepoPG) scanBlock(row pgx.Row) (*ScheduleBlock, error) {
	var b ScheduleBlock
	err := row.Scan(&b.ID, &b.ProfessionalID, &b.StartsAt, &b.EndsAt, &b.Reason, &b.CreatedAt)
	return &b, err
}

func (r *blockRepoPG) Create(ctx context.Context, b *ScheduleBlock) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule_block (id, professional_id, starts_at, ends_at, reason)
		VALUES ($1,$2,$3,$4,$5)`,
		b.ID, b.ProfessionalID, b.StartsAt, b.EndsAt, b.Reason)
	return err
}

func (r *blockRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleBlock, error) {
	b, err := r.scanBlock(r.conn(ctx).QueryRow(ctx, `SELECT `+blockCols+` FROM schedule_block WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *blockRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_block WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *blockRepoPG) ListForDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]*ScheduleBlock, error) {
	dayStart, dayEnd := dayBounds(date)
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_block
		WHERE professional_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at`,
		professionalID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []*ScheduleBlock
	for rows.Next() {
		b, err := r.scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *blockRepoPG) ListByProfessional(ctx context.Context, professionalID uuid.UUID, limit, offset int) ([]*ScheduleBlock, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM schedule_block WHERE professional_id = $1`, professionalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+blockCols+` FROM schedule_block
		WHERE professional_id = $1 ORDER BY starts_at DESC LIMIT $2 OFFSET $3`,
		professionalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var blocks []*ScheduleBlock
	for rows.Next() {
		b, err := r.scanBlock(rows)
		if err != nil {
			return nil, 0, err
		}
		blocks = append(blocks, b)
	}
	return blocks, total, rows.Err()
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *appointmentRepoPG) begin(ctx context.Context) (pgx.Tx, error) {
	var t transactor = r.pool
	if c := db.ConnFromContext(ctx); c != nil {
		t = c
	}
	return t.Begin(ctx)
}

const apptCols = `id, professional_id, client_id, pet_id, date, start_time, duration_minutes,
	status, notes, cancellation_reason, cancelled_by, cancelled_at,
	confirmed_by, confirmed_at, completed_by, completed_at,
	created_at, updated_at, deleted_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ProfessionalID, &a.ClientID, &a.PetID, &a.Date, &a.StartTime, &a.DurationMinutes,
		&a.Status, &a.Notes, &a.CancellationReason, &a.CancelledBy, &a.CancelledAt,
		&a.ConfirmedBy, &a.ConfirmedAt, &a.CompletedBy, &a.CompletedAt,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	return &a, err
}

// lockDaySpans locks the professional's blocking rows for the date inside
// the transaction and returns their occupied intervals. The row locks hold
// until commit, so a concurrent booking on another connection waits here
// and then sees the inserted row.
func lockDaySpans(ctx context.Context, tx pgx.Tx, professionalID uuid.UUID, date time.Time, excludeID uuid.UUID) ([]span, error) {
	rows, err := tx.Query(ctx, `
		SELECT start_time, duration_minutes FROM appointment
		WHERE professional_id = $1 AND date = $2
		  AND status IN ('scheduled','confirmed') AND deleted_at IS NULL
		  AND id <> $3
		FOR UPDATE`,
		professionalID, date, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spans []span
	for rows.Next() {
		var startTime string
		var duration int
		if err := rows.Scan(&startTime, &duration); err != nil {
			return nil, err
		}
		start, err := ParseClock(startTime)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span{start: start, end: start + duration})
	}
	return spans, rows.Err()
}

func (r *appointmentRepoPG) CreateIfFree(ctx context.Context, a *Appointment) error {
	candidate, err := a.Span()
	if err != nil {
		return err
	}

	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	taken, err := lockDaySpans(ctx, tx, a.ProfessionalID, a.Date, uuid.Nil)
	if err != nil {
		return err
	}
	for _, s := range taken {
		if candidate.overlaps(s) {
			return ErrConflict
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment (id, professional_id, client_id, pet_id, date, start_time,
			duration_minutes, status, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.ProfessionalID, a.ClientID, a.PetID, a.Date, a.StartTime,
		a.DurationMinutes, a.Status, a.Notes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return translateUnique(err)
	}

	return tx.Commit(ctx)
}

func (r *appointmentRepoPG) UpdateIfFree(ctx context.Context, a *Appointment) error {
	candidate, err := a.Span()
	if err != nil {
		return err
	}

	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	taken, err := lockDaySpans(ctx, tx, a.ProfessionalID, a.Date, a.ID)
	if err != nil {
		return err
	}
	for _, s := range taken {
		if candidate.overlaps(s) {
			return ErrConflict
		}
	}

	if err := execUpdate(ctx, tx, a); err != nil {
		return translateUnique(err)
	}

	return tx.Commit(ctx)
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	return execUpdate(ctx, r.conn(ctx), a)
}

func execUpdate(ctx context.Context, q queryable, a *Appointment) error {
	tag, err := q.Exec(ctx, `
		UPDATE appointment SET date=$2, start_time=$3, duration_minutes=$4, status=$5, notes=$6,
			cancellation_reason=$7, cancelled_by=$8, cancelled_at=$9,
			confirmed_by=$10, confirmed_at=$11, completed_by=$12, completed_at=$13,
			updated_at=$14
		WHERE id = $1 AND deleted_at IS NULL`,
		a.ID, a.Date, a.StartTime, a.DurationMinutes, a.Status, a.Notes,
		a.CancellationReason, a.CancelledBy, a.CancelledAt,
		a.ConfirmedBy, a.ConfirmedAt, a.CompletedBy, a.CompletedAt,
		a.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Appointment, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	a, err := r.scanAppointment(r.conn(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepoPG) SoftDelete(ctx context.Context, id uuid.UUID, when time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, when)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) ListForDate(ctx context.Context, professionalID uuid.UUID, date time.Time, includeDeleted bool) ([]*Appointment, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE professional_id = $1 AND date = $2`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY start_time`

	rows, err := r.conn(ctx).Query(ctx, query, professionalID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *appointmentRepoPG) ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE professional_id = $1 AND deleted_at IS NULL`
	args := []interface{}{professionalID}
	idx := 2

	if from != nil {
		where += fmt.Sprintf(` AND date >= $%d`, idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		where += fmt.Sprintf(` AND date <= $%d`, idx)
		args = append(args, *to)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + ` FROM appointment` + where +
		fmt.Sprintf(` ORDER BY date, start_time LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}

func (r *appointmentRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE client_id = $1 AND deleted_at IS NULL`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE client_id = $1 AND deleted_at IS NULL
		ORDER BY date DESC, start_time DESC LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appts []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, total, rows.Err()
}
