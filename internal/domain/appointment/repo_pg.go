package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, appointment_date, appointment_time,
	duration_minutes, reason, status, notes, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (
			id, patient_id, doctor_id, appointment_date, appointment_time,
			duration_minutes, reason, status, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.StartTime,
		a.DurationMinutes, a.Reason, a.Status, a.Notes,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &ConflictError{}
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET
			patient_id=$2, doctor_id=$3, appointment_date=$4, appointment_time=$5,
			duration_minutes=$6, reason=$7, status=$8, notes=$9, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.StartTime,
		a.DurationMinutes, a.Reason, a.Status, a.Notes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &ConflictError{}
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q ListQuery, limit, offset int) ([]*Appointment, int, error) {
	if q.Filter.Empty() {
		return nil, 0, nil
	}

	where := "1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Filter.Scope == auth.ScopeOwn {
		switch {
		case q.Filter.DoctorID != nil && q.Filter.PatientID != nil:
			where += fmt.Sprintf(" AND (doctor_id = %s OR patient_id = %s)", arg(*q.Filter.DoctorID), arg(*q.Filter.PatientID))
		case q.Filter.DoctorID != nil:
			where += " AND doctor_id = " + arg(*q.Filter.DoctorID)
		case q.Filter.PatientID != nil:
			where += " AND patient_id = " + arg(*q.Filter.PatientID)
		}
	}
	if q.DoctorID != nil {
		where += " AND doctor_id = " + arg(*q.DoctorID)
	}
	if q.PatientID != nil {
		where += " AND patient_id = " + arg(*q.PatientID)
	}
	if q.Date != nil {
		where += " AND appointment_date = " + arg(*q.Date)
	}
	if q.FromDate != nil {
		where += " AND appointment_date >= " + arg(*q.FromDate)
	}
	if q.Status != "" {
		where += " AND status = " + arg(q.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE `+where+
			fmt.Sprintf(` ORDER BY appointment_date, appointment_time LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAppts(rows, total)
}

func (r *repoPG) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE doctor_id = $1 AND appointment_date = $2 ORDER BY appointment_time`,
		doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		var a Appointment
		if err := scanApptInto(rows, &a); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func (r *repoPG) LockDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) error {
	key := fmt.Sprintf("appt:%s:%s", doctorID, date.Format("2006-01-02"))
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

func (r *repoPG) CountByStatus(ctx context.Context, from time.Time) (map[Status]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM appointment WHERE appointment_date >= $1 GROUP BY status`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[Status]int{}
	for rows.Next() {
		var st Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := scanApptInto(row, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanApptInto(row pgx.Row, a *Appointment) error {
	return row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.StartTime,
		&a.DurationMinutes, &a.Reason, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
}

func collectAppts(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var appts []*Appointment
	for rows.Next() {
		var a Appointment
		if err := scanApptInto(rows, &a); err != nil {
			return nil, 0, err
		}
		appts = append(appts, &a)
	}
	return appts, total, rows.Err()
}
