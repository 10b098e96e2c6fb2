package record

import (
	"context"
	"errors"
	"fmt"

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

const recCols = `id, patient_id, doctor_id, appointment_id, diagnosis, symptoms,
	treatment_plan, notes, vital_signs, confidential, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_record (
			id, patient_id, doctor_id, appointment_id, diagnosis, symptoms,
			treatment_plan, notes, vital_signs, confidential, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.PatientID, m.DoctorID, m.AppointmentID, m.Diagnosis, m.Symptoms,
		m.TreatmentPlan, m.Notes, m.VitalSigns, m.Confidential, m.Active,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	m, err := scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recCols+` FROM medical_record WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (r *repoPG) Update(ctx context.Context, m *MedicalRecord) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_record SET
			diagnosis=$2, symptoms=$3, treatment_plan=$4, notes=$5,
			vital_signs=$6, confidential=$7, active=$8, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Diagnosis, m.Symptoms, m.TreatmentPlan, m.Notes,
		m.VitalSigns, m.Confidential, m.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q ListQuery, limit, offset int) ([]*MedicalRecord, int, error) {
	if q.Filter.Empty() {
		return nil, 0, nil
	}

	where := "1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Filter.Scope == auth.ScopeOwn && q.Filter.PatientID != nil {
		where += " AND patient_id = " + arg(*q.Filter.PatientID)
	}
	if q.PatientID != nil {
		where += " AND patient_id = " + arg(*q.PatientID)
	}
	if q.DoctorID != nil {
		where += " AND doctor_id = " + arg(*q.DoctorID)
	}
	if q.ActiveOnly {
		where += " AND active"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_record WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recCols+` FROM medical_record WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, m)
	}
	return recs, total, rows.Err()
}

const rxCols = `id, medical_record_id, doctor_id, medication, dosage, frequency,
	duration_days, instructions, active, created_at, updated_at`

func (r *repoPG) CreatePrescription(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (
			id, medical_record_id, doctor_id, medication, dosage, frequency,
			duration_days, instructions, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.MedicalRecordID, p.DoctorID, p.Medication, p.Dosage, p.Frequency,
		p.DurationDays, p.Instructions, p.Active,
	)
	return err
}

func (r *repoPG) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPrescriptionNotFound
	}
	return p, err
}

func (r *repoPG) UpdatePrescription(ctx context.Context, p *Prescription) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET
			medication=$2, dosage=$3, frequency=$4, duration_days=$5,
			instructions=$6, active=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Medication, p.Dosage, p.Frequency, p.DurationDays,
		p.Instructions, p.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}

func (r *repoPG) ListPrescriptions(ctx context.Context, recordID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE medical_record_id = $1 ORDER BY created_at`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rxs []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		rxs = append(rxs, p)
	}
	return rxs, rows.Err()
}

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(
		&m.ID, &m.PatientID, &m.DoctorID, &m.AppointmentID, &m.Diagnosis, &m.Symptoms,
		&m.TreatmentPlan, &m.Notes, &m.VitalSigns, &m.Confidential, &m.Active,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID, &p.MedicalRecordID, &p.DoctorID, &p.Medication, &p.Dosage, &p.Frequency,
		&p.DurationDays, &p.Instructions, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
