package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

// Amounts travel as text so the numeric columns round-trip exactly.
const invCols = `id, patient_id, appointment_id, description,
	total_amount::text, paid_amount::text,
	status, due_date, payment_method, payment_date, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	if inv.Status == "" {
		inv.Status = StatusPending
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice (
			id, patient_id, appointment_id, description,
			total_amount, paid_amount, status, due_date
		) VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7,$8)`,
		inv.ID, inv.PatientID, inv.AppointmentID, inv.Description,
		inv.TotalAmount.String(), inv.PaidAmount.String(), inv.Status, inv.DueDate,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return r.get(ctx, id, "")
}

func (r *repoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *repoPG) get(ctx context.Context, id uuid.UUID, suffix string) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invCols+` FROM invoice WHERE id = $1`+suffix, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (r *repoPG) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET
			description=$2, total_amount=$3::numeric, paid_amount=$4::numeric,
			status=$5, due_date=$6, payment_method=$7, payment_date=$8, updated_at=NOW()
		WHERE id = $1`,
		inv.ID, inv.Description, inv.TotalAmount.String(), inv.PaidAmount.String(),
		inv.Status, inv.DueDate, inv.PaymentMethod, inv.PaymentDate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, q ListQuery, limit, offset int) ([]*Invoice, int, error) {
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
	if q.Status != "" {
		where += " AND status = " + arg(q.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoice WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invCols+` FROM invoice WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invs []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invs = append(invs, inv)
	}
	return invs, total, rows.Err()
}

func (r *repoPG) AddPayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice_payment (id, invoice_id, amount, method, reference)
		VALUES ($1,$2,$3::numeric,$4,$5)`,
		p.ID, p.InvoiceID, p.Amount.String(), p.Method, p.Reference,
	)
	return err
}

func (r *repoPG) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, amount::text, method, reference, created_at
		FROM invoice_payment WHERE invoice_id = $1 ORDER BY created_at`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		var p Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.InvoiceID, &amount, &p.Method, &p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

func (r *repoPG) RevenueSince(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	var sum string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(paid_amount), 0)::text FROM invoice WHERE created_at >= $1 AND status <> $2`,
		from, StatusCancelled).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(sum)
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var total, paid string
	err := row.Scan(
		&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.Description,
		&total, &paid,
		&inv.Status, &inv.DueDate, &inv.PaymentMethod, &inv.PaymentDate, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inv.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if inv.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return nil, err
	}
	return &inv, nil
}
