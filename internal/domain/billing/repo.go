package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/auth"
)

type ListQuery struct {
	Filter    auth.Filter
	PatientID *uuid.UUID
	Status    Status
}

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// GetByIDForUpdate loads the invoice with a row lock; callers run it
	// inside InTx so concurrent payments serialize per invoice.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, q ListQuery, limit, offset int) ([]*Invoice, int, error)

	AddPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)

	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	RevenueSince(ctx context.Context, from time.Time) (decimal.Decimal, error)
}
