package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	if inv.Status == "" {
		inv.Status = StatusPending
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// RecordPayment applies a payment to the invoice. The invoice row is
// locked for the duration of the transaction, so concurrent payments
// against the same invoice apply one after another and their sum is
// exact.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, method, reference string) (*Invoice, error) {
	var out *Invoice
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := ApplyPayment(inv, amount, time.Now().UTC()); err != nil {
			return err
		}
		if method != "" {
			inv.PaymentMethod = method
		}
		if err := s.repo.AddPayment(ctx, &Payment{
			InvoiceID: invoiceID,
			Amount:    amount,
			Method:    method,
			Reference: reference,
		}); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", invoiceID.String()).
		Str("amount", amount.String()).
		Str("status", string(out.Status)).
		Msg("payment recorded")
	return out, nil
}

// SetStatus applies an administrative status change. Only overdue and
// cancelled may be set this way; pending, partial and paid are derived
// from the amounts and never assigned by hand.
func (s *Service) SetStatus(ctx context.Context, invoiceID uuid.UUID, status Status) (*Invoice, error) {
	if status != StatusOverdue && status != StatusCancelled {
		return nil, fmt.Errorf("%w: %s is derived, not assignable", ErrInvalidStatus, status)
	}

	var out *Invoice
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusPaid {
			return fmt.Errorf("%w: invoice is settled", ErrClosed)
		}
		inv.Status = status
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery, limit, offset int) ([]*Invoice, int, error) {
	return s.repo.List(ctx, q, limit, offset)
}

func (s *Service) Payments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, invoiceID)
}

func (s *Service) RevenueSince(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	return s.repo.RevenueSince(ctx, from)
}
