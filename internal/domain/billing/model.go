package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses. pending, partial and paid are derived from the
// amounts by the ledger; overdue and cancelled are set administratively
// and never inferred.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusPartial:   true,
	StatusPaid:      true,
	StatusOverdue:   true,
	StatusCancelled: true,
}

var (
	ErrNotFound      = errors.New("invoice not found")
	ErrInvalidStatus = errors.New("invalid invoice status")
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrOverPayment   = errors.New("payment exceeds outstanding balance")
	ErrClosed        = errors.New("invoice no longer accepts payments")
)

type Invoice struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Description   string     `db:"description" json:"description"`

	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount  decimal.Decimal `db:"paid_amount" json:"paid_amount"`

	Status  Status     `db:"status" json:"status"`
	DueDate *time.Time `db:"due_date" json:"due_date,omitempty"`

	// PaymentMethod records the method of the most recent payment. It is
	// informational; the status machine never reads it.
	PaymentMethod string `db:"payment_method" json:"payment_method,omitempty"`

	PaymentDate *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Balance is the amount still owed.
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

func (i *Invoice) Validate() error {
	if i.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if i.TotalAmount.IsNegative() {
		return fmt.Errorf("total_amount may not be negative")
	}
	if i.PaidAmount.IsNegative() {
		return fmt.Errorf("paid_amount may not be negative")
	}
	if i.Status != "" && !validStatuses[i.Status] {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, i.Status)
	}
	return nil
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
	}
	return st, nil
}

// Payment is one ledger entry against an invoice.
type Payment struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	InvoiceID uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Method    string          `db:"method" json:"method,omitempty"`
	Reference string          `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
