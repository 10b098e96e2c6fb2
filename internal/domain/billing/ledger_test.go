package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func invoice(total string) *Invoice {
	return &Invoice{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		TotalAmount: money(total),
		PaidAmount:  decimal.Zero,
		Status:      StatusPending,
	}
}

var now = time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)

func TestApplyPayment_PartialThenSettled(t *testing.T) {
	inv := invoice("100.00")

	if err := ApplyPayment(inv, money("60.00"), now); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if inv.Status != StatusPartial {
		t.Errorf("after 60/100: status = %s, want partial", inv.Status)
	}
	if !inv.Balance().Equal(money("40.00")) {
		t.Errorf("after 60/100: balance = %s, want 40.00", inv.Balance())
	}
	if inv.PaymentDate != nil {
		t.Error("payment_date set before the invoice is settled")
	}

	if err := ApplyPayment(inv, money("40.00"), now); err != nil {
		t.Fatalf("settling payment failed: %v", err)
	}
	if inv.Status != StatusPaid {
		t.Errorf("after 100/100: status = %s, want paid", inv.Status)
	}
	if !inv.Balance().IsZero() {
		t.Errorf("after 100/100: balance = %s, want 0", inv.Balance())
	}
	if inv.PaymentDate == nil || !inv.PaymentDate.Equal(now) {
		t.Errorf("payment_date = %v, want %v", inv.PaymentDate, now)
	}
}

func TestApplyPayment_RejectsNonPositiveAmounts(t *testing.T) {
	inv := invoice("100.00")

	for _, amount := range []string{"0", "-5.00"} {
		if err := ApplyPayment(inv, money(amount), now); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %s: got %v, want ErrInvalidAmount", amount, err)
		}
	}
	if !inv.PaidAmount.IsZero() || inv.Status != StatusPending {
		t.Errorf("rejected payments mutated the invoice: %s paid, status %s", inv.PaidAmount, inv.Status)
	}
}

func TestApplyPayment_OverpaymentNeverClamped(t *testing.T) {
	inv := invoice("100.00")
	if err := ApplyPayment(inv, money("60.00"), now); err != nil {
		t.Fatalf("setup payment failed: %v", err)
	}

	err := ApplyPayment(inv, money("40.01"), now)
	if !errors.Is(err, ErrOverPayment) {
		t.Fatalf("overpayment: got %v, want ErrOverPayment", err)
	}
	if !inv.PaidAmount.Equal(money("60.00")) {
		t.Errorf("overpayment mutated paid_amount to %s", inv.PaidAmount)
	}
}

func TestApplyPayment_ClosedInvoices(t *testing.T) {
	paid := invoice("50.00")
	if err := ApplyPayment(paid, money("50.00"), now); err != nil {
		t.Fatalf("settling payment failed: %v", err)
	}
	if err := ApplyPayment(paid, money("1.00"), now); !errors.Is(err, ErrClosed) {
		t.Errorf("paying a settled invoice: got %v, want ErrClosed", err)
	}

	cancelled := invoice("50.00")
	cancelled.Status = StatusCancelled
	if err := ApplyPayment(cancelled, money("1.00"), now); !errors.Is(err, ErrClosed) {
		t.Errorf("paying a cancelled invoice: got %v, want ErrClosed", err)
	}
}

func TestApplyPayment_PaymentDateSetOnce(t *testing.T) {
	inv := invoice("10.00")
	if err := ApplyPayment(inv, money("10.00"), now); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	first := *inv.PaymentDate

	// Force the invoice back open the way an administrative correction
	// would, then settle it again later.
	inv.Status = StatusPartial
	inv.PaidAmount = money("5.00")
	later := now.Add(48 * time.Hour)
	if err := ApplyPayment(inv, money("5.00"), later); err != nil {
		t.Fatalf("second settlement failed: %v", err)
	}
	if !inv.PaymentDate.Equal(first) {
		t.Errorf("payment_date moved from %v to %v", first, inv.PaymentDate)
	}
}

func TestApplyPayment_OverdueBecomesPartial(t *testing.T) {
	inv := invoice("100.00")
	inv.Status = StatusOverdue

	if err := ApplyPayment(inv, money("25.00"), now); err != nil {
		t.Fatalf("payment on overdue invoice failed: %v", err)
	}
	if inv.Status != StatusPartial {
		t.Errorf("status = %s, want partial", inv.Status)
	}
}
