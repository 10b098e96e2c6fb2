package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ApplyPayment records a payment against the invoice, mutating its
// amounts and derived status. The rules are deliberately strict:
//
//   - the amount must be strictly positive
//   - a payment may never push paid_amount past total_amount; the
//     caller must split an overpayment into an exact payment and a
//     separate credit, it is never clamped silently
//   - cancelled and fully paid invoices accept no further payments
//
// PaymentDate is set exactly once, when the invoice first becomes paid.
func ApplyPayment(inv *Invoice, amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if inv.Status == StatusCancelled || inv.Status == StatusPaid {
		return fmt.Errorf("%w: status %s", ErrClosed, inv.Status)
	}
	if amount.GreaterThan(inv.Balance()) {
		return fmt.Errorf("%w: amount %s, balance %s", ErrOverPayment, amount, inv.Balance())
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount)

	if inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount) {
		inv.Status = StatusPaid
		if inv.PaymentDate == nil {
			t := now
			inv.PaymentDate = &t
		}
	} else if inv.PaidAmount.IsPositive() {
		inv.Status = StatusPartial
	}
	return nil
}
