package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fakeRepo keeps invoices in memory. InTx holds the lock across the
// callback, giving the same per-invoice serialization the row lock
// provides in Postgres.
type fakeRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*Invoice
	payments []*Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{invoices: map[uuid.UUID]*Invoice{}}
}

func (f *fakeRepo) Create(_ context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRepo) Update(_ context.Context, inv *Invoice) error {
	if _, ok := f.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeRepo) List(_ context.Context, q ListQuery, limit, offset int) ([]*Invoice, int, error) {
	if q.Filter.Empty() {
		return nil, 0, nil
	}
	var out []*Invoice
	for _, inv := range f.invoices {
		if q.PatientID != nil && inv.PatientID != *q.PatientID {
			continue
		}
		if q.Status != "" && inv.Status != q.Status {
			continue
		}
		cp := *inv
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeRepo) AddPayment(_ context.Context, p *Payment) error {
	p.ID = uuid.New()
	cp := *p
	f.payments = append(f.payments, &cp)
	return nil
}

func (f *fakeRepo) ListPayments(_ context.Context, invoiceID uuid.UUID) ([]*Payment, error) {
	var out []*Payment
	for _, p := range f.payments {
		if p.InvoiceID == invoiceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeRepo) RevenueSince(_ context.Context, from time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, inv := range f.invoices {
		if inv.Status != StatusCancelled && !inv.CreatedAt.Before(from) {
			sum = sum.Add(inv.PaidAmount)
		}
	}
	return sum, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, zerolog.Nop())
}

func createInvoice(t *testing.T, svc *Service, total string) *Invoice {
	t.Helper()
	inv, err := svc.CreateInvoice(context.Background(), &Invoice{
		PatientID:   uuid.New(),
		Description: "consultation",
		TotalAmount: money(total),
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	return inv
}

func TestRecordPayment_Lifecycle(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	inv := createInvoice(t, svc, "100.00")

	got, err := svc.RecordPayment(ctx, inv.ID, money("60.00"), "card", "ref-1")
	if err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if got.Status != StatusPartial || !got.Balance().Equal(money("40.00")) {
		t.Errorf("after 60/100: status %s, balance %s", got.Status, got.Balance())
	}

	got, err = svc.RecordPayment(ctx, inv.ID, money("40.00"), "cash", "ref-2")
	if err != nil {
		t.Fatalf("settling payment failed: %v", err)
	}
	if got.Status != StatusPaid || got.PaymentDate == nil {
		t.Errorf("after 100/100: status %s, payment_date %v", got.Status, got.PaymentDate)
	}

	payments, err := svc.Payments(ctx, inv.ID)
	if err != nil {
		t.Fatalf("Payments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Errorf("ledger has %d entries, want 2", len(payments))
	}
}

func TestRecordPayment_RejectedPaymentLeavesNoLedgerEntry(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	inv := createInvoice(t, svc, "100.00")

	if _, err := svc.RecordPayment(ctx, inv.ID, money("500.00"), "card", ""); !errors.Is(err, ErrOverPayment) {
		t.Fatalf("overpayment: got %v, want ErrOverPayment", err)
	}

	payments, _ := svc.Payments(ctx, inv.ID)
	if len(payments) != 0 {
		t.Errorf("rejected payment left %d ledger entries", len(payments))
	}
	got, _ := svc.Get(ctx, inv.ID)
	if !got.PaidAmount.IsZero() {
		t.Errorf("rejected payment mutated paid_amount to %s", got.PaidAmount)
	}
}

func TestRecordPayment_ConcurrentPaymentsSumExactly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	inv := createInvoice(t, svc, "100.00")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordPayment(context.Background(), inv.ID, money("10.00"), "card", ""); err != nil {
				t.Errorf("payment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.Get(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.PaidAmount.Equal(money("100.00")) {
		t.Errorf("paid_amount = %s, want 100.00", got.PaidAmount)
	}
	if got.Status != StatusPaid {
		t.Errorf("status = %s, want paid", got.Status)
	}
}

func TestSetStatus_OnlyAdministrativeStatuses(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	inv := createInvoice(t, svc, "100.00")

	if _, err := svc.SetStatus(ctx, inv.ID, StatusPaid); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("assigning a derived status: got %v, want ErrInvalidStatus", err)
	}

	got, err := svc.SetStatus(ctx, inv.ID, StatusOverdue)
	if err != nil {
		t.Fatalf("marking overdue failed: %v", err)
	}
	if got.Status != StatusOverdue {
		t.Errorf("status = %s, want overdue", got.Status)
	}
}

func TestSetStatus_SettledInvoiceIsImmutable(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	inv := createInvoice(t, svc, "10.00")

	if _, err := svc.RecordPayment(ctx, inv.ID, money("10.00"), "card", ""); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if _, err := svc.SetStatus(ctx, inv.ID, StatusCancelled); !errors.Is(err, ErrClosed) {
		t.Errorf("cancelling a settled invoice: got %v, want ErrClosed", err)
	}
}

func TestCreateInvoice_Validation(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	if _, err := svc.CreateInvoice(ctx, &Invoice{TotalAmount: money("10.00")}); err == nil {
		t.Error("invoice without a patient accepted")
	}
	if _, err := svc.CreateInvoice(ctx, &Invoice{PatientID: uuid.New(), TotalAmount: money("-1.00")}); err == nil {
		t.Error("negative-total invoice accepted")
	}
}

func TestCreateInvoice_ZeroTotal(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	// Waived and fully-discounted visits produce zero-total invoices.
	inv, err := svc.CreateInvoice(ctx, &Invoice{
		PatientID:   uuid.New(),
		Description: "waived consultation",
		TotalAmount: money("0"),
	})
	if err != nil {
		t.Fatalf("zero-total invoice rejected: %v", err)
	}
	if inv.Status != StatusPending {
		t.Errorf("status = %s, want pending", inv.Status)
	}

	// Nothing is owed, so any payment against it overpays.
	if _, err := svc.RecordPayment(ctx, inv.ID, money("0.01"), "cash", ""); !errors.Is(err, ErrOverPayment) {
		t.Errorf("payment against zero balance: got %v, want ErrOverPayment", err)
	}
}
