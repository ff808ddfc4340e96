package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/dukaanpos/dukaan-api/internal/feed"
	infraRepo "github.com/dukaanpos/dukaan-api/internal/infrastructure/repository"
	"github.com/dukaanpos/dukaan-api/pkg/apperror"
	"github.com/google/uuid"
)

func newLedgerService(e *testEnv) *LedgerService {
	return NewLedgerService(
		infraRepo.NewLedgerRepository(e.db),
		infraRepo.NewCustomerRepository(e.db),
		feed.NewBroker(),
		nil,
		5,
		time.Millisecond,
	)
}

func TestApplyTransactionMovesBalanceBySign(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	entry, err := svc.ApplyTransaction(e.ctx, &ApplyTransactionInput{
		CustomerID: customer.ID,
		Type:       enum.EntryTypeCredit,
		Amount:     150.50,
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if entry.Amount != 15050 {
		t.Fatalf("expected amount 15050 cents, got %d", entry.Amount)
	}
	if entry.SignedAmount() != 15050 {
		t.Fatalf("expected signed amount +15050, got %d", entry.SignedAmount())
	}
	if got := e.customerBalance(t, customer.ID); got != 15050 {
		t.Fatalf("expected balance 15050 after credit, got %d", got)
	}

	_, err = svc.ApplyTransaction(e.ctx, &ApplyTransactionInput{
		CustomerID: customer.ID,
		Type:       enum.EntryTypePayment,
		Amount:     50.50,
	})
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if got := e.customerBalance(t, customer.ID); got != 10000 {
		t.Fatalf("expected balance 10000 after payment, got %d", got)
	}
}

func TestApplyTransactionDefaultNotes(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	payment, err := svc.ApplyTransaction(e.ctx, &ApplyTransactionInput{
		CustomerID: customer.ID,
		Type:       enum.EntryTypePayment,
		Amount:     10,
	})
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if payment.Note != "Payment Received" {
		t.Fatalf("expected default payment note, got %q", payment.Note)
	}

	credit, err := svc.ApplyTransaction(e.ctx, &ApplyTransactionInput{
		CustomerID: customer.ID,
		Type:       enum.EntryTypeCredit,
		Amount:     10,
		Note:       "Bag of rice",
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if credit.Note != "Bag of rice" {
		t.Fatalf("expected custom note kept, got %q", credit.Note)
	}
}

func TestApplyTransactionRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	cases := []struct {
		name  string
		input ApplyTransactionInput
	}{
		{"invalid type", ApplyTransactionInput{CustomerID: customer.ID, Type: "refund", Amount: 10}},
		{"zero amount", ApplyTransactionInput{CustomerID: customer.ID, Type: enum.EntryTypeCredit, Amount: 0}},
		{"negative amount", ApplyTransactionInput{CustomerID: customer.ID, Type: enum.EntryTypePayment, Amount: -5}},
	}
	for _, tc := range cases {
		if _, err := svc.ApplyTransaction(e.ctx, &tc.input); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	if got := e.customerBalance(t, customer.ID); got != 0 {
		t.Fatalf("rejected inputs must not move the balance, got %d", got)
	}
}

func TestApplyTransactionUnknownCustomer(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)

	_, err := svc.ApplyTransaction(e.ctx, &ApplyTransactionInput{
		CustomerID: uuid.New(),
		Type:       enum.EntryTypeCredit,
		Amount:     10,
	})
	appErr := apperror.GetAppError(err)
	if appErr.Code != 404 {
		t.Fatalf("expected 404 for unknown customer, got %d", appErr.Code)
	}
}

func TestApplyTransactionInvisibleAcrossShops(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	foreignCtx := infraRepo.WithShop(context.Background(), uuid.New())
	_, err := svc.ApplyTransaction(foreignCtx, &ApplyTransactionInput{
		CustomerID: customer.ID,
		Type:       enum.EntryTypeCredit,
		Amount:     10,
	})
	appErr := apperror.GetAppError(err)
	if appErr.Code != 404 {
		t.Fatalf("expected 404 from another shop's scope, got %d", appErr.Code)
	}
	if got := e.customerBalance(t, customer.ID); got != 0 {
		t.Fatalf("foreign shop must not move the balance, got %d", got)
	}
}

func TestOverpaymentDrivesBalanceNegative(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	mustApply(t, svc, e.ctx, customer.ID, enum.EntryTypeCredit, 30)
	mustApply(t, svc, e.ctx, customer.ID, enum.EntryTypePayment, 50)

	if got := e.customerBalance(t, customer.ID); got != -2000 {
		t.Fatalf("expected balance -2000 after overpayment, got %d", got)
	}

	drift, err := svc.Reconcile(e.ctx, customer.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if drift != 0 {
		t.Fatalf("expected zero drift, got %d", drift)
	}
}

func TestBalanceEqualsEntrySum(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	amounts := []struct {
		typ    enum.EntryType
		amount float64
	}{
		{enum.EntryTypeCredit, 120},
		{enum.EntryTypePayment, 40},
		{enum.EntryTypeCredit, 15.25},
		{enum.EntryTypePayment, 95.25},
		{enum.EntryTypeCredit, 3.33},
	}
	for _, a := range amounts {
		mustApply(t, svc, e.ctx, customer.ID, a.typ, a.amount)
	}

	drift, err := svc.Reconcile(e.ctx, customer.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if drift != 0 {
		t.Fatalf("balance drifted from entry sum by %d cents", drift)
	}
	if got := e.customerBalance(t, customer.ID); got != 333 {
		t.Fatalf("expected balance 333, got %d", got)
	}
}

func TestConcurrentTransactionsLoseNoUpdates(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := svc.ApplyTransaction(e.ctx, &ApplyTransactionInput{
					CustomerID: customer.ID,
					Type:       enum.EntryTypeCredit,
					Amount:     1,
				})
				if err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent apply failed: %v", err)
	}

	want := int64(writers * perWriter * 100)
	if got := e.customerBalance(t, customer.ID); got != want {
		t.Fatalf("lost updates: expected balance %d, got %d", want, got)
	}

	drift, err := svc.Reconcile(e.ctx, customer.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if drift != 0 {
		t.Fatalf("expected zero drift after concurrent writes, got %d", drift)
	}
}

func TestGetLedgerNewestFirstAndStable(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	mustApply(t, svc, e.ctx, customer.ID, enum.EntryTypeCredit, 10)
	mustApply(t, svc, e.ctx, customer.ID, enum.EntryTypePayment, 5)
	mustApply(t, svc, e.ctx, customer.ID, enum.EntryTypeCredit, 20)

	first, err := svc.GetLedger(e.ctx, customer.ID)
	if err != nil {
		t.Fatalf("get ledger failed: %v", err)
	}
	if len(first.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(first.Entries))
	}
	for i := 1; i < len(first.Entries); i++ {
		if first.Entries[i].DisplayTime().After(first.Entries[i-1].DisplayTime()) {
			t.Fatalf("entries not ordered newest first at index %d", i)
		}
	}

	// A re-read with no writes in between returns the same ordering.
	second, err := svc.GetLedger(e.ctx, customer.ID)
	if err != nil {
		t.Fatalf("second get ledger failed: %v", err)
	}
	for i := range first.Entries {
		if first.Entries[i].ID != second.Entries[i].ID {
			t.Fatalf("ordering changed between reads at index %d", i)
		}
	}
}

func TestLedgerFeedDeliversAppendedEntry(t *testing.T) {
	e := newTestEnv(t)
	svc := newLedgerService(e)
	customer := e.createCustomer(t, "Asha")

	updates, cancel := svc.Subscribe(customer.ID)
	defer cancel()

	mustApply(t, svc, e.ctx, customer.ID, enum.EntryTypeCredit, 25)

	select {
	case update := <-updates:
		if update.CustomerID != customer.ID {
			t.Fatalf("update for wrong customer")
		}
		if update.TotalDue != 2500 {
			t.Fatalf("expected live balance 2500, got %d", update.TotalDue)
		}
		if update.Entry == nil || update.Entry.Amount != 2500 {
			t.Fatalf("expected entry amount 2500 in update")
		}
	case <-time.After(time.Second):
		t.Fatalf("no feed update delivered")
	}
}

func mustApply(t *testing.T, svc *LedgerService, ctx context.Context, customerID uuid.UUID, typ enum.EntryType, amount float64) {
	t.Helper()
	if _, err := svc.ApplyTransaction(ctx, &ApplyTransactionInput{
		CustomerID: customerID,
		Type:       typ,
		Amount:     amount,
	}); err != nil {
		t.Fatalf("apply %s %v failed: %v", typ, amount, err)
	}
}
