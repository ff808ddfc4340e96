package service

import (
	"testing"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	infraRepo "github.com/dukaanpos/dukaan-api/internal/infrastructure/repository"
	"github.com/dukaanpos/dukaan-api/pkg/apperror"
	"github.com/google/uuid"
)

func newCheckoutService(e *testEnv) *CheckoutService {
	ledger := newLedgerService(e)
	return NewCheckoutService(
		infraRepo.NewOrderRepository(e.db),
		infraRepo.NewProductRepository(e.db),
		ledger,
	)
}

func (e *testEnv) reloadProduct(t *testing.T, id uuid.UUID) *entity.Product {
	t.Helper()
	var product entity.Product
	if err := e.db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &product
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&entity.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return count
}

func TestCashCheckoutDecrementsStockOnly(t *testing.T) {
	e := newTestEnv(t)
	svc := newCheckoutService(e)
	tea := e.createProduct(t, "Tea", 1500, 10)
	sugar := e.createProduct(t, "Sugar", 4500, 8)

	order, err := svc.Settle(e.ctx, &SettleInput{
		CustomerName: "Walk-in",
		Lines: []CheckoutLine{
			{ProductID: tea.ID, Quantity: 2},
			{ProductID: sugar.ID, Quantity: 1},
		},
		PaymentMode: enum.PaymentModeCash,
	})
	if err != nil {
		t.Fatalf("cash checkout failed: %v", err)
	}

	if order.Subtotal != 7500 || order.Total != 7500 {
		t.Fatalf("expected subtotal and total 7500, got %d and %d", order.Subtotal, order.Total)
	}
	if got := e.reloadProduct(t, tea.ID).Stock; got != 8 {
		t.Fatalf("expected tea stock 8, got %d", got)
	}
	if got := e.reloadProduct(t, sugar.ID).Stock; got != 7 {
		t.Fatalf("expected sugar stock 7, got %d", got)
	}

	var entries int64
	if err := e.db.Model(&entity.LedgerEntry{}).Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Fatalf("cash sale must not write ledger entries, got %d", entries)
	}
}

func TestCreditCheckoutBooksLedgerEntry(t *testing.T) {
	e := newTestEnv(t)
	svc := newCheckoutService(e)
	tea := e.createProduct(t, "Tea", 1500, 10)
	customer := e.createCustomer(t, "Asha")

	order, err := svc.Settle(e.ctx, &SettleInput{
		CustomerID:   &customer.ID,
		CustomerName: customer.Name,
		Lines:        []CheckoutLine{{ProductID: tea.ID, Quantity: 3}},
		Discount:     5,
		PaymentMode:  enum.PaymentModeCredit,
	})
	if err != nil {
		t.Fatalf("credit checkout failed: %v", err)
	}

	if order.Total != 4000 {
		t.Fatalf("expected total 4000 after discount, got %d", order.Total)
	}
	if got := e.customerBalance(t, customer.ID); got != 4000 {
		t.Fatalf("expected balance 4000 after credit sale, got %d", got)
	}

	var entry entity.LedgerEntry
	if err := e.db.First(&entry, "customer_id = ?", customer.ID).Error; err != nil {
		t.Fatalf("load ledger entry: %v", err)
	}
	if entry.Type != enum.EntryTypeCredit || entry.Amount != 4000 {
		t.Fatalf("expected credit entry of 4000, got %s %d", entry.Type, entry.Amount)
	}
	if entry.Note != "Purchase Invoice" {
		t.Fatalf("expected purchase note, got %q", entry.Note)
	}
	if len(entry.CartItems) != 1 || entry.CartItems[0].Name != "Tea" || entry.CartItems[0].Quantity != 3 {
		t.Fatalf("expected cart snapshot on the ledger entry, got %+v", entry.CartItems)
	}
}

func TestCheckoutSnapshotSurvivesProductEdits(t *testing.T) {
	e := newTestEnv(t)
	svc := newCheckoutService(e)
	tea := e.createProduct(t, "Tea", 1500, 10)

	order, err := svc.Settle(e.ctx, &SettleInput{
		CustomerName: "Walk-in",
		Lines:        []CheckoutLine{{ProductID: tea.ID, Quantity: 1}},
		PaymentMode:  enum.PaymentModeCash,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if err := e.db.Model(&entity.Product{}).Where("id = ?", tea.ID).
		Updates(map[string]interface{}{"name": "Green Tea", "price": 9900}).Error; err != nil {
		t.Fatalf("edit product: %v", err)
	}

	var reloaded entity.Order
	if err := e.db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Items[0].Name != "Tea" || reloaded.Items[0].Price != 1500 {
		t.Fatalf("order snapshot changed after product edit: %+v", reloaded.Items[0])
	}
}

func TestCheckoutValidation(t *testing.T) {
	e := newTestEnv(t)
	svc := newCheckoutService(e)
	tea := e.createProduct(t, "Tea", 1500, 10)

	cases := []struct {
		name  string
		input SettleInput
	}{
		{"empty cart", SettleInput{PaymentMode: enum.PaymentModeCash}},
		{"zero quantity", SettleInput{
			Lines:       []CheckoutLine{{ProductID: tea.ID, Quantity: 0}},
			PaymentMode: enum.PaymentModeCash,
		}},
		{"invalid mode", SettleInput{
			Lines:       []CheckoutLine{{ProductID: tea.ID, Quantity: 1}},
			PaymentMode: "cheque",
		}},
		{"credit without customer", SettleInput{
			Lines:       []CheckoutLine{{ProductID: tea.ID, Quantity: 1}},
			PaymentMode: enum.PaymentModeCredit,
		}},
		{"negative discount", SettleInput{
			Lines:       []CheckoutLine{{ProductID: tea.ID, Quantity: 1}},
			Discount:    -1,
			PaymentMode: enum.PaymentModeCash,
		}},
	}
	for _, tc := range cases {
		if _, err := svc.Settle(e.ctx, &tc.input); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	if got := e.reloadProduct(t, tea.ID).Stock; got != 10 {
		t.Fatalf("rejected checkouts must not touch stock, got %d", got)
	}
	if e.countOrders(t) != 0 {
		t.Fatalf("rejected checkouts must not create orders")
	}
}

func TestCheckoutUnknownProductLeavesNothingBehind(t *testing.T) {
	e := newTestEnv(t)
	svc := newCheckoutService(e)
	tea := e.createProduct(t, "Tea", 1500, 10)

	_, err := svc.Settle(e.ctx, &SettleInput{
		CustomerName: "Walk-in",
		Lines: []CheckoutLine{
			{ProductID: tea.ID, Quantity: 1},
			{ProductID: uuid.New(), Quantity: 1},
		},
		PaymentMode: enum.PaymentModeCash,
	})
	appErr := apperror.GetAppError(err)
	if appErr.Code != 404 {
		t.Fatalf("expected 404 for unknown product, got %d", appErr.Code)
	}

	if got := e.reloadProduct(t, tea.ID).Stock; got != 10 {
		t.Fatalf("failed checkout must not decrement stock, got %d", got)
	}
	if e.countOrders(t) != 0 {
		t.Fatalf("failed checkout must not create orders")
	}
}

func TestCheckoutDiscountFloorsAtZero(t *testing.T) {
	e := newTestEnv(t)
	svc := newCheckoutService(e)
	tea := e.createProduct(t, "Tea", 1500, 10)
	customer := e.createCustomer(t, "Asha")

	order, err := svc.Settle(e.ctx, &SettleInput{
		CustomerID:   &customer.ID,
		CustomerName: customer.Name,
		Lines:        []CheckoutLine{{ProductID: tea.ID, Quantity: 1}},
		Discount:     100,
		PaymentMode:  enum.PaymentModeCredit,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.Total != 0 {
		t.Fatalf("expected total floored at zero, got %d", order.Total)
	}
	// Nothing owed, so nothing is booked onto the ledger.
	if got := e.customerBalance(t, customer.ID); got != 0 {
		t.Fatalf("zero-total credit sale must not move the balance, got %d", got)
	}
	if e.countOrders(t) != 1 {
		t.Fatalf("the order itself is still recorded")
	}
}

func TestCheckoutAllowsNegativeStock(t *testing.T) {
	e := newTestEnv(t)
	svc := newCheckoutService(e)
	tea := e.createProduct(t, "Tea", 1500, 2)

	_, err := svc.Settle(e.ctx, &SettleInput{
		CustomerName: "Walk-in",
		Lines:        []CheckoutLine{{ProductID: tea.ID, Quantity: 5}},
		PaymentMode:  enum.PaymentModeCash,
	})
	if err != nil {
		t.Fatalf("oversell checkout failed: %v", err)
	}

	if got := e.reloadProduct(t, tea.ID).Stock; got != -3 {
		t.Fatalf("expected stock -3 after oversell, got %d", got)
	}
}

func TestCreditCheckoutFeedsLiveViewers(t *testing.T) {
	e := newTestEnv(t)
	ledger := newLedgerService(e)
	svc := NewCheckoutService(
		infraRepo.NewOrderRepository(e.db),
		infraRepo.NewProductRepository(e.db),
		ledger,
	)
	tea := e.createProduct(t, "Tea", 1500, 10)
	customer := e.createCustomer(t, "Asha")

	updates, cancel := ledger.Subscribe(customer.ID)
	defer cancel()

	if _, err := svc.Settle(e.ctx, &SettleInput{
		CustomerID:   &customer.ID,
		CustomerName: customer.Name,
		Lines:        []CheckoutLine{{ProductID: tea.ID, Quantity: 2}},
		PaymentMode:  enum.PaymentModeCredit,
	}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	select {
	case update := <-updates:
		if update.TotalDue != 3000 {
			t.Fatalf("expected live balance 3000, got %d", update.TotalDue)
		}
	case <-time.After(time.Second):
		t.Fatalf("no feed update after credit checkout")
	}
}
