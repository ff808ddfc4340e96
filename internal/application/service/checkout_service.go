package service

import (
	"context"
	"math"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/pkg/apperror"
	"github.com/google/uuid"
)

// CheckoutService settles counter sales: it snapshots the cart,
// decrements stock, books credit sales onto the customer's ledger and
// records the order, all in one transaction.
type CheckoutService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	ledger      *LedgerService
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, ledger *LedgerService) *CheckoutService {
	return &CheckoutService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		ledger:      ledger,
	}
}

// CheckoutLine is one product and quantity in the cart
type CheckoutLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// SettleInput represents a checkout request
type SettleInput struct {
	CustomerID   *uuid.UUID
	CustomerName string
	Lines        []CheckoutLine
	Discount     float64 // currency units
	PaymentMode  enum.PaymentMode
}

// Settle commits one checkout. Cash sales only decrement stock and
// record the order; credit sales additionally append a purchase entry
// to the customer's ledger and move their balance, atomically with the
// rest. A failed settlement leaves nothing applied.
func (s *CheckoutService) Settle(ctx context.Context, input *SettleInput) (*entity.Order, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	// Snapshot names and prices now; the order must read the same after
	// later product edits.
	var subtotal int64
	items := make([]entity.CartItem, 0, len(input.Lines))
	decrements := make(map[uuid.UUID]int, len(input.Lines))
	for _, line := range input.Lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, apperror.NewNotFoundError("Product")
		}
		items = append(items, entity.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
		subtotal += product.Price * int64(line.Quantity)
		decrements[line.ProductID] += line.Quantity
	}

	discount := int64(math.Round(input.Discount * 100))
	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	order := &entity.Order{
		CustomerID:   input.CustomerID,
		CustomerName: input.CustomerName,
		Items:        items,
		Subtotal:     subtotal,
		Discount:     discount,
		Total:        total,
		PaymentMode:  input.PaymentMode,
	}

	var credit *entity.LedgerEntry
	if input.PaymentMode == enum.PaymentModeCredit && total > 0 {
		credit = &entity.LedgerEntry{
			CustomerID: *input.CustomerID,
			Type:       enum.EntryTypeCredit,
			Amount:     total,
			Note:       "Purchase Invoice",
			CartItems:  items,
			ClientDate: time.Now(),
		}
	}

	for attempt := 0; attempt < s.ledger.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.ledger.retryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		err = s.orderRepo.CreateSettlement(ctx, order, decrements, credit)
		if err == repository.ErrBalanceConflict {
			// Another writer moved the balance; rebuild nothing, the
			// snapshot and totals are unchanged, just retry the commit.
			continue
		}
		if err == repository.ErrProductMissing {
			return nil, apperror.NewNotFoundError("Product")
		}
		if err == repository.ErrCustomerMissing {
			return nil, apperror.NewNotFoundError("Customer")
		}
		if err != nil {
			return nil, err
		}

		if credit != nil {
			s.ledger.publishUpdate(ctx, credit)
		}
		return order, nil
	}

	return nil, apperror.ErrTransactionFailed
}

func (s *CheckoutService) validate(input *SettleInput) error {
	var fieldErrors []apperror.FieldError

	if len(input.Lines) == 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field: "items", Message: "Cart must not be empty",
		})
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field: "items", Message: "Quantities must be greater than zero",
			})
			break
		}
	}
	if !input.PaymentMode.IsValid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field: "payment_mode", Message: "Payment mode must be cash or credit",
		})
	}
	if input.PaymentMode == enum.PaymentModeCredit && input.CustomerID == nil {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field: "customer_id", Message: "Credit sales require a customer",
		})
	}
	if input.Discount < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field: "discount", Message: "Discount must not be negative",
		})
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
