package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/internal/feed"
	"github.com/dukaanpos/dukaan-api/pkg/apperror"
	"github.com/google/uuid"
)

// LedgerService owns the customer running-balance workflow: posting
// payments and manual charges, reading the statement, and pushing live
// updates to connected viewers.
type LedgerService struct {
	ledgerRepo   repository.LedgerRepository
	customerRepo repository.CustomerRepository
	broker       *feed.Broker
	bridge       *feed.RedisBridge
	maxRetries   int
	retryBackoff time.Duration
}

// NewLedgerService creates a new ledger service. bridge may be nil when
// the deployment runs a single instance.
func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	customerRepo repository.CustomerRepository,
	broker *feed.Broker,
	bridge *feed.RedisBridge,
	maxRetries int,
	retryBackoff time.Duration,
) *LedgerService {
	if maxRetries < 1 {
		maxRetries = 5
	}
	if retryBackoff <= 0 {
		retryBackoff = 20 * time.Millisecond
	}
	return &LedgerService{
		ledgerRepo:   ledgerRepo,
		customerRepo: customerRepo,
		broker:       broker,
		bridge:       bridge,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

// ApplyTransactionInput represents a payment or manual charge request
type ApplyTransactionInput struct {
	CustomerID uuid.UUID
	Type       enum.EntryType
	Amount     float64 // currency units; converted to cents internally
	Note       string
}

// ApplyTransaction posts one signed adjustment to a customer's balance.
// The write retries on balance conflicts with exponential backoff; once
// retries are exhausted the caller gets a transaction failure and may
// resubmit, knowing nothing was applied.
func (s *LedgerService) ApplyTransaction(ctx context.Context, input *ApplyTransactionInput) (*entity.LedgerEntry, error) {
	if !input.Type.IsValid() {
		return nil, apperror.NewBadRequestError("Transaction type must be payment or credit")
	}

	amountCents := int64(math.Round(input.Amount * 100))
	if amountCents <= 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "amount", Message: "Amount must be greater than zero"},
		})
	}

	note := input.Note
	if note == "" {
		note = input.Type.DefaultNote()
	}

	var entry *entity.LedgerEntry
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.retryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		entry, err = s.ledgerRepo.ApplyEntry(ctx, input.CustomerID, input.Type, amountCents, note)
		if err == repository.ErrBalanceConflict {
			continue
		}
		if err == repository.ErrCustomerMissing {
			return nil, apperror.NewNotFoundError("Customer")
		}
		if err != nil {
			return nil, err
		}

		s.publishUpdate(ctx, entry)
		return entry, nil
	}

	return nil, apperror.ErrTransactionFailed
}

// LedgerSnapshot is the customer together with their full statement.
type LedgerSnapshot struct {
	Customer *entity.Customer     `json:"customer"`
	Entries  []entity.LedgerEntry `json:"entries"`
}

// GetLedger returns the customer's statement, newest first. Entries
// without a server timestamp sort by their client-supplied date.
func (s *LedgerService) GetLedger(ctx context.Context, customerID uuid.UUID) (*LedgerSnapshot, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	entries, err := s.ledgerRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DisplayTime().After(entries[j].DisplayTime())
	})

	return &LedgerSnapshot{Customer: customer, Entries: entries}, nil
}

// Reconcile compares the cached balance against the folded entry log and
// returns the drift in cents. Zero means the invariant holds.
func (s *LedgerService) Reconcile(ctx context.Context, customerID uuid.UUID) (int64, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return 0, err
	}
	if customer == nil {
		return 0, apperror.NewNotFoundError("Customer")
	}

	sum, err := s.ledgerRepo.SumSignedAmounts(ctx, customerID)
	if err != nil {
		return 0, err
	}
	return customer.TotalDue - sum, nil
}

// Subscribe registers a live viewer for a customer's ledger updates.
func (s *LedgerService) Subscribe(customerID uuid.UUID) (<-chan feed.Update, func()) {
	return s.broker.Subscribe(customerID)
}

// publishUpdate fans the appended entry out to live viewers, locally and
// (when bridged) across instances. Delivery is best effort: viewers that
// miss an update reload the statement.
func (s *LedgerService) publishUpdate(ctx context.Context, entry *entity.LedgerEntry) {
	customer, err := s.customerRepo.GetByID(ctx, entry.CustomerID)
	if err != nil || customer == nil {
		return
	}

	update := feed.Update{
		ShopID:     entry.ShopID,
		CustomerID: entry.CustomerID,
		Entry:      entry,
		TotalDue:   customer.TotalDue,
	}
	s.broker.Publish(update)
	if s.bridge != nil {
		_ = s.bridge.Announce(ctx, update)
	}
}
