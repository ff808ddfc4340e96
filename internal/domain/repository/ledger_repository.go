package repository

import (
	"context"
	"errors"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/google/uuid"
)

// ErrBalanceConflict is returned by ApplyEntry when the customer's cached
// balance changed between the read and the conditional write. The caller
// retries the whole read-modify-append unit.
var ErrBalanceConflict = errors.New("customer balance modified concurrently")

// ErrCustomerMissing is returned when the referenced customer does not
// exist in the caller's shop at transaction time. No writes are applied.
var ErrCustomerMissing = errors.New("customer not found")

// PayLaterTotals aggregates the shop's outstanding-credit position.
type PayLaterTotals struct {
	TotalOutstanding int64 // cents, sum of positive balances
	ActiveDebtors    int64 // customers with a positive balance
	CreditIssued     int64 // cents, sum of all credit entries
	PaymentsReceived int64 // cents, sum of all payment entries
}

// LedgerRepository owns the atomic read-modify-append unit that keeps a
// customer's cached TotalDue consistent with the append-only entry log.
type LedgerRepository interface {
	// ApplyEntry runs one attempt of the atomic unit inside a single
	// database transaction: read the customer, compute the new balance,
	// conditionally write it (compare-and-swap on the value read), and
	// append the entry with a server-assigned timestamp.
	//
	// Returns ErrCustomerMissing when the customer does not exist and
	// ErrBalanceConflict when a concurrent writer won the race; in both
	// cases nothing is written.
	ApplyEntry(ctx context.Context, customerID uuid.UUID, entryType enum.EntryType, amountCents int64, note string) (*entity.LedgerEntry, error)

	// ListByCustomer returns the customer's entries newest first by the
	// authoritative server timestamp.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.LedgerEntry, error)

	// SumSignedAmounts folds every entry of the customer into one signed
	// total, in cents. Used by consistency checks and reports.
	SumSignedAmounts(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Totals aggregates the shop's pay-later position.
	Totals(ctx context.Context) (*PayLaterTotals, error)
}
