package repository

import (
	"context"
	"errors"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/pkg/pagination"
	"github.com/google/uuid"
)

// ErrProductMissing is returned by CreateSettlement when a cart line
// references a product that does not exist in the caller's shop. The
// whole settlement rolls back.
var ErrProductMissing = errors.New("product not found")

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	// CreateSettlement commits one checkout as a single database
	// transaction: every product stock decrement, the optional ledger
	// credit (balance increment plus appended entry), and the order row.
	// All of them apply or none do.
	//
	// Stock decrements are unconditional; there is no floor check, so
	// concurrent settlements may drive stock negative. Returns
	// ErrProductMissing or ErrCustomerMissing (and rolls back) when a
	// referenced record does not exist.
	CreateSettlement(ctx context.Context, order *entity.Order, decrements map[uuid.UUID]int, credit *entity.LedgerEntry) error

	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// List returns orders newest first.
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.Order, int64, error)
}
