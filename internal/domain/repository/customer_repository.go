package repository

import (
	"context"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/pkg/pagination"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer data operations.
// All reads and writes are scoped to the shop carried in the context.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	// GetByID returns the customer, or nil when no shop-visible customer
	// has that id.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// Update persists display attributes (name, phone). TotalDue is never
	// written through this method; balance mutations go through the
	// ledger repository's atomic unit.
	Update(ctx context.Context, customer *entity.Customer) error
	// List returns customers matching the search term (name or phone),
	// ordered by name.
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error)
}
