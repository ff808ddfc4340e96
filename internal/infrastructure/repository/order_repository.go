package repository

import (
	"context"
	"errors"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	domainRepo "github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

// CreateSettlement commits one checkout in a single transaction. Stock
// decrements carry no floor check, matching the sell-first workflow of a
// counter sale; the ledger credit uses the same compare-and-swap as a
// manual entry so a concurrent balance writer forces a full retry.
func (r *orderRepository) CreateSettlement(ctx context.Context, order *entity.Order, decrements map[uuid.UUID]int, credit *entity.LedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for productID, qty := range decrements {
			res := tx.Model(&entity.Product{}).
				Scopes(ShopScope(ctx)).
				Where("id = ?", productID).
				Update("stock", gorm.Expr("stock - ?", qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domainRepo.ErrProductMissing
			}
		}

		if credit != nil {
			var customer entity.Customer
			err := tx.Scopes(ShopScope(ctx)).First(&customer, "id = ?", credit.CustomerID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainRepo.ErrCustomerMissing
			}
			if err != nil {
				return err
			}

			newDue := customer.TotalDue + credit.SignedAmount()
			res := tx.Model(&entity.Customer{}).
				Where("id = ? AND total_due = ?", customer.ID, customer.TotalDue).
				Update("total_due", newDue)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domainRepo.ErrBalanceConflict
			}

			credit.ShopID = customer.ShopID
			if err := tx.Create(credit).Error; err != nil {
				return err
			}
		}

		if shopID, ok := GetShopID(ctx); ok {
			order.ShopID = shopID
		}
		return tx.Create(order).Error
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).Scopes(ShopScope(ctx)).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.Order, int64, error) {
	var orders []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{}).Scopes(ShopScope(ctx))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&orders).Error

	return orders, total, err
}
