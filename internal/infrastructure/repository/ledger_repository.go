package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	domainRepo "github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) domainRepo.LedgerRepository {
	return &ledgerRepository{db: db}
}

// ApplyEntry is one attempt of the read-modify-append unit. The balance
// update is a compare-and-swap on the value read inside this transaction;
// losing the race rolls everything back and surfaces ErrBalanceConflict
// for the caller's retry loop.
func (r *ledgerRepository) ApplyEntry(ctx context.Context, customerID uuid.UUID, entryType enum.EntryType, amountCents int64, note string) (*entity.LedgerEntry, error) {
	var created *entity.LedgerEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer entity.Customer
		err := tx.Scopes(ShopScope(ctx)).First(&customer, "id = ?", customerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainRepo.ErrCustomerMissing
		}
		if err != nil {
			return err
		}

		newDue := customer.TotalDue + entryType.Sign()*amountCents
		res := tx.Model(&entity.Customer{}).
			Where("id = ? AND total_due = ?", customer.ID, customer.TotalDue).
			Update("total_due", newDue)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainRepo.ErrBalanceConflict
		}

		entry := &entity.LedgerEntry{
			CustomerID: customer.ID,
			ShopID:     customer.ShopID,
			Type:       entryType,
			Amount:     amountCents,
			Note:       note,
			ClientDate: time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		created = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *ledgerRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	err := r.db.WithContext(ctx).
		Scopes(ShopScope(ctx)).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) SumSignedAmounts(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&entity.LedgerEntry{}).
		Scopes(ShopScope(ctx)).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", enum.EntryTypePayment).
		Scan(&sum).Error
	return sum, err
}

func (r *ledgerRepository) Totals(ctx context.Context) (*domainRepo.PayLaterTotals, error) {
	totals := &domainRepo.PayLaterTotals{}

	if err := r.db.WithContext(ctx).Model(&entity.Customer{}).
		Scopes(ShopScope(ctx)).
		Where("total_due > 0").
		Count(&totals.ActiveDebtors).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&entity.Customer{}).
		Scopes(ShopScope(ctx)).
		Where("total_due > 0").
		Select("COALESCE(SUM(total_due), 0)").Scan(&totals.TotalOutstanding).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&entity.LedgerEntry{}).
		Scopes(ShopScope(ctx)).
		Where("type = ?", enum.EntryTypeCredit).
		Select("COALESCE(SUM(amount), 0)").Scan(&totals.CreditIssued).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&entity.LedgerEntry{}).
		Scopes(ShopScope(ctx)).
		Where("type = ?", enum.EntryTypePayment).
		Select("COALESCE(SUM(amount), 0)").Scan(&totals.PaymentsReceived).Error; err != nil {
		return nil, err
	}

	return totals, nil
}
