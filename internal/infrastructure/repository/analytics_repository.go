package repository

import (
	"context"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	domainRepo "github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) GetSalesSummary(ctx context.Context) (*domainRepo.SalesSummary, error) {
	summary := &domainRepo.SalesSummary{}

	row := struct {
		Revenue   int64
		Orders    int64
		Customers int64
	}{}
	err := r.db.WithContext(ctx).Model(&entity.Order{}).
		Scopes(ShopScope(ctx)).
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders, COUNT(DISTINCT customer_id) AS customers").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary.TotalRevenue = float64(row.Revenue) / 100
	summary.TotalOrders = row.Orders
	summary.UniqueCustomers = row.Customers
	return summary, nil
}

func (r *analyticsRepository) GetDailySales(ctx context.Context, since time.Time) ([]domainRepo.DailySalesPoint, error) {
	rows := []struct {
		Day     string
		Revenue int64
	}{}
	err := r.db.WithContext(ctx).Model(&entity.Order{}).
		Scopes(ShopScope(ctx)).
		Where("created_at >= ?", since).
		Select("DATE(created_at) AS day, COALESCE(SUM(total), 0) AS revenue").
		Group("DATE(created_at)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDay[row.Day] = row.Revenue
	}

	// Emit one point per day so the chart has no gaps on quiet days.
	var points []domainRepo.DailySalesPoint
	for day := since.Truncate(24 * time.Hour); !day.After(time.Now()); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		points = append(points, domainRepo.DailySalesPoint{
			Date:    key,
			Revenue: float64(byDay[key]) / 100,
		})
	}
	return points, nil
}
