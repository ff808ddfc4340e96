package repository

import (
	"context"
	"time"
)

// DailySalesPoint is the revenue of one calendar day
type DailySalesPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// SalesSummary aggregates the shop's order history for the dashboard
type SalesSummary struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalOrders     int64   `json:"total_orders"`
	UniqueCustomers int64   `json:"unique_customers"`
}

// AnalyticsRepository defines the interface for dashboard aggregate queries
type AnalyticsRepository interface {
	GetSalesSummary(ctx context.Context) (*SalesSummary, error)
	// GetDailySales returns one point per day from `since` to now,
	// including zero-revenue days.
	GetDailySales(ctx context.Context, since time.Time) ([]DailySalesPoint, error)
}
