package service

import (
	"context"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/repository"
)

// DashboardService aggregates shop-wide numbers for the home screen and
// the pay-later report.
type DashboardService struct {
	analyticsRepo repository.AnalyticsRepository
	ledgerRepo    repository.LedgerRepository
	productRepo   repository.ProductRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	analyticsRepo repository.AnalyticsRepository,
	ledgerRepo repository.LedgerRepository,
	productRepo repository.ProductRepository,
) *DashboardService {
	return &DashboardService{
		analyticsRepo: analyticsRepo,
		ledgerRepo:    ledgerRepo,
		productRepo:   productRepo,
	}
}

// DashboardStats is the home-screen summary
type DashboardStats struct {
	Sales      *repository.SalesSummary     `json:"sales"`
	DailySales []repository.DailySalesPoint `json:"daily_sales"`
	LowStock   []entity.Product             `json:"low_stock"`
}

// GetStats returns sales totals, a daily revenue series for the last
// `days` days and the current low-stock list.
func (s *DashboardService) GetStats(ctx context.Context, days int) (*DashboardStats, error) {
	if days < 1 {
		days = 7
	}

	sales, err := s.analyticsRepo.GetSalesSummary(ctx)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -(days - 1))
	daily, err := s.analyticsRepo.GetDailySales(ctx, since)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.productRepo.GetLowStock(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Sales:      sales,
		DailySales: daily,
		LowStock:   lowStock,
	}, nil
}

// PayLaterReport is the outstanding-credit summary in currency units
type PayLaterReport struct {
	TotalOutstanding float64 `json:"total_outstanding"`
	ActiveDebtors    int64   `json:"active_debtors"`
	CreditIssued     float64 `json:"credit_issued"`
	PaymentsReceived float64 `json:"payments_received"`
}

// GetPayLaterReport aggregates the shop's credit position
func (s *DashboardService) GetPayLaterReport(ctx context.Context) (*PayLaterReport, error) {
	totals, err := s.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &PayLaterReport{
		TotalOutstanding: float64(totals.TotalOutstanding) / 100,
		ActiveDebtors:    totals.ActiveDebtors,
		CreditIssued:     float64(totals.CreditIssued) / 100,
		PaymentsReceived: float64(totals.PaymentsReceived) / 100,
	}, nil
}
