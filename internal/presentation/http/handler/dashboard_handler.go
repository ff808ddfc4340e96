package handler

import (
	"strconv"

	"github.com/dukaanpos/dukaan-api/internal/application/service"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats returns the home-screen summary
func (h *DashboardHandler) GetStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	stats, err := h.dashboardService.GetStats(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Dashboard stats retrieved successfully", stats)
}

// GetPayLaterReport returns the outstanding-credit summary
func (h *DashboardHandler) GetPayLaterReport(c *gin.Context) {
	report, err := h.dashboardService.GetPayLaterReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Pay-later report retrieved successfully", report)
}
