package handler

import (
	"github.com/dukaanpos/dukaan-api/internal/application/service"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckoutHandler handles checkout HTTP requests
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

type checkoutLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type checkoutRequest struct {
	CustomerID   *string               `json:"customer_id"`
	CustomerName string                `json:"customer_name"`
	Items        []checkoutLineRequest `json:"items" binding:"required"`
	Discount     float64               `json:"discount"`
	PaymentMode  string                `json:"payment_mode" binding:"required"`
}

// Checkout settles a sale
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input := &service.SettleInput{
		CustomerName: req.CustomerName,
		Discount:     req.Discount,
		PaymentMode:  enum.PaymentMode(req.PaymentMode),
	}

	if req.CustomerID != nil && *req.CustomerID != "" {
		customerID, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return
		}
		input.CustomerID = &customerID
	}

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			response.BadRequest(c, "Invalid product ID")
			return
		}
		input.Lines = append(input.Lines, service.CheckoutLine{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.checkoutService.Settle(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Checkout completed successfully", order)
}
