package handler

import (
	"github.com/dukaanpos/dukaan-api/internal/application/service"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/dto/response"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// ShopHandler handles shop and membership HTTP requests
type ShopHandler struct {
	shopService *service.ShopService
}

// NewShopHandler creates a new shop handler
func NewShopHandler(shopService *service.ShopService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

type createShopRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles shop creation
func (h *ShopHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req createShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	shop, err := h.shopService.CreateShop(c.Request.Context(), *userID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Shop created successfully", shop)
}

// Get returns the authenticated user's shop
func (h *ShopHandler) Get(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	shop, err := h.shopService.GetMyShop(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Shop retrieved successfully", shop)
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Invite records a staff invitation
func (h *ShopHandler) Invite(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	invitation, err := h.shopService.InviteStaff(c.Request.Context(), middleware.GetShopID(c), *userID, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invitation created successfully", invitation)
}

// Members lists the shop roster
func (h *ShopHandler) Members(c *gin.Context) {
	members, err := h.shopService.ListMembers(c.Request.Context(), middleware.GetShopID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Members retrieved successfully", members)
}

// PendingInvitation returns the invitation waiting for the user, if any
func (h *ShopHandler) PendingInvitation(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	invitation, err := h.shopService.PendingInvitation(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invitation retrieved successfully", invitation)
}

// AcceptInvitation joins the user to the inviting shop
func (h *ShopHandler) AcceptInvitation(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	shop, err := h.shopService.AcceptInvitation(c.Request.Context(), *userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invitation accepted", shop)
}
