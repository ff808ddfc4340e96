package handler

import (
	"io"

	"github.com/dukaanpos/dukaan-api/internal/application/service"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles customer ledger HTTP requests
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

type applyTransactionRequest struct {
	Type   string  `json:"type" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
	Note   string  `json:"note"`
}

// Apply posts a payment or manual charge to the customer's ledger
func (h *LedgerHandler) Apply(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	var req applyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.ledgerService.ApplyTransaction(c.Request.Context(), &service.ApplyTransactionInput{
		CustomerID: customerID,
		Type:       enum.EntryType(req.Type),
		Amount:     req.Amount,
		Note:       req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Transaction applied successfully", entry)
}

// Get returns the customer's statement, newest first
func (h *LedgerHandler) Get(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	snapshot, err := h.ledgerService.GetLedger(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Ledger retrieved successfully", snapshot)
}

// Reconcile reports the drift between the cached balance and the entry
// log; zero drift is the healthy state.
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	drift, err := h.ledgerService.Reconcile(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Ledger reconciled", gin.H{
		"customer_id": customerID,
		"drift":       float64(drift) / 100,
		"consistent":  drift == 0,
	})
}

// Stream pushes live ledger updates to the client over SSE. The client
// gets the current statement first, then one event per appended entry.
func (h *LedgerHandler) Stream(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	snapshot, err := h.ledgerService.GetLedger(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	updates, cancel := h.ledgerService.Subscribe(customerID)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("snapshot", snapshot)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case update, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("entry", update)
			return true
		}
	})
}
