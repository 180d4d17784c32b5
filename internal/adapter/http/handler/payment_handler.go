package handler

import (
	"strings"

	"commerce-ledger/internal/adapter/http/dto"
	"commerce-ledger/internal/adapter/http/middleware"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/pkg/apperror"
	"commerce-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles settlement endpoints: paying invoices, refunds
// and balance queries.
type PaymentHandler struct {
	settlementSvc ports.SettlementService
	registrySvc   ports.RegistryService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(settlementSvc ports.SettlementService, registrySvc ports.RegistryService) *PaymentHandler {
	return &PaymentHandler{settlementSvc: settlementSvc, registrySvc: registrySvc}
}

// Pay handles POST /api/v1/payments. The payer is the HMAC-authenticated
// account.
func (h *PaymentHandler) Pay(c *gin.Context) {
	payer, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	inv, err := h.settlementSvc.Pay(c.Request.Context(), payer.(uuid.UUID), ports.PayRequest{
		InvoiceID: req.InvoiceID,
		Asset:     req.Asset,
		Amount:    req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toInvoiceResponse(inv))
}

// Refund handles POST /api/v1/invoices/:id/refund.
func (h *PaymentHandler) Refund(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	inv, err := h.settlementSvc.Refund(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toInvoiceResponse(inv))
}

// Balances handles GET /api/v1/merchants/:id/balances. Assets may be
// passed as a comma-separated query; it defaults to every listed asset.
func (h *PaymentHandler) Balances(c *gin.Context) {
	merchant, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var assets []string
	if raw := c.Query("assets"); raw != "" {
		assets = strings.Split(raw, ",")
	} else {
		assets = h.registrySvc.ListedAssets(c.Request.Context())
	}

	balances := h.settlementSvc.Balances(c.Request.Context(), merchant, assets)
	response.OK(c, dto.BalancesResponse{
		MerchantID: merchant.String(),
		Balances:   balances,
	})
}
