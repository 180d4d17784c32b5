package handler

import (
	"time"

	"commerce-ledger/internal/adapter/http/dto"
	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/pkg/apperror"
	"commerce-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler handles invoice lifecycle and query endpoints.
type InvoiceHandler struct {
	invoiceSvc ports.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceSvc ports.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceSvc: invoiceSvc}
}

// Create handles POST /api/v1/invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant := actor
	if req.MerchantID != nil {
		id, err := uuid.Parse(*req.MerchantID)
		if err != nil {
			response.Error(c, apperror.Validation("invalid merchant_id"))
			return
		}
		merchant = id
	}

	options := make([]domain.PaymentOption, 0, len(req.Options))
	for _, opt := range req.Options {
		options = append(options, domain.PaymentOption{Asset: opt.Asset, Amount: opt.Amount})
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t := time.Unix(*req.ExpiresAt, 0)
		expiresAt = &t
	}

	inv, err := h.invoiceSvc.Create(c.Request.Context(), actor, ports.CreateInvoiceRequest{
		ID:         req.ID,
		MerchantID: merchant,
		Options:    options,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toInvoiceResponse(inv))
}

// Cancel handles POST /api/v1/invoices/:id/cancel.
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	inv, err := h.invoiceSvc.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toInvoiceResponse(inv))
}

// Expire handles POST /api/v1/invoices/:id/expire.
func (h *InvoiceHandler) Expire(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	inv, err := h.invoiceSvc.Expire(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toInvoiceResponse(inv))
}

// Get handles GET /api/v1/invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, err := h.invoiceSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toInvoiceResponse(inv))
}

// GetBatch handles POST /api/v1/invoices/batch.
func (h *InvoiceHandler) GetBatch(c *gin.Context) {
	var req dto.InvoiceBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	invoices := h.invoiceSvc.GetBatch(c.Request.Context(), req.IDs)
	response.OK(c, toInvoiceResponses(invoices))
}

// List handles GET /api/v1/invoices. The merchant defaults to the
// authenticated account; status is an optional filter.
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchant := actor
	if m := c.Query("merchant_id"); m != "" {
		id, err := uuid.Parse(m)
		if err != nil {
			response.Error(c, apperror.Validation("invalid merchant_id"))
			return
		}
		merchant = id
	}

	var status *domain.InvoiceStatus
	if s := c.Query("status"); s != "" {
		st := domain.InvoiceStatus(s)
		status = &st
	}

	invoices := h.invoiceSvc.ByMerchant(c.Request.Context(), merchant, status)
	response.OK(c, toInvoiceResponses(invoices))
}

// Recent handles GET /api/v1/invoices/recent.
func (h *InvoiceHandler) Recent(c *gin.Context) {
	invoices := h.invoiceSvc.Recent(c.Request.Context(), limitQuery(c, 20))
	response.OK(c, toInvoiceResponses(invoices))
}

// Stats handles GET /api/v1/invoices/stats.
func (h *InvoiceHandler) Stats(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchant := actor
	if m := c.Query("merchant_id"); m != "" {
		id, err := uuid.Parse(m)
		if err != nil {
			response.Error(c, apperror.Validation("invalid merchant_id"))
			return
		}
		merchant = id
	}

	stats := h.invoiceSvc.Stats(c.Request.Context(), merchant)
	response.OK(c, dto.InvoiceStatsResponse{
		Total:     stats.Total,
		Pending:   stats.Pending,
		Paid:      stats.Paid,
		Refunded:  stats.Refunded,
		Expired:   stats.Expired,
		Cancelled: stats.Cancelled,
	})
}

// toInvoiceResponse converts domain.Invoice to DTO.
func toInvoiceResponse(inv *domain.Invoice) dto.InvoiceResponse {
	options := make([]dto.PaymentOption, 0, len(inv.Options))
	for _, opt := range inv.Options {
		options = append(options, dto.PaymentOption{Asset: opt.Asset, Amount: opt.Amount})
	}

	resp := dto.InvoiceResponse{
		ID:          inv.ID,
		MerchantID:  inv.MerchantID.String(),
		Options:     options,
		Status:      string(inv.Status),
		Asset:       inv.Asset,
		Amount:      inv.Amount,
		Fee:         inv.Fee,
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
		ExpiresAt:   fmtTimePtr(inv.ExpiresAt),
		PaidAt:      fmtTimePtr(inv.PaidAt),
		RefundedAt:  fmtTimePtr(inv.RefundedAt),
		ExpiredAt:   fmtTimePtr(inv.ExpiredAt),
		CancelledAt: fmtTimePtr(inv.CancelledAt),
	}
	if inv.Payer != nil {
		s := inv.Payer.String()
		resp.Payer = &s
	}
	return resp
}

func toInvoiceResponses(invoices []domain.Invoice) []dto.InvoiceResponse {
	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, toInvoiceResponse(&invoices[i]))
	}
	return items
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
