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

// AuditHandler handles audit log query endpoints.
type AuditHandler struct {
	auditSvc ports.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditSvc ports.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// Recent handles GET /api/v1/audit/recent.
func (h *AuditHandler) Recent(c *gin.Context) {
	entries, err := h.auditSvc.ListRecent(c.Request.Context(), limitQuery(c, 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAuditResponses(entries))
}

// ByEntity handles GET /api/v1/audit/entities/:id.
func (h *AuditHandler) ByEntity(c *gin.Context) {
	entries, err := h.auditSvc.ListByEntity(c.Request.Context(), c.Param("id"), limitQuery(c, 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAuditResponses(entries))
}

// ByActor handles GET /api/v1/audit/actors/:id.
func (h *AuditHandler) ByActor(c *gin.Context) {
	actor, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid actor id"))
		return
	}

	entries, err := h.auditSvc.ListByActor(c.Request.Context(), actor, limitQuery(c, 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAuditResponses(entries))
}

func toAuditResponses(entries []domain.AuditEntry) []dto.AuditEntryResponse {
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		resp := dto.AuditEntryResponse{
			ID:        e.ID.String(),
			Op:        string(e.Op),
			EntityID:  e.EntityID,
			Asset:     e.Asset,
			Amount:    e.Amount,
			Details:   e.Details,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
		if e.ActorID != nil {
			s := e.ActorID.String()
			resp.ActorID = &s
		}
		items = append(items, resp)
	}
	return items
}
