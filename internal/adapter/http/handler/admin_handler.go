package handler

import (
	"context"

	"commerce-ledger/internal/adapter/http/dto"
	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/pkg/apperror"
	"commerce-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles role, whitelist, fee and pause administration.
type AdminHandler struct {
	registrySvc ports.RegistryService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(registrySvc ports.RegistryService) *AdminHandler {
	return &AdminHandler{registrySvc: registrySvc}
}

// GrantRole handles POST /api/v1/admin/roles.
func (h *AdminHandler) GrantRole(c *gin.Context) {
	h.roleChange(c, h.registrySvc.GrantRole)
}

// RevokeRole handles POST /api/v1/admin/roles/revoke.
func (h *AdminHandler) RevokeRole(c *gin.Context) {
	h.roleChange(c, h.registrySvc.RevokeRole)
}

func (h *AdminHandler) roleChange(c *gin.Context, change func(ctx context.Context, actor, account uuid.UUID, role domain.Role) error) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	account, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	if err := change(c.Request.Context(), actor, account, domain.Role(req.Role)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"account_id": account.String(), "role": req.Role})
}

// Roles handles GET /api/v1/admin/roles/:id.
func (h *AdminHandler) Roles(c *gin.Context) {
	account, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	roles := h.registrySvc.RolesOf(c.Request.Context(), account)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	response.OK(c, gin.H{"account_id": account.String(), "roles": names})
}

// SetDefaultFee handles PUT /api/v1/admin/fees/default.
func (h *AdminHandler) SetDefaultFee(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.registrySvc.SetDefaultFee(c.Request.Context(), actor, *req.Bps); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FeeResponse{Bps: *req.Bps})
}

// DefaultFee handles GET /api/v1/admin/fees/default.
func (h *AdminHandler) DefaultFee(c *gin.Context) {
	response.OK(c, dto.FeeResponse{Bps: h.registrySvc.DefaultFee(c.Request.Context())})
}

// SetMerchantFee handles PUT /api/v1/admin/fees/merchants/:id.
func (h *AdminHandler) SetMerchantFee(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchant, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var req dto.SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.registrySvc.SetMerchantFee(c.Request.Context(), actor, merchant, *req.Bps); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FeeResponse{Bps: *req.Bps, Override: true})
}

// ClearMerchantFee handles DELETE /api/v1/admin/fees/merchants/:id.
func (h *AdminHandler) ClearMerchantFee(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchant, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	if err := h.registrySvc.ClearMerchantFee(c.Request.Context(), actor, merchant); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "merchant fee override cleared"})
}

// MerchantFee handles GET /api/v1/admin/fees/merchants/:id.
func (h *AdminHandler) MerchantFee(c *gin.Context) {
	merchant, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	bps, override := h.registrySvc.MerchantFee(c.Request.Context(), merchant)
	response.OK(c, dto.FeeResponse{Bps: bps, Override: override})
}

// SetAssets handles PUT /api/v1/admin/assets.
func (h *AdminHandler) SetAssets(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ListAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.registrySvc.SetAssetsListed(c.Request.Context(), actor, req.Assets, *req.Listed); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"assets": req.Assets, "listed": *req.Listed})
}

// Assets handles GET /api/v1/admin/assets.
func (h *AdminHandler) Assets(c *gin.Context) {
	response.OK(c, gin.H{"assets": h.registrySvc.ListedAssets(c.Request.Context())})
}

// SetMerchants handles PUT /api/v1/admin/merchants.
func (h *AdminHandler) SetMerchants(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ListMerchantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchants := make([]uuid.UUID, 0, len(req.Merchants))
	for _, m := range req.Merchants {
		id, err := uuid.Parse(m)
		if err != nil {
			response.Error(c, apperror.Validation("invalid merchant id"))
			return
		}
		merchants = append(merchants, id)
	}

	if err := h.registrySvc.SetMerchantsListed(c.Request.Context(), actor, merchants, *req.Listed); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"merchants": req.Merchants, "listed": *req.Listed})
}

// Merchants handles GET /api/v1/admin/merchants.
func (h *AdminHandler) Merchants(c *gin.Context) {
	listed := h.registrySvc.ListedMerchants(c.Request.Context())
	ids := make([]string, 0, len(listed))
	for _, m := range listed {
		ids = append(ids, m.String())
	}
	response.OK(c, gin.H{"merchants": ids})
}

// SetMerchantAssets handles PUT /api/v1/admin/merchants/:id/assets.
func (h *AdminHandler) SetMerchantAssets(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchant, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var req dto.ListAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.registrySvc.SetMerchantAssets(c.Request.Context(), actor, merchant, req.Assets, *req.Listed); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"merchant_id": merchant.String(), "assets": req.Assets, "listed": *req.Listed})
}

// MerchantAssets handles GET /api/v1/admin/merchants/:id/assets.
func (h *AdminHandler) MerchantAssets(c *gin.Context) {
	merchant, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	assets := h.registrySvc.MerchantAssets(c.Request.Context(), merchant)
	response.OK(c, gin.H{"merchant_id": merchant.String(), "assets": assets})
}

// Pause handles POST /api/v1/admin/pause.
func (h *AdminHandler) Pause(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	if err := h.registrySvc.Pause(c.Request.Context(), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.StatusResponse{Paused: true})
}

// Unpause handles POST /api/v1/admin/unpause.
func (h *AdminHandler) Unpause(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	if err := h.registrySvc.Unpause(c.Request.Context(), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.StatusResponse{Paused: false})
}

// Status handles GET /api/v1/admin/status.
func (h *AdminHandler) Status(c *gin.Context) {
	response.OK(c, dto.StatusResponse{Paused: h.registrySvc.IsPaused(c.Request.Context())})
}
