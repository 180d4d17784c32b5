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

// TreasuryHandler handles treasury wallet and fee sweep endpoints.
type TreasuryHandler struct {
	treasurySvc   ports.TreasuryService
	settlementSvc ports.SettlementService
}

// NewTreasuryHandler creates a new TreasuryHandler.
func NewTreasuryHandler(treasurySvc ports.TreasuryService, settlementSvc ports.SettlementService) *TreasuryHandler {
	return &TreasuryHandler{treasurySvc: treasurySvc, settlementSvc: settlementSvc}
}

// AddWallet handles POST /api/v1/treasury/wallets.
func (h *TreasuryHandler) AddWallet(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.AddWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.treasurySvc.AddWallet(c.Request.Context(), actor, walletID, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toWalletResponse(wallet))
}

// RemoveWallet handles DELETE /api/v1/treasury/wallets/:id.
func (h *TreasuryHandler) RemoveWallet(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	if err := h.treasurySvc.RemoveWallet(c.Request.Context(), actor, walletID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "wallet removed"})
}

// UpdateWallet handles PUT /api/v1/treasury/wallets/:id.
func (h *TreasuryHandler) UpdateWallet(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.treasurySvc.UpdateWallet(c.Request.Context(), actor, walletID, req.Description); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "wallet updated"})
}

// SetWalletActive handles PUT /api/v1/treasury/wallets/:id/active.
func (h *TreasuryHandler) SetWalletActive(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	var req dto.SetWalletActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.treasurySvc.SetWalletActive(c.Request.Context(), actor, walletID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"wallet_id": walletID.String(), "active": *req.Active})
}

// GetWallet handles GET /api/v1/treasury/wallets/:id.
func (h *TreasuryHandler) GetWallet(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.treasurySvc.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWalletResponse(wallet))
}

// Wallets handles GET /api/v1/treasury/wallets.
func (h *TreasuryHandler) Wallets(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	wallets := h.treasurySvc.Wallets(c.Request.Context(), activeOnly)

	items := make([]dto.TreasuryWalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, toWalletResponse(&wallets[i]))
	}
	response.OK(c, items)
}

// Sweep handles POST /api/v1/treasury/sweeps.
func (h *TreasuryHandler) Sweep(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	rec, err := h.treasurySvc.Sweep(c.Request.Context(), actor, req.Asset, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toWithdrawalResponse(rec))
}

// SweepAll handles POST /api/v1/treasury/sweeps/all.
func (h *TreasuryHandler) SweepAll(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SweepAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	records, err := h.treasurySvc.SweepAll(c.Request.Context(), actor, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toWithdrawalResponses(records))
}

// History handles GET /api/v1/treasury/wallets/:id/history.
func (h *TreasuryHandler) History(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	records := h.treasurySvc.History(c.Request.Context(), walletID)
	response.OK(c, toWithdrawalResponses(records))
}

// Stats handles GET /api/v1/treasury/stats.
func (h *TreasuryHandler) Stats(c *gin.Context) {
	stats := h.treasurySvc.Stats(c.Request.Context())
	response.OK(c, dto.TreasuryStatsResponse{
		TotalSweeps:   stats.TotalSweeps,
		TotalsByAsset: stats.TotalsByAsset,
	})
}

// FeeBalance handles GET /api/v1/treasury/fees/:asset.
func (h *TreasuryHandler) FeeBalance(c *gin.Context) {
	asset := c.Param("asset")
	response.OK(c, dto.FeeBalanceResponse{
		Asset:   asset,
		Balance: h.settlementSvc.ServiceFeeBalance(c.Request.Context(), asset),
	})
}

// toWalletResponse converts domain.TreasuryWallet to DTO.
func toWalletResponse(w *domain.TreasuryWallet) dto.TreasuryWalletResponse {
	return dto.TreasuryWalletResponse{
		ID:          w.ID.String(),
		Description: w.Description,
		Active:      w.Active,
		AddedAt:     w.AddedAt.Format(time.RFC3339),
		UpdatedAt:   w.UpdatedAt.Format(time.RFC3339),
	}
}
