package handler

import (
	"strconv"
	"time"

	"commerce-ledger/internal/adapter/http/dto"
	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/pkg/apperror"
	"commerce-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalHandler handles withdrawal endpoints and history queries.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc}
}

// Withdraw handles POST /api/v1/withdrawals. It drains the merchant's
// full balance in one asset to the merchant itself.
func (h *WithdrawalHandler) Withdraw(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := merchantOrActor(actor, req.MerchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	rec, err := h.withdrawalSvc.Withdraw(c.Request.Context(), actor, merchant, req.Asset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toWithdrawalResponse(rec))
}

// WithdrawTo handles POST /api/v1/withdrawals/to.
func (h *WithdrawalHandler) WithdrawTo(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := merchantOrActor(actor, req.MerchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	recipient, err := uuid.Parse(req.Recipient)
	if err != nil {
		response.Error(c, apperror.Validation("invalid recipient"))
		return
	}

	rec, err := h.withdrawalSvc.WithdrawTo(c.Request.Context(), actor, merchant, req.Asset, req.Amount, recipient)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toWithdrawalResponse(rec))
}

// WithdrawAll handles POST /api/v1/withdrawals/all.
func (h *WithdrawalHandler) WithdrawAll(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := merchantOrActor(actor, req.MerchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.withdrawalSvc.WithdrawAll(c.Request.Context(), actor, merchant, req.Assets)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toWithdrawalResponses(records))
}

// Query handles GET /api/v1/withdrawals.
func (h *WithdrawalHandler) Query(c *gin.Context) {
	q, err := withdrawalQueryFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	records := h.withdrawalSvc.Query(c.Request.Context(), q)
	response.OK(c, toWithdrawalResponses(records))
}

// Recent handles GET /api/v1/withdrawals/recent.
func (h *WithdrawalHandler) Recent(c *gin.Context) {
	records := h.withdrawalSvc.Recent(c.Request.Context(), limitQuery(c, 20))
	response.OK(c, toWithdrawalResponses(records))
}

// Count handles GET /api/v1/withdrawals/count.
func (h *WithdrawalHandler) Count(c *gin.Context) {
	response.OK(c, gin.H{"count": h.withdrawalSvc.Count(c.Request.Context())})
}

// ByIndex handles GET /api/v1/withdrawals/at/:index.
func (h *WithdrawalHandler) ByIndex(c *gin.Context) {
	index, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("invalid index"))
		return
	}

	rec, err := h.withdrawalSvc.ByIndex(c.Request.Context(), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toWithdrawalResponse(rec))
}

// Totals handles GET /api/v1/withdrawals/totals.
func (h *WithdrawalHandler) Totals(c *gin.Context) {
	q, err := withdrawalQueryFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	totals := h.withdrawalSvc.TotalsByAsset(c.Request.Context(), q)
	response.OK(c, gin.H{"totals": totals})
}

// merchantOrActor resolves the target merchant: an explicit merchant_id
// when given, otherwise the authenticated account.
func merchantOrActor(actor uuid.UUID, merchantID *string) (uuid.UUID, error) {
	if merchantID == nil {
		return actor, nil
	}
	id, err := uuid.Parse(*merchantID)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid merchant_id")
	}
	return id, nil
}

// withdrawalQueryFromContext builds a history filter from query params.
func withdrawalQueryFromContext(c *gin.Context) (domain.WithdrawalQuery, error) {
	var q domain.WithdrawalQuery

	if m := c.Query("merchant_id"); m != "" {
		id, err := uuid.Parse(m)
		if err != nil {
			return q, apperror.Validation("invalid merchant_id")
		}
		q.MerchantID = &id
	}
	if w := c.Query("wallet_id"); w != "" {
		id, err := uuid.Parse(w)
		if err != nil {
			return q, apperror.Validation("invalid wallet_id")
		}
		q.WalletID = &id
	}
	if a := c.Query("asset"); a != "" {
		q.Asset = &a
	}
	if k := c.Query("kind"); k != "" {
		kind := domain.WithdrawalKind(k)
		q.Kind = &kind
	}
	if f := c.Query("from"); f != "" {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return q, apperror.Validation("invalid from timestamp")
		}
		t := time.Unix(v, 0)
		q.From = &t
	}
	if to := c.Query("to"); to != "" {
		v, err := strconv.ParseInt(to, 10, 64)
		if err != nil {
			return q, apperror.Validation("invalid to timestamp")
		}
		t := time.Unix(v, 0)
		q.To = &t
	}
	return q, nil
}

// toWithdrawalResponse converts domain.WithdrawalRecord to DTO.
func toWithdrawalResponse(rec *domain.WithdrawalRecord) dto.WithdrawalResponse {
	resp := dto.WithdrawalResponse{
		ID:          rec.ID.String(),
		Kind:        string(rec.Kind),
		Asset:       rec.Asset,
		Amount:      rec.Amount,
		Recipient:   rec.Recipient.String(),
		InitiatedBy: rec.InitiatedBy.String(),
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.MerchantID != nil {
		s := rec.MerchantID.String()
		resp.MerchantID = &s
	}
	if rec.WalletID != nil {
		s := rec.WalletID.String()
		resp.WalletID = &s
	}
	return resp
}

func toWithdrawalResponses(records []domain.WithdrawalRecord) []dto.WithdrawalResponse {
	items := make([]dto.WithdrawalResponse, 0, len(records))
	for i := range records {
		items = append(items, toWithdrawalResponse(&records[i]))
	}
	return items
}
