package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commerce-ledger/internal/adapter/custody"
	"commerce-ledger/internal/adapter/http/dto"
	"commerce-ledger/internal/adapter/http/middleware"
	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/internal/core/ports/mocks"
	"commerce-ledger/internal/ledger"
	"commerce-ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerTestDeps struct {
	store *ledger.Store
	bank  *custody.MemoryBank

	admin    uuid.UUID
	merchant uuid.UUID
	payer    uuid.UUID

	invoiceH    *InvoiceHandler
	paymentH    *PaymentHandler
	adminH      *AdminHandler
	withdrawalH *WithdrawalHandler
	treasuryH   *TreasuryHandler
}

func setupHandlers(t *testing.T) *handlerTestDeps {
	store := ledger.NewStore()
	guard := ledger.NewGuard()
	bank := custody.NewMemoryBank()
	audit := service.NewAuditService(nil, zerolog.Nop())

	d := &handlerTestDeps{
		store:    store,
		bank:     bank,
		admin:    uuid.New(),
		merchant: uuid.New(),
		payer:    uuid.New(),
	}

	registry := service.NewRegistryService(store, audit, zerolog.Nop())
	invoices := service.NewInvoiceService(store, guard, audit, zerolog.Nop())
	settlement := service.NewSettlementService(store, guard, bank, audit, zerolog.Nop())
	withdrawals := service.NewWithdrawalService(store, guard, bank, audit, zerolog.Nop())
	treasury := service.NewTreasuryService(store, guard, bank, audit, zerolog.Nop())

	d.invoiceH = NewInvoiceHandler(invoices)
	d.paymentH = NewPaymentHandler(settlement, registry)
	d.adminH = NewAdminHandler(registry)
	d.withdrawalH = NewWithdrawalHandler(withdrawals)
	d.treasuryH = NewTreasuryHandler(treasury, settlement)

	m := store.RegisterMutator("test")
	require.NoError(t, store.GrantRole(m, d.admin, domain.RoleAdmin))
	require.NoError(t, store.SetMerchantListed(m, d.merchant, true))
	require.NoError(t, store.SetAssetListed(m, "TokenX", true))
	require.NoError(t, store.SetMerchantAsset(m, d.merchant, "TokenX", true))
	require.NoError(t, store.SetDefaultFeeBps(m, 100))
	return d
}

// perform invokes a handler directly with an authenticated test context.
func perform(t *testing.T, actor uuid.UUID, method string, body interface{}, params gin.Params, fn gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	if actor != uuid.Nil {
		c.Set(middleware.CtxAccountID, actor)
	}

	fn(c)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

func (d *handlerTestDeps) createInvoice(t *testing.T, id string, amount int64) {
	t.Helper()
	w := perform(t, d.merchant, http.MethodPost, dto.CreateInvoiceRequest{
		ID:      id,
		Options: []dto.PaymentOption{{Asset: "TokenX", Amount: amount}},
	}, nil, d.invoiceH.Create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (d *handlerTestDeps) payInvoice(t *testing.T, id string, amount int64) {
	t.Helper()
	d.bank.Deposit(d.payer, "TokenX", amount)
	w := perform(t, d.payer, http.MethodPost, dto.PayRequest{
		InvoiceID: id, Asset: "TokenX", Amount: amount,
	}, nil, d.paymentH.Pay)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

// --- Invoice handler ---

func TestCreateInvoice_Success(t *testing.T) {
	d := setupHandlers(t)

	w := perform(t, d.merchant, http.MethodPost, dto.CreateInvoiceRequest{
		ID:      "inv-1",
		Options: []dto.PaymentOption{{Asset: "TokenX", Amount: 10000}},
	}, nil, d.invoiceH.Create)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "inv-1", data["id"])
	assert.Equal(t, "PENDING", data["status"])
	assert.Equal(t, d.merchant.String(), data["merchant_id"])
}

func TestCreateInvoice_ValidationError(t *testing.T) {
	d := setupHandlers(t)

	// No options => binding error
	w := perform(t, d.merchant, http.MethodPost, map[string]interface{}{"id": "inv-1"}, nil, d.invoiceH.Create)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateInvoice_Unauthenticated(t *testing.T) {
	d := setupHandlers(t)

	w := perform(t, uuid.Nil, http.MethodPost, dto.CreateInvoiceRequest{
		ID:      "inv-1",
		Options: []dto.PaymentOption{{Asset: "TokenX", Amount: 10000}},
	}, nil, d.invoiceH.Create)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCancelInvoice(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)

	w := perform(t, d.merchant, http.MethodPost, nil,
		gin.Params{{Key: "id", Value: "inv-1"}}, d.invoiceH.Cancel)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CANCELLED", decodeData(t, w)["status"])
}

func TestGetInvoice_NotFound(t *testing.T) {
	d := setupHandlers(t)

	w := perform(t, d.merchant, http.MethodGet, nil,
		gin.Params{{Key: "id", Value: "missing"}}, d.invoiceH.Get)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Payment handler ---

func TestPay_Success(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)
	d.bank.Deposit(d.payer, "TokenX", 10000)

	w := perform(t, d.payer, http.MethodPost, dto.PayRequest{
		InvoiceID: "inv-1", Asset: "TokenX", Amount: 10000,
	}, nil, d.paymentH.Pay)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "PAID", data["status"])
	assert.Equal(t, float64(100), data["fee"])
	assert.Equal(t, int64(0), d.bank.BalanceOf(d.payer, "TokenX"))
}

func TestPay_Mismatch(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)
	d.bank.Deposit(d.payer, "TokenX", 10000)

	w := perform(t, d.payer, http.MethodPost, dto.PayRequest{
		InvoiceID: "inv-1", Asset: "TokenX", Amount: 9999,
	}, nil, d.paymentH.Pay)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRefund_RequiresOperator(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)
	d.payInvoice(t, "inv-1", 10000)

	// The merchant itself may not refund
	w := perform(t, d.merchant, http.MethodPost, nil,
		gin.Params{{Key: "id", Value: "inv-1"}}, d.paymentH.Refund)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An admin may
	w = perform(t, d.admin, http.MethodPost, nil,
		gin.Params{{Key: "id", Value: "inv-1"}}, d.paymentH.Refund)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "REFUNDED", decodeData(t, w)["status"])
	assert.Equal(t, int64(10000), d.bank.BalanceOf(d.payer, "TokenX"))
}

func TestBalances(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)
	d.payInvoice(t, "inv-1", 10000)

	w := perform(t, d.merchant, http.MethodGet, nil,
		gin.Params{{Key: "id", Value: d.merchant.String()}}, d.paymentH.Balances)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	balances := data["balances"].(map[string]interface{})
	assert.Equal(t, float64(9900), balances["TokenX"])
}

// --- Withdrawal handler ---

func TestWithdraw_Success(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)
	d.payInvoice(t, "inv-1", 10000)

	w := perform(t, d.merchant, http.MethodPost, dto.WithdrawRequest{Asset: "TokenX"}, nil, d.withdrawalH.Withdraw)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(9900), data["amount"])
	assert.Equal(t, "MERCHANT", data["kind"])
	assert.Equal(t, int64(9900), d.bank.BalanceOf(d.merchant, "TokenX"))
}

func TestWithdraw_EmptyBalance(t *testing.T) {
	d := setupHandlers(t)

	w := perform(t, d.merchant, http.MethodPost, dto.WithdrawRequest{Asset: "TokenX"}, nil, d.withdrawalH.Withdraw)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

// --- Admin handler ---

func TestGrantRole(t *testing.T) {
	d := setupHandlers(t)
	operator := uuid.New()

	w := perform(t, d.admin, http.MethodPost, dto.RoleRequest{
		AccountID: operator.String(),
		Role:      string(domain.RoleBackendOperator),
	}, nil, d.adminH.GrantRole)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, d.store.HasRole(operator, domain.RoleBackendOperator))

	// Non-admin actors are rejected
	w = perform(t, d.merchant, http.MethodPost, dto.RoleRequest{
		AccountID: operator.String(),
		Role:      string(domain.RoleOnboarding),
	}, nil, d.adminH.GrantRole)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPauseBlocksInvoiceCreation(t *testing.T) {
	d := setupHandlers(t)

	w := perform(t, d.admin, http.MethodPost, nil, nil, d.adminH.Pause)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, d.merchant, http.MethodPost, dto.CreateInvoiceRequest{
		ID:      "inv-1",
		Options: []dto.PaymentOption{{Asset: "TokenX", Amount: 10000}},
	}, nil, d.invoiceH.Create)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = perform(t, d.merchant, http.MethodGet, nil, nil, d.adminH.Status)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["paused"])
}

func TestSetDefaultFee_ZeroSurvivesBinding(t *testing.T) {
	d := setupHandlers(t)

	w := perform(t, d.admin, http.MethodPut, map[string]interface{}{"bps": 0}, nil, d.adminH.SetDefaultFee)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), d.store.DefaultFeeBps())
}

// --- Treasury handler ---

func TestTreasury_SweepFlow(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)
	d.payInvoice(t, "inv-1", 10000)

	wallet := uuid.New()
	w := perform(t, d.admin, http.MethodPost, dto.AddWalletRequest{
		WalletID:    wallet.String(),
		Description: "ops wallet",
	}, nil, d.treasuryH.AddWallet)
	require.Equal(t, http.StatusCreated, w.Code)

	w = perform(t, d.admin, http.MethodPost, dto.SweepRequest{
		Asset:    "TokenX",
		WalletID: wallet.String(),
	}, nil, d.treasuryH.Sweep)
	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(100), data["amount"])
	assert.Equal(t, "TREASURY", data["kind"])
	assert.Equal(t, int64(100), d.bank.BalanceOf(wallet, "TokenX"))
}

func TestTreasury_FeeBalance(t *testing.T) {
	d := setupHandlers(t)
	d.createInvoice(t, "inv-1", 10000)
	d.payInvoice(t, "inv-1", 10000)

	w := perform(t, d.admin, http.MethodGet, nil,
		gin.Params{{Key: "asset", Value: "TokenX"}}, d.treasuryH.FeeBalance)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decodeData(t, w)["balance"])
}

// --- Auth handler ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAccountRepository(ctrl)
	repo.EXPECT().GetByUsername(gomock.Any(), "testuser").Return(nil, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	encSvc, err := service.NewAESEncryptionService(strings.Repeat("ab", 32))
	require.NoError(t, err)

	authSvc := service.NewAuthService(
		repo,
		service.NewArgon2HashService(),
		encSvc,
		service.NewJWTTokenService("test-secret", time.Hour, "commerce-ledger"),
		service.NewAuditService(nil, zerolog.Nop()),
	)
	h := NewAuthHandler(authSvc)

	w := perform(t, uuid.Nil, http.MethodPost, dto.RegisterRequest{
		Username:    "testuser",
		Password:    "password123",
		DisplayName: "Test Shop",
	}, nil, h.Register)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Len(t, data["access_key"], 64)
	assert.Len(t, data["secret_key"], 64)
}

func TestRegister_ValidationError(t *testing.T) {
	h := NewAuthHandler(nil)

	w := perform(t, uuid.Nil, http.MethodPost, map[string]interface{}{}, nil, h.Register)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health check ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                  { return s.name }
func (s stubChecker) Check(_ context.Context) error { return s.err }

var _ ports.HealthChecker = stubChecker{}

func TestHealthCheck_Healthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "redis", err: errors.New("connection refused")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

// Router smoke test: unauthenticated requests are rejected.
func TestRouter_RequiresAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := SetupRouter(RouterDeps{
		AuthSvc:       nil,
		InvoiceSvc:    nil,
		SettlementSvc: nil,
		WithdrawalSvc: nil,
		TreasurySvc:   nil,
		RegistrySvc:   nil,
		AccountRepo:   mocks.NewMockAccountRepository(ctrl),
		TokenSvc:      service.NewJWTTokenService("test-secret", time.Hour, "commerce-ledger"),
		Logger:        zerolog.Nop(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SEC_001", resp["error_code"])
}
