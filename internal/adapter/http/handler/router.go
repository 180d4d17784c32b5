package handler

import (
	"strconv"

	"commerce-ledger/internal/adapter/http/middleware"
	redisStore "commerce-ledger/internal/adapter/storage/redis"
	"commerce-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	InvoiceSvc     ports.InvoiceService
	SettlementSvc  ports.SettlementService
	WithdrawalSvc  ports.WithdrawalService
	TreasurySvc    ports.TreasuryService
	RegistrySvc    ports.RegistryService
	AuditSvc       ports.AuditService
	AccountRepo    ports.AccountRepository
	EncSvc         ports.EncryptionService
	SigSvc         ports.SignatureService
	NonceStore     ports.NonceStore
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- HMAC-authenticated routes (payer API) ---
	hmacAuth := middleware.HMACAuth(deps.AccountRepo, deps.EncSvc, deps.SigSvc, deps.NonceStore, deps.Logger)
	paymentHandler := NewPaymentHandler(deps.SettlementSvc, deps.RegistrySvc)
	payments := v1.Group("/payments", hmacAuth)
	{
		payments.POST("", rl("payments"), paymentHandler.Pay)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	invoiceHandler := NewInvoiceHandler(deps.InvoiceSvc)
	invoices := v1.Group("/invoices", jwtAuth)
	{
		invoices.POST("", rl("invoices"), invoiceHandler.Create)
		invoices.POST("/batch", rl("query"), invoiceHandler.GetBatch)
		invoices.GET("", rl("query"), invoiceHandler.List)
		invoices.GET("/recent", rl("query"), invoiceHandler.Recent)
		invoices.GET("/stats", rl("query"), invoiceHandler.Stats)
		invoices.GET("/:id", rl("query"), invoiceHandler.Get)
		invoices.POST("/:id/cancel", rl("invoices"), invoiceHandler.Cancel)
		invoices.POST("/:id/expire", rl("invoices"), invoiceHandler.Expire)
		invoices.POST("/:id/refund", rl("payments_refund"), paymentHandler.Refund)
	}

	merchants := v1.Group("/merchants", jwtAuth)
	{
		merchants.GET("/:id/balances", rl("query"), paymentHandler.Balances)
	}

	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc)
	withdrawals := v1.Group("/withdrawals", jwtAuth)
	{
		withdrawals.POST("", rl("withdrawals"), withdrawalHandler.Withdraw)
		withdrawals.POST("/to", rl("withdrawals"), withdrawalHandler.WithdrawTo)
		withdrawals.POST("/all", rl("withdrawals"), withdrawalHandler.WithdrawAll)
		withdrawals.GET("", rl("query"), withdrawalHandler.Query)
		withdrawals.GET("/recent", rl("query"), withdrawalHandler.Recent)
		withdrawals.GET("/count", rl("query"), withdrawalHandler.Count)
		withdrawals.GET("/totals", rl("query"), withdrawalHandler.Totals)
		withdrawals.GET("/at/:index", rl("query"), withdrawalHandler.ByIndex)
	}

	treasuryHandler := NewTreasuryHandler(deps.TreasurySvc, deps.SettlementSvc)
	treasury := v1.Group("/treasury", jwtAuth)
	{
		treasury.POST("/wallets", rl("treasury"), treasuryHandler.AddWallet)
		treasury.GET("/wallets", rl("query"), treasuryHandler.Wallets)
		treasury.GET("/wallets/:id", rl("query"), treasuryHandler.GetWallet)
		treasury.PUT("/wallets/:id", rl("treasury"), treasuryHandler.UpdateWallet)
		treasury.PUT("/wallets/:id/active", rl("treasury"), treasuryHandler.SetWalletActive)
		treasury.DELETE("/wallets/:id", rl("treasury"), treasuryHandler.RemoveWallet)
		treasury.GET("/wallets/:id/history", rl("query"), treasuryHandler.History)
		treasury.POST("/sweeps", rl("treasury"), treasuryHandler.Sweep)
		treasury.POST("/sweeps/all", rl("treasury"), treasuryHandler.SweepAll)
		treasury.GET("/stats", rl("query"), treasuryHandler.Stats)
		treasury.GET("/fees/:asset", rl("query"), treasuryHandler.FeeBalance)
	}

	adminHandler := NewAdminHandler(deps.RegistrySvc)
	admin := v1.Group("/admin", jwtAuth)
	{
		admin.POST("/roles", rl("admin"), adminHandler.GrantRole)
		admin.POST("/roles/revoke", rl("admin"), adminHandler.RevokeRole)
		admin.GET("/roles/:id", rl("query"), adminHandler.Roles)
		admin.PUT("/fees/default", rl("admin"), adminHandler.SetDefaultFee)
		admin.GET("/fees/default", rl("query"), adminHandler.DefaultFee)
		admin.PUT("/fees/merchants/:id", rl("admin"), adminHandler.SetMerchantFee)
		admin.DELETE("/fees/merchants/:id", rl("admin"), adminHandler.ClearMerchantFee)
		admin.GET("/fees/merchants/:id", rl("query"), adminHandler.MerchantFee)
		admin.PUT("/assets", rl("admin"), adminHandler.SetAssets)
		admin.GET("/assets", rl("query"), adminHandler.Assets)
		admin.PUT("/merchants", rl("admin"), adminHandler.SetMerchants)
		admin.GET("/merchants", rl("query"), adminHandler.Merchants)
		admin.PUT("/merchants/:id/assets", rl("admin"), adminHandler.SetMerchantAssets)
		admin.GET("/merchants/:id/assets", rl("query"), adminHandler.MerchantAssets)
		admin.POST("/pause", rl("admin"), adminHandler.Pause)
		admin.POST("/unpause", rl("admin"), adminHandler.Unpause)
		admin.GET("/status", rl("query"), adminHandler.Status)
	}

	if deps.AuditSvc != nil {
		auditHandler := NewAuditHandler(deps.AuditSvc)
		audit := v1.Group("/audit", jwtAuth)
		{
			audit.GET("/recent", rl("query"), auditHandler.Recent)
			audit.GET("/entities/:id", rl("query"), auditHandler.ByEntity)
			audit.GET("/actors/:id", rl("query"), auditHandler.ByActor)
		}
	}

	return r
}

// actorID extracts the authenticated account from the request context.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// limitQuery parses the limit query param with a fallback default.
func limitQuery(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || n < 1 || n > 500 {
		return def
	}
	return n
}
