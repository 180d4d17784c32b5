package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-ledger/config"
	"commerce-ledger/internal/adapter/custody"
	httpHandler "commerce-ledger/internal/adapter/http/handler"
	pgStorage "commerce-ledger/internal/adapter/storage/postgres"
	redisStorage "commerce-ledger/internal/adapter/storage/redis"
	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/internal/ledger"
	"commerce-ledger/internal/service"
	"commerce-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Commerce Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)

	// Initialize Redis stores
	nonceStore := redisStorage.NewNonceStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewRequestSigner()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize the asset bank
	var bank ports.AssetBank
	switch cfg.Custody.Mode {
	case "gateway":
		bank = custody.NewClient(cfg.Custody.BaseURL, cfg.Custody.APIKey, nil, log)
		log.Info().Str("base_url", cfg.Custody.BaseURL).Msg("Custody gateway bank configured")
	default:
		bank = custody.NewMemoryBank()
		log.Warn().Msg("In-memory asset bank configured, balances will not survive restarts")
	}

	// Initialize the settlement core
	store := ledger.NewStore()
	guard := ledger.NewGuard()
	bootstrap(store, cfg.Ledger, log)

	// Initialize business services
	auditSvc := service.NewAuditService(auditRepo, log)
	authSvc := service.NewAuthService(accountRepo, hashSvc, encSvc, tokenSvc, auditSvc)
	registrySvc := service.NewRegistryService(store, auditSvc, log)
	invoiceSvc := service.NewInvoiceService(store, guard, auditSvc, log)
	settlementSvc := service.NewSettlementService(store, guard, bank, auditSvc, log)
	withdrawalSvc := service.NewWithdrawalService(store, guard, bank, auditSvc, log)
	treasurySvc := service.NewTreasuryService(store, guard, bank, auditSvc, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		InvoiceSvc:     invoiceSvc,
		SettlementSvc:  settlementSvc,
		WithdrawalSvc:  withdrawalSvc,
		TreasurySvc:    treasurySvc,
		RegistrySvc:    registrySvc,
		AuditSvc:       auditSvc,
		AccountRepo:    accountRepo,
		EncSvc:         encSvc,
		SigSvc:         sigSvc,
		NonceStore:     nonceStore,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// bootstrap seeds a fresh ledger: the configured admin account and the
// default fee rate. Without a first admin, role administration has no
// entry point.
func bootstrap(store *ledger.Store, cfg config.LedgerConfig, log zerolog.Logger) {
	m := store.RegisterMutator("bootstrap")
	defer store.DeregisterMutator(m)

	if cfg.BootstrapAdmin != "" {
		admin, err := uuid.Parse(cfg.BootstrapAdmin)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid bootstrap admin account ID")
		}
		if err := store.GrantRole(m, admin, domain.RoleAdmin); err != nil {
			log.Fatal().Err(err).Msg("Failed to grant bootstrap admin role")
		}
		log.Info().Str("account_id", admin.String()).Msg("Bootstrap admin granted")
	} else {
		log.Warn().Msg("No bootstrap admin configured, role administration is unavailable")
	}

	if cfg.DefaultFeeBps > 0 {
		if err := store.SetDefaultFeeBps(m, cfg.DefaultFeeBps); err != nil {
			log.Fatal().Err(err).Msg("Failed to set default fee")
		}
	}
}
