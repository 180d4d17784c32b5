package service

import (
	"context"
	"time"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/internal/ledger"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InvoiceServiceImpl implements ports.InvoiceService. Lifecycle
// transitions (cancel, expire) run under the shared operation guard so
// they serialize with settlement: a cancel can never land between a
// payment's validation and its commit.
type InvoiceServiceImpl struct {
	store   *ledger.Store
	guard   *ledger.Guard
	mutator ledger.Mutator
	audit   ports.AuditService
	log     zerolog.Logger
}

// NewInvoiceService creates a new InvoiceServiceImpl and registers its
// write token with the store.
func NewInvoiceService(store *ledger.Store, guard *ledger.Guard, audit ports.AuditService, log zerolog.Logger) *InvoiceServiceImpl {
	return &InvoiceServiceImpl{
		store:   store,
		guard:   guard,
		mutator: store.RegisterMutator("invoices"),
		audit:   audit,
		log:     log,
	}
}

// requireMerchantOrOperator fails unless the actor is the merchant
// itself, a backend operator, or an admin.
func (s *InvoiceServiceImpl) requireMerchantOrOperator(actor, merchant uuid.UUID) error {
	if actor == merchant {
		return nil
	}
	if s.store.HasRole(actor, domain.RoleBackendOperator) || s.store.HasRole(actor, domain.RoleAdmin) {
		return nil
	}
	return apperror.ErrNotAuthorized("merchant or backend operator required")
}

// Create issues a new PENDING invoice. The merchant and every option
// asset must be whitelisted, globally and for the merchant.
func (s *InvoiceServiceImpl) Create(ctx context.Context, actor uuid.UUID, req ports.CreateInvoiceRequest) (*domain.Invoice, error) {
	if s.store.IsPaused() {
		return nil, apperror.ErrSystemPaused()
	}
	if err := s.requireMerchantOrOperator(actor, req.MerchantID); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, apperror.Validation("invoice id must not be empty")
	}
	if len(req.Options) == 0 {
		return nil, apperror.Validation("invoice needs at least one payment option")
	}

	now := time.Now().UTC()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, apperror.Validation("expiry must be in the future")
	}
	if !s.store.IsMerchantListed(req.MerchantID) {
		return nil, apperror.ErrNotWhitelisted("merchant")
	}
	for _, opt := range req.Options {
		if opt.Asset == "" {
			return nil, apperror.Validation("payment option asset must not be empty")
		}
		if opt.Amount <= 0 {
			return nil, apperror.ErrInvalidAmount()
		}
		if !s.store.IsAssetListed(opt.Asset) {
			return nil, apperror.ErrNotWhitelisted("asset " + opt.Asset)
		}
		if !s.store.IsMerchantAssetListed(req.MerchantID, opt.Asset) {
			return nil, apperror.ErrNotWhitelisted("asset " + opt.Asset + " for merchant")
		}
	}

	inv := &domain.Invoice{
		ID:         req.ID,
		MerchantID: req.MerchantID,
		Options:    append([]domain.PaymentOption(nil), req.Options...),
		Status:     domain.InvoiceStatusPending,
		CreatedAt:  now,
		ExpiresAt:  req.ExpiresAt,
	}
	if err := s.store.PutInvoice(s.mutator, inv); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpInvoiceCreate,
		EntityID: inv.ID,
		ActorID:  &actor,
	})
	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("merchant_id", inv.MerchantID.String()).
		Int("options", len(inv.Options)).
		Msg("invoice created")

	return inv, nil
}

// Cancel moves a PENDING invoice to CANCELLED.
func (s *InvoiceServiceImpl) Cancel(ctx context.Context, actor uuid.UUID, invoiceID string) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}

		var err error
		inv, err = s.store.GetInvoice(invoiceID)
		if err != nil {
			return err
		}
		if err := s.requireMerchantOrOperator(actor, inv.MerchantID); err != nil {
			return err
		}
		if !inv.IsPending() {
			return apperror.ErrInvalidState("only pending invoices can be cancelled")
		}

		now := time.Now().UTC()
		inv.Status = domain.InvoiceStatusCancelled
		inv.CancelledAt = &now
		return s.store.UpdateInvoice(s.mutator, inv)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpInvoiceCancel,
		EntityID: inv.ID,
		ActorID:  &actor,
	})
	return inv, nil
}

// Expire observes a lapsed expiry and moves the invoice to EXPIRED.
// Expiry never happens on its own; someone must report it. Any caller
// may, since the transition only follows the clock.
func (s *InvoiceServiceImpl) Expire(ctx context.Context, actor uuid.UUID, invoiceID string) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}

		var err error
		inv, err = s.store.GetInvoice(invoiceID)
		if err != nil {
			return err
		}
		if !inv.IsPending() {
			return apperror.ErrInvalidState("only pending invoices can expire")
		}

		now := time.Now().UTC()
		if !inv.IsExpiredAt(now) {
			return apperror.ErrInvalidState("invoice has not reached its expiry")
		}

		inv.Status = domain.InvoiceStatusExpired
		inv.ExpiredAt = &now
		return s.store.UpdateInvoice(s.mutator, inv)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpInvoiceExpire,
		EntityID: inv.ID,
		ActorID:  &actor,
	})
	return inv, nil
}

// Get fetches a single invoice.
func (s *InvoiceServiceImpl) Get(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.store.GetInvoice(invoiceID)
}

// GetBatch fetches a batch of invoices, skipping unknown ids.
func (s *InvoiceServiceImpl) GetBatch(ctx context.Context, invoiceIDs []string) []domain.Invoice {
	return s.store.GetInvoices(invoiceIDs)
}

// ByMerchant lists a merchant's invoices, optionally filtered by status.
func (s *InvoiceServiceImpl) ByMerchant(ctx context.Context, merchant uuid.UUID, status *domain.InvoiceStatus) []domain.Invoice {
	return s.store.InvoicesByMerchant(merchant, status)
}

// Recent returns the n most recently created invoices, newest first.
func (s *InvoiceServiceImpl) Recent(ctx context.Context, n int) []domain.Invoice {
	return s.store.RecentInvoices(n)
}

// Stats aggregates a merchant's invoice counts by status.
func (s *InvoiceServiceImpl) Stats(ctx context.Context, merchant uuid.UUID) domain.InvoiceStats {
	return s.store.InvoiceStats(merchant)
}
