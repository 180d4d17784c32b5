package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/internal/ledger"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService. Payments and
// refunds run under the shared operation guard: the guard is held from
// the first validation until the external transfer has completed, so no
// concurrent operation can observe or exploit a half-settled invoice.
type SettlementServiceImpl struct {
	store   *ledger.Store
	guard   *ledger.Guard
	bank    ports.AssetBank
	mutator ledger.Mutator
	audit   ports.AuditService
	log     zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl and registers
// its write token with the store.
func NewSettlementService(
	store *ledger.Store,
	guard *ledger.Guard,
	bank ports.AssetBank,
	audit ports.AuditService,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		store:   store,
		guard:   guard,
		bank:    bank,
		mutator: store.RegisterMutator("settlement"),
		audit:   audit,
		log:     log,
	}
}

// bankError passes structured custody errors through and wraps anything
// else as an internal error.
func bankError(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// Pay settles a PENDING invoice with an exact (asset, amount) match
// against one of its payment options. Funds are pulled from the payer
// before any ledger state changes, so a failed pull leaves nothing
// behind. The fee split uses the merchant override when set, the global
// default otherwise, with the fee rounded down.
func (s *SettlementServiceImpl) Pay(ctx context.Context, payer uuid.UUID, req ports.PayRequest) (*domain.Invoice, error) {
	if payer == uuid.Nil {
		return nil, apperror.Validation("payer must not be zero")
	}
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	var paid *domain.Invoice
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}

		inv, err := s.store.GetInvoice(req.InvoiceID)
		if err != nil {
			return err
		}
		if !inv.IsPending() {
			return apperror.ErrInvalidState("invoice is not pending")
		}
		now := time.Now().UTC()
		if inv.IsExpiredAt(now) {
			return apperror.ErrInvalidState("invoice has expired")
		}
		if !inv.MatchesOption(req.Asset, req.Amount) {
			return apperror.ErrPaymentMismatch()
		}
		if !s.store.IsMerchantListed(inv.MerchantID) {
			return apperror.ErrNotWhitelisted("merchant")
		}
		if !s.store.IsAssetListed(req.Asset) {
			return apperror.ErrNotWhitelisted("asset " + req.Asset)
		}
		if !s.store.IsMerchantAssetListed(inv.MerchantID, req.Asset) {
			return apperror.ErrNotWhitelisted("asset " + req.Asset + " for merchant")
		}

		bps := s.store.DefaultFeeBps()
		if override, ok := s.store.MerchantFeeBps(inv.MerchantID); ok {
			bps = override
		}
		fee, net := domain.SplitFee(req.Amount, bps)

		// Custody first: nothing is committed until the payer's funds
		// are actually in hand.
		if err := s.bank.Pull(ctx, req.Asset, payer, req.Amount); err != nil {
			return bankError("pull payment", err)
		}

		inv.Status = domain.InvoiceStatusPaid
		inv.Payer = &payer
		inv.Asset = req.Asset
		inv.Amount = req.Amount
		inv.Fee = fee
		inv.PaidAt = &now

		if err := s.store.UpdateInvoice(s.mutator, inv); err != nil {
			return err
		}
		if err := s.store.AddBalance(s.mutator, inv.MerchantID, req.Asset, net); err != nil {
			return err
		}
		if err := s.store.AddServiceFee(s.mutator, req.Asset, fee); err != nil {
			return err
		}

		paid = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpPayment,
		EntityID: paid.ID,
		ActorID:  &payer,
		Asset:    paid.Asset,
		Amount:   paid.Amount,
	})
	s.log.Info().
		Str("invoice_id", paid.ID).
		Str("payer", payer.String()).
		Str("asset", paid.Asset).
		Int64("amount", paid.Amount).
		Int64("fee", paid.Fee).
		Msg("invoice paid")

	return paid, nil
}

// Refund reverses a PAID invoice: the merchant's net credit and the
// protocol's fee share are both debited, the invoice moves to REFUNDED,
// and the gross amount is pushed back to the payer. The push happens
// after the ledger commit; if it fails the debits stand and the failure
// surfaces to the caller for out-of-band recovery.
func (s *SettlementServiceImpl) Refund(ctx context.Context, actor uuid.UUID, invoiceID string) (*domain.Invoice, error) {
	if !s.store.HasRole(actor, domain.RoleBackendOperator) && !s.store.HasRole(actor, domain.RoleAdmin) {
		return nil, apperror.ErrNotAuthorized("backend operator required")
	}

	var refunded *domain.Invoice
	var pushErr error
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}

		inv, err := s.store.GetInvoice(invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvoiceStatusPaid {
			return apperror.ErrInvalidState("only paid invoices can be refunded")
		}

		net := inv.Amount - inv.Fee
		if err := s.store.SubBalance(s.mutator, inv.MerchantID, inv.Asset, net); err != nil {
			return err
		}
		if err := s.store.SubServiceFee(s.mutator, inv.Asset, inv.Fee); err != nil {
			// Put the merchant debit back so a partial refund never commits.
			if undoErr := s.store.AddBalance(s.mutator, inv.MerchantID, inv.Asset, net); undoErr != nil {
				s.log.Error().Err(undoErr).Str("invoice_id", inv.ID).Msg("failed to restore merchant balance")
			}
			return err
		}

		now := time.Now().UTC()
		inv.Status = domain.InvoiceStatusRefunded
		inv.RefundedAt = &now
		if err := s.store.UpdateInvoice(s.mutator, inv); err != nil {
			return err
		}
		refunded = inv

		// The outbound leg shows up in withdrawal history like any other
		// debit, linked back to the refunded invoice.
		invoiceID := inv.ID
		merchantID := inv.MerchantID
		rec := &domain.WithdrawalRecord{
			ID:          uuid.New(),
			Kind:        domain.WithdrawalKindMerchant,
			Asset:       inv.Asset,
			Amount:      inv.Amount,
			Recipient:   *inv.Payer,
			InitiatedBy: actor,
			MerchantID:  &merchantID,
			InvoiceID:   &invoiceID,
			CreatedAt:   now,
		}
		if err := s.store.AppendWithdrawal(s.mutator, rec); err != nil {
			return err
		}

		// Ledger state is committed; the push failing does not unwind it.
		if err := s.bank.Push(ctx, inv.Asset, *inv.Payer, inv.Amount); err != nil {
			pushErr = bankError("push refund", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpRefund,
		EntityID: refunded.ID,
		ActorID:  &actor,
		Asset:    refunded.Asset,
		Amount:   refunded.Amount,
	})
	if pushErr != nil {
		s.log.Error().Err(pushErr).Str("invoice_id", refunded.ID).Msg("refund committed but transfer failed")
		return refunded, pushErr
	}
	s.log.Info().
		Str("invoice_id", refunded.ID).
		Str("asset", refunded.Asset).
		Int64("amount", refunded.Amount).
		Msg("invoice refunded")

	return refunded, nil
}

// Balance returns a merchant's withdrawable balance in an asset.
func (s *SettlementServiceImpl) Balance(ctx context.Context, merchant uuid.UUID, asset string) int64 {
	return s.store.Balance(merchant, asset)
}

// Balances returns a merchant's balance per requested asset.
func (s *SettlementServiceImpl) Balances(ctx context.Context, merchant uuid.UUID, assets []string) map[string]int64 {
	return s.store.Balances(merchant, assets)
}

// ServiceFeeBalance returns the protocol's accumulated fee revenue in an asset.
func (s *SettlementServiceImpl) ServiceFeeBalance(ctx context.Context, asset string) int64 {
	return s.store.ServiceFeeBalance(asset)
}
