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

// TreasuryServiceImpl implements ports.TreasuryService. Sweeps drain the
// protocol's accumulated fee balances into registered treasury wallets
// and run under the same guard as payments and withdrawals.
type TreasuryServiceImpl struct {
	store   *ledger.Store
	guard   *ledger.Guard
	bank    ports.AssetBank
	mutator ledger.Mutator
	audit   ports.AuditService
	log     zerolog.Logger
}

// NewTreasuryService creates a new TreasuryServiceImpl and registers its
// write token with the store.
func NewTreasuryService(
	store *ledger.Store,
	guard *ledger.Guard,
	bank ports.AssetBank,
	audit ports.AuditService,
	log zerolog.Logger,
) *TreasuryServiceImpl {
	return &TreasuryServiceImpl{
		store:   store,
		guard:   guard,
		bank:    bank,
		mutator: store.RegisterMutator("treasury"),
		audit:   audit,
		log:     log,
	}
}

func (s *TreasuryServiceImpl) requireManager(actor uuid.UUID) error {
	if s.store.HasRole(actor, domain.RoleTreasuryManager) || s.store.HasRole(actor, domain.RoleAdmin) {
		return nil
	}
	return apperror.ErrNotAuthorized("treasury manager required")
}

// AddWallet registers a new sweep destination, active and listed.
func (s *TreasuryServiceImpl) AddWallet(ctx context.Context, actor uuid.UUID, walletID uuid.UUID, description string) (*domain.TreasuryWallet, error) {
	if err := s.requireManager(actor); err != nil {
		return nil, err
	}
	if walletID == uuid.Nil {
		return nil, apperror.ErrInvalidRecipient()
	}

	now := time.Now().UTC()
	w := &domain.TreasuryWallet{
		ID:          walletID,
		Description: description,
		Active:      true,
		Listed:      true,
		AddedAt:     now,
		UpdatedAt:   now,
	}
	if err := s.store.PutTreasuryWallet(s.mutator, w); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpTreasuryWallet,
		EntityID: walletID.String(),
		ActorID:  &actor,
		Details:  `{"action":"add"}`,
	})
	return w, nil
}

// RemoveWallet takes a wallet off the enumerable list. Its record and
// sweep history stay reachable by direct lookup.
func (s *TreasuryServiceImpl) RemoveWallet(ctx context.Context, actor uuid.UUID, walletID uuid.UUID) error {
	if err := s.requireManager(actor); err != nil {
		return err
	}
	if err := s.store.UnlistTreasuryWallet(s.mutator, walletID); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpTreasuryWallet,
		EntityID: walletID.String(),
		ActorID:  &actor,
		Details:  `{"action":"remove"}`,
	})
	return nil
}

// UpdateWallet changes a wallet's description.
func (s *TreasuryServiceImpl) UpdateWallet(ctx context.Context, actor uuid.UUID, walletID uuid.UUID, description string) error {
	if err := s.requireManager(actor); err != nil {
		return err
	}
	if err := s.store.SetTreasuryWalletDescription(s.mutator, walletID, description); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpTreasuryWallet,
		EntityID: walletID.String(),
		ActorID:  &actor,
		Details:  `{"action":"update"}`,
	})
	return nil
}

// SetWalletActive toggles whether a wallet may receive sweeps.
func (s *TreasuryServiceImpl) SetWalletActive(ctx context.Context, actor uuid.UUID, walletID uuid.UUID, active bool) error {
	if err := s.requireManager(actor); err != nil {
		return err
	}
	if err := s.store.SetTreasuryWalletActive(s.mutator, walletID, active); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpTreasuryWallet,
		EntityID: walletID.String(),
		ActorID:  &actor,
		Details:  `{"action":"set_active"}`,
	})
	return nil
}

// GetWallet fetches a treasury wallet by id, listed or not.
func (s *TreasuryServiceImpl) GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.TreasuryWallet, error) {
	return s.store.GetTreasuryWallet(walletID)
}

// Wallets enumerates listed treasury wallets, optionally only active ones.
func (s *TreasuryServiceImpl) Wallets(ctx context.Context, activeOnly bool) []domain.TreasuryWallet {
	return s.store.TreasuryWallets(activeOnly)
}

// sweep debits the fee balance, appends the history record and pushes
// the funds to the wallet. Caller must hold the guard.
func (s *TreasuryServiceImpl) sweep(ctx context.Context, actor uuid.UUID, asset string, wallet *domain.TreasuryWallet, amount int64) (*domain.WithdrawalRecord, error) {
	if err := s.store.SubServiceFee(s.mutator, asset, amount); err != nil {
		return nil, err
	}

	rec := &domain.WithdrawalRecord{
		ID:          uuid.New(),
		Kind:        domain.WithdrawalKindTreasury,
		Asset:       asset,
		Amount:      amount,
		Recipient:   wallet.ID,
		InitiatedBy: actor,
		WalletID:    &wallet.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AppendWithdrawal(s.mutator, rec); err != nil {
		return nil, err
	}

	if err := s.bank.Push(ctx, asset, wallet.ID, amount); err != nil {
		s.log.Error().Err(err).
			Str("sweep_id", rec.ID.String()).
			Str("wallet_id", wallet.ID.String()).
			Msg("sweep committed but transfer failed")
		return rec, bankError("push sweep", err)
	}
	return rec, nil
}

// checkSweepTarget validates the destination wallet. Caller must hold
// the guard.
func (s *TreasuryServiceImpl) checkSweepTarget(walletID uuid.UUID) (*domain.TreasuryWallet, error) {
	wallet, err := s.store.GetTreasuryWallet(walletID)
	if err != nil {
		return nil, err
	}
	if !wallet.Listed {
		return nil, apperror.ErrInvalidRecipient()
	}
	if !wallet.Active {
		return nil, apperror.ErrInvalidState("treasury wallet is inactive")
	}
	return wallet, nil
}

// Sweep drains the protocol's entire fee balance in one asset to an
// active, listed treasury wallet.
func (s *TreasuryServiceImpl) Sweep(ctx context.Context, actor uuid.UUID, asset string, walletID uuid.UUID) (*domain.WithdrawalRecord, error) {
	if err := s.requireManager(actor); err != nil {
		return nil, err
	}

	var rec *domain.WithdrawalRecord
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}
		wallet, werr := s.checkSweepTarget(walletID)
		if werr != nil {
			return werr
		}
		amount := s.store.ServiceFeeBalance(asset)
		if amount <= 0 {
			return apperror.ErrInsufficientBalance()
		}
		rec, werr = s.sweep(ctx, actor, asset, wallet, amount)
		return werr
	})
	if rec != nil {
		s.recordAudit(ctx, actor, rec)
	}
	if err != nil {
		return rec, err
	}
	return rec, nil
}

// SweepAll drains every positive fee balance to the wallet in one guard
// acquisition.
func (s *TreasuryServiceImpl) SweepAll(ctx context.Context, actor uuid.UUID, walletID uuid.UUID) ([]domain.WithdrawalRecord, error) {
	if err := s.requireManager(actor); err != nil {
		return nil, err
	}

	var recs []domain.WithdrawalRecord
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}
		wallet, werr := s.checkSweepTarget(walletID)
		if werr != nil {
			return werr
		}
		for _, asset := range s.store.ServiceFeeAssets() {
			amount := s.store.ServiceFeeBalance(asset)
			rec, serr := s.sweep(ctx, actor, asset, wallet, amount)
			if rec != nil {
				recs = append(recs, *rec)
			}
			if serr != nil {
				return serr
			}
		}
		return nil
	})
	for i := range recs {
		s.recordAudit(ctx, actor, &recs[i])
	}
	if err != nil {
		return recs, err
	}
	return recs, nil
}

func (s *TreasuryServiceImpl) recordAudit(ctx context.Context, actor uuid.UUID, rec *domain.WithdrawalRecord) {
	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpTreasurySweep,
		EntityID: rec.ID.String(),
		ActorID:  &actor,
		Asset:    rec.Asset,
		Amount:   rec.Amount,
	})
}

// History lists all sweeps into one wallet, in history order.
func (s *TreasuryServiceImpl) History(ctx context.Context, walletID uuid.UUID) []domain.WithdrawalRecord {
	return s.store.QueryWithdrawals(domain.WithdrawalQuery{WalletID: &walletID})
}

// Stats aggregates sweep history across all wallets.
func (s *TreasuryServiceImpl) Stats(ctx context.Context) domain.TreasuryStats {
	kind := domain.WithdrawalKindTreasury
	q := domain.WithdrawalQuery{Kind: &kind}
	return domain.TreasuryStats{
		TotalSweeps:   int64(len(s.store.QueryWithdrawals(q))),
		TotalsByAsset: s.store.WithdrawalTotalsByAsset(q),
	}
}
