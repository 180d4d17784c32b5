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

// WithdrawalServiceImpl implements ports.WithdrawalService. Every
// withdrawal debits the ledger and appends its history record before the
// external transfer; a failed transfer leaves both standing.
type WithdrawalServiceImpl struct {
	store   *ledger.Store
	guard   *ledger.Guard
	bank    ports.AssetBank
	mutator ledger.Mutator
	audit   ports.AuditService
	log     zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl and registers
// its write token with the store.
func NewWithdrawalService(
	store *ledger.Store,
	guard *ledger.Guard,
	bank ports.AssetBank,
	audit ports.AuditService,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		store:   store,
		guard:   guard,
		bank:    bank,
		mutator: store.RegisterMutator("withdrawals"),
		audit:   audit,
		log:     log,
	}
}

// requireWithdrawer fails unless the actor is the merchant itself, a
// backend operator, or an admin.
func (s *WithdrawalServiceImpl) requireWithdrawer(actor, merchant uuid.UUID) error {
	if actor == merchant {
		return nil
	}
	if s.store.HasRole(actor, domain.RoleBackendOperator) || s.store.HasRole(actor, domain.RoleAdmin) {
		return nil
	}
	return apperror.ErrNotAuthorized("merchant or backend operator required")
}

// withdraw debits the merchant, appends the history record and pushes
// the funds out. Caller must hold the guard. Only whitelisted merchants
// may move funds out; a delisted merchant's balance is frozen until it
// is relisted.
func (s *WithdrawalServiceImpl) withdraw(ctx context.Context, actor, merchant uuid.UUID, asset string, amount int64, recipient uuid.UUID) (*domain.WithdrawalRecord, error) {
	if !s.store.IsMerchantListed(merchant) {
		return nil, apperror.ErrNotWhitelisted("merchant")
	}
	if err := s.store.SubBalance(s.mutator, merchant, asset, amount); err != nil {
		return nil, err
	}

	rec := &domain.WithdrawalRecord{
		ID:          uuid.New(),
		Kind:        domain.WithdrawalKindMerchant,
		Asset:       asset,
		Amount:      amount,
		Recipient:   recipient,
		InitiatedBy: actor,
		MerchantID:  &merchant,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AppendWithdrawal(s.mutator, rec); err != nil {
		return nil, err
	}

	// Debit and record are committed; a failed push does not unwind them.
	if err := s.bank.Push(ctx, asset, recipient, amount); err != nil {
		s.log.Error().Err(err).
			Str("withdrawal_id", rec.ID.String()).
			Str("merchant_id", merchant.String()).
			Msg("withdrawal committed but transfer failed")
		return rec, bankError("push withdrawal", err)
	}
	return rec, nil
}

// Withdraw moves a merchant's entire balance in one asset to the
// merchant's own account.
func (s *WithdrawalServiceImpl) Withdraw(ctx context.Context, actor, merchant uuid.UUID, asset string) (*domain.WithdrawalRecord, error) {
	if err := s.requireWithdrawer(actor, merchant); err != nil {
		return nil, err
	}

	var rec *domain.WithdrawalRecord
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}
		amount := s.store.Balance(merchant, asset)
		if amount <= 0 {
			return apperror.ErrInsufficientBalance()
		}
		var werr error
		rec, werr = s.withdraw(ctx, actor, merchant, asset, amount, merchant)
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

// WithdrawTo moves part of a merchant's balance to an explicit recipient.
func (s *WithdrawalServiceImpl) WithdrawTo(ctx context.Context, actor, merchant uuid.UUID, asset string, amount int64, recipient uuid.UUID) (*domain.WithdrawalRecord, error) {
	if err := s.requireWithdrawer(actor, merchant); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if recipient == uuid.Nil {
		return nil, apperror.ErrInvalidRecipient()
	}

	var rec *domain.WithdrawalRecord
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}
		var werr error
		rec, werr = s.withdraw(ctx, actor, merchant, asset, amount, recipient)
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

// WithdrawAll drains a merchant's balance across the given assets,
// skipping assets with nothing to withdraw. One guard acquisition covers
// the whole batch.
func (s *WithdrawalServiceImpl) WithdrawAll(ctx context.Context, actor, merchant uuid.UUID, assets []string) ([]domain.WithdrawalRecord, error) {
	if err := s.requireWithdrawer(actor, merchant); err != nil {
		return nil, err
	}

	var recs []domain.WithdrawalRecord
	err := s.guard.Do(func() error {
		if s.store.IsPaused() {
			return apperror.ErrSystemPaused()
		}
		for _, asset := range assets {
			amount := s.store.Balance(merchant, asset)
			if amount <= 0 {
				continue
			}
			rec, werr := s.withdraw(ctx, actor, merchant, asset, amount, merchant)
			if rec != nil {
				recs = append(recs, *rec)
			}
			if werr != nil {
				return werr
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

func (s *WithdrawalServiceImpl) recordAudit(ctx context.Context, actor uuid.UUID, rec *domain.WithdrawalRecord) {
	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpWithdrawal,
		EntityID: rec.ID.String(),
		ActorID:  &actor,
		Asset:    rec.Asset,
		Amount:   rec.Amount,
	})
}

// Count returns the total number of recorded withdrawals, sweeps included.
func (s *WithdrawalServiceImpl) Count(ctx context.Context) int64 {
	return s.store.WithdrawalCount()
}

// ByIndex fetches a withdrawal record by its global history index.
func (s *WithdrawalServiceImpl) ByIndex(ctx context.Context, index int64) (*domain.WithdrawalRecord, error) {
	return s.store.WithdrawalByIndex(index)
}

// Recent returns the n most recent withdrawal records, newest first.
func (s *WithdrawalServiceImpl) Recent(ctx context.Context, n int) []domain.WithdrawalRecord {
	return s.store.RecentWithdrawals(n)
}

// Query returns all withdrawal records matching the query, in history order.
func (s *WithdrawalServiceImpl) Query(ctx context.Context, q domain.WithdrawalQuery) []domain.WithdrawalRecord {
	return s.store.QueryWithdrawals(q)
}

// TotalsByAsset sums matching withdrawal records per asset.
func (s *WithdrawalServiceImpl) TotalsByAsset(ctx context.Context, q domain.WithdrawalQuery) map[string]int64 {
	return s.store.WithdrawalTotalsByAsset(q)
}
