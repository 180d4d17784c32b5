package service

import (
	"context"
	"fmt"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/internal/core/ports"
	"commerce-ledger/internal/ledger"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegistryServiceImpl implements ports.RegistryService on top of the
// ledger store. Role management requires ADMIN; merchant whitelists and
// fees require ONBOARDING; the asset whitelist requires ASSET_MANAGER;
// the pause switch requires ADMIN. ADMIN satisfies every check.
type RegistryServiceImpl struct {
	store   *ledger.Store
	mutator ledger.Mutator
	audit   ports.AuditService
	log     zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl and registers its
// write token with the store.
func NewRegistryService(store *ledger.Store, audit ports.AuditService, log zerolog.Logger) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		store:   store,
		mutator: store.RegisterMutator("registry"),
		audit:   audit,
		log:     log,
	}
}

// requireRole fails unless the actor holds the role or is an admin.
func (s *RegistryServiceImpl) requireRole(actor uuid.UUID, role domain.Role) error {
	if s.store.HasRole(actor, role) || s.store.HasRole(actor, domain.RoleAdmin) {
		return nil
	}
	return apperror.ErrNotAuthorized(fmt.Sprintf("%s role required", role))
}

// GrantRole grants a role to an account. Admin only.
func (s *RegistryServiceImpl) GrantRole(ctx context.Context, actor, account uuid.UUID, role domain.Role) error {
	if err := s.requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if !role.Valid() {
		return apperror.Validation("unknown role")
	}
	if err := s.store.GrantRole(s.mutator, account, role); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpGrantRole,
		EntityID: account.String(),
		ActorID:  &actor,
		Details:  fmt.Sprintf(`{"role":%q}`, role),
	})
	s.log.Info().Str("account", account.String()).Str("role", string(role)).Msg("role granted")
	return nil
}

// RevokeRole removes a role from an account. Admin only. Revoking a
// role the account does not hold is a no-op.
func (s *RegistryServiceImpl) RevokeRole(ctx context.Context, actor, account uuid.UUID, role domain.Role) error {
	if err := s.requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.RevokeRole(s.mutator, account, role); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpRevokeRole,
		EntityID: account.String(),
		ActorID:  &actor,
		Details:  fmt.Sprintf(`{"role":%q}`, role),
	})
	s.log.Info().Str("account", account.String()).Str("role", string(role)).Msg("role revoked")
	return nil
}

// RolesOf lists the roles an account holds.
func (s *RegistryServiceImpl) RolesOf(ctx context.Context, account uuid.UUID) []domain.Role {
	return s.store.RolesOf(account)
}

// HasRole reports whether the account holds the role.
func (s *RegistryServiceImpl) HasRole(ctx context.Context, account uuid.UUID, role domain.Role) bool {
	return s.store.HasRole(account, role)
}

// SetDefaultFee sets the global default fee in basis points.
func (s *RegistryServiceImpl) SetDefaultFee(ctx context.Context, actor uuid.UUID, bps int64) error {
	if err := s.requireRole(actor, domain.RoleOnboarding); err != nil {
		return err
	}
	if bps < 0 || bps > domain.MaxFeeBps {
		return apperror.ErrFeeTooHigh(bps)
	}
	if err := s.store.SetDefaultFeeBps(s.mutator, bps); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpSetFee,
		EntityID: "default",
		ActorID:  &actor,
		Amount:   bps,
	})
	return nil
}

// DefaultFee returns the global default fee in basis points.
func (s *RegistryServiceImpl) DefaultFee(ctx context.Context) int64 {
	return s.store.DefaultFeeBps()
}

// SetMerchantFee sets a per-merchant fee override in basis points.
func (s *RegistryServiceImpl) SetMerchantFee(ctx context.Context, actor, merchant uuid.UUID, bps int64) error {
	if err := s.requireRole(actor, domain.RoleOnboarding); err != nil {
		return err
	}
	if bps < 0 || bps > domain.MaxFeeBps {
		return apperror.ErrFeeTooHigh(bps)
	}
	if err := s.store.SetMerchantFeeBps(s.mutator, merchant, bps); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpSetFee,
		EntityID: merchant.String(),
		ActorID:  &actor,
		Amount:   bps,
	})
	return nil
}

// ClearMerchantFee removes a per-merchant fee override, restoring the default.
func (s *RegistryServiceImpl) ClearMerchantFee(ctx context.Context, actor, merchant uuid.UUID) error {
	if err := s.requireRole(actor, domain.RoleOnboarding); err != nil {
		return err
	}
	if err := s.store.ClearMerchantFeeBps(s.mutator, merchant); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpSetFee,
		EntityID: merchant.String(),
		ActorID:  &actor,
		Details:  `{"cleared":true}`,
	})
	return nil
}

// MerchantFee returns the merchant's fee override and whether one is set.
func (s *RegistryServiceImpl) MerchantFee(ctx context.Context, merchant uuid.UUID) (int64, bool) {
	return s.store.MerchantFeeBps(merchant)
}

// SetAssetsListed flips the global whitelist flag for a batch of assets.
func (s *RegistryServiceImpl) SetAssetsListed(ctx context.Context, actor uuid.UUID, assets []string, listed bool) error {
	if err := s.requireRole(actor, domain.RoleAssetManager); err != nil {
		return err
	}
	for _, asset := range assets {
		if asset == "" {
			return apperror.Validation("asset symbol must not be empty")
		}
	}
	for _, asset := range assets {
		if err := s.store.SetAssetListed(s.mutator, asset, listed); err != nil {
			return err
		}
		s.audit.Record(ctx, &domain.AuditEntry{
			Op:       domain.AuditOpWhitelist,
			EntityID: asset,
			ActorID:  &actor,
			Asset:    asset,
			Details:  fmt.Sprintf(`{"scope":"asset","listed":%t}`, listed),
		})
	}
	return nil
}

// ListedAssets enumerates the global asset whitelist.
func (s *RegistryServiceImpl) ListedAssets(ctx context.Context) []string {
	return s.store.ListedAssets()
}

// SetMerchantsListed flips the merchant whitelist flag for a batch of merchants.
func (s *RegistryServiceImpl) SetMerchantsListed(ctx context.Context, actor uuid.UUID, merchants []uuid.UUID, listed bool) error {
	if err := s.requireRole(actor, domain.RoleOnboarding); err != nil {
		return err
	}
	for _, merchant := range merchants {
		if merchant == uuid.Nil {
			return apperror.Validation("merchant id must not be zero")
		}
	}
	for _, merchant := range merchants {
		if err := s.store.SetMerchantListed(s.mutator, merchant, listed); err != nil {
			return err
		}
		s.audit.Record(ctx, &domain.AuditEntry{
			Op:       domain.AuditOpWhitelist,
			EntityID: merchant.String(),
			ActorID:  &actor,
			Details:  fmt.Sprintf(`{"scope":"merchant","listed":%t}`, listed),
		})
	}
	return nil
}

// ListedMerchants enumerates whitelisted merchants.
func (s *RegistryServiceImpl) ListedMerchants(ctx context.Context) []uuid.UUID {
	return s.store.ListedMerchants()
}

// SetMerchantAssets flips per-merchant asset whitelist flags for a batch
// of assets.
func (s *RegistryServiceImpl) SetMerchantAssets(ctx context.Context, actor, merchant uuid.UUID, assets []string, listed bool) error {
	if err := s.requireRole(actor, domain.RoleOnboarding); err != nil {
		return err
	}
	for _, asset := range assets {
		if asset == "" {
			return apperror.Validation("asset symbol must not be empty")
		}
	}
	for _, asset := range assets {
		if err := s.store.SetMerchantAsset(s.mutator, merchant, asset, listed); err != nil {
			return err
		}
		s.audit.Record(ctx, &domain.AuditEntry{
			Op:       domain.AuditOpWhitelist,
			EntityID: merchant.String(),
			ActorID:  &actor,
			Asset:    asset,
			Details:  fmt.Sprintf(`{"scope":"merchant_asset","listed":%t}`, listed),
		})
	}
	return nil
}

// MerchantAssets enumerates a merchant's whitelisted assets.
func (s *RegistryServiceImpl) MerchantAssets(ctx context.Context, merchant uuid.UUID) []string {
	return s.store.MerchantAssets(merchant)
}

// Pause halts every value-moving operation. Admin only. Idempotent.
func (s *RegistryServiceImpl) Pause(ctx context.Context, actor uuid.UUID) error {
	if err := s.requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.SetPaused(s.mutator, true); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpPause,
		EntityID: "system",
		ActorID:  &actor,
	})
	s.log.Warn().Str("actor", actor.String()).Msg("settlement core paused")
	return nil
}

// Unpause resumes normal operation. Admin only. Idempotent.
func (s *RegistryServiceImpl) Unpause(ctx context.Context, actor uuid.UUID) error {
	if err := s.requireRole(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.SetPaused(s.mutator, false); err != nil {
		return err
	}

	s.audit.Record(ctx, &domain.AuditEntry{
		Op:       domain.AuditOpUnpause,
		EntityID: "system",
		ActorID:  &actor,
	})
	s.log.Info().Str("actor", actor.String()).Msg("settlement core unpaused")
	return nil
}

// IsPaused reports the pause switch state.
func (s *RegistryServiceImpl) IsPaused(ctx context.Context) bool {
	return s.store.IsPaused()
}
