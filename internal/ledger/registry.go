package ledger

import (
	"commerce-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// GrantRole grants a role to an account.
func (s *Store) GrantRole(m Mutator, account uuid.UUID, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	if s.roles[account] == nil {
		s.roles[account] = make(map[domain.Role]bool)
	}
	s.roles[account][role] = true
	return nil
}

// RevokeRole removes a role from an account.
func (s *Store) RevokeRole(m Mutator, account uuid.UUID, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	delete(s.roles[account], role)
	return nil
}

// HasRole reports whether the account holds the role.
func (s *Store) HasRole(account uuid.UUID, role domain.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles[account][role]
}

// RolesOf lists the roles an account holds.
func (s *Store) RolesOf(account uuid.UUID) []domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Role, 0, len(s.roles[account]))
	for _, role := range []domain.Role{
		domain.RoleAdmin, domain.RoleOnboarding, domain.RoleAssetManager,
		domain.RoleTreasuryManager, domain.RoleBackendOperator,
	} {
		if s.roles[account][role] {
			out = append(out, role)
		}
	}
	return out
}

// SetAssetListed flips the global asset whitelist flag, keeping the
// enumerable list in sync.
func (s *Store) SetAssetListed(m Mutator, asset string, listed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	if s.assetListed[asset] == listed {
		return nil
	}
	if listed {
		s.assetListed[asset] = true
		s.assetList = append(s.assetList, asset)
		return nil
	}
	delete(s.assetListed, asset)
	s.assetList = removeString(s.assetList, asset)
	return nil
}

// IsAssetListed reports global asset whitelist membership.
func (s *Store) IsAssetListed(asset string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assetListed[asset]
}

// ListedAssets enumerates the global asset whitelist in insertion order.
func (s *Store) ListedAssets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.assetList...)
}

// SetMerchantListed flips the merchant whitelist flag.
func (s *Store) SetMerchantListed(m Mutator, merchant uuid.UUID, listed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	if s.merchantListed[merchant] == listed {
		return nil
	}
	if listed {
		s.merchantListed[merchant] = true
		s.merchantList = append(s.merchantList, merchant)
		return nil
	}
	delete(s.merchantListed, merchant)
	s.merchantList = removeUUID(s.merchantList, merchant)
	return nil
}

// IsMerchantListed reports merchant whitelist membership.
func (s *Store) IsMerchantListed(merchant uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merchantListed[merchant]
}

// ListedMerchants enumerates whitelisted merchants in insertion order.
func (s *Store) ListedMerchants() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.merchantList...)
}

// SetMerchantAsset flips a per-merchant asset whitelist flag.
func (s *Store) SetMerchantAsset(m Mutator, merchant uuid.UUID, asset string, listed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	if s.merchantAssets[merchant][asset] == listed {
		return nil
	}
	if listed {
		if s.merchantAssets[merchant] == nil {
			s.merchantAssets[merchant] = make(map[string]bool)
		}
		s.merchantAssets[merchant][asset] = true
		s.merchantAssetL[merchant] = append(s.merchantAssetL[merchant], asset)
		return nil
	}
	delete(s.merchantAssets[merchant], asset)
	s.merchantAssetL[merchant] = removeString(s.merchantAssetL[merchant], asset)
	return nil
}

// IsMerchantAssetListed reports per-merchant asset whitelist membership.
func (s *Store) IsMerchantAssetListed(merchant uuid.UUID, asset string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merchantAssets[merchant][asset]
}

// MerchantAssets enumerates a merchant's whitelisted assets in insertion order.
func (s *Store) MerchantAssets(merchant uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.merchantAssetL[merchant]...)
}

// SetDefaultFeeBps stores the global default fee percentage.
func (s *Store) SetDefaultFeeBps(m Mutator, bps int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	s.defaultFeeBps = bps
	return nil
}

// DefaultFeeBps returns the global default fee percentage.
func (s *Store) DefaultFeeBps() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultFeeBps
}

// SetMerchantFeeBps stores a per-merchant fee override.
func (s *Store) SetMerchantFeeBps(m Mutator, merchant uuid.UUID, bps int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	s.merchantFeeBps[merchant] = bps
	return nil
}

// ClearMerchantFeeBps removes a per-merchant fee override.
func (s *Store) ClearMerchantFeeBps(m Mutator, merchant uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	delete(s.merchantFeeBps, merchant)
	return nil
}

// MerchantFeeBps returns the per-merchant override and whether one is set.
func (s *Store) MerchantFeeBps(merchant uuid.UUID) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bps, ok := s.merchantFeeBps[merchant]
	return bps, ok
}

func removeString(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func removeUUID(list []uuid.UUID, v uuid.UUID) []uuid.UUID {
	for i, u := range list {
		if u == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
