package ledger

import (
	"sort"

	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// Balance returns the withdrawable amount a merchant holds in an asset.
func (s *Store) Balance(merchant uuid.UUID, asset string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[balanceKey{merchant, asset}]
}

// Balances returns a merchant's balance for each requested asset.
func (s *Store) Balances(merchant uuid.UUID, assets []string) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(assets))
	for _, asset := range assets {
		out[asset] = s.balances[balanceKey{merchant, asset}]
	}
	return out
}

// AddBalance credits a merchant balance.
func (s *Store) AddBalance(m Mutator, merchant uuid.UUID, asset string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	s.balances[balanceKey{merchant, asset}] += amount
	return nil
}

// SubBalance debits a merchant balance. Fails with InsufficientBalance
// if the result would go negative; it never saturates to zero.
func (s *Store) SubBalance(m Mutator, merchant uuid.UUID, asset string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	key := balanceKey{merchant, asset}
	if s.balances[key] < amount {
		return apperror.ErrInsufficientBalance()
	}
	s.balances[key] -= amount
	return nil
}

// ServiceFeeBalance returns the protocol's accumulated fee revenue in an asset.
func (s *Store) ServiceFeeBalance(asset string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceFees[asset]
}

// ServiceFeeAssets lists assets with a positive service-fee balance, sorted.
func (s *Store) ServiceFeeAssets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	assets := make([]string, 0, len(s.serviceFees))
	for asset, bal := range s.serviceFees {
		if bal > 0 {
			assets = append(assets, asset)
		}
	}
	sort.Strings(assets)
	return assets
}

// AddServiceFee credits the protocol fee balance.
func (s *Store) AddServiceFee(m Mutator, asset string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	s.serviceFees[asset] += amount
	return nil
}

// SubServiceFee debits the protocol fee balance with underflow protection.
func (s *Store) SubServiceFee(m Mutator, asset string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	if s.serviceFees[asset] < amount {
		return apperror.ErrInsufficientBalance()
	}
	s.serviceFees[asset] -= amount
	return nil
}
