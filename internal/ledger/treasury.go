package ledger

import (
	"time"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// PutTreasuryWallet registers a new treasury wallet.
func (s *Store) PutTreasuryWallet(m Mutator, w *domain.TreasuryWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	if _, exists := s.treasuryWallets[w.ID]; exists {
		return apperror.ErrInvalidState("treasury wallet already registered")
	}

	cp := *w
	s.treasuryWallets[w.ID] = &cp
	s.treasuryList = append(s.treasuryList, w.ID)
	return nil
}

// GetTreasuryWallet fetches a wallet by id, listed or not.
func (s *Store) GetTreasuryWallet(id uuid.UUID) (*domain.TreasuryWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.treasuryWallets[id]
	if !ok {
		return nil, apperror.ErrInvalidRecipient()
	}
	cp := *w
	return &cp, nil
}

// SetTreasuryWalletActive toggles a wallet's active flag. Inactive
// wallets keep their history but cannot receive sweeps.
func (s *Store) SetTreasuryWalletActive(m Mutator, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	w, ok := s.treasuryWallets[id]
	if !ok {
		return apperror.ErrInvalidRecipient()
	}
	w.Active = active
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// SetTreasuryWalletDescription updates a wallet's human description.
func (s *Store) SetTreasuryWalletDescription(m Mutator, id uuid.UUID, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	w, ok := s.treasuryWallets[id]
	if !ok {
		return apperror.ErrInvalidRecipient()
	}
	w.Description = description
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// UnlistTreasuryWallet removes a wallet from the enumerable list without
// erasing its record, which stays reachable by direct lookup.
func (s *Store) UnlistTreasuryWallet(m Mutator, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	w, ok := s.treasuryWallets[id]
	if !ok {
		return apperror.ErrInvalidRecipient()
	}
	w.Listed = false
	w.UpdatedAt = time.Now().UTC()
	s.treasuryList = removeUUID(s.treasuryList, id)
	return nil
}

// TreasuryWallets enumerates listed wallets, optionally only active ones.
func (s *Store) TreasuryWallets(activeOnly bool) []domain.TreasuryWallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.TreasuryWallet, 0, len(s.treasuryList))
	for _, id := range s.treasuryList {
		w := s.treasuryWallets[id]
		if activeOnly && !w.Active {
			continue
		}
		out = append(out, *w)
	}
	return out
}
