// Package ledger holds the authoritative settlement state: invoices,
// balances, whitelists, fee configuration, role grants, withdrawal
// history and treasury wallets. The store has no business logic of its
// own; it offers single-record mutations guarded by a mutator set and a
// single mutex, so every read reflects the latest committed write.
package ledger

import (
	"sync"

	"commerce-ledger/internal/core/domain"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// Mutator is an opaque write-permission token. Components receive one at
// construction; every mutating store call validates it against the
// current authorized set.
type Mutator struct {
	id   uuid.UUID
	name string
}

// Name returns the component name the token was issued to.
func (m Mutator) Name() string { return m.name }

type balanceKey struct {
	merchant uuid.UUID
	asset    string
}

// Store is the in-memory settlement ledger.
type Store struct {
	mu       sync.Mutex
	mutators map[uuid.UUID]string

	paused bool

	invoices         map[string]*domain.Invoice
	invoiceOrder     []string
	merchantInvoices map[uuid.UUID][]string

	balances    map[balanceKey]int64
	serviceFees map[string]int64

	roles map[uuid.UUID]map[domain.Role]bool

	assetListed    map[string]bool
	assetList      []string
	merchantListed map[uuid.UUID]bool
	merchantList   []uuid.UUID
	merchantAssets map[uuid.UUID]map[string]bool
	merchantAssetL map[uuid.UUID][]string

	defaultFeeBps  int64
	merchantFeeBps map[uuid.UUID]int64

	withdrawals         []*domain.WithdrawalRecord
	merchantWithdrawals map[uuid.UUID][]int
	walletWithdrawals   map[uuid.UUID][]int

	treasuryWallets map[uuid.UUID]*domain.TreasuryWallet
	treasuryList    []uuid.UUID
}

// NewStore creates an empty ledger store with no authorized mutators.
func NewStore() *Store {
	return &Store{
		mutators:            make(map[uuid.UUID]string),
		invoices:            make(map[string]*domain.Invoice),
		merchantInvoices:    make(map[uuid.UUID][]string),
		balances:            make(map[balanceKey]int64),
		serviceFees:         make(map[string]int64),
		roles:               make(map[uuid.UUID]map[domain.Role]bool),
		assetListed:         make(map[string]bool),
		merchantListed:      make(map[uuid.UUID]bool),
		merchantAssets:      make(map[uuid.UUID]map[string]bool),
		merchantAssetL:      make(map[uuid.UUID][]string),
		merchantFeeBps:      make(map[uuid.UUID]int64),
		merchantWithdrawals: make(map[uuid.UUID][]int),
		walletWithdrawals:   make(map[uuid.UUID][]int),
		treasuryWallets:     make(map[uuid.UUID]*domain.TreasuryWallet),
	}
}

// RegisterMutator issues a write token to a component. Takes effect
// immediately; callers gate this behind the administrator role.
func (s *Store) RegisterMutator(name string) Mutator {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Mutator{id: uuid.New(), name: name}
	s.mutators[m.id] = name
	return m
}

// DeregisterMutator revokes a previously issued write token.
func (s *Store) DeregisterMutator(m Mutator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mutators, m.id)
}

// checkMutator must be called with s.mu held.
func (s *Store) checkMutator(m Mutator) error {
	if _, ok := s.mutators[m.id]; !ok {
		return apperror.ErrNotAuthorized("not a registered ledger mutator")
	}
	return nil
}

// SetPaused flips the global pause switch.
func (s *Store) SetPaused(m Mutator, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	s.paused = paused
	return nil
}

// IsPaused reports the global pause switch.
func (s *Store) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}
