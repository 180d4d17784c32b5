package ledger

import (
	"commerce-ledger/internal/core/domain"
	"commerce-ledger/pkg/apperror"
)

// AppendWithdrawal records a withdrawal and indexes it under its
// merchant or treasury wallet. The history is append-only.
func (s *Store) AppendWithdrawal(m Mutator, rec *domain.WithdrawalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}

	cp := *rec
	idx := len(s.withdrawals)
	s.withdrawals = append(s.withdrawals, &cp)
	if cp.MerchantID != nil {
		s.merchantWithdrawals[*cp.MerchantID] = append(s.merchantWithdrawals[*cp.MerchantID], idx)
	}
	if cp.WalletID != nil {
		s.walletWithdrawals[*cp.WalletID] = append(s.walletWithdrawals[*cp.WalletID], idx)
	}
	return nil
}

// WithdrawalCount returns the total number of recorded withdrawals.
func (s *Store) WithdrawalCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.withdrawals))
}

// WithdrawalByIndex fetches a record by its global history index.
func (s *Store) WithdrawalByIndex(i int64) (*domain.WithdrawalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= int64(len(s.withdrawals)) {
		return nil, apperror.Validation("withdrawal index out of range")
	}
	cp := *s.withdrawals[i]
	return &cp, nil
}

// RecentWithdrawals returns the n most recent records, newest first.
func (s *Store) RecentWithdrawals(n int) []domain.WithdrawalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n > len(s.withdrawals) {
		n = len(s.withdrawals)
	}
	out := make([]domain.WithdrawalRecord, 0, n)
	for i := len(s.withdrawals) - 1; i >= len(s.withdrawals)-n; i-- {
		out = append(out, *s.withdrawals[i])
	}
	return out
}

// QueryWithdrawals returns, in history order, all records matching the query.
func (s *Store) QueryWithdrawals(q domain.WithdrawalQuery) []domain.WithdrawalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.WithdrawalRecord
	for _, rec := range s.candidates(q) {
		if q.Matches(rec) {
			out = append(out, *rec)
		}
	}
	return out
}

// WithdrawalTotalsByAsset sums matching records per asset.
func (s *Store) WithdrawalTotalsByAsset(q domain.WithdrawalQuery) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]int64)
	for _, rec := range s.candidates(q) {
		if q.Matches(rec) {
			totals[rec.Asset] += rec.Amount
		}
	}
	return totals
}

// candidates narrows the scan using the merchant/wallet indices when the
// query pins one. Must be called with s.mu held.
func (s *Store) candidates(q domain.WithdrawalQuery) []*domain.WithdrawalRecord {
	if q.MerchantID != nil {
		idxs := s.merchantWithdrawals[*q.MerchantID]
		recs := make([]*domain.WithdrawalRecord, 0, len(idxs))
		for _, i := range idxs {
			recs = append(recs, s.withdrawals[i])
		}
		return recs
	}
	if q.WalletID != nil {
		idxs := s.walletWithdrawals[*q.WalletID]
		recs := make([]*domain.WithdrawalRecord, 0, len(idxs))
		for _, i := range idxs {
			recs = append(recs, s.withdrawals[i])
		}
		return recs
	}
	return s.withdrawals
}
