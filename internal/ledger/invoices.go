package ledger

import (
	"commerce-ledger/internal/core/domain"
	"commerce-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// PutInvoice stores a new invoice. The id must be unused.
func (s *Store) PutInvoice(m Mutator, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	if _, exists := s.invoices[inv.ID]; exists {
		return apperror.ErrInvalidState("invoice id already exists")
	}

	cp := *inv
	s.invoices[inv.ID] = &cp
	s.invoiceOrder = append(s.invoiceOrder, inv.ID)
	s.merchantInvoices[inv.MerchantID] = append(s.merchantInvoices[inv.MerchantID], inv.ID)
	return nil
}

// UpdateInvoice replaces the stored invoice. The id must exist and the
// owning merchant cannot change.
func (s *Store) UpdateInvoice(m Mutator, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkMutator(m); err != nil {
		return err
	}
	existing, ok := s.invoices[inv.ID]
	if !ok {
		return apperror.ErrInvoiceNotFound(inv.ID)
	}
	if existing.MerchantID != inv.MerchantID {
		return apperror.ErrInvalidState("invoice merchant is immutable")
	}

	cp := *inv
	s.invoices[inv.ID] = &cp
	return nil
}

// GetInvoice fetches an invoice by id.
func (s *Store) GetInvoice(id string) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, apperror.ErrInvoiceNotFound(id)
	}
	cp := *inv
	return &cp, nil
}

// GetInvoices fetches a batch by id, skipping unknown ids.
func (s *Store) GetInvoices(ids []string) []domain.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Invoice, 0, len(ids))
	for _, id := range ids {
		if inv, ok := s.invoices[id]; ok {
			out = append(out, *inv)
		}
	}
	return out
}

// InvoicesByMerchant lists a merchant's invoices in creation order,
// optionally filtered by status.
func (s *Store) InvoicesByMerchant(merchant uuid.UUID, status *domain.InvoiceStatus) []domain.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.merchantInvoices[merchant]
	out := make([]domain.Invoice, 0, len(ids))
	for _, id := range ids {
		inv := s.invoices[id]
		if status != nil && inv.Status != *status {
			continue
		}
		out = append(out, *inv)
	}
	return out
}

// RecentInvoices returns the n most recently created invoices, newest first.
func (s *Store) RecentInvoices(n int) []domain.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n > len(s.invoiceOrder) {
		n = len(s.invoiceOrder)
	}
	out := make([]domain.Invoice, 0, n)
	for i := len(s.invoiceOrder) - 1; i >= len(s.invoiceOrder)-n; i-- {
		out = append(out, *s.invoices[s.invoiceOrder[i]])
	}
	return out
}

// InvoiceStats aggregates a merchant's invoice counts by status.
func (s *Store) InvoiceStats(merchant uuid.UUID) domain.InvoiceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.InvoiceStats
	for _, id := range s.merchantInvoices[merchant] {
		stats.Total++
		switch s.invoices[id].Status {
		case domain.InvoiceStatusPending:
			stats.Pending++
		case domain.InvoiceStatusPaid:
			stats.Paid++
		case domain.InvoiceStatusRefunded:
			stats.Refunded++
		case domain.InvoiceStatusExpired:
			stats.Expired++
		case domain.InvoiceStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}
