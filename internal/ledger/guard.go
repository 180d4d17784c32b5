package ledger

import "sync"

// Guard serializes the value-moving operation families (payment, refund,
// withdrawal, treasury sweep). A single guard shared across the families
// guarantees that no operation observes partial effects of another and
// that nothing re-enters the core while value is crossing the custody
// boundary: an operation holds the guard from its first validation to
// after its external transfer completes.
type Guard struct {
	mu sync.Mutex
}

// NewGuard creates an operation guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Do runs fn while holding the guard. Callers must not invoke Do again
// from within fn.
func (g *Guard) Do(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
