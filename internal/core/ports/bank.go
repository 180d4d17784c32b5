package ports

import (
	"context"

	"github.com/google/uuid"
)

// AssetBank is the external custody boundary. Pull moves value from an
// account into the ledger's custody, Push moves it out. Both are the
// only suspension points in the settlement core: debit paths commit
// ledger state before Push, the credit path Pulls before crediting.
type AssetBank interface {
	Pull(ctx context.Context, asset string, from uuid.UUID, amount int64) error
	Push(ctx context.Context, asset string, to uuid.UUID, amount int64) error
}
