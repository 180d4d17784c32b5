package postgres

import (
	"context"
	"errors"
	"fmt"

	"commerce-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account into the database.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, username, password_hash, display_name, access_key, secret_key_enc, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Username, a.PasswordHash, a.DisplayName,
		a.AccessKey, a.SecretKeyEnc, a.Status,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by its UUID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, username, password_hash, display_name, access_key, secret_key_enc, status, created_at, updated_at
		FROM accounts WHERE id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get account by id")
}

// GetByUsername fetches an account by username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT id, username, password_hash, display_name, access_key, secret_key_enc, status, created_at, updated_at
		FROM accounts WHERE username = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, username), "get account by username")
}

// GetByAccessKey fetches an account by its public access key.
func (r *AccountRepo) GetByAccessKey(ctx context.Context, accessKey string) (*domain.Account, error) {
	query := `SELECT id, username, password_hash, display_name, access_key, secret_key_enc, status, created_at, updated_at
		FROM accounts WHERE access_key = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, accessKey), "get account by access_key")
}

func (r *AccountRepo) scanOne(row pgx.Row, op string) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.DisplayName,
		&a.AccessKey, &a.SecretKeyEnc, &a.Status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
