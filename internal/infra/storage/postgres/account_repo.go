package postgres

import (
	"context"
	"fmt"

	"github.com/vietddude/hivera/internal/core/domain"
)

// AccountRepo implements storage.AccountStore using PostgreSQL.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new PostgreSQL account repository.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// LoadAccounts returns enabled accounts ordered by position.
func (r *AccountRepo) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT username, auth_data, proxy
		FROM accounts
		WHERE enabled
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return accounts, nil
}

// SaveAll upserts accounts keyed by auth data, keeping their slice order as position.
func (r *AccountRepo) SaveAll(ctx context.Context, accounts []domain.Account) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, a := range accounts {
		a = a.Normalize()
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO accounts (position, username, auth_data, proxy)
			VALUES (:position, :username, :auth_data, :proxy)
			ON CONFLICT (auth_data) DO UPDATE
			SET position = EXCLUDED.position,
			    username = EXCLUDED.username,
			    proxy = EXCLUDED.proxy,
			    updated_at = NOW()`,
			map[string]any{
				"position":  i,
				"username":  a.Username,
				"auth_data": a.AuthData,
				"proxy":     a.Proxy,
			})
		if err != nil {
			return fmt.Errorf("failed to save account %s: %w", a.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit accounts: %w", err)
	}
	return nil
}

// SetEnabled toggles whether an account is loaded.
func (r *AccountRepo) SetEnabled(ctx context.Context, username string, enabled bool) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET enabled = $1, updated_at = NOW() WHERE username = $2`,
		enabled, username)
	if err != nil {
		return 0, fmt.Errorf("failed to update account %s: %w", username, err)
	}
	return res.RowsAffected()
}
