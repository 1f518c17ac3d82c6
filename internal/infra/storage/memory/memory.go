package memory

import (
	"context"
	"sync"

	"github.com/vietddude/hivera/internal/core/domain"
)

// Store keeps accounts in memory, mostly for tests and the single-shot CLI.
type Store struct {
	mu       sync.RWMutex
	accounts []domain.Account
	err      error
}

// NewStore creates a store holding accounts in the given order.
func NewStore(accounts ...domain.Account) *Store {
	return &Store{accounts: accounts}
}

// Add appends an account.
func (s *Store) Add(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, account)
}

// FailWith makes LoadAccounts return err.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}
