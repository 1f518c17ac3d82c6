package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vietddude/hivera/internal/core/domain"
)

// DefaultPath is the account file read when none is configured.
const DefaultPath = "./data.txt"

// document is the on-disk shape: {"accounts": [{"username", "authData", "proxy"}]}.
type document struct {
	Accounts []domain.Account `json:"accounts"`
}

// Store reads accounts from a JSON file.
type Store struct {
	path string
}

// NewStore creates a file-backed account store.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the file the store reads.
func (s *Store) Path() string {
	return s.path
}

// LoadAccounts reads and parses the account file.
func (s *Store) LoadAccounts(ctx context.Context) ([]domain.Account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse account file: %w", err)
	}

	accounts := make([]domain.Account, 0, len(doc.Accounts))
	for _, a := range doc.Accounts {
		accounts = append(accounts, a.Normalize())
	}
	return accounts, nil
}
