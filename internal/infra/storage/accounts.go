package storage

import (
	"context"
	"log/slog"

	"github.com/vietddude/hivera/internal/core/domain"
)

// AccountStore supplies the ordered list of accounts.
type AccountStore interface {
	// LoadAccounts returns every account in processing order
	LoadAccounts(ctx context.Context) ([]domain.Account, error)
}

// Load reads accounts from store. A failing store yields an empty list so the
// engine idles instead of crashing.
func Load(ctx context.Context, store AccountStore, log *slog.Logger) []domain.Account {
	if log == nil {
		log = slog.Default()
	}

	accounts, err := store.LoadAccounts(ctx)
	if err != nil {
		log.Error("Failed to load accounts", "error", err)
		return []domain.Account{}
	}

	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Normalize())
	}
	return out
}
