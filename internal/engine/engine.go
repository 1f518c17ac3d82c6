// Package engine implements the account-cycling engine: a sequential pass
// over every account per cycle, bounded contribution retry and the two-tier
// delay between cycles.
package engine

import (
	"context"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
)

// Config holds the engine timing and retry settings.
type Config struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	ShortBackoff   time.Duration // after a cycle with at least one success
	LongBackoff    time.Duration // after a cycle with no success
	ContinuousMode bool
}

// DefaultConfig returns the reference timings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    2,
		RetryDelay:     5 * time.Second,
		ShortBackoff:   30 * time.Second,
		LongBackoff:    15 * time.Minute,
		ContinuousMode: true,
	}
}

// Session is one account's authenticated interaction with the remote API.
type Session interface {
	Authenticate(ctx context.Context) (domain.AuthResult, error)
	Contribute(ctx context.Context) (domain.Profile, error)
	Close() error
}

// SessionFactory creates a session for an account and identity.
type SessionFactory interface {
	NewSession(account domain.Account, id domain.Identity) Session
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(account domain.Account, id domain.Identity) Session

func (f SessionFactoryFunc) NewSession(account domain.Account, id domain.Identity) Session {
	return f(account, id)
}

// IdentityResolver builds an identity from an account's proxy string.
type IdentityResolver interface {
	Resolve(proxy string) domain.Identity
}

// Lease guards an account against concurrent processing by another instance.
type Lease interface {
	Acquire(ctx context.Context, account string) (bool, error)
	Release(ctx context.Context, account string) error
}
