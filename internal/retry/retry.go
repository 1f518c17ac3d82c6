// Package retry runs a fallible remote action with a bounded number of
// attempts and a fixed delay between them.
package retry

import (
	"context"
	"time"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultConfig matches the contribution retry behavior: two attempts, five seconds apart.
var DefaultConfig = Config{
	MaxAttempts: 2,
	Delay:       5 * time.Second,
}

// Class determines how a failed attempt is handled.
type Class int

const (
	// Transient failures are retried until the attempt cap.
	Transient Class = iota
	// Terminal failures stop immediately and are returned to the caller.
	Terminal
)

func (c Class) String() string {
	switch c {
	case Terminal:
		return "terminal"
	default:
		return "transient"
	}
}

// Classifier maps an error to its Class.
type Classifier func(err error) Class

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy executes actions under a Config.
type Policy struct {
	cfg      Config
	classify Classifier
	sleep    Sleeper

	// OnRetry, when set, observes every transient failure that will be retried.
	OnRetry func(attempt int, err error)
	// OnGiveUp, when set, observes the last transient failure.
	OnGiveUp func(attempts int, err error)
}

// NewPolicy creates a Policy. A nil classifier treats every error as transient.
func NewPolicy(cfg Config, classify Classifier) *Policy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if classify == nil {
		classify = func(error) Class { return Transient }
	}
	return &Policy{cfg: cfg, classify: classify, sleep: Sleep}
}

// WithSleeper replaces the delay implementation, mostly for tests.
func (p *Policy) WithSleeper(s Sleeper) *Policy {
	p.sleep = s
	return p
}

// Config returns the effective configuration.
func (p *Policy) Config() Config {
	return p.cfg
}

// Execute invokes action up to MaxAttempts times.
//
// A nil error returns the result with ok=true. A Terminal error is returned
// immediately without further attempts or delay. Transient errors are retried
// after the fixed delay; once the cap is reached Execute returns ok=false and
// a nil error, meaning there is no result. Context cancellation returns ctx.Err().
func Execute[T any](ctx context.Context, p *Policy, action func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		result, err := action(ctx)
		if err == nil {
			return result, true, nil
		}

		if p.classify(err) == Terminal {
			return zero, false, err
		}
		if ctx.Err() != nil {
			return zero, false, ctx.Err()
		}

		if attempt == p.cfg.MaxAttempts {
			if p.OnGiveUp != nil {
				p.OnGiveUp(attempt, err)
			}
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if err := p.sleep(ctx, p.cfg.Delay); err != nil {
			return zero, false, err
		}
	}

	return zero, false, nil
}
