package engine

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
	"github.com/vietddude/hivera/internal/events"
	"github.com/vietddude/hivera/internal/retry"
)

// Deps holds the collaborators the scheduler calls through.
type Deps struct {
	Identities IdentityResolver
	Sessions   SessionFactory
	Classify   retry.Classifier
	Sink       events.Sink
	Lease      Lease            // optional
	Sleep      retry.Sleeper    // defaults to retry.Sleep
	Now        func() time.Time // defaults to time.Now
}

// Scheduler runs cycles over a fixed, ordered list of accounts.
type Scheduler struct {
	cfg      Config
	accounts []domain.Account
	deps     Deps

	// identities are generated once per account and reused every cycle
	identities []*domain.Identity
	cycle      int

	mu      sync.RWMutex
	last    *domain.CycleReport
	started time.Time // start of the cycle in progress, zero between cycles
}

// NewScheduler creates a scheduler. The account list is not reloaded.
func NewScheduler(cfg Config, accounts []domain.Account, deps Deps) *Scheduler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if deps.Sink == nil {
		deps.Sink = events.Discard
	}
	if deps.Sleep == nil {
		deps.Sleep = retry.Sleep
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Classify == nil {
		deps.Classify = func(error) retry.Class { return retry.Transient }
	}

	return &Scheduler{
		cfg:        cfg,
		accounts:   accounts,
		deps:       deps,
		identities: make([]*domain.Identity, len(accounts)),
	}
}

// Accounts returns the accounts in processing order.
func (s *Scheduler) Accounts() []domain.Account {
	return s.accounts
}

// LastReport returns the most recently completed cycle.
func (s *Scheduler) LastReport() (domain.CycleReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.CycleReport{}, false
	}
	return *s.last, true
}

// CurrentCycleStartedAt returns when the cycle in progress started, or
// ok=false between cycles.
func (s *Scheduler) CurrentCycleStartedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started, !s.started.IsZero()
}

// NextDelay picks the wait before the next cycle: the long backoff when no
// account succeeded, otherwise the short interval.
func (s *Scheduler) NextDelay(report domain.CycleReport) time.Duration {
	if !report.AnySuccess() {
		return s.cfg.LongBackoff
	}
	return s.cfg.ShortBackoff
}

// Run performs cycles until ctx is done. In single-shot mode it performs
// exactly one cycle and returns its results without sleeping.
func (s *Scheduler) Run(ctx context.Context) ([]domain.CycleResult, error) {
	s.emit(ctx, events.Event{
		Type: events.TypeBotStarted,
		Fields: map[string]any{
			"account_count": len(s.accounts),
			"continuous":    s.cfg.ContinuousMode,
		},
	})

	for {
		report := s.RunCycle(ctx)
		if err := ctx.Err(); err != nil {
			return report.Results, err
		}
		if !s.cfg.ContinuousMode {
			return report.Results, nil
		}

		s.emit(ctx, events.Event{
			Type:   events.TypeCycleWaiting,
			Cycle:  report.Number,
			Report: &report,
			Delay:  report.NextDelay,
		})
		if err := s.deps.Sleep(ctx, report.NextDelay); err != nil {
			return report.Results, err
		}
	}
}

// RunCycle performs one sequential pass over the accounts in order. If ctx
// is cancelled mid-pass the remaining accounts are not processed.
func (s *Scheduler) RunCycle(ctx context.Context) domain.CycleReport {
	s.cycle++
	report := domain.NewCycleReport(s.cycle, s.deps.Now())
	s.mu.Lock()
	s.started = report.StartedAt
	s.mu.Unlock()

	s.emit(ctx, events.Event{
		Type:   events.TypeCycleStarted,
		Cycle:  report.Number,
		Fields: map[string]any{"cycle_id": report.ID.String(), "accounts": len(s.accounts)},
	})

	for i, account := range s.accounts {
		if ctx.Err() != nil {
			break
		}
		report.Results = append(report.Results, s.processAccount(ctx, report.Number, i, account))
	}

	report.FinishedAt = s.deps.Now()
	report.NextDelay = s.NextDelay(report)

	s.mu.Lock()
	s.last = &report
	s.started = time.Time{}
	s.mu.Unlock()

	s.emit(ctx, events.Event{Type: events.TypeCycleSummary, Cycle: report.Number, Report: &report})
	return report
}

func (s *Scheduler) processAccount(ctx context.Context, cycle, idx int, account domain.Account) domain.CycleResult {
	key := account.Key()
	result := domain.CycleResult{Account: account.Username, Key: key}
	base := events.Event{Cycle: cycle, Account: account.Username, AccountKey: key}

	s.emit(ctx, with(base, events.Event{Type: events.TypeAccountProcessing}))

	if s.deps.Lease != nil {
		acquired, err := s.deps.Lease.Acquire(ctx, key)
		switch {
		case err != nil:
			s.emit(ctx, with(base, events.Event{Type: events.TypeLeaseError, Err: err}))
		case !acquired:
			s.emit(ctx, with(base, events.Event{Type: events.TypeLeaseHeld}))
			result.ErrorKind = domain.ErrorKindLeaseHeld
			return result
		default:
			defer func() {
				// Release even when ctx is cancelled so the lease does not linger until TTL.
				if err := s.deps.Lease.Release(context.WithoutCancel(ctx), key); err != nil {
					s.emit(ctx, with(base, events.Event{Type: events.TypeLeaseError, Err: err}))
				}
			}()
		}
	}

	id := s.identity(idx, account)
	if id.HasProxy() {
		s.emit(ctx, with(base, events.Event{Type: events.TypeProxyConfigured, Identity: &id}))
	}

	session := s.deps.Sessions.NewSession(account, id)
	defer session.Close()

	auth, err := session.Authenticate(ctx)
	if err != nil {
		s.emit(ctx, with(base, events.Event{Type: events.TypeAuthFailure, Err: err}))
		result.ErrorKind = domain.ErrorKindAuthFailure
		result.Error = err.Error()
		return result
	}
	s.emit(ctx, with(base, events.Event{Type: events.TypeAuthSuccess, Auth: &auth}))

	policy := retry.NewPolicy(retry.Config{
		MaxAttempts: s.cfg.MaxAttempts,
		Delay:       s.cfg.RetryDelay,
	}, s.deps.Classify).WithSleeper(s.deps.Sleep)
	policy.OnRetry = func(attempt int, err error) {
		s.emit(ctx, with(base, events.Event{Type: events.TypeContributionRetry, Attempt: attempt, Err: err}))
	}

	var lastErr error
	policy.OnGiveUp = func(attempt int, err error) {
		lastErr = err
	}

	attempt := 0
	profile, ok, err := retry.Execute(ctx, policy, func(ctx context.Context) (domain.Profile, error) {
		attempt++
		s.emit(ctx, with(base, events.Event{Type: events.TypeContributionAttempt, Attempt: attempt}))
		return session.Contribute(ctx)
	})

	switch {
	case ok:
		s.emit(ctx, with(base, events.Event{Type: events.TypeContributionSuccess, Profile: &profile}))
		result.Success = true
		result.Profile = &profile
	case err != nil && s.deps.Classify(err) == retry.Terminal:
		s.emit(ctx, with(base, events.Event{Type: events.TypeInsufficientPower, Err: err}))
		result.ErrorKind = domain.ErrorKindInsufficientResource
		result.Error = err.Error()
	case err != nil:
		// cancelled while contributing
		result.ErrorKind = domain.ErrorKindUnknown
		result.Error = err.Error()
	default:
		s.emit(ctx, with(base, events.Event{Type: events.TypeContributionFailed, Attempt: attempt, Err: lastErr}))
		result.ErrorKind = domain.ErrorKindUnknown
		if lastErr != nil {
			result.Error = lastErr.Error()
		}
	}
	return result
}

func (s *Scheduler) identity(idx int, account domain.Account) domain.Identity {
	if s.identities[idx] == nil {
		id := s.deps.Identities.Resolve(account.Proxy)
		s.identities[idx] = &id
	}
	return *s.identities[idx]
}

func (s *Scheduler) emit(ctx context.Context, ev events.Event) {
	if ev.Time.IsZero() {
		ev.Time = s.deps.Now()
	}
	s.deps.Sink.Emit(ctx, ev)
}

// with copies the cycle and account of base into ev.
func with(base, ev events.Event) events.Event {
	ev.Cycle = base.Cycle
	ev.Account = base.Account
	ev.AccountKey = base.AccountKey
	return ev
}
