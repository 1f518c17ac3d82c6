// Package events defines the structured events the engine emits and the
// sinks that consume them.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
)

// Type identifies an engine event.
type Type string

const (
	TypeBotStarted          Type = "bot_started"
	TypeCycleStarted        Type = "cycle_started"
	TypeAccountProcessing   Type = "account_processing"
	TypeProxyConfigured     Type = "proxy_configured"
	TypeLeaseHeld           Type = "lease_held"
	TypeLeaseError          Type = "lease_error"
	TypeAuthSuccess         Type = "auth_success"
	TypeAuthFailure         Type = "auth_failure"
	TypeContributionAttempt Type = "contribution_attempt"
	TypeContributionRetry   Type = "contribution_retry"
	TypeContributionSuccess Type = "contribution_success"
	TypeInsufficientPower   Type = "insufficient_power"
	TypeContributionFailed  Type = "contribution_failed"
	TypeCycleSummary        Type = "cycle_summary"
	TypeCycleWaiting        Type = "cycle_waiting"
	TypeFatalError          Type = "fatal_error"
	TypeRestarting          Type = "restarting"
)

// Event is one structured engine event. Only the fields relevant to Type are set.
type Event struct {
	Type       Type
	Time       time.Time
	Cycle      int
	Account    string
	AccountKey string // Account.Key(), unique when usernames repeat
	Attempt    int
	Identity   *domain.Identity
	Auth       *domain.AuthResult
	Profile    *domain.Profile
	Report     *domain.CycleReport
	Delay      time.Duration
	Err        error
	Fields     map[string]any
}

// Sink consumes engine events. Emit must not block for long.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

type multiSink []Sink

// Multi fans events out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}
