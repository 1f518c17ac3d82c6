package domain

import (
	"time"

	"github.com/google/uuid"
)

// ErrorKind classifies why an account did not contribute in a cycle.
type ErrorKind string

const (
	ErrorKindNone                 ErrorKind = ""
	ErrorKindAuthFailure          ErrorKind = "auth_failure"
	ErrorKindInsufficientResource ErrorKind = "insufficient_resource"
	ErrorKindUnknown              ErrorKind = "unknown"
	ErrorKindLeaseHeld            ErrorKind = "lease_held"
)

// CycleResult is the outcome of processing one account in one cycle.
type CycleResult struct {
	Account   string    `json:"account"`
	Key       string    `json:"key"` // Account.Key, unique where usernames repeat
	Success   bool      `json:"success"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	Profile   *Profile  `json:"profile,omitempty"`
}

// CycleReport aggregates the results of one full pass over the accounts.
type CycleReport struct {
	ID         uuid.UUID     `json:"id"`
	Number     int           `json:"number"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []CycleResult `json:"results"`
	NextDelay  time.Duration `json:"next_delay"`
}

// NewCycleReport starts a report for cycle number n.
func NewCycleReport(n int, startedAt time.Time) CycleReport {
	return CycleReport{
		ID:        uuid.New(),
		Number:    n,
		StartedAt: startedAt,
		Results:   make([]CycleResult, 0),
	}
}

// Succeeded returns the number of accounts that contributed.
func (r CycleReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of accounts that did not contribute.
func (r CycleReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// AnySuccess reports whether at least one account contributed.
func (r CycleReport) AnySuccess() bool {
	return r.Succeeded() > 0
}

// Duration returns how long the pass took.
func (r CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
