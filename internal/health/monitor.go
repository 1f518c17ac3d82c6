package health

import (
	"sync"
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
)

// DefaultGrace is how late a cycle may be before the bot is reported critical.
const DefaultGrace = 5 * time.Minute

// ReportSource exposes the most recently completed cycle.
type ReportSource interface {
	LastReport() (domain.CycleReport, bool)
}

// CycleTracker is implemented by sources that know whether a cycle is running.
type CycleTracker interface {
	CurrentCycleStartedAt() (time.Time, bool)
}

// Monitor derives health from the scheduler's last cycle report.
type Monitor struct {
	mu     sync.RWMutex
	source ReportSource
	grace  time.Duration
	now    func() time.Time
}

// NewMonitor creates a new health monitor. source may be set later with
// SetSource once the scheduler exists.
func NewMonitor(source ReportSource, grace time.Duration) *Monitor {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Monitor{source: source, grace: grace, now: time.Now}
}

// SetSource replaces the report source, e.g. after a supervisor restart.
func (m *Monitor) SetSource(source ReportSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = source
}

// CheckHealth builds a report from the last cycle.
//
// No cycle yet is "starting"; a cycle with no success is "degraded"; a next
// cycle overdue by more than the grace period is "critical". A cycle in
// progress is never overdue.
func (m *Monitor) CheckHealth() Report {
	m.mu.RLock()
	source := m.source
	m.mu.RUnlock()

	report := Report{SystemStatus: StatusStarting, Accounts: []AccountHealth{}}
	if source == nil {
		return report
	}
	if tracker, ok := source.(CycleTracker); ok {
		if started, running := tracker.CurrentCycleStartedAt(); running {
			report.Running = true
			report.CycleStartedAt = &started
		}
	}

	last, ok := source.LastReport()
	if !ok {
		return report
	}

	finished := last.FinishedAt
	next := finished.Add(last.NextDelay)
	report.Cycle = last.Number
	report.CycleID = last.ID.String()
	report.FinishedAt = &finished
	report.NextCycleAt = &next
	report.Succeeded = last.Succeeded()
	report.Failed = last.Failed()

	for _, res := range last.Results {
		ah := AccountHealth{Account: res.Account, Key: res.Key, Success: res.Success, ErrorKind: res.ErrorKind}
		if res.Profile != nil {
			ah.Balance = res.Profile.Balance
			ah.Power = res.Profile.Power
		}
		report.Accounts = append(report.Accounts, ah)
	}

	switch {
	case !report.Running && m.now().After(next.Add(m.grace)):
		report.SystemStatus = StatusCritical
	case len(last.Results) > 0 && !last.AnySuccess():
		report.SystemStatus = StatusDegraded
	default:
		report.SystemStatus = StatusHealthy
	}
	return report
}
