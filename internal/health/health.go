// Package health provides bot health monitoring and status reporting.
package health

import (
	"time"

	"github.com/vietddude/hivera/internal/core/domain"
)

// SystemStatus represents the overall health state of the bot.
type SystemStatus string

const (
	StatusStarting SystemStatus = "starting"
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// AccountHealth is the last known outcome for one account.
type AccountHealth struct {
	Account   string           `json:"account"`
	Key       string           `json:"key"`
	Success   bool             `json:"success"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Balance   float64          `json:"balance,omitempty"`
	Power     float64          `json:"power,omitempty"`
}

// Report contains the full health report.
type Report struct {
	SystemStatus   SystemStatus    `json:"system_status"`
	Running        bool            `json:"running"`
	CycleStartedAt *time.Time      `json:"cycle_started_at,omitempty"`
	Cycle          int             `json:"cycle"`
	CycleID        string          `json:"cycle_id,omitempty"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
	NextCycleAt    *time.Time      `json:"next_cycle_at,omitempty"`
	Succeeded      int             `json:"succeeded"`
	Failed         int             `json:"failed"`
	Accounts       []AccountHealth `json:"accounts"`
}
