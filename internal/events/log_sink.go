package events

import (
	"context"
	"fmt"
	"log/slog"
)

// LogSink renders events as slog records.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a sink writing to log, or slog.Default() when nil.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Emit(ctx context.Context, ev Event) {
	attrs := make([]any, 0, 8)
	if ev.Cycle > 0 {
		attrs = append(attrs, "cycle", ev.Cycle)
	}
	if ev.Account != "" {
		attrs = append(attrs, "account", ev.Account)
	}
	for k, v := range ev.Fields {
		attrs = append(attrs, k, v)
	}

	switch ev.Type {
	case TypeBotStarted:
		s.log.InfoContext(ctx, "Starting multi-account bot", attrs...)
	case TypeCycleStarted:
		s.log.InfoContext(ctx, "Cycle started", attrs...)
	case TypeAccountProcessing:
		s.log.InfoContext(ctx, "Processing account", attrs...)
	case TypeProxyConfigured:
		if ev.Identity != nil && ev.Identity.Proxy != nil {
			attrs = append(attrs, "proxy_host", ev.Identity.Proxy.Host, "proxy_port", ev.Identity.Proxy.Port)
		}
		s.log.InfoContext(ctx, "Setting up proxy", attrs...)
	case TypeLeaseHeld:
		s.log.WarnContext(ctx, "Account is being processed by another instance", attrs...)
	case TypeLeaseError:
		s.log.WarnContext(ctx, "Account lease unavailable, processing without it", append(attrs, "error", ev.Err)...)
	case TypeAuthSuccess:
		if ev.Auth != nil {
			attrs = append(attrs, "user_id", ev.Auth.UserID, "username", ev.Auth.Username)
		}
		s.log.InfoContext(ctx, "Authentication successful", attrs...)
	case TypeAuthFailure:
		s.log.ErrorContext(ctx, "Authentication failed", append(attrs, "error", ev.Err)...)
	case TypeContributionAttempt:
		s.log.DebugContext(ctx, "Initiating contribution request", append(attrs, "attempt", ev.Attempt)...)
	case TypeContributionRetry:
		s.log.ErrorContext(ctx, fmt.Sprintf("Contribution failed (attempt %d)", ev.Attempt), append(attrs, "error", ev.Err)...)
	case TypeContributionSuccess:
		if p := ev.Profile; p != nil {
			s.log.InfoContext(ctx, "Contribution success", append(attrs,
				"new_balance", p.Balance,
				"power_status", fmt.Sprintf("%.0f/%.0f", p.Power, p.PowerCapacity))...)
			s.log.InfoContext(ctx, "Current profile status", append(attrs,
				"balance", fmt.Sprintf("%v HIVERA", p.Balance),
				"power", fmt.Sprintf("%.0f/%.0f", p.Power, p.PowerCapacity),
				"power_percentage", fmt.Sprintf("%.2f%%", p.PowerPercentage()))...)
			return
		}
		s.log.InfoContext(ctx, "Contribution success", attrs...)
	case TypeInsufficientPower:
		s.log.WarnContext(ctx, "Insufficient power for account", attrs...)
	case TypeContributionFailed:
		s.log.ErrorContext(ctx, "Contribution failed, skipping account this cycle", append(attrs, "error", ev.Err)...)
	case TypeCycleSummary:
		if r := ev.Report; r != nil {
			attrs = append(attrs,
				"accounts", len(r.Results),
				"succeeded", r.Succeeded(),
				"failed", r.Failed(),
				"duration", r.Duration())
			for _, res := range r.Results {
				if !res.Success {
					label := res.Key
					if label == "" {
						label = res.Account
					}
					attrs = append(attrs, "failed_"+label, string(res.ErrorKind))
				}
			}
		}
		s.log.InfoContext(ctx, "Cycle results", attrs...)
	case TypeCycleWaiting:
		msg := "Waiting before next cycle"
		if ev.Report != nil && !ev.Report.AnySuccess() {
			msg = "No accounts with sufficient power, backing off"
		}
		s.log.InfoContext(ctx, msg, append(attrs, "delay", ev.Delay)...)
	case TypeFatalError:
		s.log.ErrorContext(ctx, "Critical error occurred", append(attrs, "error", ev.Err)...)
	case TypeRestarting:
		s.log.WarnContext(ctx, "Restarting scheduler", append(attrs, "delay", ev.Delay)...)
	default:
		s.log.DebugContext(ctx, string(ev.Type), attrs...)
	}
}
