package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/vietddude/hivera/internal/events"
)

// Sink records engine events as Prometheus metrics. Per-account series are
// labelled with both the username and the account key, since usernames may repeat.
type Sink struct{}

// NewSink creates a metrics sink.
func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Emit(_ context.Context, ev events.Event) {
	switch ev.Type {
	case events.TypeContributionSuccess:
		if p := ev.Profile; p != nil {
			AccountBalance.WithLabelValues(ev.Account, ev.AccountKey).Set(p.Balance)
			AccountPower.WithLabelValues(ev.Account, ev.AccountKey).Set(p.Power)
			AccountPowerCapacity.WithLabelValues(ev.Account, ev.AccountKey).Set(p.PowerCapacity)
		}
	case events.TypeContributionRetry:
		ContributionRetriesTotal.WithLabelValues(ev.Account, ev.AccountKey).Inc()
	case events.TypeCycleSummary:
		r := ev.Report
		if r == nil {
			return
		}
		outcome := "no_success"
		if r.AnySuccess() {
			outcome = "success"
		}
		CyclesTotal.WithLabelValues(outcome).Inc()
		CycleDuration.Observe(r.Duration().Seconds())
		for _, res := range r.Results {
			result := "success"
			if !res.Success {
				result = string(res.ErrorKind)
			}
			AccountResultsTotal.WithLabelValues(res.Account, res.Key, result).Inc()
		}
	case events.TypeCycleWaiting:
		NextCycleDelay.Set(ev.Delay.Seconds())
	}
}

// ObserveRequest records one remote API request. Its signature matches
// hivera.RequestObserver.
func ObserveRequest(endpoint string, status int, latency time.Duration, err error) {
	label := strconv.Itoa(status)
	if err != nil && status == 0 {
		label = "error"
	}
	APIRequestsTotal.WithLabelValues(endpoint, label).Inc()
	APILatency.WithLabelValues(endpoint).Observe(latency.Seconds())
}
