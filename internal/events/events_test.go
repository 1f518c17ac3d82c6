package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/vietddude/hivera/internal/core/domain"
)

func TestMulti_FansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	sink := Multi(a, nil, b)

	sink.Emit(context.Background(), Event{Type: TypeCycleStarted})
	sink.Emit(context.Background(), Event{Type: TypeCycleSummary})

	if len(a.Events()) != 2 || len(b.Events()) != 2 {
		t.Errorf("expected both sinks to see 2 events, got %d and %d", len(a.Events()), len(b.Events()))
	}
	if a.Count(TypeCycleStarted) != 1 {
		t.Errorf("expected 1 cycle_started, got %d", a.Count(TypeCycleStarted))
	}
}

func TestLogSink_Messages(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewLogSink(log)
	ctx := context.Background()

	sink.Emit(ctx, Event{
		Type:    TypeContributionSuccess,
		Cycle:   1,
		Account: "alice",
		Profile: &domain.Profile{Balance: 10, Power: 500, PowerCapacity: 2000},
	})
	sink.Emit(ctx, Event{Type: TypeAuthFailure, Account: "bob", Err: errors.New("http 401")})
	sink.Emit(ctx, Event{Type: TypeCycleSummary, Report: &domain.CycleReport{Results: []domain.CycleResult{
		{Account: "alice", Success: true},
		{Account: "bob", Key: "bob:0a1b", ErrorKind: domain.ErrorKindAuthFailure},
		{Account: "bob", Key: "bob:2c3d", ErrorKind: domain.ErrorKindInsufficientResource},
	}}})

	out := buf.String()
	for _, want := range []string{
		"Contribution success",
		"Current profile status",
		"power_percentage=25.00%",
		"level=ERROR",
		"Authentication failed",
		"succeeded=1",
		"failed_bob:0a1b=auth_failure",
		"failed_bob:2c3d=insufficient_resource",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
