package services

import (
	"context"
	"testing"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/repos"
)

func newTestGateService(t *testing.T) GateService {
	t.Helper()
	gdb := newTestDB(t)
	nop := logger.Nop()
	return NewGateService(repos.NewGateStatusRepo(gdb, nop), metrics.NopRecorder{}, nop)
}

func TestGateStartsOpen(t *testing.T) {
	gate := newTestGateService(t)
	ctx := context.Background()

	status, err := gate.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.IsPaused || status.MatchmakersPaused {
		t.Fatalf("fresh gate should be open: %+v", status)
	}
	if err := gate.CheckWritable(ctx, nil); err != nil {
		t.Fatalf("fresh gate should be writable: %v", err)
	}
}

func TestPauseGlobalCascadesToMatchmakers(t *testing.T) {
	gate := newTestGateService(t)
	ctx := context.Background()

	status, err := gate.PauseGlobal(ctx, "migration window")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !status.IsPaused || !status.MatchmakersPaused {
		t.Fatalf("global pause must cascade: %+v", status)
	}
	if status.PauseReason != "migration window" || status.MatchmakersPauseReason != "migration window" {
		t.Fatalf("reasons not propagated: %+v", status)
	}
	if err := gate.CheckWritable(ctx, nil); apperr.CodeOf(err) != apperr.CodeGateClosed {
		t.Fatalf("expected gate_closed, got %v", err)
	}
}

func TestResumeMatchmakersLeavesGlobalPaused(t *testing.T) {
	gate := newTestGateService(t)
	ctx := context.Background()

	if _, err := gate.PauseGlobal(ctx, "stop everything"); err != nil {
		t.Fatal(err)
	}
	status, err := gate.ResumeMatchmakers(ctx)
	if err != nil {
		t.Fatalf("resume matchmakers: %v", err)
	}
	if !status.IsPaused {
		t.Fatalf("matchmakers resume must not clear the global pause: %+v", status)
	}
	if status.MatchmakersPaused {
		t.Fatalf("matchmakers pause should be cleared: %+v", status)
	}
	if err := gate.CheckWritable(ctx, nil); apperr.CodeOf(err) != apperr.CodeGateClosed {
		t.Fatalf("global pause must still block writes, got %v", err)
	}
}

func TestResumeGlobalClearsBothPauses(t *testing.T) {
	gate := newTestGateService(t)
	ctx := context.Background()

	if _, err := gate.PauseGlobal(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	status, err := gate.ResumeGlobal(ctx)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if status.IsPaused || status.MatchmakersPaused {
		t.Fatalf("resume must clear both pauses: %+v", status)
	}
	if status.PauseReason != "" || status.MatchmakersPauseReason != "" {
		t.Fatalf("resume must clear reasons: %+v", status)
	}
	if err := gate.CheckWritable(ctx, nil); err != nil {
		t.Fatalf("gate should be open: %v", err)
	}
}

func TestPauseMatchmakersOnly(t *testing.T) {
	gate := newTestGateService(t)
	ctx := context.Background()

	status, err := gate.PauseMatchmakers(ctx, "matchmakers rebuild")
	if err != nil {
		t.Fatalf("pause matchmakers: %v", err)
	}
	if status.IsPaused {
		t.Fatalf("matchmakers pause must not touch the global flag: %+v", status)
	}
	if !status.MatchmakersPaused {
		t.Fatalf("matchmakers pause not set: %+v", status)
	}
	if err := gate.CheckWritable(ctx, nil); apperr.CodeOf(err) != apperr.CodeGateClosed {
		t.Fatalf("matchmakers surface should be blocked, got %v", err)
	}
}
