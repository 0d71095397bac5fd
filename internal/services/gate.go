package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// GateService owns the process-wide write gate. A global pause blocks every
// profile-data write; the matchmakers pause blocks only the matchmakers
// surface. Pausing globally cascades down to matchmakers; resuming globally
// resumes both. Last write wins, there is no expiry.
type GateService interface {
	Status(ctx context.Context) (*types.GateStatus, error)
	PauseGlobal(ctx context.Context, reason string) (*types.GateStatus, error)
	ResumeGlobal(ctx context.Context) (*types.GateStatus, error)
	PauseMatchmakers(ctx context.Context, reason string) (*types.GateStatus, error)
	ResumeMatchmakers(ctx context.Context) (*types.GateStatus, error)

	// CheckWritable evaluates the gate for the matchmakers write surface.
	// Callers pass their open transaction so the check and the guarded write
	// share one atomic boundary; nil falls back to the repo's own connection.
	CheckWritable(ctx context.Context, tx *gorm.DB) error
}

type gateService struct {
	gateRepo repos.GateStatusRepo
	recorder metrics.Recorder
	log      *logger.Logger
}

func NewGateService(gateRepo repos.GateStatusRepo, recorder metrics.Recorder, baseLog *logger.Logger) GateService {
	return &gateService{
		gateRepo: gateRepo,
		recorder: recorder,
		log:      baseLog.With("service", "GateService"),
	}
}

func (gs *gateService) Status(ctx context.Context) (*types.GateStatus, error) {
	return gs.gateRepo.GetOrCreate(ctx, nil)
}

func (gs *gateService) PauseGlobal(ctx context.Context, reason string) (*types.GateStatus, error) {
	status, err := gs.gateRepo.GetOrCreate(ctx, nil)
	if err != nil {
		return nil, err
	}
	status.Status = "paused"
	status.IsPaused = true
	status.PauseReason = reason
	status.MatchmakersPaused = true
	status.MatchmakersPauseReason = reason
	if err := gs.gateRepo.Save(ctx, nil, status); err != nil {
		return nil, err
	}
	gs.log.Info("Global write gate paused", "reason", reason)
	return status, nil
}

func (gs *gateService) ResumeGlobal(ctx context.Context) (*types.GateStatus, error) {
	status, err := gs.gateRepo.GetOrCreate(ctx, nil)
	if err != nil {
		return nil, err
	}
	status.Status = "idle"
	status.IsPaused = false
	status.PauseReason = ""
	status.MatchmakersPaused = false
	status.MatchmakersPauseReason = ""
	if err := gs.gateRepo.Save(ctx, nil, status); err != nil {
		return nil, err
	}
	gs.log.Info("Global write gate resumed")
	return status, nil
}

func (gs *gateService) PauseMatchmakers(ctx context.Context, reason string) (*types.GateStatus, error) {
	status, err := gs.gateRepo.GetOrCreate(ctx, nil)
	if err != nil {
		return nil, err
	}
	status.MatchmakersPaused = true
	status.MatchmakersPauseReason = reason
	if err := gs.gateRepo.Save(ctx, nil, status); err != nil {
		return nil, err
	}
	gs.log.Info("Matchmakers write gate paused", "reason", reason)
	return status, nil
}

func (gs *gateService) ResumeMatchmakers(ctx context.Context) (*types.GateStatus, error) {
	status, err := gs.gateRepo.GetOrCreate(ctx, nil)
	if err != nil {
		return nil, err
	}
	status.MatchmakersPaused = false
	status.MatchmakersPauseReason = ""
	if err := gs.gateRepo.Save(ctx, nil, status); err != nil {
		return nil, err
	}
	gs.log.Info("Matchmakers write gate resumed")
	return status, nil
}

func (gs *gateService) CheckWritable(ctx context.Context, tx *gorm.DB) error {
	status, err := gs.gateRepo.GetOrCreate(ctx, tx)
	if err != nil {
		return err
	}
	if status.IsPaused {
		gs.recorder.RecordGateRejection("global")
		return apperr.New(apperr.CodeGateClosed, "GateService.CheckWritable", pauseMessage(status.PauseReason))
	}
	if status.MatchmakersPaused {
		gs.recorder.RecordGateRejection("matchmakers")
		return apperr.New(apperr.CodeGateClosed, "GateService.CheckWritable", pauseMessage(status.MatchmakersPauseReason))
	}
	return nil
}

func pauseMessage(reason string) string {
	if reason == "" {
		return "writes are paused"
	}
	return "writes are paused: " + reason
}
