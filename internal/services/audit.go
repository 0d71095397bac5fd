package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// MetricsSnapshot is the control-panel dashboard aggregate.
type MetricsSnapshot struct {
	TotalUsers      int64 `json:"total_users"`
	TotalSections   int64 `json:"total_sections"`
	TotalQuizzes    int64 `json:"total_quizzes"`
	ErrorsLast24H   int64 `json:"errors_last_24h"`
	RequestsLast24H int64 `json:"requests_last_24h"`
}

// AuditService records and reads the append-only audit trail. Recording is
// best-effort: a failed append is logged and dropped, never propagated into
// the request path.
type AuditService interface {
	LogError(ctx context.Context, entry *types.ErrorLog)
	LogFetch(ctx context.Context, entry *types.FetchLog)

	ListErrors(ctx context.Context, since time.Time, limit int) ([]*types.ErrorLog, error)
	ListFetches(ctx context.Context, since time.Time, limit int, errorOnly bool) ([]*types.FetchLog, error)
	ListChanges(ctx context.Context, since time.Time, limit int, entityType string) ([]*types.ChangeLog, error)

	Metrics(ctx context.Context) (*MetricsSnapshot, error)
}

type auditService struct {
	auditRepo   repos.AuditRepo
	userRepo    repos.UserRepo
	sectionRepo repos.ProfileSectionRepo
	quizRepo    repos.ProfileQuizRepo
	log         *logger.Logger
}

func NewAuditService(
	auditRepo repos.AuditRepo,
	userRepo repos.UserRepo,
	sectionRepo repos.ProfileSectionRepo,
	quizRepo repos.ProfileQuizRepo,
	baseLog *logger.Logger,
) AuditService {
	return &auditService{
		auditRepo:   auditRepo,
		userRepo:    userRepo,
		sectionRepo: sectionRepo,
		quizRepo:    quizRepo,
		log:         baseLog.With("service", "AuditService"),
	}
}

func (as *auditService) LogError(ctx context.Context, entry *types.ErrorLog) {
	if err := as.auditRepo.AppendError(ctx, nil, entry); err != nil {
		as.log.Warn("Dropping error log entry", "error", err)
	}
}

func (as *auditService) LogFetch(ctx context.Context, entry *types.FetchLog) {
	if err := as.auditRepo.AppendFetch(ctx, nil, entry); err != nil {
		as.log.Warn("Dropping fetch log entry", "error", err)
	}
}

func (as *auditService) ListErrors(ctx context.Context, since time.Time, limit int) ([]*types.ErrorLog, error) {
	return as.auditRepo.ListErrors(ctx, nil, since, clampLimit(limit))
}

func (as *auditService) ListFetches(ctx context.Context, since time.Time, limit int, errorOnly bool) ([]*types.FetchLog, error) {
	return as.auditRepo.ListFetches(ctx, nil, since, clampLimit(limit), errorOnly)
}

func (as *auditService) ListChanges(ctx context.Context, since time.Time, limit int, entityType string) ([]*types.ChangeLog, error) {
	return as.auditRepo.ListChanges(ctx, nil, since, clampLimit(limit), entityType)
}

// Metrics fans the count queries out concurrently; any single failure fails
// the snapshot.
func (as *auditService) Metrics(ctx context.Context) (*MetricsSnapshot, error) {
	snapshot := &MetricsSnapshot{}
	dayAgo := time.Now().UTC().Add(-24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := as.userRepo.Count(gctx, nil)
		snapshot.TotalUsers = count
		return err
	})
	g.Go(func() error {
		count, err := as.sectionRepo.Count(gctx, nil)
		snapshot.TotalSections = count
		return err
	})
	g.Go(func() error {
		count, err := as.quizRepo.Count(gctx, nil)
		snapshot.TotalQuizzes = count
		return err
	})
	g.Go(func() error {
		count, err := as.auditRepo.CountErrorsSince(gctx, nil, dayAgo)
		snapshot.ErrorsLast24H = count
		return err
	})
	g.Go(func() error {
		count, err := as.auditRepo.CountFetchesSince(gctx, nil, dayAgo)
		snapshot.RequestsLast24H = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLogLimit
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}
