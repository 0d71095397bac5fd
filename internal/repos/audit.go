package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// AuditRepo appends and reads the append-only audit tables. Rows are never
// updated or deleted.
type AuditRepo interface {
	AppendError(ctx context.Context, tx *gorm.DB, entry *types.ErrorLog) error
	AppendFetch(ctx context.Context, tx *gorm.DB, entry *types.FetchLog) error
	AppendChange(ctx context.Context, tx *gorm.DB, entry *types.ChangeLog) error

	ListErrors(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]*types.ErrorLog, error)
	ListFetches(ctx context.Context, tx *gorm.DB, since time.Time, limit int, errorOnly bool) ([]*types.FetchLog, error)
	ListChanges(ctx context.Context, tx *gorm.DB, since time.Time, limit int, entityType string) ([]*types.ChangeLog, error)

	CountErrorsSince(ctx context.Context, tx *gorm.DB, since time.Time) (int64, error)
	CountFetchesSince(ctx context.Context, tx *gorm.DB, since time.Time) (int64, error)
}

type auditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger) AuditRepo {
	repoLog := baseLog.With("repo", "AuditRepo")
	return &auditRepo{db: db, log: repoLog}
}

func (ar *auditRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}

func stampNow(ts *time.Time) {
	if ts.IsZero() {
		*ts = time.Now().UTC()
	}
}

func (ar *auditRepo) AppendError(ctx context.Context, tx *gorm.DB, entry *types.ErrorLog) error {
	stampNow(&entry.Timestamp)
	if err := ar.conn(tx).WithContext(ctx).Create(entry).Error; err != nil {
		return apperr.MapDB("AuditRepo.AppendError", err)
	}
	return nil
}

func (ar *auditRepo) AppendFetch(ctx context.Context, tx *gorm.DB, entry *types.FetchLog) error {
	stampNow(&entry.Timestamp)
	if err := ar.conn(tx).WithContext(ctx).Create(entry).Error; err != nil {
		return apperr.MapDB("AuditRepo.AppendFetch", err)
	}
	return nil
}

func (ar *auditRepo) AppendChange(ctx context.Context, tx *gorm.DB, entry *types.ChangeLog) error {
	stampNow(&entry.Timestamp)
	if err := ar.conn(tx).WithContext(ctx).Create(entry).Error; err != nil {
		return apperr.MapDB("AuditRepo.AppendChange", err)
	}
	return nil
}

func (ar *auditRepo) ListErrors(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]*types.ErrorLog, error) {
	var results []*types.ErrorLog
	if err := ar.conn(tx).WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, apperr.MapDB("AuditRepo.ListErrors", err)
	}
	return results, nil
}

func (ar *auditRepo) ListFetches(ctx context.Context, tx *gorm.DB, since time.Time, limit int, errorOnly bool) ([]*types.FetchLog, error) {
	query := ar.conn(tx).WithContext(ctx).
		Where("timestamp >= ?", since)
	if errorOnly {
		query = query.Where("is_error = ?", true)
	}
	var results []*types.FetchLog
	if err := query.
		Order("timestamp DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, apperr.MapDB("AuditRepo.ListFetches", err)
	}
	return results, nil
}

func (ar *auditRepo) ListChanges(ctx context.Context, tx *gorm.DB, since time.Time, limit int, entityType string) ([]*types.ChangeLog, error) {
	query := ar.conn(tx).WithContext(ctx).
		Where("timestamp >= ?", since)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	var results []*types.ChangeLog
	if err := query.
		Order("timestamp DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, apperr.MapDB("AuditRepo.ListChanges", err)
	}
	return results, nil
}

func (ar *auditRepo) CountErrorsSince(ctx context.Context, tx *gorm.DB, since time.Time) (int64, error) {
	var count int64
	if err := ar.conn(tx).WithContext(ctx).
		Model(&types.ErrorLog{}).
		Where("timestamp >= ?", since).
		Count(&count).Error; err != nil {
		return 0, apperr.MapDB("AuditRepo.CountErrorsSince", err)
	}
	return count, nil
}

func (ar *auditRepo) CountFetchesSince(ctx context.Context, tx *gorm.DB, since time.Time) (int64, error) {
	var count int64
	if err := ar.conn(tx).WithContext(ctx).
		Model(&types.FetchLog{}).
		Where("timestamp >= ?", since).
		Count(&count).Error; err != nil {
		return 0, apperr.MapDB("AuditRepo.CountFetchesSince", err)
	}
	return count, nil
}
