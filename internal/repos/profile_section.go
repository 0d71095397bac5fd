package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

type ProfileSectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, section *types.ProfileSection) (*types.ProfileSection, error)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, section *types.ProfileSection) (int64, error)
	GetByUserAndSection(ctx context.Context, tx *gorm.DB, userID uuid.UUID, section string) (*types.ProfileSection, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProfileSection, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ProfileSection, error)
	ReplaceData(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, data datatypes.JSONMap) error
	SetDataField(ctx context.Context, tx *gorm.DB, userID uuid.UUID, section, key string, value any) (int64, error)
	SwapData(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, seenUpdatedAt time.Time, data datatypes.JSONMap) (int64, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type profileSectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileSectionRepo(db *gorm.DB, baseLog *logger.Logger) ProfileSectionRepo {
	repoLog := baseLog.With("repo", "ProfileSectionRepo")
	return &profileSectionRepo{db: db, log: repoLog}
}

func (pr *profileSectionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return pr.db
}

func (pr *profileSectionRepo) Create(ctx context.Context, tx *gorm.DB, section *types.ProfileSection) (*types.ProfileSection, error) {
	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}
	if section.Data == nil {
		section.Data = datatypes.JSONMap{}
	}
	if err := pr.conn(tx).WithContext(ctx).Create(section).Error; err != nil {
		return nil, apperr.MapDB("ProfileSectionRepo.Create", err)
	}
	return section, nil
}

// CreateIfAbsent inserts the section unless a row for (user_id, section)
// already exists. A plain insert that hits the unique index would poison the
// enclosing Postgres transaction, so the conflict is absorbed in-statement.
// Returns the number of rows inserted.
func (pr *profileSectionRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, section *types.ProfileSection) (int64, error) {
	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}
	if section.Data == nil {
		section.Data = datatypes.JSONMap{}
	}
	res := pr.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "section"}},
			DoNothing: true,
		}).
		Create(section)
	if res.Error != nil {
		return 0, apperr.MapDB("ProfileSectionRepo.CreateIfAbsent", res.Error)
	}
	return res.RowsAffected, nil
}

func (pr *profileSectionRepo) GetByUserAndSection(ctx context.Context, tx *gorm.DB, userID uuid.UUID, section string) (*types.ProfileSection, error) {
	var result types.ProfileSection
	if err := pr.conn(tx).WithContext(ctx).
		Where("user_id = ? AND section = ?", userID, section).
		First(&result).Error; err != nil {
		return nil, apperr.MapDB("ProfileSectionRepo.GetByUserAndSection", err)
	}
	return &result, nil
}

func (pr *profileSectionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ProfileSection, error) {
	var results []*types.ProfileSection
	if err := pr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("section").
		Find(&results).Error; err != nil {
		return nil, apperr.MapDB("ProfileSectionRepo.ListByUser", err)
	}
	return results, nil
}

func (pr *profileSectionRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ProfileSection, error) {
	var results []*types.ProfileSection
	if err := pr.conn(tx).WithContext(ctx).
		Preload("User").
		Order("user_id, section").
		Find(&results).Error; err != nil {
		return nil, apperr.MapDB("ProfileSectionRepo.ListAll", err)
	}
	return results, nil
}

func (pr *profileSectionRepo) ReplaceData(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, data datatypes.JSONMap) error {
	if err := pr.conn(tx).WithContext(ctx).
		Model(&types.ProfileSection{}).
		Where("id = ?", recordID).
		Updates(map[string]any{
			"data":       data,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return apperr.MapDB("ProfileSectionRepo.ReplaceData", err)
	}
	return nil
}

// SetDataField sets data[key] = value in a single statement (jsonb_set on
// Postgres, JSON_SET on sqlite), so concurrent writers on different keys
// cannot clobber each other. Returns the number of rows touched; zero means
// no row exists yet for (userID, section).
func (pr *profileSectionRepo) SetDataField(ctx context.Context, tx *gorm.DB, userID uuid.UUID, section, key string, value any) (int64, error) {
	res := pr.conn(tx).WithContext(ctx).
		Model(&types.ProfileSection{}).
		Where("user_id = ? AND section = ?", userID, section).
		Updates(map[string]any{
			"data":       datatypes.JSONSet("data").Set(key, value),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, apperr.MapDB("ProfileSectionRepo.SetDataField", res.Error)
	}
	return res.RowsAffected, nil
}

// SwapData replaces the document only if updated_at still matches what the
// caller read. Zero rows affected means a concurrent writer got there first.
func (pr *profileSectionRepo) SwapData(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, seenUpdatedAt time.Time, data datatypes.JSONMap) (int64, error) {
	res := pr.conn(tx).WithContext(ctx).
		Model(&types.ProfileSection{}).
		Where("id = ? AND updated_at = ?", recordID, seenUpdatedAt).
		Updates(map[string]any{
			"data":       data,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, apperr.MapDB("ProfileSectionRepo.SwapData", res.Error)
	}
	return res.RowsAffected, nil
}

func (pr *profileSectionRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := pr.conn(tx).WithContext(ctx).
		Model(&types.ProfileSection{}).
		Count(&count).Error; err != nil {
		return 0, apperr.MapDB("ProfileSectionRepo.Count", err)
	}
	return count, nil
}
