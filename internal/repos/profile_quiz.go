package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

type ProfileQuizRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *types.ProfileQuiz) (*types.ProfileQuiz, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ProfileQuiz, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ProfileQuiz, error)
	ReplaceData(ctx context.Context, tx *gorm.DB, quizID uuid.UUID, data datatypes.JSON) error
	Delete(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type profileQuizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileQuizRepo(db *gorm.DB, baseLog *logger.Logger) ProfileQuizRepo {
	repoLog := baseLog.With("repo", "ProfileQuizRepo")
	return &profileQuizRepo{db: db, log: repoLog}
}

func (qr *profileQuizRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return qr.db
}

func (qr *profileQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *types.ProfileQuiz) (*types.ProfileQuiz, error) {
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	if err := qr.conn(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, apperr.MapDB("ProfileQuizRepo.Create", err)
	}
	return quiz, nil
}

func (qr *profileQuizRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ProfileQuiz, error) {
	var result types.ProfileQuiz
	if err := qr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, apperr.MapDB("ProfileQuizRepo.GetByUserID", err)
	}
	return &result, nil
}

func (qr *profileQuizRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.ProfileQuiz, error) {
	var results []*types.ProfileQuiz
	if err := qr.conn(tx).WithContext(ctx).
		Preload("User").
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, apperr.MapDB("ProfileQuizRepo.ListAll", err)
	}
	return results, nil
}

func (qr *profileQuizRepo) ReplaceData(ctx context.Context, tx *gorm.DB, quizID uuid.UUID, data datatypes.JSON) error {
	if err := qr.conn(tx).WithContext(ctx).
		Model(&types.ProfileQuiz{}).
		Where("id = ?", quizID).
		Updates(map[string]any{
			"profile_data": data,
			"updated_at":   time.Now().UTC(),
		}).Error; err != nil {
		return apperr.MapDB("ProfileQuizRepo.ReplaceData", err)
	}
	return nil
}

func (qr *profileQuizRepo) Delete(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) error {
	if err := qr.conn(tx).WithContext(ctx).
		Delete(&types.ProfileQuiz{}, "id = ?", quizID).Error; err != nil {
		return apperr.MapDB("ProfileQuizRepo.Delete", err)
	}
	return nil
}

func (qr *profileQuizRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := qr.conn(tx).WithContext(ctx).
		Model(&types.ProfileQuiz{}).
		Count(&count).Error; err != nil {
		return 0, apperr.MapDB("ProfileQuizRepo.Count", err)
	}
	return count, nil
}
