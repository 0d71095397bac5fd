package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	GetByUID(ctx context.Context, tx *gorm.DB, uid string) (*types.User, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := ur.conn(tx).WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperr.MapDB("UserRepo.Create", err)
	}
	return user, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	var result types.User
	if err := ur.conn(tx).WithContext(ctx).
		Where("id = ?", userID).
		First(&result).Error; err != nil {
		return nil, apperr.MapDB("UserRepo.GetByID", err)
	}
	return &result, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	var result types.User
	if err := ur.conn(tx).WithContext(ctx).
		Where("email = ?", email).
		First(&result).Error; err != nil {
		return nil, apperr.MapDB("UserRepo.GetByEmail", err)
	}
	return &result, nil
}

func (ur *userRepo) GetByUID(ctx context.Context, tx *gorm.DB, uid string) (*types.User, error) {
	var result types.User
	if err := ur.conn(tx).WithContext(ctx).
		Where("uid = ?", uid).
		First(&result).Error; err != nil {
		return nil, apperr.MapDB("UserRepo.GetByUID", err)
	}
	return &result, nil
}

func (ur *userRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Count(&count).Error; err != nil {
		return 0, apperr.MapDB("UserRepo.Count", err)
	}
	return count, nil
}
