package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

type GateStatusRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB) (*types.GateStatus, error)
	Save(ctx context.Context, tx *gorm.DB, status *types.GateStatus) error
}

type gateStatusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGateStatusRepo(db *gorm.DB, baseLog *logger.Logger) GateStatusRepo {
	repoLog := baseLog.With("repo", "GateStatusRepo")
	return &gateStatusRepo{db: db, log: repoLog}
}

func (gr *gateStatusRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return gr.db
}

// GetOrCreate returns the singleton gate row, creating it in the idle state on
// first use.
func (gr *gateStatusRepo) GetOrCreate(ctx context.Context, tx *gorm.DB) (*types.GateStatus, error) {
	var status types.GateStatus
	err := gr.conn(tx).WithContext(ctx).
		Order("id").
		First(&status).Error
	if err == nil {
		return &status, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.MapDB("GateStatusRepo.GetOrCreate", err)
	}

	status = types.GateStatus{Status: "idle"}
	if err := gr.conn(tx).WithContext(ctx).Create(&status).Error; err != nil {
		// another request may have created it between the read and the write
		var existing types.GateStatus
		if gerr := gr.conn(tx).WithContext(ctx).Order("id").First(&existing).Error; gerr == nil {
			return &existing, nil
		}
		return nil, apperr.MapDB("GateStatusRepo.GetOrCreate", err)
	}
	return &status, nil
}

func (gr *gateStatusRepo) Save(ctx context.Context, tx *gorm.DB, status *types.GateStatus) error {
	if err := gr.conn(tx).WithContext(ctx).Save(status).Error; err != nil {
		return apperr.MapDB("GateStatusRepo.Save", err)
	}
	return nil
}
