package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.ProfileSection{},
		&types.ProfileQuiz{},
		&types.GateStatus{},
		&types.ErrorLog{},
		&types.FetchLog{},
		&types.ChangeLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestUser(t *testing.T, gdb *gorm.DB, uid string) *types.User {
	t.Helper()
	userRepo := repos.NewUserRepo(gdb, logger.Nop())
	user, err := userRepo.Create(context.Background(), nil, &types.User{
		UID:      uid,
		Email:    uid + "@example.com",
		Password: "x",
		Role:     types.RoleUser,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newTestProfileDataService(t *testing.T, gdb *gorm.DB) (ProfileDataService, GateService) {
	t.Helper()
	nop := logger.Nop()
	gate := NewGateService(repos.NewGateStatusRepo(gdb, nop), metrics.NopRecorder{}, nop)
	svc := NewProfileDataService(
		gdb,
		repos.NewProfileSectionRepo(gdb, nop),
		repos.NewAuditRepo(gdb, nop),
		gate,
		metrics.NopRecorder{},
		nop,
	)
	return svc, gate
}
