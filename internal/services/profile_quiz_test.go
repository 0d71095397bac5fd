package services

import (
	"context"
	"testing"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/pii"
	"github.com/yungbote/matchpoint-backend/internal/repos"
)

func TestQuizSaveIsAnUpsert(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProfileQuizService(repos.NewProfileQuizRepo(gdb, logger.Nop()), logger.Nop())
	user := newTestUser(t, gdb, "toby")
	ctx := context.Background()

	first, created, err := svc.Save(ctx, user, []pii.Response{
		{Question: "Favorite hobby?", Response: "climbing", Type: "freeResponse"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !created {
		t.Fatal("first save should create")
	}

	second, created, err := svc.Save(ctx, user, []pii.Response{
		{Question: "Favorite hobby?", Response: "sailing", Type: "freeResponse"},
		{Question: "Morning person?", Response: "no", Type: "multipleChoice"},
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if created {
		t.Fatal("second save should update in place")
	}
	if second.ID != first.ID {
		t.Fatalf("update created a new row: %s vs %s", second.ID, first.ID)
	}

	responses, err := svc.Get(ctx, user)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(responses) != 2 || responses[0].Response != "sailing" {
		t.Fatalf("stored responses: %+v", responses)
	}
}

func TestQuizGetAllFiltersPII(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProfileQuizService(repos.NewProfileQuizRepo(gdb, logger.Nop()), logger.Nop())
	user := newTestUser(t, gdb, "ana")
	ctx := context.Background()

	_, _, err := svc.Save(ctx, user, []pii.Response{
		{Question: "What is your full name?", Response: "Ana Doe", Type: "freeResponse"},
		{Question: "Favorite season?", Response: "autumn", Type: "multipleChoice"},
		{Question: "What is your home address?", Response: "12 Elm St", Type: "freeResponse"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	profiles, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if len(profiles[0].Responses) != 1 {
		t.Fatalf("PII not filtered: %+v", profiles[0].Responses)
	}
	if profiles[0].Responses[0].Question != "Favorite season?" {
		t.Fatalf("wrong survivor: %+v", profiles[0].Responses)
	}
	if profiles[0].UID != "ana" {
		t.Fatalf("uid: %q", profiles[0].UID)
	}
}

func TestQuizSafeProfileMatchesPublicView(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProfileQuizService(repos.NewProfileQuizRepo(gdb, logger.Nop()), logger.Nop())
	user := newTestUser(t, gdb, "mira")
	ctx := context.Background()

	_, _, err := svc.Save(ctx, user, []pii.Response{
		{Question: "Where do you live?", Response: "nearby", Type: "freeResponse"},
		{Question: "Favorite food?", Response: "ramen", Type: "multipleChoice"},
	})
	if err != nil {
		t.Fatal(err)
	}

	safe, err := svc.GetSafeProfile(ctx, user)
	if err != nil {
		t.Fatalf("safe profile: %v", err)
	}
	if len(safe) != 1 || safe[0].Question != "Favorite food?" {
		t.Fatalf("safe view not filtered: %+v", safe)
	}

	full, err := svc.Get(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != 2 {
		t.Fatalf("owner view must be unfiltered: %+v", full)
	}
}

func TestQuizDelete(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewProfileQuizService(repos.NewProfileQuizRepo(gdb, logger.Nop()), logger.Nop())
	user := newTestUser(t, gdb, "kade")
	ctx := context.Background()

	if _, _, err := svc.Save(ctx, user, []pii.Response{{Question: "q", Response: "a"}}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, user); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, user); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(ctx, user); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("double delete should be not found, got %v", err)
	}
}
