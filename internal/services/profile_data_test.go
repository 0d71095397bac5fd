package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

func TestSetupCreatesProfileSectionOnce(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "toby")
	ctx := context.Background()

	sections, err := svc.Setup(ctx, user)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, ok := sections[types.SectionProfile]; !ok {
		t.Fatalf("profile section missing: %v", sections)
	}

	if _, err := svc.Setup(ctx, user); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("expected conflict on second setup, got %v", err)
	}
}

func TestWriteCreatesAndReplacesSection(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "niko")
	ctx := context.Background()

	if _, err := svc.Write(ctx, user, types.SectionBasic, map[string]any{"name": "Niko", "age": 30}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := svc.Write(ctx, user, types.SectionBasic, map[string]any{"name": "Niko K."}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	sections, err := svc.Get(ctx, user, types.SectionBasic)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	doc := sections[types.SectionBasic]
	if doc["name"] != "Niko K." {
		t.Fatalf("document not replaced: %v", doc)
	}
	if _, ok := doc["age"]; ok {
		t.Fatal("replace kept a stale key")
	}
}

func TestWriteRejectsUnknownSection(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "ana")

	if _, err := svc.Write(context.Background(), user, "secrets", map[string]any{"a": 1}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertFieldCreatesRowAndMergesKeys(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "mira")
	ctx := context.Background()

	if _, err := svc.UpsertField(ctx, user, "hobby", "climbing"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	doc, err := svc.UpsertField(ctx, user, "city_vibe", "quiet")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if doc["hobby"] != "climbing" || doc["city_vibe"] != "quiet" {
		t.Fatalf("keys did not merge: %v", doc)
	}

	// overwrite in place
	doc, err = svc.UpsertField(ctx, user, "hobby", "sailing")
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if doc["hobby"] != "sailing" {
		t.Fatalf("overwrite lost: %v", doc)
	}
}

// racingSectionRepo makes the first keyed update miss while another writer's
// row lands underneath it, the window where a plain insert would hit the
// unique index and abort the surrounding transaction.
type racingSectionRepo struct {
	repos.ProfileSectionRepo
	raced bool
}

func (r *racingSectionRepo) SetDataField(ctx context.Context, tx *gorm.DB, userID uuid.UUID, section, key string, value any) (int64, error) {
	if !r.raced {
		r.raced = true
		if _, err := r.ProfileSectionRepo.Create(ctx, tx, &types.ProfileSection{
			UserID:  userID,
			Section: section,
			Data:    datatypes.JSONMap{"rival": "landed"},
		}); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return r.ProfileSectionRepo.SetDataField(ctx, tx, userID, section, key, value)
}

func TestUpsertFieldSurvivesConcurrentRowCreation(t *testing.T) {
	gdb := newTestDB(t)
	nop := logger.Nop()
	sectionRepo := &racingSectionRepo{ProfileSectionRepo: repos.NewProfileSectionRepo(gdb, nop)}
	gate := NewGateService(repos.NewGateStatusRepo(gdb, nop), metrics.NopRecorder{}, nop)
	svc := NewProfileDataService(gdb, sectionRepo, repos.NewAuditRepo(gdb, nop), gate, metrics.NopRecorder{}, nop)
	user := newTestUser(t, gdb, "remy")

	doc, err := svc.UpsertField(context.Background(), user, "hobby", "chess")
	if err != nil {
		t.Fatalf("upsert losing the creation race must still land: %v", err)
	}
	if doc["hobby"] != "chess" {
		t.Fatalf("racing write lost: %v", doc)
	}
	if doc["rival"] != "landed" {
		t.Fatalf("concurrent writer's document clobbered: %v", doc)
	}
	if !sectionRepo.raced {
		t.Fatal("race window never exercised")
	}
}

func TestRemoveField(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "kade")
	ctx := context.Background()

	if _, err := svc.UpsertField(ctx, user, "color", "green"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpsertField(ctx, user, "keep", "me"); err != nil {
		t.Fatal(err)
	}

	removed, remainder, err := svc.RemoveField(ctx, user, "color")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != "green" {
		t.Fatalf("removed value: got %v", removed)
	}
	if _, ok := remainder["color"]; ok {
		t.Fatal("key still present after removal")
	}
	if remainder["keep"] != "me" {
		t.Fatalf("sibling key lost: %v", remainder)
	}
}

func TestRemoveFieldMissingKeyCarriesDocument(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "lena")
	ctx := context.Background()

	if _, err := svc.UpsertField(ctx, user, "color", "green"); err != nil {
		t.Fatal(err)
	}

	_, _, err := svc.RemoveField(ctx, user, "nope")
	var knf *apperr.KeyNotFoundError
	if !errors.As(err, &knf) {
		t.Fatalf("expected KeyNotFoundError, got %v", err)
	}
	if knf.Doc["color"] != "green" {
		t.Fatalf("full document not carried: %v", knf.Doc)
	}

	sections, err := svc.Get(ctx, user, types.SectionProfile)
	if err != nil {
		t.Fatal(err)
	}
	if sections[types.SectionProfile]["color"] != "green" {
		t.Fatalf("failed removal mutated the document: %v", sections)
	}
}

func TestRemoveFieldMissingRow(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "ghost")

	if _, _, err := svc.RemoveField(context.Background(), user, "k"); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGateBlocksWritesWithNoSideEffects(t *testing.T) {
	gdb := newTestDB(t)
	svc, gate := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "pax")
	ctx := context.Background()

	if _, err := svc.UpsertField(ctx, user, "before", "pause"); err != nil {
		t.Fatal(err)
	}
	if _, err := gate.PauseGlobal(ctx, "maintenance"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpsertField(ctx, user, "during", "pause"); apperr.CodeOf(err) != apperr.CodeGateClosed {
		t.Fatalf("expected gate_closed, got %v", err)
	}
	if _, err := svc.Write(ctx, user, types.SectionBasic, map[string]any{"a": 1}); apperr.CodeOf(err) != apperr.CodeGateClosed {
		t.Fatalf("expected gate_closed on write, got %v", err)
	}
	if _, _, err := svc.RemoveField(ctx, user, "before"); apperr.CodeOf(err) != apperr.CodeGateClosed {
		t.Fatalf("expected gate_closed on remove, got %v", err)
	}

	sections, err := svc.Get(ctx, user, types.SectionProfile)
	if err != nil {
		t.Fatal(err)
	}
	doc := sections[types.SectionProfile]
	if _, ok := doc["during"]; ok {
		t.Fatal("blocked write left a side effect")
	}
	if doc["before"] != "pause" {
		t.Fatalf("blocked remove mutated the document: %v", doc)
	}

	if _, err := gate.ResumeGlobal(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpsertField(ctx, user, "after", "resume"); err != nil {
		t.Fatalf("write after resume: %v", err)
	}
}

func TestSaveQuizBlobPreservesSiblingKeys(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	user := newTestUser(t, gdb, "quinn")
	ctx := context.Background()

	if _, err := svc.UpsertField(ctx, user, "bio", "hello"); err != nil {
		t.Fatal(err)
	}
	doc, err := svc.SaveQuizBlob(ctx, user, []map[string]any{{"question": "q1", "response": "a1"}})
	if err != nil {
		t.Fatalf("save quiz blob: %v", err)
	}
	if doc["bio"] != "hello" {
		t.Fatalf("sibling key lost: %v", doc)
	}
	if _, ok := doc["profile_quiz"]; !ok {
		t.Fatalf("quiz blob missing: %v", doc)
	}
}

func TestGetAllGroupsBySection(t *testing.T) {
	gdb := newTestDB(t)
	svc, _ := newTestProfileDataService(t, gdb)
	a := newTestUser(t, gdb, "alice")
	b := newTestUser(t, gdb, "bob")
	ctx := context.Background()

	if _, err := svc.Write(ctx, a, types.SectionBasic, map[string]any{"name": "Alice"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Write(ctx, a, types.SectionPreferences, map[string]any{"pref": "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Write(ctx, b, types.SectionBasic, map[string]any{"name": "Bob"}); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 users, got %d", len(entries))
	}
	byUID := map[string]ProfileEntry{}
	for _, entry := range entries {
		byUID[entry.UID] = entry
	}
	if len(byUID["alice"].Sections) != 2 {
		t.Fatalf("alice sections: %v", byUID["alice"].Sections)
	}
	if byUID["bob"].Sections[types.SectionBasic]["name"] != "Bob" {
		t.Fatalf("bob section data: %v", byUID["bob"].Sections)
	}
}
