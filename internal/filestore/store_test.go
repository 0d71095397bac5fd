package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), logger.Nop())
}

func TestReadAllMissingFile(t *testing.T) {
	s := newTestStore(t)
	if got := s.ReadAll(); len(got) != 0 {
		t.Fatalf("expected empty read on missing file, got %d records", len(got))
	}
}

func TestReadAllCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := s.ReadAll(); len(got) != 0 {
		t.Fatalf("expected empty read on corrupt file, got %d records", len(got))
	}
}

func TestCreateAndConflict(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Create("toby")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.UID != "toby" || rec.ID != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := s.Create("toby"); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("expected conflict on duplicate create, got %v", err)
	}
}

func TestSetFieldCreatesRecord(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.SetField("niko", "hobby", "climbing")
	if err != nil {
		t.Fatalf("set field: %v", err)
	}
	if rec.Data["hobby"] != "climbing" {
		t.Fatalf("field not set: %+v", rec.Data)
	}
	if !s.Exists("niko") {
		t.Fatal("record should exist after implicit create")
	}
}

func TestRemoveField(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SetField("ana", "color", "green"); err != nil {
		t.Fatal(err)
	}

	removed, rec, err := s.RemoveField("ana", "color")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed != "green" {
		t.Fatalf("removed value: got %v", removed)
	}
	if _, ok := rec.Data["color"]; ok {
		t.Fatal("key still present after removal")
	}
}

func TestRemoveFieldMissingKeyReturnsDoc(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SetField("ana", "color", "green"); err != nil {
		t.Fatal(err)
	}

	before := s.Get("ana")
	_, _, err := s.RemoveField("ana", "nope")

	var knf *apperr.KeyNotFoundError
	if !errors.As(err, &knf) {
		t.Fatalf("expected KeyNotFoundError, got %v", err)
	}
	if knf.Doc["color"] != "green" {
		t.Fatalf("full document not carried: %+v", knf.Doc)
	}

	after := s.Get("ana")
	if fmt.Sprint(before.Data) != fmt.Sprint(after.Data) {
		t.Fatalf("failed removal mutated the document: %v -> %v", before.Data, after.Data)
	}
}

func TestRemoveFieldMissingUser(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.RemoveField("ghost", "k"); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentWritersDoNotCorruptFile(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			uid := fmt.Sprintf("user-%d", n)
			for j := 0; j < 5; j++ {
				if _, err := s.SetField(uid, fmt.Sprintf("k%d", j), j); err != nil {
					t.Errorf("set field %s k%d: %v", uid, j, err)
				}
			}
		}(i)
	}
	wg.Wait()

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var records []SetupRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Fatalf("final file is not valid JSON: %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("expected 8 user records, got %d", len(records))
	}
	for _, rec := range records {
		if len(rec.Data) != 5 {
			t.Fatalf("lost writes for %s: %d keys", rec.UID, len(rec.Data))
		}
	}
}
