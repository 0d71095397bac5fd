// Package filestore is the legacy profile-setup store: one shared JSON file
// holding an array of per-user records, guarded by advisory file locks. It
// predates the section-based model, so data is a flat map per user and keys
// are not constrained to the section enum.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
)

const setupsFileName = "profile_setups.json"

// SetupRecord mirrors the on-disk layout: {id, uid, created_at, data}.
type SetupRecord struct {
	ID        int            `json:"id"`
	UID       string         `json:"uid"`
	CreatedAt string         `json:"created_at"`
	Data      map[string]any `json:"data,omitempty"`
}

type Store struct {
	path string
	log  *logger.Logger

	// mu serializes writers within this process; the flock covers other
	// processes sharing the file.
	mu sync.Mutex
}

func NewStore(dataDir string, baseLog *logger.Logger) *Store {
	return &Store{
		path: filepath.Join(dataDir, setupsFileName),
		log:  baseLog.With("store", "SetupFileStore"),
	}
}

func (s *Store) Path() string { return s.path }

// ReadAll returns every record in the file under a shared lock. A missing or
// corrupt file reads as an empty collection, never an error.
func (s *Store) ReadAll() []SetupRecord {
	file, err := os.Open(s.path)
	if err != nil {
		return []SetupRecord{}
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_SH); err != nil {
		s.log.Warn("Shared lock failed, reading empty", "error", err)
		return []SetupRecord{}
	}
	defer func() { _ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN) }()

	var records []SetupRecord
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		s.log.Warn("Setups file unreadable, treating as empty", "error", err)
		return []SetupRecord{}
	}
	return records
}

// mutate runs fn over the decoded records and writes the result back, all
// under one exclusive lock. Every write rewrites the whole file, so a single
// writer blocks all other readers and writers for its duration.
func (s *Store) mutate(fn func(records []SetupRecord) ([]SetupRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open setups file: %w", err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock setups file: %w", err)
	}
	defer func() { _ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN) }()

	var records []SetupRecord
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		records = []SetupRecord{}
	}

	updated, err := fn(records)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(updated, "", "  ")
	if err != nil {
		return fmt.Errorf("encode setups: %w", err)
	}
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate setups file: %w", err)
	}
	if _, err := file.WriteAt(raw, 0); err != nil {
		return fmt.Errorf("write setups file: %w", err)
	}
	return file.Sync()
}

// Exists reports whether a setup record exists for uid.
func (s *Store) Exists(uid string) bool {
	for _, rec := range s.ReadAll() {
		if rec.UID == uid {
			return true
		}
	}
	return false
}

// Get returns the record for uid, or nil if absent.
func (s *Store) Get(uid string) *SetupRecord {
	for _, rec := range s.ReadAll() {
		if rec.UID == uid {
			out := rec
			return &out
		}
	}
	return nil
}

// Create appends a new empty setup record for uid. Conflict if one exists.
func (s *Store) Create(uid string) (*SetupRecord, error) {
	var created SetupRecord
	err := s.mutate(func(records []SetupRecord) ([]SetupRecord, error) {
		for _, rec := range records {
			if rec.UID == uid {
				return nil, apperr.New(apperr.CodeConflict, "SetupFileStore.Create",
					fmt.Sprintf("profile setup for %s already created", uid))
			}
		}
		created = SetupRecord{
			ID:        len(records) + 1,
			UID:       uid,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			Data:      map[string]any{},
		}
		return append(records, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SetField sets data[key] = value for uid, creating the record first when
// absent. The read-modify-write happens entirely under the exclusive lock.
func (s *Store) SetField(uid, key string, value any) (*SetupRecord, error) {
	var result SetupRecord
	err := s.mutate(func(records []SetupRecord) ([]SetupRecord, error) {
		idx := -1
		for i, rec := range records {
			if rec.UID == uid {
				idx = i
				break
			}
		}
		if idx == -1 {
			records = append(records, SetupRecord{
				ID:        len(records) + 1,
				UID:       uid,
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
				Data:      map[string]any{},
			})
			idx = len(records) - 1
		}
		if records[idx].Data == nil {
			records[idx].Data = map[string]any{}
		}
		records[idx].Data[key] = value
		result = records[idx]
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveField deletes data[key] for uid and returns the removed value along
// with the remaining record. NotFound if the user or the key is absent; the
// key-missing case carries the full document back for caller inspection.
func (s *Store) RemoveField(uid, key string) (any, *SetupRecord, error) {
	var removed any
	var result SetupRecord
	err := s.mutate(func(records []SetupRecord) ([]SetupRecord, error) {
		idx := -1
		for i, rec := range records {
			if rec.UID == uid {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, apperr.New(apperr.CodeNotFound, "SetupFileStore.RemoveField",
				fmt.Sprintf("no profile setup found for %s", uid))
		}
		if records[idx].Data == nil {
			records[idx].Data = map[string]any{}
		}
		val, ok := records[idx].Data[key]
		if !ok {
			result = records[idx]
			return nil, &apperr.KeyNotFoundError{Key: key, Doc: records[idx].Data}
		}
		removed = val
		delete(records[idx].Data, key)
		result = records[idx]
		return records, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return removed, &result, nil
}
