package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// SectionDoc is one section's opaque JSON document.
type SectionDoc map[string]any

// UserSections groups a user's documents by section name.
type UserSections map[string]SectionDoc

// ProfileEntry is one user's row in the public grouped listing.
type ProfileEntry struct {
	UID       string       `json:"uid"`
	Sections  UserSections `json:"sections"`
	CreatedAt time.Time    `json:"created_at"`
}

// ProfileDataService is the matchmakers write surface. Two implementations
// exist: the default gorm-backed one below and the legacy file-backed one in
// profile_store_file.go. Every mutation is gated; the gate check and the write
// share one atomic boundary.
type ProfileDataService interface {
	// Setup creates the initial empty profile section. Conflict if the user
	// already has any section.
	Setup(ctx context.Context, user *types.User) (UserSections, error)
	// Write creates or fully replaces one section document.
	Write(ctx context.Context, user *types.User, section string, data map[string]any) (SectionDoc, error)
	// UpsertField sets a single key in the profile section, creating the
	// section when absent. Concurrent upserts on distinct keys must both land.
	UpsertField(ctx context.Context, user *types.User, key string, value any) (SectionDoc, error)
	// RemoveField deletes a single key from the profile section and returns
	// the removed value plus the remaining document. A missing key fails with
	// apperr.KeyNotFoundError carrying the untouched document.
	RemoveField(ctx context.Context, user *types.User, key string) (any, SectionDoc, error)
	// Get returns one section document, or all of the user's sections when
	// section is empty. NotFound when nothing is stored.
	Get(ctx context.Context, user *types.User, section string) (UserSections, error)
	// ListAll is the public grouped listing across users.
	ListAll(ctx context.Context) ([]ProfileEntry, error)
	// SaveQuizBlob merges the quiz payload under the profile_quiz key of the
	// profile section, preserving sibling keys.
	SaveQuizBlob(ctx context.Context, user *types.User, responses any) (SectionDoc, error)
}

type profileDataService struct {
	db          *gorm.DB
	sectionRepo repos.ProfileSectionRepo
	auditRepo   repos.AuditRepo
	gate        GateService
	recorder    metrics.Recorder
	log         *logger.Logger
}

func NewProfileDataService(
	db *gorm.DB,
	sectionRepo repos.ProfileSectionRepo,
	auditRepo repos.AuditRepo,
	gate GateService,
	recorder metrics.Recorder,
	baseLog *logger.Logger,
) ProfileDataService {
	return &profileDataService{
		db:          db,
		sectionRepo: sectionRepo,
		auditRepo:   auditRepo,
		gate:        gate,
		recorder:    recorder,
		log:         baseLog.With("service", "ProfileDataService"),
	}
}

// swapRetries bounds the compare-and-swap loop on read-modify-write removals.
const swapRetries = 3

func (ps *profileDataService) Setup(ctx context.Context, user *types.User) (UserSections, error) {
	var created *types.ProfileSection
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ps.gate.CheckWritable(ctx, tx); err != nil {
			return err
		}
		existing, err := ps.sectionRepo.ListByUser(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return apperr.New(apperr.CodeConflict, "ProfileDataService.Setup",
				fmt.Sprintf("profile data for %s already set up", user.UID))
		}
		created, err = ps.sectionRepo.Create(ctx, tx, &types.ProfileSection{
			UserID:  user.ID,
			Section: types.SectionProfile,
			Data:    datatypes.JSONMap{},
		})
		if err != nil {
			return err
		}
		return ps.recordChange(ctx, tx, user, created, "create", nil)
	})
	if err != nil {
		return nil, err
	}
	ps.recorder.RecordProfileWrite(types.SectionProfile)
	return UserSections{created.Section: SectionDoc(created.Data)}, nil
}

func (ps *profileDataService) Write(ctx context.Context, user *types.User, section string, data map[string]any) (SectionDoc, error) {
	if !types.ValidSection(section) {
		return nil, apperr.New(apperr.CodeValidation, "ProfileDataService.Write",
			fmt.Sprintf("unknown section %q, expected one of %v", section, types.SectionNames()))
	}
	if data == nil {
		data = map[string]any{}
	}

	var result SectionDoc
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ps.gate.CheckWritable(ctx, tx); err != nil {
			return err
		}
		existing, err := ps.sectionRepo.GetByUserAndSection(ctx, tx, user.ID, section)
		if err != nil && apperr.CodeOf(err) != apperr.CodeNotFound {
			return err
		}
		if existing == nil {
			created, cerr := ps.sectionRepo.Create(ctx, tx, &types.ProfileSection{
				UserID:  user.ID,
				Section: section,
				Data:    datatypes.JSONMap(data),
			})
			if cerr != nil {
				return cerr
			}
			result = SectionDoc(created.Data)
			return ps.recordChange(ctx, tx, user, created, "create", nil)
		}
		old := existing.Data
		if err := ps.sectionRepo.ReplaceData(ctx, tx, existing.ID, datatypes.JSONMap(data)); err != nil {
			return err
		}
		existing.Data = datatypes.JSONMap(data)
		result = SectionDoc(data)
		return ps.recordChange(ctx, tx, user, existing, "update", old)
	})
	if err != nil {
		return nil, err
	}
	ps.recorder.RecordProfileWrite(section)
	return result, nil
}

func (ps *profileDataService) UpsertField(ctx context.Context, user *types.User, key string, value any) (SectionDoc, error) {
	if key == "" {
		return nil, apperr.New(apperr.CodeValidation, "ProfileDataService.UpsertField", "missing field key")
	}

	var result SectionDoc
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ps.gate.CheckWritable(ctx, tx); err != nil {
			return err
		}
		rows, err := ps.sectionRepo.SetDataField(ctx, tx, user.ID, types.SectionProfile, key, value)
		if err != nil {
			return err
		}
		if rows == 0 {
			created := &types.ProfileSection{
				UserID:  user.ID,
				Section: types.SectionProfile,
				Data:    datatypes.JSONMap{key: value},
			}
			// a bare insert losing the race would abort the whole transaction
			// on Postgres; the conflict-absorbing insert keeps it usable
			inserted, cerr := ps.sectionRepo.CreateIfAbsent(ctx, tx, created)
			if cerr != nil {
				return cerr
			}
			if inserted > 0 {
				result = SectionDoc(created.Data)
				return ps.recordChange(ctx, tx, user, created, "create", nil)
			}
			// a concurrent request created the row between the update and the
			// insert; the keyed update now has a target
			if _, rerr := ps.sectionRepo.SetDataField(ctx, tx, user.ID, types.SectionProfile, key, value); rerr != nil {
				return rerr
			}
		}
		updated, err := ps.sectionRepo.GetByUserAndSection(ctx, tx, user.ID, types.SectionProfile)
		if err != nil {
			return err
		}
		result = SectionDoc(updated.Data)
		return ps.recordChange(ctx, tx, user, updated, "update", nil)
	})
	if err != nil {
		return nil, err
	}
	ps.recorder.RecordProfileWrite(types.SectionProfile)
	return result, nil
}

func (ps *profileDataService) RemoveField(ctx context.Context, user *types.User, key string) (any, SectionDoc, error) {
	var removed any
	var remainder SectionDoc

	for attempt := 0; attempt < swapRetries; attempt++ {
		swapped := false
		err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ps.gate.CheckWritable(ctx, tx); err != nil {
				return err
			}
			record, err := ps.sectionRepo.GetByUserAndSection(ctx, tx, user.ID, types.SectionProfile)
			if err != nil {
				if apperr.CodeOf(err) == apperr.CodeNotFound {
					return apperr.New(apperr.CodeNotFound, "ProfileDataService.RemoveField",
						fmt.Sprintf("no profile data found for %s", user.UID))
				}
				return err
			}
			val, ok := record.Data[key]
			if !ok {
				return &apperr.KeyNotFoundError{Key: key, Doc: map[string]any(record.Data)}
			}

			next := datatypes.JSONMap{}
			for k, v := range record.Data {
				if k != key {
					next[k] = v
				}
			}
			rows, err := ps.sectionRepo.SwapData(ctx, tx, record.ID, record.UpdatedAt, next)
			if err != nil {
				return err
			}
			if rows == 0 {
				return nil // lost the race, retry against fresh state
			}
			swapped = true
			removed = val
			remainder = SectionDoc(next)
			updated := *record
			updated.Data = next
			return ps.recordChange(ctx, tx, user, &updated, "update", record.Data)
		})
		if err != nil {
			return nil, nil, err
		}
		if swapped {
			ps.recorder.RecordProfileWrite(types.SectionProfile)
			return removed, remainder, nil
		}
	}
	return nil, nil, apperr.New(apperr.CodeConflict, "ProfileDataService.RemoveField",
		"profile document changed concurrently, try again")
}

func (ps *profileDataService) Get(ctx context.Context, user *types.User, section string) (UserSections, error) {
	if section != "" {
		if !types.ValidSection(section) {
			return nil, apperr.New(apperr.CodeValidation, "ProfileDataService.Get",
				fmt.Sprintf("unknown section %q, expected one of %v", section, types.SectionNames()))
		}
		record, err := ps.sectionRepo.GetByUserAndSection(ctx, nil, user.ID, section)
		if err != nil {
			return nil, err
		}
		return UserSections{record.Section: SectionDoc(record.Data)}, nil
	}

	records, err := ps.sectionRepo.ListByUser(ctx, nil, user.ID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.New(apperr.CodeNotFound, "ProfileDataService.Get",
			fmt.Sprintf("no profile data found for %s", user.UID))
	}
	sections := UserSections{}
	for _, record := range records {
		sections[record.Section] = SectionDoc(record.Data)
	}
	return sections, nil
}

func (ps *profileDataService) ListAll(ctx context.Context) ([]ProfileEntry, error) {
	records, err := ps.sectionRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	entries := []ProfileEntry{}
	index := map[string]int{}
	for _, record := range records {
		uid := record.UserID.String()
		if record.User != nil {
			uid = record.User.UID
		}
		i, ok := index[uid]
		if !ok {
			entries = append(entries, ProfileEntry{
				UID:       uid,
				Sections:  UserSections{},
				CreatedAt: record.CreatedAt,
			})
			i = len(entries) - 1
			index[uid] = i
		}
		entries[i].Sections[record.Section] = SectionDoc(record.Data)
		if record.CreatedAt.Before(entries[i].CreatedAt) {
			entries[i].CreatedAt = record.CreatedAt
		}
	}
	return entries, nil
}

func (ps *profileDataService) SaveQuizBlob(ctx context.Context, user *types.User, responses any) (SectionDoc, error) {
	return ps.UpsertField(ctx, user, "profile_quiz", responses)
}

func (ps *profileDataService) recordChange(ctx context.Context, tx *gorm.DB, user *types.User, record *types.ProfileSection, action string, old datatypes.JSONMap) error {
	entry := &types.ChangeLog{
		EntityType: "profile_section",
		EntityID:   record.ID.String(),
		Action:     action,
	}
	if user != nil {
		id := user.ID
		entry.ChangedByUserID = &id
	}
	if old != nil {
		if raw, err := json.Marshal(old); err == nil {
			entry.OldValues = raw
		}
	}
	if record.Data != nil {
		if raw, err := json.Marshal(record.Data); err == nil {
			entry.NewValues = raw
		}
	}
	return ps.auditRepo.AppendChange(ctx, tx, entry)
}
