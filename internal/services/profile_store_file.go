package services

import (
	"context"
	"time"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/filestore"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/metrics"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// fileProfileDataService is the legacy file-backed ProfileDataService, kept
// for deployments still on the shared JSON file. Records are keyed by uid and
// hold one flat data map, so section names land as top-level keys and field
// upserts are not constrained to the section enum. Selected with
// PROFILE_STORE_BACKEND=file.
type fileProfileDataService struct {
	store    *filestore.Store
	gate     GateService
	recorder metrics.Recorder
	log      *logger.Logger
}

func NewFileProfileDataService(store *filestore.Store, gate GateService, recorder metrics.Recorder, baseLog *logger.Logger) ProfileDataService {
	return &fileProfileDataService{
		store:    store,
		gate:     gate,
		recorder: recorder,
		log:      baseLog.With("service", "FileProfileDataService"),
	}
}

func (fs *fileProfileDataService) Setup(ctx context.Context, user *types.User) (UserSections, error) {
	if err := fs.gate.CheckWritable(ctx, nil); err != nil {
		return nil, err
	}
	record, err := fs.store.Create(user.UID)
	if err != nil {
		return nil, err
	}
	fs.recorder.RecordProfileWrite(types.SectionProfile)
	return UserSections{types.SectionProfile: SectionDoc(record.Data)}, nil
}

func (fs *fileProfileDataService) Write(ctx context.Context, user *types.User, section string, data map[string]any) (SectionDoc, error) {
	if err := fs.gate.CheckWritable(ctx, nil); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, err := fs.store.SetField(user.UID, section, data); err != nil {
		return nil, err
	}
	fs.recorder.RecordProfileWrite(section)
	return SectionDoc(data), nil
}

func (fs *fileProfileDataService) UpsertField(ctx context.Context, user *types.User, key string, value any) (SectionDoc, error) {
	if key == "" {
		return nil, apperr.New(apperr.CodeValidation, "FileProfileDataService.UpsertField", "missing field key")
	}
	if err := fs.gate.CheckWritable(ctx, nil); err != nil {
		return nil, err
	}
	record, err := fs.store.SetField(user.UID, key, value)
	if err != nil {
		return nil, err
	}
	fs.recorder.RecordProfileWrite(types.SectionProfile)
	return SectionDoc(record.Data), nil
}

func (fs *fileProfileDataService) RemoveField(ctx context.Context, user *types.User, key string) (any, SectionDoc, error) {
	if err := fs.gate.CheckWritable(ctx, nil); err != nil {
		return nil, nil, err
	}
	removed, record, err := fs.store.RemoveField(user.UID, key)
	if err != nil {
		return nil, nil, err
	}
	fs.recorder.RecordProfileWrite(types.SectionProfile)
	return removed, SectionDoc(record.Data), nil
}

func (fs *fileProfileDataService) Get(ctx context.Context, user *types.User, section string) (UserSections, error) {
	record := fs.store.Get(user.UID)
	if record == nil {
		return nil, apperr.New(apperr.CodeNotFound, "FileProfileDataService.Get",
			"no profile data found for "+user.UID)
	}
	if section == "" {
		return UserSections{types.SectionProfile: SectionDoc(record.Data)}, nil
	}
	val, ok := record.Data[section]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "FileProfileDataService.Get",
			"no data stored under "+section)
	}
	if doc, ok := val.(map[string]any); ok {
		return UserSections{section: SectionDoc(doc)}, nil
	}
	return UserSections{section: SectionDoc{section: val}}, nil
}

func (fs *fileProfileDataService) ListAll(ctx context.Context) ([]ProfileEntry, error) {
	records := fs.store.ReadAll()
	entries := make([]ProfileEntry, 0, len(records))
	for _, record := range records {
		createdAt, _ := time.Parse(time.RFC3339, record.CreatedAt)
		entries = append(entries, ProfileEntry{
			UID:       record.UID,
			Sections:  UserSections{types.SectionProfile: SectionDoc(record.Data)},
			CreatedAt: createdAt,
		})
	}
	return entries, nil
}

func (fs *fileProfileDataService) SaveQuizBlob(ctx context.Context, user *types.User, responses any) (SectionDoc, error) {
	return fs.UpsertField(ctx, user, "profile_quiz", responses)
}
