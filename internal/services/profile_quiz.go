package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/pii"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/types"
)

// QuizProfile is the API view of one user's quiz responses.
type QuizProfile struct {
	UID       string         `json:"uid"`
	Responses []pii.Response `json:"responses"`
}

// ProfileQuizService stores PII-training quiz responses, one row per user.
// Public reads always pass through the PII safety filter; only the owner sees
// the unfiltered document.
type ProfileQuizService interface {
	Save(ctx context.Context, user *types.User, responses []pii.Response) (*types.ProfileQuiz, bool, error)
	Get(ctx context.Context, user *types.User) ([]pii.Response, error)
	Delete(ctx context.Context, user *types.User) error
	// GetAll is the public listing; every profile is PII-filtered.
	GetAll(ctx context.Context) ([]QuizProfile, error)
	// GetSafeProfile returns the caller's own profile through the same filter,
	// so users can preview what others see.
	GetSafeProfile(ctx context.Context, user *types.User) ([]pii.Response, error)
}

type profileQuizService struct {
	quizRepo repos.ProfileQuizRepo
	log      *logger.Logger
}

func NewProfileQuizService(quizRepo repos.ProfileQuizRepo, baseLog *logger.Logger) ProfileQuizService {
	return &profileQuizService{
		quizRepo: quizRepo,
		log:      baseLog.With("service", "ProfileQuizService"),
	}
}

// Save upserts the user's quiz document. The bool result reports whether a new
// row was created.
func (qs *profileQuizService) Save(ctx context.Context, user *types.User, responses []pii.Response) (*types.ProfileQuiz, bool, error) {
	if responses == nil {
		responses = []pii.Response{}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.CodeValidation, "ProfileQuizService.Save", err)
	}

	existing, err := qs.quizRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil && apperr.CodeOf(err) != apperr.CodeNotFound {
		return nil, false, err
	}
	if existing != nil {
		if err := qs.quizRepo.ReplaceData(ctx, nil, existing.ID, datatypes.JSON(raw)); err != nil {
			return nil, false, err
		}
		existing.ProfileData = datatypes.JSON(raw)
		return existing, false, nil
	}

	created, err := qs.quizRepo.Create(ctx, nil, &types.ProfileQuiz{
		UserID:      user.ID,
		ProfileData: datatypes.JSON(raw),
	})
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (qs *profileQuizService) Get(ctx context.Context, user *types.User) ([]pii.Response, error) {
	quiz, err := qs.quizRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return nil, err
	}
	return decodeResponses(quiz.ProfileData)
}

func (qs *profileQuizService) Delete(ctx context.Context, user *types.User) error {
	quiz, err := qs.quizRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return err
	}
	return qs.quizRepo.Delete(ctx, nil, quiz.ID)
}

func (qs *profileQuizService) GetAll(ctx context.Context) ([]QuizProfile, error) {
	quizzes, err := qs.quizRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	profiles := make([]QuizProfile, 0, len(quizzes))
	for _, quiz := range quizzes {
		responses, derr := decodeResponses(quiz.ProfileData)
		if derr != nil {
			qs.log.Warn("Skipping undecodable quiz document", "quiz_id", quiz.ID, "error", derr)
			continue
		}
		uid := quiz.UserID.String()
		if quiz.User != nil {
			uid = quiz.User.UID
		}
		profiles = append(profiles, QuizProfile{
			UID:       uid,
			Responses: pii.FilterSafe(responses),
		})
	}
	return profiles, nil
}

func (qs *profileQuizService) GetSafeProfile(ctx context.Context, user *types.User) ([]pii.Response, error) {
	responses, err := qs.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	return pii.FilterSafe(responses), nil
}

func decodeResponses(raw datatypes.JSON) ([]pii.Response, error) {
	if len(raw) == 0 {
		return []pii.Response{}, nil
	}
	var responses []pii.Response
	if err := json.Unmarshal(raw, &responses); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "ProfileQuizService.decode",
			fmt.Errorf("stored quiz document is not a response array: %w", err))
	}
	return responses, nil
}
