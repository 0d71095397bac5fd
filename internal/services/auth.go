package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/matchpoint-backend/internal/apperr"
	"github.com/yungbote/matchpoint-backend/internal/logger"
	"github.com/yungbote/matchpoint-backend/internal/repos"
	"github.com/yungbote/matchpoint-backend/internal/types"
	"github.com/yungbote/matchpoint-backend/internal/utils"
)

// TokenClaims is what AuthMiddleware gets back from a parsed access token.
type TokenClaims struct {
	UserID uuid.UUID
	UID    string
	Role   string
}

type AuthService interface {
	Register(ctx context.Context, uid, email, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (string, *types.User, error)
	ParseToken(tokenString string) (*TokenClaims, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type authService struct {
	userRepo repos.UserRepo
	secret   []byte
	tokenTTL time.Duration
	log      *logger.Logger
}

func NewAuthService(userRepo repos.UserRepo, baseLog *logger.Logger) AuthService {
	svcLog := baseLog.With("service", "AuthService")
	secret := utils.GetEnv("JWT_SECRET", "", nil)
	if secret == "" {
		svcLog.Warn("JWT_SECRET not set, using an insecure development default")
		secret = "dev-only-secret"
	}
	ttlHours := utils.GetEnvAsInt("JWT_TTL_HOURS", 24, svcLog)
	return &authService{
		userRepo: userRepo,
		secret:   []byte(secret),
		tokenTTL: time.Duration(ttlHours) * time.Hour,
		log:      svcLog,
	}
}

func (as *authService) Register(ctx context.Context, uid, email, password string) (*types.User, error) {
	uid = strings.TrimSpace(uid)
	email = strings.ToLower(strings.TrimSpace(email))
	if uid == "" || email == "" || password == "" {
		return nil, apperr.New(apperr.CodeValidation, "AuthService.Register", "uid, email and password are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "AuthService.Register", err)
	}

	user, err := as.userRepo.Create(ctx, nil, &types.User{
		UID:      uid,
		Email:    email,
		Password: string(hashed),
		Role:     types.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "uid", user.UID)
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return "", nil, apperr.New(apperr.CodeUnauthorized, "AuthService.Login", "invalid credentials")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperr.New(apperr.CodeUnauthorized, "AuthService.Login", "invalid credentials")
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"uid":  user.UID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(as.tokenTTL).Unix(),
		"jti":  uuid.NewString(),
	})
	signed, err := token.SignedString(as.secret)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.CodeInternal, "AuthService.Login", err)
	}
	return signed, user, nil
}

func (as *authService) ParseToken(tokenString string) (*TokenClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.CodeUnauthorized, "AuthService.ParseToken", "unexpected signing method")
		}
		return as.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.New(apperr.CodeUnauthorized, "AuthService.ParseToken", "invalid or expired token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.New(apperr.CodeUnauthorized, "AuthService.ParseToken", "malformed claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperr.New(apperr.CodeUnauthorized, "AuthService.ParseToken", "malformed subject claim")
	}
	uid, _ := claims["uid"].(string)
	role, _ := claims["role"].(string)
	return &TokenClaims{UserID: userID, UID: uid, Role: role}, nil
}

func (as *authService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return as.userRepo.GetByID(ctx, nil, userID)
}
