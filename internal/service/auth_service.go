package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"apptracker/internal/auth"
	"apptracker/internal/cache"
	apperrors "apptracker/internal/errors"
	"apptracker/internal/model"
	"apptracker/internal/repository"
)

const (
	minPasswordLength = 8
	credentialTTL     = 5 * time.Minute
)

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, email, password string) (userID uint, token string, err error)
	Login(ctx context.Context, email, password string) (userID uint, token string, err error)
}

// credential is the cached projection of a user used for login. Users are
// immutable, so a cached entry can never go stale.
type credential struct {
	UserID       uint   `json:"user_id"`
	PasswordHash string `json:"password_hash"`
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	cache      *cache.Client
	now        func() time.Time
}

// NewAuthService creates a new authentication service. cache may be nil.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, cache *cache.Client) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		cache:      cache,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func credentialKey(email string) string {
	return "credential:" + email
}

// Register creates a user with a hashed password and returns a token for it.
func (s *authService) Register(ctx context.Context, email, password string) (uint, string, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return 0, "", apperrors.Invalid("email and password are required")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return 0, "", apperrors.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, "", apperrors.Invalid("password must be at most 72 bytes")
		}
		return 0, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    s.now(),
	}
	// The unique index decides concurrent registrations of the same email.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, "", apperrors.ErrEmailExists
		}
		return 0, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwtService.Issue(user.ID)
	if err != nil {
		return 0, "", fmt.Errorf("issue token: %w", err)
	}
	return user.ID, token, nil
}

// Login verifies credentials and returns a fresh token.
func (s *authService) Login(ctx context.Context, email, password string) (uint, string, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return 0, "", apperrors.Invalid("email and password are required")
	}

	cred, err := s.findCredential(ctx, email)
	if err != nil {
		return 0, "", err
	}
	if !auth.VerifyPassword(password, cred.PasswordHash) {
		return 0, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.Issue(cred.UserID)
	if err != nil {
		return 0, "", fmt.Errorf("issue token: %w", err)
	}
	return cred.UserID, token, nil
}

func (s *authService) findCredential(ctx context.Context, email string) (*credential, error) {
	var cached credential
	if s.cache.GetJSON(ctx, credentialKey(email), &cached) && cached.UserID != 0 {
		return &cached, nil
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	cred := &credential{UserID: user.ID, PasswordHash: user.PasswordHash}
	_ = s.cache.SetJSON(ctx, credentialKey(email), cred, credentialTTL)
	return cred, nil
}
