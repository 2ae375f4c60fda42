package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logging"
	"video-quiz-service/internal/metrics"
	"video-quiz-service/internal/validation"
)

// RegisterInput is the signup payload. Role is deliberately absent.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	State    string `json:"state" validate:"required"`
	District string `json:"district" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
}

// AuthService implements signup, login, logout and access token rotation.
type AuthService struct {
	users     UserRepository
	tokens    *auth.TokenIssuer
	now       func() time.Time
	hashCost  int
	dummyHash []byte
}

func NewAuthService(users UserRepository, tokens *auth.TokenIssuer) *AuthService {
	return NewAuthServiceWithCost(users, tokens, bcrypt.DefaultCost)
}

// NewAuthServiceWithCost lets tests use a cheaper bcrypt cost.
func NewAuthServiceWithCost(users UserRepository, tokens *auth.TokenIssuer, cost int) *AuthService {
	// Compared against on unknown emails so both failure paths cost the same.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &AuthService{
		users:     users,
		tokens:    tokens,
		now:       time.Now,
		hashCost:  cost,
		dummyHash: dummy,
	}
}

// Register creates a user with role "user" and opens its session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.Profile, auth.TokenPair, error) {
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct(in); err != nil {
		return domain.Profile{}, auth.TokenPair{}, err
	}

	taken, err := s.users.EmailOrPhoneTaken(ctx, in.Email, in.Phone)
	if err != nil {
		return domain.Profile{}, auth.TokenPair{}, fmt.Errorf("check existing user: %w", err)
	}
	if taken {
		metrics.RecordAuthEvent("signup", domain.ErrDuplicateUser)
		return domain.Profile{}, auth.TokenPair{}, domain.ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return domain.Profile{}, auth.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           newID(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		State:        in.State,
		District:     in.District,
		Pincode:      in.Pincode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		metrics.RecordAuthEvent("signup", err)
		return domain.Profile{}, auth.TokenPair{}, err
	}

	pair, err := s.openSession(ctx, user.ID)
	metrics.RecordAuthEvent("signup", err)
	if err != nil {
		return domain.Profile{}, auth.TokenPair{}, err
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("user registered")
	return user.Profile(), pair, nil
}

// Login verifies the password and replaces any previous session of the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Profile, auth.TokenPair, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		metrics.RecordAuthEvent("login", domain.ErrInvalidCredentials)
		return domain.Profile{}, auth.TokenPair{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Profile{}, auth.TokenPair{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordAuthEvent("login", domain.ErrInvalidCredentials)
		return domain.Profile{}, auth.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user.ID)
	metrics.RecordAuthEvent("login", err)
	if err != nil {
		return domain.Profile{}, auth.TokenPair{}, err
	}
	return user.Profile(), pair, nil
}

// Logout clears the stored refresh token if refreshToken is the live one.
// Verification failures are not errors; only a failed store write is returned.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	user, err := s.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("logout with unverifiable refresh token")
		return nil
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, nil); err != nil {
		metrics.RecordAuthEvent("logout", err)
		return fmt.Errorf("clear refresh token: %w", err)
	}
	metrics.RecordAuthEvent("logout", nil)
	return nil
}

// VerifyRefreshToken checks signature and expiry, then that the token is still the
// one stored on the user. Every failure is domain.ErrInvalidToken.
func (s *AuthService) VerifyRefreshToken(ctx context.Context, refreshToken string) (domain.User, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return domain.User{}, domain.ErrInvalidToken
	}
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidToken
		}
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return domain.User{}, domain.ErrInvalidToken
	}
	return user, nil
}

// RotateAccessToken issues a new access token for a live refresh token.
// The refresh token itself is not rotated.
func (s *AuthService) RotateAccessToken(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		metrics.RecordAuthEvent("refresh", err)
		return "", err
	}
	access, err := s.tokens.IssueAccess(user.ID)
	metrics.RecordAuthEvent("refresh", err)
	return access, err
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.User, error) {
	userID, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return domain.User{}, domain.ErrInvalidToken
	}
	user, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidToken
	}
	return user, err
}

// PromoteToAdmin grants the admin role. It is only reachable from the CLI.
func (s *AuthService) PromoteToAdmin(ctx context.Context, email string) error {
	return s.users.SetRole(ctx, normalizeEmail(email), domain.RoleAdmin)
}

func (s *AuthService) openSession(ctx context.Context, userID string) (auth.TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		return auth.TokenPair{}, err
	}
	refresh := pair.RefreshToken
	if err := s.users.SetRefreshToken(ctx, userID, &refresh); err != nil {
		return auth.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
