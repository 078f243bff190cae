package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// TokenIssuer issues access tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID, email string) (string, time.Time, error)
}

// SignupInput holds the parameters for creating an account.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput holds the parameters for logging in.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthService implements email/password accounts.
type AuthService struct {
	users      repository.UserRepository
	tokens     TokenIssuer
	adminEmail string
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService creates an auth service. An empty adminEmail falls back to
// domain.DefaultAdminEmail.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, adminEmail string, logger *slog.Logger) *AuthService {
	if adminEmail == "" {
		adminEmail = domain.DefaultAdminEmail
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		adminEmail: adminEmail,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Signup creates an account and returns an access token for it.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, *domain.AuthToken, error) {
	input.Email = domain.NormalizeEmail(input.Email)
	if err := validator.Validate(input); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login checks credentials and returns an access token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.AuthToken, error) {
	if err := validator.Validate(input); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return user, token, nil
}

// Me returns the account of an authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// IsAdmin reports whether email is the admin identity.
func (s *AuthService) IsAdmin(email string) bool {
	return domain.IsAdminEmail(email, s.adminEmail)
}

// AdminEmail returns the configured admin identity.
func (s *AuthService) AdminEmail() string {
	return s.adminEmail
}

func (s *AuthService) issue(user *domain.User) (*domain.AuthToken, error) {
	accessToken, expiresAt, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &domain.AuthToken{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}
