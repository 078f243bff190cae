package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/auth"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestAuthService(repo *mockUserRepository) (*AuthService, *auth.JWTManager) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	svc := NewAuthService(repo, jwtManager, "", newTestLogger())
	svc.bcryptCost = bcrypt.MinCost
	return svc, jwtManager
}

func storedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{ID: "u-1", Email: email, PasswordHash: string(hash)}
}

func TestSignup_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc, jwtManager := newTestAuthService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "ada@example.com" && u.ID != "" && u.PasswordHash != "secret1"
	})).Return(nil).Once()

	user, token, err := svc.Signup(ctx, SignupInput{Email: "  Ada@Example.com ", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))

	claims, err := jwtManager.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	repo.AssertExpectations(t)
}

func TestSignup_ShortPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc, _ := newTestAuthService(repo)

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Email:    "ada@example.com",
		Password: strings.Repeat("x", MinPasswordLength-1),
	})
	var verr *validator.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields(), "password")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignup_EmailTaken(t *testing.T) {
	repo := new(mockUserRepository)
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(apperrors.AlreadyExists("user", "email", "ada@example.com"))

	_, _, err := svc.Signup(ctx, SignupInput{Email: "ada@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ada@example.com").Return(storedUser(t, "ada@example.com", "secret1"), nil)

	user, token, err := svc.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.NotEmpty(t, token.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ada@example.com").Return(storedUser(t, "ada@example.com", "secret1"), nil)

	_, _, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong!"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(mockUserRepository)
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.NotFound("user", "ghost@example.com"))

	_, _, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_StorageFailure(t *testing.T) {
	repo := new(mockUserRepository)
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ada@example.com").Return(nil, errors.New("connection reset"))

	_, _, err := svc.Login(ctx, LoginInput{Email: "ada@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestMe(t *testing.T) {
	repo := new(mockUserRepository)
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()

	_, err := svc.Me(ctx, "")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	repo.On("GetByID", ctx, "u-1").Return(&domain.User{ID: "u-1", Email: "ada@example.com"}, nil)
	user, err := svc.Me(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestIsAdmin_DefaultIdentity(t *testing.T) {
	svc, _ := newTestAuthService(new(mockUserRepository))

	assert.Equal(t, domain.DefaultAdminEmail, svc.AdminEmail())
	assert.True(t, svc.IsAdmin("Admin@Example.com"))
	assert.False(t, svc.IsAdmin("ada@example.com"))
	assert.False(t, svc.IsAdmin(""))
}
