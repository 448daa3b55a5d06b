package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, 0)

	mockRepo.On("GetByEmail", ctx, "new@example.com").Return(nil, notFound("user new@example.com")).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		cost, err := bcrypt.Cost([]byte(u.Password))
		return err == nil && cost == 12 && u.Role == models.RoleUser && u.Email == "new@example.com"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-1"
	}).Return(nil).Once()

	result, err := authService.Register(ctx, services.RegisterInput{
		Email:    "  New@Example.com ",
		Password: "password123",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "user-1", result.User.ID)

	claims, err := authService.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.False(t, claims.IsAdmin())

	mockRepo.On("GetByEmail", ctx, "taken@example.com").Return(&models.User{ID: "u-9"}, nil).Once()
	_, err = authService.Register(ctx, services.RegisterInput{Email: "taken@example.com", Password: "password123", Name: "Taken"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	mockRepo.On("GetByEmail", ctx, "race@example.com").Return(nil, notFound("user race@example.com")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("user race@example.com: %w", repositories.ErrDuplicate)).Once()
	_, err = authService.Register(ctx, services.RegisterInput{Email: "race@example.com", Password: "password123", Name: "Race"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: "admin-1", Email: "admin@example.com", Password: string(hashedPassword), Role: models.RoleAdmin}

	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(user, nil).Once()
	result, err := authService.Login(ctx, services.LoginInput{Email: "admin@example.com", Password: "password123"})
	require.NoError(t, err)

	parsedToken, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "admin-1", claims["user_id"])
	assert.Equal(t, "ADMIN", claims["role"])
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), claims["exp"], 5)

	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(user, nil).Once()
	_, err = authService.Login(ctx, services.LoginInput{Email: "admin@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, notFound("user ghost@example.com")).Once()
	_, err = authService.Login(ctx, services.LoginInput{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, 0)

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	claims, err := authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"role":    "ADMIN",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testJWTSecret))
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.True(t, claims.IsAdmin())

	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}, testJWTSecret))
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, "another_secret"))
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = authService.ValidateToken(sign(jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testJWTSecret))
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_GetUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, 0)

	mockRepo.On("GetByID", ctx, "user-1").Return(&models.User{ID: "user-1"}, nil).Once()
	user, err := authService.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	mockRepo.On("GetByID", ctx, "gone").Return(nil, notFound("user gone")).Once()
	_, err = authService.GetUser(ctx, "gone")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
