package service

import (
	"testing"
	"time"

	"github.com/jtaylor/mealcart-backend/internal/app/repository"
	"github.com/jtaylor/mealcart-backend/internal/db"
	"github.com/jtaylor/mealcart-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authTestSecret = "auth-service-test-secret"

func setupAuthServiceTest(t *testing.T) AuthService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	return NewAuthService(userRepo, authTestSecret, 15*time.Minute, 7*24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	authService := setupAuthServiceTest(t)

	user, tokens, err := authService.Register("a@example.com", "alice", "password123")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, tokens)

	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "password123", user.PasswordHash)

	claims, err := util.ValidateToken(tokens.AccessToken, authTestSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, _, err := authService.Register("a@example.com", "alice", "password123")
	require.NoError(t, err)

	_, _, err = authService.Register("a@example.com", "alice2", "password123")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, _, err = authService.Register("b@example.com", "alice", "password123")
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	authService := setupAuthServiceTest(t)

	registered, _, err := authService.Register("a@example.com", "alice", "password123")
	require.NoError(t, err)

	user, tokens, err := authService.Login("alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	_, _, err = authService.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = authService.Login("nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUserByID(t *testing.T) {
	authService := setupAuthServiceTest(t)

	registered, _, err := authService.Register("a@example.com", "alice", "password123")
	require.NoError(t, err)

	user, err := authService.GetUserByID(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = authService.GetUserByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
