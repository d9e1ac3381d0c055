package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *domain.User) {
	t.Helper()
	svc := NewService(memory.NewStore())
	user, err := svc.CreateAdmin(CreateAdminInput{
		Email:    "admin@example.com",
		Username: "admin",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	return svc, user
}

func TestService_CreateAdmin(t *testing.T) {
	svc, user := newTestService(t)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.True(t, user.IsActive)

	// the stored hash is never the raw password
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash)
	assert.True(t, CheckPassword("correct-horse-battery", user.PasswordHash))

	_, err := svc.CreateAdmin(CreateAdminInput{
		Email:    "Admin@example.com",
		Username: "admin2",
		Password: "another-password",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_CreateAdminValidation(t *testing.T) {
	svc := NewService(memory.NewStore())

	_, err := svc.CreateAdmin(CreateAdminInput{Email: "not-an-address", Password: "long-enough-pass"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.CreateAdmin(CreateAdminInput{Email: "ok@example.com", Password: "short"})
	assert.Error(t, err)
}

func TestService_Login(t *testing.T) {
	svc, user := newTestService(t)

	t.Run("by email", func(t *testing.T) {
		got, err := svc.Login(LoginInput{Identifier: "admin@example.com", Password: "correct-horse-battery"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("by username", func(t *testing.T) {
		got, err := svc.Login(LoginInput{Identifier: "admin", Password: "correct-horse-battery"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(LoginInput{Identifier: "admin@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(LoginInput{Identifier: "nobody@example.com", Password: "whatever"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_LoginRecordsLastLogin(t *testing.T) {
	svc, user := newTestService(t)

	_, err := svc.Login(LoginInput{Identifier: "admin@example.com", Password: "correct-horse-battery"})
	require.NoError(t, err)

	updated, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastLoginAt)
}
