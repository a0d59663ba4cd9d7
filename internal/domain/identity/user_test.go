package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("Ops.Lead@Example.com", "secret1234")

	require.NoError(t, err)
	assert.Equal(t, "ops.lead@example.com", user.Email)
	assert.Equal(t, UserStatusActive, user.Status)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "secret1234", user.PasswordHash)
	assert.True(t, user.VerifyPassword("secret1234"))
	assert.False(t, user.VerifyPassword("wrong"))
}

func TestNewUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret1234"},
		{"malformed email", "not-an-email", "secret1234"},
		{"empty password", "a@b.com", ""},
		{"short password", "a@b.com", "ab1"},
		{"letters only password", "a@b.com", "abcdefghij"},
		{"digits only password", "a@b.com", "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestUser_ChangePassword(t *testing.T) {
	user, err := NewUser("a@b.com", "secret1234")
	require.NoError(t, err)

	assert.Error(t, user.ChangePassword("wrong", "newpass456"))

	require.NoError(t, user.ChangePassword("secret1234", "newpass456"))
	assert.True(t, user.VerifyPassword("newpass456"))
	assert.False(t, user.VerifyPassword("secret1234"))
}

func TestUser_LockoutCycle(t *testing.T) {
	user, err := NewUser("a@b.com", "secret1234")
	require.NoError(t, err)

	assert.False(t, user.RecordLoginFailure(3, time.Hour))
	assert.False(t, user.RecordLoginFailure(3, time.Hour))
	assert.True(t, user.CanLogin())

	locked := user.RecordLoginFailure(3, time.Hour)
	assert.True(t, locked)
	assert.True(t, user.IsLocked())
	assert.False(t, user.CanLogin())

	require.NoError(t, user.Activate())
	assert.True(t, user.CanLogin())
	assert.Equal(t, 0, user.FailedAttempts)
}

func TestUser_LockExpires(t *testing.T) {
	user, err := NewUser("a@b.com", "secret1234")
	require.NoError(t, err)

	user.RecordLoginFailure(1, -time.Minute)
	assert.Equal(t, UserStatusLocked, user.Status)
	assert.False(t, user.IsLocked())
	assert.True(t, user.CanLogin())
}

func TestUser_Deactivate(t *testing.T) {
	user, err := NewUser("a@b.com", "secret1234")
	require.NoError(t, err)

	require.NoError(t, user.Deactivate())
	assert.False(t, user.CanLogin())
	assert.Error(t, user.Deactivate())

	require.NoError(t, user.Activate())
	assert.True(t, user.CanLogin())
}

func TestUser_RecordLoginSuccess(t *testing.T) {
	user, err := NewUser("a@b.com", "secret1234")
	require.NoError(t, err)
	user.FailedAttempts = 2

	user.RecordLoginSuccess("10.1.2.3")

	assert.NotNil(t, user.LastLoginAt)
	assert.Equal(t, "10.1.2.3", user.LastLoginIP)
	assert.Equal(t, 0, user.FailedAttempts)
}

func TestUser_AssignRole(t *testing.T) {
	user, err := NewUser("a@b.com", "secret1234")
	require.NoError(t, err)

	assert.Error(t, user.AssignRole(uuid.Nil))

	roleID := uuid.New()
	require.NoError(t, user.AssignRole(roleID))
	require.NotNil(t, user.RoleID)
	assert.Equal(t, roleID, *user.RoleID)

	user.ClearRole()
	assert.Nil(t, user.RoleID)
}

func TestUser_GetDisplayNameOrEmail(t *testing.T) {
	user, err := NewUser("a@b.com", "secret1234")
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", user.GetDisplayNameOrEmail())

	require.NoError(t, user.SetDisplayName("Alex Chen"))
	assert.Equal(t, "Alex Chen", user.GetDisplayNameOrEmail())
}
