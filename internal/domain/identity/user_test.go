package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

func TestNewUser(t *testing.T) {
	t.Run("creates pending user with normalized fields", func(t *testing.T) {
		user, err := NewUser("  Jane@Example.COM ", "  JaneDoe ", "Password123")

		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, "janedoe", user.Username)
		assert.Equal(t, UserStatusPending, user.Status)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.NotNil(t, user.PasswordChangedAt)
		assert.Equal(t, 1, user.Version)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewUser("not-an-email", "janedoe", "Password123")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid email")
	})

	t.Run("rejects short username", func(t *testing.T) {
		_, err := NewUser("jane@example.com", "ab", "Password123")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 3 characters")
	})

	t.Run("rejects username with symbols", func(t *testing.T) {
		_, err := NewUser("jane@example.com", "jane@doe", "Password123")
		assert.Error(t, err)
	})

	t.Run("rejects weak passwords", func(t *testing.T) {
		for _, pw := range []string{"", "short1", "lettersonly", "12345678"} {
			_, err := NewUser("jane@example.com", "janedoe", pw)
			assert.Error(t, err, pw)
		}
	})
}

func TestNewCustomer(t *testing.T) {
	user, err := NewCustomer("jane@example.com", "janedoe", "Password123")
	require.NoError(t, err)

	assert.True(t, user.IsActive())
	assert.False(t, user.IsAdmin)

	events := user.GetDomainEvents()
	require.Len(t, events, 1)
	registered, ok := events[0].(*UserRegisteredEvent)
	require.True(t, ok)
	assert.Equal(t, user.ID, registered.AggregateID())
	assert.Equal(t, "jane@example.com", registered.Email)
}

func TestNewStaff(t *testing.T) {
	user, err := NewStaff("ops@example.com", "ops", "Password123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsActive())
}

func TestUser_Passwords(t *testing.T) {
	user, err := NewCustomer("jane@example.com", "janedoe", "Password123")
	require.NoError(t, err)
	user.ClearDomainEvents()

	assert.True(t, user.VerifyPassword("Password123"))
	assert.False(t, user.VerifyPassword("wrong"))

	t.Run("change requires current password", func(t *testing.T) {
		err := user.ChangePassword("wrong", "NewPassword1")
		assert.Error(t, err)
		assert.True(t, user.VerifyPassword("Password123"))
	})

	t.Run("change succeeds and records event", func(t *testing.T) {
		err := user.ChangePassword("Password123", "NewPassword1")
		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("NewPassword1"))

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUserPasswordChanged, events[0].EventType())
	})
}

func TestUser_LoginFailuresLockAccount(t *testing.T) {
	user, err := NewCustomer("jane@example.com", "janedoe", "Password123")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.False(t, user.RecordLoginFailure(5, 30*time.Minute))
	}
	assert.True(t, user.RecordLoginFailure(5, 30*time.Minute))
	assert.True(t, user.IsLocked())
	assert.False(t, user.CanLogin())

	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past
	assert.False(t, user.IsLocked())
	assert.True(t, user.CanLogin())

	user.RecordLoginSuccess("127.0.0.1")
	assert.Equal(t, UserStatusActive, user.Status)
	assert.Equal(t, 0, user.FailedAttempts)
	assert.Equal(t, "127.0.0.1", user.LastLoginIP)
}

func TestUser_Deactivate(t *testing.T) {
	user, err := NewCustomer("jane@example.com", "janedoe", "Password123")
	require.NoError(t, err)

	require.NoError(t, user.Deactivate())
	assert.False(t, user.CanLogin())
	assert.Error(t, user.Deactivate())
	assert.Error(t, user.Lock(time.Minute))

	require.NoError(t, user.Activate())
	assert.True(t, user.CanLogin())
}

func TestUser_SetRoles(t *testing.T) {
	user, err := NewStaff("ops@example.com", "ops", "Password123")
	require.NoError(t, err)

	r1, r2 := uuid.New(), uuid.New()
	require.NoError(t, user.SetRoles([]uuid.UUID{r1, r2, r1}))
	assert.Len(t, user.RoleIDs, 2)
	assert.True(t, user.HasRole(r2))

	assert.Error(t, user.SetRoles([]uuid.UUID{uuid.Nil}))
}

func TestUser_FullName(t *testing.T) {
	user, err := NewCustomer("jane@example.com", "janedoe", "Password123")
	require.NoError(t, err)
	assert.Equal(t, "janedoe", user.FullName())

	require.NoError(t, user.UpdateProfile("Jane", "Doe", "+1 555", ""))
	assert.Equal(t, "Jane Doe", user.FullName())
}
