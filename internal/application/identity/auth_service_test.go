package identity

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	svc       *AuthService
	users     *MockUserRepository
	roles     *MockRoleRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	mailer    *mail.LogSender
	events    *recordingPublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users: new(MockUserRepository),
		roles: new(MockRoleRepository),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-test-secret-test-secret",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "storefront-test",
			MaxRefreshCount:        3,
		}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		mailer:    mail.NewLogSender(nil),
		events:    &recordingPublisher{},
	}
	cfg := DefaultAuthServiceConfig()
	cfg.MaxLoginAttempts = 2
	cfg.ResetURL = "https://shop.example.com/reset"
	f.svc = NewAuthService(f.users, f.roles, f.jwt, f.blacklist, cache.NewInMemoryTokenStore(), f.mailer, cfg, zap.NewNop())
	f.svc.SetEventPublisher(f.events)
	return f
}

func newCustomer(t *testing.T) *identity.User {
	t.Helper()
	u, err := identity.NewCustomer("jane@example.com", "jane", "Secret123")
	require.NoError(t, err)
	u.ClearDomainEvents()
	return u
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active customer and publishes event", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
		f.users.On("ExistsByUsername", mock.Anything, "newbie").Return(false, nil)
		f.users.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		dto, err := f.svc.Register(ctx, RegisterInput{
			Email:     " New@Example.com ",
			Username:  "newbie",
			Password:  "Secret123",
			FirstName: "New",
			LastName:  "Bie",
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", dto.Email)
		assert.Equal(t, "active", dto.Status)
		assert.Equal(t, "New Bie", dto.FullName)
		assert.False(t, dto.IsAdmin)
		assert.Contains(t, f.events.types(), identity.EventTypeUserRegistered)
		f.users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByEmail", mock.Anything, "jane@example.com").Return(true, nil)

		_, err := f.svc.Register(ctx, RegisterInput{Email: "jane@example.com", Username: "jane2", Password: "Secret123"})
		requireCode(t, err, "ALREADY_EXISTS")
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByEmail", mock.Anything, "a@example.com").Return(false, nil)
		f.users.On("ExistsByUsername", mock.Anything, "abc").Return(false, nil)

		_, err := f.svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "abc", Password: "onlyletters"})
		requireCode(t, err, "INVALID_PASSWORD")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newCustomer(t)
		f.users.On("FindByUsername", mock.Anything, "jane").Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		res, err := f.svc.Login(ctx, LoginInput{Login: "jane", Password: "Secret123", IP: "10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.Equal(t, user.ID, res.User.ID)

		claims, err := f.jwt.ValidateAccessToken(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.False(t, claims.IsAdmin)
		assert.Empty(t, claims.Permissions)
		assert.Equal(t, "10.0.0.1", user.LastLoginIP)
	})

	t.Run("by email", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newCustomer(t)
		f.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		_, err := f.svc.Login(ctx, LoginInput{Login: "Jane@Example.com", Password: "Secret123"})
		require.NoError(t, err)
	})

	t.Run("admin receives role permissions", func(t *testing.T) {
		f := newAuthFixture(t)
		user, err := identity.NewStaff("ops@example.com", "ops", "Secret123")
		require.NoError(t, err)
		role, err := identity.NewRole("ORDERS", "Orders")
		require.NoError(t, err)
		require.NoError(t, role.SetPermissions([]string{"order:read", "order:fulfill"}))
		require.NoError(t, user.SetRoles([]uuid.UUID{role.ID}))

		f.users.On("FindByUsername", mock.Anything, "ops").Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)
		f.roles.On("FindByIDs", mock.Anything, []uuid.UUID{role.ID}).Return([]*identity.Role{role}, nil)

		res, err := f.svc.Login(ctx, LoginInput{Login: "ops", Password: "Secret123"})
		require.NoError(t, err)
		claims, err := f.jwt.ValidateAccessToken(res.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
		assert.Equal(t, []string{"order:fulfill", "order:read"}, claims.Permissions)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

		_, err := f.svc.Login(ctx, LoginInput{Login: "ghost", Password: "Secret123"})
		requireCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newCustomer(t)
		f.users.On("FindByUsername", mock.Anything, "jane").Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		_, err := f.svc.Login(ctx, LoginInput{Login: "jane", Password: "wrong-pass1"})
		requireCode(t, err, "INVALID_CREDENTIALS")
		_, err = f.svc.Login(ctx, LoginInput{Login: "jane", Password: "wrong-pass1"})
		requireCode(t, err, "ACCOUNT_LOCKED")
		assert.True(t, user.IsLocked())

		_, err = f.svc.Login(ctx, LoginInput{Login: "jane", Password: "Secret123"})
		requireCode(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("deactivated account", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newCustomer(t)
		require.NoError(t, user.Deactivate())
		f.users.On("FindByUsername", mock.Anything, "jane").Return(user, nil)

		_, err := f.svc.Login(ctx, LoginInput{Login: "jane", Password: "Secret123"})
		requireCode(t, err, "ACCOUNT_DEACTIVATED")
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := newCustomer(t)
	f.users.On("FindByUsername", mock.Anything, "jane").Return(user, nil)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)

	login, err := f.svc.Login(ctx, LoginInput{Login: "jane", Password: "Secret123"})
	require.NoError(t, err)

	pair, err := f.svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)

	claims, err := f.jwt.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.RefreshCount)

	_, err = f.svc.RefreshToken(ctx, login.RefreshToken)
	requireCode(t, err, "TOKEN_REVOKED")

	_, err = f.svc.RefreshToken(ctx, login.AccessToken)
	requireCode(t, err, "TOKEN_INVALID")
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.svc.Logout(ctx, LogoutInput{UserID: uuid.New(), TokenJTI: "jti-1", TokenTTL: time.Minute}))
	revoked, err := f.blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.NoError(t, f.svc.Logout(ctx, LogoutInput{UserID: uuid.New()}))
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := newCustomer(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)

	err := f.svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: "nope12345", NewPassword: "Another123"})
	requireCode(t, err, "INVALID_PASSWORD")

	require.NoError(t, f.svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: "Secret123", NewPassword: "Another123"}))
	assert.True(t, user.VerifyPassword("Another123"))

	revoked, err := f.blacklist.IsUserRevoked(ctx, user.ID.String(), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.True(t, revoked, "tokens issued before the change are rejected")
	assert.Contains(t, f.events.types(), identity.EventTypeUserPasswordChanged)
}

type failingBlacklist struct {
	*auth.InMemoryTokenBlacklist
}

func (failingBlacklist) RevokeUser(context.Context, string, time.Duration) error {
	return errors.New("redis unavailable")
}

func TestAuthService_ChangePasswordFailsWhenTokensCannotBeRevoked(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	svc := NewAuthService(f.users, f.roles, f.jwt, failingBlacklist{f.blacklist}, cache.NewInMemoryTokenStore(),
		f.mailer, DefaultAuthServiceConfig(), zap.NewNop())
	user := newCustomer(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	err := svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: "Secret123", NewPassword: "Another123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable")
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("mail link resets password once", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newCustomer(t)
		f.users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		require.NoError(t, f.svc.ForgotPassword(ctx, "JANE@example.com"))
		sent := f.mailer.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "jane@example.com", sent[0].To)

		match := regexp.MustCompile(`https://shop\.example\.com/reset\?token=([A-Za-z0-9_-]+)`).FindStringSubmatch(sent[0].Text)
		require.Len(t, match, 2, "reset link in mail body")
		token := match[1]

		require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "Brandnew123"}))
		assert.True(t, user.VerifyPassword("Brandnew123"))

		err := f.svc.ResetPassword(ctx, ResetPasswordInput{Token: token, NewPassword: "Brandnew456"})
		requireCode(t, err, "RESET_TOKEN_INVALID")
	})

	t.Run("unknown email succeeds without mail", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, shared.ErrNotFound)

		require.NoError(t, f.svc.ForgotPassword(ctx, "nobody@example.com"))
		assert.Empty(t, f.mailer.Sent())
	})

	t.Run("weak new password is rejected before the token is used", func(t *testing.T) {
		f := newAuthFixture(t)
		err := f.svc.ResetPassword(ctx, ResetPasswordInput{Token: "whatever", NewPassword: "short"})
		requireCode(t, err, "INVALID_PASSWORD")
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := newCustomer(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)

	res, err := f.svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", res.User.Username)
	assert.Empty(t, res.Permissions)
}
