package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const resetTokenNamespace = "password_reset"

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // failed attempts before the account locks
	LockDuration     time.Duration // how long a lock lasts
	ResetTokenTTL    time.Duration
	ResetURL         string // page that receives ?token=
	ShopName         string
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     30 * time.Minute,
		ResetTokenTTL:    30 * time.Minute,
		ResetURL:         "http://localhost:3000/reset-password",
		ShopName:         "Storefront",
	}
}

// AuthService handles registration, authentication and password recovery
type AuthService struct {
	userRepo       identity.UserRepository
	roleRepo       identity.RoleRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	tokens         cache.TokenStore
	mailer         mail.Sender
	eventPublisher shared.EventPublisher
	metrics        *telemetry.StoreMetrics
	config         AuthServiceConfig
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	roleRepo identity.RoleRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	tokens cache.TokenStore,
	mailer mail.Sender,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		tokens:     tokens,
		mailer:     mailer,
		config:     config,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for user events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics enables the rejected-login counter
func (s *AuthService) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// Register signs up a new active customer
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if exists, err := s.userRepo.ExistsByEmail(ctx, email); err != nil {
		return nil, telemetry.RecordError(span, err)
	} else if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered")
	}
	if exists, err := s.userRepo.ExistsByUsername(ctx, input.Username); err != nil {
		return nil, telemetry.RecordError(span, err)
	} else if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}

	user, err := identity.NewCustomer(email, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if input.FirstName != "" || input.LastName != "" {
		if err := user.UpdateProfile(input.FirstName, input.LastName, "", ""); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, user); err != nil {
		s.logger.Error("Failed to publish registration event", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	dto := ToUserDTO(user)
	return &dto, nil
}

// Login authenticates a user by username or email and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auth", "login")
	defer span.End()

	user, err := s.findByLogin(ctx, input.Login)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("Login for unknown user", zap.String("login", input.Login))
			s.metrics.RecordLoginFailure(ctx, "unknown_user")
			return nil, invalidCredentials()
		}
		return nil, telemetry.RecordError(span, err)
	}

	if !user.CanLogin() {
		s.metrics.RecordLoginFailure(ctx, "inactive")
		switch {
		case user.IsLocked():
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
		case user.Status == identity.UserStatusDeactivated:
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		default:
			return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
		}
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		s.metrics.RecordLoginFailure(ctx, "bad_password")
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to record login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after failed logins",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", user.FailedAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, invalidCredentials()
	}

	pair, err := s.issue(ctx, user, nil)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &LoginResult{TokenResult: *pair, User: ToUserDTO(user)}, nil
}

// RefreshToken exchanges a valid refresh token for a new pair carrying the
// user's current permissions
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	pair, err := s.issue(ctx, user, claims)
	if err != nil {
		return nil, err
	}
	// the used refresh token cannot be replayed
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke used refresh token", zap.Error(err))
	}
	return pair, nil
}

// Logout blacklists the access token until it expires
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return err
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

// GetCurrentUser returns the user with the permissions granted by their roles
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*CurrentUserResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.collectPermissions(ctx, user)
	if err != nil {
		return nil, err
	}
	return &CurrentUserResult{User: ToUserDTO(user), Permissions: permissions}, nil
}

// UpdateProfile updates the caller's personal details
func (s *AuthService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := user.UpdateProfile(input.FirstName, input.LastName, input.Phone, input.AvatarURL); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

// ChangePassword replaces the password and revokes every token issued so far
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	return s.savePassword(ctx, user)
}

// ForgotPassword mails a single-use reset link. Unknown addresses succeed
// silently so the endpoint cannot be used to discover accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}
	if user.Status == identity.UserStatusDeactivated {
		return nil
	}

	token, err := cache.NewToken(32)
	if err != nil {
		return err
	}
	if err := s.tokens.Put(ctx, resetTokenNamespace, token, user.ID.String(), s.config.ResetTokenTTL); err != nil {
		return err
	}

	msg, err := mail.PasswordResetMessage(user.Email, mail.PasswordResetData{
		Name:      user.FullName(),
		ResetURL:  s.resetLink(token),
		ExpiresIn: s.config.ResetTokenTTL,
		ShopName:  s.config.ShopName,
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send password reset mail", zap.String("user_id", user.ID.String()), zap.Error(err))
		return err
	}
	s.logger.Info("Password reset mail sent", zap.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword consumes a reset token and sets the new password
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := identity.ValidatePassword(input.NewPassword); err != nil {
		return err
	}
	value, err := s.tokens.Take(ctx, resetTokenNamespace, input.Token)
	if err != nil {
		if errors.Is(err, cache.ErrTokenNotFound) {
			return shared.NewDomainError("RESET_TOKEN_INVALID", "Reset link is invalid or has expired")
		}
		return err
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return shared.NewDomainError("RESET_TOKEN_INVALID", "Reset link is invalid or has expired")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if user.Status == identity.UserStatusLocked {
		_ = user.Activate()
	}
	return s.savePassword(ctx, user)
}

// savePassword revokes the user's tokens before storing the new password,
// so a failed revocation leaves the old password in place
func (s *AuthService) savePassword(ctx context.Context, user *identity.User) error {
	if err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.jwtService.GetRefreshExpiration()); err != nil {
		s.logger.Error("Failed to revoke user tokens", zap.String("user_id", user.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, user); err != nil {
		s.logger.Warn("Failed to publish password event", zap.Error(err))
	}
	s.logger.Info("User password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) findByLogin(ctx context.Context, login string) (*identity.User, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return s.userRepo.FindByEmail(ctx, strings.ToLower(login))
	}
	return s.userRepo.FindByUsername(ctx, login)
}

// issue creates a token pair. A non-nil refresh continues that token's
// refresh chain.
func (s *AuthService) issue(ctx context.Context, user *identity.User, refresh *auth.Claims) (*TokenResult, error) {
	permissions, err := s.collectPermissions(ctx, user)
	if err != nil {
		return nil, err
	}
	input := auth.GenerateTokenInput{
		UserID:      user.ID,
		Username:    user.Username,
		IsAdmin:     user.IsAdmin,
		RoleIDs:     user.RoleIDs,
		Permissions: permissions,
	}

	var pair *auth.TokenPair
	if refresh != nil {
		pair, err = s.jwtService.RefreshTokenPair(refresh, input)
	} else {
		pair, err = s.jwtService.GenerateTokenPair(input)
	}
	if err != nil {
		return nil, mapTokenError(err)
	}
	return &TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// collectPermissions unions the permissions of the user's roles. Customers
// have none.
func (s *AuthService) collectPermissions(ctx context.Context, user *identity.User) ([]string, error) {
	if !user.IsAdmin || len(user.RoleIDs) == 0 {
		return []string{}, nil
	}
	roles, err := s.roleRepo.FindByIDs(ctx, user.RoleIDs)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
	}
	permissions := make([]string, 0, len(set))
	for p := range set {
		permissions = append(permissions, p)
	}
	sort.Strings(permissions)
	return permissions, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	}
	return nil
}

func (s *AuthService) resetLink(token string) string {
	u, err := url.Parse(s.config.ResetURL)
	if err != nil {
		return s.config.ResetURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func invalidCredentials() error {
	return shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingUserID),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	default:
		return err
	}
}
