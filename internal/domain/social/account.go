package social

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Platform is a supported social network
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// IsValid checks if the platform is supported
func (p Platform) IsValid() bool {
	return p == PlatformFacebook || p == PlatformInstagram
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform parses a case-insensitive platform name
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", shared.NewDomainError("INVALID_PLATFORM", fmt.Sprintf("Unsupported platform: %s", s))
	}
	return p, nil
}

// AccountStatus is the status of a linked account
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusRevoked AccountStatus = "revoked"
	AccountStatusExpired AccountStatus = "expired"
)

// Account is a user's linked Facebook page or Instagram business account
type Account struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	Platform       Platform
	ExternalUserID string
	PageID         string
	PageName       string
	// InstagramID is the Instagram business account linked to the page
	InstagramID    string
	AccessToken    string
	TokenExpiresAt *time.Time
	Status         AccountStatus
}

// LinkInput carries what the OAuth callback resolved
type LinkInput struct {
	ExternalUserID string
	PageID         string
	PageName       string
	InstagramID    string
	AccessToken    string
	TokenExpiresAt *time.Time
}

// NewAccount creates an active linked account
func NewAccount(userID uuid.UUID, platform Platform, in LinkInput) (*Account, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", fmt.Sprintf("Unsupported platform: %s", platform))
	}
	a := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Platform:          platform,
	}
	if err := a.Relink(in); err != nil {
		return nil, err
	}
	return a, nil
}

// Relink replaces the page and token after a fresh OAuth flow
func (a *Account) Relink(in LinkInput) error {
	if in.PageID == "" || in.AccessToken == "" {
		return shared.NewDomainError("INVALID_ACCOUNT", "Page and access token are required")
	}
	if a.Platform == PlatformInstagram && in.InstagramID == "" {
		return shared.NewDomainError("INSTAGRAM_NOT_LINKED", "The page has no linked Instagram business account")
	}
	a.ExternalUserID = in.ExternalUserID
	a.PageID = in.PageID
	a.PageName = in.PageName
	a.InstagramID = in.InstagramID
	a.AccessToken = in.AccessToken
	a.TokenExpiresAt = in.TokenExpiresAt
	a.Status = AccountStatusActive
	a.Touch()
	return nil
}

// Revoke marks the account as disconnected
func (a *Account) Revoke() {
	a.Status = AccountStatusRevoked
	a.AccessToken = ""
	a.Touch()
}

// MarkExpired marks the token as expired
func (a *Account) MarkExpired() {
	a.Status = AccountStatusExpired
	a.Touch()
}

// IsUsable reports whether the account can publish at the given time
func (a *Account) IsUsable(now time.Time) bool {
	if a.Status != AccountStatusActive || a.AccessToken == "" {
		return false
	}
	return a.TokenExpiresAt == nil || now.Before(*a.TokenExpiresAt)
}

// TargetID returns the Graph API node posts are published to
func (a *Account) TargetID() string {
	if a.Platform == PlatformInstagram {
		return a.InstagramID
	}
	return a.PageID
}
