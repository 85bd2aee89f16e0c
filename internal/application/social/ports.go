package social

import (
	"context"
	"errors"
	"time"

	"github.com/storefront/backend/internal/domain/social"
)

// ErrTokenInvalid is matched by publisher and OAuth errors caused by an
// expired or revoked access token
var ErrTokenInvalid = errors.New("social access token is invalid")

// OAuthToken is an access token returned by the Graph API
type OAuthToken struct {
	AccessToken string
	ExpiresAt   *time.Time
}

// GraphUser is the Facebook user behind a token
type GraphUser struct {
	ID   string
	Name string
}

// Page is a Facebook page managed by the user
type Page struct {
	ID          string
	Name        string
	AccessToken string
}

// OAuthClient performs the Facebook login flow
type OAuthClient interface {
	DialogURL(state string, scopes []string) string
	ExchangeCode(ctx context.Context, code string) (OAuthToken, error)
	LongLivedToken(ctx context.Context, shortLived string) (OAuthToken, error)
	Me(ctx context.Context, accessToken string) (GraphUser, error)
	Pages(ctx context.Context, userToken string) ([]Page, error)
	InstagramAccount(ctx context.Context, pageID, pageToken string) (string, error)
}

// PublishRequest is one post sent to one platform
type PublishRequest struct {
	TargetID    string
	AccessToken string
	Content     string
	MediaURL    string
	Link        string
}

// Publisher publishes a post and returns the platform's post ID
type Publisher interface {
	Publish(ctx context.Context, platform social.Platform, req PublishRequest) (string, error)
}

// JobScheduler keeps one-shot publish jobs in memory
type JobScheduler interface {
	Schedule(id string, at time.Time, fn func(ctx context.Context)) error
	Cancel(id string) bool
	CancelPrefix(prefix string) int
	Has(id string) bool
}

// StateStore keeps OAuth state values until the callback consumes them
type StateStore interface {
	Put(ctx context.Context, namespace, token, value string, ttl time.Duration) error
	Take(ctx context.Context, namespace, token string) (string, error)
}
