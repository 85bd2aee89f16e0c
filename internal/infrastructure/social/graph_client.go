// Package social talks to the Facebook Graph API: the OAuth login flow and
// publishing to pages and Instagram business accounts.
package social

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	appsocial "github.com/storefront/backend/internal/application/social"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// tokenErrorCode is the Graph API code for invalid or expired tokens
const tokenErrorCode = 190

// GraphError is the error object returned by the Graph API
type GraphError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	TraceID    string `json:"fbtrace_id"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// Is matches appsocial.ErrTokenInvalid for OAuth token errors
func (e *GraphError) Is(target error) bool {
	if target != appsocial.ErrTokenInvalid {
		return false
	}
	return e.Code == tokenErrorCode || (e.Type == "OAuthException" && e.StatusCode == 401)
}

type graphErrorEnvelope struct {
	Error *GraphError `json:"error"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (t tokenResponse) toToken(now time.Time) appsocial.OAuthToken {
	tok := appsocial.OAuthToken{AccessToken: t.AccessToken}
	if t.ExpiresIn > 0 {
		exp := now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
		tok.ExpiresAt = &exp
	}
	return tok
}

// GraphClient is a resty-based Graph API client
type GraphClient struct {
	http        *resty.Client
	appID       string
	appSecret   string
	redirectURL string
	dialogURL   string
	logger      *zap.Logger
	now         func() time.Time
}

// NewGraphClient creates a client from the social configuration
func NewGraphClient(cfg config.SocialConfig, logger *zap.Logger) *GraphClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	version := strings.Trim(cfg.GraphVersion, "/")
	base := strings.TrimRight(cfg.GraphBaseURL, "/")
	if version != "" {
		base += "/" + version
	}
	dialog := strings.TrimRight(cfg.DialogBaseURL, "/")
	if version != "" {
		dialog += "/" + version
	}

	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// publishing is not idempotent, only reads are retried
			if r == nil || r.Request == nil || r.Request.Method != resty.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= 500
		})

	return &GraphClient{
		http:        httpClient,
		appID:       cfg.AppID,
		appSecret:   cfg.AppSecret,
		redirectURL: cfg.RedirectURL,
		dialogURL:   dialog + "/dialog/oauth",
		logger:      logger.Named("graph"),
		now:         time.Now,
	}
}

// DialogURL builds the login dialog URL the user is redirected to
func (c *GraphClient) DialogURL(state string, scopes []string) string {
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("state", state)
	q.Set("scope", strings.Join(scopes, ","))
	q.Set("response_type", "code")
	return c.dialogURL + "?" + q.Encode()
}

// ExchangeCode trades the authorization code for a short-lived user token
func (c *GraphClient) ExchangeCode(ctx context.Context, code string) (appsocial.OAuthToken, error) {
	var out tokenResponse
	err := c.get(ctx, "/oauth/access_token", map[string]string{
		"client_id":     c.appID,
		"client_secret": c.appSecret,
		"redirect_uri":  c.redirectURL,
		"code":          code,
	}, &out)
	if err != nil {
		return appsocial.OAuthToken{}, err
	}
	return out.toToken(c.now()), nil
}

// LongLivedToken upgrades a short-lived user token
func (c *GraphClient) LongLivedToken(ctx context.Context, shortLived string) (appsocial.OAuthToken, error) {
	var out tokenResponse
	err := c.get(ctx, "/oauth/access_token", map[string]string{
		"grant_type":        "fb_exchange_token",
		"client_id":         c.appID,
		"client_secret":     c.appSecret,
		"fb_exchange_token": shortLived,
	}, &out)
	if err != nil {
		return appsocial.OAuthToken{}, err
	}
	return out.toToken(c.now()), nil
}

// Me returns the user behind the token
func (c *GraphClient) Me(ctx context.Context, accessToken string) (appsocial.GraphUser, error) {
	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/me", map[string]string{"fields": "id,name", "access_token": accessToken}, &out); err != nil {
		return appsocial.GraphUser{}, err
	}
	return appsocial.GraphUser{ID: out.ID, Name: out.Name}, nil
}

// Pages lists the pages the user manages with their page tokens
func (c *GraphClient) Pages(ctx context.Context, userToken string) ([]appsocial.Page, error) {
	var out struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	err := c.get(ctx, "/me/accounts", map[string]string{
		"fields":       "id,name,access_token",
		"access_token": userToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	pages := make([]appsocial.Page, 0, len(out.Data))
	for _, p := range out.Data {
		pages = append(pages, appsocial.Page{ID: p.ID, Name: p.Name, AccessToken: p.AccessToken})
	}
	return pages, nil
}

// InstagramAccount returns the Instagram business account linked to a page,
// or an empty string when there is none
func (c *GraphClient) InstagramAccount(ctx context.Context, pageID, pageToken string) (string, error) {
	var out struct {
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	err := c.get(ctx, "/"+url.PathEscape(pageID), map[string]string{
		"fields":       "instagram_business_account",
		"access_token": pageToken,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.InstagramBusinessAccount == nil {
		return "", nil
	}
	return out.InstagramBusinessAccount.ID, nil
}

func (c *GraphClient) get(ctx context.Context, path string, query map[string]string, result any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(result).
		SetError(&graphErrorEnvelope{}).
		Get(path)
	return c.check(path, resp, err)
}

func (c *GraphClient) post(ctx context.Context, path string, form map[string]string, result any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(result).
		SetError(&graphErrorEnvelope{}).
		Post(path)
	return c.check(path, resp, err)
}

func (c *GraphClient) check(path string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("graph request %s failed: %w", path, err)
	}
	if !resp.IsError() {
		return nil
	}
	if env, ok := resp.Error().(*graphErrorEnvelope); ok && env.Error != nil {
		env.Error.StatusCode = resp.StatusCode()
		c.logger.Warn("Graph API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.Int("code", env.Error.Code),
			zap.String("fbtrace_id", env.Error.TraceID),
		)
		return env.Error
	}
	return &GraphError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
}

// IsTokenError reports whether err was caused by an invalid token
func IsTokenError(err error) bool {
	return errors.Is(err, appsocial.ErrTokenInvalid)
}

var _ appsocial.OAuthClient = (*GraphClient)(nil)
