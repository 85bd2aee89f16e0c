package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsocial "github.com/storefront/backend/internal/application/social"
	"github.com/storefront/backend/internal/domain/social"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
}

type fakeGraph struct {
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeGraph(t *testing.T) (*fakeGraph, *GraphClient) {
	t.Helper()
	fg := &fakeGraph{routes: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		fg.mu.Lock()
		fg.requests = append(fg.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Form: r.PostForm})
		h, ok := fg.routes[r.Method+" "+r.URL.Path]
		fg.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"message": "unknown path", "type": "GraphMethodException", "code": 100}})
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewGraphClient(config.SocialConfig{
		AppID:          "app-1",
		AppSecret:      "secret",
		RedirectURL:    "https://shop.example.com/api/v1/social/oauth/callback",
		GraphBaseURL:   srv.URL,
		GraphVersion:   "v19.0",
		DialogBaseURL:  "https://www.facebook.com",
		RequestTimeout: 2 * time.Second,
	}, zaptest.NewLogger(t))
	return fg, client
}

func (f *fakeGraph) on(method, path string, status int, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, status, body) }
}

func (f *fakeGraph) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGraphClient_DialogURL(t *testing.T) {
	_, client := newFakeGraph(t)
	raw := client.DialogURL("st4te", []string{"pages_manage_posts", "pages_show_list"})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.facebook.com", u.Host)
	assert.Equal(t, "/v19.0/dialog/oauth", u.Path)
	q := u.Query()
	assert.Equal(t, "app-1", q.Get("client_id"))
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "pages_manage_posts,pages_show_list", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://shop.example.com/api/v1/social/oauth/callback", q.Get("redirect_uri"))
}

func TestGraphClient_TokenExchange(t *testing.T) {
	fg, client := newFakeGraph(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }
	fg.on(http.MethodGet, "/v19.0/oauth/access_token", http.StatusOK, map[string]any{
		"access_token": "tok", "token_type": "bearer", "expires_in": 3600,
	})

	tok, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
	require.NotNil(t, tok.ExpiresAt)
	assert.Equal(t, now.Add(time.Hour), *tok.ExpiresAt)

	_, err = client.LongLivedToken(context.Background(), "tok")
	require.NoError(t, err)

	reqs := fg.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "the-code", reqs[0].Query.Get("code"))
	assert.Equal(t, "secret", reqs[0].Query.Get("client_secret"))
	assert.Equal(t, "fb_exchange_token", reqs[1].Query.Get("grant_type"))
	assert.Equal(t, "tok", reqs[1].Query.Get("fb_exchange_token"))
}

func TestGraphClient_MePagesInstagram(t *testing.T) {
	fg, client := newFakeGraph(t)
	fg.on(http.MethodGet, "/v19.0/me", http.StatusOK, map[string]any{"id": "u1", "name": "Jo"})
	fg.on(http.MethodGet, "/v19.0/me/accounts", http.StatusOK, map[string]any{"data": []map[string]any{
		{"id": "page-1", "name": "Shop", "access_token": "page-tok"},
	}})
	fg.on(http.MethodGet, "/v19.0/page-1", http.StatusOK, map[string]any{
		"instagram_business_account": map[string]any{"id": "ig-1"}, "id": "page-1",
	})
	fg.on(http.MethodGet, "/v19.0/page-2", http.StatusOK, map[string]any{"id": "page-2"})
	ctx := context.Background()

	me, err := client.Me(ctx, "user-tok")
	require.NoError(t, err)
	assert.Equal(t, appsocial.GraphUser{ID: "u1", Name: "Jo"}, me)

	pages, err := client.Pages(ctx, "user-tok")
	require.NoError(t, err)
	assert.Equal(t, []appsocial.Page{{ID: "page-1", Name: "Shop", AccessToken: "page-tok"}}, pages)

	igID, err := client.InstagramAccount(ctx, "page-1", "page-tok")
	require.NoError(t, err)
	assert.Equal(t, "ig-1", igID)

	igID, err = client.InstagramAccount(ctx, "page-2", "page-tok")
	require.NoError(t, err)
	assert.Empty(t, igID)
}

func TestGraphClient_Errors(t *testing.T) {
	fg, client := newFakeGraph(t)
	fg.on(http.MethodGet, "/v19.0/me", http.StatusBadRequest, map[string]any{"error": map[string]any{
		"message": "Error validating access token", "type": "OAuthException", "code": 190, "fbtrace_id": "abc",
	}})

	_, err := client.Me(context.Background(), "stale")
	require.Error(t, err)
	var gerr *GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 190, gerr.Code)
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode)
	assert.True(t, IsTokenError(err))

	_, err = client.Pages(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, IsTokenError(err))
}

func TestFacebookPublisher(t *testing.T) {
	fg, client := newFakeGraph(t)
	fg.on(http.MethodPost, "/v19.0/page-1/feed", http.StatusOK, map[string]any{"id": "page-1_111"})
	fg.on(http.MethodPost, "/v19.0/page-1/photos", http.StatusOK, map[string]any{"id": "photo-1", "post_id": "page-1_222"})
	pub := NewFacebookPublisher(client)
	ctx := context.Background()

	id, err := pub.Publish(ctx, appsocial.PublishRequest{TargetID: "page-1", AccessToken: "pt", Content: "Hello", Link: "https://shop.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "page-1_111", id)

	id, err = pub.Publish(ctx, appsocial.PublishRequest{TargetID: "page-1", AccessToken: "pt", Content: "Look", MediaURL: "https://cdn/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "page-1_222", id, "post id is preferred over photo id")

	reqs := fg.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Hello", reqs[0].Form.Get("message"))
	assert.Equal(t, "https://shop.example.com", reqs[0].Form.Get("link"))
	assert.Equal(t, "pt", reqs[0].Form.Get("access_token"))
	assert.Equal(t, "https://cdn/x.jpg", reqs[1].Form.Get("url"))
	assert.Equal(t, "Look", reqs[1].Form.Get("caption"))
}

func TestInstagramPublisher(t *testing.T) {
	fg, client := newFakeGraph(t)
	fg.on(http.MethodPost, "/v19.0/ig-1/media", http.StatusOK, map[string]any{"id": "container-9"})
	fg.on(http.MethodPost, "/v19.0/ig-1/media_publish", http.StatusOK, map[string]any{"id": "media-7"})
	pub := NewInstagramPublisher(client)

	_, err := pub.Publish(context.Background(), appsocial.PublishRequest{TargetID: "ig-1", Content: "no media"})
	assert.Error(t, err)

	id, err := pub.Publish(context.Background(), appsocial.PublishRequest{
		TargetID: "ig-1", AccessToken: "pt", Content: "Caption", MediaURL: "https://cdn/x.jpg", Link: "https://l",
	})
	require.NoError(t, err)
	assert.Equal(t, "media-7", id)

	reqs := fg.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "https://cdn/x.jpg", reqs[0].Form.Get("image_url"))
	assert.Equal(t, "Caption\nhttps://l", reqs[0].Form.Get("caption"))
	assert.Equal(t, "container-9", reqs[1].Form.Get("creation_id"))
}

func TestInstagramPublisher_ContainerFailure(t *testing.T) {
	fg, client := newFakeGraph(t)
	fg.on(http.MethodPost, "/v19.0/ig-1/media", http.StatusBadRequest, map[string]any{"error": map[string]any{
		"message": "Invalid image", "type": "OAuthException", "code": 9004,
	}})

	_, err := NewInstagramPublisher(client).Publish(context.Background(), appsocial.PublishRequest{TargetID: "ig-1", MediaURL: "https://cdn/bad"})
	require.Error(t, err)
	assert.Len(t, fg.recorded(), 1, "publish is not attempted without a container")
}

type stubPublisher struct {
	id  string
	got appsocial.PublishRequest
}

func (s *stubPublisher) Publish(_ context.Context, req appsocial.PublishRequest) (string, error) {
	s.got = req
	return s.id, nil
}

func TestDispatcher(t *testing.T) {
	_, client := newFakeGraph(t)
	d := NewDispatcher(client, zaptest.NewLogger(t))
	stub := &stubPublisher{id: "x-1"}
	d.Register(social.PlatformFacebook, stub)

	id, err := d.Publish(context.Background(), social.PlatformFacebook, appsocial.PublishRequest{TargetID: "page-1"})
	require.NoError(t, err)
	assert.Equal(t, "x-1", id)
	assert.Equal(t, "page-1", stub.got.TargetID)

	_, err = d.Publish(context.Background(), social.Platform("tiktok"), appsocial.PublishRequest{})
	assert.Error(t, err)
}
