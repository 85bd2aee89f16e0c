// Package social links Facebook pages and Instagram business accounts and
// publishes scheduled posts to them.
package social

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/social"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// stateNamespace is the token store namespace of OAuth state values
const stateNamespace = "social_oauth_state"

var (
	facebookScopes  = []string{"pages_manage_posts", "pages_read_engagement", "pages_show_list"}
	instagramScopes = append(append([]string{}, facebookScopes...), "instagram_basic", "instagram_content_publish")
)

// ScopesFor returns the permissions requested for a platform
func ScopesFor(platform social.Platform) []string {
	if platform == social.PlatformInstagram {
		return instagramScopes
	}
	return facebookScopes
}

// ServiceConfig holds social module settings
type ServiceConfig struct {
	StateTTL       time.Duration
	PublishTimeout time.Duration
}

// DefaultServiceConfig returns the social module defaults
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		StateTTL:       10 * time.Minute,
		PublishTimeout: time.Minute,
	}
}

// Service links social accounts and schedules posts on them. Every platform
// of a post is one job in the in-process scheduler under the key
// "<postID>_<platform>"; the database row is the source of truth the jobs
// are rebuilt from after a restart.
type Service struct {
	accountRepo social.AccountRepository
	postRepo    social.PostRepository
	oauth       OAuthClient
	publisher   Publisher
	jobs        JobScheduler
	states      StateStore
	metrics     *telemetry.StoreMetrics
	config      ServiceConfig
	logger      *zap.Logger
	now         func() time.Time

	// postLocks serializes the platform jobs of one post
	postLocks sync.Map
}

// NewService creates a new social service
func NewService(
	accountRepo social.AccountRepository,
	postRepo social.PostRepository,
	oauth OAuthClient,
	publisher Publisher,
	jobs JobScheduler,
	states StateStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		accountRepo: accountRepo,
		postRepo:    postRepo,
		oauth:       oauth,
		publisher:   publisher,
		jobs:        jobs,
		states:      states,
		config:      DefaultServiceConfig(),
		logger:      logger,
		now:         time.Now,
	}
}

// SetConfig replaces the module settings
func (s *Service) SetConfig(cfg ServiceConfig) {
	s.config = cfg
}

// SetMetrics enables per-platform publish counters
func (s *Service) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// ConnectURL starts the OAuth flow for a platform. The returned state is
// bound to the user and platform until the callback consumes it.
func (s *Service) ConnectURL(ctx context.Context, userID uuid.UUID, platform string) (*ConnectResponse, error) {
	p, err := social.ParsePlatform(platform)
	if err != nil {
		return nil, err
	}
	state, err := newState()
	if err != nil {
		return nil, err
	}
	if err := s.states.Put(ctx, stateNamespace, state, encodeState(userID, p), s.config.StateTTL); err != nil {
		return nil, err
	}
	return &ConnectResponse{
		URL:       s.oauth.DialogURL(state, ScopesFor(p)),
		State:     state,
		ExpiresAt: s.now().Add(s.config.StateTTL).UTC(),
	}, nil
}

// HandleCallback completes the OAuth flow: it consumes the state, exchanges
// the code for a long-lived token and links the user's first managed page
// (for Instagram, the page's business account).
func (s *Service) HandleCallback(ctx context.Context, state, code string) (*AccountResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "social", "oauth_callback")
	defer span.End()

	if state == "" || code == "" {
		return nil, shared.NewDomainError("INVALID_OAUTH_CALLBACK", "State and code are required")
	}
	raw, err := s.states.Take(ctx, stateNamespace, state)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_OAUTH_STATE", "The login link has expired, please connect again")
	}
	userID, platform, err := decodeState(raw)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String(), telemetry.SpanAttrPlatform, platform.String())

	short, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, telemetry.RecordError(span, oauthError(err))
	}
	token, err := s.oauth.LongLivedToken(ctx, short.AccessToken)
	if err != nil {
		return nil, telemetry.RecordError(span, oauthError(err))
	}
	me, err := s.oauth.Me(ctx, token.AccessToken)
	if err != nil {
		return nil, telemetry.RecordError(span, oauthError(err))
	}
	pages, err := s.oauth.Pages(ctx, token.AccessToken)
	if err != nil {
		return nil, telemetry.RecordError(span, oauthError(err))
	}
	if len(pages) == 0 {
		return nil, shared.NewDomainError("NO_PAGES", "The Facebook account does not manage any page")
	}
	page := pages[0]

	in := social.LinkInput{
		ExternalUserID: me.ID,
		PageID:         page.ID,
		PageName:       page.Name,
		AccessToken:    page.AccessToken,
		// page tokens derived from a long-lived user token inherit its expiry
		TokenExpiresAt: token.ExpiresAt,
	}
	if platform == social.PlatformInstagram {
		igID, err := s.oauth.InstagramAccount(ctx, page.ID, page.AccessToken)
		if err != nil {
			return nil, telemetry.RecordError(span, oauthError(err))
		}
		in.InstagramID = igID
	}

	account, err := s.accountRepo.FindByUserAndPage(ctx, userID, platform, page.ID)
	switch {
	case err == nil:
		if err := account.Relink(in); err != nil {
			return nil, err
		}
	case shared.IsNotFound(err):
		account, err = social.NewAccount(userID, platform, in)
		if err != nil {
			return nil, err
		}
	default:
		return nil, telemetry.RecordError(span, err)
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	s.logger.Info("Social account linked",
		zap.String("user_id", userID.String()),
		zap.String("platform", platform.String()),
		zap.String("page_id", page.ID))
	resp := ToAccountResponse(account)
	return &resp, nil
}

// ListAccounts lists the user's linked accounts
func (s *Service) ListAccounts(ctx context.Context, userID uuid.UUID) ([]AccountResponse, error) {
	accounts, err := s.accountRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = ToAccountResponse(a)
	}
	return out, nil
}

// Disconnect revokes a linked account. Posts still scheduled for it fail
// when their job fires.
func (s *Service) Disconnect(ctx context.Context, userID, accountID uuid.UUID) error {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return shared.ErrNotFound
	}
	account.Revoke()
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return err
	}
	s.logger.Info("Social account disconnected",
		zap.String("account_id", account.ID.String()),
		zap.String("platform", account.Platform.String()))
	return nil
}

// SchedulePost stores a post and registers one job per platform
func (s *Service) SchedulePost(ctx context.Context, userID uuid.UUID, req SchedulePostRequest) (*PostResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "social", "schedule_post",
		telemetry.SpanAttrUserID, userID.String())
	defer span.End()

	platforms := make([]social.Platform, 0, len(req.Platforms))
	for _, name := range req.Platforms {
		p, err := social.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}

	post, err := social.NewPost(userID, social.PostInput{
		Content:     req.Content,
		MediaURL:    req.MediaURL,
		Link:        req.Link,
		Platforms:   platforms,
		ScheduledAt: req.ScheduledAt,
	}, s.now())
	if err != nil {
		return nil, err
	}
	for _, p := range post.Platforms {
		if err := s.requireAccount(ctx, userID, p); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Save(ctx, post); err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	if err := s.register(post); err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	s.logger.Info("Social post scheduled",
		zap.String("post_id", post.ID.String()),
		zap.Time("scheduled_at", post.ScheduledAt),
		zap.Int("platforms", len(post.Platforms)))
	resp := s.toResponse(post)
	return &resp, nil
}

// CancelPost cancels a scheduled post and drops its jobs
func (s *Service) CancelPost(ctx context.Context, userID, postID uuid.UUID) (*PostResponse, error) {
	unlock := s.lockPost(postID)
	defer unlock()

	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := post.Cancel(); err != nil {
		return nil, err
	}
	if err := s.postRepo.Save(ctx, post); err != nil {
		return nil, err
	}
	n := s.jobs.CancelPrefix(social.JobPrefix(post.ID))

	s.logger.Info("Social post cancelled",
		zap.String("post_id", post.ID.String()),
		zap.Int("jobs_removed", n))
	resp := s.toResponse(post)
	return &resp, nil
}

// Reschedule moves a scheduled post to a new time, replacing its jobs
func (s *Service) Reschedule(ctx context.Context, userID, postID uuid.UUID, req RescheduleRequest) (*PostResponse, error) {
	unlock := s.lockPost(postID)
	defer unlock()

	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := post.Reschedule(req.ScheduledAt, s.now()); err != nil {
		return nil, err
	}
	if err := s.postRepo.Save(ctx, post); err != nil {
		return nil, err
	}
	s.jobs.CancelPrefix(social.JobPrefix(post.ID))
	if err := s.register(post); err != nil {
		return nil, err
	}
	resp := s.toResponse(post)
	return &resp, nil
}

// PublishNow drops the post's jobs and publishes it to every platform
// before returning
func (s *Service) PublishNow(ctx context.Context, userID, postID uuid.UUID) (*PostResponse, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != social.PostStatusScheduled {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot publish post in %s status", post.Status))
	}
	s.jobs.CancelPrefix(social.JobPrefix(post.ID))
	for _, p := range post.Platforms {
		s.publish(ctx, post.ID, p)
	}
	return s.GetPost(ctx, userID, postID)
}

// GetPost returns one of the user's posts
func (s *Service) GetPost(ctx context.Context, userID, postID uuid.UUID) (*PostResponse, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(post)
	return &resp, nil
}

// ListPosts lists the user's posts
func (s *Service) ListPosts(ctx context.Context, userID uuid.UUID, filter PostListFilter) (shared.Paginated[PostResponse], error) {
	f := social.PostFilter{Filter: shared.DefaultFilter(), UserID: &userID}
	f.OrderBy = "scheduled_at"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		status := social.PostStatus(filter.Status)
		f.Status = &status
	}
	posts, total, err := s.postRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[PostResponse]{}, err
	}
	items := make([]PostResponse, len(posts))
	for i, p := range posts {
		items[i] = s.toResponse(p)
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// RestoreJobs re-registers the jobs of posts that were scheduled or half
// published when the process stopped. Overdue posts fire immediately.
func (s *Service) RestoreJobs(ctx context.Context) (int, error) {
	restored := 0
	for _, status := range []social.PostStatus{social.PostStatusScheduled, social.PostStatusPublishing} {
		posts, err := s.postRepo.FindByStatus(ctx, status)
		if err != nil {
			return restored, err
		}
		for _, post := range posts {
			if err := s.register(post); err != nil {
				s.logger.Warn("Failed to restore social post jobs",
					zap.String("post_id", post.ID.String()),
					zap.Error(err))
				continue
			}
			restored++
		}
	}
	if restored > 0 {
		s.logger.Info("Social post jobs restored", zap.Int("posts", restored))
	}
	return restored, nil
}

// register schedules a job for every platform that has no result yet
func (s *Service) register(post *social.Post) error {
	for _, p := range post.Platforms {
		if _, done := post.ResultFor(p); done {
			continue
		}
		postID, platform := post.ID, p
		err := s.jobs.Schedule(social.JobID(postID, platform), post.ScheduledAt, func(ctx context.Context) {
			s.publish(ctx, postID, platform)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// publish is the job body: it sends the post to one platform and records the
// outcome. Cancelled, finished and already reported platforms are skipped.
func (s *Service) publish(ctx context.Context, postID uuid.UUID, platform social.Platform) {
	ctx, span := telemetry.StartServiceSpan(ctx, "social", "publish",
		telemetry.SpanAttrPostID, postID.String(),
		telemetry.SpanAttrPlatform, platform.String())
	defer span.End()

	unlock := s.lockPost(postID)
	defer unlock()

	log := s.logger.With(zap.String("post_id", postID.String()), zap.String("platform", platform.String()))

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		log.Error("Failed to load social post", zap.Error(telemetry.RecordError(span, err)))
		return
	}
	if _, done := post.ResultFor(platform); done {
		return
	}
	if err := post.BeginPublishing(); err != nil {
		log.Info("Skipping social post", zap.String("status", string(post.Status)))
		return
	}

	result := social.PlatformResult{Platform: platform}
	account, err := s.accountRepo.FindActive(ctx, post.UserID, platform)
	switch {
	case err != nil && !shared.IsNotFound(err):
		log.Error("Failed to load social account", zap.Error(telemetry.RecordError(span, err)))
		return
	case err != nil || !account.IsUsable(s.now()):
		result.Error = "no active " + platform.String() + " account is linked"
	default:
		result = s.send(ctx, post, account)
	}

	post.RecordResult(result)
	if err := s.postRepo.Save(ctx, post); err != nil {
		log.Error("Failed to store publish result", zap.Error(telemetry.RecordError(span, err)))
		return
	}
	s.metrics.RecordSocialPublish(ctx, platform.String(), result.Succeeded())
	if result.Succeeded() {
		log.Info("Social post published", zap.String("external_post_id", result.ExternalPostID))
	} else {
		log.Warn("Social post failed", zap.String("error", result.Error))
	}
}

func (s *Service) send(ctx context.Context, post *social.Post, account *social.Account) social.PlatformResult {
	result := social.PlatformResult{Platform: account.Platform}
	if s.config.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.PublishTimeout)
		defer cancel()
	}
	externalID, err := s.publisher.Publish(ctx, account.Platform, PublishRequest{
		TargetID:    account.TargetID(),
		AccessToken: account.AccessToken,
		Content:     post.Content,
		MediaURL:    post.MediaURL,
		Link:        post.Link,
	})
	if err != nil {
		result.Error = err.Error()
		if errors.Is(err, ErrTokenInvalid) {
			account.MarkExpired()
			if saveErr := s.accountRepo.Save(ctx, account); saveErr != nil {
				s.logger.Warn("Failed to mark social account expired",
					zap.String("account_id", account.ID.String()),
					zap.Error(saveErr))
			}
		}
		return result
	}
	now := s.now().UTC()
	result.ExternalPostID = externalID
	result.PublishedAt = &now
	return result
}

func (s *Service) requireAccount(ctx context.Context, userID uuid.UUID, platform social.Platform) error {
	account, err := s.accountRepo.FindActive(ctx, userID, platform)
	if err != nil {
		if shared.IsNotFound(err) {
			return shared.NewDomainError("ACCOUNT_NOT_LINKED", fmt.Sprintf("Link a %s account first", platform))
		}
		return err
	}
	if !account.IsUsable(s.now()) {
		return shared.NewDomainError("ACCOUNT_NOT_LINKED", fmt.Sprintf("The %s account must be reconnected", platform))
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID, postID uuid.UUID) (*social.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return post, nil
}

func (s *Service) toResponse(post *social.Post) PostResponse {
	return toPostResponse(post, s.jobs.Has)
}

func (s *Service) lockPost(postID uuid.UUID) func() {
	v, _ := s.postLocks.LoadOrStore(postID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func oauthError(err error) error {
	if errors.Is(err, ErrTokenInvalid) {
		return shared.NewDomainError("OAUTH_FAILED", "Facebook rejected the authorization, please connect again")
	}
	return fmt.Errorf("facebook oauth: %w", err)
}

func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func encodeState(userID uuid.UUID, platform social.Platform) string {
	return userID.String() + "|" + platform.String()
}

func decodeState(raw string) (uuid.UUID, social.Platform, error) {
	idPart, platformPart, ok := strings.Cut(raw, "|")
	if !ok {
		return uuid.Nil, "", shared.NewDomainError("INVALID_OAUTH_STATE", "Malformed OAuth state")
	}
	userID, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", shared.NewDomainError("INVALID_OAUTH_STATE", "Malformed OAuth state")
	}
	platform, err := social.ParsePlatform(platformPart)
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, platform, nil
}
