package social

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// PostStatus is the lifecycle status of a scheduled post
type PostStatus string

const (
	PostStatusScheduled          PostStatus = "scheduled"
	PostStatusPublishing         PostStatus = "publishing"
	PostStatusPublished          PostStatus = "published"
	PostStatusPartiallyPublished PostStatus = "partially_published"
	PostStatusFailed             PostStatus = "failed"
	PostStatusCancelled          PostStatus = "cancelled"
)

// IsFinal reports whether the post can no longer be published
func (s PostStatus) IsFinal() bool {
	switch s {
	case PostStatusPublished, PostStatusPartiallyPublished, PostStatusFailed, PostStatusCancelled:
		return true
	}
	return false
}

// MaxContentLength is the caption limit shared by both platforms
const MaxContentLength = 2200

// PlatformResult is the outcome of publishing to one platform
type PlatformResult struct {
	Platform       Platform   `json:"platform"`
	ExternalPostID string     `json:"external_post_id,omitempty"`
	Error          string     `json:"error,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

// Succeeded reports whether the platform accepted the post
func (r PlatformResult) Succeeded() bool {
	return r.ExternalPostID != "" && r.Error == ""
}

// Post is content scheduled for publication on one or more platforms
type Post struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID
	Content     string
	MediaURL    string
	Link        string
	Platforms   []Platform
	ScheduledAt time.Time
	Status      PostStatus
	Results     []PlatformResult
}

// PostInput carries the editable fields of a post
type PostInput struct {
	Content     string
	MediaURL    string
	Link        string
	Platforms   []Platform
	ScheduledAt time.Time
}

// NewPost creates a scheduled post. now is the reference time scheduledAt
// must be after.
func NewPost(userID uuid.UUID, in PostInput, now time.Time) (*Post, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	p := &Post{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Status:            PostStatusScheduled,
	}
	if err := p.apply(in, now); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Post) apply(in PostInput, now time.Time) error {
	content := strings.TrimSpace(in.Content)
	mediaURL := strings.TrimSpace(in.MediaURL)
	if content == "" && mediaURL == "" {
		return shared.NewDomainError("INVALID_POST", "Content or media is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return shared.NewDomainError("INVALID_POST", fmt.Sprintf("Content cannot exceed %d characters", MaxContentLength))
	}
	platforms, err := normalizePlatforms(in.Platforms)
	if err != nil {
		return err
	}
	for _, pl := range platforms {
		if pl == PlatformInstagram && mediaURL == "" {
			return shared.NewDomainError("MEDIA_REQUIRED", "Instagram posts require a media URL")
		}
	}
	if !in.ScheduledAt.After(now) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Scheduled time must be in the future")
	}
	p.Content = content
	p.MediaURL = mediaURL
	p.Link = strings.TrimSpace(in.Link)
	p.Platforms = platforms
	p.ScheduledAt = in.ScheduledAt.UTC()
	return nil
}

func normalizePlatforms(in []Platform) ([]Platform, error) {
	if len(in) == 0 {
		return nil, shared.NewDomainError("INVALID_POST", "At least one platform is required")
	}
	seen := make(map[Platform]bool, len(in))
	out := make([]Platform, 0, len(in))
	for _, p := range in {
		if !p.IsValid() {
			return nil, shared.NewDomainError("INVALID_PLATFORM", fmt.Sprintf("Unsupported platform: %s", p))
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// Reschedule moves a scheduled post to a new time
func (p *Post) Reschedule(at, now time.Time) error {
	if p.Status != PostStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reschedule post in %s status", p.Status))
	}
	if !at.After(now) {
		return shared.NewDomainError("INVALID_SCHEDULE", "Scheduled time must be in the future")
	}
	p.ScheduledAt = at.UTC()
	p.Touch()
	return nil
}

// Cancel stops a scheduled post from being published
func (p *Post) Cancel() error {
	if p.Status != PostStatusScheduled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel post in %s status", p.Status))
	}
	p.Status = PostStatusCancelled
	p.Touch()
	return nil
}

// BeginPublishing marks the post as in flight. Only scheduled posts publish.
func (p *Post) BeginPublishing() error {
	if p.Status != PostStatusScheduled && p.Status != PostStatusPublishing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot publish post in %s status", p.Status))
	}
	p.Status = PostStatusPublishing
	p.Touch()
	return nil
}

// RecordResult stores the outcome for one platform and derives the aggregate
// status once every platform has reported
func (p *Post) RecordResult(result PlatformResult) {
	replaced := false
	for i := range p.Results {
		if p.Results[i].Platform == result.Platform {
			p.Results[i] = result
			replaced = true
			break
		}
	}
	if !replaced {
		p.Results = append(p.Results, result)
	}
	p.Status = p.deriveStatus()
	p.Touch()
}

// ResultFor returns the recorded result for a platform
func (p *Post) ResultFor(platform Platform) (PlatformResult, bool) {
	for _, r := range p.Results {
		if r.Platform == platform {
			return r, true
		}
	}
	return PlatformResult{}, false
}

func (p *Post) deriveStatus() PostStatus {
	if len(p.Results) < len(p.Platforms) {
		return PostStatusPublishing
	}
	ok := 0
	for _, r := range p.Results {
		if r.Succeeded() {
			ok++
		}
	}
	switch {
	case ok == len(p.Platforms):
		return PostStatusPublished
	case ok == 0:
		return PostStatusFailed
	default:
		return PostStatusPartiallyPublished
	}
}

// IsOwnedBy reports whether the post belongs to the user
func (p *Post) IsOwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// JobID returns the registry key for one platform of a post
func JobID(postID uuid.UUID, platform Platform) string {
	return postID.String() + "_" + string(platform)
}

// JobPrefix returns the registry key prefix shared by every job of a post
func JobPrefix(postID uuid.UUID) string {
	return postID.String() + "_"
}
