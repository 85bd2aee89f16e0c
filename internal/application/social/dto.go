package social

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/social"
)

// ConnectResponse carries the Facebook dialog URL the user is sent to
type ConnectResponse struct {
	URL       string    `json:"url"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountResponse represents a linked account. The access token never
// leaves the service.
type AccountResponse struct {
	ID             uuid.UUID  `json:"id"`
	Platform       string     `json:"platform"`
	ExternalUserID string     `json:"external_user_id"`
	PageID         string     `json:"page_id"`
	PageName       string     `json:"page_name"`
	InstagramID    string     `json:"instagram_id,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToAccountResponse converts a domain account to a response
func ToAccountResponse(a *social.Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		Platform:       a.Platform.String(),
		ExternalUserID: a.ExternalUserID,
		PageID:         a.PageID,
		PageName:       a.PageName,
		InstagramID:    a.InstagramID,
		TokenExpiresAt: a.TokenExpiresAt,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// SchedulePostRequest schedules a post on one or more platforms
type SchedulePostRequest struct {
	Content     string    `json:"content" binding:"max=2200"`
	MediaURL    string    `json:"media_url" binding:"omitempty,url,max=2000"`
	Link        string    `json:"link" binding:"omitempty,url,max=2000"`
	Platforms   []string  `json:"platforms" binding:"required,min=1,max=2,dive,oneof=facebook instagram"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// RescheduleRequest moves a post to a new time
type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// PostListFilter represents post list query parameters
type PostListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=scheduled_at created_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status   string `form:"status" binding:"omitempty,oneof=scheduled publishing published partially_published failed cancelled"`
}

// PostResponse represents a scheduled post in API responses
type PostResponse struct {
	ID          uuid.UUID               `json:"id"`
	Content     string                  `json:"content"`
	MediaURL    string                  `json:"media_url,omitempty"`
	Link        string                  `json:"link,omitempty"`
	Platforms   []string                `json:"platforms"`
	ScheduledAt time.Time               `json:"scheduled_at"`
	Status      string                  `json:"status"`
	Results     []social.PlatformResult `json:"results"`
	// PendingJobs lists the platforms still registered to fire in this process
	PendingJobs []string  `json:"pending_jobs"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toPostResponse(p *social.Post, pending func(id string) bool) PostResponse {
	resp := PostResponse{
		ID:          p.ID,
		Content:     p.Content,
		MediaURL:    p.MediaURL,
		Link:        p.Link,
		Platforms:   make([]string, len(p.Platforms)),
		ScheduledAt: p.ScheduledAt,
		Status:      string(p.Status),
		Results:     p.Results,
		PendingJobs: make([]string, 0, len(p.Platforms)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if resp.Results == nil {
		resp.Results = []social.PlatformResult{}
	}
	for i, pl := range p.Platforms {
		resp.Platforms[i] = pl.String()
		if pending != nil && pending(social.JobID(p.ID, pl)) {
			resp.PendingJobs = append(resp.PendingJobs, pl.String())
		}
	}
	return resp
}
