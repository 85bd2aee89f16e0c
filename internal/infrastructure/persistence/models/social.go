package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/social"
)

// SocialAccountModel stores a linked Facebook page or Instagram business
// account together with its page access token
type SocialAccountModel struct {
	AggregateModel
	UserID         uuid.UUID            `gorm:"type:uuid;not null;index:idx_social_account_user,priority:1"`
	Platform       social.Platform      `gorm:"type:varchar(20);not null;index:idx_social_account_user,priority:2"`
	ExternalUserID string               `gorm:"type:varchar(100);not null"`
	PageID         string               `gorm:"type:varchar(100);not null"`
	PageName       string               `gorm:"type:varchar(200)"`
	InstagramID    string               `gorm:"type:varchar(100)"`
	AccessToken    string               `gorm:"type:text;not null"`
	TokenExpiresAt *time.Time
	Status         social.AccountStatus `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (SocialAccountModel) TableName() string {
	return "social_accounts"
}

// ToDomain converts the model to a domain Account
func (m *SocialAccountModel) ToDomain() *social.Account {
	return &social.Account{
		BaseAggregateRoot: m.AggregateRoot(),
		UserID:            m.UserID,
		Platform:          m.Platform,
		ExternalUserID:    m.ExternalUserID,
		PageID:            m.PageID,
		PageName:          m.PageName,
		InstagramID:       m.InstagramID,
		AccessToken:       m.AccessToken,
		TokenExpiresAt:    m.TokenExpiresAt,
		Status:            m.Status,
	}
}

// SocialAccountModelFromDomain creates a model from a domain Account
func SocialAccountModelFromDomain(a *social.Account) *SocialAccountModel {
	m := &SocialAccountModel{
		UserID:         a.UserID,
		Platform:       a.Platform,
		ExternalUserID: a.ExternalUserID,
		PageID:         a.PageID,
		PageName:       a.PageName,
		InstagramID:    a.InstagramID,
		AccessToken:    a.AccessToken,
		TokenExpiresAt: a.TokenExpiresAt,
		Status:         a.Status,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// SocialPostModel is a scheduled post. Target platforms and per-platform
// results are stored as JSON.
type SocialPostModel struct {
	AggregateModel
	UserID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	Content     string                  `gorm:"type:text"`
	MediaURL    string                  `gorm:"type:varchar(1000)"`
	Link        string                  `gorm:"type:varchar(1000)"`
	Platforms   []social.Platform       `gorm:"type:text;serializer:json"`
	ScheduledAt time.Time               `gorm:"not null;index"`
	Status      social.PostStatus       `gorm:"type:varchar(30);not null;index"`
	Results     []social.PlatformResult `gorm:"type:text;serializer:json"`
}

// TableName returns the table name for GORM
func (SocialPostModel) TableName() string {
	return "social_posts"
}

// ToDomain converts the model to a domain Post
func (m *SocialPostModel) ToDomain() *social.Post {
	p := &social.Post{
		BaseAggregateRoot: m.AggregateRoot(),
		UserID:            m.UserID,
		Content:           m.Content,
		MediaURL:          m.MediaURL,
		Link:              m.Link,
		Platforms:         m.Platforms,
		ScheduledAt:       m.ScheduledAt.UTC(),
		Status:            m.Status,
		Results:           m.Results,
	}
	if p.Results == nil {
		p.Results = make([]social.PlatformResult, 0)
	}
	return p
}

// SocialPostModelFromDomain creates a model from a domain Post
func SocialPostModelFromDomain(p *social.Post) *SocialPostModel {
	m := &SocialPostModel{
		UserID:      p.UserID,
		Content:     p.Content,
		MediaURL:    p.MediaURL,
		Link:        p.Link,
		Platforms:   p.Platforms,
		ScheduledAt: p.ScheduledAt,
		Status:      p.Status,
		Results:     p.Results,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
