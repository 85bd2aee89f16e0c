package social

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// AccountRepository defines the interface for linked account persistence
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Account, error)
	FindActive(ctx context.Context, userID uuid.UUID, platform Platform) (*Account, error)
	FindByUserAndPage(ctx context.Context, userID uuid.UUID, platform Platform, pageID string) (*Account, error)
	Save(ctx context.Context, account *Account) error
}

// PostFilter narrows post listings
type PostFilter struct {
	shared.Filter
	UserID *uuid.UUID
	Status *PostStatus
}

// PostRepository defines the interface for scheduled post persistence
type PostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)
	FindAll(ctx context.Context, filter PostFilter) ([]*Post, int64, error)
	FindByStatus(ctx context.Context, status PostStatus) ([]*Post, error)
	Save(ctx context.Context, post *Post) error
}
