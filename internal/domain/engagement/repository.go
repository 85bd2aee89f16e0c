package engagement

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReviewFilter narrows review listings
type ReviewFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	UserID    *uuid.UUID
	Status    *ReviewStatus
	Rating    *int
}

// ReviewRepository defines the interface for review persistence
type ReviewRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*Review, error)
	FindAll(ctx context.Context, filter ReviewFilter) ([]*Review, int64, error)
	// RatingCounts returns approved review counts per rating
	RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int64, error)
	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FavoriteRepository defines the interface for favorite persistence
type FavoriteRepository interface {
	Find(ctx context.Context, userID, productID uuid.UUID) (*Favorite, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*Favorite, int64, error)
	Create(ctx context.Context, favorite *Favorite) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	// FavoriteProductIDs returns the subset of productIDs favorited by the user
	FavoriteProductIDs(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]uuid.UUID, error)
}

// WishlistRepository defines the interface for wishlist persistence
type WishlistRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Wishlist, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Wishlist, error)
	FindDefault(ctx context.Context, userID uuid.UUID) (*Wishlist, error)
	Save(ctx context.Context, wishlist *Wishlist) error
	Delete(ctx context.Context, id uuid.UUID) error
}
