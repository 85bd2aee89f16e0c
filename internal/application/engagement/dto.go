package engagement

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/engagement"
)

// CreateReviewRequest represents a request to review a product
type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
	Title     string    `json:"title" binding:"max=120"`
	Comment   string    `json:"comment" binding:"max=4000"`
}

// UpdateReviewRequest represents a request to edit an own review
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"max=120"`
	Comment string `json:"comment" binding:"max=4000"`
}

// RejectReviewRequest carries the moderation note of a rejection
type RejectReviewRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// ReviewListFilter represents review list query parameters
type ReviewListFilter struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by" binding:"omitempty,oneof=created_at rating"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status    string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	Rating    int    `form:"rating" binding:"omitempty,min=1,max=5"`
}

// ReviewResponse represents a review in API responses
type ReviewResponse struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	UserID           uuid.UUID `json:"user_id"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Comment          string    `json:"comment"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	Status           string    `json:"status"`
	ModerationNote   string    `json:"moderation_note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ToReviewResponse converts a domain review to a response
func ToReviewResponse(r *engagement.Review) ReviewResponse {
	return ReviewResponse{
		ID:               r.ID,
		ProductID:        r.ProductID,
		UserID:           r.UserID,
		Rating:           r.Rating,
		Title:            r.Title,
		Comment:          r.Comment,
		VerifiedPurchase: r.VerifiedPurchase,
		Status:           string(r.Status),
		ModerationNote:   r.ModerationNote,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// RatingSummaryResponse is the rating aggregate of a product
type RatingSummaryResponse struct {
	Count        int64         `json:"count"`
	Average      float64       `json:"average"`
	Distribution map[int]int64 `json:"distribution"`
}

// ProductReviewsResponse is the public review page of a product
type ProductReviewsResponse struct {
	Summary RatingSummaryResponse `json:"summary"`
	Reviews []ReviewResponse      `json:"reviews"`
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
	Size    int                   `json:"page_size"`
}

// FavoriteResponse represents a favorite in API responses
type FavoriteResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Slug      string    `json:"slug,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Price     string    `json:"price,omitempty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleFavoriteResponse reports the state after a toggle
type ToggleFavoriteResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Favorite  bool      `json:"favorite"`
}

// FavoriteCheckRequest asks which products are favorites
type FavoriteCheckRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1,max=100"`
}

// CreateWishlistRequest creates a named wishlist
type CreateWishlistRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	IsDefault bool   `json:"is_default"`
}

// RenameWishlistRequest renames a wishlist
type RenameWishlistRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// AddWishlistItemRequest saves a product to a wishlist
type AddWishlistItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	OptionID  *uuid.UUID `json:"option_id"`
	Note      string     `json:"note" binding:"max=500"`
}

// MoveToCartRequest moves a wishlist item into the cart
type MoveToCartRequest struct {
	Quantity int `json:"quantity" binding:"omitempty,min=1,max=99"`
	// Keep leaves the item on the wishlist
	Keep bool `json:"keep"`
}

// WishlistItemResponse represents a wishlist item in API responses
type WishlistItemResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	OptionID  *uuid.UUID `json:"option_id,omitempty"`
	Note      string     `json:"note,omitempty"`
	AddedAt   time.Time  `json:"added_at"`
}

// WishlistResponse represents a wishlist in API responses
type WishlistResponse struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	IsDefault bool                   `json:"is_default"`
	Items     []WishlistItemResponse `json:"items"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ToWishlistResponse converts a domain wishlist to a response
func ToWishlistResponse(w *engagement.Wishlist) WishlistResponse {
	resp := WishlistResponse{
		ID:        w.ID,
		Name:      w.Name,
		IsDefault: w.IsDefault,
		Items:     make([]WishlistItemResponse, len(w.Items)),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	for i, it := range w.Items {
		resp.Items[i] = WishlistItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			OptionID:  it.OptionID,
			Note:      it.Note,
			AddedAt:   it.AddedAt,
		}
	}
	return resp
}
