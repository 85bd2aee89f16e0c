package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/engagement"
)

// ReviewModel is the persistence model for product reviews. A user reviews a
// product at most once.
type ReviewModel struct {
	AggregateModel
	ProductID        uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user,priority:1"`
	UserID           uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user,priority:2"`
	Rating           int                     `gorm:"not null"`
	Title            string                  `gorm:"type:varchar(120)"`
	Comment          string                  `gorm:"type:text"`
	VerifiedPurchase bool                    `gorm:"not null;default:false"`
	Status           engagement.ReviewStatus `gorm:"type:varchar(20);not null;index"`
	ModerationNote   string                  `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReviewModel) TableName() string {
	return "reviews"
}

// ToDomain converts the model to a domain Review
func (m *ReviewModel) ToDomain() *engagement.Review {
	return &engagement.Review{
		BaseAggregateRoot: m.AggregateRoot(),
		ProductID:         m.ProductID,
		UserID:            m.UserID,
		Rating:            m.Rating,
		Title:             m.Title,
		Comment:           m.Comment,
		VerifiedPurchase:  m.VerifiedPurchase,
		Status:            m.Status,
		ModerationNote:    m.ModerationNote,
	}
}

// ReviewModelFromDomain creates a model from a domain Review
func ReviewModelFromDomain(r *engagement.Review) *ReviewModel {
	m := &ReviewModel{
		ProductID:        r.ProductID,
		UserID:           r.UserID,
		Rating:           r.Rating,
		Title:            r.Title,
		Comment:          r.Comment,
		VerifiedPurchase: r.VerifiedPurchase,
		Status:           r.Status,
		ModerationNote:   r.ModerationNote,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// FavoriteModel marks a product as a user's favourite
type FavoriteModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_product,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_product,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FavoriteModel) TableName() string {
	return "favorites"
}

// ToDomain converts the model to a domain Favorite
func (m *FavoriteModel) ToDomain() *engagement.Favorite {
	return &engagement.Favorite{
		ID:        m.ID,
		UserID:    m.UserID,
		ProductID: m.ProductID,
		CreatedAt: m.CreatedAt,
	}
}

// WishlistModel is the persistence model for a named wishlist
type WishlistModel struct {
	AggregateModel
	UserID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name      string              `gorm:"type:varchar(100);not null"`
	IsDefault bool                `gorm:"not null;default:false"`
	Items     []WishlistItemModel `gorm:"foreignKey:WishlistID"`
}

// TableName returns the table name for GORM
func (WishlistModel) TableName() string {
	return "wishlists"
}

// ToDomain converts the model and its items to a domain Wishlist
func (m *WishlistModel) ToDomain() *engagement.Wishlist {
	w := &engagement.Wishlist{
		BaseAggregateRoot: m.AggregateRoot(),
		UserID:            m.UserID,
		Name:              m.Name,
		IsDefault:         m.IsDefault,
		Items:             make([]engagement.WishlistItem, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		w.Items = append(w.Items, engagement.WishlistItem{
			ID:         it.ID,
			WishlistID: it.WishlistID,
			ProductID:  it.ProductID,
			OptionID:   it.OptionID,
			Note:       it.Note,
			AddedAt:    it.AddedAt,
		})
	}
	return w
}

// WishlistModelFromDomain creates a model from a domain Wishlist
func WishlistModelFromDomain(w *engagement.Wishlist) *WishlistModel {
	m := &WishlistModel{UserID: w.UserID, Name: w.Name, IsDefault: w.IsDefault}
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	for _, it := range w.Items {
		m.Items = append(m.Items, WishlistItemModel{
			ID:         it.ID,
			WishlistID: w.ID,
			ProductID:  it.ProductID,
			OptionID:   it.OptionID,
			Note:       it.Note,
			AddedAt:    it.AddedAt,
		})
	}
	return m
}

// WishlistItemModel is a product saved to a wishlist
type WishlistItemModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	WishlistID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	OptionID   *uuid.UUID `gorm:"type:uuid"`
	Note       string     `gorm:"type:varchar(500)"`
	AddedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WishlistItemModel) TableName() string {
	return "wishlist_items"
}
