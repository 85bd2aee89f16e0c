package engagement

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxWishlistItems caps the size of one wishlist
const MaxWishlistItems = 200

// Favorite marks a product as a user's favorite
type Favorite struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	CreatedAt time.Time
}

// NewFavorite creates a favorite
func NewFavorite(userID, productID uuid.UUID) *Favorite {
	return &Favorite{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
}

// WishlistItem is a product saved to a wishlist
type WishlistItem struct {
	ID         uuid.UUID
	WishlistID uuid.UUID
	ProductID  uuid.UUID
	OptionID   *uuid.UUID
	Note       string
	AddedAt    time.Time
}

// Wishlist is a named list of products a user wants
type Wishlist struct {
	shared.BaseAggregateRoot
	UserID    uuid.UUID
	Name      string
	IsDefault bool
	Items     []WishlistItem
}

// DefaultWishlistName is the name of the wishlist created on first use
const DefaultWishlistName = "My Wishlist"

// NewWishlist creates an empty wishlist
func NewWishlist(userID uuid.UUID, name string, isDefault bool) (*Wishlist, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	w := &Wishlist{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		IsDefault:         isDefault,
		Items:             make([]WishlistItem, 0),
	}
	if err := w.Rename(name); err != nil {
		return nil, err
	}
	return w, nil
}

// Rename changes the wishlist name
func (w *Wishlist) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Wishlist name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Wishlist name cannot exceed 100 characters")
	}
	w.Name = name
	w.Touch()
	return nil
}

// AddItem saves a product. Adding an existing product/option updates its note.
func (w *Wishlist) AddItem(productID uuid.UUID, optionID *uuid.UUID, note string) (*WishlistItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	note = strings.TrimSpace(note)
	for i := range w.Items {
		if sameItem(w.Items[i], productID, optionID) {
			w.Items[i].Note = note
			w.Touch()
			return &w.Items[i], nil
		}
	}
	if len(w.Items) >= MaxWishlistItems {
		return nil, shared.NewDomainError("WISHLIST_FULL", "Wishlist is full")
	}
	w.Items = append(w.Items, WishlistItem{
		ID:         uuid.New(),
		WishlistID: w.ID,
		ProductID:  productID,
		OptionID:   optionID,
		Note:       note,
		AddedAt:    time.Now(),
	})
	w.Touch()
	return &w.Items[len(w.Items)-1], nil
}

// RemoveItem removes an item and returns it
func (w *Wishlist) RemoveItem(itemID uuid.UUID) (*WishlistItem, error) {
	for i := range w.Items {
		if w.Items[i].ID == itemID {
			removed := w.Items[i]
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			w.Touch()
			return &removed, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Wishlist item not found")
}

// FindItem returns the item with the given ID
func (w *Wishlist) FindItem(itemID uuid.UUID) *WishlistItem {
	for i := range w.Items {
		if w.Items[i].ID == itemID {
			return &w.Items[i]
		}
	}
	return nil
}

// SetDefault marks or unmarks the wishlist as the user's default
func (w *Wishlist) SetDefault(isDefault bool) {
	if w.IsDefault == isDefault {
		return
	}
	w.IsDefault = isDefault
	w.Touch()
}

// IsOwnedBy reports whether the wishlist belongs to the user
func (w *Wishlist) IsOwnedBy(userID uuid.UUID) bool {
	return w.UserID == userID
}

func sameItem(item WishlistItem, productID uuid.UUID, optionID *uuid.UUID) bool {
	if item.ProductID != productID {
		return false
	}
	if item.OptionID == nil || optionID == nil {
		return item.OptionID == nil && optionID == nil
	}
	return *item.OptionID == *optionID
}
