package engagement

import (
	"context"

	"github.com/google/uuid"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/engagement"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MaxWishlistsPerUser caps how many wishlists one user may keep
const MaxWishlistsPerUser = 20

// CartAdder puts products into a user's cart
type CartAdder interface {
	AddItem(ctx context.Context, userID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.View, error)
}

// WishlistService handles a user's wishlists
type WishlistService struct {
	wishlistRepo engagement.WishlistRepository
	productRepo  catalog.ProductRepository
	txManager    shared.TransactionManager
	cart         CartAdder
	logger       *zap.Logger
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(
	wishlistRepo engagement.WishlistRepository,
	productRepo catalog.ProductRepository,
	txManager shared.TransactionManager,
	cart CartAdder,
	logger *zap.Logger,
) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		txManager:    txManager,
		cart:         cart,
		logger:       logger,
	}
}

// ListMine returns the user's wishlists, the default one first
func (s *WishlistService) ListMine(ctx context.Context, userID uuid.UUID) ([]WishlistResponse, error) {
	lists, err := s.wishlistRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]WishlistResponse, len(lists))
	for i, w := range lists {
		out[i] = ToWishlistResponse(w)
	}
	return out, nil
}

// Get returns one of the user's wishlists
func (s *WishlistService) Get(ctx context.Context, userID, wishlistID uuid.UUID) (*WishlistResponse, error) {
	w, err := s.owned(ctx, userID, wishlistID)
	if err != nil {
		return nil, err
	}
	resp := ToWishlistResponse(w)
	return &resp, nil
}

// Create creates a wishlist. The user's first wishlist is always the default.
func (s *WishlistService) Create(ctx context.Context, userID uuid.UUID, req CreateWishlistRequest) (*WishlistResponse, error) {
	var created *engagement.Wishlist
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		existing, err := s.wishlistRepo.FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(existing) >= MaxWishlistsPerUser {
			return shared.NewDomainError("LIMIT_EXCEEDED", "You cannot keep more wishlists")
		}
		isDefault := req.IsDefault || len(existing) == 0
		w, err := engagement.NewWishlist(userID, req.Name, isDefault)
		if err != nil {
			return err
		}
		if isDefault {
			if err := s.clearDefault(ctx, existing); err != nil {
				return err
			}
		}
		if err := s.wishlistRepo.Save(ctx, w); err != nil {
			return err
		}
		created = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToWishlistResponse(created)
	return &resp, nil
}

// Rename renames one of the user's wishlists
func (s *WishlistService) Rename(ctx context.Context, userID, wishlistID uuid.UUID, req RenameWishlistRequest) (*WishlistResponse, error) {
	return s.mutate(ctx, userID, wishlistID, func(w *engagement.Wishlist) error {
		return w.Rename(req.Name)
	})
}

// SetDefault makes a wishlist the user's default
func (s *WishlistService) SetDefault(ctx context.Context, userID, wishlistID uuid.UUID) (*WishlistResponse, error) {
	var target *engagement.Wishlist
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		lists, err := s.wishlistRepo.FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		others := make([]*engagement.Wishlist, 0, len(lists))
		for _, w := range lists {
			if w.ID == wishlistID {
				target = w
				continue
			}
			others = append(others, w)
		}
		if target == nil {
			return shared.ErrNotFound
		}
		if err := s.clearDefault(ctx, others); err != nil {
			return err
		}
		target.SetDefault(true)
		return s.wishlistRepo.Save(ctx, target)
	})
	if err != nil {
		return nil, err
	}
	resp := ToWishlistResponse(target)
	return &resp, nil
}

// Delete removes a wishlist. When the default wishlist is removed the oldest
// remaining one becomes the default.
func (s *WishlistService) Delete(ctx context.Context, userID, wishlistID uuid.UUID) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		w, err := s.owned(ctx, userID, wishlistID)
		if err != nil {
			return err
		}
		if err := s.wishlistRepo.Delete(ctx, w.ID); err != nil {
			return err
		}
		if !w.IsDefault {
			return nil
		}
		rest, err := s.wishlistRepo.FindByUser(ctx, userID)
		if err != nil || len(rest) == 0 {
			return err
		}
		rest[0].SetDefault(true)
		return s.wishlistRepo.Save(ctx, rest[0])
	})
}

// AddItem saves a product to a wishlist
func (s *WishlistService) AddItem(ctx context.Context, userID, wishlistID uuid.UUID, req AddWishlistItemRequest) (*WishlistResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	if req.OptionID != nil {
		if _, opt := product.FindOption(*req.OptionID); opt == nil {
			return nil, shared.NewDomainError("OPTION_NOT_FOUND", "Option not found")
		}
	}
	return s.mutate(ctx, userID, wishlistID, func(w *engagement.Wishlist) error {
		_, err := w.AddItem(req.ProductID, req.OptionID, req.Note)
		return err
	})
}

// AddToDefault saves a product to the user's default wishlist, creating it on
// first use
func (s *WishlistService) AddToDefault(ctx context.Context, userID uuid.UUID, req AddWishlistItemRequest) (*WishlistResponse, error) {
	w, err := s.wishlistRepo.FindDefault(ctx, userID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
		created, err := s.Create(ctx, userID, CreateWishlistRequest{Name: engagement.DefaultWishlistName, IsDefault: true})
		if err != nil {
			return nil, err
		}
		return s.AddItem(ctx, userID, created.ID, req)
	}
	return s.AddItem(ctx, userID, w.ID, req)
}

// RemoveItem removes an item from a wishlist
func (s *WishlistService) RemoveItem(ctx context.Context, userID, wishlistID, itemID uuid.UUID) (*WishlistResponse, error) {
	return s.mutate(ctx, userID, wishlistID, func(w *engagement.Wishlist) error {
		_, err := w.RemoveItem(itemID)
		return err
	})
}

// MoveToCart adds a wishlist item to the cart and, unless asked to keep it,
// removes it from the wishlist
func (s *WishlistService) MoveToCart(ctx context.Context, userID, wishlistID, itemID uuid.UUID, req MoveToCartRequest) (*cartapp.View, error) {
	w, err := s.owned(ctx, userID, wishlistID)
	if err != nil {
		return nil, err
	}
	item := w.FindItem(itemID)
	if item == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Wishlist item not found")
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	view, err := s.cart.AddItem(ctx, userID, cartapp.AddItemRequest{
		ProductID: item.ProductID,
		OptionID:  item.OptionID,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}
	if req.Keep {
		return view, nil
	}
	if _, err := w.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.wishlistRepo.Save(ctx, w); err != nil {
		s.logger.Warn("Item added to cart but not removed from wishlist",
			zap.String("wishlist_id", w.ID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err))
	}
	return view, nil
}

func (s *WishlistService) clearDefault(ctx context.Context, lists []*engagement.Wishlist) error {
	for _, w := range lists {
		if !w.IsDefault {
			continue
		}
		w.SetDefault(false)
		if err := s.wishlistRepo.Save(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (s *WishlistService) mutate(ctx context.Context, userID, wishlistID uuid.UUID, apply func(*engagement.Wishlist) error) (*WishlistResponse, error) {
	w, err := s.owned(ctx, userID, wishlistID)
	if err != nil {
		return nil, err
	}
	if err := apply(w); err != nil {
		return nil, err
	}
	if err := s.wishlistRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	resp := ToWishlistResponse(w)
	return &resp, nil
}

func (s *WishlistService) owned(ctx context.Context, userID, wishlistID uuid.UUID) (*engagement.Wishlist, error) {
	w, err := s.wishlistRepo.FindByID(ctx, wishlistID)
	if err != nil {
		return nil, err
	}
	if !w.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return w, nil
}
