package engagement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/engagement"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FavoriteService handles a user's favorite products
type FavoriteService struct {
	favoriteRepo engagement.FavoriteRepository
	productRepo  catalog.ProductRepository
	logger       *zap.Logger
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(favoriteRepo engagement.FavoriteRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo, productRepo: productRepo, logger: logger}
}

// Add marks a product as favorite. Adding it twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.ensureProduct(ctx, productID); err != nil {
		return err
	}
	err := s.favoriteRepo.Create(ctx, engagement.NewFavorite(userID, productID))
	if errors.Is(err, shared.ErrAlreadyExists) {
		return nil
	}
	return err
}

// Remove unmarks a product. Removing a product that is not a favorite is a
// no-op.
func (s *FavoriteService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.favoriteRepo.Delete(ctx, userID, productID)
	if shared.IsNotFound(err) {
		return nil
	}
	return err
}

// Toggle flips the favorite state of a product and returns the new state
func (s *FavoriteService) Toggle(ctx context.Context, userID, productID uuid.UUID) (*ToggleFavoriteResponse, error) {
	_, err := s.favoriteRepo.Find(ctx, userID, productID)
	switch {
	case err == nil:
		if err := s.favoriteRepo.Delete(ctx, userID, productID); err != nil && !shared.IsNotFound(err) {
			return nil, err
		}
		return &ToggleFavoriteResponse{ProductID: productID, Favorite: false}, nil
	case shared.IsNotFound(err):
		if err := s.Add(ctx, userID, productID); err != nil {
			return nil, err
		}
		return &ToggleFavoriteResponse{ProductID: productID, Favorite: true}, nil
	default:
		return nil, err
	}
}

// ListMine pages through the user's favorites with product details. Products
// deleted since they were favorited are listed as unavailable.
func (s *FavoriteService) ListMine(ctx context.Context, userID uuid.UUID, page, pageSize int) (shared.Paginated[FavoriteResponse], error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	favorites, total, err := s.favoriteRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return shared.Paginated[FavoriteResponse]{}, err
	}

	ids := make([]uuid.UUID, len(favorites))
	for i, f := range favorites {
		ids[i] = f.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return shared.Paginated[FavoriteResponse]{}, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]FavoriteResponse, len(favorites))
	for i, f := range favorites {
		item := FavoriteResponse{ProductID: f.ProductID, CreatedAt: f.CreatedAt}
		if p, ok := byID[f.ProductID]; ok {
			item.Name = p.Name
			item.Slug = p.Slug
			item.ImageURL = p.PrimaryImageURL()
			item.Price = p.Price.StringFixed(2)
			item.Available = p.IsSellable() && p.TotalStock() > 0
		}
		items[i] = item
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Check returns the subset of productIDs the user has favorited
func (s *FavoriteService) Check(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.favoriteRepo.FavoriteProductIDs(ctx, userID, productIDs)
}

// IsFavorite reports whether one product is a favorite of the user
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	_, err := s.favoriteRepo.Find(ctx, userID, productID)
	if err == nil {
		return true, nil
	}
	if shared.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *FavoriteService) ensureProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if shared.IsNotFound(err) {
			return shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return err
	}
	return nil
}
