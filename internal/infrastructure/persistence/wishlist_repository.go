package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/engagement"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFavoriteRepository implements engagement.FavoriteRepository using GORM
type GormFavoriteRepository struct {
	db *gorm.DB
}

// NewGormFavoriteRepository creates a new GormFavoriteRepository
func NewGormFavoriteRepository(db *gorm.DB) *GormFavoriteRepository {
	return &GormFavoriteRepository{db: db}
}

// Find returns the favorite linking user and product
func (r *GormFavoriteRepository) Find(ctx context.Context, userID, productID uuid.UUID) (*engagement.Favorite, error) {
	var model models.FavoriteModel
	if err := conn(ctx, r.db).First(&model, "user_id = ? AND product_id = ?", userID, productID).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByUser pages through a user's favorites, newest first
func (r *GormFavoriteRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]*engagement.Favorite, int64, error) {
	query := conn(ctx, r.db).Model(&models.FavoriteModel{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.FavoriteModel
	if err := page(query, filter, map[string]bool{"created_at": true}, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*engagement.Favorite, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// Create stores a favorite. A duplicate maps to shared.ErrAlreadyExists.
func (r *GormFavoriteRepository) Create(ctx context.Context, f *engagement.Favorite) error {
	return translate(conn(ctx, r.db).Create(&models.FavoriteModel{
		ID:        f.ID,
		UserID:    f.UserID,
		ProductID: f.ProductID,
		CreatedAt: f.CreatedAt,
	}).Error)
}

// Delete removes the favorite linking user and product
func (r *GormFavoriteRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	res := conn(ctx, r.db).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.FavoriteModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FavoriteProductIDs returns which of productIDs the user has favorited
func (r *GormFavoriteRepository) FavoriteProductIDs(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	if len(productIDs) == 0 {
		return ids, nil
	}
	err := conn(ctx, r.db).Model(&models.FavoriteModel{}).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Pluck("product_id", &ids).Error
	return ids, err
}

var _ engagement.FavoriteRepository = (*GormFavoriteRepository)(nil)

// GormWishlistRepository implements engagement.WishlistRepository using GORM
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a new GormWishlistRepository
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

func (r *GormWishlistRepository) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("added_at") })
}

// FindByID finds a wishlist with its items
func (r *GormWishlistRepository) FindByID(ctx context.Context, id uuid.UUID) (*engagement.Wishlist, error) {
	var model models.WishlistModel
	if err := r.withItems(conn(ctx, r.db)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByUser returns all of a user's wishlists, the default one first
func (r *GormWishlistRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*engagement.Wishlist, error) {
	var rows []models.WishlistModel
	if err := r.withItems(conn(ctx, r.db)).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*engagement.Wishlist, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindDefault returns the user's default wishlist
func (r *GormWishlistRepository) FindDefault(ctx context.Context, userID uuid.UUID) (*engagement.Wishlist, error) {
	var model models.WishlistModel
	if err := r.withItems(conn(ctx, r.db)).
		First(&model, "user_id = ? AND is_default = ?", userID, true).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// Save writes the wishlist and replaces its items
func (r *GormWishlistRepository) Save(ctx context.Context, w *engagement.Wishlist) error {
	model := models.WishlistModelFromDomain(w)
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, &w.BaseAggregateRoot); err != nil {
			return err
		}
		return replaceChildren(tx, "wishlist_id", w.ID, model.Items)
	})
}

// Delete removes a wishlist and its items
func (r *GormWishlistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("wishlist_id = ?", id).Delete(&models.WishlistItemModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.WishlistModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

var _ engagement.WishlistRepository = (*GormWishlistRepository)(nil)
