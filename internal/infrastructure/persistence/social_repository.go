package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/social"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSocialAccountRepository implements social.AccountRepository using GORM
type GormSocialAccountRepository struct {
	db *gorm.DB
}

// NewGormSocialAccountRepository creates a new GormSocialAccountRepository
func NewGormSocialAccountRepository(db *gorm.DB) *GormSocialAccountRepository {
	return &GormSocialAccountRepository{db: db}
}

func (r *GormSocialAccountRepository) findOne(ctx context.Context, query string, args ...any) (*social.Account, error) {
	var model models.SocialAccountModel
	if err := conn(ctx, r.db).Where(query, args...).Order("updated_at DESC").First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a linked account by ID
func (r *GormSocialAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*social.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUser lists a user's linked accounts
func (r *GormSocialAccountRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*social.Account, error) {
	var rows []models.SocialAccountModel
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Order("platform, created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*social.Account, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FindActive returns the user's most recently updated active account for the
// platform
func (r *GormSocialAccountRepository) FindActive(ctx context.Context, userID uuid.UUID, platform social.Platform) (*social.Account, error) {
	return r.findOne(ctx, "user_id = ? AND platform = ? AND status = ?", userID, platform, social.AccountStatusActive)
}

// FindByUserAndPage finds the account linking the user to a page
func (r *GormSocialAccountRepository) FindByUserAndPage(ctx context.Context, userID uuid.UUID, platform social.Platform, pageID string) (*social.Account, error) {
	return r.findOne(ctx, "user_id = ? AND platform = ? AND page_id = ?", userID, platform, pageID)
}

// Save inserts or updates a linked account
func (r *GormSocialAccountRepository) Save(ctx context.Context, a *social.Account) error {
	return saveVersioned(conn(ctx, r.db), models.SocialAccountModelFromDomain(a), &a.BaseAggregateRoot)
}

var _ social.AccountRepository = (*GormSocialAccountRepository)(nil)

// GormSocialPostRepository implements social.PostRepository using GORM
type GormSocialPostRepository struct {
	db *gorm.DB
}

// NewGormSocialPostRepository creates a new GormSocialPostRepository
func NewGormSocialPostRepository(db *gorm.DB) *GormSocialPostRepository {
	return &GormSocialPostRepository{db: db}
}

// FindByID finds a post by ID
func (r *GormSocialPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*social.Post, error) {
	var model models.SocialPostModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists posts matching the filter
func (r *GormSocialPostRepository) FindAll(ctx context.Context, filter social.PostFilter) ([]*social.Post, int64, error) {
	query := conn(ctx, r.db).Model(&models.SocialPostModel{})
	if filter.Search != "" {
		query = query.Where("LOWER(content) LIKE ?", likePattern(filter.Search))
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.SocialPostModel
	if err := page(query, filter.Filter, PostSortFields, "scheduled_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toPosts(rows), total, nil
}

// FindByStatus returns every post in status, earliest schedule first. Used
// to restore jobs after a restart.
func (r *GormSocialPostRepository) FindByStatus(ctx context.Context, status social.PostStatus) ([]*social.Post, error) {
	var rows []models.SocialPostModel
	if err := conn(ctx, r.db).Where("status = ?", status).Order("scheduled_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPosts(rows), nil
}

// Save inserts or updates a post
func (r *GormSocialPostRepository) Save(ctx context.Context, p *social.Post) error {
	return saveVersioned(conn(ctx, r.db), models.SocialPostModelFromDomain(p), &p.BaseAggregateRoot)
}

func toPosts(rows []models.SocialPostModel) []*social.Post {
	out := make([]*social.Post, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ social.PostRepository = (*GormSocialPostRepository)(nil)
