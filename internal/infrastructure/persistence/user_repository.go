package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a user together with its role assignments
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(models.UserModelFromDomain(user)).Error; err != nil {
			return translate(err)
		}
		return r.replaceRoles(tx, user)
	})
}

// Update writes the user with optimistic locking and syncs its roles
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveVersioned(tx, models.UserModelFromDomain(user), &user.BaseAggregateRoot); err != nil {
			return err
		}
		return r.replaceRoles(tx, user)
	})
}

func (r *GormUserRepository) replaceRoles(tx *gorm.DB, user *identity.User) error {
	rows := make([]models.UserRoleModel, 0, len(user.RoleIDs))
	now := time.Now()
	for _, roleID := range user.RoleIDs {
		rows = append(rows, models.UserRoleModel{UserID: user.ID, RoleID: roleID, CreatedAt: now})
	}
	return replaceChildren(tx, "user_id", user.ID, rows)
}

// Delete removes a user and its role assignments
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.UserModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound)
		}
		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUsername finds a user by username, case-insensitively
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.findOne(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

// FindByEmail finds a user by email, case-insensitively
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, args ...any) (*identity.User, error) {
	db := conn(ctx, r.db)
	var model models.UserModel
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	user := model.ToDomain()
	if err := r.loadRoles(db, []*identity.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *GormUserRepository) loadRoles(db *gorm.DB, users []*identity.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*identity.User, len(users))
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}
	var rows []models.UserRoleModel
	if err := db.Where("user_id IN ?", ids).Order("created_at").Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		if u := byID[row.UserID]; u != nil {
			u.RoleIDs = append(u.RoleIDs, row.RoleID)
		}
	}
	return nil
}

// FindAll lists users matching the filter
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	db := conn(ctx, r.db)
	query := db.Model(&models.UserModel{})
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		p := likePattern(kw)
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", p, p, p, p)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsAdmin != nil {
		query = query.Where("is_admin = ?", *filter.IsAdmin)
	}
	if filter.RoleID != nil {
		query = query.Where("id IN (?)", db.Model(&models.UserRoleModel{}).Select("user_id").Where("role_id = ?", *filter.RoleID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserModel
	sortField := ValidateSortField(filter.SortBy, UserSortFields, "created_at")
	if err := query.Order(sortField + " " + ValidateSortOrder(filter.SortOrder)).
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	if err := r.loadRoles(db, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ExistsByUsername reports whether the username is taken
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

// ExistsByEmail reports whether the email is taken
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.UserModel{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByRole counts users holding the role
func (r *GormUserRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.UserRoleModel{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
