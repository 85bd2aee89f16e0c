package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRoleRepository implements identity.RoleRepository using GORM
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

// Create inserts a role and its permissions
func (r *GormRoleRepository) Create(ctx context.Context, role *identity.Role) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(models.RoleModelFromDomain(role)).Error; err != nil {
			return translate(err)
		}
		return r.replacePermissions(tx, role)
	})
}

// Update writes the role with optimistic locking and syncs its permissions
func (r *GormRoleRepository) Update(ctx context.Context, role *identity.Role) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveVersioned(tx, models.RoleModelFromDomain(role), &role.BaseAggregateRoot); err != nil {
			return err
		}
		return r.replacePermissions(tx, role)
	})
}

func (r *GormRoleRepository) replacePermissions(tx *gorm.DB, role *identity.Role) error {
	rows := make([]models.RolePermissionModel, 0, len(role.Permissions))
	for _, code := range role.Permissions {
		rows = append(rows, models.RolePermissionModel{RoleID: role.ID, Code: code})
	}
	return replaceChildren(tx, "role_id", role.ID, rows)
}

// Delete removes a role with its permissions and assignments
func (r *GormRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermissionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.UserRoleModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.RoleModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound)
		}
		return nil
	})
}

// FindByID finds a role by ID
func (r *GormRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Role, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode finds a role by its code
func (r *GormRoleRepository) FindByCode(ctx context.Context, code string) (*identity.Role, error) {
	return r.findOne(ctx, "code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (r *GormRoleRepository) findOne(ctx context.Context, query string, args ...any) (*identity.Role, error) {
	db := conn(ctx, r.db)
	var model models.RoleModel
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	roles, err := r.withPermissions(db, []models.RoleModel{model})
	if err != nil {
		return nil, err
	}
	return roles[0], nil
}

// FindByIDs returns the roles that exist among ids
func (r *GormRoleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Role, error) {
	if len(ids) == 0 {
		return []*identity.Role{}, nil
	}
	db := conn(ctx, r.db)
	var rows []models.RoleModel
	if err := db.Where("id IN ?", ids).Order("code").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(db, rows)
}

// FindAll returns every role ordered by code
func (r *GormRoleRepository) FindAll(ctx context.Context) ([]*identity.Role, error) {
	db := conn(ctx, r.db)
	var rows []models.RoleModel
	if err := db.Order("code").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withPermissions(db, rows)
}

func (r *GormRoleRepository) withPermissions(db *gorm.DB, rows []models.RoleModel) ([]*identity.Role, error) {
	if len(rows) == 0 {
		return []*identity.Role{}, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	var perms []models.RolePermissionModel
	if err := db.Where("role_id IN ?", ids).Order("code").Find(&perms).Error; err != nil {
		return nil, err
	}
	byRole := make(map[uuid.UUID][]string, len(rows))
	for _, p := range perms {
		byRole[p.RoleID] = append(byRole[p.RoleID], p.Code)
	}
	roles := make([]*identity.Role, len(rows))
	for i := range rows {
		roles[i] = rows[i].ToDomain(byRole[rows[i].ID])
	}
	return roles, nil
}

// ExistsByCode reports whether the role code is taken
func (r *GormRoleRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.RoleModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}

var _ identity.RoleRepository = (*GormRoleRepository)(nil)
