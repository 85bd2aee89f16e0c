package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with the optimistic locking version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// SetVersion overrides the version written by the next save
func (m *AggregateModel) SetVersion(v int) {
	m.Version = v
}

// AggregateRoot rebuilds the domain base with no pending events
func (m *AggregateModel) AggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
	}
}

// All returns every model in dependency order, for AutoMigrate in tests and
// local sqlite runs.
func All() []any {
	return []any{
		&UserModel{}, &RoleModel{}, &RolePermissionModel{}, &UserRoleModel{},
		&CategoryModel{}, &BrandModel{}, &ProductModel{}, &VariationModel{}, &OptionModel{}, &ProductImageModel{},
		&CartModel{}, &CartItemModel{},
		&OrderModel{}, &OrderItemModel{},
		&DiscountModel{}, &DiscountUsageModel{}, &LoyaltyAccountModel{}, &LoyaltyTransactionModel{},
		&ReviewModel{}, &FavoriteModel{}, &WishlistModel{}, &WishlistItemModel{},
		&SocialAccountModel{}, &SocialPostModel{},
	}
}
