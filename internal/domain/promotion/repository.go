package promotion

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// DiscountFilter narrows discount listings
type DiscountFilter struct {
	shared.Filter
	Active *bool
}

// DiscountRepository defines the interface for discount persistence
type DiscountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Discount, error)
	FindByCode(ctx context.Context, code string) (*Discount, error)
	FindAll(ctx context.Context, filter DiscountFilter) ([]*Discount, int64, error)
	Save(ctx context.Context, discount *Discount) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	SaveUsage(ctx context.Context, usage *DiscountUsage) error
	DeleteUsageByOrder(ctx context.Context, orderID uuid.UUID) error
	CountUsageByUser(ctx context.Context, discountID, userID uuid.UUID) (int, error)
}

// LoyaltyRepository defines the interface for loyalty persistence. Save
// persists the account together with its pending transactions.
type LoyaltyRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*LoyaltyAccount, error)
	Save(ctx context.Context, account *LoyaltyAccount) error
	FindTransactions(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]Transaction, int64, error)
}
