package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLoyaltyRepository implements promotion.LoyaltyRepository using GORM
type GormLoyaltyRepository struct {
	db *gorm.DB
}

// NewGormLoyaltyRepository creates a new GormLoyaltyRepository
func NewGormLoyaltyRepository(db *gorm.DB) *GormLoyaltyRepository {
	return &GormLoyaltyRepository{db: db}
}

// FindByUserID loads the user's loyalty account
func (r *GormLoyaltyRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*promotion.LoyaltyAccount, error) {
	var model models.LoyaltyAccountModel
	if err := conn(ctx, r.db).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// Save writes the account balance and appends its pending ledger entries in
// one transaction
func (r *GormLoyaltyRepository) Save(ctx context.Context, account *promotion.LoyaltyAccount) error {
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveVersioned(tx, models.LoyaltyAccountModelFromDomain(account), &account.BaseAggregateRoot); err != nil {
			return err
		}
		pending := account.PendingTransactions()
		if len(pending) == 0 {
			return nil
		}
		rows := make([]*models.LoyaltyTransactionModel, len(pending))
		for i, t := range pending {
			rows[i] = models.LoyaltyTransactionModelFromDomain(t)
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return err
	}
	account.ClearPendingTransactions()
	return nil
}

// FindTransactions pages through an account's ledger, newest first
func (r *GormLoyaltyRepository) FindTransactions(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]promotion.Transaction, int64, error) {
	query := conn(ctx, r.db).Model(&models.LoyaltyTransactionModel{}).Where("account_id = ?", accountID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.LoyaltyTransactionModel
	filter.OrderBy = "created_at"
	if err := page(query, filter, map[string]bool{"created_at": true}, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]promotion.Transaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

var _ promotion.LoyaltyRepository = (*GormLoyaltyRepository)(nil)
