package promotion

import (
	"context"
	"testing"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserRegisteredHandler_OpensAccount(t *testing.T) {
	ctx := context.Background()
	loyalty := NewLoyaltyService(persistence.NewGormLoyaltyRepository(newTestDB(t)), promotion.DefaultPolicy(), zap.NewNop())
	h := NewUserRegisteredHandler(loyalty, zap.NewNop())

	user, err := identity.NewCustomer("new@example.com", "newbie", "Secret123!")
	require.NoError(t, err)
	event := identity.NewUserRegisteredEvent(user)

	require.NoError(t, h.Handle(ctx, event))
	// a redelivered event leaves the account as it is
	require.NoError(t, h.Handle(ctx, event))

	account, err := loyalty.GetAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, account.UserID)
	assert.Zero(t, account.Balance)
}

func TestUserRegisteredHandler_RejectsOtherEvents(t *testing.T) {
	h := NewUserRegisteredHandler(nil, zap.NewNop())
	user, err := identity.NewCustomer("new@example.com", "newbie", "Secret123!")
	require.NoError(t, err)
	assert.Error(t, h.Handle(context.Background(), identity.NewUserDeactivatedEvent(user)))
}
