package promotion

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// UserRegisteredHandler opens a loyalty account for every new customer
type UserRegisteredHandler struct {
	loyalty *LoyaltyService
	logger  *zap.Logger
}

// NewUserRegisteredHandler creates a new handler for user registered events
func NewUserRegisteredHandler(loyalty *LoyaltyService, logger *zap.Logger) *UserRegisteredHandler {
	return &UserRegisteredHandler{loyalty: loyalty, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *UserRegisteredHandler) EventTypes() []string {
	return []string{identity.EventTypeUserRegistered}
}

// Handle creates the account. Accounts are also created lazily, so a failure
// here only delays it.
func (h *UserRegisteredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	registered, ok := event.(*identity.UserRegisteredEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			identity.EventTypeUserRegistered, event.EventType())
	}
	if err := h.loyalty.EnsureAccount(ctx, registered.AggregateID()); err != nil {
		h.logger.Error("failed to open loyalty account",
			zap.String("user_id", registered.AggregateID().String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
