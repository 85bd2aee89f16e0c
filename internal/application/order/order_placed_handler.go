package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// ConfirmationConfig holds the links and names used in confirmation mails
type ConfirmationConfig struct {
	ShopName string
	// OrderURL is the storefront page of an order; "{id}" is replaced with
	// the order ID
	OrderURL string
}

// OrderPlacedHandler mails an order confirmation to the customer
type OrderPlacedHandler struct {
	orderRepo order.Repository
	userRepo  identity.UserRepository
	mailer    mail.Sender
	config    ConfirmationConfig
	logger    *zap.Logger
}

// NewOrderPlacedHandler creates a new handler for order placed events
func NewOrderPlacedHandler(
	orderRepo order.Repository,
	userRepo identity.UserRepository,
	mailer mail.Sender,
	config ConfirmationConfig,
	logger *zap.Logger,
) *OrderPlacedHandler {
	return &OrderPlacedHandler{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		mailer:    mailer,
		config:    config,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPlacedHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced}
}

// Handle renders and sends the confirmation mail
func (h *OrderPlacedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*order.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			order.EventTypeOrderPlaced, event.EventType())
	}

	o, err := h.orderRepo.FindByID(ctx, placed.AggregateID())
	if err != nil {
		return fmt.Errorf("load order %s: %w", placed.Number, err)
	}
	user, err := h.userRepo.FindByID(ctx, o.UserID)
	if err != nil {
		return fmt.Errorf("load customer of order %s: %w", placed.Number, err)
	}

	data := mail.OrderConfirmationData{
		Name:     user.FullName(),
		Number:   o.Number,
		Total:    o.Total.StringFixed(2),
		ShopName: h.config.ShopName,
	}
	if h.config.OrderURL != "" {
		data.OrderURL = strings.ReplaceAll(h.config.OrderURL, "{id}", o.ID.String())
	}
	for _, it := range o.Items {
		name := it.ProductName
		if it.OptionLabel != "" {
			name += " (" + it.OptionLabel + ")"
		}
		data.Lines = append(data.Lines, mail.OrderLine{
			Name:     name,
			Quantity: it.Quantity,
			Total:    it.LineTotal.StringFixed(2),
		})
	}

	msg, err := mail.OrderConfirmationMessage(user.Email, data)
	if err != nil {
		return err
	}
	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Warn("failed to send order confirmation",
			zap.String("order_number", o.Number),
			zap.Error(err),
		)
		return err
	}
	return nil
}
