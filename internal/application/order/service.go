package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	promoapp "github.com/storefront/backend/internal/application/promotion"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DiscountRedeemer consumes and gives back discount code usages
type DiscountRedeemer interface {
	Redeem(ctx context.Context, userID, orderID uuid.UUID, code string, subtotal decimal.Decimal) (*promoapp.DiscountQuote, error)
	Release(ctx context.Context, discountID, orderID uuid.UUID) error
}

// LoyaltyLedger books loyalty points for orders
type LoyaltyLedger interface {
	Earn(ctx context.Context, userID, orderID uuid.UUID, total decimal.Decimal) (int64, error)
	Redeem(ctx context.Context, userID, orderID uuid.UUID, points int64, amount decimal.Decimal) (decimal.Decimal, error)
	Reverse(ctx context.Context, userID, orderID uuid.UUID, points int64, reason string) (int64, error)
}

// ServiceConfig holds checkout settings
type ServiceConfig struct {
	ShippingFee decimal.Decimal
	// FreeShippingThreshold waives the fee when the discounted subtotal
	// reaches it; zero disables free shipping
	FreeShippingThreshold decimal.Decimal
	IdempotencyTTL        time.Duration
	PendingOrderTTL       time.Duration
	CompanyName           string
}

// DefaultServiceConfig returns the checkout defaults
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ShippingFee:           decimal.Zero,
		FreeShippingThreshold: decimal.Zero,
		IdempotencyTTL:        24 * time.Hour,
		PendingOrderTTL:       72 * time.Hour,
		CompanyName:           "Storefront",
	}
}

// staleSweepBatch bounds the orders cancelled per sweep
const staleSweepBatch = 100

// Service handles checkout and the order lifecycle
type Service struct {
	orderRepo      order.Repository
	cartRepo       cart.Repository
	productRepo    catalog.ProductRepository
	userRepo       identity.UserRepository
	txManager      shared.TransactionManager
	discounts      DiscountRedeemer
	loyalty        LoyaltyLedger
	idempotency    shared.IdempotencyStore
	invoices       InvoiceRenderer
	invoiceStore   InvoiceStorage
	eventPublisher shared.EventPublisher
	metrics        *telemetry.StoreMetrics
	config         ServiceConfig
	logger         *zap.Logger
}

// NewService creates a new order service
func NewService(
	orderRepo order.Repository,
	cartRepo cart.Repository,
	productRepo catalog.ProductRepository,
	userRepo identity.UserRepository,
	txManager shared.TransactionManager,
	discounts DiscountRedeemer,
	loyalty LoyaltyLedger,
	logger *zap.Logger,
) *Service {
	return &Service{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		discounts:   discounts,
		loyalty:     loyalty,
		config:      DefaultServiceConfig(),
		logger:      logger,
	}
}

// SetConfig replaces the checkout settings
func (s *Service) SetConfig(cfg ServiceConfig) {
	s.config = cfg
}

// SetEventPublisher sets the event publisher for order events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics enables checkout and status-change counters
func (s *Service) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// SetIdempotencyStore enables retry-safe checkout
func (s *Service) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// Checkout converts the user's cart into a placed order. When key is set,
// a retry with the same key returns the order created by the first call.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest, key string) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "checkout",
		telemetry.SpanAttrUserID, userID.String())
	defer span.End()

	if key == "" || s.idempotency == nil {
		o, err := s.checkout(ctx, userID, req)
		if err != nil {
			return nil, telemetry.RecordError(span, err)
		}
		resp := ToOrderResponse(o)
		return &resp, nil
	}

	scoped := "checkout:" + userID.String() + ":" + key
	if o, err := s.replay(ctx, scoped); err != nil || o != nil {
		return o, err
	}
	reserved, err := s.idempotency.Reserve(ctx, scoped, s.config.IdempotencyTTL)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	if !reserved {
		if o, err := s.replay(ctx, scoped); err != nil || o != nil {
			return o, err
		}
		return nil, shared.NewDomainError("REQUEST_IN_PROGRESS", "A checkout with this idempotency key is already in progress")
	}

	o, err := s.checkout(ctx, userID, req)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, scoped); relErr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.String("key", scoped), zap.Error(relErr))
		}
		return nil, telemetry.RecordError(span, err)
	}
	if err := s.idempotency.Complete(ctx, scoped, o.ID.String(), s.config.IdempotencyTTL); err != nil {
		s.logger.Warn("Failed to store idempotency result", zap.String("key", scoped), zap.Error(err))
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

func (s *Service) replay(ctx context.Context, key string) (*OrderResponse, error) {
	ref, err := s.idempotency.Result(ctx, key)
	if err != nil || ref == "" {
		return nil, err
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("corrupt idempotency result %q: %w", ref, err)
	}
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

func (s *Service) checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*order.Order, error) {
	start := time.Now()
	o, err := s.placeOrder(ctx, userID, req)
	total := decimal.Zero
	if o != nil {
		total = o.Total
	}
	s.metrics.RecordCheckout(ctx, req.PaymentMethod, total, time.Since(start), err)
	return o, err
}

func (s *Service) placeOrder(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*order.Order, error) {
	method := order.PaymentMethod(req.PaymentMethod)
	var placed *order.Order

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		c, err := s.cartRepo.FindByUserID(ctx, userID)
		if err != nil && !shared.IsNotFound(err) {
			return err
		}
		if c == nil || c.IsEmpty() {
			return shared.NewDomainError("INVALID_STATE", "Cart is empty")
		}

		number, err := s.orderRepo.GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}
		o, err := order.NewOrder(number, userID, req.ShippingAddress.toDomain(), method)
		if err != nil {
			return err
		}

		products, err := s.priceLines(ctx, c, o)
		if err != nil {
			return err
		}

		if req.DiscountCode != "" {
			q, err := s.discounts.Redeem(ctx, userID, o.ID, req.DiscountCode, o.Subtotal)
			if err != nil {
				return err
			}
			if err := o.ApplyDiscount(q.DiscountID, q.Code, q.Amount); err != nil {
				return err
			}
		}

		if err := o.SetShippingFee(s.shippingFee(o.Subtotal.Sub(o.DiscountAmount))); err != nil {
			return err
		}

		if req.PointsToRedeem > 0 {
			value, err := s.loyalty.Redeem(ctx, userID, o.ID, req.PointsToRedeem, o.Subtotal.Sub(o.DiscountAmount))
			if err != nil {
				return err
			}
			if err := o.ApplyLoyalty(req.PointsToRedeem, value); err != nil {
				return err
			}
		}

		o.SetNotes(req.Notes)
		if err := o.Place(); err != nil {
			return err
		}

		for _, p := range products {
			if err := s.productRepo.Save(ctx, p); err != nil {
				return err
			}
		}
		if err := s.orderRepo.Save(ctx, o); err != nil {
			return err
		}
		c.Clear()
		if err := s.cartRepo.Save(ctx, c); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("number", placed.Number),
		zap.String("user_id", userID.String()),
		zap.String("total", placed.Total.String()),
		zap.Int("items", placed.ItemCount()))
	s.publish(ctx, placed)
	return placed, nil
}

// priceLines adds every cart line to the order at the live catalog price and
// deducts stock. It returns the products to save.
func (s *Service) priceLines(ctx context.Context, c *cart.Cart, o *order.Order) ([]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	touched := make([]*catalog.Product, 0, len(found))
	seen := make(map[uuid.UUID]bool, len(found))
	for _, it := range c.Items {
		p, ok := byID[it.ProductID]
		if !ok || !p.IsSellable() {
			return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE", "A product in your cart is no longer available")
		}
		item, err := p.Resolve(it.OptionID)
		if err != nil {
			return nil, err
		}
		if err := p.DeductStock(it.OptionID, it.Quantity); err != nil {
			if errors.Is(err, shared.ErrInsufficientStock) {
				return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
					fmt.Sprintf("Only %d of %s left in stock", item.Available, p.Name))
			}
			return nil, err
		}
		if _, err := o.AddItem(p.ID, it.OptionID, p.Name, item.SKU, item.OptionLabel, item.UnitPrice, it.Quantity); err != nil {
			return nil, err
		}
		if !seen[p.ID] {
			seen[p.ID] = true
			touched = append(touched, p)
		}
	}
	return touched, nil
}

func (s *Service) shippingFee(discounted decimal.Decimal) decimal.Decimal {
	if s.config.FreeShippingThreshold.IsPositive() && discounted.GreaterThanOrEqual(s.config.FreeShippingThreshold) {
		return decimal.Zero
	}
	return s.config.ShippingFee
}

// Get returns one of the user's orders. Orders of other users are reported
// as not found.
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.owned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetByID returns any order
func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListMine lists the user's orders
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, filter OrderListFilter) (shared.Paginated[OrderResponse], error) {
	filter.UserID = userID.String()
	return s.List(ctx, filter)
}

// List lists orders matching the filter
func (s *Service) List(ctx context.Context, filter OrderListFilter) (shared.Paginated[OrderResponse], error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	orders, total, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	items := make([]OrderResponse, len(orders))
	for i, o := range orders {
		items[i] = ToOrderResponse(o)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

func toDomainFilter(filter OrderListFilter) (order.Filter, error) {
	f := order.Filter{Filter: shared.DefaultFilter()}
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		status := order.Status(filter.Status)
		if !status.IsValid() {
			return f, shared.NewDomainError("INVALID_INPUT", "Unknown order status: "+filter.Status)
		}
		f.Status = &status
	}
	if filter.UserID != "" {
		id, err := uuid.Parse(filter.UserID)
		if err != nil {
			return f, shared.NewDomainError("INVALID_INPUT", "Invalid user ID")
		}
		f.UserID = &id
	}
	if filter.From != "" {
		from, err := time.Parse(time.DateOnly, filter.From)
		if err != nil {
			return f, shared.NewDomainError("INVALID_INPUT", "from must be a YYYY-MM-DD date")
		}
		f.From = &from
	}
	if filter.To != "" {
		to, err := time.Parse(time.DateOnly, filter.To)
		if err != nil {
			return f, shared.NewDomainError("INVALID_INPUT", "to must be a YYYY-MM-DD date")
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return f, shared.NewDomainError("INVALID_INPUT", "from must not be after to")
	}
	return f, nil
}

// MarkPaid records payment for a pending order
func (s *Service) MarkPaid(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "mark_paid", (*order.Order).MarkPaid)
}

// StartProcessing moves a paid order into fulfilment
func (s *Service) StartProcessing(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "start_processing", (*order.Order).StartProcessing)
}

// Ship marks an order as shipped
func (s *Service) Ship(ctx context.Context, orderID uuid.UUID, req ShipRequest) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "ship", func(o *order.Order) error {
		return o.Ship(req.TrackingNumber)
	})
}

// Deliver marks an order as delivered and credits the loyalty points it earned
func (s *Service) Deliver(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "deliver", func(o *order.Order) error {
		return o.Deliver()
	}, func(ctx context.Context, o *order.Order) error {
		points, err := s.loyalty.Earn(ctx, o.UserID, o.ID, o.Total)
		if err != nil {
			return err
		}
		if points > 0 {
			o.RecordPointsEarned(points)
		}
		return nil
	})
}

// Cancel cancels an order, restocking its items and giving back the discount
// use and redeemed points
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, req CancelRequest) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "cancel", func(o *order.Order) error {
		return o.Cancel(req.Reason)
	}, s.undoCheckout)
}

// CancelMine lets a customer cancel their own order while it is still pending
func (s *Service) CancelMine(ctx context.Context, userID, orderID uuid.UUID, req CancelRequest) (*OrderResponse, error) {
	o, err := s.owned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Only pending orders can be cancelled; contact support")
	}
	return s.Cancel(ctx, orderID, req)
}

// Refund refunds a delivered order. Earned points are taken back and
// redeemed points are returned.
func (s *Service) Refund(ctx context.Context, orderID uuid.UUID, req RefundRequest) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "refund", func(o *order.Order) error {
		return o.Refund(req.Reason)
	}, func(ctx context.Context, o *order.Order) error {
		if o.PointsEarned > 0 {
			if _, err := s.loyalty.Reverse(ctx, o.UserID, o.ID, -o.PointsEarned, "Order "+o.Number+" refunded"); err != nil {
				return err
			}
		}
		if o.PointsRedeemed > 0 {
			if _, err := s.loyalty.Reverse(ctx, o.UserID, o.ID, o.PointsRedeemed, "Order "+o.Number+" refunded"); err != nil {
				return err
			}
		}
		return nil
	})
}

// CancelStale cancels pending orders that were not paid within the
// configured window and returns how many were cancelled
func (s *Service) CancelStale(ctx context.Context) (int, error) {
	if s.config.PendingOrderTTL <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-s.config.PendingOrderTTL)
	stale, err := s.orderRepo.FindStale(ctx, order.StatusPending, cutoff, staleSweepBatch)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, o := range stale {
		if _, err := s.Cancel(ctx, o.ID, CancelRequest{Reason: "Payment not received in time"}); err != nil {
			s.logger.Warn("Failed to cancel stale order",
				zap.String("order_id", o.ID.String()),
				zap.String("number", o.Number),
				zap.Error(err))
			continue
		}
		cancelled++
	}
	if cancelled > 0 {
		s.logger.Info("Stale orders cancelled", zap.Int("count", cancelled))
	}
	return cancelled, nil
}

// undoCheckout reverses the side effects of checkout for a cancelled order
func (s *Service) undoCheckout(ctx context.Context, o *order.Order) error {
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, it := range o.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		if err := p.RestoreStock(it.OptionID, it.Quantity); err != nil {
			s.logger.Warn("Stock not restored for cancelled order line",
				zap.String("order_id", o.ID.String()),
				zap.String("sku", it.SKU),
				zap.Error(err))
		}
	}
	for _, p := range products {
		if err := s.productRepo.Save(ctx, p); err != nil {
			return err
		}
	}

	if o.DiscountID != nil {
		if err := s.discounts.Release(ctx, *o.DiscountID, o.ID); err != nil && !shared.IsNotFound(err) {
			return err
		}
	}
	if o.PointsRedeemed > 0 {
		if _, err := s.loyalty.Reverse(ctx, o.UserID, o.ID, o.PointsRedeemed, "Order "+o.Number+" cancelled"); err != nil {
			return err
		}
	}
	return nil
}

// transition applies a status change and its side effects in one transaction
func (s *Service) transition(
	ctx context.Context,
	orderID uuid.UUID,
	action string,
	apply func(*order.Order) error,
	effects ...func(context.Context, *order.Order) error,
) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", action,
		telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	var o *order.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := apply(o); err != nil {
			return err
		}
		for _, effect := range effects {
			if err := effect(ctx, o); err != nil {
				return err
			}
		}
		return s.orderRepo.Save(ctx, o)
	})
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	s.metrics.RecordOrderTransition(ctx, action)
	s.logger.Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("number", o.Number),
		zap.String("status", string(o.Status)))
	s.publish(ctx, o)
	resp := ToOrderResponse(o)
	return &resp, nil
}

func (s *Service) owned(ctx context.Context, userID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	if err := shared.PublishAndClear(ctx, s.eventPublisher, o); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}
