package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service handles the shopping cart of a user
type Service struct {
	cartRepo    cart.Repository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewService creates a new cart service
func NewService(cartRepo cart.Repository, productRepo catalog.ProductRepository, logger *zap.Logger) *Service {
	return &Service{cartRepo: cartRepo, productRepo: productRepo, logger: logger}
}

// Get returns the user's cart priced against the live catalog.
// A user without a cart gets an empty one that is not persisted.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// AddItem adds quantity of a product or option, merging with an existing line
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "add_item",
		telemetry.SpanAttrUserID, userID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String())
	defer span.End()

	product, err := s.sellableProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	item, err := product.Resolve(req.OptionID)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	if _, err := c.AddItem(product.ID, req.OptionID, req.Quantity, item.UnitPrice, item.Available); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	s.logger.Debug("Cart item added",
		zap.String("user_id", userID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("quantity", req.Quantity))
	return s.view(ctx, c)
}

// UpdateItem changes the quantity of a line; zero removes it
func (s *Service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*View, error) {
	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	line := c.FindItem(itemID)
	if line == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Cart item not found")
	}

	available := 0
	if req.Quantity > 0 {
		product, err := s.sellableProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		item, err := product.Resolve(line.OptionID)
		if err != nil {
			return nil, err
		}
		available = item.Available
	}
	if err := c.UpdateQuantity(itemID, req.Quantity, available); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// RemoveItem removes a line
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil
		}
		return err
	}
	if c.IsEmpty() {
		return nil
	}
	c.Clear()
	return s.cartRepo.Save(ctx, c)
}

func (s *Service) load(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if shared.IsNotFound(err) {
		return cart.NewCart(userID), nil
	}
	return nil, err
}

func (s *Service) sellableProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	if !product.IsSellable() {
		return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE", product.Name+" is not available for purchase")
	}
	return product, nil
}

// view prices every line with the current catalog data. Lines whose product
// is gone or no longer sellable are kept but flagged and excluded from the
// subtotal.
func (s *Service) view(ctx context.Context, c *cart.Cart) (*View, error) {
	v := &View{
		ID:          c.ID,
		UserID:      c.UserID,
		Items:       make([]ItemView, 0, len(c.Items)),
		Subtotal:    decimal.Zero,
		CanCheckout: !c.IsEmpty(),
	}
	if c.IsEmpty() {
		return v, nil
	}

	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, it := range c.Items {
		line := ItemView{
			ID:         it.ID,
			ProductID:  it.ProductID,
			OptionID:   it.OptionID,
			Quantity:   it.Quantity,
			AddedPrice: it.UnitPrice,
			UnitPrice:  it.UnitPrice,
			LineTotal:  decimal.Zero,
		}
		product, ok := byID[it.ProductID]
		if ok {
			line.Name = product.Name
			line.ImageURL = product.PrimaryImageURL()
			if resolved, err := product.Resolve(it.OptionID); err == nil {
				line.SKU = resolved.SKU
				line.OptionLabel = resolved.OptionLabel
				line.UnitPrice = resolved.UnitPrice
				line.Available = resolved.Available
				line.Purchasable = product.IsSellable()
			}
		}
		line.PriceChanged = !line.UnitPrice.Equal(it.UnitPrice)
		line.StockShortage = line.Purchasable && it.Quantity > line.Available

		if line.Purchasable {
			line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			v.Subtotal = v.Subtotal.Add(line.LineTotal)
			v.ItemCount += it.Quantity
		}
		if !line.Purchasable || line.StockShortage {
			v.CanCheckout = false
		}
		v.Items = append(v.Items, line)
	}
	return v, nil
}
