package promotion

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DiscountService manages discount codes and their redemption
type DiscountService struct {
	repo   promotion.DiscountRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewDiscountService creates a new DiscountService
func NewDiscountService(repo promotion.DiscountRepository, logger *zap.Logger) *DiscountService {
	return &DiscountService{repo: repo, now: time.Now, logger: logger}
}

// Create creates a discount code
func (s *DiscountService) Create(ctx context.Context, req CreateDiscountRequest) (*DiscountResponse, error) {
	d, err := promotion.NewDiscount(req.Code, promotion.DiscountType(req.Type), req.Value)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCode(ctx, d.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Discount code already exists")
	}
	if err := applyTerms(d, req.Description, req.MinOrderAmount, req.MaxDiscountAmount, req.UsageLimit, req.PerUserLimit, req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}
	if req.Inactive {
		d.Deactivate()
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("Discount created",
		zap.String("code", d.Code),
		zap.String("type", string(d.Type)),
		zap.String("value", d.Value.String()))
	resp := ToDiscountResponse(d)
	return &resp, nil
}

// Update replaces the terms of a discount
func (s *DiscountService) Update(ctx context.Context, id uuid.UUID, req UpdateDiscountRequest) (*DiscountResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.SetValue(promotion.DiscountType(req.Type), req.Value); err != nil {
		return nil, err
	}
	if err := applyTerms(d, req.Description, req.MinOrderAmount, req.MaxDiscountAmount, req.UsageLimit, req.PerUserLimit, req.StartsAt, req.EndsAt); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	resp := ToDiscountResponse(d)
	return &resp, nil
}

func applyTerms(d *promotion.Discount, description string, minOrder, maxDiscount *decimal.Decimal, usageLimit, perUserLimit int, startsAt, endsAt *time.Time) error {
	d.SetDescription(description)
	min, max := decimal.Zero, decimal.Zero
	if minOrder != nil {
		min = *minOrder
	}
	if maxDiscount != nil {
		max = *maxDiscount
	}
	if err := d.SetConditions(min, max); err != nil {
		return err
	}
	if err := d.SetLimits(usageLimit, perUserLimit); err != nil {
		return err
	}
	return d.SetWindow(startsAt, endsAt)
}

// GetByID retrieves a discount
func (s *DiscountService) GetByID(ctx context.Context, id uuid.UUID) (*DiscountResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDiscountResponse(d)
	return &resp, nil
}

// List retrieves a page of discounts
func (s *DiscountService) List(ctx context.Context, filter DiscountListFilter) (shared.Paginated[DiscountResponse], error) {
	domainFilter := promotion.DiscountFilter{Filter: shared.DefaultFilter(), Active: filter.Active}
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	discounts, total, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[DiscountResponse]{}, err
	}
	items := make([]DiscountResponse, len(discounts))
	for i, d := range discounts {
		items[i] = ToDiscountResponse(d)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Activate enables a discount
func (s *DiscountService) Activate(ctx context.Context, id uuid.UUID) (*DiscountResponse, error) {
	return s.setActive(ctx, id, true)
}

// Deactivate disables a discount
func (s *DiscountService) Deactivate(ctx context.Context, id uuid.UUID) (*DiscountResponse, error) {
	return s.setActive(ctx, id, false)
}

func (s *DiscountService) setActive(ctx context.Context, id uuid.UUID, active bool) (*DiscountResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if active {
		d.Activate()
	} else {
		d.Deactivate()
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	resp := ToDiscountResponse(d)
	return &resp, nil
}

// Delete deletes a discount that has never been redeemed. Redeemed discounts
// are kept for order history and can only be deactivated.
func (s *DiscountService) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if d.UsedCount > 0 {
		return shared.NewDomainError("DISCOUNT_IN_USE", "A redeemed discount cannot be deleted; deactivate it instead")
	}
	return s.repo.Delete(ctx, id)
}

// Validate computes the discount a user would get on a subtotal without
// redeeming the code
func (s *DiscountService) Validate(ctx context.Context, userID uuid.UUID, code string, subtotal decimal.Decimal) (*DiscountQuote, error) {
	d, err := s.usable(ctx, userID, code, subtotal)
	if err != nil {
		return nil, err
	}
	return quote(d, subtotal), nil
}

// Redeem validates the code, counts one use and records the usage against
// the order. Run it inside the checkout transaction.
func (s *DiscountService) Redeem(ctx context.Context, userID, orderID uuid.UUID, code string, subtotal decimal.Decimal) (*DiscountQuote, error) {
	d, err := s.usable(ctx, userID, code, subtotal)
	if err != nil {
		return nil, err
	}
	q := quote(d, subtotal)
	if err := d.RecordUsage(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	if err := s.repo.SaveUsage(ctx, promotion.NewDiscountUsage(d.ID, userID, orderID, q.Amount)); err != nil {
		return nil, err
	}
	return q, nil
}

// Release gives back the use of a discount consumed by a cancelled order
func (s *DiscountService) Release(ctx context.Context, discountID, orderID uuid.UUID) error {
	d, err := s.repo.FindByID(ctx, discountID)
	if err != nil {
		return err
	}
	if d.UsedCount > 0 {
		d.ReleaseUsage()
		if err := s.repo.Save(ctx, d); err != nil {
			return err
		}
	}
	return s.repo.DeleteUsageByOrder(ctx, orderID)
}

func (s *DiscountService) usable(ctx context.Context, userID uuid.UUID, code string, subtotal decimal.Decimal) (*promotion.Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	d, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("DISCOUNT_NOT_FOUND", "Discount code not found")
		}
		return nil, err
	}
	uses := 0
	if d.PerUserLimit > 0 {
		if uses, err = s.repo.CountUsageByUser(ctx, d.ID, userID); err != nil {
			return nil, err
		}
	}
	if err := d.CheckUsable(s.now(), subtotal, uses); err != nil {
		return nil, err
	}
	return d, nil
}

func quote(d *promotion.Discount, subtotal decimal.Decimal) *DiscountQuote {
	return &DiscountQuote{
		DiscountID: d.ID,
		Code:       d.Code,
		Type:       string(d.Type),
		Value:      d.Value,
		Amount:     d.Calculate(subtotal),
		Subtotal:   subtotal,
	}
}
