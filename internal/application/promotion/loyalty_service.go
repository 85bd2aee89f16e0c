package promotion

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LoyaltyService manages loyalty accounts and point movements
type LoyaltyService struct {
	repo   promotion.LoyaltyRepository
	policy promotion.Policy
	logger *zap.Logger
}

// NewLoyaltyService creates a new LoyaltyService
func NewLoyaltyService(repo promotion.LoyaltyRepository, policy promotion.Policy, logger *zap.Logger) *LoyaltyService {
	return &LoyaltyService{repo: repo, policy: policy, logger: logger}
}

// Policy returns the points conversion policy in effect
func (s *LoyaltyService) Policy() promotion.Policy {
	return s.policy
}

// EnsureAccount opens an account for a user if none exists
func (s *LoyaltyService) EnsureAccount(ctx context.Context, userID uuid.UUID) error {
	_, err := s.account(ctx, userID)
	return err
}

// GetAccount returns the user's account, opening it on first access
func (s *LoyaltyService) GetAccount(ctx context.Context, userID uuid.UUID) (*AccountResponse, error) {
	a, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toAccountResponse(a, s.policy)
	return &resp, nil
}

// Transactions pages through the user's ledger, newest first
func (s *LoyaltyService) Transactions(ctx context.Context, userID uuid.UUID, filter TransactionListFilter) (shared.Paginated[TransactionResponse], error) {
	a, err := s.account(ctx, userID)
	if err != nil {
		return shared.Paginated[TransactionResponse]{}, err
	}
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	txs, total, err := s.repo.FindTransactions(ctx, a.ID, domainFilter)
	if err != nil {
		return shared.Paginated[TransactionResponse]{}, err
	}
	items := make([]TransactionResponse, len(txs))
	for i, t := range txs {
		items[i] = toTransactionResponse(t)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Adjust applies a manual correction to a user's balance
func (s *LoyaltyService) Adjust(ctx context.Context, req AdjustPointsRequest) (*AccountResponse, error) {
	a, err := s.account(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := a.Adjust(req.Points, req.Reason); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Loyalty points adjusted",
		zap.String("user_id", req.UserID.String()),
		zap.Int64("points", req.Points),
		zap.String("reason", req.Reason))
	resp := toAccountResponse(a, s.policy)
	return &resp, nil
}

// Earn credits the points an order total is worth and returns them.
// Totals worth less than one point earn nothing.
func (s *LoyaltyService) Earn(ctx context.Context, userID, orderID uuid.UUID, total decimal.Decimal) (int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "loyalty", "earn",
		telemetry.SpanAttrUserID, userID.String(),
		telemetry.SpanAttrOrderID, orderID.String())
	defer span.End()

	points := s.policy.PointsFor(total)
	if points == 0 {
		return 0, nil
	}
	a, err := s.account(ctx, userID)
	if err != nil {
		return 0, telemetry.RecordError(span, err)
	}
	if err := a.Earn(points, &orderID, "Order delivered"); err != nil {
		return 0, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return 0, telemetry.RecordError(span, err)
	}
	return points, nil
}

// Redeem debits points against an order amount and returns their money value.
// At most the policy's share of the amount can be paid with points.
func (s *LoyaltyService) Redeem(ctx context.Context, userID, orderID uuid.UUID, points int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if max := s.policy.MaxRedeemablePoints(amount); points > max {
		return decimal.Zero, shared.NewDomainError("POINTS_LIMIT_EXCEEDED",
			"At most "+decimal.NewFromInt(max).String()+" points can be redeemed on this order")
	}
	a, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return decimal.Zero, shared.ErrInsufficientBalance
		}
		return decimal.Zero, err
	}
	if err := a.Redeem(points, &orderID, "Order payment"); err != nil {
		return decimal.Zero, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return decimal.Zero, err
	}
	return s.policy.ValueOf(points), nil
}

// Reverse undoes points booked for an order. Positive points refund a
// redemption; negative points claw back earned points. It returns the points
// actually moved.
func (s *LoyaltyService) Reverse(ctx context.Context, userID, orderID uuid.UUID, points int64, reason string) (int64, error) {
	if points == 0 {
		return 0, nil
	}
	a, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	moved, err := a.Reverse(points, &orderID, reason)
	if err != nil {
		return 0, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return 0, err
	}
	if moved != points {
		s.logger.Warn("Loyalty reversal clamped at balance",
			zap.String("user_id", userID.String()),
			zap.String("order_id", orderID.String()),
			zap.Int64("requested", points),
			zap.Int64("applied", moved))
	}
	return moved, nil
}

func (s *LoyaltyService) account(ctx context.Context, userID uuid.UUID) (*promotion.LoyaltyAccount, error) {
	a, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return a, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	a, err = promotion.NewLoyaltyAccount(userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
