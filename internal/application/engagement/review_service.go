package engagement

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/engagement"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReviewService handles product reviews and their moderation
type ReviewService struct {
	reviewRepo  engagement.ReviewRepository
	productRepo catalog.ProductRepository
	orderRepo   order.Repository
	logger      *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(
	reviewRepo engagement.ReviewRepository,
	productRepo catalog.ProductRepository,
	orderRepo order.Repository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

// Create writes the user's review of a product. A user reviews a product
// once; the review is marked verified when one of the user's delivered orders
// contains the product.
func (s *ReviewService) Create(ctx context.Context, userID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "review", "create",
		telemetry.SpanAttrUserID, userID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String())
	defer span.End()

	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		return nil, telemetry.RecordError(span, err)
	}

	_, err := s.reviewRepo.FindByUserAndProduct(ctx, userID, req.ProductID)
	if err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "You have already reviewed this product")
	}
	if !shared.IsNotFound(err) {
		return nil, telemetry.RecordError(span, err)
	}

	verified, err := s.orderRepo.HasDeliveredProduct(ctx, userID, req.ProductID)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	review, err := engagement.NewReview(req.ProductID, userID, req.Rating, req.Title, req.Comment, verified)
	if err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	s.logger.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("product_id", review.ProductID.String()),
		zap.Int("rating", review.Rating),
		zap.Bool("verified", verified))
	resp := ToReviewResponse(review)
	return &resp, nil
}

// Update edits the user's own review, which sends it back to moderation
func (s *ReviewService) Update(ctx context.Context, userID, reviewID uuid.UUID, req UpdateReviewRequest) (*ReviewResponse, error) {
	review, err := s.owned(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := review.Update(req.Rating, req.Title, req.Comment); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}
	resp := ToReviewResponse(review)
	return &resp, nil
}

// Delete removes the user's own review
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, reviewID); err != nil {
		return err
	}
	return s.reviewRepo.Delete(ctx, reviewID)
}

// AdminDelete removes any review
func (s *ReviewService) AdminDelete(ctx context.Context, reviewID uuid.UUID) error {
	return s.reviewRepo.Delete(ctx, reviewID)
}

// ListMine lists the user's reviews in every moderation status
func (s *ReviewService) ListMine(ctx context.Context, userID uuid.UUID, filter ReviewListFilter) (shared.Paginated[ReviewResponse], error) {
	f, err := toReviewFilter(filter)
	if err != nil {
		return shared.Paginated[ReviewResponse]{}, err
	}
	f.UserID = &userID
	return s.list(ctx, f)
}

// ListForProduct returns the approved reviews of a product with its rating
// summary
func (s *ReviewService) ListForProduct(ctx context.Context, productID uuid.UUID, filter ReviewListFilter) (*ProductReviewsResponse, error) {
	f, err := toReviewFilter(filter)
	if err != nil {
		return nil, err
	}
	approved := engagement.ReviewStatusApproved
	f.ProductID = &productID
	f.Status = &approved

	reviews, total, err := s.reviewRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	counts, err := s.reviewRepo.RatingCounts(ctx, productID)
	if err != nil {
		return nil, err
	}
	summary := engagement.NewRatingSummary(productID, counts)

	resp := &ProductReviewsResponse{
		Summary: RatingSummaryResponse{
			Count:        summary.Count,
			Average:      summary.Average,
			Distribution: summary.Distribution,
		},
		Reviews: make([]ReviewResponse, len(reviews)),
		Total:   total,
		Page:    f.Page,
		Size:    f.PageSize,
	}
	for i, r := range reviews {
		resp.Reviews[i] = ToReviewResponse(r)
	}
	return resp, nil
}

// List lists reviews for moderation
func (s *ReviewService) List(ctx context.Context, filter ReviewListFilter) (shared.Paginated[ReviewResponse], error) {
	f, err := toReviewFilter(filter)
	if err != nil {
		return shared.Paginated[ReviewResponse]{}, err
	}
	return s.list(ctx, f)
}

func (s *ReviewService) list(ctx context.Context, f engagement.ReviewFilter) (shared.Paginated[ReviewResponse], error) {
	reviews, total, err := s.reviewRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[ReviewResponse]{}, err
	}
	items := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		items[i] = ToReviewResponse(r)
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// Approve publishes a review
func (s *ReviewService) Approve(ctx context.Context, reviewID uuid.UUID) (*ReviewResponse, error) {
	return s.moderate(ctx, reviewID, (*engagement.Review).Approve)
}

// Reject hides a review
func (s *ReviewService) Reject(ctx context.Context, reviewID uuid.UUID, req RejectReviewRequest) (*ReviewResponse, error) {
	return s.moderate(ctx, reviewID, func(r *engagement.Review) error {
		return r.Reject(req.Note)
	})
}

func (s *ReviewService) moderate(ctx context.Context, reviewID uuid.UUID, apply func(*engagement.Review) error) (*ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := apply(review); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}
	s.logger.Info("Review moderated",
		zap.String("review_id", review.ID.String()),
		zap.String("status", string(review.Status)))
	resp := ToReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) owned(ctx context.Context, userID, reviewID uuid.UUID) (*engagement.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return review, nil
}

func toReviewFilter(filter ReviewListFilter) (engagement.ReviewFilter, error) {
	f := engagement.ReviewFilter{Filter: shared.DefaultFilter()}
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
		status := engagement.ReviewStatus(filter.Status)
		if !status.IsValid() {
			return f, shared.NewDomainError("INVALID_INPUT", "Unknown review status: "+filter.Status)
		}
		f.Status = &status
	}
	if filter.ProductID != "" {
		id, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return f, shared.NewDomainError("INVALID_INPUT", "Invalid product ID")
		}
		f.ProductID = &id
	}
	if filter.Rating > 0 {
		rating := filter.Rating
		f.Rating = &rating
	}
	return f, nil
}
