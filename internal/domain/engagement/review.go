package engagement

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ReviewStatus is the moderation status of a review
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// IsValid checks if the status is known
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

const (
	MinRating        = 1
	MaxRating        = 5
	maxTitleLength   = 120
	maxCommentLength = 4000
)

// Review is a customer's rating of a product
type Review struct {
	shared.BaseAggregateRoot
	ProductID        uuid.UUID
	UserID           uuid.UUID
	Rating           int
	Title            string
	Comment          string
	VerifiedPurchase bool
	Status           ReviewStatus
	ModerationNote   string
}

// NewReview creates a pending review
func NewReview(productID, userID uuid.UUID, rating int, title, comment string, verified bool) (*Review, error) {
	if productID == uuid.Nil || userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REVIEW", "Product and user are required")
	}
	r := &Review{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		UserID:            userID,
		VerifiedPurchase:  verified,
		Status:            ReviewStatusPending,
	}
	if err := r.setContent(rating, title, comment); err != nil {
		return nil, err
	}
	return r, nil
}

// Update edits the review and sends it back to moderation
func (r *Review) Update(rating int, title, comment string) error {
	if err := r.setContent(rating, title, comment); err != nil {
		return err
	}
	r.Status = ReviewStatusPending
	r.ModerationNote = ""
	r.Touch()
	return nil
}

func (r *Review) setContent(rating int, title, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return shared.NewDomainError("INVALID_RATING", fmt.Sprintf("Rating must be between %d and %d", MinRating, MaxRating))
	}
	title = strings.TrimSpace(title)
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(title) > maxTitleLength {
		return shared.NewDomainError("INVALID_TITLE", fmt.Sprintf("Title cannot exceed %d characters", maxTitleLength))
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return shared.NewDomainError("INVALID_COMMENT", fmt.Sprintf("Comment cannot exceed %d characters", maxCommentLength))
	}
	r.Rating = rating
	r.Title = title
	r.Comment = comment
	return nil
}

// Approve publishes the review
func (r *Review) Approve() error {
	if r.Status == ReviewStatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Review is already approved")
	}
	r.Status = ReviewStatusApproved
	r.ModerationNote = ""
	r.Touch()
	return nil
}

// Reject hides the review with a moderation note
func (r *Review) Reject(note string) error {
	if r.Status == ReviewStatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Review is already rejected")
	}
	r.Status = ReviewStatusRejected
	r.ModerationNote = strings.TrimSpace(note)
	r.Touch()
	return nil
}

// IsOwnedBy reports whether the review was written by the user
func (r *Review) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// RatingSummary aggregates approved ratings of a product
type RatingSummary struct {
	ProductID    uuid.UUID
	Count        int64
	Average      float64
	Distribution map[int]int64
}

// NewRatingSummary builds a summary from per-rating counts
func NewRatingSummary(productID uuid.UUID, counts map[int]int64) RatingSummary {
	s := RatingSummary{ProductID: productID, Distribution: make(map[int]int64, MaxRating)}
	var sum int64
	for rating := MinRating; rating <= MaxRating; rating++ {
		n := counts[rating]
		s.Distribution[rating] = n
		s.Count += n
		sum += int64(rating) * n
	}
	if s.Count > 0 {
		s.Average = float64(sum) / float64(s.Count)
	}
	return s
}
