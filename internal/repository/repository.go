package repository

import (
	"context"
	"time"

	"github.com/freshmart/review-service/internal/domain"
)

// ProductReviewFilter narrows the public product review listing.
type ProductReviewFilter struct {
	// Status filters by review status. domain.StatusAll (or empty) returns
	// reviews in every status; public callers default to approved.
	Status string
	Limit  int
	Offset int
}

// PendingReviewFilter narrows the moderation queue listing.
type PendingReviewFilter struct {
	// SpamLevel restricts results to reviews at or above the level's
	// minimum spam score. Empty means no spam filtering.
	SpamLevel string
	// ProductID restricts results to one product. Zero means all products.
	ProductID int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// ModerationUpdate carries the fields written when a review leaves the
// pending state.
type ModerationUpdate struct {
	Status          string
	ModeratedBy     string
	ModeratedAt     time.Time
	RejectionReason string
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Create inserts a review and assigns its ID and CreatedAt.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID returns a review or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	// GetByCustomerAndProduct returns the customer's review of a product,
	// or apperrors.ErrNotFound when none exists. Any status counts.
	GetByCustomerAndProduct(ctx context.Context, customerID, productID int64) (*domain.Review, error)

	// ListByProduct returns reviews for a product plus the total count
	// matching the filter, newest first.
	ListByProduct(ctx context.Context, productID int64, filter ProductReviewFilter) ([]domain.Review, int, error)

	// ListPending returns pending reviews ordered by spam score descending,
	// then newest first, plus the total count matching the filter.
	ListPending(ctx context.Context, filter PendingReviewFilter) ([]domain.Review, int, error)

	// UpdateStatus applies a moderation decision to a pending review. It
	// returns the updated review, apperrors.ErrNotFound if the review does
	// not exist, or apperrors.ErrConflict if the review has already been
	// moderated.
	UpdateStatus(ctx context.Context, id int64, update ModerationUpdate) (*domain.Review, error)

	// IncrementHelpfulness adds one helpful or not-helpful vote to an
	// approved review and returns the updated review. It returns
	// apperrors.ErrNotFound if the review does not exist or
	// apperrors.ErrConflict if the review is not approved.
	IncrementHelpfulness(ctx context.Context, id int64, helpful bool) (*domain.Review, error)

	// GetStats aggregates review statistics for one product, or across all
	// products when productID is zero.
	GetStats(ctx context.Context, productID int64) (*domain.ReviewStats, error)

	// Delete removes a review permanently, returning apperrors.ErrNotFound
	// when it does not exist.
	Delete(ctx context.Context, id int64) error
}
