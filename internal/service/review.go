package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/freshmart/review-service/internal/cache"
	"github.com/freshmart/review-service/internal/client"
	"github.com/freshmart/review-service/internal/domain"
	"github.com/freshmart/review-service/internal/repository"
	"github.com/freshmart/review-service/internal/spam"
	apperrors "github.com/freshmart/review-service/pkg/errors"
)

// OrderSource provides the order data needed for purchase verification.
// client.OrderClient satisfies this.
type OrderSource interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]client.Order, error)
	GetByID(ctx context.Context, orderID int64) (*client.Order, error)
}

// EventPublisher publishes review lifecycle events. event.Producer satisfies this.
type EventPublisher interface {
	PublishReviewSubmitted(ctx context.Context, review *domain.Review) error
	PublishReviewModerated(ctx context.Context, review *domain.Review) error
}

// EligibilityResult describes whether a customer may review a product and,
// when they may not, why. OrderIDs lists every delivered order containing the
// product; submission uses the first. ExistingReview is set when the reason is
// already_reviewed so clients can show the earlier review.
type EligibilityResult struct {
	Eligible       bool            `json:"eligible"`
	Reason         string          `json:"reason,omitempty"`
	Message        string          `json:"message,omitempty"`
	OrderIDs       []int64         `json:"order_ids,omitempty"`
	ExistingReview *ExistingReview `json:"existing_review,omitempty"`
}

// ExistingReview identifies a review the customer already submitted.
type ExistingReview struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// SubmitReviewInput carries a new review submission.
type SubmitReviewInput struct {
	ProductID  int64
	CustomerID int64
	Rating     int
	Title      string
	Comment    string
}

// ReviewService implements the review lifecycle: eligibility, submission,
// moderation, helpfulness voting, and statistics.
type ReviewService struct {
	repo       repository.ReviewRepository
	orders     OrderSource
	producer   EventPublisher
	statsCache *cache.StatsCache
	logger     *slog.Logger
}

// NewReviewService creates a new review service. statsCache may be nil, in
// which case statistics are always computed from the repository.
func NewReviewService(
	repo repository.ReviewRepository,
	orders OrderSource,
	producer EventPublisher,
	statsCache *cache.StatsCache,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:       repo,
		orders:     orders,
		producer:   producer,
		statsCache: statsCache,
		logger:     logger,
	}
}

// CheckEligibility determines whether a customer may review a product. A
// customer is eligible when they have a delivered order containing the product
// and have not already reviewed it.
func (s *ReviewService) CheckEligibility(ctx context.Context, customerID, productID int64) (*EligibilityResult, error) {
	orderIDs, err := s.findDeliveredOrderIDs(ctx, customerID, productID)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return &EligibilityResult{
			Eligible: false,
			Reason:   domain.EligibilityReasonNoPurchase,
			Message:  domain.EligibilityMessage(domain.EligibilityReasonNoPurchase),
		}, nil
	}

	existing, err := s.repo.GetByCustomerAndProduct(ctx, customerID, productID)
	if err == nil {
		return &EligibilityResult{
			Eligible: false,
			Reason:   domain.EligibilityReasonAlreadyReviewed,
			Message:  domain.EligibilityMessage(domain.EligibilityReasonAlreadyReviewed),
			ExistingReview: &ExistingReview{
				ID:     existing.ID,
				Title:  existing.Title,
				Status: existing.Status,
			},
		}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Wrap(err, "check existing review")
	}

	return &EligibilityResult{Eligible: true, OrderIDs: orderIDs}, nil
}

// SubmitReview validates eligibility, scores the content for spam, and stores
// the review in pending status. The customer name and email are snapshotted
// from the qualifying order. The review.submitted event is published
// best-effort: a publish failure is logged, not returned.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	eligibility, err := s.CheckEligibility(ctx, input.CustomerID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		appErr := apperrors.Ineligible(eligibility.Reason, eligibility.Message)
		if eligibility.ExistingReview != nil {
			appErr = appErr.WithDetails(eligibility.ExistingReview)
		}
		return nil, appErr
	}

	title := strings.TrimSpace(input.Title)
	comment := strings.TrimSpace(input.Comment)
	if err := validateContent(input.Rating, title, comment); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, eligibility.OrderIDs[0])
	if err != nil {
		return nil, apperrors.Wrap(err, "fetch qualifying order")
	}

	review := &domain.Review{
		ProductID:          input.ProductID,
		CustomerID:         input.CustomerID,
		OrderID:            order.ID,
		Rating:             input.Rating,
		Title:              title,
		Comment:            comment,
		Status:             domain.ReviewStatusPending,
		SpamScore:          spam.Score(title, comment),
		IsVerifiedPurchase: true,
	}

	if order.CustomerInfo != nil {
		review.CustomerName = order.CustomerInfo.Name
		review.CustomerEmail = order.CustomerInfo.Email
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	reviewSubmissionsTotal.Inc()
	reviewSpamScore.Observe(review.SpamScore)

	s.logger.InfoContext(ctx, "review submitted",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int64("customer_id", review.CustomerID),
		slog.Float64("spam_score", review.SpamScore),
	)

	if s.producer != nil {
		if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
				slog.Int64("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.invalidateStats(ctx, review.ProductID)

	return review, nil
}

// GetReview returns a single review by ID.
func (s *ReviewService) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProductReviews returns reviews for a product. An empty status defaults
// to approved so the public listing never leaks unmoderated content;
// domain.StatusAll returns everything.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID int64, filter repository.ProductReviewFilter) ([]domain.Review, int, error) {
	if filter.Status == "" {
		filter.Status = domain.ReviewStatusApproved
	}
	if filter.Status != domain.StatusAll && !domain.IsValidStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput("invalid status filter: " + filter.Status)
	}
	return s.repo.ListByProduct(ctx, productID, filter)
}

// ListPendingReviews returns the moderation queue, worst spam offenders first.
func (s *ReviewService) ListPendingReviews(ctx context.Context, filter repository.PendingReviewFilter) ([]domain.Review, int, error) {
	return s.repo.ListPending(ctx, filter)
}

// VoteHelpfulness records a helpful or not-helpful vote on an approved review.
func (s *ReviewService) VoteHelpfulness(ctx context.Context, id int64, helpful bool) (*domain.Review, error) {
	review, err := s.repo.IncrementHelpfulness(ctx, id, helpful)
	if err != nil {
		return nil, err
	}

	vote := "not_helpful"
	if helpful {
		vote = "helpful"
	}
	reviewHelpfulnessVotesTotal.WithLabelValues(vote).Inc()

	s.invalidateStats(ctx, review.ProductID)

	return review, nil
}

// GetStats returns aggregated review statistics for a product, or across all
// products when productID is zero. Results are served from the stats cache
// when available.
func (s *ReviewService) GetStats(ctx context.Context, productID int64) (*domain.ReviewStats, error) {
	if s.statsCache != nil {
		if cached, err := s.statsCache.Get(ctx, productID); err == nil && cached != nil {
			return cached, nil
		}
	}

	stats, err := s.repo.GetStats(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		s.statsCache.Set(ctx, productID, stats)
	}

	return stats, nil
}

// DeleteReview removes a review permanently.
func (s *ReviewService) DeleteReview(ctx context.Context, id int64) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.Int64("review_id", id),
		slog.Int64("product_id", review.ProductID),
	)

	s.invalidateStats(ctx, review.ProductID)

	return nil
}

// validateContent enforces submission constraints on the already-trimmed
// title and comment. The HTTP layer validates the raw request body, but
// trimming can empty a whitespace-padded title or shrink a comment below the
// minimum, so the checks are repeated here against the stored form.
func validateContent(rating int, title, comment string) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if title == "" {
		return apperrors.InvalidInput("title must not be empty")
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return apperrors.InvalidInput(fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength))
	}
	if n := utf8.RuneCountInString(comment); n < domain.MinCommentLength || n > domain.MaxCommentLength {
		return apperrors.InvalidInput(fmt.Sprintf("comment must be between %d and %d characters", domain.MinCommentLength, domain.MaxCommentLength))
	}
	return nil
}

// findDeliveredOrderIDs returns the IDs of every delivered order of the
// customer that contains the product.
func (s *ReviewService) findDeliveredOrderIDs(ctx context.Context, customerID, productID int64) ([]int64, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "list customer orders")
	}

	var ids []int64
	for i := range orders {
		if orders[i].Status == client.OrderStatusDelivered && orders[i].ContainsProduct(productID) {
			ids = append(ids, orders[i].ID)
		}
	}

	return ids, nil
}

func (s *ReviewService) invalidateStats(ctx context.Context, productID int64) {
	if s.statsCache != nil {
		s.statsCache.Invalidate(ctx, productID)
	}
}
