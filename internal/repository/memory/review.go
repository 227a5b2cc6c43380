package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/freshmart/review-service/internal/domain"
	"github.com/freshmart/review-service/internal/repository"
	apperrors "github.com/freshmart/review-service/pkg/errors"
)

// ReviewRepository is an in-memory implementation of
// repository.ReviewRepository used for local development and demos. It is
// safe for concurrent use.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[int64]*domain.Review
	nextID  int64
}

// NewReviewRepository creates an empty in-memory review repository.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{
		reviews: make(map[int64]*domain.Review),
		nextID:  1,
	}
}

// NewSeededReviewRepository creates an in-memory repository pre-populated
// with a few reviews so the public endpoints return data out of the box.
func NewSeededReviewRepository() *ReviewRepository {
	r := NewReviewRepository()
	now := time.Now().UTC()

	approvedAt1 := now.Add(-72 * time.Hour)
	moderatedAt1 := approvedAt1
	approvedAt2 := now.Add(-24 * time.Hour)
	moderatedAt2 := approvedAt2

	seeds := []*domain.Review{
		{
			ProductID:          1,
			CustomerID:         101,
			OrderID:            5001,
			CustomerName:       "Alice Morgan",
			CustomerEmail:      "alice.morgan@example.com",
			Rating:             5,
			Title:              "Fresh and fast",
			Comment:            "Everything arrived cold and well packed, will order again.",
			Status:             domain.ReviewStatusApproved,
			SpamScore:          0,
			IsVerifiedPurchase: true,
			Helpful:            4,
			CreatedAt:          now.Add(-96 * time.Hour),
			ModeratedBy:        "admin@freshmart.com",
			ModeratedAt:        &moderatedAt1,
			ApprovedAt:         &approvedAt1,
		},
		{
			ProductID:          1,
			CustomerID:         102,
			OrderID:            5002,
			CustomerName:       "Ben Carter",
			CustomerEmail:      "ben.carter@example.com",
			Rating:             4,
			Title:              "Good value",
			Comment:            "Produce quality was better than my local store.",
			Status:             domain.ReviewStatusApproved,
			SpamScore:          0,
			IsVerifiedPurchase: true,
			Helpful:            1,
			CreatedAt:          now.Add(-48 * time.Hour),
			ModeratedBy:        "admin@freshmart.com",
			ModeratedAt:        &moderatedAt2,
			ApprovedAt:         &approvedAt2,
		},
		{
			ProductID:          2,
			CustomerID:         103,
			OrderID:            5003,
			CustomerName:       "Cara Diaz",
			CustomerEmail:      "cara.diaz@example.com",
			Rating:             1,
			Title:              "TERRIBLE!!",
			Comment:            "worst",
			Status:             domain.ReviewStatusPending,
			SpamScore:          1.0,
			IsVerifiedPurchase: true,
			CreatedAt:          now.Add(-2 * time.Hour),
		},
	}

	for _, s := range seeds {
		s.ID = r.nextID
		r.reviews[s.ID] = s
		r.nextID++
	}

	return r
}

// Create inserts a review and assigns its ID and creation timestamp.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews {
		if existing.CustomerID == review.CustomerID && existing.ProductID == review.ProductID {
			return apperrors.Conflict("customer has already reviewed this product")
		}
	}

	review.ID = r.nextID
	r.nextID++
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	cpy := *review
	r.reviews[review.ID] = &cpy
	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cpy := *review
	return &cpy, nil
}

// GetByCustomerAndProduct retrieves a customer's review of a product in any status.
func (r *ReviewRepository) GetByCustomerAndProduct(ctx context.Context, customerID, productID int64) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, review := range r.reviews {
		if review.CustomerID == customerID && review.ProductID == productID {
			cpy := *review
			return &cpy, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListByProduct returns reviews for a product matching the filter, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64, filter repository.ProductReviewFilter) ([]domain.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Review
	for _, review := range r.reviews {
		if review.ProductID != productID {
			continue
		}
		if filter.Status != "" && filter.Status != domain.StatusAll && review.Status != filter.Status {
			continue
		}
		matched = append(matched, *review)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset)
}

// ListPending returns pending reviews ordered by spam score descending, then
// newest first.
func (r *ReviewRepository) ListPending(ctx context.Context, filter repository.PendingReviewFilter) ([]domain.Review, int, error) {
	var minScore float64
	if filter.SpamLevel != "" {
		min, ok := domain.SpamLevelThreshold(filter.SpamLevel)
		if !ok {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown spam level %q", filter.SpamLevel))
		}
		minScore = min
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Review
	for _, review := range r.reviews {
		if review.Status != domain.ReviewStatusPending {
			continue
		}
		if filter.SpamLevel != "" && review.SpamScore < minScore {
			continue
		}
		if filter.ProductID != 0 && review.ProductID != filter.ProductID {
			continue
		}
		if filter.DateFrom != nil && review.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && review.CreatedAt.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, *review)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SpamScore != matched[j].SpamScore {
			return matched[i].SpamScore > matched[j].SpamScore
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset)
}

// UpdateStatus applies a moderation decision to a pending review.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id int64, update repository.ModerationUpdate) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	if review.Status != domain.ReviewStatusPending {
		return nil, apperrors.Conflict(fmt.Sprintf("review is %s", review.Status))
	}

	review.Status = update.Status
	review.ModeratedBy = update.ModeratedBy
	moderatedAt := update.ModeratedAt
	review.ModeratedAt = &moderatedAt

	switch update.Status {
	case domain.ReviewStatusApproved:
		approvedAt := update.ModeratedAt
		review.ApprovedAt = &approvedAt
	case domain.ReviewStatusRejected:
		rejectedAt := update.ModeratedAt
		review.RejectedAt = &rejectedAt
		review.RejectionReason = update.RejectionReason
	}

	cpy := *review
	return &cpy, nil
}

// IncrementHelpfulness adds one vote to an approved review.
func (r *ReviewRepository) IncrementHelpfulness(ctx context.Context, id int64, helpful bool) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	if review.Status != domain.ReviewStatusApproved {
		return nil, apperrors.Conflict(fmt.Sprintf("review is %s", review.Status))
	}

	if helpful {
		review.Helpful++
	} else {
		review.NotHelpful++
	}

	cpy := *review
	return &cpy, nil
}

// GetStats aggregates review statistics for one product, or across all
// products when productID is zero.
func (r *ReviewRepository) GetStats(ctx context.Context, productID int64) (*domain.ReviewStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.NewReviewStats()
	var ratingSum int

	for _, review := range r.reviews {
		if productID != 0 && review.ProductID != productID {
			continue
		}

		stats.Total++
		stats.TotalHelpful += review.Helpful

		switch review.Status {
		case domain.ReviewStatusApproved:
			stats.Approved++
			ratingSum += review.Rating
			stats.RatingDistribution[review.Rating]++
		case domain.ReviewStatusPending:
			stats.Pending++
		case domain.ReviewStatusRejected:
			stats.Rejected++
		}
	}

	if stats.Approved > 0 {
		avg := float64(ratingSum) / float64(stats.Approved)
		stats.AverageRating = math.Round(avg*10) / 10
	}

	return stats, nil
}

// Delete removes a review permanently.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(r.reviews, id)
	return nil
}

func paginate(reviews []domain.Review, limit, offset int) ([]domain.Review, int, error) {
	total := len(reviews)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if offset >= total {
		return []domain.Review{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return reviews[offset:end], total, nil
}
