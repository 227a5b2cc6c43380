package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/review-service/internal/domain"
	"github.com/freshmart/review-service/internal/repository"
	apperrors "github.com/freshmart/review-service/pkg/errors"
)

func newReview(customerID, productID int64, status string) *domain.Review {
	return &domain.Review{
		ProductID:          productID,
		CustomerID:         customerID,
		OrderID:            9000 + customerID,
		CustomerName:       "Test Customer",
		CustomerEmail:      "customer@example.com",
		Rating:             4,
		Title:              "Solid purchase",
		Comment:            "Does what it says on the tin, no complaints.",
		Status:             status,
		IsVerifiedPurchase: true,
	}
}

func TestCreate_AssignsIDAndTimestamp(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	rv := newReview(101, 1, domain.ReviewStatusPending)
	require.NoError(t, repo.Create(ctx, rv))

	assert.Equal(t, int64(1), rv.ID)
	assert.False(t, rv.CreatedAt.IsZero())

	stored, err := repo.GetByID(ctx, rv.ID)
	require.NoError(t, err)
	assert.Equal(t, rv.Title, stored.Title)
}

func TestCreate_DuplicateCustomerProduct(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newReview(101, 1, domain.ReviewStatusPending)))

	err := repo.Create(ctx, newReview(101, 1, domain.ReviewStatusPending))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Same customer, different product is fine.
	assert.NoError(t, repo.Create(ctx, newReview(101, 2, domain.ReviewStatusPending)))
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewReviewRepository()

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetByCustomerAndProduct(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newReview(101, 1, domain.ReviewStatusRejected)))

	// Found regardless of status.
	got, err := repo.GetByCustomerAndProduct(ctx, 101, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusRejected, got.Status)

	_, err = repo.GetByCustomerAndProduct(ctx, 101, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListByProduct_FiltersAndSortsNewestFirst(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	older := newReview(101, 1, domain.ReviewStatusApproved)
	older.CreatedAt = now.Add(-2 * time.Hour)
	newer := newReview(102, 1, domain.ReviewStatusApproved)
	newer.CreatedAt = now.Add(-1 * time.Hour)
	pending := newReview(103, 1, domain.ReviewStatusPending)
	otherProduct := newReview(104, 2, domain.ReviewStatusApproved)

	for _, rv := range []*domain.Review{older, newer, pending, otherProduct} {
		require.NoError(t, repo.Create(ctx, rv))
	}

	reviews, total, err := repo.ListByProduct(ctx, 1, repository.ProductReviewFilter{
		Status: domain.ReviewStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, reviews, 2)
	assert.Equal(t, newer.CustomerID, reviews[0].CustomerID)
	assert.Equal(t, older.CustomerID, reviews[1].CustomerID)

	// StatusAll includes the pending review too.
	_, total, err = repo.ListByProduct(ctx, 1, repository.ProductReviewFilter{Status: domain.StatusAll})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestListByProduct_Pagination(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		rv := newReview(100+i, 1, domain.ReviewStatusApproved)
		rv.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, rv))
	}

	reviews, total, err := repo.ListByProduct(ctx, 1, repository.ProductReviewFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, reviews, 2)

	reviews, total, err = repo.ListByProduct(ctx, 1, repository.ProductReviewFilter{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, reviews)
}

func TestListPending_SortsBySpamScoreThenRecency(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	a := newReview(101, 1, domain.ReviewStatusPending)
	a.SpamScore = 0.9
	a.CreatedAt = now.Add(-3 * time.Hour)
	b := newReview(102, 1, domain.ReviewStatusPending)
	b.SpamScore = 0.2
	b.CreatedAt = now.Add(-2 * time.Hour)
	c := newReview(103, 1, domain.ReviewStatusPending)
	c.SpamScore = 0.9
	c.CreatedAt = now.Add(-1 * time.Hour)
	approved := newReview(104, 1, domain.ReviewStatusApproved)

	for _, rv := range []*domain.Review{a, b, c, approved} {
		require.NoError(t, repo.Create(ctx, rv))
	}

	reviews, total, err := repo.ListPending(ctx, repository.PendingReviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, reviews, 3)

	// Equal spam scores break ties by recency.
	assert.Equal(t, c.CustomerID, reviews[0].CustomerID)
	assert.Equal(t, a.CustomerID, reviews[1].CustomerID)
	assert.Equal(t, b.CustomerID, reviews[2].CustomerID)
}

func TestListPending_SpamLevelIsFloor(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	low := newReview(101, 1, domain.ReviewStatusPending)
	low.SpamScore = 0.1
	medium := newReview(102, 1, domain.ReviewStatusPending)
	medium.SpamScore = 0.5
	high := newReview(103, 1, domain.ReviewStatusPending)
	high.SpamScore = 0.8

	for _, rv := range []*domain.Review{low, medium, high} {
		require.NoError(t, repo.Create(ctx, rv))
	}

	// "medium" includes high-scored reviews as well.
	_, total, err := repo.ListPending(ctx, repository.PendingReviewFilter{SpamLevel: domain.SpamLevelMedium})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = repo.ListPending(ctx, repository.PendingReviewFilter{SpamLevel: domain.SpamLevelLow})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, _, err = repo.ListPending(ctx, repository.PendingReviewFilter{SpamLevel: "extreme"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestListPending_DateRange(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	old := newReview(101, 1, domain.ReviewStatusPending)
	old.CreatedAt = now.Add(-72 * time.Hour)
	recent := newReview(102, 1, domain.ReviewStatusPending)
	recent.CreatedAt = now.Add(-1 * time.Hour)

	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))

	from := now.Add(-24 * time.Hour)
	reviews, total, err := repo.ListPending(ctx, repository.PendingReviewFilter{DateFrom: &from})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, recent.CustomerID, reviews[0].CustomerID)
}

func TestUpdateStatus_ApprovesPendingReview(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	rv := newReview(101, 1, domain.ReviewStatusPending)
	require.NoError(t, repo.Create(ctx, rv))

	moderatedAt := time.Now().UTC()
	updated, err := repo.UpdateStatus(ctx, rv.ID, repository.ModerationUpdate{
		Status:      domain.ReviewStatusApproved,
		ModeratedBy: "mod@freshmart.com",
		ModeratedAt: moderatedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusApproved, updated.Status)
	assert.Equal(t, "mod@freshmart.com", updated.ModeratedBy)
	require.NotNil(t, updated.ApprovedAt)
	assert.Equal(t, moderatedAt, *updated.ApprovedAt)
	assert.Nil(t, updated.RejectedAt)
}

func TestUpdateStatus_RejectRecordsReason(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	rv := newReview(101, 1, domain.ReviewStatusPending)
	require.NoError(t, repo.Create(ctx, rv))

	updated, err := repo.UpdateStatus(ctx, rv.ID, repository.ModerationUpdate{
		Status:          domain.ReviewStatusRejected,
		ModeratedBy:     "mod@freshmart.com",
		ModeratedAt:     time.Now().UTC(),
		RejectionReason: "spam content",
	})

	require.NoError(t, err)
	assert.Equal(t, "spam content", updated.RejectionReason)
	assert.NotNil(t, updated.RejectedAt)
}

func TestUpdateStatus_OnlyPendingReviews(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	rv := newReview(101, 1, domain.ReviewStatusApproved)
	require.NoError(t, repo.Create(ctx, rv))

	_, err := repo.UpdateStatus(ctx, rv.ID, repository.ModerationUpdate{
		Status:      domain.ReviewStatusRejected,
		ModeratedBy: "mod@freshmart.com",
		ModeratedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = repo.UpdateStatus(ctx, 999, repository.ModerationUpdate{
		Status:      domain.ReviewStatusApproved,
		ModeratedBy: "mod@freshmart.com",
		ModeratedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestIncrementHelpfulness(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	rv := newReview(101, 1, domain.ReviewStatusApproved)
	require.NoError(t, repo.Create(ctx, rv))

	updated, err := repo.IncrementHelpfulness(ctx, rv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Helpful)
	assert.Equal(t, 0, updated.NotHelpful)

	updated, err = repo.IncrementHelpfulness(ctx, rv.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Helpful)
	assert.Equal(t, 1, updated.NotHelpful)
}

func TestIncrementHelpfulness_ApprovedOnly(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	rv := newReview(101, 1, domain.ReviewStatusPending)
	require.NoError(t, repo.Create(ctx, rv))

	_, err := repo.IncrementHelpfulness(ctx, rv.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = repo.IncrementHelpfulness(ctx, 999, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetStats_ApprovedOnlyAverage(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	ratings := []struct {
		customerID int64
		rating     int
		status     string
	}{
		{101, 5, domain.ReviewStatusApproved},
		{102, 4, domain.ReviewStatusApproved},
		{103, 3, domain.ReviewStatusApproved},
		{104, 1, domain.ReviewStatusPending},
		{105, 1, domain.ReviewStatusRejected},
	}
	for _, r := range ratings {
		rv := newReview(r.customerID, 1, r.status)
		rv.Rating = r.rating
		require.NoError(t, repo.Create(ctx, rv))
	}

	stats, err := repo.GetStats(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Approved)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Rejected)
	// (5+4+3)/3 = 4.0; pending and rejected ratings are excluded.
	assert.Equal(t, 4.0, stats.AverageRating)
	assert.Equal(t, 1, stats.RatingDistribution[5])
	assert.Equal(t, 1, stats.RatingDistribution[4])
	assert.Equal(t, 1, stats.RatingDistribution[3])
	assert.Zero(t, stats.RatingDistribution[1])
}

func TestGetStats_NoApprovedReviews(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newReview(101, 1, domain.ReviewStatusPending)))

	stats, err := repo.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, stats.AverageRating)
	assert.Equal(t, 1, stats.Pending)
}

func TestGetStats_GlobalVsProduct(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	p1 := newReview(101, 1, domain.ReviewStatusApproved)
	p1.Rating = 5
	p2 := newReview(102, 2, domain.ReviewStatusApproved)
	p2.Rating = 1
	require.NoError(t, repo.Create(ctx, p1))
	require.NoError(t, repo.Create(ctx, p2))

	global, err := repo.GetStats(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, global.Total)
	assert.Equal(t, 3.0, global.AverageRating)

	product, err := repo.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, product.Total)
	assert.Equal(t, 5.0, product.AverageRating)
}

func TestDelete(t *testing.T) {
	repo := NewReviewRepository()
	ctx := context.Background()

	rv := newReview(101, 1, domain.ReviewStatusApproved)
	require.NoError(t, repo.Create(ctx, rv))

	require.NoError(t, repo.Delete(ctx, rv.ID))

	_, err := repo.GetByID(ctx, rv.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, rv.ID), apperrors.ErrNotFound)
}

func TestSeededRepository(t *testing.T) {
	repo := NewSeededReviewRepository()
	ctx := context.Background()

	reviews, total, err := repo.ListByProduct(ctx, 1, repository.ProductReviewFilter{Status: domain.ReviewStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, reviews, 2)

	pending, total, err := repo.ListPending(ctx, repository.PendingReviewFilter{SpamLevel: domain.SpamLevelHigh})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.ReviewStatusPending, pending[0].Status)
}
