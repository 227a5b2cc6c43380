package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/review-service/internal/domain"
	"github.com/freshmart/review-service/internal/repository"
	apperrors "github.com/freshmart/review-service/pkg/errors"
)

func moderatedReview(id int64, status string) *domain.Review {
	now := time.Now().UTC()
	rv := &domain.Review{
		ID:          id,
		ProductID:   7,
		Status:      status,
		ModeratedBy: "mod@freshmart.com",
		ModeratedAt: &now,
	}
	if status == domain.ReviewStatusApproved {
		rv.ApprovedAt = &now
	}
	if status == domain.ReviewStatusRejected {
		rv.RejectedAt = &now
	}
	return rv
}

func TestModerateReview_Approve(t *testing.T) {
	repo := new(mockReviewRepository)
	publisher := new(mockEventPublisher)
	svc := newTestService(repo, new(mockOrderSource), publisher)
	ctx := context.Background()

	repo.On("UpdateStatus", ctx, int64(42), mock.MatchedBy(func(u repository.ModerationUpdate) bool {
		return u.Status == domain.ReviewStatusApproved &&
			u.ModeratedBy == "mod@freshmart.com" &&
			u.RejectionReason == "" &&
			!u.ModeratedAt.IsZero()
	})).Return(moderatedReview(42, domain.ReviewStatusApproved), nil)
	publisher.On("PublishReviewModerated", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.ModerateReview(ctx, ModerateInput{
		ReviewID:    42,
		Status:      domain.ReviewStatusApproved,
		ModeratedBy: "mod@freshmart.com",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusApproved, review.Status)
	assert.NotNil(t, review.ApprovedAt)
	assert.Nil(t, review.RejectedAt)
	publisher.AssertCalled(t, "PublishReviewModerated", ctx, mock.AnythingOfType("*domain.Review"))
}

func TestModerateReview_RejectRequiresReason(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := newTestService(repo, new(mockOrderSource), nil)

	for _, reason := range []string{"", "   "} {
		_, err := svc.ModerateReview(context.Background(), ModerateInput{
			ReviewID:        42,
			Status:          domain.ReviewStatusRejected,
			ModeratedBy:     "mod@freshmart.com",
			RejectionReason: reason,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestModerateReview_RejectTrimsReason(t *testing.T) {
	repo := new(mockReviewRepository)
	publisher := new(mockEventPublisher)
	svc := newTestService(repo, new(mockOrderSource), publisher)
	ctx := context.Background()

	repo.On("UpdateStatus", ctx, int64(42), mock.MatchedBy(func(u repository.ModerationUpdate) bool {
		return u.Status == domain.ReviewStatusRejected && u.RejectionReason == "offensive language"
	})).Return(moderatedReview(42, domain.ReviewStatusRejected), nil)
	publisher.On("PublishReviewModerated", ctx, mock.Anything).Return(nil)

	_, err := svc.ModerateReview(ctx, ModerateInput{
		ReviewID:        42,
		Status:          domain.ReviewStatusRejected,
		ModeratedBy:     "mod@freshmart.com",
		RejectionReason: "  offensive language  ",
	})

	assert.NoError(t, err)
}

func TestModerateReview_InvalidStatus(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := newTestService(repo, new(mockOrderSource), nil)

	_, err := svc.ModerateReview(context.Background(), ModerateInput{
		ReviewID:    42,
		Status:      domain.ReviewStatusPending,
		ModeratedBy: "mod@freshmart.com",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestModerateReview_AlreadyModerated(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := newTestService(repo, new(mockOrderSource), nil)
	ctx := context.Background()

	repo.On("UpdateStatus", ctx, int64(42), mock.Anything).
		Return(nil, apperrors.Conflict("review is approved"))

	_, err := svc.ModerateReview(ctx, ModerateInput{
		ReviewID:    42,
		Status:      domain.ReviewStatusRejected,
		ModeratedBy: "mod@freshmart.com",
		RejectionReason: "spam",
	})

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestBulkModerate_MixedResults(t *testing.T) {
	repo := new(mockReviewRepository)
	publisher := new(mockEventPublisher)
	svc := newTestService(repo, new(mockOrderSource), publisher)
	ctx := context.Background()

	repo.On("UpdateStatus", ctx, int64(1), mock.Anything).
		Return(moderatedReview(1, domain.ReviewStatusApproved), nil)
	repo.On("UpdateStatus", ctx, int64(2), mock.Anything).
		Return(nil, apperrors.NotFound("review", 2))
	repo.On("UpdateStatus", ctx, int64(3), mock.Anything).
		Return(nil, apperrors.Conflict("review is rejected"))
	publisher.On("PublishReviewModerated", ctx, mock.Anything).Return(nil)

	results, err := svc.BulkModerate(ctx, BulkModerateInput{
		ReviewIDs:   []int64{1, 2, 3},
		Status:      domain.ReviewStatusApproved,
		ModeratedBy: "mod@freshmart.com",
	})

	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results come back in input order.
	assert.Equal(t, int64(1), results[0].ReviewID)
	assert.True(t, results[0].Success)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, int64(2), results[1].ReviewID)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "not found")

	assert.Equal(t, int64(3), results[2].ReviewID)
	assert.False(t, results[2].Success)
	assert.Contains(t, results[2].Error, "CONFLICT")
}

func TestBulkModerate_EmptyIDs(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := newTestService(repo, new(mockOrderSource), nil)

	results, err := svc.BulkModerate(context.Background(), BulkModerateInput{
		ReviewIDs:   nil,
		Status:      domain.ReviewStatusApproved,
		ModeratedBy: "mod@freshmart.com",
	})

	assert.Nil(t, results)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBulkModerate_RejectWithoutReasonFailsBeforeAnyUpdate(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := newTestService(repo, new(mockOrderSource), nil)

	results, err := svc.BulkModerate(context.Background(), BulkModerateInput{
		ReviewIDs:   []int64{1, 2, 3},
		Status:      domain.ReviewStatusRejected,
		ModeratedBy: "mod@freshmart.com",
	})

	assert.Nil(t, results)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "UpdateStatus")
}
