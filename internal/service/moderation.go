package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/freshmart/review-service/internal/domain"
	"github.com/freshmart/review-service/internal/repository"
	apperrors "github.com/freshmart/review-service/pkg/errors"
)

// ModerateInput carries a single moderation decision.
type ModerateInput struct {
	ReviewID        int64
	Status          string
	ModeratedBy     string
	RejectionReason string
}

// BulkModerateInput carries one decision applied to many reviews at once.
type BulkModerateInput struct {
	ReviewIDs       []int64
	Status          string
	ModeratedBy     string
	RejectionReason string
}

// BulkModerateResult reports the per-review outcome of a bulk operation.
type BulkModerateResult struct {
	ReviewID int64  `json:"review_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// maxBulkConcurrency bounds the number of moderation decisions applied in
// parallel during a bulk operation.
const maxBulkConcurrency = 8

// ModerateReview applies an approve or reject decision to a pending review.
// Rejections require a non-empty reason. The decision is atomic: a review
// that has already left the pending state yields a conflict. The
// review.moderated event is published best-effort.
func (s *ReviewService) ModerateReview(ctx context.Context, input ModerateInput) (*domain.Review, error) {
	if err := validateModeration(input.Status, input.ModeratedBy, input.RejectionReason); err != nil {
		return nil, err
	}

	update := repository.ModerationUpdate{
		Status:      input.Status,
		ModeratedBy: input.ModeratedBy,
		ModeratedAt: time.Now().UTC(),
	}
	if input.Status == domain.ReviewStatusRejected {
		update.RejectionReason = strings.TrimSpace(input.RejectionReason)
	}

	review, err := s.repo.UpdateStatus(ctx, input.ReviewID, update)
	if err != nil {
		return nil, err
	}

	reviewModerationsTotal.WithLabelValues(review.Status).Inc()

	s.logger.InfoContext(ctx, "review moderated",
		slog.Int64("review_id", review.ID),
		slog.String("status", review.Status),
		slog.String("moderated_by", review.ModeratedBy),
	)

	if s.producer != nil {
		if err := s.producer.PublishReviewModerated(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
				slog.Int64("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.invalidateStats(ctx, review.ProductID)

	return review, nil
}

// BulkModerate applies one decision to many reviews. The shared fields are
// validated once up front; per-review failures (missing, already moderated)
// do not stop the rest of the batch. Results are returned in input order.
func (s *ReviewService) BulkModerate(ctx context.Context, input BulkModerateInput) ([]BulkModerateResult, error) {
	if len(input.ReviewIDs) == 0 {
		return nil, apperrors.InvalidInput("review_ids must not be empty")
	}
	if err := validateModeration(input.Status, input.ModeratedBy, input.RejectionReason); err != nil {
		return nil, err
	}

	results := make([]BulkModerateResult, len(input.ReviewIDs))
	sem := make(chan struct{}, maxBulkConcurrency)

	var wg sync.WaitGroup
	for i, id := range input.ReviewIDs {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			_, err := s.ModerateReview(ctx, ModerateInput{
				ReviewID:        id,
				Status:          input.Status,
				ModeratedBy:     input.ModeratedBy,
				RejectionReason: input.RejectionReason,
			})
			if err != nil {
				results[i] = BulkModerateResult{ReviewID: id, Error: err.Error()}
				return
			}
			results[i] = BulkModerateResult{ReviewID: id, Success: true}
		}(i, id)
	}
	wg.Wait()

	return results, nil
}

// validateModeration checks the shared fields of a moderation decision.
func validateModeration(status, moderatedBy, rejectionReason string) error {
	if status != domain.ReviewStatusApproved && status != domain.ReviewStatusRejected {
		return apperrors.InvalidInput("status must be approved or rejected")
	}
	if strings.TrimSpace(moderatedBy) == "" {
		return apperrors.InvalidInput("moderated_by is required")
	}
	if status == domain.ReviewStatusRejected && strings.TrimSpace(rejectionReason) == "" {
		return apperrors.InvalidInput("rejection_reason is required when rejecting")
	}
	return nil
}
