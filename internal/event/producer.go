package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/freshmart/review-service/internal/domain"
	pkgkafka "github.com/freshmart/review-service/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewSubmitted = "freshmart.review.submitted"
	TopicReviewModerated = "freshmart.review.moderated"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the review service.
const SourceReviewService = "review-service"

// ReviewSubmittedData is the payload for a review.submitted event. Consumers
// include the moderation dashboard, which alerts on high spam levels.
type ReviewSubmittedData struct {
	ReviewID      int64     `json:"review_id"`
	ProductID     int64     `json:"product_id"`
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Rating        int       `json:"rating"`
	Title         string    `json:"title"`
	SpamScore     float64   `json:"spam_score"`
	SpamLevel     string    `json:"spam_level"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ReviewModeratedData is the payload for a review.moderated event. The
// notification service emails the customer about the outcome.
type ReviewModeratedData struct {
	ReviewID        int64     `json:"review_id"`
	ProductID       int64     `json:"product_id"`
	CustomerID      int64     `json:"customer_id"`
	CustomerEmail   string    `json:"customer_email"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	ModeratedBy     string    `json:"moderated_by"`
	ModeratedAt     time.Time `json:"moderated_at"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	data := ReviewSubmittedData{
		ReviewID:      review.ID,
		ProductID:     review.ProductID,
		CustomerID:    review.CustomerID,
		CustomerName:  review.CustomerName,
		CustomerEmail: review.CustomerEmail,
		Rating:        review.Rating,
		Title:         review.Title,
		SpamScore:     review.SpamScore,
		SpamLevel:     domain.SpamLevelForScore(review.SpamScore),
		SubmittedAt:   review.CreatedAt,
	}

	aggregateID := strconv.FormatInt(review.ID, 10)
	event, err := pkgkafka.NewEvent(TopicReviewSubmitted, aggregateID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.submitted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewSubmitted, event); err != nil {
		return fmt.Errorf("publish review.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.submitted event",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Float64("spam_score", review.SpamScore),
	)

	return nil
}

// PublishReviewModerated publishes a review.moderated event.
func (p *Producer) PublishReviewModerated(ctx context.Context, review *domain.Review) error {
	moderatedAt := time.Now().UTC()
	if review.ModeratedAt != nil {
		moderatedAt = *review.ModeratedAt
	}

	data := ReviewModeratedData{
		ReviewID:        review.ID,
		ProductID:       review.ProductID,
		CustomerID:      review.CustomerID,
		CustomerEmail:   review.CustomerEmail,
		Title:           review.Title,
		Status:          review.Status,
		ModeratedBy:     review.ModeratedBy,
		ModeratedAt:     moderatedAt,
		RejectionReason: review.RejectionReason,
	}

	aggregateID := strconv.FormatInt(review.ID, 10)
	event, err := pkgkafka.NewEvent(TopicReviewModerated, aggregateID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.moderated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewModerated, event); err != nil {
		return fmt.Errorf("publish review.moderated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.moderated event",
		slog.Int64("review_id", review.ID),
		slog.String("status", review.Status),
	)

	return nil
}
