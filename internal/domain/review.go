package domain

import "time"

// Review status constants.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// StatusAll is accepted by listing filters to bypass status filtering.
const StatusAll = "all"

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Content length limits enforced at submission time.
const (
	MaxTitleLength   = 100
	MinCommentLength = 10
	MaxCommentLength = 1000
)

// Review represents a customer product review and its moderation state.
//
// CustomerName and CustomerEmail are denormalized snapshots taken from the
// order at submission time and are never re-fetched. SpamScore is computed
// once at creation and is immutable thereafter.
type Review struct {
	ID                 int64      `json:"id"`
	ProductID          int64      `json:"product_id"`
	CustomerID         int64      `json:"customer_id"`
	OrderID            int64      `json:"order_id"`
	CustomerName       string     `json:"customer_name"`
	CustomerEmail      string     `json:"customer_email"`
	Rating             int        `json:"rating"`
	Title              string     `json:"title"`
	Comment            string     `json:"comment"`
	Status             string     `json:"status"`
	SpamScore          float64    `json:"spam_score"`
	IsVerifiedPurchase bool       `json:"is_verified_purchase"`
	Helpful            int        `json:"helpful"`
	NotHelpful         int        `json:"not_helpful"`
	CreatedAt          time.Time  `json:"created_at"`
	ModeratedBy        string     `json:"moderated_by,omitempty"`
	ModeratedAt        *time.Time `json:"moderated_at,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`
}

// ValidStatuses returns all valid review statuses.
func ValidStatuses() []string {
	return []string{
		ReviewStatusPending,
		ReviewStatusApproved,
		ReviewStatusRejected,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a status permits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == ReviewStatusApproved || status == ReviewStatusRejected
}

// AllowedTransitions defines which status transitions are valid. Moderation
// is one-directional: pending reviews may be approved or rejected, and both
// outcomes are terminal.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		ReviewStatusPending:  {ReviewStatusApproved, ReviewStatusRejected},
		ReviewStatusApproved: {},
		ReviewStatusRejected: {},
	}
}

// CanTransitionTo checks if the review can transition to the target status.
func (r *Review) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[r.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsModerated reports whether the review has left the pending state.
func (r *Review) IsModerated() bool {
	return IsTerminalStatus(r.Status)
}

// Spam level constants used by the moderation queue filter.
const (
	SpamLevelHigh   = "high"
	SpamLevelMedium = "medium"
	SpamLevelLow    = "low"
)

// Spam score thresholds for each level.
const (
	SpamThresholdHigh   = 0.7
	SpamThresholdMedium = 0.4
)

// SpamLevelThreshold returns the minimum spam score covered by the given
// level. The boolean is false for an unknown level.
func SpamLevelThreshold(level string) (float64, bool) {
	switch level {
	case SpamLevelHigh:
		return SpamThresholdHigh, true
	case SpamLevelMedium:
		return SpamThresholdMedium, true
	case SpamLevelLow:
		return 0.0, true
	default:
		return 0, false
	}
}

// SpamLevelForScore classifies a spam score into a level.
func SpamLevelForScore(score float64) string {
	switch {
	case score >= SpamThresholdHigh:
		return SpamLevelHigh
	case score >= SpamThresholdMedium:
		return SpamLevelMedium
	default:
		return SpamLevelLow
	}
}

// Eligibility reason codes returned when a customer may not review a product.
const (
	EligibilityReasonNoPurchase      = "no_purchase"
	EligibilityReasonAlreadyReviewed = "already_reviewed"
)

// EligibilityMessage returns the user-facing message for a reason code.
func EligibilityMessage(reason string) string {
	switch reason {
	case EligibilityReasonNoPurchase:
		return "You must purchase and receive this product before reviewing"
	case EligibilityReasonAlreadyReviewed:
		return "You have already reviewed this product"
	default:
		return "You are not eligible to review this product"
	}
}

// ReviewStats contains aggregate review statistics, either per product or
// across all products. AverageRating and RatingDistribution cover approved
// reviews only; TotalHelpful sums helpful votes regardless of status.
type ReviewStats struct {
	Total              int         `json:"total"`
	Approved           int         `json:"approved"`
	Pending            int         `json:"pending"`
	Rejected           int         `json:"rejected"`
	AverageRating      float64     `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	TotalHelpful       int         `json:"total_helpful"`
}

// NewReviewStats returns a zero-valued stats object with all rating buckets present.
func NewReviewStats() *ReviewStats {
	return &ReviewStats{
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
}
