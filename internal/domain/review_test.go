package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(ReviewStatusPending))
	assert.True(t, IsValidStatus(ReviewStatusApproved))
	assert.True(t, IsValidStatus(ReviewStatusRejected))
	assert.False(t, IsValidStatus("published"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus(StatusAll))
}

func TestCanTransitionTo(t *testing.T) {
	pending := &Review{Status: ReviewStatusPending}
	assert.True(t, pending.CanTransitionTo(ReviewStatusApproved))
	assert.True(t, pending.CanTransitionTo(ReviewStatusRejected))
	assert.False(t, pending.CanTransitionTo(ReviewStatusPending))

	approved := &Review{Status: ReviewStatusApproved}
	assert.False(t, approved.CanTransitionTo(ReviewStatusRejected))
	assert.False(t, approved.CanTransitionTo(ReviewStatusPending))

	rejected := &Review{Status: ReviewStatusRejected}
	assert.False(t, rejected.CanTransitionTo(ReviewStatusApproved))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.False(t, IsTerminalStatus(ReviewStatusPending))
	assert.True(t, IsTerminalStatus(ReviewStatusApproved))
	assert.True(t, IsTerminalStatus(ReviewStatusRejected))
}

func TestIsModerated(t *testing.T) {
	assert.False(t, (&Review{Status: ReviewStatusPending}).IsModerated())
	assert.True(t, (&Review{Status: ReviewStatusApproved}).IsModerated())
	assert.True(t, (&Review{Status: ReviewStatusRejected}).IsModerated())
}

func TestSpamLevelThreshold(t *testing.T) {
	min, ok := SpamLevelThreshold(SpamLevelHigh)
	assert.True(t, ok)
	assert.Equal(t, 0.7, min)

	min, ok = SpamLevelThreshold(SpamLevelMedium)
	assert.True(t, ok)
	assert.Equal(t, 0.4, min)

	min, ok = SpamLevelThreshold(SpamLevelLow)
	assert.True(t, ok)
	assert.Equal(t, 0.0, min)

	_, ok = SpamLevelThreshold("extreme")
	assert.False(t, ok)
}

func TestSpamLevelForScore(t *testing.T) {
	assert.Equal(t, SpamLevelLow, SpamLevelForScore(0.0))
	assert.Equal(t, SpamLevelLow, SpamLevelForScore(0.39))
	assert.Equal(t, SpamLevelMedium, SpamLevelForScore(0.4))
	assert.Equal(t, SpamLevelMedium, SpamLevelForScore(0.69))
	assert.Equal(t, SpamLevelHigh, SpamLevelForScore(0.7))
	assert.Equal(t, SpamLevelHigh, SpamLevelForScore(1.0))
}

func TestEligibilityMessage(t *testing.T) {
	assert.Equal(t,
		"You must purchase and receive this product before reviewing",
		EligibilityMessage(EligibilityReasonNoPurchase),
	)
	assert.Equal(t,
		"You have already reviewed this product",
		EligibilityMessage(EligibilityReasonAlreadyReviewed),
	)
	assert.Equal(t,
		"You are not eligible to review this product",
		EligibilityMessage("unknown_reason"),
	)
}

func TestNewReviewStats_AllBucketsPresent(t *testing.T) {
	stats := NewReviewStats()
	for rating := MinRating; rating <= MaxRating; rating++ {
		count, ok := stats.RatingDistribution[rating]
		assert.True(t, ok, "bucket %d missing", rating)
		assert.Zero(t, count)
	}
	assert.Zero(t, stats.AverageRating)
	assert.Zero(t, stats.Total)
}
