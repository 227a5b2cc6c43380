package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reviewSubmissionsTotal counts accepted review submissions.
	reviewSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_submissions_total",
			Help: "Total number of reviews accepted into the moderation queue",
		},
	)

	// reviewModerationsTotal counts moderation decisions by outcome.
	reviewModerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_moderations_total",
			Help: "Total number of moderation decisions applied",
		},
		[]string{"status"},
	)

	// reviewSpamScore observes the spam score of submitted reviews.
	reviewSpamScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_spam_score",
			Help:    "Spam score distribution of submitted reviews",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// reviewHelpfulnessVotesTotal counts helpfulness votes by direction.
	reviewHelpfulnessVotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_helpfulness_votes_total",
			Help: "Total number of helpfulness votes recorded",
		},
		[]string{"vote"},
	)
)
