// Package spam implements the heuristic risk scoring applied to every
// review at submission time. The score is a deterministic accumulation of
// independent penalties, clamped to [0, 1]; it never blocks a submission,
// it only drives the moderation queue ordering and risk badges.
package spam

import (
	"strings"
	"unicode"
)

// Penalty weights. Each condition contributes at most once, except the
// denylist which counts per matching phrase.
const (
	penaltyExcessiveCaps    = 0.3
	penaltyRepeatedPunct    = 0.2
	penaltyShortComment     = 0.3
	penaltyDenylistedPhrase = 0.2
	penaltyRepeatedChars    = 0.2
)

// capsRatioLimit is the uppercase-letter ratio above which a comment is
// penalized as shouting.
const capsRatioLimit = 0.5

// shortCommentLimit mirrors the submission-time minimum. Submissions below
// it are rejected before scoring, so this penalty only fires for records
// that bypass validation.
const shortCommentLimit = 10

// denylist holds phrases that each add a penalty when found in the title or
// comment, case-insensitively.
var denylist = []string{"fake", "scam", "terrible", "worst", "never buy"}

// Score computes the spam risk score in [0, 1] for a review's title and
// comment. Pure and deterministic.
func Score(title, comment string) float64 {
	var score float64

	if capsRatio(comment) > capsRatioLimit {
		score += penaltyExcessiveCaps
	}

	if hasRepeatedPunctuation(comment) {
		score += penaltyRepeatedPunct
	}

	loweredTitle := strings.ToLower(title)
	loweredComment := strings.ToLower(comment)
	for _, phrase := range denylist {
		if strings.Contains(loweredTitle, phrase) || strings.Contains(loweredComment, phrase) {
			score += penaltyDenylistedPhrase
		}
	}

	if len([]rune(comment)) < shortCommentLimit {
		score += penaltyShortComment
	}

	if hasRepeatedRun(comment, 4) {
		score += penaltyRepeatedChars
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// capsRatio returns the fraction of the comment's runes that are uppercase
// letters. An empty comment has ratio 0.
func capsRatio(comment string) float64 {
	runes := []rune(comment)
	if len(runes) == 0 {
		return 0
	}
	upper := 0
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper) / float64(len(runes))
}

// hasRepeatedPunctuation reports whether the comment contains two or more
// consecutive '!' or '?' characters, in any combination.
func hasRepeatedPunctuation(comment string) bool {
	run := 0
	for _, r := range comment {
		if r == '!' || r == '?' {
			run++
			if run >= 2 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// hasRepeatedRun reports whether any single character repeats at least n
// times consecutively.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
