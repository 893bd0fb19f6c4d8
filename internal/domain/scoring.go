package domain

import (
	"strings"
	"time"
)

const (
	// Scoring weights
	ScoreBlankQuery = 2
	ScoreTitleMatch = 8 // title match dominates
	ScoreExcerptHit = 4
	ScoreTagHit     = 3
	ScoreRoleAffine = 3
	ScoreRecent     = 2

	// Popularity: one point per ClicksPerPoint clicks, capped
	ClicksPerPoint     = 15
	ScorePopularityCap = 5

	// ScoreExclusionPenalty is applied once per violated hard filter.
	// It always lands the document below ExclusionFloor.
	ScoreExclusionPenalty = -100

	// VerifiedWindow is how recent LastVerified must be to count as verified.
	VerifiedWindow = 60 * 24 * time.Hour
)

// RecentlyVerified reports whether doc was verified within VerifiedWindow of now.
func RecentlyVerified(doc *Document, now time.Time) bool {
	return now.Sub(doc.LastVerified) <= VerifiedWindow
}

// Score computes the additive relevance of doc for query, role and filters,
// evaluated at now. It is deterministic for a fixed now.
//
// Matching is a case-insensitive substring test, so a blank query matches
// every title, excerpt and tag on top of the blank-query bonus.
func Score(doc *Document, query, role string, filters FilterSet, now time.Time) int {
	if doc == nil {
		return 0
	}

	q := strings.ToLower(strings.TrimSpace(query))
	score := 0

	if q == "" {
		score += ScoreBlankQuery
	}
	if strings.Contains(strings.ToLower(doc.Title), q) {
		score += ScoreTitleMatch
	}
	if strings.Contains(strings.ToLower(doc.ContentExcerpt), q) {
		score += ScoreExcerptHit
	}
	if tagHit(doc.Tags, q) {
		score += ScoreTagHit
	}
	if doc.HasRole(role) {
		score += ScoreRoleAffine
	}

	recent := RecentlyVerified(doc, now)
	if recent {
		score += ScoreRecent
	}
	score += popularity(doc.Clicks)

	// Hard filters push the document under the floor instead of dropping it,
	// so every document keeps a comparable score.
	if filters.OnlyVerified && !recent {
		score += ScoreExclusionPenalty
	}
	if !filters.AllowsSource(doc.Source) {
		score += ScoreExclusionPenalty
	}

	return score
}

func tagHit(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func popularity(clicks int) int {
	if clicks <= 0 {
		return 0
	}
	return min(clicks/ClicksPerPoint, ScorePopularityCap)
}
