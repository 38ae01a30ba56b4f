package matching

import "sort"

// Candidate pairs a resume identifier with its plain-text content. Candidates
// are passed as an ordered slice so that score ties keep the caller's order.
type Candidate struct {
	ID   string
	Text string
}

// Match is the scored result for one candidate resume.
type Match struct {
	ResumeID string
	Score    float64
}

// Recommendation tiers mirror how scores are presented to the user.
const (
	RecommendationStrong   = "STRONG FIT - Highly recommended"
	RecommendationGood     = "GOOD FIT - Recommended"
	RecommendationModerate = "MODERATE FIT - Review manually"
	RecommendationSkip     = "SKIP - Not a strong match"
)

// Recommendation maps the score onto a human-readable fit tier.
func (m Match) Recommendation() string {
	switch {
	case m.Score >= 0.85:
		return RecommendationStrong
	case m.Score >= 0.80:
		return RecommendationGood
	case m.Score >= 0.70:
		return RecommendationModerate
	default:
		return RecommendationSkip
	}
}

// TopMatches scores every candidate against the job text and returns the topN
// results ordered by descending score. The sort is stable: candidates with
// equal scores keep their input order. A topN that is zero, negative or larger
// than the candidate count returns all matches.
//
// This path never touches the network and is safe to call concurrently.
func TopMatches(candidates []Candidate, jobText string, topN int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		matches = append(matches, Match{
			ResumeID: candidate.ID,
			Score:    Score(candidate.Text, jobText),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topN > 0 && topN < len(matches) {
		matches = matches[:topN]
	}

	return matches
}
