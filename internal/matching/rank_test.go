package matching

import "testing"

func TestTopMatchesRanksByCoverage(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{ID: "r1", Text: "python sql"},
		{ID: "r2", Text: "python sql aws docker"},
	}

	matches := TopMatches(candidates, "python sql aws docker kubernetes", 0)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	if matches[0].ResumeID != "r2" || matches[1].ResumeID != "r1" {
		t.Fatalf("expected r2 ranked above r1, got %+v", matches)
	}

	if matches[0].Score <= matches[1].Score {
		t.Fatalf("expected strictly higher score for r2: %+v", matches)
	}
}

func TestTopMatchesTruncatesToTopN(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{ID: "a", Text: "python"},
		{ID: "b", Text: "python sql"},
		{ID: "c", Text: "python sql aws"},
	}

	matches := TopMatches(candidates, "python sql aws", 2)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	if matches[0].ResumeID != "c" || matches[1].ResumeID != "b" {
		t.Fatalf("unexpected order: %+v", matches)
	}
}

func TestTopMatchesKeepsInputOrderOnTies(t *testing.T) {
	t.Parallel()

	// Identical token sets produce identical scores; the stable sort must
	// keep the caller's order.
	candidates := []Candidate{
		{ID: "first", Text: "python sql"},
		{ID: "second", Text: "sql python"},
		{ID: "third", Text: "python, sql!"},
	}

	matches := TopMatches(candidates, "python sql aws", 0)

	want := []string{"first", "second", "third"}
	for i, id := range want {
		if matches[i].ResumeID != id {
			t.Fatalf("expected %q at position %d, got %+v", id, i, matches)
		}
	}
}

func TestTopMatchesEmptyInput(t *testing.T) {
	t.Parallel()

	matches := TopMatches(nil, "python", 3)
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}

func TestRecommendationTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score  float64
		expect string
	}{
		{score: 0.95, expect: RecommendationStrong},
		{score: 0.85, expect: RecommendationStrong},
		{score: 0.82, expect: RecommendationGood},
		{score: 0.75, expect: RecommendationModerate},
		{score: 0.40, expect: RecommendationSkip},
	}

	for _, tt := range cases {
		if got := (Match{Score: tt.score}).Recommendation(); got != tt.expect {
			t.Fatalf("score %v: expected %q, got %q", tt.score, tt.expect, got)
		}
	}
}
