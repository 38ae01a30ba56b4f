package matching

import (
	"math"
	"strings"
	"unicode"
)

// The raw overlap ratio is squeezed through a logistic curve so that noisy
// low-overlap ratios flatten toward zero while coverage above roughly a
// quarter of the job tokens is rewarded.
const (
	scoreSteepness = 6.0
	scoreMidpoint  = 0.25
)

// Score compares a resume against a job description and returns a
// compatibility score in [0, 1]. The underlying ratio divides the token
// overlap by the job token count only: it measures how much of the job's
// requirements the resume covers, so Score(a, b) != Score(b, a).
//
// Deterministic and side-effect free; identical inputs always produce
// bit-identical results.
func Score(resumeText, jobText string) float64 {
	resumeTokens := tokenSet(resumeText)
	jobTokens := tokenSet(jobText)

	if len(resumeTokens) == 0 || len(jobTokens) == 0 {
		return 0.0
	}

	overlap := 0
	for token := range jobTokens {
		if _, ok := resumeTokens[token]; ok {
			overlap++
		}
	}

	raw := float64(overlap) / float64(len(jobTokens))

	return 1.0 / (1.0 + math.Exp(-scoreSteepness*(raw-scoreMidpoint)))
}

// tokenSet normalizes the text and collects the surviving tokens. Characters
// outside letters, digits and whitespace are stripped before splitting, and
// stopwords are dropped.
func tokenSet(text string) map[string]struct{} {
	var normalized strings.Builder
	normalized.Grow(len(text))

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			normalized.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			normalized.WriteRune(r)
		}
	}

	tokens := make(map[string]struct{})
	for _, token := range strings.Fields(normalized.String()) {
		if _, skip := stopwords[token]; skip {
			continue
		}
		tokens[token] = struct{}{}
	}

	return tokens
}
