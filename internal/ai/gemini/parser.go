package gemini

import (
	"regexp"
	"strings"

	"github.com/mpresser/tailorbot/internal/ai"
)

// Section markers the model is instructed to emit. The prompt template embeds
// the same constants, so parser and prompt cannot drift apart.
const (
	resumeStartMarker = "<<<RESUME>>>"
	resumeEndMarker   = "<<<END RESUME>>>"

	coverLetterStartMarker = "<<<COVER LETTER>>>"
	coverLetterEndMarker   = "<<<END COVER LETTER>>>"

	changesStartMarker = "<<<CHANGES>>>"
	changesEndMarker   = "<<<END CHANGES>>>"
)

var (
	resumePattern      = sectionPattern(resumeStartMarker, resumeEndMarker)
	coverLetterPattern = sectionPattern(coverLetterStartMarker, coverLetterEndMarker)
	changesPattern     = sectionPattern(changesStartMarker, changesEndMarker)
)

// sectionPattern builds a lazy, newline-spanning matcher for one marker pair.
// Markers are literals, so they are escaped before compilation.
func sectionPattern(start, end string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(start) + `(.*?)` + regexp.QuoteMeta(end))
}

// parseTailoringResponse extracts the tagged sections from raw model output.
// The resume section is mandatory; cover letter and changes are extracted
// best-effort and default to empty values when their markers are absent.
func parseTailoringResponse(raw string) (*ai.TailoringResult, error) {
	resume, ok := extractSection(resumePattern, raw)
	if !ok {
		return nil, ai.NewFormatError("resume section markers are missing", raw)
	}

	resume = strings.TrimSpace(resume)
	if resume == "" {
		return nil, ai.NewFormatError("resume section is empty", raw)
	}

	coverLetter, _ := extractSection(coverLetterPattern, raw)
	changesBody, _ := extractSection(changesPattern, raw)

	return &ai.TailoringResult{
		ResumeText:  resume,
		CoverLetter: strings.TrimSpace(coverLetter),
		Changes:     parseChanges(changesBody),
		Raw:         raw,
	}, nil
}

// extractSection returns the first region delimited by the pattern's marker
// pair.
func extractSection(pattern *regexp.Regexp, raw string) (string, bool) {
	match := pattern.FindStringSubmatch(raw)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// parseChanges splits the changes section into an ordered list of discrete
// descriptions: one per non-empty line, trimmed, with a leading list bullet
// stripped. The result may be empty but is never nil.
func parseChanges(body string) []string {
	changes := make([]string, 0)

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		for _, bullet := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, bullet) {
				line = strings.TrimSpace(strings.TrimPrefix(line, bullet))
				break
			}
		}
		if line == "" {
			continue
		}
		changes = append(changes, line)
	}

	return changes
}
