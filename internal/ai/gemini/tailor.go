package gemini

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/mpresser/tailorbot/internal/ai"
	"github.com/mpresser/tailorbot/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Tailor composes the retrying client and the structured-response parser into
// one request/response cycle. It owns prompt construction and result
// validation; everything it produces lives only for the duration of one call.
type Tailor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewTailor creates the tailoring orchestrator.
func NewTailor(generator contentGenerator, log *zap.Logger, maxLogLength int) *Tailor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Tailor{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// TailorApplication builds the prompt, drives the model and parses the
// response into a validated result. Errors from the client and the parser
// propagate unchanged; there is no fallback to partial content.
func (t *Tailor) TailorApplication(ctx context.Context, req *ai.TailoringRequest) (*ai.TailoringResult, error) {
	if req == nil {
		return nil, &ai.InputError{Field: "tailoring request"}
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, &ai.InputError{Field: "resume text"}
	}
	if strings.TrimSpace(req.JobText) == "" {
		return nil, &ai.InputError{Field: "job text"}
	}

	prompt := buildPrompt(req)

	t.logger.Debug("gemini tailoring request",
		zap.String("job_id", req.JobID),
		zap.String("resume_id", req.ResumeID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, t.maxLogLen)),
	)

	raw, err := t.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("gemini tailoring response",
		zap.String("job_id", req.JobID),
		zap.String("resume_id", req.ResumeID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, t.maxLogLen)),
	)

	result, err := parseTailoringResponse(raw)
	if err != nil {
		return nil, err
	}

	t.logger.Info("tailoring completed",
		zap.String("job_id", req.JobID),
		zap.String("resume_id", req.ResumeID),
		zap.Int("changes", len(result.Changes)),
	)

	return result, nil
}

func buildPrompt(req *ai.TailoringRequest) string {
	replacer := strings.NewReplacer(
		"{{RESUME_TEXT}}", req.ResumeText,
		"{{JOB_TEXT}}", req.JobText,
		"{{MATCH_SUMMARY}}", formatMatchSummary(req.MatchSummary),
		"{{RESUME_START}}", resumeStartMarker,
		"{{RESUME_END}}", resumeEndMarker,
		"{{COVER_LETTER_START}}", coverLetterStartMarker,
		"{{COVER_LETTER_END}}", coverLetterEndMarker,
		"{{CHANGES_START}}", changesStartMarker,
		"{{CHANGES_END}}", changesEndMarker,
	)

	return replacer.Replace(promptTemplate)
}

// matchSummary is the typed view of the free-form prior match data.
type matchSummary struct {
	Score          float64  `mapstructure:"score"`
	Recommendation string   `mapstructure:"recommendation"`
	MatchedSkills  []string `mapstructure:"matched_skills"`
}

// formatMatchSummary renders the prior match data as key/value lines for the
// prompt. Known fields come first; any remaining keys are appended in sorted
// order so the output is deterministic.
func formatMatchSummary(data map[string]any) string {
	if len(data) == 0 {
		return "none"
	}

	var summary matchSummary
	meta := &mapstructure.Metadata{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &summary,
		Metadata:         meta,
		WeaklyTypedInput: true,
	})
	if err == nil {
		if err := decoder.Decode(data); err != nil {
			meta.Unused = sortedKeys(data)
		}
	}

	lines := make([]string, 0, len(data))
	if summary.Score > 0 {
		lines = append(lines, fmt.Sprintf("- match score: %.2f", summary.Score))
	}
	if summary.Recommendation != "" {
		lines = append(lines, "- recommendation: "+summary.Recommendation)
	}
	if len(summary.MatchedSkills) > 0 {
		lines = append(lines, "- matched skills: "+strings.Join(summary.MatchedSkills, ", "))
	}

	unused := append([]string(nil), meta.Unused...)
	sort.Strings(unused)
	for _, key := range unused {
		lines = append(lines, fmt.Sprintf("- %s: %v", key, data[key]))
	}

	if len(lines) == 0 {
		return "none"
	}

	return strings.Join(lines, "\n")
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
