package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mpresser/tailorbot/internal/ai"
	"github.com/mpresser/tailorbot/internal/ai/gemini"
	"github.com/mpresser/tailorbot/internal/documents"
	"github.com/mpresser/tailorbot/internal/matching"
	"github.com/mpresser/tailorbot/internal/secrets"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Generate a tailored resume and cover letter for the job",
	Run: func(cmd *cobra.Command, _ []string) {
		runTailor(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)

	tailorCmd.Flags().String("resume", "", "resume id to tailor (default is the best match)")
	tailorCmd.Flags().BoolP("auto-aprove", "y", false, "do not ask for confirmation before calling the model")
	tailorCmd.Flags().StringP("output-dir", "o", ".", "directory for the generated resume and cover letter")
}

func runTailor(cmd *cobra.Command) {
	logger := mustLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// Interrupting the process aborts the in-flight model call and its
	// backoff sleep.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resumes, jobText := loadDocuments(config, logger)
	jobID := resolveJobID(config)

	resume, summary := selectResume(cmd, config, resumes, jobText, logger)

	logger.Info("selected resume for tailoring",
		zap.String("job_id", jobID),
		zap.String("resume_id", resume.ID),
	)

	if cmd.Flag("auto-aprove").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Tailor resume %q for job %q?", resume.ID, jobID),
			Items: []string{PromptYes, PromptNo},
		}

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	tailor := buildTailor(ctx, config, logger)

	result, err := tailor.TailorApplication(ctx, &ai.TailoringRequest{
		JobID:        jobID,
		ResumeID:     resume.ID,
		ResumeText:   resume.Text,
		JobText:      jobText,
		MatchSummary: summary,
	})
	if err != nil {
		fatalTailoringError(logger, err)
	}

	store := openHistory(config, logger)
	defer store.Close()

	applicationID, err := store.SaveApplication(ctx, jobID, resume.ID, result)
	if err != nil {
		logger.Fatal("saving application to history", zap.Error(err))
	}

	outputDir := cmd.Flag("output-dir").Value.String()
	resumePath, coverLetterPath, err := writeApplication(outputDir, resume.ID, result)
	if err != nil {
		logger.Fatal("writing application files", zap.Error(err))
	}

	for _, change := range result.Changes {
		logger.Info("applied change", zap.String("change", change))
	}

	logger.Info("tailoring completed",
		zap.Int64("application_id", applicationID),
		zap.String("resume_file", resumePath),
		zap.String("cover_letter_file", coverLetterPath),
		zap.Int("changes", len(result.Changes)),
	)
}

// selectResume picks the resume to tailor: the one named by --resume, or the
// best-scoring candidate. The returned summary biases the prompt with the
// match outcome.
func selectResume(cmd *cobra.Command, config *Config, resumes *documents.Resumes, jobText string, logger *zap.Logger) (*documents.Resume, map[string]any) {
	if id := strings.TrimSpace(cmd.Flag("resume").Value.String()); id != "" {
		resume := resumes.FindByID(id)
		if resume == nil {
			logger.Fatal("resume with given id not found",
				zap.String("resume_id", id),
				zap.Strings("existing resume ids", resumes.IDs()),
			)
		}

		match := matching.Match{ResumeID: id, Score: matching.Score(resume.Text, jobText)}
		return resume, matchSummaryData(match)
	}

	matches := matching.TopMatches(resumes.Candidates(), jobText, 1)
	best := matches[0]

	resume := resumes.FindByID(best.ResumeID)
	return resume, matchSummaryData(best)
}

func matchSummaryData(match matching.Match) map[string]any {
	return map[string]any{
		"score":          match.Score,
		"recommendation": match.Recommendation(),
	}
}

func buildTailor(ctx context.Context, config *Config, logger *zap.Logger) *gemini.Tailor {
	geminiCfg := config.AI.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: geminiCfg.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  geminiCfg.APIKeyFile,
	})
	if err != nil {
		logger.Fatal("loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file in the config file or the GEMINI_API_KEY environment variable"),
		)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:      apiKey,
		Model:       geminiCfg.Model,
		MaxAttempts: geminiCfg.MaxAttempts,
		Temperature: geminiCfg.Temperature,
	}, logger)
	if err != nil {
		logger.Fatal("creating gemini client", zap.Error(err))
	}

	return gemini.NewTailor(generator, logger, geminiCfg.MaxLogLength)
}

// fatalTailoringError reports the failure so the user can tell a
// configuration problem, a transient backend failure and unusable model
// output apart.
func fatalTailoringError(logger *zap.Logger, err error) {
	var (
		inputErr  *ai.InputError
		formatErr *ai.FormatError
		retryErr  *ai.RetryError
	)

	switch {
	case errors.As(err, &inputErr):
		logger.Fatal("invalid input",
			zap.Error(err),
			zap.String("hint", "check the resume and job description files"),
		)
	case errors.As(err, &retryErr):
		logger.Fatal("model backend unavailable",
			zap.Error(err),
			zap.Int("attempts", retryErr.Attempts),
			zap.String("hint", "try again later"),
		)
	case errors.As(err, &formatErr):
		logger.Fatal("model produced unusable output",
			zap.Error(err),
			zap.String("hint", "re-run the command; the response violated the expected format"),
		)
	default:
		logger.Fatal("tailoring failed", zap.Error(err))
	}
}

func writeApplication(outputDir, resumeID string, result *ai.TailoringResult) (string, string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating output directory: %w", err)
	}

	resumePath := filepath.Join(outputDir, resumeID+"-tailored.txt")
	if err := os.WriteFile(resumePath, []byte(result.ResumeText+"\n"), 0o644); err != nil {
		return "", "", fmt.Errorf("writing tailored resume: %w", err)
	}

	coverLetterPath := filepath.Join(outputDir, resumeID+"-cover-letter.txt")
	if err := os.WriteFile(coverLetterPath, []byte(result.CoverLetter+"\n"), 0o644); err != nil {
		return "", "", fmt.Errorf("writing cover letter: %w", err)
	}

	return resumePath, coverLetterPath, nil
}
