package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mpresser/tailorbot/internal/documents"
	"github.com/mpresser/tailorbot/internal/history"
	"github.com/mpresser/tailorbot/internal/logger"
	"github.com/mpresser/tailorbot/internal/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank stored resumes against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resumes-dir", "r", "", "directory with plain-text resumes")
	matchCmd.Flags().StringP("job-file", "f", "", "plain-text job description file")
	matchCmd.Flags().IntP("top-n", "n", 0, "how many top matches to report")

	viper.BindPFlag("resumes-dir", matchCmd.Flags().Lookup("resumes-dir"))
	viper.BindPFlag("job-file", matchCmd.Flags().Lookup("job-file"))
	viper.BindPFlag("top-n", matchCmd.Flags().Lookup("top-n"))
}

func runMatch(_ *cobra.Command) {
	logger := mustLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	resumes, jobText := loadDocuments(config, logger)

	matches := matching.TopMatches(resumes.Candidates(), jobText, config.TopN)

	store := openHistory(config, logger)
	defer store.Close()

	jobID := resolveJobID(config)
	ctx := context.Background()

	for i, match := range matches {
		logger.Info("match result",
			zap.Int("rank", i+1),
			zap.String("resume_id", match.ResumeID),
			zap.String("score", fmt.Sprintf("%.3f", match.Score)),
			zap.String("recommendation", match.Recommendation()),
		)

		if err := store.SaveMatch(ctx, jobID, match.ResumeID, match.Score, match.Recommendation()); err != nil {
			logger.Fatal("saving match to history", zap.Error(err))
		}
	}

	logger.Info("matching completed",
		zap.String("job_id", jobID),
		zap.Int("resumes_scored", resumes.Len()),
		zap.Int("matches_reported", len(matches)),
	)
}

func mustLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func loadDocuments(config *Config, log *zap.Logger) (*documents.Resumes, string) {
	if strings.TrimSpace(config.ResumesDir) == "" {
		log.Fatal("resumes directory is required",
			zap.String("hint", "set resumes-dir in the config file or pass --resumes-dir"),
		)
	}
	if strings.TrimSpace(config.JobFile) == "" {
		log.Fatal("job description file is required",
			zap.String("hint", "set job-file in the config file or pass --job-file"),
		)
	}

	resumes, err := documents.LoadResumes(config.ResumesDir)
	if err != nil {
		log.Fatal("loading resumes", zap.Error(err))
	}

	if resumes.Len() == 0 {
		log.Fatal("no resumes found",
			zap.String("resumes_dir", config.ResumesDir),
			zap.String("hint", "add .txt or .md resume files"),
		)
	}

	log.Info("loaded resumes", zap.Int("count", resumes.Len()))

	jobText, err := documents.LoadJob(config.JobFile)
	if err != nil {
		log.Fatal("loading job description", zap.Error(err))
	}

	return resumes, jobText
}

func openHistory(config *Config, log *zap.Logger) *history.Store {
	store, err := history.Open(config.History.Path)
	if err != nil {
		log.Fatal("opening history database", zap.Error(err))
	}
	return store
}

func resolveJobID(config *Config) string {
	if id := strings.TrimSpace(config.JobID); id != "" {
		return id
	}

	base := filepath.Base(config.JobFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
