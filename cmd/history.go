package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently generated applications",
	Run: func(cmd *cobra.Command, _ []string) {
		runHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "l", 10, "how many applications to show")
}

func runHistory(cmd *cobra.Command) {
	logger := mustLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store := openHistory(config, logger)
	defer store.Close()

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		logger.Fatal("reading limit flag", zap.Error(err))
	}

	applications, err := store.RecentApplications(context.Background(), limit)
	if err != nil {
		logger.Fatal("listing applications", zap.Error(err))
	}

	if len(applications) == 0 {
		logger.Info("no applications recorded yet")
		return
	}

	for _, application := range applications {
		logger.Info("application",
			zap.Int64("id", application.ID),
			zap.String("job_id", application.JobID),
			zap.String("resume_id", application.ResumeID),
			zap.Int("changes", len(application.Changes)),
			zap.Time("created_at", application.CreatedAt),
		)
	}
}
