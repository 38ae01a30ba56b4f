package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "tailorbot"

	defaultHistoryPath = app + ".sqlite3"
	defaultTopN        = 3
)

// Config is the application configuration decoded from the config file and
// bound flags.
type Config struct {
	// ResumesDir holds plain-text resume files (.txt/.md).
	ResumesDir string `mapstructure:"resumes-dir"`
	// JobFile is the plain-text job description.
	JobFile string `mapstructure:"job-file"`
	// JobID identifies the job in history records. Defaults to the job
	// file name without extension.
	JobID string `mapstructure:"job-id"`
	TopN  int    `mapstructure:"top-n"`

	History *HistoryConfig `mapstructure:"history"`
	AI      *AIConfig      `mapstructure:"ai"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	MaxAttempts  int     `mapstructure:"max-attempts"`
	MaxLogLength int     `mapstructure:"max-log-length"`
	Temperature  float32 `mapstructure:"temperature"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "tailorbot ranks resumes against a job description and generates a tailored application package",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// Commands validate required keys themselves; a missing config file is
	// fine as long as flags cover them.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}

	if config.TopN <= 0 {
		config.TopN = defaultTopN
	}

	if config.History == nil {
		config.History = &HistoryConfig{}
	}
	if config.History.Path == "" {
		config.History.Path = defaultHistoryPath
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}
