package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mpresser/tailorbot/internal/ai"
	"github.com/mpresser/tailorbot/internal/logger"
	"github.com/mpresser/tailorbot/internal/utils"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultTemperature = 0.4
)

// contentCaller abstracts the genai Models surface so tests can fake the
// transport.
type contentCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type modelsCaller struct {
	client *genai.Client
}

func (m *modelsCaller) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}

// Config holds the settings for the Gemini backend.
type Config struct {
	// APIKey is required. A missing key is a configuration error and is
	// never retried.
	APIKey string
	Model  string
	// MaxAttempts is the total attempt budget per call, including the
	// first attempt. Defaults to 3.
	MaxAttempts int
	Temperature float32
}

// Generator wraps the Google GenAI client with bounded retries and
// exponential backoff. Each call owns its own retry state; a Generator is
// safe for concurrent use.
type Generator struct {
	models      contentCaller
	model       string
	temperature float32
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &Generator{
		models:      &modelsCaller{client: client},
		model:       model,
		temperature: temperature,
		maxAttempts: maxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      logger.WithCommonFields(log, "gemini", model),
	}, nil
}

// GenerateContent sends the prompt to Gemini and returns the joined textual
// response. Transient failures and empty replies are retried up to the
// attempt budget with exponential backoff; the backoff sleep aborts as soon
// as the context is canceled.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &ai.InputError{Field: "prompt"}
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}

	var last error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := g.backoffDelay(attempt)
			g.logger.Debug("backing off before retry",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			if err := utils.WaitFor(ctx, delay); err != nil {
				return "", err
			}
		}

		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}

			last = err
			if !retryable(err) {
				g.logger.Debug("gemini call failed with terminal error",
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
				return "", fmt.Errorf("generate content: %w", err)
			}

			g.logger.Warn("gemini call failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		text := joinCandidateText(resp)
		if text == "" {
			last = ai.ErrEmptyResponse
			g.logger.Warn("gemini returned an empty response",
				zap.Int("attempt", attempt),
			)
			continue
		}

		g.logger.Debug("gemini call succeeded",
			zap.Int("attempt", attempt),
			zap.Int("response_length", len(text)),
		)
		return text, nil
	}

	return "", &ai.RetryError{Attempts: g.maxAttempts, Last: last}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// backoffDelay returns the sleep preceding the given attempt. The delay
// doubles with each retry: 2 base units before attempt 2, 4 before attempt 3.
func (g *Generator) backoffDelay(attempt int) time.Duration {
	return g.baseDelay * time.Duration(1<<(attempt-1))
}

// retryable reports whether an attempt failure is worth repeating. Backend
// errors are retried only for timeout, rate-limit and server status classes;
// malformed requests and authentication failures abort immediately. Errors
// without an API status are treated as transport-level and retried.
func retryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}

	return true
}

// joinCandidateText concatenates the non-empty text parts of every candidate.
func joinCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
