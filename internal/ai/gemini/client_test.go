package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/mpresser/tailorbot/internal/ai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCaller struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	configs   []*genai.GenerateContentConfig
	onCall    func(attempt int)
}

func (f *fakeCaller) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.configs = append(f.configs, config)
	if f.onCall != nil {
		f.onCall(f.calls)
	}

	if f.calls > len(f.responses) {
		return nil, errors.New("unexpected call")
	}

	r := f.responses[f.calls-1]
	return r.resp, r.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGenerator(caller *fakeCaller) *Generator {
	return &Generator{
		models:      caller,
		model:       "gemini-test",
		temperature: defaultTemperature,
		maxAttempts: 3,
		baseDelay:   time.Millisecond,
		logger:      zap.NewNop(),
	}
}

func TestGenerateContentReturnsFirstSuccess(t *testing.T) {
	caller := &fakeCaller{responses: []fakeResponse{
		{resp: textResponse("tailored output")},
	}}

	output, err := newTestGenerator(caller).GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output != "tailored output" {
		t.Fatalf("unexpected output: %q", output)
	}

	if caller.calls != 1 {
		t.Fatalf("expected 1 call, got %d", caller.calls)
	}

	config := caller.configs[0]
	if config == nil || config.Temperature == nil {
		t.Fatal("expected temperature to be set")
	}
	if *config.Temperature != defaultTemperature {
		t.Fatalf("unexpected temperature: %v", *config.Temperature)
	}
}

func TestGenerateContentRetriesTransientErrorThenSucceeds(t *testing.T) {
	busy := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	caller := &fakeCaller{responses: []fakeResponse{
		{err: busy},
		{err: busy},
		{resp: textResponse("recovered")},
	}}

	output, err := newTestGenerator(caller).GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output != "recovered" {
		t.Fatalf("unexpected output: %q", output)
	}

	if caller.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", caller.calls)
	}
}

func TestGenerateContentStopsAfterAttemptBudget(t *testing.T) {
	busy := genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}
	caller := &fakeCaller{responses: []fakeResponse{
		{err: busy}, {err: busy}, {err: busy}, {err: busy},
	}}

	_, err := newTestGenerator(caller).GenerateContent(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if caller.calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", caller.calls)
	}

	var retryErr *ai.RetryError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetryError, got %T: %v", err, err)
	}

	if retryErr.Attempts != 3 {
		t.Fatalf("expected 3 attempts reported, got %d", retryErr.Attempts)
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected last cause to be reachable, got %v", err)
	}
}

func TestGenerateContentDoesNotRetryClientErrors(t *testing.T) {
	cases := []struct {
		name string
		code int
	}{
		{name: "bad request", code: http.StatusBadRequest},
		{name: "unauthorized", code: http.StatusUnauthorized},
		{name: "forbidden", code: http.StatusForbidden},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			caller := &fakeCaller{responses: []fakeResponse{
				{err: genai.APIError{Code: tt.code, Status: "CLIENT_ERROR"}},
			}}

			_, err := newTestGenerator(caller).GenerateContent(context.Background(), "prompt")
			if err == nil {
				t.Fatal("expected error")
			}

			if caller.calls != 1 {
				t.Fatalf("expected single call, got %d", caller.calls)
			}

			var retryErr *ai.RetryError
			if errors.As(err, &retryErr) {
				t.Fatalf("client error must not be wrapped in RetryError: %v", err)
			}
		})
	}
}

func TestGenerateContentRetriesEmptyResponse(t *testing.T) {
	caller := &fakeCaller{responses: []fakeResponse{
		{resp: &genai.GenerateContentResponse{}},
		{resp: textResponse("   ")},
		{resp: textResponse("eventually")},
	}}

	output, err := newTestGenerator(caller).GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output != "eventually" {
		t.Fatalf("unexpected output: %q", output)
	}

	if caller.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", caller.calls)
	}
}

func TestGenerateContentEmptyResponsesExhaustBudget(t *testing.T) {
	caller := &fakeCaller{responses: []fakeResponse{
		{resp: &genai.GenerateContentResponse{}},
		{resp: &genai.GenerateContentResponse{}},
		{resp: &genai.GenerateContentResponse{}},
	}}

	_, err := newTestGenerator(caller).GenerateContent(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse as last cause, got %v", err)
	}
}

func TestGenerateContentRejectsEmptyPrompt(t *testing.T) {
	caller := &fakeCaller{}

	_, err := newTestGenerator(caller).GenerateContent(context.Background(), "   ")

	var inputErr *ai.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}

	if caller.calls != 0 {
		t.Fatalf("expected no calls, got %d", caller.calls)
	}
}

func TestGenerateContentBackoffGrowsExponentially(t *testing.T) {
	g := newTestGenerator(nil)
	g.baseDelay = time.Second

	beforeSecond := g.backoffDelay(2)
	beforeThird := g.backoffDelay(3)

	if beforeSecond != 2*time.Second {
		t.Fatalf("expected 2s before attempt 2, got %v", beforeSecond)
	}

	if beforeThird != 4*time.Second {
		t.Fatalf("expected 4s before attempt 3, got %v", beforeThird)
	}

	if beforeSecond >= beforeThird {
		t.Fatalf("expected strictly growing delays: %v >= %v", beforeSecond, beforeThird)
	}
}

func TestGenerateContentAbortsBackoffOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// The first attempt yields a retryable empty response; the context is
	// canceled before the backoff sleep starts.
	caller := &fakeCaller{
		responses: []fakeResponse{{resp: &genai.GenerateContentResponse{}}},
		onCall: func(int) {
			cancel()
		},
	}

	g := newTestGenerator(caller)
	// A long delay proves the backoff sleep is interrupted rather than
	// waited out.
	g.baseDelay = time.Hour

	start := time.Now()
	_, err := g.GenerateContent(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("backoff was not interrupted, took %v", elapsed)
	}

	if caller.calls != 1 {
		t.Fatalf("expected single call, got %d", caller.calls)
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), Config{APIKey: "   "}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}
