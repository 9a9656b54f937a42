package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderOffline = "offline"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOllamaModel = "ministral-3:latest"
	defaultOllamaHost  = "http://localhost:11434"

	defaultIdeasCount  = 5
	defaultTemperature = 0.9

	// Continuation context is clipped to keep prompts inside small-model
	// context windows (roughly 4 chars/token).
	maxContextChars = 60_000
)

const defaultLLMHTTPTimeout = 3 * time.Minute

var (
	// ErrEmptyResponse is returned when a model produced no usable text.
	ErrEmptyResponse = errors.New("the model returned an empty response")
	// ErrNoIdeas is returned when no IDEA: lines could be parsed.
	ErrNoIdeas = errors.New("the model did not return any story ideas; try again")
)

// Config describes how to build a Client.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	Endpoint    string
	Timeout     time.Duration
	IdeasCount  int
	// Temperature is nil when unset; an explicit 0 is honored.
	Temperature *float64
	HTTPClient  *http.Client
}

// Client brainstorms premises, drafts paragraphs and proposes edits.
type Client interface {
	FetchIdeas(ctx context.Context) ([]string, error)
	GenerateParagraph(ctx context.Context, prompt, priorContext string) (string, error)
	SuggestEdits(ctx context.Context, document string) (string, error)
	Name() string
}

// Prompt is one system + user exchange sent to a backend.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// completer is the single capability each provider implements.
type completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// New builds the client for cfg.Provider.
func New(ctx context.Context, cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	var (
		backend completer
		model   string
		label   string
		err     error
	)
	switch provider {
	case ProviderGemini:
		model = pick(cfg.Model, defaultGeminiModel)
		label = "Gemini"
		backend, err = newGeminiClient(ctx, cfg, model)
	case ProviderOpenAI:
		model = pick(cfg.Model, defaultOpenAIModel)
		label = "OpenAI"
		backend, err = newOpenAIClient(cfg, model)
	case ProviderOllama:
		model = pick(cfg.Model, defaultOllamaModel)
		label = "Ollama"
		backend = &ollamaClient{
			host:   strings.TrimRight(pick(cfg.Endpoint, defaultOllamaHost), "/"),
			model:  model,
			client: pickHTTPClient(cfg.HTTPClient, cfg.Timeout),
		}
	case ProviderOffline:
		model = "canned"
		label = "Offline"
		backend = offlineClient{}
	default:
		return nil, fmt.Errorf("llm provider %q not supported", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return newAssistant(backend, fmt.Sprintf("%s (%s)", label, model), cfg), nil
}

func pick(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultLLMHTTPTimeout
	}
	// Long generations on local models regularly exceed a minute; callers can
	// still cancel through ctx.
	return &http.Client{Timeout: timeout}
}
