package llm

import (
	"context"
	"strings"
)

// assistant turns a raw completion backend into the story-writing Client.
type assistant struct {
	backend     completer
	name        string
	ideasCount  int
	temperature float64
}

func newAssistant(backend completer, name string, cfg Config) *assistant {
	count := cfg.IdeasCount
	if count <= 0 {
		count = defaultIdeasCount
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	return &assistant{
		backend:     backend,
		name:        name,
		ideasCount:  count,
		temperature: temperature,
	}
}

func (a *assistant) Name() string {
	return a.name
}

func (a *assistant) FetchIdeas(ctx context.Context) ([]string, error) {
	raw, err := a.complete(ctx, Prompt{
		System: ideasSystemInstruction,
		User:   buildIdeasPrompt(a.ideasCount),
	})
	if err != nil {
		return nil, err
	}
	ideas := parseIdeas(raw)
	if len(ideas) == 0 {
		return nil, ErrNoIdeas
	}
	return ideas, nil
}

func (a *assistant) GenerateParagraph(ctx context.Context, prompt, priorContext string) (string, error) {
	return a.complete(ctx, Prompt{
		System: paragraphSystemInstruction,
		User:   buildParagraphPrompt(prompt, priorContext),
	})
}

func (a *assistant) SuggestEdits(ctx context.Context, document string) (string, error) {
	raw, err := a.complete(ctx, Prompt{
		System: editSystemInstruction,
		User:   buildEditPrompt(document),
	})
	if err != nil {
		return "", err
	}
	text := cleanSuggestion(raw)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (a *assistant) complete(ctx context.Context, prompt Prompt) (string, error) {
	prompt.Temperature = a.temperature
	raw, err := a.backend.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}
