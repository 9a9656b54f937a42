package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom, time.Second); got != custom {
		t.Fatalf("expected custom client to be returned")
	}
}

func TestPickHTTPClientTimeouts(t *testing.T) {
	if got := pickHTTPClient(nil, 0).Timeout; got != defaultLLMHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultLLMHTTPTimeout, got)
	}
	if got := pickHTTPClient(nil, 10*time.Second).Timeout; got != 10*time.Second {
		t.Fatalf("expected configured timeout, got %s", got)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewRequiresAPIKeys(t *testing.T) {
	for _, provider := range []string{ProviderGemini, ProviderOpenAI} {
		_, err := New(context.Background(), Config{Provider: provider})
		require.Error(t, err, provider)
		assert.Contains(t, err.Error(), "api key", provider)
	}
}

func TestOfflineClientRoundTrip(t *testing.T) {
	client, err := New(context.Background(), Config{Provider: ProviderOffline})
	require.NoError(t, err)
	assert.Equal(t, "Offline (canned)", client.Name())
	ctx := context.Background()

	ideas, err := client.FetchIdeas(ctx)
	require.NoError(t, err)
	assert.Len(t, ideas, defaultIdeasCount)
	assert.Equal(t, offlineIdeas[0], ideas[0])

	para, err := client.GenerateParagraph(ctx, "A lighthouse keeper finds a message in a bottle.", "")
	require.NoError(t, err)
	assert.Contains(t, para, "with a lighthouse keeper finds a message in a bottle.")

	edit, err := client.SuggestEdits(ctx, "Once   upon\na time.\n\n\n\nThe end.")
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time.\n\nThe end.", edit)
}

type stubBackend struct {
	reply  string
	err    error
	prompt Prompt
}

func (s *stubBackend) Complete(_ context.Context, prompt Prompt) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestAssistantErrors(t *testing.T) {
	ctx := context.Background()

	backend := &stubBackend{reply: "no markers here"}
	a := newAssistant(backend, "stub", Config{})
	_, err := a.FetchIdeas(ctx)
	assert.ErrorIs(t, err, ErrNoIdeas)

	backend.reply = "   "
	_, err = a.GenerateParagraph(ctx, "prompt", "")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	backend.reply = "```\n```"
	_, err = a.SuggestEdits(ctx, "story")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	backend.err = errors.New("network timeout")
	_, err = a.SuggestEdits(ctx, "story")
	assert.EqualError(t, err, "network timeout")
}

func TestAssistantAppliesDefaults(t *testing.T) {
	warm := 0.4
	backend := &stubBackend{reply: "IDEA: one"}
	a := newAssistant(backend, "stub", Config{IdeasCount: 2, Temperature: &warm})
	_, err := a.FetchIdeas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.4, backend.prompt.Temperature)
	assert.Contains(t, backend.prompt.User, "Generate 2 unique")
	assert.Equal(t, ideasSystemInstruction, backend.prompt.System)
}

func TestAssistantTemperature(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name string
		cfg  Config
		want float64
	}{
		{name: "unset uses default", cfg: Config{}, want: defaultTemperature},
		{name: "explicit zero is kept", cfg: Config{Temperature: &zero}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{reply: "A paragraph."}
			a := newAssistant(backend, "stub", tt.cfg)
			_, err := a.GenerateParagraph(context.Background(), "prompt", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, backend.prompt.Temperature)
		})
	}
}

func TestSuggestEditsSendsWholeDocument(t *testing.T) {
	document := strings.Repeat("The sea kept its secrets. ", 6000) + "THE ENDING"
	backend := &stubBackend{reply: document}
	a := newAssistant(backend, "stub", Config{})

	got, err := a.SuggestEdits(context.Background(), document)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(backend.prompt.User, "\n\n"+document), "document was altered before sending")
	assert.Equal(t, document, got)
}

func TestOllamaClientGenerateParagraph(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var payload struct {
			Model  string `json:"model"`
			System string `json:"system"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if payload.Model != "qwen3:8b" {
			t.Errorf("expected model qwen3:8b, got %s", payload.Model)
		}
		if !strings.Contains(payload.Prompt, "Prior story context:\nOnce upon a time.") {
			t.Errorf("prompt missing context: %s", payload.Prompt)
		}
		if payload.System != paragraphSystemInstruction {
			t.Errorf("unexpected system instruction: %s", payload.System)
		}
		if payload.Stream {
			t.Error("expected streaming to be disabled")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"  The keeper turned the bottle...  ","done":true}`))
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{
		Provider:   ProviderOllama,
		Model:      "qwen3:8b",
		Endpoint:   server.URL + "/",
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ollama (qwen3:8b)", client.Name())

	para, err := client.GenerateParagraph(context.Background(), "the bottle", "Once upon a time.")
	require.NoError(t, err)
	assert.Equal(t, "The keeper turned the bottle...", para)
}

func TestOllamaClientSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := &ollamaClient{host: server.URL, model: "missing", client: server.Client()}
	_, err := client.Complete(context.Background(), Prompt{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama API error: 404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOpenAIClientFetchIdeas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if payload.Model != "gpt-test" {
			t.Errorf("unexpected model: %s", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", payload.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-test",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"IDEA: A ghost ship\nIDEA: A city under glass"}}]}`))
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{
		Provider:   ProviderOpenAI,
		Model:      "gpt-test",
		APIKey:     "sk-test",
		Endpoint:   server.URL,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)

	ideas, err := client.FetchIdeas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A ghost ship", "A city under glass"}, ideas)
}

func TestGeminiClientSuggestEdits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gemini-test:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if _, ok := payload["systemInstruction"]; !ok {
			t.Errorf("system instruction missing from payload: %v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"` +
			"```text\\nOnce, long ago, in a time forgotten...\\n```" +
			`"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{
		Provider:   ProviderGemini,
		Model:      "gemini-test",
		APIKey:     "test-key",
		Endpoint:   server.URL,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gemini (gemini-test)", client.Name())

	edit, err := client.SuggestEdits(context.Background(), "Once upon a time.")
	require.NoError(t, err)
	assert.Equal(t, "Once, long ago, in a time forgotten...", edit)
}
