package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csheth/storyforge/internal/llm"
)

// ErrUnknownProvider is returned by Validate for unsupported llm providers.
var ErrUnknownProvider = errors.New("unknown llm provider")

// Config holds all storyforge settings.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
}

// LLMConfig selects and tunes the text-generation backend.
type LLMConfig struct {
	Provider       string   `yaml:"provider"` // gemini, openai, ollama, offline
	Model          string   `yaml:"model"`
	APIKey         string   `yaml:"api_key"`
	BaseURL        string   `yaml:"base_url"`
	RequestTimeout string   `yaml:"request_timeout"`
	IdeasCount     int      `yaml:"ideas_count"`
	Temperature    *float64 `yaml:"temperature,omitempty"` // nil uses the built-in default
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// UIConfig tweaks the terminal interface.
type UIConfig struct {
	AltScreen bool `yaml:"alt_screen"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       llm.ProviderGemini,
			RequestTimeout: "3m",
			IdeasCount:     5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			AltScreen: true,
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "storyforge", "config.yaml")
}

// Overrides carries command-line values. Empty fields are ignored.
type Overrides struct {
	Provider string
	Model    string
	BaseURL  string
	LogLevel string
	LogFile  string
}

func (o Overrides) apply(c *Config) {
	if o.Provider != "" {
		c.LLM.Provider = o.Provider
	}
	if o.Model != "" {
		c.LLM.Model = o.Model
	}
	if o.BaseURL != "" {
		c.LLM.BaseURL = o.BaseURL
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFile != "" {
		c.Logging.File = o.LogFile
	}
}

// Load reads path, falling back to defaults when the file does not exist,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides is Load with command-line values layered between the
// environment and provider credential lookup, so a --provider flag still
// picks up the matching API key.
func LoadWithOverrides(path string, overrides Overrides) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applySettingsEnv()
	overrides.apply(cfg)
	cfg.resolveProviderEnv()
	return cfg, nil
}

func (c *Config) applySettingsEnv() {
	if v := os.Getenv("STORYFORGE_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("STORYFORGE_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("STORYFORGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// resolveProviderEnv fills credentials and endpoints for the selected
// provider. Values already set win over the environment.
func (c *Config) resolveProviderEnv() {
	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderGemini, "":
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		}
	case llm.ProviderOpenAI:
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if v := os.Getenv("OPENAI_BASE_URL"); v != "" && c.LLM.BaseURL == "" {
			c.LLM.BaseURL = v
		}
	case llm.ProviderOllama:
		if v := os.Getenv("OLLAMA_HOST"); v != "" && c.LLM.BaseURL == "" {
			c.LLM.BaseURL = strings.TrimRight(v, "/")
		}
		if v := os.Getenv("OLLAMA_MODEL"); v != "" && c.LLM.Model == "" {
			c.LLM.Model = v
		}
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LLM.Provider)) {
	case llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderOllama, llm.ProviderOffline:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.LLM.Provider)
	}
	if c.LLM.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.LLM.RequestTimeout); err != nil {
			return fmt.Errorf("invalid llm.request_timeout: %w", err)
		}
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", *t)
	}
	if c.LLM.IdeasCount < 0 {
		return fmt.Errorf("llm.ideas_count must not be negative, got %d", c.LLM.IdeasCount)
	}
	return nil
}

// GetRequestTimeout returns the per-request timeout, or zero for the client
// default.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.RequestTimeout)
	if err != nil {
		return 0
	}
	return d
}

// LLMSettings converts the config into llm.Config.
func (c *Config) LLMSettings() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		APIKey:      c.LLM.APIKey,
		Endpoint:    c.LLM.BaseURL,
		Timeout:     c.GetRequestTimeout(),
		IdeasCount:  c.LLM.IdeasCount,
		Temperature: c.LLM.Temperature,
	}
}
