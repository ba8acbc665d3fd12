package llm

import (
	"fmt"

	"concord/internal/logging"
)

// Provider default endpoints. Groq and Gemini expose OpenAI-compatible
// chat-completions surfaces, so one client covers all three.
const (
	groqBaseURL   = "https://api.groq.com/openai/v1"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// ProviderConfig selects and configures a vendor client.
type ProviderConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Logger   logging.Logger
}

// New builds a Client for the named provider.
func New(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Model: cfg.Model, Logger: cfg.Logger,
		}), nil
	case "groq":
		base := cfg.BaseURL
		if base == "" {
			base = groqBaseURL
		}
		return NewOpenAIClient(OpenAIConfig{
			BaseURL: base, APIKey: cfg.APIKey, Model: cfg.Model, Logger: cfg.Logger,
		}), nil
	case "gemini":
		base := cfg.BaseURL
		if base == "" {
			base = geminiBaseURL
		}
		return NewOpenAIClient(OpenAIConfig{
			BaseURL: base, APIKey: cfg.APIKey, Model: cfg.Model, Logger: cfg.Logger,
		}), nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
