package recognizer

import (
	"context"
	"fmt"

	"github.com/kozaktomas/id-verifier/internal/config"
)

// NewProvider builds the recognition provider selected by configuration.
func NewProvider(ctx context.Context, cfg *config.RecognizerConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "sidecar":
		return NewSidecarProvider(cfg.SidecarURL), nil
	case "openai":
		if cfg.OpenAIToken == "" {
			return nil, fmt.Errorf("OPENAI_TOKEN is required for the openai provider")
		}
		return NewOpenAIProvider(cfg.OpenAIToken), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey)
	default:
		return nil, fmt.Errorf("unknown recognizer provider: %q", cfg.Provider)
	}
}
