// Package llm provides completion-service clients and the retrying
// orchestrator that drives them.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Client is an abstraction over completion-service providers.
type Client interface {
	// Complete sends a prompt and returns the raw reply text.
	Complete(ctx context.Context, prompt string) (string, error)
	// Model returns the underlying provider model name.
	Model() string
	// Close releases any resources held by the client.
	Close() error
}

// Provider identifies a completion-service provider.
type Provider string

const (
	// ProviderOpenRouter uses the OpenAI-compatible chat-completions API.
	ProviderOpenRouter Provider = "openrouter"
	// ProviderGemini uses Google Gemini.
	ProviderGemini Provider = "gemini"
)

// ClientConfig holds provider selection and request parameters.
type ClientConfig struct {
	Provider    Provider
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	// RequestTimeout bounds a single round trip. Zero means the default.
	RequestTimeout time.Duration
}

// DefaultClientConfig returns the default OpenRouter configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Provider:       ProviderOpenRouter,
		Model:          DefaultOpenRouterModel,
		BaseURL:        DefaultOpenRouterBaseURL,
		MaxTokens:      3000,
		Temperature:    0.1,
		RequestTimeout: defaultRequestTimeout,
	}
}

// NewClient creates a completion client based on configuration.
func NewClient(ctx context.Context, config *ClientConfig, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultClientConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenRouter:
		return NewOpenRouterClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
}
