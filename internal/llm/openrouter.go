package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultOpenRouterBaseURL is the OpenAI-compatible chat-completions endpoint.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1/chat/completions"

// DefaultOpenRouterModel is the model used for resume parsing.
const DefaultOpenRouterModel = "deepseek/deepseek-chat-v3-0324"

// defaultRequestTimeout bounds a single chat-completions round trip.
const defaultRequestTimeout = 60 * time.Second

// OpenRouterClient implements Client against an OpenAI-compatible
// chat-completions API with bearer-token auth.
type OpenRouterClient struct {
	apiKey     string
	config     *ClientConfig
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenRouterClient creates a chat-completions client.
func NewOpenRouterClient(config *ClientConfig, apiKey string) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultClientConfig()
	}
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &OpenRouterClient{
		apiKey: apiKey,
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Complete sends the prompt as a single user message and returns
// choices[0].message.content.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &MalformedError{Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &MalformedError{Message: "no choices in response"}
	}

	return parsed.Choices[0].Message.Content, nil
}

// Model returns the configured model name.
func (c *OpenRouterClient) Model() string {
	return c.config.Model
}

// Close is a no-op; the client holds no persistent connections of its own.
func (c *OpenRouterClient) Close() error {
	return nil
}
