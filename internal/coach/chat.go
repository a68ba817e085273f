package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnconfigured is returned when no API key is available.
var ErrUnconfigured = errors.New("chat completion delegate is not configured")

const (
	defaultChatBaseURL = "https://api.openai.com/v1"
	defaultChatModel   = "gpt-4o-mini"
	chatTimeout        = 20 * time.Second
	chatMaxTokens      = 160
	chatTemperature    = 0.7
)

// ChatConfig configures the chat-completion client.
type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	http  *resty.Client
	model string
	key   string
}

// NewChatClient returns a client; an empty key makes every call fail with ErrUnconfigured.
func NewChatClient(cfg ChatConfig) *ChatClient {
	base := cfg.BaseURL
	if base == "" {
		base = defaultChatBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultChatModel
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(chatTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &ChatClient{http: client, model: model, key: cfg.APIKey}
}

// Complete sends one system + user exchange and returns the first choice.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.key == "" {
		return "", ErrUnconfigured
	}
	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.key).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			MaxTokens:   chatMaxTokens,
			Temperature: chatTemperature,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("chat completion failed: %s", msg)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
