// Package llm wraps the OpenRouter chat-completions API used for
// automated contract review.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marsops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultBaseURL   = "https://openrouter.ai/api"
	defaultModel     = "anthropic/claude-sonnet-4"
	defaultMaxTokens = 4096

	// maxResponseSize is the maximum allowed response size (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

var (
	// ErrNotConfigured indicates a missing API key
	ErrNotConfigured = errors.New("llm: api key not configured")

	// ErrRequestFailed indicates a non-2xx API response
	ErrRequestFailed = errors.New("llm: request failed")

	// ErrEmptyCompletion indicates a response without any choices
	ErrEmptyCompletion = errors.New("llm: empty completion")
)

// Message is one turn of a chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for one completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the decoded result of a chat call
type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// Client calls the OpenRouter chat-completions endpoint
type Client struct {
	config     *config.LLMConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option is a functional option for the client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates an OpenRouter client from configuration
func NewClient(cfg *config.LLMConfig, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		config:     cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// chatRequest is the chat-completions request payload
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is the chat-completions response payload
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Complete runs one chat completion and returns the first choice
func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("llm: at least one message is required")
	}

	payload := chatRequest{
		Model:       c.model(),
		Messages:    messages,
		MaxTokens:   c.maxTokens(),
		Temperature: c.config.Temperature,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to read response: %w", err)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("llm: invalid response: %w", err)
	}
	if resp.StatusCode >= 400 || completion.Error != nil {
		message := ""
		if completion.Error != nil {
			message = completion.Error.Message
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, message)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, ErrEmptyCompletion
	}

	c.logger.Debug("chat completion finished",
		zap.String("model", completion.Model),
		zap.Int("total_tokens", completion.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &Completion{
		Content: completion.Choices[0].Message.Content,
		Model:   completion.Model,
		Usage:   completion.Usage,
	}, nil
}

func (c *Client) model() string {
	if c.config.Model != "" {
		return c.config.Model
	}
	return defaultModel
}

func (c *Client) maxTokens() int {
	if c.config.MaxTokens > 0 {
		return c.config.MaxTokens
	}
	return defaultMaxTokens
}
