// Package notionapi is a small Notion REST client covering the database
// query and page update calls the reconciliation flow needs.
package notionapi

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
	defaultBaseURL = "https://api.notion.com"
	defaultVersion = "2022-06-28"

	// queryPageSize is the Notion API maximum
	queryPageSize = 100

	// maxResponseSize is the maximum allowed response size (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

var (
	// ErrNotConfigured indicates a missing integration token or database ID
	ErrNotConfigured = errors.New("notion: token or database not configured")

	// ErrRequestFailed indicates a non-2xx API response
	ErrRequestFailed = errors.New("notion: request failed")

	// ErrInvalidResponse indicates an unparseable response body
	ErrInvalidResponse = errors.New("notion: invalid response")
)

// Page is one row of a Notion database
type Page struct {
	ID         string                   `json:"id"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PropertyValue is a loosely typed Notion property
type PropertyValue struct {
	Type     string     `json:"type"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Select   *struct {
		Name string `json:"name"`
	} `json:"select,omitempty"`
	Date *struct {
		Start string `json:"start"`
	} `json:"date,omitempty"`
}

// RichText is one text fragment of a title or rich_text property
type RichText struct {
	PlainText string `json:"plain_text"`
}

// PlainText flattens a title or rich_text property into a string
func (p PropertyValue) PlainText() string {
	fragments := p.Title
	if p.Type == "rich_text" {
		fragments = p.RichText
	}
	var b strings.Builder
	for _, fragment := range fragments {
		b.WriteString(fragment.PlainText)
	}
	return b.String()
}

// NumberValue returns the numeric property value, zero when unset
func (p PropertyValue) NumberValue() float64 {
	if p.Number == nil {
		return 0
	}
	return *p.Number
}

// SelectName returns the select option name, empty when unset
func (p PropertyValue) SelectName() string {
	if p.Select == nil {
		return ""
	}
	return p.Select.Name
}

// DateStart returns the start of a date property, empty when unset
func (p PropertyValue) DateStart() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Start
}

// Client calls the Notion API with one integration token
type Client struct {
	config     *config.NotionConfig
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

// WithBaseURL overrides the API host, used by tests
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Notion client from configuration
func NewClient(cfg *config.NotionConfig, timeout time.Duration, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.Token == "" || cfg.DatabaseID == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		config:     cfg,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// queryResponse is the database query page payload
type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryDatabase walks every page of the configured database
func (c *Client) QueryDatabase(ctx context.Context) ([]Page, error) {
	var pages []Page
	var cursor *string

	for {
		payload := map[string]interface{}{"page_size": queryPageSize}
		if cursor != nil {
			payload["start_cursor"] = *cursor
		}

		body, err := c.do(ctx, http.MethodPost,
			"/v1/databases/"+c.config.DatabaseID+"/query", payload)
		if err != nil {
			return nil, err
		}

		var page queryResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}

		pages = append(pages, page.Results...)
		if !page.HasMore || page.NextCursor == nil {
			return pages, nil
		}
		cursor = page.NextCursor
	}
}

// UpdatePageProperties patches the given properties onto a page
func (c *Client) UpdatePageProperties(ctx context.Context, pageID string, properties map[string]interface{}) error {
	if pageID == "" {
		return fmt.Errorf("notion: page id is required")
	}
	_, err := c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID,
		map[string]interface{}{"properties": properties})
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("notion: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("notion: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Notion-Version", c.version())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("notion: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("Notion API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, truncate(body, 500))
	}
	return body, nil
}

func (c *Client) version() string {
	if c.config.Version != "" {
		return c.config.Version
	}
	return defaultVersion
}

// truncate caps a response body excerpt for error messages
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
