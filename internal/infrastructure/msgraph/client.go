// Package msgraph fetches contract documents from OneDrive through the
// Microsoft Graph API using the client-credentials flow.
package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/marsops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultLoginURL = "https://login.microsoftonline.com"
	defaultGraphURL = "https://graph.microsoft.com"

	// graphScope requests the app-only default scope
	graphScope = "https://graph.microsoft.com/.default"

	// maxDocumentSize caps downloaded drive items (25MB)
	maxDocumentSize = 25 * 1024 * 1024

	// tokenSafetyWindow refreshes tokens slightly before they would expire
	tokenSafetyWindow = 2 * time.Minute
)

var (
	// ErrNotConfigured indicates missing Graph credentials
	ErrNotConfigured = errors.New("msgraph: credentials not configured")

	// ErrAuthFailed indicates the token request was rejected
	ErrAuthFailed = errors.New("msgraph: authentication failed")

	// ErrRequestFailed indicates a non-2xx Graph response
	ErrRequestFailed = errors.New("msgraph: request failed")

	// ErrItemNotFound indicates the drive item does not exist
	ErrItemNotFound = errors.New("msgraph: drive item not found")
)

// DriveItem is the metadata subset used for document lookups
type DriveItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Client calls Microsoft Graph for one application registration
type Client struct {
	config     *config.GraphConfig
	loginURL   string
	graphURL   string
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Option is a functional option for the client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints overrides the login and Graph hosts, used by tests
func WithEndpoints(loginURL, graphURL string) Option {
	return func(c *Client) {
		c.loginURL = strings.TrimRight(loginURL, "/")
		c.graphURL = strings.TrimRight(graphURL, "/")
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Graph client from configuration
func NewClient(cfg *config.GraphConfig, timeout time.Duration, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		config:     cfg,
		loginURL:   defaultLoginURL,
		graphURL:   defaultGraphURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// tokenResponse is the client-credentials token payload
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSafetyWindow)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("scope", graphScope)

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.loginURL, c.config.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("msgraph: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("msgraph: failed to read token response: %w", err)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%w: unparseable token response", ErrAuthFailed)
	}
	if resp.StatusCode >= 400 || token.AccessToken == "" {
		c.logger.Warn("Graph token request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", token.Error),
		)
		return "", fmt.Errorf("%w: %s %s", ErrAuthFailed, token.Error, token.ErrorDesc)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// GetItemByPath resolves a drive item by its path under the drive root
func (c *Client) GetItemByPath(ctx context.Context, path string) (*DriveItem, error) {
	if c.config.DriveID == "" {
		return nil, ErrNotConfigured
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, fmt.Errorf("msgraph: item path is required")
	}

	body, err := c.get(ctx, fmt.Sprintf("/v1.0/drives/%s/root:/%s", c.config.DriveID, escapePath(path)))
	if err != nil {
		return nil, err
	}

	var item DriveItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("msgraph: invalid drive item response: %w", err)
	}
	return &item, nil
}

// DownloadItem returns the raw content of a drive item
func (c *Client) DownloadItem(ctx context.Context, itemID string) ([]byte, error) {
	if c.config.DriveID == "" {
		return nil, ErrNotConfigured
	}
	if itemID == "" {
		return nil, fmt.Errorf("msgraph: item id is required")
	}
	return c.get(ctx, fmt.Sprintf("/v1.0/drives/%s/items/%s/content", c.config.DriveID, itemID))
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.graphURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("msgraph: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("msgraph: failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrItemNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}
	return body, nil
}

// escapePath percent-encodes each path segment, keeping separators
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
