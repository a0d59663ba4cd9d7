// Package salesforce is a minimal Salesforce REST client. It exchanges a
// long-lived refresh token for access tokens and pulls opportunity rows from
// an analytics report.
package salesforce

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

// maxResponseSize is the maximum allowed response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// tokenSafetyWindow refreshes tokens slightly before they would expire
const tokenSafetyWindow = 2 * time.Minute

var (
	// ErrNotConfigured indicates missing Salesforce credentials
	ErrNotConfigured = errors.New("salesforce: instance or credentials not configured")

	// ErrAuthFailed indicates the token exchange was rejected
	ErrAuthFailed = errors.New("salesforce: authentication failed")

	// ErrRequestFailed indicates a non-2xx API response
	ErrRequestFailed = errors.New("salesforce: request failed")

	// ErrInvalidResponse indicates an unparseable response body
	ErrInvalidResponse = errors.New("salesforce: invalid response")
)

// OpportunityRow is one row of the pipeline report
type OpportunityRow struct {
	ID        string
	Name      string
	Account   string
	Stage     string
	Amount    float64
	CloseDate string
}

// Client calls the Salesforce REST API for one connected app
type Client struct {
	config     *config.SalesforceConfig
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

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Salesforce client from configuration
func NewClient(cfg *config.SalesforceConfig, timeout time.Duration, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.InstanceURL == "" || cfg.ClientID == "" ||
		cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// tokenResponse is the OAuth token endpoint payload
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// ensureToken refreshes the access token when missing or near expiry
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSafetyWindow)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("refresh_token", c.config.RefreshToken)

	endpoint := strings.TrimRight(c.config.InstanceURL, "/") + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("salesforce: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("salesforce: failed to read token response: %w", err)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp.StatusCode >= 400 || token.AccessToken == "" {
		c.logger.Warn("Salesforce token exchange rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", token.Error),
		)
		return "", fmt.Errorf("%w: %s %s", ErrAuthFailed, token.Error, token.ErrorDesc)
	}

	// Salesforce does not return expires_in on refresh grants; sessions live
	// until revoked, so a conservative local lifetime is used.
	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(30 * time.Minute)
	return c.accessToken, nil
}

// InvalidateToken drops the cached access token so the next call refreshes
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
}

// reportResponse mirrors the analytics report "T!T" fact map shape
type reportResponse struct {
	FactMap map[string]struct {
		Rows []struct {
			DataCells []struct {
				Label string      `json:"label"`
				Value interface{} `json:"value"`
			} `json:"dataCells"`
		} `json:"rows"`
	} `json:"factMap"`
}

// FetchPipelineReport runs the configured report and flattens its rows.
// Column order in the report is expected to be: opportunity ID, name,
// account, stage, amount, close date.
func (c *Client) FetchPipelineReport(ctx context.Context) ([]OpportunityRow, error) {
	if c.config.ReportID == "" {
		return nil, ErrNotConfigured
	}

	body, err := c.get(ctx, fmt.Sprintf("/services/data/%s/analytics/reports/%s",
		c.config.APIVersion, c.config.ReportID))
	if err != nil {
		return nil, err
	}

	var report reportResponse
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	grand, ok := report.FactMap["T!T"]
	if !ok {
		return nil, fmt.Errorf("%w: report fact map missing grand total block", ErrInvalidResponse)
	}

	rows := make([]OpportunityRow, 0, len(grand.Rows))
	for _, r := range grand.Rows {
		row := OpportunityRow{}
		for i, cell := range r.DataCells {
			switch i {
			case 0:
				if s, ok := cell.Value.(string); ok {
					row.ID = s
				} else {
					row.ID = cell.Label
				}
			case 1:
				row.Name = cell.Label
			case 2:
				row.Account = cell.Label
			case 3:
				row.Stage = cell.Label
			case 4:
				switch v := cell.Value.(type) {
				case float64:
					row.Amount = v
				case map[string]interface{}:
					if amount, ok := v["amount"].(float64); ok {
						row.Amount = amount
					}
				}
			case 5:
				row.CloseDate = cell.Label
			}
		}
		if row.ID != "" {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// get issues an authenticated GET and retries once after a 401
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, status, err := c.doGet(ctx, path)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		// Session expired server side; refresh and retry once
		c.InvalidateToken()
		body, status, err = c.doGet(ctx, path)
		if err != nil {
			return nil, err
		}
	}
	if status >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, status, truncate(body, 500))
	}
	return body, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, int, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.config.InstanceURL, "/")+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("salesforce: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("salesforce: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// truncate caps a response body excerpt for error messages
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
