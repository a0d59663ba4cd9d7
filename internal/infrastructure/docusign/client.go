// Package docusign verifies Connect webhook signatures and obtains API
// tokens through the JWT grant flow.
package docusign

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/marsops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// tokenSafetyWindow re-issues tokens slightly before they would expire
const tokenSafetyWindow = 2 * time.Minute

// jwtGrantType is the OAuth grant type for the JWT bearer flow
const jwtGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

var (
	// ErrNotConfigured indicates missing DocuSign credentials
	ErrNotConfigured = errors.New("docusign: credentials not configured")

	// ErrInvalidSignature indicates a webhook payload whose HMAC does not match
	ErrInvalidSignature = errors.New("docusign: invalid webhook signature")

	// ErrAuthFailed indicates the JWT grant was rejected
	ErrAuthFailed = errors.New("docusign: authentication failed")

	// ErrInvalidResponse indicates an unparseable response body
	ErrInvalidResponse = errors.New("docusign: invalid response")
)

// WebhookVerifier checks Connect webhook HMAC signatures
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the given shared secret
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, ErrNotConfigured
	}
	return &WebhookVerifier{secret: []byte(secret)}, nil
}

// Verify checks that signature is the base64 HMAC-SHA256 of payload.
// DocuSign sends the value in the X-DocuSign-Signature-1 header.
func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	if signature == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// Client obtains access tokens through the JWT grant flow
type Client struct {
	config     *config.DocuSignConfig
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

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

// NewClient creates a DocuSign API client from configuration
func NewClient(cfg *config.DocuSignConfig, timeout time.Duration, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" || cfg.IntegratorKey == "" ||
		cfg.UserID == "" || cfg.PrivateKey == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// tokenResponse is the OAuth token endpoint payload
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// AccessToken returns a valid access token, re-issuing the JWT grant when
// the cached token is missing or inside the expiry window
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-tokenSafetyWindow)) {
		return c.accessToken, nil
	}

	assertion, err := c.buildAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", jwtGrantType)
	form.Set("assertion", assertion)

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("docusign: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("docusign: failed to read token response: %w", err)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if resp.StatusCode >= 400 || token.AccessToken == "" {
		c.logger.Warn("DocuSign JWT grant rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", token.Error),
		)
		return "", fmt.Errorf("%w: %s", ErrAuthFailed, token.Error)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// buildAssertion signs the JWT grant assertion with the configured RSA key
func (c *Client) buildAssertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.config.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("docusign: failed to parse private key: %w", err)
	}

	audience, err := url.Parse(c.config.BaseURL)
	if err != nil || audience.Host == "" {
		return "", fmt.Errorf("docusign: invalid base URL %q", c.config.BaseURL)
	}

	now := c.now()
	claims := jwt.MapClaims{
		"iss":   c.config.IntegratorKey,
		"sub":   c.config.UserID,
		"aud":   audience.Host,
		"scope": "signature impersonation",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("docusign: failed to sign assertion: %w", err)
	}
	return assertion, nil
}

// Envelope is the subset of envelope metadata the dashboard uses
type Envelope struct {
	EnvelopeID   string `json:"envelopeId"`
	Status       string `json:"status"`
	EmailSubject string `json:"emailSubject"`
	SentDateTime string `json:"sentDateTime"`
}

// ErrEnvelopeNotFound indicates the envelope does not exist in the account
var ErrEnvelopeNotFound = errors.New("docusign: envelope not found")

// GetEnvelope fetches envelope metadata, re-issuing the grant once if the
// cached token has been revoked upstream.
func (c *Client) GetEnvelope(ctx context.Context, envelopeID string) (*Envelope, error) {
	if c.config.AccountID == "" {
		return nil, ErrNotConfigured
	}

	envelope, status, err := c.fetchEnvelope(ctx, envelopeID)
	if status == http.StatusUnauthorized {
		c.InvalidateToken()
		envelope, status, err = c.fetchEnvelope(ctx, envelopeID)
	}
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrEnvelopeNotFound
	case status >= 400:
		return nil, fmt.Errorf("docusign: envelope request failed with status %d", status)
	}
	return envelope, nil
}

func (c *Client) fetchEnvelope(ctx context.Context, envelopeID string) (*Envelope, int, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, 0, err
	}

	endpoint := fmt.Sprintf("%s/restapi/v2.1/accounts/%s/envelopes/%s",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(c.config.AccountID),
		url.PathEscape(envelopeID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("docusign: failed to create envelope request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("docusign: envelope request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("docusign: failed to read envelope response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, nil
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &envelope, resp.StatusCode, nil
}

// InvalidateToken drops the cached access token so the next call re-issues
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
}
