// Package suiteql is a NetSuite SuiteQL client. It signs requests with
// OAuth 1.0a token-based authentication and pages through query results.
package suiteql

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marsops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxResponseSize is the maximum allowed response size from the SuiteQL API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxPageSize is the row cap NetSuite enforces per SuiteQL request
const maxPageSize = 1000

var (
	// ErrNotConfigured indicates missing NetSuite credentials
	ErrNotConfigured = errors.New("suiteql: account or credentials not configured")

	// ErrRequestFailed indicates a non-2xx response from NetSuite
	ErrRequestFailed = errors.New("suiteql: request failed")

	// ErrInvalidResponse indicates an unparseable response body
	ErrInvalidResponse = errors.New("suiteql: invalid response")
)

// Row is one SuiteQL result row, keyed by lowercase column alias
type Row map[string]json.RawMessage

// String returns the column value as a string, empty when absent or null
func (r Row) String(column string) string {
	raw, ok := r[column]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Numeric columns come back unquoted
	return strings.Trim(string(raw), `"`)
}

// Int64 returns the column value as an int64, zero when absent or unparseable
func (r Row) Int64(column string) int64 {
	v, _ := strconv.ParseInt(r.String(column), 10, 64)
	return v
}

// Float64 returns the column value as a float64, zero when absent or unparseable
func (r Row) Float64(column string) float64 {
	v, _ := strconv.ParseFloat(r.String(column), 64)
	return v
}

// Time parses the column as a NetSuite date (M/D/YYYY), zero time on failure
func (r Row) Time(column string) time.Time {
	s := r.String(column)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"1/2/2006", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// queryResponse is the SuiteQL result envelope
type queryResponse struct {
	Items        []Row `json:"items"`
	HasMore      bool  `json:"hasMore"`
	Count        int   `json:"count"`
	Offset       int   `json:"offset"`
	TotalResults int   `json:"totalResults"`
}

// Page is one fetched page of rows
type Page struct {
	Rows    []Row
	Offset  int
	HasMore bool
}

// Client issues signed SuiteQL requests against one NetSuite account
type Client struct {
	config     *config.NetSuiteConfig
	httpClient *http.Client
	pageSize   int
	logger     *zap.Logger

	// overridable for deterministic signature tests
	nonce     func() string
	timestamp func() string
}

// Option is a functional option for the client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPageSize sets rows per request, capped at the SuiteQL limit
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= maxPageSize {
			c.pageSize = n
		}
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a SuiteQL client from configuration
func NewClient(cfg *config.NetSuiteConfig, timeout time.Duration, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.AccountID == "" || cfg.ConsumerKey == "" ||
		cfg.ConsumerSecret == "" || cfg.TokenID == "" || cfg.TokenSecret == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		pageSize:   maxPageSize,
		logger:     zap.NewNop(),
		nonce:      randomNonce,
		timestamp: func() string {
			return strconv.FormatInt(time.Now().Unix(), 10)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// QueryPage runs a SuiteQL query and returns a single page starting at offset
func (c *Client) QueryPage(ctx context.Context, query string, offset int) (*Page, error) {
	endpoint := fmt.Sprintf("%s/services/rest/query/v1/suiteql", strings.TrimRight(c.config.BaseURL, "/"))

	queryParams := url.Values{}
	queryParams.Set("limit", strconv.Itoa(c.pageSize))
	queryParams.Set("offset", strconv.Itoa(offset))

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, fmt.Errorf("suiteql: failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+queryParams.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("suiteql: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "transient")
	req.Header.Set("Authorization", c.authorizationHeader(http.MethodPost, endpoint, queryParams))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("suiteql: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("SuiteQL request rejected",
			zap.Int("status", resp.StatusCode),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, truncate(respBody, 500))
	}

	var parsed queryResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return &Page{
		Rows:    parsed.Items,
		Offset:  parsed.Offset,
		HasMore: parsed.HasMore,
	}, nil
}

// QueryAll runs a SuiteQL query and pages through the full result set.
// maxPages of zero means no page cap. The handler is called once per page.
func (c *Client) QueryAll(ctx context.Context, query string, maxPages int, handler func(page *Page) error) (int, error) {
	offset := 0
	pages := 0
	for {
		page, err := c.QueryPage(ctx, query, offset)
		if err != nil {
			return pages, err
		}
		pages++
		if err := handler(page); err != nil {
			return pages, err
		}
		if !page.HasMore {
			return pages, nil
		}
		if maxPages > 0 && pages >= maxPages {
			c.logger.Warn("SuiteQL page cap reached before result set was exhausted",
				zap.Int("pages", pages),
			)
			return pages, nil
		}
		offset += c.pageSize
	}
}

// authorizationHeader builds the OAuth 1.0a header for one request
func (c *Client) authorizationHeader(method, endpoint string, queryParams url.Values) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     c.config.ConsumerKey,
		"oauth_token":            c.config.TokenID,
		"oauth_signature_method": "HMAC-SHA256",
		"oauth_timestamp":        c.timestamp(),
		"oauth_nonce":            c.nonce(),
		"oauth_version":          "1.0",
	}

	signature := c.sign(method, endpoint, queryParams, oauthParams)

	realm := strings.ToUpper(c.config.AccountID)
	var sb strings.Builder
	sb.WriteString(`OAuth realm="`)
	sb.WriteString(realm)
	sb.WriteString(`"`)

	keys := make([]string, 0, len(oauthParams)+1)
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(", ")
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(percentEncode(oauthParams[k]))
		sb.WriteString(`"`)
	}
	sb.WriteString(`, oauth_signature="`)
	sb.WriteString(percentEncode(signature))
	sb.WriteString(`"`)

	return sb.String()
}

// sign computes the HMAC-SHA256 signature over the OAuth base string
func (c *Client) sign(method, endpoint string, queryParams url.Values, oauthParams map[string]string) string {
	// All request parameters, sorted by encoded key, joined pairwise
	params := make(map[string]string, len(oauthParams)+len(queryParams))
	for k, v := range oauthParams {
		params[k] = v
	}
	for k := range queryParams {
		params[k] = queryParams.Get(k)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}

	baseString := strings.Join([]string{
		method,
		percentEncode(endpoint),
		percentEncode(strings.Join(pairs, "&")),
	}, "&")

	signingKey := percentEncode(c.config.ConsumerSecret) + "&" + percentEncode(c.config.TokenSecret)

	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies RFC 3986 encoding as OAuth 1.0a requires
func percentEncode(s string) string {
	var sb strings.Builder
	for _, b := range []byte(s) {
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') ||
			(b >= '0' && b <= '9') || b == '-' || b == '.' || b == '_' || b == '~' {
			sb.WriteByte(b)
		} else {
			sb.WriteString(fmt.Sprintf("%%%02X", b))
		}
	}
	return sb.String()
}

// randomNonce returns a 16-byte hex nonce
func randomNonce() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf)
}

// truncate caps a response body excerpt for error messages
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
