package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// TokenSource resolves the API access token. Resolution happens lazily on
// the first request and the token is cached for the lifetime of the client.
type TokenSource interface {
	Token() (string, error)
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() (string, error)

func (f TokenFunc) Token() (string, error) { return f() }

// StaticToken returns a TokenSource that always yields the given token.
func StaticToken(token string) TokenSource {
	return TokenFunc(func() (string, error) { return token, nil })
}

// ClientConfig configures the Graph API client behavior.
type ClientConfig struct {
	// Host of the API (default: "graph.facebook.com").
	Host string

	// Version prefix for request paths (default: "v22.0").
	Version string

	// Tokens supplies the access token.
	Tokens TokenSource

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// MaxRetries per page fetch (default: 3).
	MaxRetries int

	// BaseDelay seeds the exponential backoff for rate-limit errors
	// (default: 1s).
	BaseDelay time.Duration

	// SleepDelay is the flat wait added to every backoff (default: 5s).
	SleepDelay time.Duration

	// RateLimit requests per second (default: 10).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// UserAgent string (default: "ads-core/1.0").
	UserAgent string

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// DefaultClientConfig returns a client config with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Host:       "graph.facebook.com",
		Version:    "v22.0",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Second,
		SleepDelay: 5 * time.Second,
		RateLimit:  10.0,
		RateBurst:  5,
		UserAgent:  "ads-core/1.0",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a rate-limited Graph API client.
type Client struct {
	config      *ClientConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter

	mu    sync.Mutex
	token string
}

// NewClient creates a Graph API client with the given configuration.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.Host == "" {
		config.Host = "graph.facebook.com"
	}
	if config.Version == "" {
		config.Version = "v22.0"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay == 0 {
		config.BaseDelay = time.Second
	}
	if config.SleepDelay == 0 {
		config.SleepDelay = 5 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10.0
	}
	if config.RateBurst == 0 {
		config.RateBurst = 5
	}
	if config.UserAgent == "" {
		config.UserAgent = "ads-core/1.0"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
	}
}

// AccessToken resolves and caches the access token.
func (c *Client) AccessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	if c.config.Tokens == nil {
		return "", fmt.Errorf("no token source configured")
	}
	token, err := c.config.Tokens.Token()
	if err != nil {
		return "", fmt.Errorf("resolve access token: %w", err)
	}
	c.token = token
	return token, nil
}

// invalidateToken drops the cached token after the API rejected it, so
// the next call resolves a fresh one from the source. The current call
// still fails: its page URLs carry the stale token.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// objectURL builds https://<host>/<version>/<object_id>[/<edge>]?<query>.
func (c *Client) objectURL(objectID, edge string, query url.Values) string {
	path := objectID
	if edge != "" {
		path = strings.TrimSuffix(objectID, "/") + "/" + strings.TrimPrefix(edge, "/")
	}
	u := url.URL{
		Scheme:   "https",
		Host:     c.config.Host,
		Path:     "/" + c.config.Version + "/" + path,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// fetchJSON performs a single rate-limited GET of an absolute URL and
// returns the raw body. Non-2xx responses come back as a classified
// *Error; network failures as CategoryTransport.
func (c *Client) fetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := classifyResponse(resp.StatusCode, body)
		if apiErr.Code == codeInvalidToken {
			c.invalidateToken()
		}
		return nil, apiErr
	}
	return body, nil
}

// backoffFor computes the wait before the next attempt from the failure
// category: exponential (base * 2^attempt + sleep) for rate limits,
// linear (sleep + attempt*2s) for transport faults.
func (c *Client) backoffFor(category Category, attempt int, spec CallSpec) time.Duration {
	base := spec.BaseDelay
	if base == 0 {
		base = c.config.BaseDelay
	}
	sleep := spec.SleepDelay
	if sleep == 0 {
		sleep = c.config.SleepDelay
	}
	if category == CategoryRateLimit {
		return base*time.Duration(1<<uint(attempt)) + sleep
	}
	return sleep + time.Duration(attempt)*2*time.Second
}

func (c *Client) maxRetries(spec CallSpec) int {
	if spec.MaxRetries > 0 {
		return spec.MaxRetries
	}
	return c.config.MaxRetries
}
