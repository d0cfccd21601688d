package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/listenupapp/agetags-server/internal/metrics"
	"github.com/listenupapp/agetags-server/internal/ratelimit"
)

const (
	// TMDB allows roughly 40 requests per second; stay well below it.
	defaultRPS   = 20.0
	defaultBurst = 10

	// HTTP client settings
	defaultTimeout = 30 * time.Second

	// Cap on response bodies; certification payloads are a few KB.
	maxBodyBytes = 4 << 20
)

// Client is a rate-limited TMDB API client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
	apiKey  string
	baseURL string
}

// New creates a new TMDB client. A blank baseURL selects DefaultBaseURL.
// A blank apiKey is accepted here; requests then fail with ErrMissingAPIKey.
func New(apiKey, baseURL string, logger *slog.Logger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// HasAPIKey reports whether the client was configured with credentials.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest executes a GET with rate limiting. endpoint is the limiter key and metric label.
func (c *Client) doRequest(ctx context.Context, endpoint, path string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AgeTags/1.0")

	// The query string carries the API key; log the path only.
	c.logger.Debug("tmdb request",
		"endpoint", endpoint,
		"path", path,
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.TMDBRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("execute request: %w", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()
	metrics.TMDBRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	metrics.TMDBRequestsTotal.WithLabelValues(endpoint, statusClass(resp.StatusCode)).Inc()

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
}

// redactKey strips the API key from transport errors, which embed the request URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if key != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, key, "REDACTED")
	}
	return err
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
