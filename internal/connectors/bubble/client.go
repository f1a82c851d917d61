package bubble

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// Default client settings.
const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the records-per-page limit.
	DefaultPageSize = 100

	// DefaultRequestsPerSecond throttles page requests to avoid
	// tripping the platform's rate limiting.
	DefaultRequestsPerSecond = 2.0
)

// Config holds Bubble Data API client configuration.
type Config struct {
	// BaseURL is the Data API root, e.g. "https://app.example.com/api/1.1/obj".
	BaseURL string

	// Token is the API bearer token.
	Token string

	// PageSize is the per-page record limit (default 100).
	PageSize int

	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration

	// RequestsPerSecond is the client-side throttle (default 2).
	RequestsPerSecond float64

	// Retry is the retry policy applied to every page request.
	Retry RetryPolicy
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	c.Retry.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL is required", domain.ErrInvalidInput)
	}
	if c.Token == "" {
		return fmt.Errorf("%w: API token is required", domain.ErrInvalidInput)
	}
	return nil
}

// Page is one page of Data API results.
type Page struct {
	// Results are the raw records.
	Results []domain.SourceRecord

	// Remaining is how many records are left after this page.
	Remaining int

	// Count is the number of records in this page.
	Count int
}

// envelope is the Data API response wrapper.
type envelope struct {
	Response struct {
		Results   []domain.SourceRecord `json:"results"`
		Remaining int                   `json:"remaining"`
		Count     int                   `json:"count"`
	} `json:"response"`
}

// Client is a Bubble Data API HTTP client with retry and rate limiting.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}, nil
}

// FetchPage fetches one page of records for an object type, applying the
// rate limit and retry policy. Transient failures are retried with backoff;
// auth and not-found failures surface immediately as typed errors.
func (c *Client) FetchPage(ctx context.Context, objectType string, cursor int, constraints []Constraint) (*Page, error) {
	var page *Page
	err := c.cfg.Retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		p, err := c.fetchPageOnce(ctx, objectType, cursor, constraints)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// fetchPageOnce performs a single page request without retry.
func (c *Client) fetchPageOnce(ctx context.Context, objectType string, cursor int, constraints []Constraint) (*Page, error) {
	reqURL, err := c.buildURL(objectType, cursor, constraints)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			URL:        reqURL,
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	return &Page{
		Results:   env.Response.Results,
		Remaining: env.Response.Remaining,
		Count:     env.Response.Count,
	}, nil
}

// buildURL assembles the page request URL with cursor, limit and constraints.
func (c *Client) buildURL(objectType string, cursor int, constraints []Constraint) (string, error) {
	parsed, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	base := parsed.JoinPath(objectType)

	q := base.Query()
	q.Set("cursor", strconv.Itoa(cursor))
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	if encoded, err := encodeConstraints(constraints); err != nil {
		return "", err
	} else if encoded != "" {
		q.Set("constraints", encoded)
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}

// retryAfter parses the Retry-After header, defaulting to one second.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Second
}
