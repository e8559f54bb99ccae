// Package api defines the wire contracts of the capitalens aggregation
// server and the HTTP client the CLI and dashboard use to consume them.
//
// The client collapses every failure into TransportError. Cancellation is
// deliberately excluded from that taxonomy: when the request's context is
// cancelled the context error is returned unchanged, because callers discard
// cancelled attempts instead of surfacing them.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/capitalens/capitalens/pkg/version"
)

// Route paths served by the aggregation server.
const (
	RouteMarketOverview = "/api/market/overview"
	RouteListings       = "/api/ipo/latest"
	RouteSummary        = "/api/ipo/summary/"
	RouteVersion        = "/api/version"
	RouteHealth         = "/health"
)

// maxErrorBody bounds how much of an error response body is read when
// decoding the error envelope.
const maxErrorBody = 64 << 10

// defaultTimeout bounds requests when the config does not set one.
const defaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the server base URL, e.g. "http://localhost:8000".
	BaseURL string
	// Timeout bounds each request. Zero means defaultTimeout.
	Timeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// HTTPClient overrides the underlying client, mainly for tests. When
	// set, Timeout is ignored in favor of the given client's own.
	HTTPClient *http.Client
}

// Client is an HTTP client for the aggregation server.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "capitalens/" + version.GetVersion()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// MarketOverview fetches the aggregated market snapshot.
func (c *Client) MarketOverview(ctx context.Context) (*MarketOverview, error) {
	var out MarketOverview
	if err := c.get(ctx, RouteMarketOverview, "fetch market overview", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestListings fetches the full listing collection. The server never
// returns partial collections; any upstream failure surfaces as an error or
// an empty collection, not a truncated one.
func (c *Client) LatestListings(ctx context.Context) (*ListingCollection, error) {
	var out ListingCollection
	if err := c.get(ctx, RouteListings, "fetch listing collection", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListingSummary fetches the generated outline summary for one listing code.
func (c *Client) ListingSummary(ctx context.Context, code string) (*ListingSummary, error) {
	var out ListingSummary
	op := fmt.Sprintf("fetch summary for %s", code)
	if err := c.get(ctx, RouteSummary+url.PathEscape(code), op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Version fetches the server's build and API versions.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var out VersionInfo
	if err := c.get(ctx, RouteVersion, "fetch server version", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, RouteHealth, "health check", &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return &TransportError{
			Op:     "health check",
			URL:    c.baseURL + RouteHealth,
			Detail: fmt.Sprintf("unexpected status %q", out.Status),
		}
	}
	return nil
}

// CheckVersion verifies the server's API version shares this client's major
// version. It returns an error wrapping ErrVersionMismatch on an
// incompatible server.
func (c *Client) CheckVersion(ctx context.Context) error {
	info, err := c.Version(ctx)
	if err != nil {
		return err
	}

	server, err := semver.NewVersion(info.APIVersion)
	if err != nil {
		return fmt.Errorf("parse server api version %q: %w", info.APIVersion, err)
	}
	client := semver.MustParse(version.APIVersion)

	if server.Major() != client.Major() {
		return fmt.Errorf("%w: server speaks %s, client requires %d.x",
			ErrVersionMismatch, info.APIVersion, client.Major())
	}
	return nil
}

// get issues a GET against path and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path, op string, out any) error {
	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &TransportError{Op: op, URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: op, URL: reqURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		te := &TransportError{Op: op, URL: reqURL, StatusCode: resp.StatusCode}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr == nil {
			var env ErrorEnvelope
			if jsonErr := json.Unmarshal(body, &env); jsonErr == nil && env.Error != "" {
				te.Kind = env.Error
				te.Source = env.Source
				te.Detail = env.Detail
			}
		}
		return te
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Op: op, URL: reqURL, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
