// Package jpx scrapes the Japan Exchange Group new-listings pages into
// listing entries. The English page is tried first; on fetch or parse
// failure the Japanese page serves as fallback, and the date parser accepts
// both pages' formats.
package jpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/logging"
)

// DefaultBaseURL is the exchange host; relative links resolve against it.
const DefaultBaseURL = "https://www.jpx.co.jp"

// Listing page locations on the exchange host, in fallback order.
const (
	englishListingPath  = "/english/listing/stocks/new/index.html"
	japaneseListingPath = "/listing/stocks/new/index.html"
)

// DefaultTimeout bounds each page fetch.
const DefaultTimeout = 15 * time.Second

// sourceName labels this upstream in error envelopes.
const sourceName = "JPX"

// Config holds the source settings.
type Config struct {
	// BaseURL overrides the exchange host (tests).
	BaseURL string

	// Timeout bounds each page fetch. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client used for requests.
	HTTPClient *http.Client
}

// Source fetches and parses the exchange's new-listings pages.
type Source struct {
	client  *http.Client
	baseURL string
	pages   []string
	timeout time.Duration
}

// NewSource creates a listing source.
func NewSource(cfg Config) *Source {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Source{
		client:  client,
		baseURL: baseURL,
		pages:   []string{baseURL + englishListingPath, baseURL + japaneseListingPath},
		timeout: timeout,
	}
}

// Latest returns the listing entries from the first page that yields any.
// When every page fails, the last failure is returned: an *api.ExternalAPIError
// for fetch problems or an *api.DataParsingError when a page had no table.
func (s *Source) Latest(ctx context.Context) ([]api.Listing, error) {
	log := logging.FromContext(ctx)

	var lastErr error
	for _, page := range s.pages {
		items, err := s.fetchAndParse(ctx, page)
		if err != nil {
			lastErr = err
			log.Warn().Ctx(ctx).Str("url", page).Err(err).Msg("listing page failed, trying next")
			continue
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// FindPDFURL locates the outline PDF link for the given listing code by
// rescanning the listing pages. An empty URL with a nil error means a page
// was fetched but carried no matching link; the error reports fetch
// failures only.
func (s *Source) FindPDFURL(ctx context.Context, code string) (string, error) {
	fetched := false
	var lastErr error

	for _, page := range s.pages {
		body, err := s.fetchPage(ctx, page)
		if err != nil {
			lastErr = err
			continue
		}
		fetched = true

		if href := findPDFForCode(body, code, s.baseURL); href != "" {
			return href, nil
		}
	}

	if !fetched {
		return "", lastErr
	}
	return "", nil
}

func (s *Source) fetchAndParse(ctx context.Context, pageURL string) ([]api.Listing, error) {
	body, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parseListings(body, s.baseURL, logging.FromContext(ctx))
}

func (s *Source) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &api.ExternalAPIError{Source: sourceName, Detail: err.Error()}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			detail = "timeout: " + detail
		}
		return nil, &api.ExternalAPIError{Source: sourceName, Detail: detail}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &api.ExternalAPIError{Source: sourceName, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &api.ExternalAPIError{Source: sourceName, Detail: err.Error()}
	}
	return body, nil
}
