// Package bondyield fetches treasury yield observations from a FRED-style
// CSV endpoint and reduces them to the bonds category of the market
// overview. A failure here drops only the bonds category; the rest of the
// overview is unaffected.
package bondyield

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/capitalens/capitalens/internal/api"
)

// DefaultTimeout bounds the observation fetch.
const DefaultTimeout = 15 * time.Second

// SeriesDGS10 is the 10-year treasury constant maturity series.
const SeriesDGS10 = "DGS10"

const (
	defaultBaseURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"

	// displayName labels the yield item in the overview.
	displayName = "米10年国債利回り"
)

// Config holds the provider settings.
type Config struct {
	// BaseURL overrides the observation CSV endpoint (tests).
	BaseURL string

	// Series selects the yield series. Zero means SeriesDGS10.
	Series string

	// Timeout bounds the fetch. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client used for requests.
	HTTPClient *http.Client
}

// Provider fetches yield observations.
type Provider struct {
	client  *http.Client
	baseURL string
	series  string
	timeout time.Duration
}

// NewProvider creates a bond yield provider.
func NewProvider(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	series := cfg.Series
	if series == "" {
		series = SeriesDGS10
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Provider{
		client:  client,
		baseURL: baseURL,
		series:  series,
		timeout: timeout,
	}
}

// Bonds fetches the yield series and returns the bonds category items. The
// latest observation is compared against the prior one; a series with a
// single numeric observation yields a zero change.
func (p *Provider) Bonds(ctx context.Context) ([]api.MarketItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s?id=%s", p.baseURL, url.QueryEscape(p.series))
	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build observation request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("observation request for %s failed: %w", p.series, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("observation request for %s returned status %d", p.series, resp.StatusCode)
	}

	values, err := parseObservations(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s observations: %w", p.series, err)
	}

	latest := values[len(values)-1]
	prev := latest
	if len(values) > 1 {
		prev = values[len(values)-2]
	}

	change := latest - prev
	changePct := 0.0
	if prev != 0 {
		changePct = change / prev * 100
	}

	return []api.MarketItem{{
		Name:          displayName,
		CurrentPrice:  round4(latest),
		Change:        round4(change),
		ChangePercent: round4(changePct),
	}}, nil
}

// parseObservations extracts the numeric values of a two-column observation
// CSV in row order. The header row and "." placeholders for days without an
// observation are skipped.
func parseObservations(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	// Observation exports occasionally carry ragged rows; tolerate them.
	reader.FieldsPerRecord = -1

	var values []float64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) < 2 {
			continue
		}

		v, parseErr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if parseErr != nil {
			continue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, errors.New("no numeric observations")
	}

	return values, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
