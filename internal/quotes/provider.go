// Package quotes produces the market overview snapshot from the Yahoo
// Finance chart API. Symbols are fetched concurrently with a per-symbol
// timeout; symbols that fail or time out are dropped from the snapshot so a
// single bad ticker never breaks the whole overview.
package quotes

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/logging"
)

// DefaultTimeout is the per-symbol fetch budget.
const DefaultTimeout = 15 * time.Second

// Symbol pairs a display name with its Yahoo Finance ticker.
type Symbol struct {
	Name   string
	Ticker string
}

// Market symbol catalog, bucketed by overview category. Category names match
// the JSON fields of the overview response.
//
//nolint:gochecknoglobals // Fixed catalog shared by every overview fetch.
var (
	categoryOrder = []string{"indices", "risk_indicators", "fx", "commodities"}

	marketSymbols = map[string][]Symbol{
		"indices": {
			{Name: "日経平均", Ticker: "^N225"},
			{Name: "TOPIX", Ticker: "^TPX"},
			{Name: "S&P 500", Ticker: "^GSPC"},
			{Name: "NASDAQ", Ticker: "^IXIC"},
			{Name: "ダウ平均", Ticker: "^DJI"},
		},
		"risk_indicators": {
			{Name: "VIX", Ticker: "^VIX"},
		},
		"fx": {
			{Name: "USD/JPY", Ticker: "USDJPY=X"},
		},
		"commodities": {
			{Name: "WTI原油", Ticker: "CL=F"},
			{Name: "金", Ticker: "GC=F"},
		},
	}
)

// Config holds the provider settings.
type Config struct {
	// BaseURL overrides the Yahoo chart API base URL (tests).
	BaseURL string

	// Timeout bounds each per-symbol fetch. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client used for chart requests.
	HTTPClient *http.Client
}

// Provider fetches market snapshots.
type Provider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// NewProvider creates a market data provider.
func NewProvider(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultChartBaseURL
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
		timeout: timeout,
	}
}

// Overview fetches every catalog symbol concurrently and assembles the
// bucketed market overview. Symbols that fail or exceed the per-symbol
// timeout are logged and dropped; the returned error is non-nil only when
// ctx is cancelled before assembly completes. The bonds category comes from
// a separate yield provider and is left empty here.
func (p *Provider) Overview(ctx context.Context) (*api.MarketOverview, error) {
	log := logging.FromContext(ctx)

	type slot struct {
		category string
		symbol   Symbol
	}

	var flat []slot
	for _, cat := range categoryOrder {
		for _, sym := range marketSymbols[cat] {
			flat = append(flat, slot{category: cat, symbol: sym})
		}
	}

	// Each goroutine writes its own slot, so catalog order survives the
	// concurrent fan-out without extra locking.
	results := make([]*api.MarketItem, len(flat))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, s := range flat {
		g.Go(func() error {
			item, err := p.fetchItem(gCtx, s.symbol)
			if err != nil {
				log.Warn().
					Ctx(ctx).
					Str("name", s.symbol.Name).
					Str("ticker", s.symbol.Ticker).
					Err(err).
					Msg("dropping market item from overview")
				// Always return nil so one failed symbol cannot
				// cancel the others.
				return nil
			}
			results[i] = item
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	overview := &api.MarketOverview{GeneratedAt: time.Now().UTC()}
	offset := 0
	for _, cat := range categoryOrder {
		size := len(marketSymbols[cat])
		items := make([]api.MarketItem, 0, size)
		for _, r := range results[offset : offset+size] {
			if r != nil {
				items = append(items, *r)
			}
		}
		offset += size

		switch cat {
		case "indices":
			overview.Indices = items
		case "risk_indicators":
			overview.RiskIndicators = items
		case "fx":
			overview.FX = items
		case "commodities":
			overview.Commodities = items
		}
	}

	return overview, nil
}

// fetchItem retrieves one symbol's chart and reduces it to a market item.
// The latest close is compared against the prior session's close; a single
// bar of history yields a zero change.
func (p *Provider) fetchItem(ctx context.Context, sym Symbol) (*api.MarketItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.fetchChart(fetchCtx, sym.Ticker)
	if err != nil {
		return nil, err
	}

	closes := result.closes()
	if len(closes) == 0 {
		return nil, fmt.Errorf("no history data for %s (%s)", sym.Name, sym.Ticker)
	}

	latest := closes[len(closes)-1]
	prev := latest
	if len(closes) > 1 {
		prev = closes[len(closes)-2]
	}

	change := latest - prev
	changePct := 0.0
	if prev != 0 {
		changePct = change / prev * 100
	}

	return &api.MarketItem{
		Name:          sym.Name,
		CurrentPrice:  round4(latest),
		Change:        round4(change),
		ChangePercent: round4(changePct),
	}, nil
}

// round4 rounds to four decimal places, matching the precision of the
// overview wire format.
func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
