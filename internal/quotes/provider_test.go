package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chartServer serves canned chart responses. The handler receives the
// unescaped ticker extracted from the request path.
func chartServer(t *testing.T, handler func(w http.ResponseWriter, ticker string)) *Provider {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, chartPathPrefix)
		handler(w, ticker)
	}))
	t.Cleanup(srv.Close)

	return NewProvider(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func writeChart(w http.ResponseWriter, closes []*float64) {
	resp := chartResponse{Chart: chartData{Result: []chartResult{{
		Indicators: chartIndicators{Quote: []chartQuote{{Close: closes}}},
	}}}}
	_ = json.NewEncoder(w).Encode(resp)
}

func f(v float64) *float64 {
	return &v
}

func TestProvider_OverviewAssemblesCategories(t *testing.T) {
	provider := chartServer(t, func(w http.ResponseWriter, ticker string) {
		writeChart(w, []*float64{f(100), f(102)})
	})

	overview, err := provider.Overview(context.Background())
	require.NoError(t, err)

	require.Len(t, overview.Indices, 5)
	assert.Equal(t, "日経平均", overview.Indices[0].Name)
	assert.Equal(t, "TOPIX", overview.Indices[1].Name)
	assert.Equal(t, "S&P 500", overview.Indices[2].Name)
	assert.Equal(t, "NASDAQ", overview.Indices[3].Name)
	assert.Equal(t, "ダウ平均", overview.Indices[4].Name)

	require.Len(t, overview.RiskIndicators, 1)
	assert.Equal(t, "VIX", overview.RiskIndicators[0].Name)

	assert.Empty(t, overview.Bonds)

	require.Len(t, overview.FX, 1)
	assert.Equal(t, "USD/JPY", overview.FX[0].Name)

	require.Len(t, overview.Commodities, 2)
	assert.Equal(t, "WTI原油", overview.Commodities[0].Name)
	assert.Equal(t, "金", overview.Commodities[1].Name)

	for _, item := range overview.Items() {
		assert.InDelta(t, 102.0, item.CurrentPrice, 1e-9)
		assert.InDelta(t, 2.0, item.Change, 1e-9)
		assert.InDelta(t, 2.0, item.ChangePercent, 1e-9)
	}

	assert.False(t, overview.GeneratedAt.IsZero())
}

func TestProvider_DropsFailedSymbols(t *testing.T) {
	provider := chartServer(t, func(w http.ResponseWriter, ticker string) {
		if ticker == "^TPX" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeChart(w, []*float64{f(100), f(102)})
	})

	overview, err := provider.Overview(context.Background())
	require.NoError(t, err)

	require.Len(t, overview.Indices, 4)
	for _, item := range overview.Indices {
		assert.NotEqual(t, "TOPIX", item.Name)
	}
	assert.Len(t, overview.Commodities, 2)
}

func TestProvider_DropsSymbolsWithoutHistory(t *testing.T) {
	provider := chartServer(t, func(w http.ResponseWriter, ticker string) {
		if ticker == "^VIX" {
			writeChart(w, []*float64{nil, nil})
			return
		}
		writeChart(w, []*float64{f(100), f(102)})
	})

	overview, err := provider.Overview(context.Background())
	require.NoError(t, err)

	assert.Empty(t, overview.RiskIndicators)
	assert.Len(t, overview.Indices, 5)
}

func TestProvider_DropsChartAPIErrors(t *testing.T) {
	provider := chartServer(t, func(w http.ResponseWriter, ticker string) {
		if ticker == "GC=F" {
			_ = json.NewEncoder(w).Encode(chartResponse{Chart: chartData{
				Error: &chartError{Code: "Not Found", Description: "No data found"},
			}})
			return
		}
		writeChart(w, []*float64{f(100), f(102)})
	})

	overview, err := provider.Overview(context.Background())
	require.NoError(t, err)

	require.Len(t, overview.Commodities, 1)
	assert.Equal(t, "WTI原油", overview.Commodities[0].Name)
}

func TestProvider_SingleBarHasZeroChange(t *testing.T) {
	provider := chartServer(t, func(w http.ResponseWriter, ticker string) {
		writeChart(w, []*float64{f(250.5)})
	})

	item, err := provider.fetchItem(context.Background(), Symbol{Name: "金", Ticker: "GC=F"})
	require.NoError(t, err)

	assert.InDelta(t, 250.5, item.CurrentPrice, 1e-9)
	assert.InDelta(t, 0.0, item.Change, 1e-9)
	assert.InDelta(t, 0.0, item.ChangePercent, 1e-9)
}

func TestProvider_NullClosesAreSkipped(t *testing.T) {
	provider := chartServer(t, func(w http.ResponseWriter, ticker string) {
		writeChart(w, []*float64{nil, f(100), nil, f(104)})
	})

	item, err := provider.fetchItem(context.Background(), Symbol{Name: "VIX", Ticker: "^VIX"})
	require.NoError(t, err)

	assert.InDelta(t, 104.0, item.CurrentPrice, 1e-9)
	assert.InDelta(t, 4.0, item.Change, 1e-9)
	assert.InDelta(t, 4.0, item.ChangePercent, 1e-9)
}

func TestProvider_PerSymbolTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, chartPathPrefix)
		if ticker == "USDJPY=X" {
			time.Sleep(500 * time.Millisecond)
		}
		writeChart(w, []*float64{f(100), f(102)})
	}))
	defer srv.Close()

	provider := NewProvider(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	overview, err := provider.Overview(context.Background())
	require.NoError(t, err)

	assert.Empty(t, overview.FX)
	assert.Len(t, overview.Indices, 5)
}

func TestProvider_CancelledContext(t *testing.T) {
	provider := chartServer(t, func(w http.ResponseWriter, ticker string) {
		writeChart(w, []*float64{f(100)})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Overview(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRound4(t *testing.T) {
	assert.InDelta(t, 123.4568, round4(123.456789), 1e-9)
	assert.InDelta(t, 2.0, round4(2.0), 1e-9)
	assert.InDelta(t, -0.1235, round4(-0.123456), 1e-9)
	assert.InDelta(t, 0.0, round4(0.0), 1e-9)
}
