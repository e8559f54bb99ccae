package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Yahoo Finance chart API endpoint pieces. The v8 chart endpoint returns
// daily bars for a symbol; five days of history is enough to compute the
// latest close and its change against the prior session.
const (
	defaultChartBaseURL = "https://query1.finance.yahoo.com"
	chartPathPrefix     = "/v8/finance/chart/"
	chartRange          = "5d"
	chartInterval       = "1d"
)

// Yahoo rejects requests that carry Go's default user agent string.
const chartUserAgent = "Mozilla/5.0 (compatible; capitalens/1.0)"

// chartResponse is the top-level envelope returned by the chart endpoint.
type chartResponse struct {
	Chart chartData `json:"chart"`
}

type chartData struct {
	Result []chartResult `json:"result"`
	Error  *chartError   `json:"error"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta       `json:"meta"`
	Timestamp  []int64         `json:"timestamp"`
	Indicators chartIndicators `json:"indicators"`
}

type chartMeta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

type chartIndicators struct {
	Quote []chartQuote `json:"quote"`
}

// chartQuote carries the per-bar series. Close uses pointers because the API
// emits null for bars without a trade (holidays, half sessions).
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// closes returns the non-null close values of the first quote series in bar order.
func (r *chartResult) closes() []float64 {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}

	series := r.Indicators.Quote[0].Close
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// fetchChart retrieves the 5-day daily chart for the given ticker.
func (p *Provider) fetchChart(ctx context.Context, ticker string) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s%s%s?range=%s&interval=%s",
		p.baseURL, chartPathPrefix, url.PathEscape(ticker), chartRange, chartInterval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request for %s: %w", ticker, err)
	}
	req.Header.Set("User-Agent", chartUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s failed: %w", ticker, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s returned status %d", ticker, resp.StatusCode)
	}

	var decoded chartResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", ticker, decodeErr)
	}

	if decoded.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s)",
			ticker, decoded.Chart.Error.Description, decoded.Chart.Error.Code)
	}

	if len(decoded.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response for %s contains no result", ticker)
	}

	return &decoded.Chart.Result[0], nil
}
