package api

import "time"

// MarketItem is one quoted figure: an index level, a yield, an FX rate, or a
// commodity price together with its change against the previous close.
type MarketItem struct {
	// Name is the display name, e.g. "日経平均" or "USD/JPY".
	Name string `json:"name"`
	// CurrentPrice is the latest close, rounded to four decimals.
	CurrentPrice float64 `json:"current_price"`
	// Change is the absolute move against the previous close.
	Change float64 `json:"change"`
	// ChangePercent is the relative move against the previous close.
	ChangePercent float64 `json:"change_percent"`
}

// MarketOverview is the aggregated snapshot served by /api/market/overview.
// Categories are independent: a failing upstream symbol is dropped from its
// category rather than failing the snapshot.
type MarketOverview struct {
	Indices        []MarketItem `json:"indices"`
	RiskIndicators []MarketItem `json:"risk_indicators"`
	Bonds          []MarketItem `json:"bonds"`
	FX             []MarketItem `json:"fx"`
	Commodities    []MarketItem `json:"commodities"`
	// GeneratedAt is when the server assembled this snapshot.
	GeneratedAt time.Time `json:"generated_at"`
}

// Items flattens all categories in display order.
func (o *MarketOverview) Items() []MarketItem {
	out := make([]MarketItem, 0,
		len(o.Indices)+len(o.RiskIndicators)+len(o.Bonds)+len(o.FX)+len(o.Commodities))
	out = append(out, o.Indices...)
	out = append(out, o.RiskIndicators...)
	out = append(out, o.Bonds...)
	out = append(out, o.FX...)
	out = append(out, o.Commodities...)
	return out
}

// Listing is one exchange listing entry. Snapshots are immutable: the server
// replaces the whole collection on every fetch and entries are never patched
// in place.
type Listing struct {
	// Code is the ticker-like security code, unique within one collection
	// snapshot.
	Code string `json:"code"`
	// Company is the normalized company name.
	Company string `json:"company"`
	// Market is the exchange segment, e.g. "グロース".
	Market string `json:"market"`
	// ListingDate is the date the security lists.
	ListingDate Date `json:"listing_date"`
	// OfferingPrice is the offering price in JPY, or nil when not yet set.
	OfferingPrice *float64 `json:"offering_price"`
	// OutlinePDFURL links the company outline document when one was found.
	OutlinePDFURL string `json:"outline_pdf_url,omitempty"`
	// GeneratedAt is the collection snapshot timestamp this entry belongs to.
	GeneratedAt time.Time `json:"generated_at"`
}

// ListingCollection is the full set of recent listings served by
// /api/ipo/latest. It is replaced wholesale on every successful fetch.
type ListingCollection struct {
	Items      []Listing `json:"items"`
	TotalCount int       `json:"total_count"`
	// GeneratedAt is when the server assembled this snapshot.
	GeneratedAt time.Time `json:"generated_at"`
}

// ListingSummary is the expensive per-listing outline summary served by
// /api/ipo/summary/{code}.
type ListingSummary struct {
	Code string `json:"code"`
	// Bullets are the summary lines, in document order.
	Bullets []string `json:"bullets"`
	// Cached reports whether the server answered from its own cache. The
	// flag is informational for display; client-side fetch decisions never
	// consult it.
	Cached bool `json:"cached"`
	// GeneratedAt is when the summary content was generated, which predates
	// the response time on a cache hit.
	GeneratedAt time.Time `json:"generated_at"`
}

// VersionInfo is served by /api/version for the client handshake.
type VersionInfo struct {
	// Version is the server build version.
	Version string `json:"version"`
	// APIVersion is the wire contract version, compared by major.
	APIVersion string `json:"api_version"`
}

// ErrorEnvelope is the JSON body the server attaches to upstream failures.
type ErrorEnvelope struct {
	// Error is the machine-readable kind: "external_api_error" or
	// "data_parsing_error".
	Error string `json:"error"`
	// Source names the upstream that failed, e.g. "JPX".
	Source string `json:"source"`
	// Detail is a human-readable description.
	Detail string `json:"detail"`
}

// Error envelope kinds.
const (
	ErrorKindExternalAPI = "external_api_error"
	ErrorKindDataParsing = "data_parsing_error"
)
