package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/pkg/version"
)

type stubMarket struct {
	overview *api.MarketOverview
	err      error
}

func (s *stubMarket) Overview(ctx context.Context) (*api.MarketOverview, error) {
	return s.overview, s.err
}

type stubBonds struct {
	items []api.MarketItem
	err   error
}

func (s *stubBonds) Bonds(ctx context.Context) ([]api.MarketItem, error) {
	return s.items, s.err
}

type stubListings struct {
	items []api.Listing
	err   error
}

func (s *stubListings) Latest(ctx context.Context) ([]api.Listing, error) {
	return s.items, s.err
}

type stubSummaries struct {
	summary *api.ListingSummary
	err     error
	calls   atomic.Int32
}

func (s *stubSummaries) Summarize(ctx context.Context, code string) (*api.ListingSummary, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := *s.summary
	out.Code = code
	return &out, nil
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Market == nil {
		cfg.Market = &stubMarket{overview: &api.MarketOverview{}}
	}
	if cfg.Bonds == nil {
		cfg.Bonds = &stubBonds{}
	}
	if cfg.Listings == nil {
		cfg.Listings = &stubListings{}
	}
	if cfg.Summaries == nil {
		cfg.Summaries = &stubSummaries{summary: &api.ListingSummary{Bullets: []string{"b"}}}
	}

	s, err := New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, body := get(t, srv.URL+api.RouteHealth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServer_Version(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, body := get(t, srv.URL+api.RouteVersion)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info api.VersionInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, version.GetVersion(), info.Version)
	assert.Equal(t, version.APIVersion, info.APIVersion)
}

func TestServer_MarketOverviewMergesBonds(t *testing.T) {
	market := &stubMarket{overview: &api.MarketOverview{
		Indices: []api.MarketItem{{Name: "日経平均", CurrentPrice: 40000}},
	}}
	bonds := &stubBonds{items: []api.MarketItem{{Name: "米10年国債利回り", CurrentPrice: 4.3}}}
	srv := newTestServer(t, Config{Market: market, Bonds: bonds})

	resp, body := get(t, srv.URL+api.RouteMarketOverview)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var overview api.MarketOverview
	require.NoError(t, json.Unmarshal(body, &overview))
	require.Len(t, overview.Indices, 1)
	assert.Equal(t, "日経平均", overview.Indices[0].Name)
	require.Len(t, overview.Bonds, 1)
	assert.Equal(t, "米10年国債利回り", overview.Bonds[0].Name)
	assert.False(t, overview.GeneratedAt.IsZero())
}

func TestServer_MarketOverviewDropsBondsOnFailure(t *testing.T) {
	market := &stubMarket{overview: &api.MarketOverview{
		Indices: []api.MarketItem{{Name: "TOPIX", CurrentPrice: 2800}},
	}}
	bonds := &stubBonds{err: errors.New("fred unreachable")}
	srv := newTestServer(t, Config{Market: market, Bonds: bonds})

	resp, body := get(t, srv.URL+api.RouteMarketOverview)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var overview api.MarketOverview
	require.NoError(t, json.Unmarshal(body, &overview))
	require.Len(t, overview.Indices, 1)
	assert.Empty(t, overview.Bonds)
}

func TestServer_Listings(t *testing.T) {
	listings := &stubListings{items: []api.Listing{
		{Code: "9999", Company: "株式会社Acme"},
		{Code: "7777", Company: "株式会社サンプル"},
	}}
	srv := newTestServer(t, Config{Listings: listings})

	resp, body := get(t, srv.URL+api.RouteListings)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var collection api.ListingCollection
	require.NoError(t, json.Unmarshal(body, &collection))
	assert.Equal(t, 2, collection.TotalCount)
	require.Len(t, collection.Items, 2)
	assert.Equal(t, "9999", collection.Items[0].Code)
}

func TestServer_ListingsEmptyOnSourceFailure(t *testing.T) {
	listings := &stubListings{err: &api.ExternalAPIError{Source: "JPX", Detail: "HTTP 503"}}
	srv := newTestServer(t, Config{Listings: listings})

	resp, body := get(t, srv.URL+api.RouteListings)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var collection api.ListingCollection
	require.NoError(t, json.Unmarshal(body, &collection))
	assert.Equal(t, 0, collection.TotalCount)
	// The wire shape stays a collection with an empty array, not null.
	assert.Contains(t, string(body), `"items":[]`)
}

func TestServer_SummaryCachesByCode(t *testing.T) {
	generated := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	summaries := &stubSummaries{summary: &api.ListingSummary{
		Bullets:     []string{"事業Aを展開", "海外比率が高い"},
		GeneratedAt: generated,
	}}
	srv := newTestServer(t, Config{Summaries: summaries})

	resp, body := get(t, srv.URL+api.RouteSummary+"9999")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first api.ListingSummary
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Equal(t, "9999", first.Code)
	assert.False(t, first.Cached)
	assert.True(t, generated.Equal(first.GeneratedAt))

	resp, body = get(t, srv.URL+api.RouteSummary+"9999")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second api.ListingSummary
	require.NoError(t, json.Unmarshal(body, &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Bullets, second.Bullets)
	assert.True(t, generated.Equal(second.GeneratedAt))

	assert.Equal(t, int32(1), summaries.calls.Load())
}

func TestServer_SummaryCacheIsPerCode(t *testing.T) {
	summaries := &stubSummaries{summary: &api.ListingSummary{Bullets: []string{"b"}}}
	srv := newTestServer(t, Config{Summaries: summaries})

	get(t, srv.URL+api.RouteSummary+"9999")
	get(t, srv.URL+api.RouteSummary+"7777")
	assert.Equal(t, int32(2), summaries.calls.Load())
}

func TestServer_SummaryExternalAPIError(t *testing.T) {
	summaries := &stubSummaries{err: &api.ExternalAPIError{Source: "AzureOpenAI", Detail: "status 500"}}
	srv := newTestServer(t, Config{Summaries: summaries})

	resp, body := get(t, srv.URL+api.RouteSummary+"9999")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var envelope api.ErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, api.ErrorKindExternalAPI, envelope.Error)
	assert.Equal(t, "AzureOpenAI", envelope.Source)
	assert.Equal(t, "status 500", envelope.Detail)
}

func TestServer_SummaryErrorsAreNotCached(t *testing.T) {
	summaries := &stubSummaries{err: &api.ExternalAPIError{Source: "AzureOpenAI", Detail: "boom"}}
	srv := newTestServer(t, Config{Summaries: summaries})

	get(t, srv.URL+api.RouteSummary+"9999")
	get(t, srv.URL+api.RouteSummary+"9999")
	assert.Equal(t, int32(2), summaries.calls.Load())
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantSource string
	}{
		{
			name:       "external api error",
			err:        &api.ExternalAPIError{Source: "JPX", Detail: "timeout"},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   api.ErrorKindExternalAPI,
			wantSource: "JPX",
		},
		{
			name:       "data parsing error",
			err:        &api.DataParsingError{Source: "JPX", Detail: "no table"},
			wantStatus: http.StatusBadGateway,
			wantKind:   api.ErrorKindDataParsing,
			wantSource: "JPX",
		},
		{
			name:       "unclassified error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   "internal_error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var envelope api.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tc.wantKind, envelope.Error)
			assert.Equal(t, tc.wantSource, envelope.Source)
		})
	}
}
