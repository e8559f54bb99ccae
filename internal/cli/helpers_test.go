package cli_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/cli"
)

// executeCommand runs the root command with args against clean environment
// defaults and returns everything written to its output streams.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CAPITALENS_LOG_LEVEL", "error")
	t.Setenv("CAPITALENS_HOME", t.TempDir())

	var buf bytes.Buffer
	root := cli.NewRootCmd("test")
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newTestBackend serves fixture data on every aggregation API route.
func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestBackendWithAPIVersion(t, "1.0.0")
}

func newTestBackendWithAPIVersion(t *testing.T, apiVersion string) *httptest.Server {
	t.Helper()

	price := 1500.0
	collection := api.ListingCollection{
		Items: []api.Listing{
			{Code: "247A", Company: "テスト工業", Market: "プライム", ListingDate: api.NewDate(2026, time.April, 16)},
			{Code: "245A", Company: "キャピタルレンズ株式会社", Market: "グロース", ListingDate: api.NewDate(2026, time.April, 2), OfferingPrice: &price},
			{Code: "246A", Company: "Sample Holdings", Market: "スタンダード", ListingDate: api.NewDate(2026, time.April, 10)},
		},
		TotalCount:  3,
		GeneratedAt: time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC),
	}
	overview := api.MarketOverview{
		Indices:     []api.MarketItem{{Name: "日経平均", CurrentPrice: 50123.45, Change: 120.5, ChangePercent: 0.24}},
		FX:          []api.MarketItem{{Name: "ドル円", CurrentPrice: 155.12, Change: -0.3, ChangePercent: -0.19}},
		GeneratedAt: time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC),
	}
	summary := api.ListingSummary{
		Code:        "245A",
		Bullets:     []string{"クラウド会計サービスを提供", "売上は前年比30%増"},
		Cached:      true,
		GeneratedAt: time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteVersion, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, api.VersionInfo{Version: "1.2.3", APIVersion: apiVersion})
	})
	mux.HandleFunc(api.RouteListings, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, collection)
	})
	mux.HandleFunc(api.RouteMarketOverview, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, overview)
	})
	mux.HandleFunc(api.RouteSummary+"245A", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, summary)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
