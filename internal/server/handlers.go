package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/logging"
	"github.com/capitalens/capitalens/pkg/version"
)

// handleMarketOverview assembles the market snapshot from the quote and
// bond providers concurrently. A bond failure drops that category instead
// of failing the snapshot.
func (s *Server) handleMarketOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.FromContext(ctx)

	var (
		overview *api.MarketOverview
		bonds    []api.MarketItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		overview, err = s.market.Overview(gctx)
		return err
	})
	g.Go(func() error {
		items, err := s.bonds.Bonds(gctx)
		if err != nil {
			// Return nil so a bond failure cannot cancel the quote
			// fetches.
			log.Warn().Ctx(ctx).Err(err).Msg("bond yield fetch failed, dropping category")
			return nil
		}
		bonds = items
		return nil
	})
	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	overview.Bonds = bonds
	overview.GeneratedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, overview)
}

// handleListings serves the recent listings. A source failure yields an
// empty collection, not an error response; clients treat the collection as
// a whole-snapshot replacement either way.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := s.listings.Latest(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).Msg("listings fetch failed, serving empty collection")
		items = nil
	}
	if items == nil {
		items = []api.Listing{}
	}

	writeJSON(w, http.StatusOK, api.ListingCollection{
		Items:       items,
		TotalCount:  len(items),
		GeneratedAt: time.Now().UTC(),
	})
}

// handleSummary serves one listing summary, backed by the TTL cache. A
// cache hit keeps the original generation timestamp and flips the cached
// flag; only a fresh computation can fail.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	if entry, err := s.summaryCache.Get(code); err == nil {
		out := entry.Value
		out.Cached = true
		writeJSON(w, http.StatusOK, out)
		return
	}

	summary, err := s.summaries.Summarize(ctx, code)
	if err != nil {
		logging.FromContext(ctx).Error().Ctx(ctx).Str("code", code).Err(err).Msg("summary generation failed")
		writeError(w, err)
		return
	}
	if err := s.summaryCache.Set(code, *summary); err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).Str("code", code).Err(err).Msg("summary cache store failed")
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleVersion serves the build and API versions for the client handshake.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.VersionInfo{
		Version:    version.GetVersion(),
		APIVersion: version.APIVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps upstream failures onto the error envelope: external API
// failures are 503, parse failures 502, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	var extErr *api.ExternalAPIError
	var parseErr *api.DataParsingError
	switch {
	case errors.As(err, &extErr):
		writeJSON(w, http.StatusServiceUnavailable, api.ErrorEnvelope{
			Error:  api.ErrorKindExternalAPI,
			Source: extErr.Source,
			Detail: extErr.Detail,
		})
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusBadGateway, api.ErrorEnvelope{
			Error:  api.ErrorKindDataParsing,
			Source: parseErr.Source,
			Detail: parseErr.Detail,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, api.ErrorEnvelope{
			Error:  "internal_error",
			Detail: err.Error(),
		})
	}
}
