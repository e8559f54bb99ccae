// Package server implements the aggregation HTTP server the capitalens
// client consumes: the market overview, the recent-listings collection,
// per-listing summaries with a server-side TTL cache, and the version
// handshake.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/cache"
)

// Defaults applied by New for zero Config fields.
const (
	// DefaultAddr is the listen address.
	DefaultAddr = ":8000"

	// DefaultShutdownGrace bounds the drain period after a stop signal.
	DefaultShutdownGrace = 10 * time.Second

	// DefaultSummaryTTLSeconds keeps generated summaries for a day.
	DefaultSummaryTTLSeconds = 86400
)

// cleanupInterval is how often expired summary cache entries are swept.
const cleanupInterval = time.Hour

// MarketProvider serves the quote categories of the market overview.
// *quotes.Provider satisfies it.
type MarketProvider interface {
	Overview(ctx context.Context) (*api.MarketOverview, error)
}

// BondProvider serves the bonds category. *bondyield.Provider satisfies it.
type BondProvider interface {
	Bonds(ctx context.Context) ([]api.MarketItem, error)
}

// ListingProvider serves the recent listings. *jpx.Source satisfies it.
type ListingProvider interface {
	Latest(ctx context.Context) ([]api.Listing, error)
}

// SummaryProvider produces per-listing summaries. *summarize.Summarizer
// satisfies it.
type SummaryProvider interface {
	Summarize(ctx context.Context, code string) (*api.ListingSummary, error)
}

// Config carries the server dependencies and settings. The four providers
// are required.
type Config struct {
	// Addr is the listen address. Empty means DefaultAddr.
	Addr string

	Market    MarketProvider
	Bonds     BondProvider
	Listings  ListingProvider
	Summaries SummaryProvider

	// SummaryTTLSeconds is how long generated summaries are served from
	// cache. Zero means DefaultSummaryTTLSeconds.
	SummaryTTLSeconds int

	// ShutdownGrace bounds the drain period after a stop signal. Zero
	// means DefaultShutdownGrace.
	ShutdownGrace time.Duration

	// Logger receives request and lifecycle logs. The zero value is
	// silent.
	Logger zerolog.Logger
}

// Server is the aggregation API server.
type Server struct {
	addr          string
	market        MarketProvider
	bonds         BondProvider
	listings      ListingProvider
	summaries     SummaryProvider
	summaryCache  *cache.MemoryStore[api.ListingSummary]
	shutdownGrace time.Duration
	logger        zerolog.Logger
	router        *chi.Mux
}

// New builds a Server from cfg, applying defaults for zero fields.
func New(cfg Config) (*Server, error) {
	ttl := cfg.SummaryTTLSeconds
	if ttl <= 0 {
		ttl = DefaultSummaryTTLSeconds
	}
	summaryCache, err := cache.NewMemoryStore[api.ListingSummary](true, ttl)
	if err != nil {
		return nil, fmt.Errorf("creating summary cache: %w", err)
	}

	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	grace := cfg.ShutdownGrace
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}

	s := &Server{
		addr:          addr,
		market:        cfg.Market,
		bonds:         cfg.Bonds,
		listings:      cfg.Listings,
		summaries:     cfg.Summaries,
		summaryCache:  summaryCache,
		shutdownGrace: grace,
		logger:        cfg.Logger,
	}
	s.router = s.routes()
	return s, nil
}

// routes assembles the middleware chain and route table. Paths are shared
// with the client through the api route constants.
func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(allowAllCORS)

	r.Get(api.RouteMarketOverview, s.handleMarketOverview)
	r.Get(api.RouteListings, s.handleListings)
	r.Get(api.RouteSummary+"{code}", s.handleSummary)
	r.Get(api.RouteVersion, s.handleVersion)
	r.Get(api.RouteHealth, s.handleHealth)
	return r
}

// Handler returns the assembled route handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("aggregation server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	go s.sweepSummaryCache(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return <-errCh
}

// sweepSummaryCache periodically drops expired summary entries.
func (s *Server) sweepSummaryCache(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.summaryCache.CleanupExpired(); n > 0 {
				s.logger.Debug().Int("purged", n).Msg("summary cache swept")
			}
		}
	}
}
