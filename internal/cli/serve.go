package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/capitalens/capitalens/internal/bondyield"
	"github.com/capitalens/capitalens/internal/config"
	"github.com/capitalens/capitalens/internal/jpx"
	"github.com/capitalens/capitalens/internal/logging"
	"github.com/capitalens/capitalens/internal/quotes"
	"github.com/capitalens/capitalens/internal/server"
	"github.com/capitalens/capitalens/internal/summarize"
)

// NewServeCmd creates the "serve" command running the aggregation server.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the aggregation server",
		Long: `Run the HTTP server that aggregates market quotes, bond yields, recent
TSE listings, and outline summaries for the dashboard and the one-shot
commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config, default \":8000\")")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.GetGlobalConfig()
	if addr == "" {
		addr = cfg.Server.Listen
	}

	// The listing source doubles as the summarizer's document locator.
	listings := jpx.NewSource(jpx.Config{
		Timeout: time.Duration(cfg.JPX.TimeoutSeconds) * time.Second,
	})

	srv, err := server.New(server.Config{
		Addr: addr,
		Market: quotes.NewProvider(quotes.Config{
			Timeout: time.Duration(cfg.Market.QuoteTimeoutSeconds) * time.Second,
		}),
		Bonds:    bondyield.NewProvider(bondyield.Config{}),
		Listings: listings,
		Summaries: summarize.New(summarize.Config{
			Source: listings,
			LLM: summarize.LLMConfig{
				Endpoint:   cfg.LLM.Endpoint,
				APIKey:     cfg.LLM.APIKey,
				Deployment: cfg.LLM.Deployment,
				APIVersion: cfg.LLM.APIVersion,
			},
		}),
		SummaryTTLSeconds: cfg.Cache.SummaryTTLSeconds,
		ShutdownGrace:     time.Duration(cfg.Server.ShutdownGraceSeconds) * time.Second,
		Logger:            logging.ComponentLogger(rootLogger, "server"),
	})
	if err != nil {
		return err
	}

	logger.Info().Ctx(cmd.Context()).Str("addr", addr).Msg("starting aggregation server")
	return srv.Run(ctx)
}
