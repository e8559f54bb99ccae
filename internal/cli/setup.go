package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/config"
)

// initConfig resolves the configuration for this invocation and applies
// root-flag overrides onto it.
func initConfig(cmd *cobra.Command) error {
	timeout, _ := cmd.Flags().GetInt("timeout")
	if timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %d", timeout)
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.NewFromFile(path)
		if err != nil {
			return err
		}
		config.SetGlobalConfig(cfg)
	} else {
		config.SetGlobalConfig(config.New())
	}

	cfg := config.GetGlobalConfig()
	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		cfg.Client.APIBaseURL = apiURL
	}
	if timeout > 0 {
		cfg.Client.TimeoutSeconds = timeout
	}
	if skip, _ := cmd.Flags().GetBool("skip-version-check"); skip {
		cfg.Client.SkipVersionCheck = true
	}

	return nil
}

// newAPIClient builds the aggregation API client from the resolved config.
func newAPIClient() *api.Client {
	cfg := config.GetGlobalConfig()
	return api.NewClient(api.Config{
		BaseURL: cfg.Client.APIBaseURL,
		Timeout: time.Duration(cfg.Client.TimeoutSeconds) * time.Second,
	})
}

// checkServerVersion runs the API version handshake unless disabled by flag
// or config. An incompatible server carries a hint about the escape hatch.
func checkServerVersion(ctx context.Context, client *api.Client) error {
	if config.GetGlobalConfig().Client.SkipVersionCheck {
		return nil
	}
	if err := client.CheckVersion(ctx); err != nil {
		if errors.Is(err, api.ErrVersionMismatch) {
			return fmt.Errorf("%w (pass --skip-version-check to force)", err)
		}
		return err
	}
	return nil
}
