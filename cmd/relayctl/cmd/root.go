package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/pkg/logger"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "relayctl - relaygate operator tooling",
	Long: `relayctl drives the relaygate core without the HTTP server.

Commands:
  batch run   - Apply a batch file against the configured store
  token sign  - Mint a bearer token when jwt token mode is configured

Configuration is read the same way as the server (environment and config.yaml).

Example:
  relayctl batch run -f ops.json --auth "Basic YWRtaW46YWRtaW4="
  relayctl token sign --username alice --ttl 1h`,
	Version:       Version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads server configuration and a stderr logger sized by --verbose
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !verbose {
		return cfg, zap.NewNop(), nil
	}
	return cfg, logger.NewWithWriter(logger.Config{Level: "debug", Format: "console", Service: "relayctl"}, os.Stderr), nil
}
