package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Payphone-Digital/fleet-registry/config"
	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
	"github.com/Payphone-Digital/fleet-registry/pkg/validation"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fleetd",
		Short:         "Fleet registry API server",
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newTokenCmd(),
	)
	return root
}

// loadConfig reads the environment and initializes the global logger.
// Every subcommand starts here.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := validation.RegisterGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return cfg, nil
}
