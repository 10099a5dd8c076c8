// Command alpacamint prepares a DON request that mints against an Alpaca
// brokerage balance.
//
// Usage:
//
//	alpacamint config           write the request descriptor
//	alpacamint simulate         run the descriptor locally
//	alpacamint upload-secrets   host the Alpaca credentials on the DON
//	alpacamint uploads          list recorded secrets uploads
//
// Environment variables (a .env file is loaded if present):
//
//	ALPACA_API_KEY, ALPACA_API_SECRET, SEPOLIA_RPC_URL, ALPACA_BASE_URL (optional)
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/config"
	"github.com/vadiminshakov/alpacamint/internal/storage/requestconfig"
)

type rootFlags struct {
	envFile     string
	networkFile string
	requestFile string
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "alpacamint",
		Short:         "Build, simulate and fund a DON request minting against an Alpaca balance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", config.DefaultEnvFile, "path to env file")
	root.PersistentFlags().StringVar(&flags.networkFile, "network", "", "path to yaml network config, Sepolia defaults when empty")
	root.PersistentFlags().StringVar(&flags.requestFile, "request", requestconfig.DefaultPath, "path to request descriptor")

	root.AddCommand(
		newConfigCmd(flags, logger),
		newSimulateCmd(flags, logger),
		newUploadSecretsCmd(flags, logger),
		newUploadsCmd(flags, logger),
	)
	return root
}

func (f *rootFlags) load() (config.Config, error) {
	return config.Load(f.envFile, f.networkFile)
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		logger.Error("command failed", zap.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}
