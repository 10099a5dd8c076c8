package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal"
	"github.com/vadiminshakov/alpacamint/internal/entity"
	"github.com/vadiminshakov/alpacamint/internal/services/builder"
	"github.com/vadiminshakov/alpacamint/internal/storage/requestconfig"
)

func newSimulateCmd(root *rootFlags, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Run the request script locally and print the decoded result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			request, err := loadRequest(root.requestFile, logger)
			if err != nil {
				return err
			}
			request = builder.ResolveSecrets(request, cfg.Secrets())

			sim, err := internal.NewSimulator(cfg, logger)
			if err != nil {
				return err
			}
			report, err := sim.Simulate(cmd.Context(), request)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, line := range report.CapturedLogs {
				fmt.Fprintln(out, line)
			}
			if report.Failed() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error returned by script: %s\n", report.ErrorString)
				return nil
			}
			fmt.Fprintf(out, "Response returned by script: %s\n", report.Decoded)
			return nil
		},
	}
}

func loadRequest(path string, logger *zap.Logger) (entity.RequestConfig, error) {
	request, err := requestconfig.NewStore(path).Load()
	if err == nil {
		return request, nil
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		return entity.RequestConfig{}, err
	}

	logger.Info("request descriptor not found, using the alpaca-balance request", zap.String("path", path))
	return builder.AlpacaMintRequest(nil), nil
}
