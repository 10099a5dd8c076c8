package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal"
	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
	"github.com/vadiminshakov/alpacamint/internal/services/builder"
	"github.com/vadiminshakov/alpacamint/internal/setup"
	"github.com/vadiminshakov/alpacamint/internal/storage/requestconfig"
)

func newConfigCmd(root *rootFlags, logger *zap.Logger) *cobra.Command {
	var (
		source          string
		secretsLocation string
		returnType      string
		args            []string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the request descriptor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			scripts, err := internal.NewScripts(cfg)
			if err != nil {
				return err
			}

			rt, err := domain.ParseReturnType(returnType)
			if err != nil {
				return err
			}

			request, err := builder.Build(scripts, cfg.Secrets(), builder.Options{
				Source:             source,
				SecretsLocation:    entity.Location(secretsLocation),
				ExpectedReturnType: rt,
				Args:               args,
			})
			if err != nil {
				return err
			}

			store := requestconfig.NewStore(root.requestFile)
			if err := store.Save(request); err != nil {
				return err
			}
			logger.Info("request descriptor saved", zap.String("path", store.Path()), zap.String("source", request.Source))

			fmt.Fprintln(cmd.OutOrStdout(), setup.Success(fmt.Sprintf("Request descriptor saved to %s", store.Path())))
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "registered script name, alpaca-balance when empty")
	cmd.Flags().StringVar(&secretsLocation, "secrets-location", string(entity.LocationDONHosted), "inline, remote or don_hosted")
	cmd.Flags().StringVar(&returnType, "return-type", domain.ReturnTypeUint256.String(), "uint256, int256, string or bytes")
	cmd.Flags().StringSliceVar(&args, "args", nil, "script arguments")
	return cmd
}
