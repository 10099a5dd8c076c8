package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/config"
	"github.com/vadiminshakov/alpacamint/internal"
	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/services/secrets"
	"github.com/vadiminshakov/alpacamint/internal/setup"
	"github.com/vadiminshakov/alpacamint/internal/storage/uploads"
)

type uploadFlags struct {
	privateKeyEnv string
	slotID        int
	expiration    time.Duration
	gateways      []string
	walDir        string
	yes           bool
}

func newUploadSecretsCmd(root *rootFlags, logger *zap.Logger) *cobra.Command {
	flags := &uploadFlags{}

	cmd := &cobra.Command{
		Use:   "upload-secrets",
		Short: "Encrypt the Alpaca credentials and host them on the DON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, &cfg.Network); err != nil {
				return err
			}
			if err := cfg.RequireRPC(); err != nil {
				return err
			}
			bundle := cfg.Secrets()
			if err := bundle.Require(bundle.Names()...); err != nil {
				return err
			}

			privateKey, err := flags.privateKey()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !flags.yes {
				fmt.Fprintln(out, setup.Header("upload secrets"))
				if err := setup.Confirm(out, "Upload secrets?", summaryRows(cfg.Network, bundle.Names())); err != nil {
					return err
				}
			}

			uploader, err := internal.NewUploader(cmd.Context(), cfg, privateKey, flags.walDir, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := uploader.Close(); err != nil {
					logger.Warn("failed to close uploader", zap.Error(err))
				}
			}()

			upload, err := uploader.Upload(cmd.Context(), bundle, internal.UploadOptions(cfg.Network))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), setup.Failure(err.Error()))
				return err
			}

			fmt.Fprintln(out, setup.Success(fmt.Sprintf(
				"Secrets uploaded to %s, slot %d, version %d, expires %s",
				upload.Gateway, upload.SlotID, upload.Version, upload.Expiration.Format(time.RFC3339))))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.privateKeyEnv, "private-key-env", "", "read the private key from this env variable instead of prompting")
	cmd.Flags().IntVar(&flags.slotID, "slot", 0, "DON storage slot")
	cmd.Flags().DurationVar(&flags.expiration, "expiration", config.DefaultExpiration, "how long the DON keeps the secrets")
	cmd.Flags().StringSliceVar(&flags.gateways, "gateways", nil, "gateway urls, network defaults when empty")
	cmd.Flags().StringVar(&flags.walDir, "wal-dir", uploads.DefaultDir, "upload ledger directory")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "skip confirmation")
	return cmd
}

// apply overrides network settings with flags the user set explicitly.
func (f *uploadFlags) apply(cmd *cobra.Command, network *config.Network) error {
	if cmd.Flags().Changed("slot") {
		if f.slotID < 0 {
			return fmt.Errorf("invalid --slot provided, --slot=%d", f.slotID)
		}
		network.SlotID = uint(f.slotID)
	}
	if cmd.Flags().Changed("expiration") {
		if f.expiration < secrets.MinExpiration {
			return fmt.Errorf("invalid --expiration provided, must be at least %s", secrets.MinExpiration)
		}
		network.Expiration = f.expiration
	}
	if len(f.gateways) > 0 {
		network.GatewayURLs = f.gateways
	}
	return nil
}

func (f *uploadFlags) privateKey() (string, error) {
	if f.privateKeyEnv == "" {
		return setup.PromptPrivateKey(secrets.ValidatePrivateKey)
	}

	key := os.Getenv(f.privateKeyEnv)
	if key == "" {
		return "", errors.Wrapf(domain.ErrMissingCredential, "%s is required", f.privateKeyEnv)
	}
	if err := secrets.ValidatePrivateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func summaryRows(network config.Network, names []string) [][2]string {
	return [][2]string{
		{"DON", network.DonID},
		{"Router", network.RouterAddress.Hex()},
		{"Gateways", strings.Join(network.GatewayURLs, ", ")},
		{"Slot", strconv.FormatUint(uint64(network.SlotID), 10)},
		{"Expiration", network.Expiration.String()},
		{"Secrets", strings.Join(names, ", ")},
	}
}
