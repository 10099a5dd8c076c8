package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal/setup"
	"github.com/vadiminshakov/alpacamint/internal/storage/uploads"
)

func newUploadsCmd(root *rootFlags, logger *zap.Logger) *cobra.Command {
	var (
		walDir string
		after  uint64
		latest bool
	)

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List recorded secrets uploads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := uploads.NewWALStore(walDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("failed to close upload ledger", zap.Error(err))
				}
			}()

			if latest {
				return printLatest(cmd, root, store)
			}

			records, err := store.UploadsAfter(after)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No uploads after index %d, ledger is at index %d\n", after, store.CurrentIndex())
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tUPLOADED\tDON\tSLOT\tVERSION\tEXPIRES\tGATEWAY")
			for _, r := range records {
				u := r.Upload
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.Index, u.Timestamp.Format(time.RFC3339), u.DonID, u.SlotID, u.Version,
					u.Expiration.Format(time.RFC3339), u.Gateway)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&walDir, "wal-dir", uploads.DefaultDir, "upload ledger directory")
	cmd.Flags().Uint64Var(&after, "after", 0, "only list uploads after this ledger index")
	cmd.Flags().BoolVar(&latest, "latest", false, "show the secrets reference currently hosted in the configured DON slot")
	return cmd
}

// printLatest shows the slot and version a request must reference to use the
// most recent upload for the configured DON.
func printLatest(cmd *cobra.Command, root *rootFlags, store *uploads.WALStore) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}

	upload, ok, err := store.Latest(cfg.Network.DonID, cfg.Network.SlotID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("no uploads recorded for don %s slot %d", cfg.Network.DonID, cfg.Network.SlotID)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, setup.Summary([][2]string{
		{"DON", upload.DonID},
		{"Slot", fmt.Sprintf("%d", upload.SlotID)},
		{"Version", fmt.Sprintf("%d", upload.Version)},
		{"Expires", upload.Expiration.Format(time.RFC3339)},
		{"Owner", upload.Owner},
	}))
	if time.Now().After(upload.Expiration) {
		fmt.Fprintln(out, setup.Failure("Hosted secrets have expired, run upload-secrets again"))
	}
	return nil
}
