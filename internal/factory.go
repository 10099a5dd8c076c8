package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/config"
	"github.com/vadiminshakov/alpacamint/internal/clients"
	"github.com/vadiminshakov/alpacamint/internal/services/sandbox"
	"github.com/vadiminshakov/alpacamint/internal/services/secrets"
	"github.com/vadiminshakov/alpacamint/internal/services/simulator"
	"github.com/vadiminshakov/alpacamint/internal/services/sources"
	"github.com/vadiminshakov/alpacamint/internal/storage/uploads"
)

// NewScripts registers every script the sandbox can run.
func NewScripts(cfg config.Config) (*sandbox.Registry, error) {
	reg := sandbox.NewRegistry()
	if err := sources.Register(reg, cfg.AlpacaBaseURL); err != nil {
		return nil, errors.Wrap(err, "register sources")
	}
	return reg, nil
}

// NewSimulator wires the local sandbox to a real HTTP client.
func NewSimulator(cfg config.Config, logger *zap.Logger) (*simulator.Simulator, error) {
	reg, err := NewScripts(cfg)
	if err != nil {
		return nil, err
	}
	sb := sandbox.New(reg, clients.NewHTTPClient(), logger)
	return simulator.New(sb, logger), nil
}

// Uploader is the secrets upload flow with the resources it holds open.
type Uploader struct {
	*secrets.Service
	closeRPC func()
	store    *uploads.WALStore
}

// NewUploader dials the RPC endpoint and opens the upload ledger in walDir.
// Close must be called when done.
func NewUploader(ctx context.Context, cfg config.Config, privateKey, walDir string, logger *zap.Logger) (*Uploader, error) {
	if err := cfg.RequireRPC(); err != nil {
		return nil, err
	}

	signer, err := secrets.NewSigner(privateKey)
	if err != nil {
		return nil, err
	}

	router, closeRPC, err := clients.DialFunctionsRouter(ctx, cfg.RPCURL, cfg.Network.RouterAddress)
	if err != nil {
		return nil, err
	}

	store, err := uploads.NewWALStore(walDir)
	if err != nil {
		closeRPC()
		return nil, err
	}

	manager := secrets.NewManager(signer, router, clients.NewGatewayClient(logger), cfg.Network.DonID, logger)
	return &Uploader{
		Service:  secrets.NewService(manager, store, logger),
		closeRPC: closeRPC,
		store:    store,
	}, nil
}

// UploadOptions are the upload options taken from the network configuration.
func UploadOptions(network config.Network) secrets.Options {
	return secrets.Options{
		GatewayURLs: network.GatewayURLs,
		SlotID:      network.SlotID,
		Expiration:  network.Expiration,
	}
}

func (u *Uploader) Close() error {
	u.closeRPC()
	return u.store.Close()
}
