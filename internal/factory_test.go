package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/config"
	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/services/sources"
)

const testPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestNewScripts(t *testing.T) {
	reg, err := NewScripts(config.Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{sources.AlpacaBalanceSource}, reg.Names())
}

func TestNewSimulator(t *testing.T) {
	sim, err := NewSimulator(config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, sim)
}

func TestNewUploader(t *testing.T) {
	cfg := config.Config{Network: config.DefaultNetwork()}

	tests := []struct {
		name       string
		cfg        config.Config
		privateKey string
		wantErr    error
	}{
		{
			name:       "missing rpc url",
			cfg:        cfg,
			privateKey: testPrivateKey,
			wantErr:    domain.ErrMissingCredential,
		},
		{
			name:       "invalid private key",
			cfg:        config.Config{RPCURL: "http://127.0.0.1:1", Network: config.DefaultNetwork()},
			privateKey: "0x1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUploader(context.Background(), tt.cfg, tt.privateKey, t.TempDir(), zap.NewNop())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewUploader_OpensResources(t *testing.T) {
	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer rpc.Close()

	cfg := config.Config{RPCURL: rpc.URL, Network: config.DefaultNetwork()}
	uploader, err := NewUploader(context.Background(), cfg, testPrivateKey, t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, uploader.Close())
}

func TestUploadOptions(t *testing.T) {
	network := config.DefaultNetwork()
	network.SlotID = 4
	network.Expiration = time.Hour

	opts := UploadOptions(network)
	assert.Equal(t, network.GatewayURLs, opts.GatewayURLs)
	assert.Equal(t, uint(4), opts.SlotID)
	assert.Equal(t, time.Hour, opts.Expiration)
}
